package reaction

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fieldKind is the Go type a leniently decoded scalar ends up in.
type fieldKind int

const (
	numberField fieldKind = iota
	intField
	boolField
)

type lenientField struct {
	key  string
	kind fieldKind
}

// Scalar fields of a step and of its nested lists that editors are known to
// write as strings. Values that cannot be read as the expected type are
// dropped, so the field keeps its zero value: duration and delay 0,
// durationSteps 1, visible unset, rotate speed 1.
var (
	stepFields = []lenientField{
		{"duration", numberField},
		{"delay", numberField},
		{"disabled", boolField},
	}
	stepListFields = map[string][]lenientField{
		"animations": {
			{"duration", numberField},
			{"speed", numberField},
		},
		"effects": {
			{"durationSteps", intField},
			{"disabled", boolField},
		},
		"transformations": {
			{"visible", boolField},
		},
	}
)

// UnmarshalYAML decodes a step, accepting quoted numbers and booleans in
// its scalar fields. Fields that still cannot be read are reset to their
// defaults and listed in Malformed.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	n, malformed := lenientStep(node)

	type plain Step
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	s.Malformed = malformed
	return nil
}

// lenientStep returns a copy of a step mapping with its known scalar fields
// normalized, plus the paths of the fields that had to be dropped.
func lenientStep(node *yaml.Node) (*yaml.Node, []string) {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return node, nil
	}

	var malformed []string
	step := copyNode(node)
	malformed = append(malformed, normalizeFields(step, stepFields, "")...)

	for i := 0; i+1 < len(step.Content); i += 2 {
		key := step.Content[i].Value
		fields, ok := stepListFields[key]
		if !ok {
			continue
		}
		list := resolveAlias(step.Content[i+1])
		if list == nil || list.Kind != yaml.SequenceNode {
			continue
		}
		list = copyNode(list)
		for j, item := range list.Content {
			item = resolveAlias(item)
			if item == nil || item.Kind != yaml.MappingNode {
				continue
			}
			item = copyNode(item)
			malformed = append(malformed, normalizeFields(item, fields, fmt.Sprintf("%s[%d].", key, j))...)
			list.Content[j] = item
		}
		step.Content[i+1] = list
	}
	return step, malformed
}

// normalizeFields rewrites the listed keys of mapping m in place. It
// returns prefix+key for every value it had to drop.
func normalizeFields(m *yaml.Node, fields []lenientField, prefix string) []string {
	var dropped []string
	for _, f := range fields {
		for i := 0; i+1 < len(m.Content); i += 2 {
			if m.Content[i].Value != f.key {
				continue
			}
			if v, ok := normalizeScalar(m.Content[i+1], f.kind); ok {
				m.Content[i+1] = v
			} else {
				m.Content = append(m.Content[:i:i], m.Content[i+2:]...)
				dropped = append(dropped, prefix+f.key)
			}
			break
		}
	}
	return dropped
}

// normalizeScalar returns a node that decodes cleanly into kind, or false
// when v has no sensible reading as that kind.
func normalizeScalar(v *yaml.Node, kind fieldKind) (*yaml.Node, bool) {
	v = resolveAlias(v)
	if v == nil || v.Kind != yaml.ScalarNode {
		return nil, false
	}
	if v.Tag == "!!null" {
		return v, true
	}
	text := strings.TrimSpace(v.Value)

	switch kind {
	case numberField:
		if v.Tag == "!!int" || v.Tag == "!!float" {
			return v, true
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return scalarNode(v, "!!float", strconv.FormatFloat(f, 'g', -1, 64)), true

	case intField:
		if v.Tag == "!!int" {
			if _, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64); err == nil {
				return v, true
			}
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) {
			return nil, false
		}
		switch {
		case f >= math.MaxInt32:
			f = math.MaxInt32
		case f <= math.MinInt32:
			f = math.MinInt32
		}
		return scalarNode(v, "!!int", strconv.Itoa(int(f))), true

	case boolField:
		if v.Tag == "!!bool" {
			return v, true
		}
		b, err := strconv.ParseBool(strings.ToLower(text))
		if err != nil {
			return nil, false
		}
		return scalarNode(v, "!!bool", strconv.FormatBool(b)), true
	}
	return nil, false
}

func scalarNode(from *yaml.Node, tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value, Line: from.Line, Column: from.Column}
}

func copyNode(n *yaml.Node) *yaml.Node {
	c := *n
	c.Content = append([]*yaml.Node(nil), n.Content...)
	return &c
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
