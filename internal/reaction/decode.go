package reaction

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes an apparatus, applying defaults for absent fields.
func (a *Apparatus) UnmarshalYAML(node *yaml.Node) error {
	type plain Apparatus
	p := plain(NewApparatus("", ""))
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = Apparatus(p)
	return nil
}

// UnmarshalYAML decodes a timeline from either an index-keyed mapping or a
// sequence. Keys that are not non-negative integers are skipped with a
// warning; they cannot be ordered and are an authoring error.
func (t *Timeline) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	t.Steps = nil
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		return fmt.Errorf("line %d: timeline must be a mapping or a sequence", node.Line)

	case yaml.SequenceNode:
		t.Steps = make([]Step, 0, len(node.Content))
		for i, item := range node.Content {
			var step Step
			if err := item.Decode(&step); err != nil {
				return fmt.Errorf("failed to decode step %d: %w", i, err)
			}
			step.Index = i
			warnMalformed(step, strconv.Itoa(i))
			t.Steps = append(t.Steps, step)
		}
		return nil

	case yaml.MappingNode:
		seen := make(map[int]bool, len(node.Content)/2)
		t.Steps = make([]Step, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := strings.TrimSpace(node.Content[i].Value)
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 {
				log.Printf("[Timeline] Warning: skipping step with non-ordinal key %q (line %d)", key, node.Content[i].Line)
				continue
			}
			if seen[index] {
				log.Printf("[Timeline] Warning: duplicate step index %d (key %q), keeping the first", index, key)
				continue
			}
			var step Step
			if err := node.Content[i+1].Decode(&step); err != nil {
				return fmt.Errorf("failed to decode step %q: %w", key, err)
			}
			step.Index = index
			warnMalformed(step, key)
			seen[index] = true
			t.Steps = append(t.Steps, step)
		}
		sort.SliceStable(t.Steps, func(i, j int) bool {
			return t.Steps[i].Index < t.Steps[j].Index
		})
		return nil
	}

	return fmt.Errorf("line %d: unsupported timeline node", node.Line)
}

func warnMalformed(step Step, key string) {
	for _, field := range step.Malformed {
		log.Printf("[Timeline] Warning: step %q has a malformed %s, using the default", key, field)
	}
}

// MarshalYAML encodes the timeline as an index-keyed mapping in step order.
func (t Timeline) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, step := range t.Steps {
		var value yaml.Node
		if err := value.Encode(step); err != nil {
			return nil, fmt.Errorf("failed to encode step %d: %w", step.Index, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strconv.Itoa(step.Index)},
			&value,
		)
	}
	return node, nil
}
