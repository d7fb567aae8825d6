package reaction

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	// KindNone is the zero Value (absent or null)
	KindNone ValueKind = iota
	KindNumber
	KindString
	KindBool
	KindNumbers
	// KindRaw holds any other YAML shape (nested maps, mixed lists)
	KindRaw
)

// Value is an opaque scalar or numeric array carried through the engine.
//
// Fields are exported so deep copies can reach them; use the constructors
// and accessors rather than setting them directly.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
	Nums []float64
	Raw  interface{}
}

// Number returns a numeric Value.
func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// String returns a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Numbers returns a numeric array Value. The slice is copied.
func Numbers(v ...float64) Value {
	return Value{Kind: KindNumbers, Nums: append([]float64(nil), v...)}
}

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool {
	return v.Kind == KindNone
}

// AsNumber returns the numeric payload. Numeric strings are accepted since
// editors frequently store numbers typed into text fields.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

// AsNumbers returns the numeric array payload.
func (v Value) AsNumbers() ([]float64, bool) {
	if v.Kind != KindNumbers {
		return nil, false
	}
	return v.Nums, true
}

// Clone returns a copy that shares no slices with v.
func (v Value) Clone() Value {
	if v.Kind == KindNumbers {
		v.Nums = append([]float64(nil), v.Nums...)
	}
	return v
}

// Equal reports whether two values hold the same variant and payload.
// Raw values compare by their printed form.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNone:
		return true
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindNumbers:
		if len(v.Nums) != len(o.Nums) {
			return false
		}
		for i := range v.Nums {
			if v.Nums[i] != o.Nums[i] {
				return false
			}
		}
		return true
	}
	return fmt.Sprint(v.Raw) == fmt.Sprint(o.Raw)
}

// String formats the value for logs and terminal output.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumbers:
		return fmt.Sprint(v.Nums)
	case KindRaw:
		return fmt.Sprint(v.Raw)
	}
	return "<none>"
}

// UnmarshalYAML decodes any YAML node into a Value.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			*v = Value{}
			return nil
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				var n float64
				if derr := node.Decode(&n); derr != nil {
					return fmt.Errorf("failed to parse number %q: %w", node.Value, err)
				}
				f = n
			}
			*v = Number(f)
			return nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = Bool(b)
			return nil
		}
		*v = String(node.Value)
		return nil
	case yaml.SequenceNode:
		nums := make([]float64, 0, len(node.Content))
		numeric := true
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || (item.Tag != "!!int" && item.Tag != "!!float") {
				numeric = false
				break
			}
			f, err := strconv.ParseFloat(item.Value, 64)
			if err != nil {
				numeric = false
				break
			}
			nums = append(nums, f)
		}
		if numeric {
			*v = Value{Kind: KindNumbers, Nums: nums}
			return nil
		}
	case yaml.AliasNode:
		return v.UnmarshalYAML(node.Alias)
	}

	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = Value{Kind: KindRaw, Raw: raw}
	return nil
}

// MarshalYAML encodes the value as its natural YAML shape.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindString:
		return v.Str, nil
	case KindBool:
		return v.Bool, nil
	case KindNumbers:
		return v.Nums, nil
	case KindRaw:
		return v.Raw, nil
	}
	return nil, nil
}

// UnmarshalYAML accepts a sequence of up to three numbers or an {x,y,z}
// mapping. Components that are absent or not numeric keep their current
// value, so defaults set before decoding survive partial input.
func (v *Vec3) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		for i, item := range node.Content {
			if i >= 3 {
				break
			}
			if f, ok := scalarFloat(item); ok {
				v[i] = f
			}
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			f, ok := scalarFloat(node.Content[i+1])
			if !ok {
				continue
			}
			switch key {
			case "x":
				v[0] = f
			case "y":
				v[1] = f
			case "z":
				v[2] = f
			}
		}
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		// a single number is a uniform tuple, common for scale
		if f, ok := scalarFloat(node); ok {
			*v = Vec3{f, f, f}
			return nil
		}
	}
	return fmt.Errorf("line %d: cannot decode %q as a 3-tuple", node.Line, node.Value)
}

// MarshalYAML encodes the tuple as a plain number sequence.
func (v Vec3) MarshalYAML() (interface{}, error) {
	return []float64{v[0], v[1], v[2]}, nil
}

func scalarFloat(node *yaml.Node) (float64, bool) {
	if node.Kind != yaml.ScalarNode {
		return 0, false
	}
	f, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
