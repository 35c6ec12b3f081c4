package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// --------------------------------------------------------------------------
// Dimension
// --------------------------------------------------------------------------

// Dimension holds the candidate values of one sweep dimension.
// The zero value is unset.
type Dimension[T any] struct {
	values []T
	set    bool
}

// Of creates a dimension bound to the given candidates.
// Of() creates a dimension without candidates, which yields an empty sweep.
func Of[T any](values ...T) Dimension[T] {
	if values == nil {
		values = []T{}
	}
	return Dimension[T]{values: values, set: true}
}

// IsSet reports whether the dimension was bound.
func (d Dimension[T]) IsSet() bool { return d.set }

// Values returns the candidates, or base if the dimension is unset.
func (d Dimension[T]) Values(base T) []T {
	if !d.set {
		return []T{base}
	}
	return d.values
}

// Len returns the number of candidates; an unset dimension counts as one.
func (d Dimension[T]) Len() int {
	if !d.set {
		return 1
	}
	return len(d.values)
}

// Set binds the dimension to exactly one value.
func (d *Dimension[T]) Set(v T) {
	d.values = []T{v}
	d.set = true
}

// UnmarshalYAML accepts a scalar or a sequence.
func (d *Dimension[T]) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			*d = Dimension[T]{}
			return nil
		}
		var v T
		if err := node.Decode(&v); err != nil {
			return err
		}
		d.Set(v)
	case yaml.SequenceNode:
		var vs []T
		if err := node.Decode(&vs); err != nil {
			return err
		}
		*d = Of(vs...)
	default:
		return fmt.Errorf("line %d: expected a value or a list of values", node.Line)
	}
	return nil
}

// --------------------------------------------------------------------------
// Integer dimensions with ranges
// --------------------------------------------------------------------------

// IntDimension is a Dimension of integers that also accepts a Range.
type IntDimension struct {
	Dimension[int]
}

// Ints creates an integer dimension bound to the given candidates.
func Ints(values ...int) IntDimension {
	return IntDimension{Of(values...)}
}

// UnmarshalYAML accepts a scalar, a sequence or a range mapping.
func (d *IntDimension) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return d.Dimension.UnmarshalYAML(node)
	}

	for i := 0; i < len(node.Content); i += 2 {
		switch key := node.Content[i].Value; key {
		case "from", "to", "step", "mult":
		default:
			return fmt.Errorf("line %d: unknown range field %q (expected from, to, step or mult)", node.Content[i].Line, key)
		}
	}

	var r Range
	if err := node.Decode(&r); err != nil {
		return err
	}
	values, err := r.Expand()
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Dimension = Of(values...)
	return nil
}

// Range describes the integers From, From+Step, ... up to To (inclusive),
// or From, From*Mult, ... up to To when Mult is given.
type Range struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
	Step int `yaml:"step"`
	Mult int `yaml:"mult"`
}

// Expand lists the values of the range.
func (r Range) Expand() ([]int, error) {
	switch {
	case r.Step != 0 && r.Mult != 0:
		return nil, fmt.Errorf("range must set either step or mult, not both")
	case r.From > r.To:
		return nil, fmt.Errorf("range from %d is greater than to %d", r.From, r.To)
	}

	var values []int
	switch {
	case r.Mult != 0:
		if r.Mult < 2 {
			return nil, fmt.Errorf("range mult must be at least 2, got %d", r.Mult)
		}
		if r.From < 1 {
			return nil, fmt.Errorf("range with mult must start at 1 or above, got %d", r.From)
		}
		for v := r.From; ; v *= r.Mult {
			values = append(values, v)
			if v > r.To/r.Mult {
				break
			}
		}
	default:
		step := r.Step
		if step == 0 {
			step = 1
		}
		if step < 0 {
			return nil, fmt.Errorf("range step must be positive, got %d", step)
		}
		for v := r.From; ; v += step {
			values = append(values, v)
			if v > r.To-step {
				break
			}
		}
	}
	return values, nil
}

// --------------------------------------------------------------------------
// Operation mix
// --------------------------------------------------------------------------

// Mix is an operation mix in percent, written as "read/upsert/rmw".
type Mix struct {
	Read   int
	Upsert int
	RMW    int
}

// ParseMix parses "read/upsert/rmw" (e.g. "50/50/0"). A missing rmw part
// is read as 0.
func ParseMix(s string) (Mix, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return Mix{}, fmt.Errorf("invalid mix %q (expected read/upsert/rmw)", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Mix{}, fmt.Errorf("invalid mix %q: %q is not a number", s, p)
		}
		nums[i] = n
	}
	return Mix{Read: nums[0], Upsert: nums[1], RMW: nums[2]}, nil
}

func (m Mix) String() string {
	return fmt.Sprintf("%d/%d/%d", m.Read, m.Upsert, m.RMW)
}

// UnmarshalYAML reads the "read/upsert/rmw" form.
func (m *Mix) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMix(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}

// MarshalYAML writes the "read/upsert/rmw" form.
func (m Mix) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}
