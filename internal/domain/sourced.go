package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ScalarValue holds a YAML scalar that may be numeric, free text, or null.
// Numeric-looking strings (e.g. "0.02") are treated as numeric.
type ScalarValue struct {
	raw     string
	set     bool
	numeric bool
	num     decimal.Decimal
}

// Number creates a numeric ScalarValue.
func Number(d decimal.Decimal) ScalarValue {
	return ScalarValue{raw: d.String(), set: true, numeric: true, num: d}
}

// NumberFloat creates a numeric ScalarValue from a float64.
func NumberFloat(f float64) ScalarValue {
	return Number(decimal.NewFromFloat(f))
}

// Text creates a free-text ScalarValue.
func Text(s string) ScalarValue {
	v := ScalarValue{raw: s, set: true}
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		v.numeric = true
		v.num = d
	}
	return v
}

// IsSet reports whether the scalar carries a value (false for null/absent).
func (v ScalarValue) IsSet() bool { return v.set }

// Decimal returns the numeric value, if the scalar is numeric.
func (v ScalarValue) Decimal() (decimal.Decimal, bool) {
	if !v.set || !v.numeric {
		return decimal.Decimal{}, false
	}
	return v.num, true
}

func (v ScalarValue) String() string { return v.raw }

// UnmarshalYAML accepts int, float, string, or null scalars.
func (v *ScalarValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*v = ScalarValue{}
		return nil
	}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("value must be a scalar, got %s", node.Tag)
	}
	switch node.Tag {
	case "!!int", "!!float":
		d, err := decimal.NewFromString(node.Value)
		if err != nil {
			return fmt.Errorf("invalid numeric value %q: %w", node.Value, err)
		}
		*v = Number(d)
	case "!!bool":
		return fmt.Errorf("value must be numeric, text, or null, got bool %q", node.Value)
	default:
		*v = Text(node.Value)
	}
	return nil
}

// MarshalYAML renders the scalar back as a number, string, or null.
func (v ScalarValue) MarshalYAML() (interface{}, error) {
	if !v.set {
		return nil, nil
	}
	if v.numeric {
		f, _ := v.num.Float64()
		return f, nil
	}
	return v.raw, nil
}

// MarshalJSON renders the scalar as a JSON number, string, or null.
func (v ScalarValue) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	if v.numeric {
		return []byte(v.num.String()), nil
	}
	return []byte(fmt.Sprintf("%q", v.raw)), nil
}

// SourcedValue is a scalar parameter with mandatory provenance. Every numeric
// parameter in a country file is wrapped in this type so that each figure can
// be traced back to a law, publication, or institutional source.
type SourcedValue struct {
	Value          ScalarValue `yaml:"value" json:"value"`
	SourceCitation string      `yaml:"source_citation" json:"source_citation"`
	SourceURL      string      `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	Year           int         `yaml:"year,omitempty" json:"year,omitempty"`
	Notes          string      `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Sourced builds a numeric SourcedValue; used heavily in tests and fixtures.
func Sourced(value float64, citation string) *SourcedValue {
	return &SourcedValue{Value: NumberFloat(value), SourceCitation: citation}
}

// Decimal returns the numeric value of a possibly-nil SourcedValue.
func (sv *SourcedValue) Decimal() (decimal.Decimal, bool) {
	if sv == nil {
		return decimal.Decimal{}, false
	}
	return sv.Value.Decimal()
}

// DecimalOr returns the numeric value or the given default.
func (sv *SourcedValue) DecimalOr(def decimal.Decimal) decimal.Decimal {
	if d, ok := sv.Decimal(); ok {
		return d
	}
	return def
}

// Citation returns the source citation of a possibly-nil SourcedValue.
func (sv *SourcedValue) Citation() string {
	if sv == nil {
		return ""
	}
	return sv.SourceCitation
}

// Validate enforces the provenance contract: a non-empty citation.
func (sv *SourcedValue) Validate() error {
	if sv == nil {
		return nil
	}
	if strings.TrimSpace(sv.SourceCitation) == "" {
		return fmt.Errorf("source_citation must not be empty")
	}
	return nil
}
