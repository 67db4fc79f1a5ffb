// Package builtin registers AnimaWeave's built-in semantic label types:
// Number, String and Bool, plus the declared conversions between them.
package builtin

import (
	"strconv"

	"github.com/animaweave/animaweave/label"
)

// NumberTypeName is the stable type name for Number labels.
const NumberTypeName = "Number"

// Number is a floating point semantic value.
type Number struct {
	Value float64
}

// TypeName implements label.Label.
func (n Number) TypeName() string { return NumberTypeName }

// Clone implements label.Label.
func (n Number) Clone() label.Label { return n }

func init() {
	label.Register(NumberTypeName, map[string]label.ConvertFunc{
		StringTypeName: func(l label.Label) (label.Label, error) {
			n := l.(Number)
			return String{Value: strconv.FormatFloat(n.Value, 'g', -1, 64)}, nil
		},
		BoolTypeName: func(l label.Label) (label.Label, error) {
			n := l.(Number)
			return Bool{Value: n.Value != 0}, nil
		},
	})
}
