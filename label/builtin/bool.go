package builtin

import "github.com/animaweave/animaweave/label"

// BoolTypeName is the stable type name for Bool labels.
const BoolTypeName = "Bool"

// Bool is a boolean semantic value.
type Bool struct {
	Value bool
}

// TypeName implements label.Label.
func (b Bool) TypeName() string { return BoolTypeName }

// Clone implements label.Label.
func (b Bool) Clone() label.Label { return b }

func init() {
	label.Register(BoolTypeName, map[string]label.ConvertFunc{
		StringTypeName: func(l label.Label) (label.Label, error) {
			b := l.(Bool)
			if b.Value {
				return String{Value: "true"}, nil
			}
			return String{Value: "false"}, nil
		},
		NumberTypeName: func(l label.Label) (label.Label, error) {
			b := l.(Bool)
			if b.Value {
				return Number{Value: 1}, nil
			}
			return Number{Value: 0}, nil
		},
	})
}
