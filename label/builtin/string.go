package builtin

import (
	"strconv"

	"github.com/animaweave/animaweave/label"
)

// StringTypeName is the stable type name for String labels.
const StringTypeName = "String"

// String is a UTF-8 text semantic value.
type String struct {
	Value string
}

// TypeName implements label.Label.
func (s String) TypeName() string { return StringTypeName }

// Clone implements label.Label.
func (s String) Clone() label.Label { return s }

func init() {
	label.Register(StringTypeName, map[string]label.ConvertFunc{
		NumberTypeName: func(l label.Label) (label.Label, error) {
			s := l.(String)
			f, err := strconv.ParseFloat(s.Value, 64)
			if err != nil {
				return nil, &label.IncompatibleTypesError{From: StringTypeName, To: NumberTypeName}
			}
			return Number{Value: f}, nil
		},
		BoolTypeName: func(l label.Label) (label.Label, error) {
			s := l.(String)
			b, err := strconv.ParseBool(s.Value)
			if err != nil {
				return nil, &label.IncompatibleTypesError{From: StringTypeName, To: BoolTypeName}
			}
			return Bool{Value: b}, nil
		},
	})
}
