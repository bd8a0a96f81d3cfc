package sysvars

import (
	"github.com/pryzma-lang/pryzma/object"
)

// A sysvar has a default value and a validator which returns the id of the
// error to throw, or the empty string if the value is acceptable.
type sysvar = struct {
	Dflt      object.Object
	Validator func(object.Object) string
}

var Sysvars = map[string]sysvar{
	"$view": sysvar{
		Dflt: &object.String{Value: "plain"},
		Validator: func(obj object.Object) string {
			switch obj := obj.(type) {
			case *object.String:
				if obj.Value != "pryzma" && obj.Value != "plain" {
					return "sys/view/vals"
				}
				return ""
			default:
				return "sys/view/string"
			}
		},
	},
}
