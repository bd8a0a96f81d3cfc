package signature

// A Signature records the fields of a struct declaration or the parameters
// of a function, in declaration order. Field order is load-bearing: it
// determines positional-argument binding at construction and call sites.

type Field = struct {
	VarName  string
	Optional bool // true iff the field carries a default-value expression
}

type Signature []Field

func (sig Signature) String() (result string) {
	for _, v := range sig {
		if result != "" {
			result = result + ", "
		}
		result = result + v.VarName
		if v.Optional {
			result = result + " = ..."
		}
	}
	result = "(" + result + ")"
	return
}

func (sig Signature) Names() []string {
	result := make([]string, 0, len(sig))
	for _, v := range sig {
		result = append(result, v.VarName)
	}
	return result
}

// Position returns the index of the named field, or -1.
func (sig Signature) Position(name string) int {
	for i, v := range sig {
		if v.VarName == name {
			return i
		}
	}
	return -1
}
