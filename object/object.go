package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pryzma-lang/pryzma/ast"
	"github.com/pryzma-lang/pryzma/emulator"
	"github.com/pryzma-lang/pryzma/signature"
	"github.com/pryzma-lang/pryzma/text"
	"github.com/pryzma-lang/pryzma/token"
)

type View int

const (
	ViewStdOut = iota
	ViewPryzmaLiteral
)

type ObjectType string

const (
	ERROR_OBJ = "error"

	INTEGER_OBJ = "int"
	FLOAT_OBJ   = "float"
	STRING_OBJ  = "string"
	BOOLEAN_OBJ = "bool"
	NONE_OBJ    = "none"
	LIST_OBJ    = "list"
	STRUCT_OBJ  = "struct"

	STRUCTDEF_OBJ = "structdef"
	FUNC_OBJ      = "func"
	ASM_OBJ       = "asm"
	MODULE_OBJ    = "module"
	BUILTIN_OBJ   = "builtin"

	RETURN_OBJ = "return"
)

type Object interface {
	Type() ObjectType
	Inspect(view View) string
}

// TrueType exists because the user should see the type of a struct value as
// the name of its struct, not as "struct".
func TrueType(o Object) string {
	if o.Type() == STRUCT_OBJ {
		return o.(*Struct).Name
	}
	return string(o.Type())
}

func EmphType(o Object) string { return "<" + TrueType(o) + ">" }
func EmphValue(o Object) string { return text.Emph(o.Inspect(ViewPryzmaLiteral)) }

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect(view View) string { return fmt.Sprintf("%d", i.Value) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }

// A float always shows a decimal point, so that it can't be mistaken for an
// integer.
func (f *Float) Inspect(view View) string {
	result := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(result, ".eE") {
		result = result + ".0"
	}
	return result
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect(view View) string {
	if view == ViewStdOut {
		return s.Value
	}
	return "\"" + s.Value + "\""
}

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect(view View) string { return fmt.Sprintf("%t", b.Value) }

type None struct{}

func (n *None) Type() ObjectType { return NONE_OBJ }
func (n *None) Inspect(view View) string { return "none" }

// The singletons. Everything that needs a bool or a none points at these,
// so equality on them does not need special-casing.
var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	NONE  = &None{}
)

func MakeBool(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

func MakeInverseBool(input bool) *Boolean {
	if input {
		return FALSE
	}
	return TRUE
}

// Lists are mutable and shared by reference: two variables bound to the same
// *List observe one another's mutations.
type List struct {
	Elements []Object
}

func (lo *List) Type() ObjectType { return LIST_OBJ }
func (lo *List) Inspect(view View) string {
	var out bytes.Buffer
	elements := []string{}
	for _, e := range lo.Elements {
		elements = append(elements, e.Inspect(ViewPryzmaLiteral))
	}
	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")
	return out.String()
}

// A struct value. Labels keeps the declaration order of the fields, which the
// map loses; Inspect and structural comparison both want it.
type Struct struct {
	Name   string
	Labels []string
	Value  map[string]Object
}

func (st *Struct) Type() ObjectType { return STRUCT_OBJ }
func (st *Struct) Inspect(view View) string {
	var out bytes.Buffer
	out.WriteString(st.Name)
	out.WriteString(" with ")
	sep := ""
	for _, label := range st.Labels {
		out.WriteString(sep)
		out.WriteString(label)
		out.WriteString(": ")
		out.WriteString(st.Value[label].Inspect(ProbablyLiteral(view)))
		sep = ", "
	}
	return out.String()
}

// A struct declaration. Defaults runs parallel to Sig: a nil entry means the
// field is required, a non-nil entry is the unevaluated default expression,
// re-evaluated at each instantiation.
type StructDef struct {
	Name     string
	Sig      signature.Signature
	Defaults []ast.Node
}

func (sd *StructDef) Type() ObjectType { return STRUCTDEF_OBJ }
func (sd *StructDef) Inspect(view View) string { return "struct " + sd.Name + " {" + sd.Sig.String() + "}" }

// A function value. Env points at the environment the literal was evaluated
// in, so the closure sees later mutations of captured variables.
type Func struct {
	Name   string
	Params []string
	Body   *ast.BlockStatement
	Env    *Environment
}

func (fn *Func) Type() ObjectType { return FUNC_OBJ }
func (fn *Func) Inspect(view View) string {
	name := fn.Name
	if name == "" {
		name = "func"
	}
	return name + "(" + strings.Join(fn.Params, ", ") + ")"
}

// An assembly block, callable like a function. Program is the decoded form of
// the block body; decoding happens once, when the declaration is evaluated.
type AsmBlock struct {
	Name     string
	Params   []string
	EntryRegs []string
	ExitRegs []string
	MemSize  int64
	Program  *emulator.Program
}

func (ab *AsmBlock) Type() ObjectType { return ASM_OBJ }
func (ab *AsmBlock) Inspect(view View) string {
	params := make([]string, len(ab.Params))
	for i, p := range ab.Params {
		params[i] = p + " -> " + ab.EntryRegs[i]
	}
	return "asm " + ab.Name + "(" + strings.Join(params, ", ") + ") -> (" +
		strings.Join(ab.ExitRegs, ", ") + ")"
}

// A loaded module. Importers read its exports through field access and can
// never write through it.
type Module struct {
	Name string
	Path string
	Env  *Environment
}

func (m *Module) Type() ObjectType { return MODULE_OBJ }
func (m *Module) Inspect(view View) string { return "module " + m.Name }

func (m *Module) Exports() []string {
	result := []string{}
	for k := range m.Env.Store {
		if !strings.HasPrefix(k, "_") {
			result = append(result, k)
		}
	}
	return result
}

type BuiltinFunction func(tok token.Token, args ...Object) Object

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect(view View) string { return "builtin " + b.Name }

type Return struct {
	Value Object
}

func (r *Return) Type() ObjectType { return RETURN_OBJ }
func (r *Return) Inspect(view View) string { return r.Value.Inspect(view) }

type Error struct {
	ErrorId string
	Message string
	Values  []Object
	Trace   []token.Token
	Token   token.Token
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect(view View) string {
	if view == ViewStdOut {
		if len(e.Trace) == 0 {
			return text.ERROR + e.Message + text.DescribePos(e.Token) + "."
		}
		return text.RT_ERROR + e.Message + text.DescribePos(e.Token) + "."
	}
	return "error " + text.ToEscapedText(e.Message)
}

// ProbablyLiteral is used by container Inspect methods: whatever view the
// container was asked for, its elements render as literals, so that a list of
// strings shows its quotes.
func ProbablyLiteral(view View) View {
	return ViewPryzmaLiteral
}

// Equals is the structural equality of the language's '=='. Two structs are
// equal when they have the same struct name and equal fields; two lists when
// they have equal elements in order. Funcs, asm blocks and modules compare by
// identity.
func Equals(lhs, rhs Object) bool {
	if lhs.Type() != rhs.Type() {
		return false
	}
	switch lhs := lhs.(type) {
	case *Integer:
		return lhs.Value == rhs.(*Integer).Value
	case *Float:
		return lhs.Value == rhs.(*Float).Value
	case *String:
		return lhs.Value == rhs.(*String).Value
	case *Boolean:
		return lhs.Value == rhs.(*Boolean).Value
	case *None:
		return true
	case *List:
		rhs := rhs.(*List)
		if len(lhs.Elements) != len(rhs.Elements) {
			return false
		}
		for i, v := range lhs.Elements {
			if !Equals(v, rhs.Elements[i]) {
				return false
			}
		}
		return true
	case *Struct:
		rhs := rhs.(*Struct)
		if lhs.Name != rhs.Name || len(lhs.Labels) != len(rhs.Labels) {
			return false
		}
		for _, label := range lhs.Labels {
			rhsField, ok := rhs.Value[label]
			if !ok || !Equals(lhs.Value[label], rhsField) {
				return false
			}
		}
		return true
	default:
		return lhs == rhs
	}
}
