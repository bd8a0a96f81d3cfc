package ast

import (
	"bytes"
	"strings"

	"github.com/pryzma-lang/pryzma/signature"
	"github.com/pryzma-lang/pryzma/token"
)

// The base Node interface
type Node interface {
	GetToken() token.Token
	TokenLiteral() string
	String() string
}

type Program struct {
	Statements []Node
}

func (p *Program) GetToken() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].GetToken()
	}
	return token.Token{}
}
func (p *Program) TokenLiteral() string { return "program" }
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) GetToken() token.Token { return i.Token }
func (i *Identifier) TokenLiteral() string  { return i.Token.Literal }
func (i *Identifier) String() string        { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) GetToken() token.Token { return il.Token }
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Literal }
func (il *IntegerLiteral) String() string        { return il.Token.Literal }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }
func (fl *FloatLiteral) TokenLiteral() string  { return fl.Token.Literal }
func (fl *FloatLiteral) String() string        { return fl.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) GetToken() token.Token { return sl.Token }
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Literal }
func (sl *StringLiteral) String() string        { return "\"" + sl.Token.Literal + "\"" }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) GetToken() token.Token { return b.Token }
func (b *BooleanLiteral) TokenLiteral() string  { return b.Token.Literal }
func (b *BooleanLiteral) String() string        { return b.Token.Literal }

type NoneLiteral struct {
	Token token.Token
}

func (n *NoneLiteral) GetToken() token.Token { return n.Token }
func (n *NoneLiteral) TokenLiteral() string  { return "none" }
func (n *NoneLiteral) String() string        { return "none" }

type ListLiteral struct {
	Token    token.Token // The [ token
	Elements []Node
}

func (le *ListLiteral) GetToken() token.Token { return le.Token }
func (le *ListLiteral) TokenLiteral() string  { return "list" }
func (le *ListLiteral) String() string {
	var out bytes.Buffer
	elements := []string{}
	for _, e := range le.Elements {
		elements = append(elements, e.String())
	}
	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")
	return out.String()
}

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Node
}

func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(pe.Operator)
	out.WriteString(" ")
	out.WriteString(pe.Right.String())
	out.WriteString(")")
	return out.String()
}

type InfixExpression struct {
	Token    token.Token
	Left     Node
	Operator string
	Right    Node
}

func (ie *InfixExpression) GetToken() token.Token { return ie.Token }
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")
	return out.String()
}

type IndexExpression struct {
	Token token.Token // The [ token
	Left  Node
	Index Node
}

func (ie *IndexExpression) GetToken() token.Token { return ie.Token }
func (ie *IndexExpression) TokenLiteral() string  { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString("[")
	out.WriteString(ie.Index.String())
	out.WriteString("])")
	return out.String()
}

type FieldAccessExpression struct {
	Token token.Token // The . token
	Left  Node
	Field string
}

func (fa *FieldAccessExpression) GetToken() token.Token { return fa.Token }
func (fa *FieldAccessExpression) TokenLiteral() string  { return fa.Token.Literal }
func (fa *FieldAccessExpression) String() string {
	return "(" + fa.Left.String() + "." + fa.Field + ")"
}

type CallExpression struct {
	Token token.Token // The ( token
	Left  Node
	Args  []Node
}

func (ce *CallExpression) GetToken() token.Token { return ce.Token }
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	var out bytes.Buffer
	args := []string{}
	for _, a := range ce.Args {
		args = append(args, a.String())
	}
	out.WriteString(ce.Left.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")
	return out.String()
}

// A NamedArg may only appear directly inside a call's argument list, where
// it binds a struct field by name.
type NamedArg struct {
	Token token.Token
	Name  string
	Value Node
}

func (na *NamedArg) GetToken() token.Token { return na.Token }
func (na *NamedArg) TokenLiteral() string  { return na.Token.Literal }
func (na *NamedArg) String() string        { return na.Name + " = " + na.Value.String() }

type FuncLiteral struct {
	Token  token.Token
	Params []string
	Body   *BlockStatement
}

func (fl *FuncLiteral) GetToken() token.Token { return fl.Token }
func (fl *FuncLiteral) TokenLiteral() string  { return "func" }
func (fl *FuncLiteral) String() string {
	return "func(" + strings.Join(fl.Params, ", ") + ") " + fl.Body.String()
}

type AssignmentExpression struct {
	Token token.Token // The = token
	Left  Node
	Right Node
}

func (ae *AssignmentExpression) GetToken() token.Token { return ae.Token }
func (ae *AssignmentExpression) TokenLiteral() string  { return "=" }
func (ae *AssignmentExpression) String() string {
	return "(" + ae.Left.String() + " = " + ae.Right.String() + ")"
}

type BlockStatement struct {
	Token      token.Token // The { token
	Statements []Node
}

func (bs *BlockStatement) GetToken() token.Token { return bs.Token }
func (bs *BlockStatement) TokenLiteral() string  { return "{" }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}

type IfStatement struct {
	Token       token.Token
	Condition   Node
	Consequence *BlockStatement
	Alternative Node // nil, *BlockStatement, or *IfStatement
}

func (is *IfStatement) GetToken() token.Token { return is.Token }
func (is *IfStatement) TokenLiteral() string  { return "if" }
func (is *IfStatement) String() string {
	result := "if " + is.Condition.String() + " " + is.Consequence.String()
	if is.Alternative != nil {
		result = result + " else " + is.Alternative.String()
	}
	return result
}

type WhileStatement struct {
	Token     token.Token
	Condition Node
	Body      *BlockStatement
}

func (ws *WhileStatement) GetToken() token.Token { return ws.Token }
func (ws *WhileStatement) TokenLiteral() string  { return "while" }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + ws.Body.String()
}

type ForStatement struct {
	Token token.Token
	Var   string
	From  Node
	To    Node
	Body  *BlockStatement
}

func (fs *ForStatement) GetToken() token.Token { return fs.Token }
func (fs *ForStatement) TokenLiteral() string  { return "for" }
func (fs *ForStatement) String() string {
	return "for " + fs.Var + " = " + fs.From.String() + ":" + fs.To.String() + " " + fs.Body.String()
}

type ReturnStatement struct {
	Token token.Token
	Value Node // nil means `return none`
}

func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }
func (rs *ReturnStatement) TokenLiteral() string  { return "return" }
func (rs *ReturnStatement) String() string {
	if rs.Value == nil {
		return "return"
	}
	return "return " + rs.Value.String()
}

// A struct declaration records its default-value expressions unevaluated:
// Defaults[i] is nil for a required field and the default expression for an
// optional one. They are evaluated afresh at each instantiation.
type StructDeclaration struct {
	Token    token.Token
	Name     string
	Sig      signature.Signature
	Defaults []Node
}

func (sd *StructDeclaration) GetToken() token.Token { return sd.Token }
func (sd *StructDeclaration) TokenLiteral() string  { return "struct" }
func (sd *StructDeclaration) String() string {
	return "struct " + sd.Name + " " + sd.Sig.String()
}

type FuncDeclaration struct {
	Token  token.Token
	Name   string
	Params []string
	Body   *BlockStatement
}

func (fd *FuncDeclaration) GetToken() token.Token { return fd.Token }
func (fd *FuncDeclaration) TokenLiteral() string  { return "func" }
func (fd *FuncDeclaration) String() string {
	return "func " + fd.Name + "(" + strings.Join(fd.Params, ", ") + ") " + fd.Body.String()
}

type ImportStatement struct {
	Token token.Token
	Path  string
	Alias string
}

func (is *ImportStatement) GetToken() token.Token { return is.Token }
func (is *ImportStatement) TokenLiteral() string  { return "import" }
func (is *ImportStatement) String() string {
	return "import \"" + is.Path + "\" as " + is.Alias
}

type UseStatement struct {
	Token token.Token
	Path  string
}

func (us *UseStatement) GetToken() token.Token { return us.Token }
func (us *UseStatement) TokenLiteral() string  { return "use" }
func (us *UseStatement) String() string        { return "use \"" + us.Path + "\"" }

type DelStatement struct {
	Token token.Token
	Name  string
}

func (ds *DelStatement) GetToken() token.Token { return ds.Token }
func (ds *DelStatement) TokenLiteral() string  { return "del" }
func (ds *DelStatement) String() string        { return "del " + ds.Name }

// An assembly block is parsed structurally: the header's operand interface
// is fully parsed, but the body is carried as its raw token span and only
// decoded into instructions when the declaration is evaluated.
type AsmDeclaration struct {
	Token     token.Token
	Name      string
	Params    []string // host-visible entry names, in order
	EntryRegs []string // EntryRegs[i] receives argument i
	ExitRegs  []string // registers marshaled back on exit
	MemSize   int64    // bytes of addressable memory; 0 means the default
	Body      []token.Token
}

func (ad *AsmDeclaration) GetToken() token.Token { return ad.Token }
func (ad *AsmDeclaration) TokenLiteral() string  { return "asm" }
func (ad *AsmDeclaration) String() string {
	entries := []string{}
	for i, p := range ad.Params {
		entries = append(entries, p+" -> "+ad.EntryRegs[i])
	}
	return "asm " + ad.Name + "(" + strings.Join(entries, ", ") + ") -> (" +
		strings.Join(ad.ExitRegs, ", ") + ")"
}
