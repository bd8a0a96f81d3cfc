package evaluator

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pryzma-lang/pryzma/ast"
	"github.com/pryzma-lang/pryzma/lexer"
	"github.com/pryzma-lang/pryzma/macro"
	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/parser"
	"github.com/pryzma-lang/pryzma/token"
	"github.com/pryzma-lang/pryzma/tokenized_code_chunk"
)

// A builtinFn takes the Context because some builtins talk to the outside
// world through it, and the environment because 'eval' runs in the
// environment of its call site.
type builtinFn func(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object

var builtins map[string]builtinFn

// The map is filled in by init rather than declared literally because 'eval'
// refers back to the expansion machinery and the compiler would otherwise see
// an initialization cycle.
func init() {
	builtins = map[string]builtinFn{
		"print":      builtinPrint,
		"input":      builtinInput,
		"len":        builtinLen,
		"type":       builtinType,
		"str":        builtinStr,
		"int":        builtinInt,
		"float":      builtinFloat,
		"split":      builtinSplit,
		"splitby":    builtinSplitby,
		"splitlines": builtinSplitlines,
		"replace":    builtinReplace,
		"append":     builtinAppend,
		"pop":        builtinPop,
		"copy":       builtinCopy,
		"move":       builtinMove,
		"swap":       builtinSwap,
		"in":         builtinIn,
		"index":      builtinIndex,
		"all":        builtinAll,
		"isanumber":  builtinIsanumber,
		"read":       builtinRead,
		"write":      builtinWrite,
		"dir":        builtinDir,
		"timenow":    builtinTimenow,
		"range":      builtinRange,
		"eval":       builtinEval,
	}
}

func wantArgs(name string, tok token.Token, args []object.Object, counts ...int) *object.Error {
	for _, count := range counts {
		if len(args) == count {
			return nil
		}
	}
	return object.CreateErr("eval/builtin/args", tok, name, counts[0], len(args))
}

func builtinPrint(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	pieces := []string{}
	for _, arg := range args {
		pieces = append(pieces, arg.Inspect(object.ViewStdOut))
	}
	ctx.Out.Write([]byte(strings.Join(pieces, " ") + "\n"))
	return object.NONE
}

func builtinInput(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("input", tok, args, 0, 1); err != nil {
		return err
	}
	if len(args) == 1 {
		prompt, ok := args[0].(*object.String)
		if !ok {
			return object.CreateErr("eval/builtin/arg", tok, "input", args[0])
		}
		ctx.Out.Write([]byte(prompt.Value))
	}
	line, err := bufio.NewReader(ctx.In).ReadString('\n')
	if err != nil && line == "" {
		return &object.String{Value: ""}
	}
	return &object.String{Value: strings.TrimRight(line, "\r\n")}
}

func builtinLen(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("len", tok, args, 1); err != nil {
		return err
	}
	switch arg := args[0].(type) {
	case *object.String:
		return &object.Integer{Value: int64(len([]rune(arg.Value)))}
	case *object.List:
		return &object.Integer{Value: int64(len(arg.Elements))}
	}
	return object.CreateErr("eval/builtin/arg", tok, "len", args[0])
}

func builtinType(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("type", tok, args, 1); err != nil {
		return err
	}
	return &object.String{Value: object.TrueType(args[0])}
}

func builtinStr(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("str", tok, args, 1); err != nil {
		return err
	}
	return &object.String{Value: args[0].Inspect(object.ViewStdOut)}
}

func builtinInt(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("int", tok, args, 1); err != nil {
		return err
	}
	switch arg := args[0].(type) {
	case *object.Integer:
		return arg
	case *object.Float:
		return &object.Integer{Value: int64(arg.Value)}
	case *object.String:
		n, err := strconv.ParseInt(strings.TrimSpace(arg.Value), 0, 64)
		if err != nil {
			return object.CreateErr("eval/builtin/arg", tok, "int", arg)
		}
		return &object.Integer{Value: n}
	case *object.Boolean:
		if arg.Value {
			return &object.Integer{Value: 1}
		}
		return &object.Integer{Value: 0}
	}
	return object.CreateErr("eval/builtin/arg", tok, "int", args[0])
}

func builtinFloat(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("float", tok, args, 1); err != nil {
		return err
	}
	switch arg := args[0].(type) {
	case *object.Float:
		return arg
	case *object.Integer:
		return &object.Float{Value: float64(arg.Value)}
	case *object.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(arg.Value), 64)
		if err != nil {
			return object.CreateErr("eval/builtin/arg", tok, "float", arg)
		}
		return &object.Float{Value: f}
	}
	return object.CreateErr("eval/builtin/arg", tok, "float", args[0])
}

// split breaks a string into a list of its characters, one string per rune.
func builtinSplit(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("split", tok, args, 1); err != nil {
		return err
	}
	str, ok := args[0].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "split", args[0])
	}
	elements := []object.Object{}
	for _, r := range str.Value {
		elements = append(elements, &object.String{Value: string(r)})
	}
	return &object.List{Elements: elements}
}

func builtinSplitby(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("splitby", tok, args, 2); err != nil {
		return err
	}
	str, ok := args[0].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "splitby", args[0])
	}
	sep, ok := args[1].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "splitby", args[1])
	}
	elements := []object.Object{}
	for _, piece := range strings.Split(str.Value, sep.Value) {
		elements = append(elements, &object.String{Value: piece})
	}
	return &object.List{Elements: elements}
}

func builtinSplitlines(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("splitlines", tok, args, 1); err != nil {
		return err
	}
	str, ok := args[0].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "splitlines", args[0])
	}
	elements := []object.Object{}
	for _, line := range strings.Split(strings.TrimRight(str.Value, "\n"), "\n") {
		elements = append(elements, &object.String{Value: strings.TrimRight(line, "\r")})
	}
	return &object.List{Elements: elements}
}

func builtinReplace(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("replace", tok, args, 3); err != nil {
		return err
	}
	str, ok1 := args[0].(*object.String)
	before, ok2 := args[1].(*object.String)
	after, ok3 := args[2].(*object.String)
	if !ok1 || !ok2 || !ok3 {
		return object.CreateErr("eval/builtin/arg", tok, "replace", args[0])
	}
	return &object.String{Value: strings.ReplaceAll(str.Value, before.Value, after.Value)}
}

func builtinAppend(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("append", tok, args, 2); err != nil {
		return err
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "append", args[0])
	}
	list.Elements = append(list.Elements, args[1])
	return object.NONE
}

func builtinPop(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("pop", tok, args, 1, 2); err != nil {
		return err
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "pop", args[0])
	}
	idx := int64(len(list.Elements)) - 1
	if len(args) == 2 {
		n, ok := args[1].(*object.Integer)
		if !ok {
			return object.CreateErr("eval/builtin/arg", tok, "pop", args[1])
		}
		idx = n.Value
	}
	if idx < 0 || idx >= int64(len(list.Elements)) {
		return object.CreateErr("eval/index/list", tok, idx, len(list.Elements))
	}
	popped := list.Elements[idx]
	list.Elements = append(list.Elements[:idx], list.Elements[idx+1:]...)
	return popped
}

// copy returns a fresh list with the same elements, so that mutating one
// doesn't touch the other. The elements themselves are shared.
func builtinCopy(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("copy", tok, args, 1); err != nil {
		return err
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "copy", args[0])
	}
	return &object.List{Elements: append([]object.Object{}, list.Elements...)}
}

func builtinMove(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("move", tok, args, 3); err != nil {
		return err
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "move", args[0])
	}
	from, ok1 := args[1].(*object.Integer)
	to, ok2 := args[2].(*object.Integer)
	if !ok1 || !ok2 {
		return object.CreateErr("eval/builtin/arg", tok, "move", args[1])
	}
	length := int64(len(list.Elements))
	if from.Value < 0 || from.Value >= length {
		return object.CreateErr("eval/index/list", tok, from.Value, length)
	}
	if to.Value < 0 || to.Value >= length {
		return object.CreateErr("eval/index/list", tok, to.Value, length)
	}
	value := list.Elements[from.Value]
	rest := append(list.Elements[:from.Value], list.Elements[from.Value+1:]...)
	rest = append(rest, nil)
	copy(rest[to.Value+1:], rest[to.Value:])
	rest[to.Value] = value
	list.Elements = rest
	return object.NONE
}

func builtinSwap(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("swap", tok, args, 3); err != nil {
		return err
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "swap", args[0])
	}
	i, ok1 := args[1].(*object.Integer)
	j, ok2 := args[2].(*object.Integer)
	if !ok1 || !ok2 {
		return object.CreateErr("eval/builtin/arg", tok, "swap", args[1])
	}
	length := int64(len(list.Elements))
	if i.Value < 0 || i.Value >= length {
		return object.CreateErr("eval/index/list", tok, i.Value, length)
	}
	if j.Value < 0 || j.Value >= length {
		return object.CreateErr("eval/index/list", tok, j.Value, length)
	}
	list.Elements[i.Value], list.Elements[j.Value] = list.Elements[j.Value], list.Elements[i.Value]
	return object.NONE
}

func builtinIn(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("in", tok, args, 2); err != nil {
		return err
	}
	switch container := args[0].(type) {
	case *object.List:
		for _, el := range container.Elements {
			if object.Equals(el, args[1]) {
				return object.TRUE
			}
		}
		return object.FALSE
	case *object.String:
		needle, ok := args[1].(*object.String)
		if !ok {
			return object.CreateErr("eval/builtin/arg", tok, "in", args[1])
		}
		return object.MakeBool(strings.Contains(container.Value, needle.Value))
	}
	return object.CreateErr("eval/builtin/arg", tok, "in", args[0])
}

// index returns the position of the first structurally equal element, or -1
// if there is none.
func builtinIndex(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("index", tok, args, 2); err != nil {
		return err
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "index", args[0])
	}
	for i, el := range list.Elements {
		if object.Equals(el, args[1]) {
			return &object.Integer{Value: int64(i)}
		}
	}
	return &object.Integer{Value: -1}
}

func builtinAll(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("all", tok, args, 1); err != nil {
		return err
	}
	list, ok := args[0].(*object.List)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "all", args[0])
	}
	pieces := []string{}
	for _, el := range list.Elements {
		pieces = append(pieces, el.Inspect(object.ViewStdOut))
	}
	return &object.String{Value: strings.Join(pieces, " ")}
}

func builtinIsanumber(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("isanumber", tok, args, 1); err != nil {
		return err
	}
	switch arg := args[0].(type) {
	case *object.Integer, *object.Float:
		return object.TRUE
	case *object.String:
		_, err := strconv.ParseFloat(strings.TrimSpace(arg.Value), 64)
		return object.MakeBool(err == nil)
	}
	return object.FALSE
}

func builtinRead(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("read", tok, args, 1); err != nil {
		return err
	}
	path, ok := args[0].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "read", args[0])
	}
	contents, err := os.ReadFile(resolvePath(ctx, path.Value))
	if err != nil {
		return object.CreateErr("eval/file", tok, "read", path.Value)
	}
	return &object.String{Value: string(contents)}
}

// write puts a string into a file as-is, and a list in one element per line.
func builtinWrite(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("write", tok, args, 2); err != nil {
		return err
	}
	path, ok := args[0].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "write", args[0])
	}
	var contents string
	switch arg := args[1].(type) {
	case *object.String:
		contents = arg.Value
	case *object.List:
		lines := []string{}
		for _, el := range arg.Elements {
			lines = append(lines, el.Inspect(object.ViewStdOut))
		}
		contents = strings.Join(lines, "\n") + "\n"
	default:
		contents = args[1].Inspect(object.ViewStdOut)
	}
	if err := os.WriteFile(resolvePath(ctx, path.Value), []byte(contents), 0644); err != nil {
		return object.CreateErr("eval/file", tok, "write", path.Value)
	}
	return object.NONE
}

func builtinDir(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("dir", tok, args, 1); err != nil {
		return err
	}
	path, ok := args[0].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "dir", args[0])
	}
	return &object.String{Value: filepath.Dir(path.Value)}
}

func builtinTimenow(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("timenow", tok, args, 0); err != nil {
		return err
	}
	return &object.String{Value: time.Now().Format("2006-01-02 15:04:05.000000")}
}

// range(n) counts from 0 to n-1, range(a, b) from a to b inclusive like the
// for loop.
func builtinRange(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("range", tok, args, 1, 2); err != nil {
		return err
	}
	ends := []int64{}
	for _, arg := range args {
		n, ok := arg.(*object.Integer)
		if !ok {
			return object.CreateErr("eval/range/ends", tok, arg)
		}
		ends = append(ends, n.Value)
	}
	from, to := int64(0), ends[0]-1
	if len(ends) == 2 {
		from, to = ends[0], ends[1]
	}
	elements := []object.Object{}
	for i := from; i <= to; i++ {
		elements = append(elements, &object.Integer{Value: i})
	}
	return &object.List{Elements: elements}
}

func builtinEval(ctx *Context, env *object.Environment, tok token.Token, args []object.Object) object.Object {
	if err := wantArgs("eval", tok, args, 1); err != nil {
		return err
	}
	code, ok := args[0].(*object.String)
	if !ok {
		return object.CreateErr("eval/builtin/arg", tok, "eval", args[0])
	}
	toks, ers := lexSource("eval", code.Value)
	if len(ers) > 0 {
		return ers[0]
	}
	expanded, ers := macro.Expand(toks, ctx.Macros)
	if len(ers) > 0 {
		return ers[0]
	}
	prog, parseErs := parseTokens("eval", expanded)
	if len(parseErs) > 0 {
		return parseErs[0]
	}
	return Eval(prog, ctx, env)
}

func resolvePath(ctx *Context, path string) string {
	if filepath.IsAbs(path) || ctx.Dir == "" {
		return path
	}
	return filepath.Join(ctx.Dir, path)
}

func lexSource(source, input string) ([]token.Token, object.Errors) {
	return lexer.LexAll(source, input)
}

func parseTokens(source string, toks []token.Token) (*ast.Program, object.Errors) {
	chunk := tokenized_code_chunk.FromTokens(source, toks)
	p := parser.New(chunk)
	prog := p.ParseProgram()
	return prog, p.Errors
}
