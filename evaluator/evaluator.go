package evaluator

import (
	"io"
	"path/filepath"

	"github.com/pryzma-lang/pryzma/ast"
	"github.com/pryzma-lang/pryzma/emulator"
	"github.com/pryzma-lang/pryzma/macro"
	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/resolver"
	"github.com/pryzma-lang/pryzma/sysvars"
	"github.com/pryzma-lang/pryzma/token"
)

const DefaultMemSize = 256

// A StepHook is called before each statement with the statement's leading
// token and the environment it is about to run in. This is the whole of the
// debugger's view into the evaluator.
type StepHook func(tok token.Token, env *object.Environment)

// A Context carries what one service's evaluation needs besides the
// environment: where imports come from, which keywords are registered, where
// print goes, and so on. Everything in it belongs to a single service.
type Context struct {
	Resolver   *resolver.Resolver
	Macros     *macro.Table
	Hook       StepHook
	Out        io.Writer
	In         io.Reader
	MemDefault int64
	Dir        string // directory of the source file being evaluated
}

func (c *Context) memSize() int64 {
	if c.MemDefault > 0 {
		return c.MemDefault
	}
	return DefaultMemSize
}

// inDir is the context for evaluating code that lives in another directory,
// which is what a loaded module's relative imports resolve against.
func (c *Context) inDir(dir string) *Context {
	result := *c
	result.Dir = dir
	return &result
}

func Eval(node ast.Node, ctx *Context, env *object.Environment) object.Object {
	switch node := node.(type) {

	case *ast.Program:
		return evalProgram(node, ctx, env)

	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}

	case *ast.FloatLiteral:
		return &object.Float{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.BooleanLiteral:
		return object.MakeBool(node.Value)

	case *ast.NoneLiteral:
		return object.NONE

	case *ast.ListLiteral:
		elements := []object.Object{}
		for _, elNode := range node.Elements {
			el := Eval(elNode, ctx, env)
			if isError(el) {
				return el
			}
			elements = append(elements, el)
		}
		return &object.List{Elements: elements}

	case *ast.Identifier:
		return evalIdentifier(node, ctx, env)

	case *ast.PrefixExpression:
		right := Eval(node.Right, ctx, env)
		if isError(right) {
			return right
		}
		return evalPrefixExpression(node, right)

	case *ast.InfixExpression:
		return evalInfixExpression(node, ctx, env)

	case *ast.IndexExpression:
		left := Eval(node.Left, ctx, env)
		if isError(left) {
			return left
		}
		index := Eval(node.Index, ctx, env)
		if isError(index) {
			return index
		}
		return evalIndexExpression(node.Token, left, index)

	case *ast.FieldAccessExpression:
		left := Eval(node.Left, ctx, env)
		if isError(left) {
			return left
		}
		return evalFieldAccess(node, left)

	case *ast.CallExpression:
		return evalCallExpression(node, ctx, env)

	case *ast.FuncLiteral:
		return &object.Func{Params: node.Params, Body: node.Body, Env: env}

	case *ast.AssignmentExpression:
		return evalAssignment(node, ctx, env)

	case *ast.BlockStatement:
		return evalBlockStatement(node, ctx, env)

	case *ast.IfStatement:
		return evalIfStatement(node, ctx, env)

	case *ast.WhileStatement:
		return evalWhileStatement(node, ctx, env)

	case *ast.ForStatement:
		return evalForStatement(node, ctx, env)

	case *ast.ReturnStatement:
		if node.Value == nil {
			return &object.Return{Value: object.NONE}
		}
		value := Eval(node.Value, ctx, env)
		if isError(value) {
			return value
		}
		return &object.Return{Value: value}

	case *ast.FuncDeclaration:
		fn := &object.Func{Name: node.Name, Params: node.Params, Body: node.Body, Env: env}
		env.Set(node.Name, fn)
		return object.NONE

	case *ast.StructDeclaration:
		env.Set(node.Name, &object.StructDef{Name: node.Name, Sig: node.Sig, Defaults: node.Defaults})
		return object.NONE

	case *ast.AsmDeclaration:
		return evalAsmDeclaration(node, ctx, env)

	case *ast.ImportStatement:
		return evalImport(node, ctx, env)

	case *ast.UseStatement:
		return evalUse(node, ctx, env)

	case *ast.DelStatement:
		if !env.Delete(node.Name) {
			return newError("eval/ident/found", node.Token, node.Name)
		}
		return object.NONE

	case *ast.NamedArg:
		// Can only get here when a named arg strays outside a struct call.
		return newError("eval/unknown", node.Token)
	}
	if node == nil {
		return object.NONE
	}
	return newError("eval/unknown", node.GetToken())
}

func evalProgram(program *ast.Program, ctx *Context, env *object.Environment) object.Object {
	var result object.Object = object.NONE
	for _, statement := range program.Statements {
		if ctx.Hook != nil {
			ctx.Hook(statement.GetToken(), env)
		}
		result = Eval(statement, ctx, env)
		switch result := result.(type) {
		case *object.Error:
			return result
		case *object.Return:
			return result.Value
		}
	}
	return result
}

func evalBlockStatement(block *ast.BlockStatement, ctx *Context, env *object.Environment) object.Object {
	var result object.Object = object.NONE
	for _, statement := range block.Statements {
		if ctx.Hook != nil {
			ctx.Hook(statement.GetToken(), env)
		}
		result = Eval(statement, ctx, env)
		if result != nil {
			rt := result.Type()
			if rt == object.RETURN_OBJ || rt == object.ERROR_OBJ {
				return result
			}
		}
	}
	return result
}

func evalIdentifier(node *ast.Identifier, ctx *Context, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	if impl, ok := builtins[node.Value]; ok {
		// Builtins become first-class the moment somebody mentions one
		// outside a call position.
		name := node.Value
		return &object.Builtin{Name: name, Fn: func(tok token.Token, args ...object.Object) object.Object {
			return impl(ctx, env, tok, args)
		}}
	}
	return newError("eval/ident/found", node.Token, node.Value)
}

func evalPrefixExpression(node *ast.PrefixExpression, right object.Object) object.Object {
	switch node.Operator {
	case "-":
		switch right := right.(type) {
		case *object.Integer:
			return &object.Integer{Value: -right.Value}
		case *object.Float:
			return &object.Float{Value: -right.Value}
		}
	case "not":
		if right, ok := right.(*object.Boolean); ok {
			return object.MakeInverseBool(right.Value)
		}
	}
	return newError("eval/prefix/type", node.Token, right)
}

func evalInfixExpression(node *ast.InfixExpression, ctx *Context, env *object.Environment) object.Object {
	left := Eval(node.Left, ctx, env)
	if isError(left) {
		return left
	}

	// 'and' and 'or' short-circuit, so the right operand waits.
	if node.Operator == "and" || node.Operator == "or" {
		return evalBooleanInfix(node, left, ctx, env)
	}

	right := Eval(node.Right, ctx, env)
	if isError(right) {
		return right
	}

	switch node.Operator {
	case "==":
		return object.MakeBool(object.Equals(left, right))
	case "!=":
		return object.MakeInverseBool(object.Equals(left, right))
	}

	return evalOperatorExpression(node, left, right)
}

func evalBooleanInfix(node *ast.InfixExpression, left object.Object, ctx *Context, env *object.Environment) object.Object {
	leftBool, ok := left.(*object.Boolean)
	if !ok {
		return newError("eval/infix/type", node.Token, left, left)
	}
	if node.Operator == "and" && !leftBool.Value {
		return object.FALSE
	}
	if node.Operator == "or" && leftBool.Value {
		return object.TRUE
	}
	right := Eval(node.Right, ctx, env)
	if isError(right) {
		return right
	}
	rightBool, ok := right.(*object.Boolean)
	if !ok {
		return newError("eval/infix/type", node.Token, left, right)
	}
	return object.MakeBool(rightBool.Value)
}

func evalOperatorExpression(node *ast.InfixExpression, left, right object.Object) object.Object {
	switch left := left.(type) {
	case *object.Integer:
		switch right := right.(type) {
		case *object.Integer:
			return evalIntegerInfix(node, left.Value, right.Value)
		case *object.Float:
			return evalFloatInfix(node, float64(left.Value), right.Value)
		case *object.String:
			if node.Operator == "+" {
				return &object.String{Value: left.Inspect(object.ViewStdOut) + right.Value}
			}
		}
	case *object.Float:
		switch right := right.(type) {
		case *object.Integer:
			return evalFloatInfix(node, left.Value, float64(right.Value))
		case *object.Float:
			return evalFloatInfix(node, left.Value, right.Value)
		case *object.String:
			if node.Operator == "+" {
				return &object.String{Value: left.Inspect(object.ViewStdOut) + right.Value}
			}
		}
	case *object.String:
		switch right := right.(type) {
		case *object.String:
			return evalStringInfix(node, left.Value, right.Value)
		case *object.Integer, *object.Float:
			if node.Operator == "+" {
				return &object.String{Value: left.Value + right.Inspect(object.ViewStdOut)}
			}
		}
	case *object.List:
		if right, ok := right.(*object.List); ok && node.Operator == "+" {
			elements := append([]object.Object{}, left.Elements...)
			elements = append(elements, right.Elements...)
			return &object.List{Elements: elements}
		}
	}
	return newError("eval/infix/type", node.Token, left, right)
}

func evalIntegerInfix(node *ast.InfixExpression, left, right int64) object.Object {
	switch node.Operator {
	case "+":
		return &object.Integer{Value: left + right}
	case "-":
		return &object.Integer{Value: left - right}
	case "*":
		return &object.Integer{Value: left * right}
	case "/":
		if right == 0 {
			return newError("eval/div/zero", node.Token)
		}
		return &object.Integer{Value: left / right}
	case "%":
		if right == 0 {
			return newError("eval/div/zero", node.Token)
		}
		return &object.Integer{Value: left % right}
	case "<":
		return object.MakeBool(left < right)
	case ">":
		return object.MakeBool(left > right)
	case "<=":
		return object.MakeBool(left <= right)
	case ">=":
		return object.MakeBool(left >= right)
	}
	return newError("eval/infix/type", node.Token, &object.Integer{Value: left}, &object.Integer{Value: right})
}

func evalFloatInfix(node *ast.InfixExpression, left, right float64) object.Object {
	switch node.Operator {
	case "+":
		return &object.Float{Value: left + right}
	case "-":
		return &object.Float{Value: left - right}
	case "*":
		return &object.Float{Value: left * right}
	case "/":
		if right == 0 {
			return newError("eval/div/float", node.Token)
		}
		return &object.Float{Value: left / right}
	case "<":
		return object.MakeBool(left < right)
	case ">":
		return object.MakeBool(left > right)
	case "<=":
		return object.MakeBool(left <= right)
	case ">=":
		return object.MakeBool(left >= right)
	}
	return newError("eval/infix/type", node.Token, &object.Float{Value: left}, &object.Float{Value: right})
}

func evalStringInfix(node *ast.InfixExpression, left, right string) object.Object {
	switch node.Operator {
	case "+":
		return &object.String{Value: left + right}
	case "<":
		return object.MakeBool(left < right)
	case ">":
		return object.MakeBool(left > right)
	case "<=":
		return object.MakeBool(left <= right)
	case ">=":
		return object.MakeBool(left >= right)
	}
	return newError("eval/infix/type", node.Token, &object.String{Value: left}, &object.String{Value: right})
}

func evalIndexExpression(tok token.Token, left, index object.Object) object.Object {
	idx, ok := index.(*object.Integer)
	if !ok {
		return newError("eval/index/type", tok, left, index)
	}
	switch left := left.(type) {
	case *object.List:
		if idx.Value < 0 || idx.Value >= int64(len(left.Elements)) {
			return newError("eval/index/list", tok, idx.Value, len(left.Elements))
		}
		return left.Elements[idx.Value]
	case *object.String:
		runes := []rune(left.Value)
		if idx.Value < 0 || idx.Value >= int64(len(runes)) {
			return newError("eval/index/string", tok, idx.Value, len(runes))
		}
		return &object.String{Value: string(runes[idx.Value])}
	}
	return newError("eval/index/type", tok, left, index)
}

func evalFieldAccess(node *ast.FieldAccessExpression, left object.Object) object.Object {
	switch left := left.(type) {
	case *object.Struct:
		if val, ok := left.Value[node.Field]; ok {
			return val
		}
		return newError("eval/field/found", node.Token, left.Name, node.Field)
	case *object.Module:
		if len(node.Field) > 0 && node.Field[0] == '_' {
			return newError("eval/field/found", node.Token, left.Name, node.Field)
		}
		if val, ok := left.Env.Get(node.Field); ok {
			return val
		}
		return newError("eval/field/found", node.Token, left.Name, node.Field)
	}
	return newError("eval/field/found", node.Token, object.TrueType(left), node.Field)
}

func evalCallExpression(node *ast.CallExpression, ctx *Context, env *object.Environment) object.Object {
	// Builtins are resolved by name at the call site so that a user binding
	// of the same name wins.
	if ident, ok := node.Left.(*ast.Identifier); ok && !env.Exists(ident.Value) {
		if impl, ok := builtins[ident.Value]; ok {
			args, err := evalArgs(node.Args, ctx, env)
			if err != nil {
				return err
			}
			return impl(ctx, env, node.Token, args)
		}
	}
	callee := Eval(node.Left, ctx, env)
	if isError(callee) {
		return callee
	}
	switch callee := callee.(type) {
	case *object.Func:
		args, err := evalArgs(node.Args, ctx, env)
		if err != nil {
			return err
		}
		return applyFunction(callee, args, ctx, node.Token)
	case *object.Builtin:
		args, err := evalArgs(node.Args, ctx, env)
		if err != nil {
			return err
		}
		return callee.Fn(node.Token, args...)
	case *object.StructDef:
		return constructStruct(callee, node, ctx, env)
	case *object.AsmBlock:
		args, err := evalArgs(node.Args, ctx, env)
		if err != nil {
			return err
		}
		return runAsmBlock(callee, args, ctx, node.Token)
	}
	return newError("eval/call/type", node.Token, callee)
}

func evalArgs(argNodes []ast.Node, ctx *Context, env *object.Environment) ([]object.Object, *object.Error) {
	args := []object.Object{}
	for _, argNode := range argNodes {
		arg := Eval(argNode, ctx, env)
		if err, ok := arg.(*object.Error); ok {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func applyFunction(fn *object.Func, args []object.Object, ctx *Context, tok token.Token) object.Object {
	if len(args) != len(fn.Params) {
		name := fn.Name
		if name == "" {
			name = "func"
		}
		return newError("eval/arity", tok, name, len(fn.Params), len(args))
	}
	// The new frame extends the environment the function was defined in,
	// not the one it was called from.
	fnEnv := object.NewChildEnvironment(fn.Env)
	for i, param := range fn.Params {
		fnEnv.Set(param, args[i])
	}
	result := Eval(fn.Body, ctx, fnEnv)
	if err, ok := result.(*object.Error); ok {
		err.Trace = append(err.Trace, tok)
		return err
	}
	if ret, ok := result.(*object.Return); ok {
		return ret.Value
	}
	return object.NONE
}

// constructStruct instantiates a struct: positional args fill fields in
// declaration order, named args fill their fields by name, and whatever is
// left falls back to the default expressions, which are evaluated afresh in
// the environment of the construction site.
func constructStruct(def *object.StructDef, node *ast.CallExpression, ctx *Context, env *object.Environment) object.Object {
	values := make(map[string]object.Object)
	positional := 0
	for _, argNode := range node.Args {
		if named, ok := argNode.(*ast.NamedArg); ok {
			if def.Sig.Position(named.Name) < 0 {
				return newError("eval/field/named", named.Token, def.Name, named.Name)
			}
			if _, bound := values[named.Name]; bound {
				return newError("eval/field/dup", named.Token, def.Name, named.Name)
			}
			val := Eval(named.Value, ctx, env)
			if isError(val) {
				return val
			}
			values[named.Name] = val
			continue
		}
		if positional >= len(def.Sig) {
			return newError("eval/arity", node.Token, def.Name, len(def.Sig), len(node.Args))
		}
		if _, bound := values[def.Sig[positional].VarName]; bound {
			return newError("eval/field/dup", node.Token, def.Name, def.Sig[positional].VarName)
		}
		val := Eval(argNode, ctx, env)
		if isError(val) {
			return val
		}
		values[def.Sig[positional].VarName] = val
		positional++
	}
	labels := []string{}
	for i, field := range def.Sig {
		labels = append(labels, field.VarName)
		if _, ok := values[field.VarName]; ok {
			continue
		}
		if def.Defaults[i] == nil {
			return newError("eval/field/missing", node.Token, field.VarName, def.Name)
		}
		val := Eval(def.Defaults[i], ctx, env)
		if isError(val) {
			return val
		}
		values[field.VarName] = val
	}
	return &object.Struct{Name: def.Name, Labels: labels, Value: values}
}

func evalAsmDeclaration(node *ast.AsmDeclaration, ctx *Context, env *object.Environment) object.Object {
	for _, reg := range append(append([]string{}, node.EntryRegs...), node.ExitRegs...) {
		if _, ok := emulator.LookupRegister(reg); !ok {
			return newError("asm/reg", node.Token, reg)
		}
	}
	program, fault := emulator.Decode(node.Body)
	if fault != nil {
		return faultToError(fault)
	}
	memSize := node.MemSize
	if memSize == 0 {
		memSize = ctx.memSize()
	}
	if memSize < 0 || memSize > emulator.MaxMemSize {
		return newError("asm/mem/size", node.Token, memSize, emulator.MaxMemSize)
	}
	block := &object.AsmBlock{
		Name:      node.Name,
		Params:    node.Params,
		EntryRegs: node.EntryRegs,
		ExitRegs:  node.ExitRegs,
		MemSize:   memSize,
		Program:   program,
	}
	env.Set(node.Name, block)
	return object.NONE
}

// runAsmBlock is the only crossing between values and the machine: integer
// arguments go in through the declared entry registers, and if the program
// runs to completion the exit registers come back out. A fault means nothing
// comes back at all.
func runAsmBlock(block *object.AsmBlock, args []object.Object, ctx *Context, tok token.Token) object.Object {
	if len(args) != len(block.Params) {
		return newError("eval/arity", tok, block.Name, len(block.Params), len(args))
	}
	machine := emulator.NewMachine(block.MemSize)
	for i, arg := range args {
		n, ok := arg.(*object.Integer)
		if !ok {
			return newError("eval/builtin/arg", tok, block.Name, arg)
		}
		reg, _ := emulator.LookupRegister(block.EntryRegs[i])
		machine.Regs[reg] = n.Value
	}
	if fault := machine.Run(block.Program); fault != nil {
		err := faultToError(fault)
		err.Token = tok
		return err
	}
	if len(block.ExitRegs) == 0 {
		return object.NONE
	}
	if len(block.ExitRegs) == 1 {
		reg, _ := emulator.LookupRegister(block.ExitRegs[0])
		return &object.Integer{Value: machine.Regs[reg]}
	}
	elements := []object.Object{}
	for _, exitReg := range block.ExitRegs {
		reg, _ := emulator.LookupRegister(exitReg)
		elements = append(elements, &object.Integer{Value: machine.Regs[reg]})
	}
	return &object.List{Elements: elements}
}

func faultToError(fault *emulator.Fault) *object.Error {
	return object.CreateErr(fault.Id, fault.Tok, fault.Args...)
}

func evalAssignment(node *ast.AssignmentExpression, ctx *Context, env *object.Environment) object.Object {
	right := Eval(node.Right, ctx, env)
	if isError(right) {
		return right
	}
	switch target := node.Left.(type) {
	case *ast.Identifier:
		if sv, ok := sysvars.Sysvars[target.Value]; ok {
			if errorId := sv.Validator(right); errorId != "" {
				return newError(errorId, node.Token, right)
			}
		}
		if env.Exists(target.Value) {
			if env.IsConstant(target.Value) {
				return newError("eval/assign/const", node.Token, target.Value)
			}
			env.UpdateVar(target.Value, right)
		} else {
			env.Set(target.Value, right)
		}
		return object.NONE
	case *ast.IndexExpression:
		left := Eval(target.Left, ctx, env)
		if isError(left) {
			return left
		}
		index := Eval(target.Index, ctx, env)
		if isError(index) {
			return index
		}
		list, ok := left.(*object.List)
		if !ok {
			return newError("eval/assign/target", node.Token)
		}
		idx, ok := index.(*object.Integer)
		if !ok {
			return newError("eval/index/type", target.Token, left, index)
		}
		if idx.Value < 0 || idx.Value >= int64(len(list.Elements)) {
			return newError("eval/index/list", target.Token, idx.Value, len(list.Elements))
		}
		list.Elements[idx.Value] = right
		return object.NONE
	case *ast.FieldAccessExpression:
		left := Eval(target.Left, ctx, env)
		if isError(left) {
			return left
		}
		switch left := left.(type) {
		case *object.Struct:
			if _, ok := left.Value[target.Field]; !ok {
				return newError("eval/field/found", target.Token, left.Name, target.Field)
			}
			left.Value[target.Field] = right
			return object.NONE
		case *object.Module:
			return newError("eval/assign/module", target.Token, left.Name)
		}
		return newError("eval/assign/target", node.Token)
	}
	return newError("eval/assign/target", node.Token)
}

func evalIfStatement(node *ast.IfStatement, ctx *Context, env *object.Environment) object.Object {
	condition := Eval(node.Condition, ctx, env)
	if isError(condition) {
		return condition
	}
	boolean, ok := condition.(*object.Boolean)
	if !ok {
		return newError("eval/bool", node.Token, condition)
	}
	if boolean.Value {
		return evalBlockStatement(node.Consequence, ctx, object.NewChildEnvironment(env))
	}
	if node.Alternative != nil {
		if block, ok := node.Alternative.(*ast.BlockStatement); ok {
			return evalBlockStatement(block, ctx, object.NewChildEnvironment(env))
		}
		return Eval(node.Alternative, ctx, env)
	}
	return object.NONE
}

func evalWhileStatement(node *ast.WhileStatement, ctx *Context, env *object.Environment) object.Object {
	// One child frame per entry to the loop, not per iteration.
	loopEnv := object.NewChildEnvironment(env)
	for {
		condition := Eval(node.Condition, ctx, loopEnv)
		if isError(condition) {
			return condition
		}
		boolean, ok := condition.(*object.Boolean)
		if !ok {
			return newError("eval/bool", node.Token, condition)
		}
		if !boolean.Value {
			return object.NONE
		}
		result := evalBlockStatement(node.Body, ctx, loopEnv)
		if result != nil {
			rt := result.Type()
			if rt == object.RETURN_OBJ || rt == object.ERROR_OBJ {
				return result
			}
		}
	}
}

func evalForStatement(node *ast.ForStatement, ctx *Context, env *object.Environment) object.Object {
	from := Eval(node.From, ctx, env)
	if isError(from) {
		return from
	}
	to := Eval(node.To, ctx, env)
	if isError(to) {
		return to
	}
	fromInt, ok := from.(*object.Integer)
	if !ok {
		return newError("eval/range/ends", node.Token, from)
	}
	toInt, ok := to.(*object.Integer)
	if !ok {
		return newError("eval/range/ends", node.Token, to)
	}
	loopEnv := object.NewChildEnvironment(env)
	for i := fromInt.Value; i <= toInt.Value; i++ {
		loopEnv.Set(node.Var, &object.Integer{Value: i})
		result := evalBlockStatement(node.Body, ctx, loopEnv)
		if result != nil {
			rt := result.Type()
			if rt == object.RETURN_OBJ || rt == object.ERROR_OBJ {
				return result
			}
		}
	}
	return object.NONE
}

func evalImport(node *ast.ImportStatement, ctx *Context, env *object.Environment) object.Object {
	mod, err := ctx.Resolver.Load(node.Path, ctx.Dir, node.Token)
	if err != nil {
		return err
	}
	alias := node.Alias
	if alias == "" {
		alias = mod.Name
	}
	// The alias is a constant: an importer reads through it but can never
	// rebind it.
	env.InitializeConstant(alias, mod)
	return object.NONE
}

// evalUse loads the module like an import and then copies its exports into
// the current frame. The copies are fresh bindings: reassigning one later
// changes nothing in the module.
func evalUse(node *ast.UseStatement, ctx *Context, env *object.Environment) object.Object {
	mod, err := ctx.Resolver.Load(node.Path, ctx.Dir, node.Token)
	if err != nil {
		return err
	}
	for _, name := range mod.Exports() {
		val, _ := mod.Env.Get(name)
		env.Set(name, val)
	}
	return object.NONE
}

// RunSource is the whole pipeline for one unit of source text: lex, expand
// keywords against the context's table, parse, evaluate. The resolver's
// Pipeline and the 'eval' builtin are both thin wrappers around it.
func RunSource(source, input string, ctx *Context, env *object.Environment) object.Object {
	toks, ers := lexSource(source, input)
	if len(ers) > 0 {
		return ers[0]
	}
	expanded, ers := macro.Expand(toks, ctx.Macros)
	if len(ers) > 0 {
		return ers[0]
	}
	prog, parseErs := parseTokens(source, expanded)
	if len(parseErs) > 0 {
		return parseErs[0]
	}
	return Eval(prog, ctx.inDir(filepath.Dir(source)), env)
}

func newError(ident string, tok token.Token, args ...any) *object.Error {
	return object.CreateErr(ident, tok, args...)
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Type() == object.ERROR_OBJ
	}
	return false
}
