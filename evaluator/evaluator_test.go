package evaluator_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pryzma-lang/pryzma/evaluator"
	"github.com/pryzma-lang/pryzma/macro"
	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/resolver"
)

type testItem struct {
	input string
	want  string
}

func testContext(out *bytes.Buffer, in string) *evaluator.Context {
	return &evaluator.Context{
		Resolver: resolver.New(nil),
		Macros:   macro.NewTable(macro.DefaultDepthLimit),
		Out:      out,
		In:       strings.NewReader(in),
	}
}

func run(t *testing.T, input string) (object.Object, string) {
	t.Helper()
	out := &bytes.Buffer{}
	ctx := testContext(out, "")
	env := object.NewEnvironment()
	result := evaluator.RunSource("test", input, ctx, env)
	return result, out.String()
}

func runTest(t *testing.T, tests []testItem) {
	t.Helper()
	for _, test := range tests {
		result, _ := run(t, test.input)
		if result == nil {
			t.Errorf("nil result for %q", test.input)
			continue
		}
		got := result.Inspect(object.ViewPryzmaLiteral)
		if got != test.want {
			t.Errorf("for %q got %q, want %q", test.input, got, test.want)
		}
	}
}

func runErrorTest(t *testing.T, tests []testItem) {
	t.Helper()
	for _, test := range tests {
		result, _ := run(t, test.input)
		err, ok := result.(*object.Error)
		if !ok {
			t.Errorf("for %q expected error %q, got %v", test.input, test.want, result)
			continue
		}
		if err.ErrorId != test.want {
			t.Errorf("for %q got error %q (%s), want %q", test.input, err.ErrorId, err.Message, test.want)
		}
	}
}

func TestArithmetic(t *testing.T) {
	tests := []testItem{
		{`2 + 3 * 4`, `14`},
		{`(2 + 3) * 4`, `20`},
		{`7 / 2`, `3`},
		{`7 % 2`, `1`},
		{`7.0 / 2`, `3.5`},
		{`-5 + 3`, `-2`},
		{`1 + 2.5`, `3.5`},
	}
	runTest(t, tests)
}

func TestStringsAndConcatenation(t *testing.T) {
	tests := []testItem{
		{`"foo" + "bar"`, `"foobar"`},
		{`"n = " + 42`, `"n = 42"`},
		{`42 + "!"`, `"42!"`},
		{`"abc"[1]`, `"b"`},
		{`len("héllo")`, `5`},
	}
	runTest(t, tests)
}

func TestComparisonsAndLogic(t *testing.T) {
	tests := []testItem{
		{`2 < 3`, `true`},
		{`"a" < "b"`, `true`},
		{`2 == 2.0`, `false`},
		{`[1, 2] == [1, 2]`, `true`},
		{`true and false`, `false`},
		{`true or false`, `true`},
		{`not false`, `true`},
		{`false and (1 / 0 == 0)`, `false`},
		{`true or (1 / 0 == 0)`, `true`},
	}
	runTest(t, tests)
}

func TestVariablesAndScope(t *testing.T) {
	tests := []testItem{
		{`x = 5; x = x + 1; x`, `6`},
		{`x = 1; if true { x = 2 }; x`, `2`},
		{`x = 1; if true { y = 2 }; x`, `1`},
		{`x = 1; del x; y = 9; y`, `9`},
	}
	runTest(t, tests)
}

func TestFunctions(t *testing.T) {
	tests := []testItem{
		{`func add(a, b) { return a + b }; add(2, 3)`, `5`},
		{`f = func(x) { return x * 2 }; f(21)`, `42`},
		{`func fib(n) { if n < 2 { return n }; return fib(n - 1) + fib(n - 2) }; fib(10)`, `55`},
		{`func noresult(x) { y = x }; noresult(1)`, `none`},
	}
	runTest(t, tests)
}

func TestClosuresAreLateBinding(t *testing.T) {
	tests := []testItem{
		// The closure sees the mutation of the captured variable.
		{`x = 1; f = func() { return x }; x = 2; f()`, `2`},
		{`func counter() { n = 0; return func() { n = n + 1; return n } }; c = counter(); c(); c(); c()`, `3`},
		// Two counters don't share a frame.
		{`func counter() { n = 0; return func() { n = n + 1; return n } }; a = counter(); b = counter(); a(); a(); b()`, `1`},
	}
	runTest(t, tests)
}

func TestControlFlow(t *testing.T) {
	tests := []testItem{
		{`x = 0; while x < 5 { x = x + 1 }; x`, `5`},
		{`sum = 0; for i = 1:4 { sum = sum + i }; sum`, `10`},
		{`for i = 3:1 { x = 1 }; 7`, `7`},
		{`x = 0; if x == 1 { r = "a" } else if x == 0 { x = 42 }; x`, `42`},
		{`func f() { while true { return 9 } }; f()`, `9`},
	}
	runTest(t, tests)
}

func TestLists(t *testing.T) {
	tests := []testItem{
		{`xs = [1, 2, 3]; xs[1]`, `2`},
		{`xs = [1, 2, 3]; xs[0] = 9; xs`, `[9, 2, 3]`},
		{`xs = [1]; append(xs, 2); xs`, `[1, 2]`},
		{`xs = [1, 2, 3]; pop(xs)`, `3`},
		{`xs = [1, 2, 3]; pop(xs, 0); xs`, `[2, 3]`},
		{`xs = [1, 2, 3]; swap(xs, 0, 2); xs`, `[3, 2, 1]`},
		{`xs = [1, 2, 3]; move(xs, 0, 2); xs`, `[2, 3, 1]`},
		{`xs = [1, 2]; ys = copy(xs); append(ys, 3); xs`, `[1, 2]`},
		// Lists are shared by reference, so the alias sees the append.
		{`xs = [1, 2]; ys = xs; append(ys, 3); xs`, `[1, 2, 3]`},
		{`[1] + [2, 3]`, `[1, 2, 3]`},
		{`in([1, 2, 3], 2)`, `true`},
		{`index([1, 2, 3], 3)`, `2`},
		{`index([1, 2, 3], 9)`, `-1`},
		{`range(3)`, `[0, 1, 2]`},
		{`range(2, 4)`, `[2, 3, 4]`},
	}
	runTest(t, tests)
}

func TestStringBuiltins(t *testing.T) {
	tests := []testItem{
		{`split("abc")`, `["a", "b", "c"]`},
		{`splitby("a,b,c", ",")`, `["a", "b", "c"]`},
		{`splitlines("a` + `\n` + `b")`, `["a", "b"]`},
		{`replace("aXa", "X", "b")`, `"aba"`},
		{`all([1, "two", 3])`, `"1 two 3"`},
		{`isanumber("42")`, `true`},
		{`isanumber("4x")`, `false`},
		{`str(42) + str(1.5)`, `"421.5"`},
		{`int("0x10")`, `16`},
		{`float("2.5") * 2`, `5.0`},
		{`type(1.5)`, `"float"`},
	}
	runTest(t, tests)
}

func TestStructs(t *testing.T) {
	tests := []testItem{
		{`struct Point { x, y }; p = Point(1, 2); p.x + p.y`, `3`},
		{`struct Point { x, y = 0 }; Point(5).y`, `0`},
		{`struct Point { x, y = 0 }; Point(y: 2, x: 1).y`, `2`},
		{`struct Point { x, y }; Point(1, 2) == Point(1, 2)`, `true`},
		{`struct Point { x, y }; p = Point(1, 2); q = Point(1, 2); q.y = 9; p == q`, `false`},
		{`struct Point { x, y }; p = Point(1, 2); p.x = 7; p.x`, `7`},
	}
	runTest(t, tests)
}

func TestStructDefaultsAreLazy(t *testing.T) {
	tests := []testItem{
		// The default expression runs per instantiation, so it sees the
		// counter move.
		{`n = 0; func next() { n = n + 1; return n }
		struct Tagged { id = next() }
		a = Tagged(); b = Tagged(); [a.id, b.id]`, `[1, 2]`},
		// And a fresh list default is a fresh list each time.
		{`struct Box { items = [] }
		a = Box(); b = Box(); append(a.items, 1); len(b.items)`, `0`},
	}
	runTest(t, tests)
}

func TestKeywords(t *testing.T) {
	tests := []testItem{
		{`keyword unless(c, b) { if not (c) { b } }
		x = 0
		unless(x == 1, x = 5)
		x`, `5`},
		{`keyword twice(s) { s; s }
		n = 0
		twice(n = n + 1)
		n`, `2`},
	}
	runTest(t, tests)
}

func TestAsmBlocks(t *testing.T) {
	tests := []testItem{
		{`asm bump(x -> rax) -> rax { inc rax }; bump(5)`, `6`},
		{`asm addmul(a -> rax, b -> rbx) -> rax {
			add rax, rbx
			imul rax, 2
		}
		addmul(3, 4)`, `14`},
		{`asm divmod(a -> rax, b -> rbx) -> rax, rdx {
			idiv rbx
		}
		divmod(7, 2)`, `[3, 1]`},
		{`asm looped(n -> rcx) -> rax {
			mov rax, 0
			top:
			add rax, rcx
			dec rcx
			cmp rcx, 0
			jg top
		}
		looped(4)`, `10`},
		{`asm stashed(x -> rax) -> rbx mem 64 {
			mov [rsp - 8], rax
			mov rbx, [rsp - 8]
		}
		stashed(99)`, `99`},
		{`asm pushpop(x -> rax) -> rbx {
			push rax
			pop rbx
		}
		pushpop(7)`, `7`},
	}
	runTest(t, tests)
}

func TestAsmFaultsAreContained(t *testing.T) {
	// An out-of-bounds write faults the block and the host bindings are
	// exactly what they were.
	input := `x = 1
	asm wild() -> rax mem 16 {
		mov rbx, 1000
		mov [rbx], 42
	}
	y = wild()
	x`
	result, _ := run(t, input)
	err, ok := result.(*object.Error)
	if !ok {
		t.Fatalf("expected a fault, got %v", result)
	}
	if err.ErrorId != "asm/mem/bounds" {
		t.Errorf("got error %q, want asm/mem/bounds", err.ErrorId)
	}

	out := &bytes.Buffer{}
	ctx := testContext(out, "")
	env := object.NewEnvironment()
	evaluator.RunSource("test", `x = 1`, ctx, env)
	evaluator.RunSource("test", `asm wild() -> rax mem 16 { mov rbx, 1000; mov [rbx], 42 }; y = wild()`, ctx, env)
	if val, ok := env.Get("x"); !ok || val.Inspect(object.ViewPryzmaLiteral) != `1` {
		t.Errorf("fault disturbed the host environment: x = %v", val)
	}
	if _, ok := env.Get("y"); ok {
		t.Errorf("y should not have been bound after the fault")
	}
}

func TestErrors(t *testing.T) {
	tests := []testItem{
		{`nonsuch`, `eval/ident/found`},
		{`1 / 0`, `eval/div/zero`},
		{`1.0 / 0.0`, `eval/div/float`},
		{`if 1 { x = 2 }`, `eval/bool`},
		{`while "yes" { x = 2 }`, `eval/bool`},
		{`true and 1`, `eval/infix/type`},
		{`"a" - "b"`, `eval/infix/type`},
		{`-"a"`, `eval/prefix/type`},
		{`[1, 2][5]`, `eval/index/list`},
		{`"ab"[2]`, `eval/index/string`},
		{`[1]["x"]`, `eval/index/type`},
		{`5(2)`, `eval/call/type`},
		{`func f(a) { return a }; f(1, 2)`, `eval/arity`},
		{`struct Point { x, y }; Point(1)`, `eval/field/missing`},
		{`struct Point { x, y }; Point(z: 1)`, `eval/field/named`},
		{`struct Point { x, y }; Point(1, 2).z`, `eval/field/found`},
		{`struct Point { x, y }; Point(3, x: 4)`, `eval/field/dup`},
		{`struct Point { x, y }; Point(x: 3, 4)`, `eval/field/dup`},
		{`struct Point { x, y }; Point(x: 3, x: 4, y: 5)`, `eval/field/dup`},
		{`for i = "a":3 { x = 1 }`, `eval/range/ends`},
		{`del nonsuch`, `eval/ident/found`},
		{`len(42)`, `eval/builtin/arg`},
		{`len("a", "b")`, `eval/builtin/args`},
		{`read("no/such/file.txt")`, `eval/file`},
		{`asm f(x -> zork) -> rax { nop }; f(1)`, `asm/reg`},
		{`asm f() -> rax { frob rax }; f()`, `asm/opcode`},
		{`asm f() -> rax { jmp gone }; f()`, `asm/label`},
		{`asm f(a -> rax, b -> rbx) -> rax { idiv rbx }; f(1, 0)`, `asm/div`},
		{`asm f() -> rax { top: jmp top }; f()`, `asm/steps`},
		{`asm f() -> rax mem 4611686018854775807 { nop }`, `asm/mem/size`},
		{`asm f(a -> rax) -> rbx mem 64 { mov [rax], 1 }; f(9223372036854775800)`, `asm/mem/bounds`},
	}
	runErrorTest(t, tests)
}

func TestPrintAndInput(t *testing.T) {
	_, output := run(t, `print("x is", 42)`)
	if output != "x is 42\n" {
		t.Errorf("got output %q", output)
	}

	out := &bytes.Buffer{}
	ctx := testContext(out, "Douglas\n")
	env := object.NewEnvironment()
	result := evaluator.RunSource("test", `name = input("who? "); name`, ctx, env)
	if result.Inspect(object.ViewPryzmaLiteral) != `"Douglas"` {
		t.Errorf("got %v", result)
	}
	if out.String() != "who? " {
		t.Errorf("prompt was %q", out.String())
	}
}

func TestEvalBuiltin(t *testing.T) {
	tests := []testItem{
		{`x = 2; eval("x + 1")`, `3`},
		{`eval("y = 7"); y`, `7`},
	}
	runTest(t, tests)
}

func TestSysvars(t *testing.T) {
	tests := []testItem{
		{`$view = "plain"; $view`, `"plain"`},
	}
	runTest(t, tests)
	runErrorTest(t, []testItem{
		{`$view = "fancy"`, `sys/view/vals`},
		{`$view = 2`, `sys/view/string`},
	})
}

func TestShadowingABuiltin(t *testing.T) {
	tests := []testItem{
		{`len = func(x) { return 99 }; len("abcd")`, `99`},
		{`f = len; f([1, 2, 3])`, `3`},
	}
	runTest(t, tests)
}
