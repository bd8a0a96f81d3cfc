package emulator_test

import (
	"testing"

	"github.com/pryzma-lang/pryzma/emulator"
	"github.com/pryzma-lang/pryzma/lexer"
)

func decode(t *testing.T, input string) *emulator.Program {
	t.Helper()
	toks, ers := lexer.LexAll("test", input)
	if len(ers) > 0 {
		t.Fatalf("lexing %q: %s", input, ers[0].Message)
	}
	program, fault := emulator.Decode(toks)
	if fault != nil {
		t.Fatalf("decoding %q: %s", input, fault.Error())
	}
	return program
}

func runProgram(t *testing.T, input string, memSize int64, entry map[string]int64) *emulator.Machine {
	t.Helper()
	program := decode(t, input)
	machine := emulator.NewMachine(memSize)
	for name, value := range entry {
		reg, ok := emulator.LookupRegister(name)
		if !ok {
			t.Fatalf("no register %q", name)
		}
		machine.Regs[reg] = value
	}
	if fault := machine.Run(program); fault != nil {
		t.Fatalf("running %q: %s", input, fault.Error())
	}
	return machine
}

type regTest struct {
	input string
	entry map[string]int64
	reg   string
	want  int64
}

func runRegTests(t *testing.T, tests []regTest) {
	t.Helper()
	for _, test := range tests {
		machine := runProgram(t, test.input, 256, test.entry)
		reg, _ := emulator.LookupRegister(test.reg)
		if got := machine.Regs[reg]; got != test.want {
			t.Errorf("after %q, %s = %d, want %d", test.input, test.reg, got, test.want)
		}
	}
}

func TestDataMovementAndArithmetic(t *testing.T) {
	tests := []regTest{
		{`mov rax, 42`, nil, "rax", 42},
		{`mov rax, rbx`, map[string]int64{"rbx": 7}, "rax", 7},
		{`mov rax, -3`, nil, "rax", -3},
		{`add rax, 5`, map[string]int64{"rax": 10}, "rax", 15},
		{`sub rax, rbx`, map[string]int64{"rax": 10, "rbx": 4}, "rax", 6},
		{`imul rax, rbx`, map[string]int64{"rax": 6, "rbx": 7}, "rax", 42},
		{`inc rax`, map[string]int64{"rax": -1}, "rax", 0},
		{`dec rax`, nil, "rax", -1},
		{`neg rax`, map[string]int64{"rax": 9}, "rax", -9},
		{`and rax, rbx`, map[string]int64{"rax": 0b1100, "rbx": 0b1010}, "rax", 0b1000},
		{`or rax, rbx`, map[string]int64{"rax": 0b1100, "rbx": 0b1010}, "rax", 0b1110},
		{`xor rax, rax`, map[string]int64{"rax": 99}, "rax", 0},
		{`not rax`, map[string]int64{"rax": 0}, "rax", -1},
		{`shl rax, 3`, map[string]int64{"rax": 1}, "rax", 8},
		{`shr rax, 1`, map[string]int64{"rax": 8}, "rax", 4},
		{`mov r8, 1; add r8, r15; mov rax, r8`, map[string]int64{"r15": 2}, "rax", 3},
	}
	runRegTests(t, tests)
}

func TestDivision(t *testing.T) {
	machine := runProgram(t, `idiv rbx`, 256, map[string]int64{"rax": 17, "rbx": 5})
	if machine.Regs[0] != 3 || machine.Regs[3] != 2 {
		t.Errorf("17 / 5: rax = %d, rdx = %d", machine.Regs[0], machine.Regs[3])
	}
	machine = runProgram(t, `idiv rbx`, 256, map[string]int64{"rax": -17, "rbx": 5})
	if machine.Regs[0] != -3 || machine.Regs[3] != -2 {
		t.Errorf("-17 / 5: rax = %d, rdx = %d", machine.Regs[0], machine.Regs[3])
	}
}

func TestConditionalJumps(t *testing.T) {
	// Each program leaves 1 in rax when the branch behaves, 0 when it
	// doesn't.
	tests := []regTest{
		{`mov rax, 1; cmp rbx, 5; je yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": 5}, "rax", 1},
		{`mov rax, 1; cmp rbx, 5; jne yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": 6}, "rax", 1},
		{`mov rax, 1; cmp rbx, 5; jl yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": -8}, "rax", 1},
		{`mov rax, 1; cmp rbx, 5; jle yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": 5}, "rax", 1},
		{`mov rax, 1; cmp rbx, 5; jg yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": 6}, "rax", 1},
		{`mov rax, 1; cmp rbx, 5; jge yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": 5}, "rax", 1},
		{`mov rax, 1; cmp rbx, 5; jl yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": 5}, "rax", 0},
		{`mov rax, 1; test rbx, rbx; je yes; mov rax, 0; yes: nop`,
			map[string]int64{"rbx": 0}, "rax", 1},
		{`jmp skip; mov rax, 9; skip: mov rax, 1`, nil, "rax", 1},
	}
	runRegTests(t, tests)
}

func TestLoop(t *testing.T) {
	// Sum 1..n by counting rcx down.
	input := `
	mov rax, 0
	top:
	add rax, rcx
	dec rcx
	cmp rcx, 0
	jg top`
	machine := runProgram(t, input, 256, map[string]int64{"rcx": 100})
	if machine.Regs[0] != 5050 {
		t.Errorf("sum = %d, want 5050", machine.Regs[0])
	}
}

func TestMemoryAccess(t *testing.T) {
	tests := []regTest{
		{`mov [rbx], rcx; mov rax, [rbx]`,
			map[string]int64{"rbx": 8, "rcx": 123456789}, "rax", 123456789},
		{`mov [rbx + 8], rcx; mov rax, [rbx + 8]`,
			map[string]int64{"rbx": 0, "rcx": -42}, "rax", -42},
		{`mov [rbx - 8], rcx; mov rax, [rbx - 8]`,
			map[string]int64{"rbx": 16, "rcx": 7}, "rax", 7},
		{`push rcx; push rdx; pop rax; pop rbx`,
			map[string]int64{"rcx": 1, "rdx": 2}, "rax", 2},
	}
	runRegTests(t, tests)
}

func TestStackStartsAtTopOfMemory(t *testing.T) {
	machine := emulator.NewMachine(64)
	if machine.Regs[emulator.RSP] != 64 {
		t.Errorf("rsp = %d, want 64", machine.Regs[emulator.RSP])
	}
}

type faultTest struct {
	input string
	entry map[string]int64
	want  string
}

func runFaultTests(t *testing.T, tests []faultTest) {
	t.Helper()
	for _, test := range tests {
		toks, ers := lexer.LexAll("test", test.input)
		if len(ers) > 0 {
			t.Fatalf("lexing %q: %s", test.input, ers[0].Message)
		}
		program, fault := emulator.Decode(toks)
		if fault == nil {
			machine := emulator.NewMachine(64)
			for name, value := range test.entry {
				reg, _ := emulator.LookupRegister(name)
				machine.Regs[reg] = value
			}
			fault = machine.Run(program)
		}
		if fault == nil {
			t.Errorf("%q should have faulted with %s", test.input, test.want)
			continue
		}
		if fault.Id != test.want {
			t.Errorf("%q faulted with %s, want %s", test.input, fault.Id, test.want)
		}
	}
}

func TestFaults(t *testing.T) {
	tests := []faultTest{
		{`frob rax`, nil, "asm/opcode"},
		{`mov rax`, nil, "asm/operands"},
		{`mov rax, rbx, rcx`, nil, "asm/operands"},
		{`mov zork, 1`, nil, "asm/reg"},
		{`jmp nowhere`, nil, "asm/label"},
		{`idiv rbx`, map[string]int64{"rax": 1, "rbx": 0}, "asm/div"},
		{`idiv rbx`, map[string]int64{"rax": -9223372036854775808, "rbx": -1}, "asm/div"},
		{`mov rax, [rbx]`, map[string]int64{"rbx": 64}, "asm/mem/bounds"},
		{`mov rax, [rbx]`, map[string]int64{"rbx": -8}, "asm/mem/bounds"},
		{`mov [rbx], rcx`, map[string]int64{"rbx": 57}, "asm/mem/bounds"},
		{`mov [rax], rcx`, map[string]int64{"rax": 9223372036854775800}, "asm/mem/bounds"},
		{`mov rcx, [rax]`, map[string]int64{"rax": 9223372036854775800}, "asm/mem/bounds"},
		{`mov rcx, [rax+16]`, map[string]int64{"rax": 9223372036854775800}, "asm/mem/bounds"},
		{`pop rax`, nil, "asm/mem/bounds"},
		{`top: jmp top`, nil, "asm/steps"},
	}
	runFaultTests(t, tests)
}

func TestFlagsAcrossOverflow(t *testing.T) {
	// cmp of a large positive against a negative must use the overflow
	// flag, not the raw sign of the subtraction.
	machine := runProgram(t,
		`mov rax, 1; cmp rbx, rcx; jg yes; mov rax, 0; yes: nop`,
		256,
		map[string]int64{"rbx": 9223372036854775807, "rcx": -2})
	if machine.Regs[0] != 1 {
		t.Errorf("max int should compare greater than -2")
	}
}
