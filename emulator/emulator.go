// Package emulator is the little x86_64 machine that asm blocks run on. It
// knows nothing about Pryzma values: the evaluator loads the entry registers,
// calls Run, and reads the exit registers back out, and that is the whole
// interface between the two worlds.
package emulator

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pryzma-lang/pryzma/token"
)

const NumRegisters = 16

var RegisterNames = [NumRegisters]string{
	"rax", "rbx", "rcx", "rdx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

const RSP = 4

func LookupRegister(name string) (int, bool) {
	for i, r := range RegisterNames {
		if r == name {
			return i, true
		}
	}
	return 0, false
}

// Runaway loops fault the block rather than hanging the interpreter.
const StepLimit = 1 << 22

// MaxMemSize bounds the 'mem' clause of a block so a declaration can't ask
// for an unallocatable region.
const MaxMemSize = 1 << 30

type Fault struct {
	Id   string
	Tok  token.Token
	Args []any
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s%v", f.Id, f.Args)
}

func newFault(id string, tok token.Token, args ...any) *Fault {
	return &Fault{Id: id, Tok: tok, Args: args}
}

// A Machine is the state an asm block runs against: sixteen 64-bit registers,
// four flags, and a bounded memory region. rsp starts at the top of the
// region so the stack has somewhere to grow down into.
type Machine struct {
	Regs [NumRegisters]int64
	Mem  []byte
	ZF   bool
	SF   bool
	CF   bool
	OF   bool
}

func NewMachine(memSize int64) *Machine {
	m := &Machine{Mem: make([]byte, memSize)}
	m.Regs[RSP] = memSize
	return m
}

// Run executes the program from its first instruction until it runs off the
// end. A non-nil Fault means the block was abandoned part way through and
// the machine's state must not be marshaled out.
func (m *Machine) Run(p *Program) *Fault {
	pc := 0
	steps := 0
	for pc < len(p.Instructions) {
		steps++
		if steps > StepLimit {
			return newFault("asm/steps", p.Instructions[pc].Tok, StepLimit)
		}
		ins := &p.Instructions[pc]
		pc++
		switch ins.Op {
		case NOP:
		case MOV:
			v, fault := m.read(ins, 1)
			if fault != nil {
				return fault
			}
			if fault := m.write(ins, 0, v); fault != nil {
				return fault
			}
		case ADD, SUB, AND, OR, XOR, SHL, SHR, IMUL:
			a, fault := m.read(ins, 0)
			if fault != nil {
				return fault
			}
			b, fault := m.read(ins, 1)
			if fault != nil {
				return fault
			}
			result := m.arith(ins.Op, a, b)
			if fault := m.write(ins, 0, result); fault != nil {
				return fault
			}
		case INC, DEC, NEG, NOT:
			a, fault := m.read(ins, 0)
			if fault != nil {
				return fault
			}
			var result int64
			switch ins.Op {
			case INC:
				result = a + 1
				m.setAddFlags(a, 1, result)
			case DEC:
				result = a - 1
				m.setSubFlags(a, 1, result)
			case NEG:
				result = -a
				m.setSubFlags(0, a, result)
			case NOT:
				result = ^a
			}
			if fault := m.write(ins, 0, result); fault != nil {
				return fault
			}
		case IDIV:
			divisor, fault := m.read(ins, 0)
			if fault != nil {
				return fault
			}
			dividend := m.Regs[0]
			if divisor == 0 || (dividend == math.MinInt64 && divisor == -1) {
				return newFault("asm/div", ins.Tok)
			}
			m.Regs[0] = dividend / divisor
			m.Regs[3] = dividend % divisor
		case CMP:
			a, fault := m.read(ins, 0)
			if fault != nil {
				return fault
			}
			b, fault := m.read(ins, 1)
			if fault != nil {
				return fault
			}
			m.setSubFlags(a, b, a-b)
		case TEST:
			a, fault := m.read(ins, 0)
			if fault != nil {
				return fault
			}
			b, fault := m.read(ins, 1)
			if fault != nil {
				return fault
			}
			m.setLogicFlags(a & b)
		case JMP, JE, JNE, JL, JLE, JG, JGE:
			if m.taken(ins.Op) {
				target, ok := p.Labels[ins.Label]
				if !ok {
					return newFault("asm/label", ins.Tok, ins.Label)
				}
				pc = target
			}
		case PUSH:
			v, fault := m.read(ins, 0)
			if fault != nil {
				return fault
			}
			addr := m.Regs[RSP] - 8
			if fault := m.storeMem(addr, v, ins.Tok); fault != nil {
				return fault
			}
			m.Regs[RSP] = addr
		case POP:
			addr := m.Regs[RSP]
			v, fault := m.loadMem(addr, ins.Tok)
			if fault != nil {
				return fault
			}
			m.Regs[RSP] = addr + 8
			if fault := m.write(ins, 0, v); fault != nil {
				return fault
			}
		}
	}
	return nil
}

func (m *Machine) arith(op Opcode, a, b int64) int64 {
	switch op {
	case ADD:
		result := a + b
		m.setAddFlags(a, b, result)
		return result
	case SUB:
		result := a - b
		m.setSubFlags(a, b, result)
		return result
	case AND:
		result := a & b
		m.setLogicFlags(result)
		return result
	case OR:
		result := a | b
		m.setLogicFlags(result)
		return result
	case XOR:
		result := a ^ b
		m.setLogicFlags(result)
		return result
	case SHL:
		result := a << uint64(b&63)
		m.setLogicFlags(result)
		return result
	case SHR:
		result := int64(uint64(a) >> uint64(b&63))
		m.setLogicFlags(result)
		return result
	case IMUL:
		result := a * b
		m.setLogicFlags(result)
		return result
	}
	return 0
}

func (m *Machine) taken(op Opcode) bool {
	switch op {
	case JMP:
		return true
	case JE:
		return m.ZF
	case JNE:
		return !m.ZF
	case JL:
		return m.SF != m.OF
	case JLE:
		return m.ZF || m.SF != m.OF
	case JG:
		return !m.ZF && m.SF == m.OF
	case JGE:
		return m.SF == m.OF
	}
	return false
}

func (m *Machine) setAddFlags(a, b, result int64) {
	m.ZF = result == 0
	m.SF = result < 0
	m.CF = uint64(result) < uint64(a)
	m.OF = (a > 0 && b > 0 && result < 0) || (a < 0 && b < 0 && result >= 0)
}

func (m *Machine) setSubFlags(a, b, result int64) {
	m.ZF = result == 0
	m.SF = result < 0
	m.CF = uint64(a) < uint64(b)
	m.OF = (a >= 0 && b < 0 && result < 0) || (a < 0 && b >= 0 && result >= 0)
}

func (m *Machine) setLogicFlags(result int64) {
	m.ZF = result == 0
	m.SF = result < 0
	m.CF = false
	m.OF = false
}

func (m *Machine) read(ins *Instruction, i int) (int64, *Fault) {
	op := ins.Operands[i]
	switch op.Kind {
	case OperandImm:
		return op.Imm, nil
	case OperandReg:
		return m.Regs[op.Reg], nil
	case OperandMem:
		return m.loadMem(m.Regs[op.Reg]+op.Disp, ins.Tok)
	}
	return 0, newFault("asm/operand", ins.Tok, MnemonicOf(ins.Op))
}

func (m *Machine) write(ins *Instruction, i int, v int64) *Fault {
	op := ins.Operands[i]
	switch op.Kind {
	case OperandReg:
		m.Regs[op.Reg] = v
		return nil
	case OperandMem:
		return m.storeMem(m.Regs[op.Reg]+op.Disp, v, ins.Tok)
	}
	return newFault("asm/operand", ins.Tok, MnemonicOf(ins.Op))
}

func (m *Machine) loadMem(addr int64, tok token.Token) (int64, *Fault) {
	// The subtraction form can't overflow the way addr+8 would for an
	// addr near MaxInt64.
	if addr < 0 || addr > int64(len(m.Mem))-8 {
		return 0, newFault("asm/mem/bounds", tok, addr, len(m.Mem))
	}
	return int64(binary.LittleEndian.Uint64(m.Mem[addr:])), nil
}

func (m *Machine) storeMem(addr int64, v int64, tok token.Token) *Fault {
	if addr < 0 || addr > int64(len(m.Mem))-8 {
		return newFault("asm/mem/bounds", tok, addr, len(m.Mem))
	}
	binary.LittleEndian.PutUint64(m.Mem[addr:], uint64(v))
	return nil
}
