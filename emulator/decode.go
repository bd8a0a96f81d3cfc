package emulator

import (
	"strconv"

	"github.com/pryzma-lang/pryzma/token"
)

type Opcode int

const (
	NOP Opcode = iota
	MOV
	ADD
	SUB
	INC
	DEC
	NEG
	NOT
	AND
	OR
	XOR
	SHL
	SHR
	IMUL
	IDIV
	CMP
	TEST
	JMP
	JE
	JNE
	JL
	JLE
	JG
	JGE
	PUSH
	POP
)

type opcodeInfo struct {
	op       Opcode
	operands int
	jump     bool
}

var mnemonics = map[string]opcodeInfo{
	"nop":  {NOP, 0, false},
	"mov":  {MOV, 2, false},
	"add":  {ADD, 2, false},
	"sub":  {SUB, 2, false},
	"inc":  {INC, 1, false},
	"dec":  {DEC, 1, false},
	"neg":  {NEG, 1, false},
	"not":  {NOT, 1, false},
	"and":  {AND, 2, false},
	"or":   {OR, 2, false},
	"xor":  {XOR, 2, false},
	"shl":  {SHL, 2, false},
	"shr":  {SHR, 2, false},
	"imul": {IMUL, 2, false},
	"idiv": {IDIV, 1, false},
	"cmp":  {CMP, 2, false},
	"test": {TEST, 2, false},
	"jmp":  {JMP, 0, true},
	"je":   {JE, 0, true},
	"jne":  {JNE, 0, true},
	"jl":   {JL, 0, true},
	"jle":  {JLE, 0, true},
	"jg":   {JG, 0, true},
	"jge":  {JGE, 0, true},
	"push": {PUSH, 1, false},
	"pop":  {POP, 1, false},
}

func MnemonicOf(op Opcode) string {
	for m, info := range mnemonics {
		if info.op == op {
			return m
		}
	}
	return "?"
}

type OperandKind int

const (
	OperandReg OperandKind = iota
	OperandImm
	OperandMem
)

type Operand struct {
	Kind OperandKind
	Reg  int
	Imm  int64
	Disp int64
}

type Instruction struct {
	Op       Opcode
	Operands []Operand
	Label    string
	Tok      token.Token
}

// A decoded asm block body. Labels maps a label name to the index of the
// instruction after it.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
}

type decoder struct {
	toks []token.Token
	pos  int
}

// Decode turns the token stream of an asm block body into a Program. It runs
// once, when the block's declaration is evaluated, so a misspelt mnemonic is
// reported at declaration rather than on some later call.
func Decode(toks []token.Token) (*Program, *Fault) {
	d := &decoder{toks: toks}
	p := &Program{Labels: make(map[string]int)}
	for {
		d.skipSeparators()
		if d.atEnd() {
			break
		}
		tok := d.next()
		// 'and', 'or' and 'not' come out of the lexer as keyword tokens,
		// but in here they are mnemonics.
		if tok.Type != token.IDENT && tok.Type != token.AND && tok.Type != token.OR && tok.Type != token.NOT {
			return nil, newFault("asm/opcode", tok, tok.Literal)
		}
		if d.peek().Type == token.COLON {
			d.next()
			p.Labels[tok.Literal] = len(p.Instructions)
			continue
		}
		info, ok := mnemonics[tok.Literal]
		if !ok {
			return nil, newFault("asm/opcode", tok, tok.Literal)
		}
		ins := Instruction{Op: info.op, Tok: tok}
		if info.jump {
			target := d.next()
			if target.Type != token.IDENT {
				return nil, newFault("asm/operand", tok, tok.Literal)
			}
			ins.Label = target.Literal
		} else {
			for i := 0; i < info.operands; i++ {
				if i > 0 {
					if d.next().Type != token.COMMA {
						return nil, newFault("asm/operands", tok, tok.Literal, info.operands)
					}
				}
				operand, fault := d.operand(tok)
				if fault != nil {
					return nil, fault
				}
				ins.Operands = append(ins.Operands, operand)
			}
		}
		if !d.atEnd() && !isSeparator(d.peek()) {
			return nil, newFault("asm/operands", tok, tok.Literal, info.operands)
		}
		p.Instructions = append(p.Instructions, ins)
	}
	// Jump targets are checked here too, so they can't fault at runtime
	// unless the label map was tampered with.
	for _, ins := range p.Instructions {
		if ins.Label != "" {
			if _, ok := p.Labels[ins.Label]; !ok {
				return nil, newFault("asm/label", ins.Tok, ins.Label)
			}
		}
	}
	return p, nil
}

func (d *decoder) operand(mnemonic token.Token) (Operand, *Fault) {
	tok := d.next()
	switch tok.Type {
	case token.IDENT:
		reg, ok := LookupRegister(tok.Literal)
		if !ok {
			return Operand{}, newFault("asm/reg", tok, tok.Literal)
		}
		return Operand{Kind: OperandReg, Reg: reg}, nil
	case token.INT:
		v, err := strconv.ParseInt(tok.Literal, 0, 64)
		if err != nil {
			return Operand{}, newFault("asm/operand", tok, mnemonic.Literal)
		}
		return Operand{Kind: OperandImm, Imm: v}, nil
	case token.MINUS:
		numTok := d.next()
		v, err := strconv.ParseInt(numTok.Literal, 0, 64)
		if numTok.Type != token.INT || err != nil {
			return Operand{}, newFault("asm/operand", tok, mnemonic.Literal)
		}
		return Operand{Kind: OperandImm, Imm: -v}, nil
	case token.LBRACK:
		regTok := d.next()
		reg, ok := LookupRegister(regTok.Literal)
		if regTok.Type != token.IDENT || !ok {
			return Operand{}, newFault("asm/reg", regTok, regTok.Literal)
		}
		operand := Operand{Kind: OperandMem, Reg: reg}
		switch d.peek().Type {
		case token.PLUS, token.MINUS:
			sign := int64(1)
			if d.next().Type == token.MINUS {
				sign = -1
			}
			numTok := d.next()
			v, err := strconv.ParseInt(numTok.Literal, 0, 64)
			if numTok.Type != token.INT || err != nil {
				return Operand{}, newFault("asm/operand", tok, mnemonic.Literal)
			}
			operand.Disp = sign * v
		}
		if d.next().Type != token.RBRACK {
			return Operand{}, newFault("asm/operand", tok, mnemonic.Literal)
		}
		return operand, nil
	}
	return Operand{}, newFault("asm/operand", tok, mnemonic.Literal)
}

func (d *decoder) atEnd() bool {
	return d.pos >= len(d.toks)
}

func (d *decoder) peek() token.Token {
	if d.atEnd() {
		return token.Token{Type: token.EOF}
	}
	return d.toks[d.pos]
}

func (d *decoder) next() token.Token {
	tok := d.peek()
	d.pos++
	return tok
}

func (d *decoder) skipSeparators() {
	for !d.atEnd() && isSeparator(d.peek()) {
		d.pos++
	}
}

func isSeparator(tok token.Token) bool {
	return tok.Type == token.NEWLINE || tok.Type == token.SEMICOLON
}
