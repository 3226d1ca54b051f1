package asm

import "github.com/archlab/tea-scoreboard/isa"

// Operand is one parsed instruction argument: a register, a label
// reference, or a literal immediate. Label operands carry their resolved
// instruction index in Value once parsing completes, since this ISA's
// assembler sees every label definition in pass 1 before any operand is
// parsed in pass 2 — there is no forward-reference relocation to defer.
type Operand struct {
	Text       string
	IsRegister bool
	Register   int
	IsLabel    bool
	Label      string
	Value      uint32
}

// Instruction is one parsed program line.
type Instruction struct {
	Label    string // non-empty if a `name:` line immediately preceded this one
	Mnemonic string
	Op       isa.Opcode
	Operands []Operand
	Comment  string
	Pos      Position
	RawLine  string
	Index    int // position in Program.Instructions
}

// Program is the assembler's output: the resolved instruction list and
// the label table that named its branch targets.
type Program struct {
	Instructions []*Instruction
	Labels       *SymbolTable
}
