// Package decode turns a 21-bit encoded instruction word into a typed
// DecodedInstruction record consumed by the scoreboard. It is the reverse
// direction of asm's encoder: asm.Encode renders text to bits, decode.Decode
// renders bits back to a struct the scoreboard can schedule and execute.
package decode

import (
	"fmt"

	"github.com/archlab/tea-scoreboard/isa"
)

// NoField marks an absent fi/fj/fk operand.
const NoField = -1

// NoTimestamp marks a timestamp field that has not yet been recorded.
const NoTimestamp = -1

// DecodedInstruction is the scoreboard's per-instruction record. It is
// created once at decode time; only the four timestamps and Result mutate
// afterward, as instructions progress through the pipeline.
type DecodedInstruction struct {
	Word  uint32
	Op    isa.Opcode
	Shape isa.Shape
	Unit  isa.UnitType

	Fi int // destination register, NoField if absent
	Fj int // first source register, NoField if absent
	Fk int // second source register, NoField if absent

	IsImmediate bool
	Immediate   uint32 // valid when IsImmediate is true (8-bit arithmetic imm or 13-bit branch tag)

	Issue      int
	ReadOps    int
	ExComplete int
	WriteBack  int

	Result *uint32 // set during Execute; nil until then

	Diagnostic string // non-fatal execution diagnostic (e.g. DIV by zero), empty if none
}

func newDecoded(word uint32, op isa.Opcode, shape isa.Shape, unit isa.UnitType) *DecodedInstruction {
	return &DecodedInstruction{
		Word:       word,
		Op:         op,
		Shape:      shape,
		Unit:       unit,
		Fi:         NoField,
		Fj:         NoField,
		Fk:         NoField,
		Issue:      NoTimestamp,
		ReadOps:    NoTimestamp,
		ExComplete: NoTimestamp,
		WriteBack:  NoTimestamp,
	}
}

// Decode inspects the top 4 bits of the 21-bit word to pick the shape and
// slices the remaining 17 bits accordingly, per spec.md §4.1 and the field
// layout documented in isa.WordBits.
func Decode(word uint32) (*DecodedInstruction, error) {
	if word >= 1<<isa.WordBits {
		return nil, fmt.Errorf("decode: word 0x%X exceeds %d bits", word, isa.WordBits)
	}

	opcode := isa.Opcode((word >> 17) & 0xF)
	unit := isa.RequiredUnit(opcode)

	switch {
	case isa.IsBranch(opcode):
		return decodeBranch(word, opcode, unit), nil
	case isa.IsMemory(opcode):
		return decodeMemory(word, opcode, unit), nil
	case isa.IsArithmetic(opcode):
		return decodeArithmetic(word, opcode, unit), nil
	default:
		return nil, fmt.Errorf("decode: unknown opcode 0x%X", opcode)
	}
}

// decodeBranch handles LOOP: [op:4][fj:4][tag:13].
func decodeBranch(word uint32, op isa.Opcode, unit isa.UnitType) *DecodedInstruction {
	d := newDecoded(word, op, isa.ShapeBranch, unit)
	d.Fj = int((word >> 13) & 0xF)
	d.IsImmediate = true
	d.Immediate = word & 0x1FFF // 13-bit tag
	return d
}

// decodeMemory handles LOAD/STOR/STK/DLT: [op:4][fi:4][fj:4][fk:4][pad:5].
func decodeMemory(word uint32, op isa.Opcode, unit isa.UnitType) *DecodedInstruction {
	d := newDecoded(word, op, isa.ShapeMemory, unit)
	d.Fi = int((word >> 13) & 0xF)
	d.Fj = int((word >> 9) & 0xF)
	d.Fk = int((word >> 5) & 0xF)
	return d
}

// decodeArithmetic handles ADD/SUB/AND/OR/XOR/SHRL/SHLL/MUL/DIV/SAXS.
// Register form (flag bit, the top bit of the 17-bit remainder, = 0):
//
//	[op:4][0][fi:4][fj:4][fk:4][pad:4]
//
// Immediate form (flag bit = 1):
//
//	[op:4][1][fi:4][fj:4][imm:8]
func decodeArithmetic(word uint32, op isa.Opcode, unit isa.UnitType) *DecodedInstruction {
	immFlag := (word >> 16) & 0x1
	if immFlag == 0 {
		d := newDecoded(word, op, isa.ShapeRegister, unit)
		d.Fi = int((word >> 12) & 0xF)
		d.Fj = int((word >> 8) & 0xF)
		d.Fk = int((word >> 4) & 0xF)
		return d
	}

	d := newDecoded(word, op, isa.ShapeImmediate, unit)
	d.Fi = int((word >> 12) & 0xF)
	d.Fj = int((word >> 8) & 0xF)
	d.IsImmediate = true
	d.Immediate = word & 0xFF // 8-bit immediate
	return d
}

// DecodeAll decodes an ordered list of 21-bit words into an instruction
// memory's worth of DecodedInstructions, in program order.
func DecodeAll(words []uint32) ([]*DecodedInstruction, error) {
	out := make([]*DecodedInstruction, len(words))
	for i, w := range words {
		d, err := Decode(w)
		if err != nil {
			return nil, fmt.Errorf("decode: instruction %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}
