package asm

import (
	"fmt"
	"strings"

	"github.com/archlab/tea-scoreboard/isa"
)

// Encode renders every instruction in prog into its 21-bit word, in the
// exact field layout decode.Decode expects back — this is decode's
// inverse direction, grounded on encoder/encoder.go's per-shape dispatch.
func Encode(prog *Program) ([]uint32, error) {
	words := make([]uint32, len(prog.Instructions))
	for i, inst := range prog.Instructions {
		word, err := encodeOne(inst)
		if err != nil {
			return nil, fmt.Errorf("asm: instruction %d (%s) at %s: %w", i, inst.Mnemonic, inst.Pos, err)
		}
		words[i] = word
	}
	return words, nil
}

func encodeOne(inst *Instruction) (uint32, error) {
	op := uint32(inst.Op) << 17

	switch {
	case isa.IsBranch(inst.Op):
		if len(inst.Operands) != 2 {
			return 0, fmt.Errorf("branch instruction needs 2 resolved operands")
		}
		fj := inst.Operands[0].Register
		tag := inst.Operands[1].Value
		return op | uint32(fj)<<13 | (tag & 0x1FFF), nil

	case isa.IsMemory(inst.Op):
		return encodeMemory(op, inst)

	default:
		return encodeArithmetic(op, inst)
	}
}

func encodeMemory(op uint32, inst *Instruction) (uint32, error) {
	var fi, fj, fk uint32
	switch inst.Op {
	case isa.LOAD, isa.STOR:
		if len(inst.Operands) != 3 {
			return 0, fmt.Errorf("%s needs 3 resolved register operands", inst.Mnemonic)
		}
		fi = uint32(inst.Operands[0].Register)
		fj = uint32(inst.Operands[1].Register)
		fk = uint32(inst.Operands[2].Register)
	case isa.STK:
		if len(inst.Operands) != 2 {
			return 0, fmt.Errorf("STK needs 2 resolved register operands")
		}
		fj = uint32(inst.Operands[0].Register)
		fk = uint32(inst.Operands[1].Register)
	case isa.DLT:
		if len(inst.Operands) != 2 {
			return 0, fmt.Errorf("DLT needs 2 resolved register operands")
		}
		fi = uint32(inst.Operands[0].Register)
		fj = uint32(inst.Operands[1].Register)
	}
	return op | fi<<13 | fj<<9 | fk<<5, nil
}

func encodeArithmetic(op uint32, inst *Instruction) (uint32, error) {
	if len(inst.Operands) != 3 {
		return 0, fmt.Errorf("%s needs 3 resolved operands", inst.Mnemonic)
	}
	fi := uint32(inst.Operands[0].Register)
	fj := uint32(inst.Operands[1].Register)
	third := inst.Operands[2]

	if third.IsRegister {
		fk := uint32(third.Register)
		return op | fi<<12 | fj<<8 | fk<<4, nil
	}

	// Immediate form: flag bit set, 8-bit immediate in the low byte.
	return op | 1<<16 | fi<<12 | fj<<8 | (third.Value & 0xFF), nil
}

// EncodeText renders words as the assembler CLI's output format: one
// 21-bit binary string per line, no separators, zero-padded.
func EncodeText(words []uint32) string {
	var sb strings.Builder
	for _, w := range words {
		fmt.Fprintf(&sb, "%021b\n", w)
	}
	return sb.String()
}
