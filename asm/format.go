package asm

import (
	"fmt"
	"strings"
)

// FormatOptions controls Format's column alignment, narrowed from
// tools/format.go's FormatOptions to the three columns this ISA's flat
// grammar actually has: a label column, the mnemonic/operand column, and
// the trailing-comment column.
type FormatOptions struct {
	InstructionColumn int
	OperandColumn     int
	CommentColumn     int
}

// DefaultFormatOptions mirrors tools/format.go's DefaultFormatOptions
// column choices, adjusted for mnemonics and label names that run
// shorter than ARM's.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		InstructionColumn: 4,
		OperandColumn:     10,
		CommentColumn:     32,
	}
}

// Format re-renders src with canonical column alignment: labels start at
// column 0, mnemonics at InstructionColumn, operands at OperandColumn,
// and trailing comments at CommentColumn. Lines that fail to parse are
// passed through unchanged so Format never loses information Parse would
// have rejected anyway.
func Format(src, filename string, opts FormatOptions) string {
	prog, errs := Parse(src, filename)
	failed := make(map[int]bool, len(errs.Errors))
	for _, e := range errs.Errors {
		failed[e.Pos.Line] = true
	}
	byLine := make(map[int]*Instruction, len(prog.Instructions))
	for _, inst := range prog.Instructions {
		if !failed[inst.Pos.Line] {
			byLine[inst.Pos.Line] = inst
		}
	}
	labelAtLine := make(map[int]string)
	for _, sym := range prog.Labels.All() {
		labelAtLine[sym.Pos.Line] = sym.Name
	}

	rawLines := strings.Split(src, "\n")
	var out strings.Builder
	for lineNo, raw := range rawLines {
		n := lineNo + 1
		var line strings.Builder
		if label, ok := labelAtLine[n]; ok && !failed[n] {
			line.WriteString(label + ":")
		} else if inst, ok := byLine[n]; ok {
			line.WriteString(formatInstructionLine(inst, opts))
		} else {
			out.WriteString(strings.TrimRight(raw, " \t\r"))
			out.WriteByte('\n')
			continue
		}
		if idx := strings.Index(raw, "//"); idx >= 0 {
			padTo(&line, opts.CommentColumn)
			line.WriteString(strings.TrimRight(raw[idx:], " \t\r"))
		}
		out.WriteString(line.String())
		out.WriteByte('\n')
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatInstructionLine(inst *Instruction, opts FormatOptions) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", opts.InstructionColumn))
	sb.WriteString(strings.ToUpper(inst.Mnemonic))

	operands := formatOperands(inst.Operands)
	if operands != "" {
		padTo(&sb, opts.OperandColumn)
		sb.WriteString(operands)
	}
	return sb.String()
}

func formatOperands(operands []Operand) string {
	parts := make([]string, len(operands))
	for i, op := range operands {
		switch {
		case op.IsRegister:
			parts[i] = fmt.Sprintf("R%d", op.Register)
		case op.IsLabel:
			parts[i] = op.Label
		default:
			parts[i] = fmt.Sprintf("%d", op.Value)
		}
	}
	return strings.Join(parts, ", ")
}

func padTo(sb *strings.Builder, column int) {
	if sb.Len() < column {
		sb.WriteString(strings.Repeat(" ", column-sb.Len()))
	} else {
		sb.WriteByte(' ')
	}
}
