package asm

import (
	"strconv"
	"strings"

	"github.com/archlab/tea-scoreboard/isa"
)

// Parse runs the two-pass assembler over src: pass 1 walks every line to
// collect label definitions (and count only real instruction lines toward
// the index a branch target resolves to); pass 2 builds each instruction's
// operand list, resolving register, immediate, and label operands against
// the now-complete label table built in pass 1. Every line's failure is
// independent — one bad line does not stop the rest from being parsed and
// reported — grounded on the teacher's per-line ErrorList accumulation in
// parser/parser.go, generalized down to this ISA's flat line grammar.
func Parse(src, filename string) (*Program, *ErrorList) {
	errs := &ErrorList{}
	lexer := NewLexer(src, filename)
	tokens := lexer.TokenizeAll()
	errs.Errors = append(errs.Errors, lexer.Errors().Errors...)

	rawLines := strings.Split(src, "\n")
	lines := groupLines(tokens)
	labels := NewSymbolTable()

	isInstruction := make([]bool, len(lines))
	index := 0
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		if name, ok := labelName(line); ok {
			if err := labels.Define(name, index, line[0].Pos); err != nil {
				errs.Add(NewError(line[0].Pos, ErrorDuplicateLabel, err.Error()))
			}
			continue
		}
		isInstruction[i] = true
		index++
	}

	prog := &Program{Labels: labels}
	instIndex := 0
	pendingLabel := ""
	for i, line := range lines {
		if !isInstruction[i] {
			if name, ok := labelName(line); ok {
				pendingLabel = name
			}
			continue
		}
		raw := rawLineAt(rawLines, line[0].Pos.Line)
		inst, lineErrs := parseInstructionLine(line, labels, raw)
		inst.Index = instIndex
		inst.Label = pendingLabel
		pendingLabel = ""
		for _, e := range lineErrs {
			errs.Add(e)
		}
		prog.Instructions = append(prog.Instructions, inst)
		instIndex++
	}

	return prog, errs
}

// groupLines collects non-comment, non-newline tokens into one slice per
// source line, dropping empty trailing groups at EOF.
func groupLines(tokens []Token) [][]Token {
	var lines [][]Token
	var current []Token
	for _, tok := range tokens {
		switch tok.Type {
		case TokenNewline:
			lines = append(lines, current)
			current = nil
		case TokenEOF:
			if len(current) > 0 {
				lines = append(lines, current)
			}
		case TokenComment:
			// dropped
		default:
			current = append(current, tok)
		}
	}
	return lines
}

// labelName reports whether line is exactly a `name:` label definition.
func labelName(line []Token) (string, bool) {
	if len(line) == 2 && line[0].Type == TokenIdentifier && line[1].Type == TokenColon {
		return line[0].Literal, true
	}
	return "", false
}

func rawLineAt(rawLines []string, lineNo int) string {
	if lineNo < 1 || lineNo > len(rawLines) {
		return ""
	}
	return strings.TrimRight(rawLines[lineNo-1], "\r")
}

// parseInstructionLine builds one Instruction from its token line. The
// mnemonic always consumes one instruction slot even when it or its
// operands are invalid, so label addressing computed in pass 1 stays
// aligned with what pass 2 actually emits.
func parseInstructionLine(line []Token, labels *SymbolTable, raw string) (*Instruction, []*Error) {
	mnemonicTok := line[0]
	inst := &Instruction{
		Mnemonic: mnemonicTok.Literal,
		Pos:      mnemonicTok.Pos,
		RawLine:  raw,
	}

	if mnemonicTok.Type != TokenIdentifier {
		return inst, []*Error{NewErrorWithContext(mnemonicTok.Pos, ErrorSyntax,
			"expected a mnemonic", raw)}
	}

	op, ok := isa.Lookup(strings.ToUpper(mnemonicTok.Literal))
	if !ok {
		return inst, []*Error{NewErrorWithContext(mnemonicTok.Pos, ErrorUnknownMnemonic,
			"unknown mnemonic \""+mnemonicTok.Literal+"\"", raw)}
	}
	inst.Op = op

	operandToks := dropCommas(line[1:])
	switch {
	case isa.IsBranch(op):
		return inst, parseBranchOperands(inst, operandToks, labels, raw)
	case isa.IsMemory(op):
		return inst, parseMemoryOperands(inst, operandToks, raw)
	default:
		return inst, parseArithmeticOperands(inst, operandToks, labels, raw)
	}
}

func dropCommas(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Type != TokenComma {
			out = append(out, t)
		}
	}
	return out
}

func wantOperandCount(inst *Instruction, toks []Token, n int, raw string) *Error {
	if len(toks) != n {
		return NewErrorWithContext(inst.Pos, ErrorBadOperand,
			inst.Mnemonic+" expects exactly "+strconv.Itoa(n)+" operands", raw)
	}
	return nil
}

// registerOperand resolves a register token into an Operand, rejecting
// out-of-range register names (the lexer already limits R0-R15, so this
// mainly rejects non-register tokens).
func registerOperand(tok Token, raw string) (Operand, *Error) {
	if tok.Type != TokenRegister {
		return Operand{}, NewErrorWithContext(tok.Pos, ErrorBadOperand,
			"expected a register, got \""+tok.Literal+"\"", raw)
	}
	n, err := strconv.Atoi(tok.Literal[1:])
	if err != nil {
		return Operand{}, NewErrorWithContext(tok.Pos, ErrorBadOperand,
			"malformed register \""+tok.Literal+"\"", raw)
	}
	return Operand{Text: tok.Literal, IsRegister: true, Register: n}, nil
}

// rejectR0Destination flags writes to R0, which is hardwired to zero.
func rejectR0Destination(op Operand, pos Position, raw string) *Error {
	if op.IsRegister && op.Register == 0 {
		return NewErrorWithContext(pos, ErrorWriteToR0,
			"cannot write to R0, it is hardwired to zero", raw)
	}
	return nil
}

func parseNumberLiteral(tok Token) (uint32, error) {
	if strings.HasPrefix(tok.Literal, "0x") || strings.HasPrefix(tok.Literal, "0X") {
		v, err := strconv.ParseUint(tok.Literal[2:], 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(tok.Literal, 10, 32)
	return uint32(v), err
}

// parseMemoryOperands handles LOAD/STOR (3 registers) and STK/DLT
// (2 registers each), per spec.md §4.1's memory shape and DESIGN.md's
// open-question decision on STK's operand.
func parseMemoryOperands(inst *Instruction, toks []Token, raw string) []*Error {
	var errs []*Error
	switch inst.Op {
	case isa.LOAD, isa.STOR:
		if err := wantOperandCount(inst, toks, 3, raw); err != nil {
			return append(errs, err)
		}
		for _, tok := range toks {
			reg, err := registerOperand(tok, raw)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			inst.Operands = append(inst.Operands, reg)
		}
		if (inst.Op == isa.LOAD || inst.Op == isa.STOR) && len(inst.Operands) > 0 {
			if err := rejectR0Destination(inst.Operands[0], inst.Pos, raw); err != nil {
				errs = append(errs, err)
			}
		}
	case isa.STK, isa.DLT:
		if err := wantOperandCount(inst, toks, 2, raw); err != nil {
			return append(errs, err)
		}
		for _, tok := range toks {
			reg, err := registerOperand(tok, raw)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			inst.Operands = append(inst.Operands, reg)
		}
		if inst.Op == isa.DLT && len(inst.Operands) > 0 {
			if err := rejectR0Destination(inst.Operands[0], inst.Pos, raw); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// parseArithmeticOperands handles the ten register/immediate arithmetic
// opcodes. SAXS always takes an immediate key-safe index as its third
// operand (units/saxs.go never reads a register there); every other
// arithmetic op allows either a register or an immediate/label there.
func parseArithmeticOperands(inst *Instruction, toks []Token, labels *SymbolTable, raw string) []*Error {
	var errs []*Error
	if err := wantOperandCount(inst, toks, 3, raw); err != nil {
		return append(errs, err)
	}

	dest, err := registerOperand(toks[0], raw)
	if err != nil {
		errs = append(errs, err)
	} else {
		inst.Operands = append(inst.Operands, dest)
		if e := rejectR0Destination(dest, inst.Pos, raw); e != nil {
			errs = append(errs, e)
		}
	}

	src1, err := registerOperand(toks[1], raw)
	if err != nil {
		errs = append(errs, err)
	} else {
		inst.Operands = append(inst.Operands, src1)
	}

	third := toks[2]
	if inst.Op == isa.SAXS {
		imm, e := resolveImmediate(third, labels, 8, raw)
		if e != nil {
			errs = append(errs, e)
		} else {
			inst.Operands = append(inst.Operands, imm)
		}
		return errs
	}

	if third.Type == TokenRegister {
		reg, e := registerOperand(third, raw)
		if e != nil {
			errs = append(errs, e)
		} else {
			inst.Operands = append(inst.Operands, reg)
		}
		return errs
	}

	imm, e := resolveImmediate(third, labels, 8, raw)
	if e != nil {
		errs = append(errs, e)
	} else {
		inst.Operands = append(inst.Operands, imm)
	}
	return errs
}

// parseBranchOperands handles LOOP: a tested register and a target that
// is either a label (resolved to its absolute instruction index) or a
// non-negative integer, per spec.md §4.2.
func parseBranchOperands(inst *Instruction, toks []Token, labels *SymbolTable, raw string) []*Error {
	var errs []*Error
	if err := wantOperandCount(inst, toks, 2, raw); err != nil {
		return append(errs, err)
	}

	reg, err := registerOperand(toks[0], raw)
	if err != nil {
		errs = append(errs, err)
	} else {
		inst.Operands = append(inst.Operands, reg)
	}

	tag, err := resolveImmediate(toks[1], labels, 13, raw)
	if err != nil {
		errs = append(errs, err)
	} else {
		inst.Operands = append(inst.Operands, tag)
	}
	return errs
}

// resolveImmediate turns a number-or-label token into an Operand whose
// Value fits in bits, reporting ErrorUndefinedLabel or ErrorOutOfRange.
func resolveImmediate(tok Token, labels *SymbolTable, bits int, raw string) (Operand, *Error) {
	limit := uint32(1) << uint(bits)

	switch tok.Type {
	case TokenNumber:
		v, err := parseNumberLiteral(tok)
		if err != nil {
			return Operand{}, NewErrorWithContext(tok.Pos, ErrorBadOperand,
				"malformed immediate \""+tok.Literal+"\"", raw)
		}
		if v >= limit {
			return Operand{}, NewErrorWithContext(tok.Pos, ErrorOutOfRange,
				"immediate out of range for its field width", raw)
		}
		return Operand{Text: tok.Literal, Value: v}, nil

	case TokenIdentifier:
		sym, ok := labels.Lookup(tok.Literal)
		if !ok {
			return Operand{}, NewErrorWithContext(tok.Pos, ErrorUndefinedLabel,
				"undefined label \""+tok.Literal+"\"", raw)
		}
		if uint32(sym.Index) >= limit {
			return Operand{}, NewErrorWithContext(tok.Pos, ErrorOutOfRange,
				"label \""+tok.Literal+"\" resolves out of range for its field width", raw)
		}
		return Operand{Text: tok.Literal, IsLabel: true, Label: tok.Literal, Value: uint32(sym.Index)}, nil

	default:
		return Operand{}, NewErrorWithContext(tok.Pos, ErrorBadOperand,
			"expected a number or label, got \""+tok.Literal+"\"", raw)
	}
}
