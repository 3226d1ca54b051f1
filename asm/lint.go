package asm

import (
	"fmt"

	"github.com/archlab/tea-scoreboard/isa"
)

// LintLevel is a lint finding's severity.
type LintLevel int

const (
	LintError LintLevel = iota
	LintWarning
	LintInfo
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is a single linter finding, grounded on tools/lint.go's
// LintIssue shape.
type LintIssue struct {
	Level   LintLevel
	Pos     Position
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", i.Pos, i.Level, i.Message, i.Code)
}

// Lint checks prog for writes to R0, out-of-range branch targets, and
// unused labels — the narrowed subset of tools/lint.go's checks that apply
// to this ISA's flat 15-opcode grammar. Duplicate label definitions are not
// checked here; Parse reports them as ErrorDuplicateLabel.
func Lint(prog *Program) []*LintIssue {
	var issues []*LintIssue
	issues = append(issues, lintR0Writes(prog)...)
	issues = append(issues, lintBranchTargets(prog)...)
	issues = append(issues, lintUnreferencedLabels(prog)...)
	return issues
}

func lintR0Writes(prog *Program) []*LintIssue {
	var issues []*LintIssue
	for _, inst := range prog.Instructions {
		if !isa.HasDestination(inst.Op) || len(inst.Operands) == 0 {
			continue
		}
		dest := inst.Operands[0]
		if dest.IsRegister && dest.Register == 0 {
			issues = append(issues, &LintIssue{
				Level: LintError, Pos: inst.Pos,
				Message: "write to R0 (hardwired to zero)", Code: "WRITE_R0",
			})
		}
	}
	return issues
}

func lintBranchTargets(prog *Program) []*LintIssue {
	var issues []*LintIssue
	count := len(prog.Instructions) // a target equal to count ends the program
	for _, inst := range prog.Instructions {
		if !isa.IsBranch(inst.Op) || len(inst.Operands) != 2 {
			continue
		}
		target := int(inst.Operands[1].Value)
		if target < 0 || target > count {
			issues = append(issues, &LintIssue{
				Level: LintWarning, Pos: inst.Pos,
				Message: fmt.Sprintf("branch target %d is outside the %d-instruction program", target, len(prog.Instructions)),
				Code:    "BRANCH_OUT_OF_RANGE",
			})
		}
	}
	return issues
}

func lintUnreferencedLabels(prog *Program) []*LintIssue {
	referenced := make(map[string]bool)
	for _, inst := range prog.Instructions {
		for _, operand := range inst.Operands {
			if operand.IsLabel {
				referenced[operand.Label] = true
			}
		}
	}

	var issues []*LintIssue
	for _, sym := range prog.Labels.All() {
		if !referenced[sym.Name] {
			issues = append(issues, &LintIssue{
				Level: LintInfo, Pos: sym.Pos,
				Message: fmt.Sprintf("label %q is never referenced", sym.Name),
				Code:    "UNUSED_LABEL",
			})
		}
	}
	return issues
}
