package asm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archlab/tea-scoreboard/isa"
)

func TestParseSimpleArithmetic(t *testing.T) {
	prog, errs := Parse("ADD R1, R2, R3\n", "test.asm")
	require.False(t, errs.HasErrors(), errs.Error())
	require.Len(t, prog.Instructions, 1)

	inst := prog.Instructions[0]
	require.Equal(t, isa.ADD, inst.Op)
	require.Len(t, inst.Operands, 3)
	require.True(t, inst.Operands[2].IsRegister)
	require.Equal(t, 3, inst.Operands[2].Register)
}

func TestParseImmediateForm(t *testing.T) {
	prog, errs := Parse("ADD R1, R2, 7\n", "test.asm")
	require.False(t, errs.HasErrors(), errs.Error())

	third := prog.Instructions[0].Operands[2]
	require.False(t, third.IsRegister)
	require.EqualValues(t, 7, third.Value)
}

func TestParseLabelAndLoop(t *testing.T) {
	src := "top:\nADD R1, R2, R3\nLOOP R1, top\n"
	prog, errs := Parse(src, "test.asm")
	require.False(t, errs.HasErrors(), errs.Error())
	require.Len(t, prog.Instructions, 2)

	loop := prog.Instructions[1]
	require.Equal(t, isa.LOOP, loop.Op)
	require.True(t, loop.Operands[1].IsLabel)
	require.EqualValues(t, 0, loop.Operands[1].Value) // "top" resolves to instruction index 0
}

func TestParseUndefinedLabelReportsError(t *testing.T) {
	_, errs := Parse("LOOP R1, nowhere\n", "test.asm")
	require.True(t, errs.HasErrors())
	require.Equal(t, ErrorUndefinedLabel, errs.Errors[0].Kind)
}

func TestParseWriteToR0Rejected(t *testing.T) {
	_, errs := Parse("ADD R0, R2, R3\n", "test.asm")
	require.True(t, errs.HasErrors())
	require.Equal(t, ErrorWriteToR0, errs.Errors[0].Kind)
}

func TestParseUnknownMnemonicDoesNotStopOtherLines(t *testing.T) {
	src := "BOGUS R1, R2, R3\nADD R1, R2, R3\n"
	prog, errs := Parse(src, "test.asm")
	require.True(t, errs.HasErrors())
	require.Equal(t, ErrorUnknownMnemonic, errs.Errors[0].Kind)
	require.Len(t, prog.Instructions, 2) // both lines still occupy a slot
	require.Equal(t, isa.ADD, prog.Instructions[1].Op)
}

func TestEncodeMatchesDecode(t *testing.T) {
	prog, errs := Parse("ADD R1, R2, R3\n", "test.asm")
	require.False(t, errs.HasErrors())

	words, err := Encode(prog)
	require.NoError(t, err)
	require.Len(t, words, 1)
	require.Equal(t, uint32(isa.ADD)<<17|uint32(1)<<12|uint32(2)<<8|uint32(3)<<4, words[0])
}

func TestEncodeTextIsZeroPadded21Bits(t *testing.T) {
	text := EncodeText([]uint32{1})
	require.Equal(t, "000000000000000000001\n", text)
}

func TestEncodeMemoryShapes(t *testing.T) {
	prog, errs := Parse("STK R1, R2\nDLT R3, R4\n", "test.asm")
	require.False(t, errs.HasErrors(), errs.Error())

	words, err := Encode(prog)
	require.NoError(t, err)

	stk := words[0]
	require.Equal(t, uint32(isa.STK)<<17|1<<9|2<<5, stk)

	dlt := words[1]
	require.Equal(t, uint32(isa.DLT)<<17|3<<13|4<<9, dlt)
}

func TestLintFlagsOutOfRangeBranch(t *testing.T) {
	src := "LOOP R1, 50\n"
	prog, errs := Parse(src, "test.asm")
	require.False(t, errs.HasErrors(), errs.Error())

	issues := Lint(prog)
	require.NotEmpty(t, issues)

	found := false
	for _, issue := range issues {
		if issue.Code == "BRANCH_OUT_OF_RANGE" {
			found = true
		}
	}
	require.True(t, found)
}

func TestLintFlagsUnreferencedLabel(t *testing.T) {
	src := "unused:\nADD R1, R2, R3\n"
	prog, errs := Parse(src, "test.asm")
	require.False(t, errs.HasErrors(), errs.Error())

	issues := Lint(prog)
	found := false
	for _, issue := range issues {
		if issue.Code == "UNUSED_LABEL" {
			found = true
		}
	}
	require.True(t, found)
}

func TestCrossReferenceListsBranchSite(t *testing.T) {
	src := "top:\nADD R1, R2, R3\nLOOP R1, top\n"
	prog, errs := Parse(src, "test.asm")
	require.False(t, errs.HasErrors(), errs.Error())

	refs := CrossReference(prog)
	require.Len(t, refs, 1)
	require.Equal(t, "top", refs[0].Name)
	require.Len(t, refs[0].References, 2) // definition + one branch
}

func TestFormatAlignsMnemonicColumn(t *testing.T) {
	out := Format("ADD R1, R2, R3\n", "test.asm", DefaultFormatOptions())
	require.Contains(t, out, "    ADD   R1, R2, R3")
}
