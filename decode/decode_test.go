package decode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archlab/tea-scoreboard/isa"
)

func TestDecodeArithmeticRegisterForm(t *testing.T) {
	// ADD R1, R2, R3 register form: op=0010, flag=0, fi=0001, fj=0010, fk=0011, pad=0000
	word := uint32(0b0010_0_0001_0010_0011_0000)
	d, err := Decode(word)
	require.NoError(t, err)
	require.Equal(t, isa.ADD, d.Op)
	require.Equal(t, isa.ShapeRegister, d.Shape)
	require.Equal(t, isa.UnitALU, d.Unit)
	require.Equal(t, 1, d.Fi)
	require.Equal(t, 2, d.Fj)
	require.Equal(t, 3, d.Fk)
	require.False(t, d.IsImmediate)
}

func TestDecodeArithmeticImmediateForm(t *testing.T) {
	// ADD R1, R2, #5: op=0010, flag=1, fi=0001, fj=0010, imm=00000101
	word := uint32(0b0010_1_0001_0010_00000101)
	d, err := Decode(word)
	require.NoError(t, err)
	require.Equal(t, isa.ADD, d.Op)
	require.Equal(t, isa.ShapeImmediate, d.Shape)
	require.Equal(t, 1, d.Fi)
	require.Equal(t, 2, d.Fj)
	require.Equal(t, NoField, d.Fk)
	require.True(t, d.IsImmediate)
	require.EqualValues(t, 5, d.Immediate)
}

func TestDecodeMemory(t *testing.T) {
	// LOAD R1, R0, R0: op=1100, fi=0001, fj=0000, fk=0000, pad=00000
	word := uint32(0b1100_0001_0000_0000_00000)
	d, err := Decode(word)
	require.NoError(t, err)
	require.Equal(t, isa.LOAD, d.Op)
	require.Equal(t, isa.ShapeMemory, d.Shape)
	require.Equal(t, isa.UnitMemory, d.Unit)
	require.Equal(t, 1, d.Fi)
	require.Equal(t, 0, d.Fj)
	require.Equal(t, 0, d.Fk)
}

func TestDecodeBranch(t *testing.T) {
	// LOOP R0, 5: op=0000, fj=0000, tag=0000000000101
	word := uint32(0b0000_0000_0000000000101)
	d, err := Decode(word)
	require.NoError(t, err)
	require.Equal(t, isa.LOOP, d.Op)
	require.Equal(t, isa.ShapeBranch, d.Shape)
	require.Equal(t, isa.UnitALU, d.Unit)
	require.Equal(t, 0, d.Fj)
	require.True(t, d.IsImmediate)
	require.EqualValues(t, 5, d.Immediate)
}

func TestDecodeRejectsOversizedWord(t *testing.T) {
	_, err := Decode(1 << isa.WordBits)
	require.Error(t, err)
}

func TestDecodedInstructionStartsWithAbsentTimestamps(t *testing.T) {
	word := uint32(0b0010_0_0001_0010_0011_0000)
	d, err := Decode(word)
	require.NoError(t, err)
	require.Equal(t, NoTimestamp, d.Issue)
	require.Equal(t, NoTimestamp, d.ReadOps)
	require.Equal(t, NoTimestamp, d.ExComplete)
	require.Equal(t, NoTimestamp, d.WriteBack)
	require.Nil(t, d.Result)
}
