package scoreboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
	"github.com/archlab/tea-scoreboard/units"
)

// defaultUnitPool builds the 2 ALU / 2 MEM / 1 MUL / 1 DIV / 1 SAXS
// functional-unit pool spec.md §4.4's latency table specifies.
func defaultUnitPool() []units.FunctionalUnit {
	return []units.FunctionalUnit{
		units.NewALU(),
		units.NewALU(),
		units.NewMemory(),
		units.NewMemory(),
		units.NewMultiplier(),
		units.NewDivider(),
		units.NewSaxs(),
	}
}

func runUntilDone(t *testing.T, s *Scoreboard, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		if s.Done() {
			return
		}
		s.Tick()
	}
	t.Fatalf("scoreboard did not finish within %d ticks", maxTicks)
}

func regArith(op isa.Opcode, fi, fj, fk int) *decode.DecodedInstruction {
	return &decode.DecodedInstruction{
		Op: op, Shape: isa.ShapeRegister, Unit: isa.RequiredUnit(op),
		Fi: fi, Fj: fj, Fk: fk,
		Issue: decode.NoTimestamp, ReadOps: decode.NoTimestamp,
		ExComplete: decode.NoTimestamp, WriteBack: decode.NoTimestamp,
	}
}

func memOp(op isa.Opcode, fi, fj, fk int) *decode.DecodedInstruction {
	return &decode.DecodedInstruction{
		Op: op, Shape: isa.ShapeMemory, Unit: isa.RequiredUnit(op),
		Fi: fi, Fj: fj, Fk: fk,
		Issue: decode.NoTimestamp, ReadOps: decode.NoTimestamp,
		ExComplete: decode.NoTimestamp, WriteBack: decode.NoTimestamp,
	}
}

func immArith(op isa.Opcode, fi, fj int, imm uint32) *decode.DecodedInstruction {
	return &decode.DecodedInstruction{
		Op: op, Shape: isa.ShapeImmediate, Unit: isa.RequiredUnit(op),
		Fi: fi, Fj: fj, Fk: decode.NoField, IsImmediate: true, Immediate: imm,
		Issue: decode.NoTimestamp, ReadOps: decode.NoTimestamp,
		ExComplete: decode.NoTimestamp, WriteBack: decode.NoTimestamp,
	}
}

// TestWAWSerializesSecondWriterUntilFirstRetires is the spec.md §8 WAW
// scenario: ADD R1,R2,R3 then ADD R1,R4,R5 must retire in program order
// since both target R1, leaving R1 holding the second instruction's result.
func TestWAWSerializesSecondWriterUntilFirstRetires(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 1)
	dp.Registers.Write(3, 1)
	dp.Registers.Write(4, 2)
	dp.Registers.Write(5, 2)

	program := []*decode.DecodedInstruction{
		regArith(isa.ADD, 1, 2, 3),
		regArith(isa.ADD, 1, 4, 5),
	}
	s := New(dp, defaultUnitPool(), program)
	runUntilDone(t, s, 100)

	require.EqualValues(t, 4, dp.Registers.Read(1))
	require.Less(t, program[0].WriteBack, program[1].Issue)
}

// TestDLTConstantTwice is spec.md §8 scenario 2: two successive DLT
// additions of the TEA delta constant starting from R5=0.
func TestDLTConstantTwice(t *testing.T) {
	dp := datapath.New(16, nil)

	program := []*decode.DecodedInstruction{
		memOp(isa.DLT, 5, 5, decode.NoField),
		memOp(isa.DLT, 5, 5, decode.NoField),
	}
	s := New(dp, defaultUnitPool(), program)
	runUntilDone(t, s, 100)

	require.EqualValues(t, 0x3C6EF372, dp.Registers.Read(5))
}

// TestSTKThenSAXSPairing is spec.md §8 scenario 3, driven through the full
// scoreboard rather than directly against the units.
func TestSTKThenSAXSPairing(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(1, 0xA)
	dp.Registers.Write(2, 0xB)
	dp.Registers.Write(3, 0xC)
	dp.Registers.Write(4, 0xD)
	dp.Registers.Write(6, 1)

	program := []*decode.DecodedInstruction{
		memOp(isa.STK, decode.NoField, 0, 0), // index = value(R0)+value(R0) = 0
		immArith(isa.SAXS, 5, 6, 0),
	}
	s := New(dp, defaultUnitPool(), program)
	runUntilDone(t, s, 100)

	require.EqualValues(t, 0x11, dp.Registers.Read(5))
}

// TestDivisionByZeroWritesZeroAndDiagnostic is spec.md §8's boundary
// behavior: DIV Rx, Ry, R0 writes 0 and attaches the diagnostic.
func TestDivisionByZeroWritesZeroAndDiagnostic(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 77)

	program := []*decode.DecodedInstruction{
		regArith(isa.DIV, 1, 2, 0),
	}
	s := New(dp, defaultUnitPool(), program)
	runUntilDone(t, s, 100)

	require.EqualValues(t, 0, dp.Registers.Read(1))
	require.Equal(t, "división por cero", program[0].Diagnostic)
}

// TestLoadStoreIdempotence is spec.md §8 scenario 1: LOAD then STOR the
// same address leaves memory unchanged.
func TestLoadStoreIdempotence(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Data.Write(0, 0x42)

	program := []*decode.DecodedInstruction{
		memOp(isa.LOAD, 1, 0, 0),
		memOp(isa.STOR, 1, 0, 0),
	}
	s := New(dp, defaultUnitPool(), program)
	runUntilDone(t, s, 100)

	require.EqualValues(t, 0x42, dp.Data.Read(0))
}

// TestLoopBranchesAbsoluteAndStallsIssue exercises a taken LOOP: issue
// stalls on wait_branch until the branch retires and PC jumps to its tag.
func TestLoopBranchesAbsoluteAndStallsIssue(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(7, 0) // tested register is zero: branch taken

	program := []*decode.DecodedInstruction{
		{Op: isa.LOOP, Shape: isa.ShapeBranch, Unit: isa.UnitALU, Fi: decode.NoField, Fj: 7, Fk: decode.NoField,
			IsImmediate: true, Immediate: 2,
			Issue: decode.NoTimestamp, ReadOps: decode.NoTimestamp, ExComplete: decode.NoTimestamp, WriteBack: decode.NoTimestamp},
		regArith(isa.ADD, 1, 2, 3), // skipped: PC jumps past it to index 2
		regArith(isa.ADD, 1, 2, 3),
	}
	dp.Registers.Write(2, 5)
	dp.Registers.Write(3, 5)

	s := New(dp, defaultUnitPool(), program)
	runUntilDone(t, s, 100)

	require.EqualValues(t, 10, dp.Registers.Read(1))
	require.Equal(t, decode.NoTimestamp, program[1].Issue) // never issued
}

func TestDoneIsFalseUntilAllUnitsIdleAndProgramExhausted(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 1)
	dp.Registers.Write(3, 1)

	program := []*decode.DecodedInstruction{regArith(isa.ADD, 1, 2, 3)}
	s := New(dp, defaultUnitPool(), program)
	require.False(t, s.Done())
	runUntilDone(t, s, 100)
	require.True(t, s.Done())
}
