package units

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
)

func runToCompletion(t *testing.T, u FunctionalUnit, dp *datapath.Datapath, inst *decode.DecodedInstruction, maxCycles int) {
	t.Helper()
	for i := 0; i < maxCycles; i++ {
		if u.TickExecute(dp, inst) {
			return
		}
	}
	t.Fatalf("unit did not complete within %d cycles", maxCycles)
}

func TestALUAdd(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 10)
	dp.Registers.Write(3, 5)

	u := NewALU()
	inst := &decode.DecodedInstruction{Op: isa.ADD, Fi: 1, Fj: 2, Fk: 3}
	u.Issue(0, inst, NoProducer, NoProducer, true, true)
	runToCompletion(t, u, dp, inst, ALULatency)

	result, has := u.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, 15, result)
}

func TestALULoopTakenWhenRegisterZero(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(7, 0)

	u := NewALU()
	inst := &decode.DecodedInstruction{Op: isa.LOOP, Fj: 7, IsImmediate: true, Immediate: 42}
	u.Issue(0, inst, NoProducer, NoProducer, true, true)
	runToCompletion(t, u, dp, inst, ALULatency)

	require.True(t, u.ZeroFlag())
	result, has := u.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, 42, result)
}

func TestALULoopNotTakenWhenRegisterNonZero(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(7, 3)

	u := NewALU()
	inst := &decode.DecodedInstruction{Op: isa.LOOP, Fj: 7, IsImmediate: true, Immediate: 42}
	u.Issue(0, inst, NoProducer, NoProducer, true, true)
	runToCompletion(t, u, dp, inst, ALULatency)

	require.False(t, u.ZeroFlag())
	_, has := u.WriteBack(dp)
	require.False(t, has)
}

func TestDividerByZeroYieldsZeroAndDiagnostic(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 99)
	dp.Registers.Write(3, 0)

	u := NewDivider()
	inst := &decode.DecodedInstruction{Op: isa.DIV, Fi: 1, Fj: 2, Fk: 3}
	u.Issue(0, inst, NoProducer, NoProducer, true, true)
	runToCompletion(t, u, dp, inst, DivLatency)

	result, has := u.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, 0, result)
	require.Equal(t, DivisionByZeroDiagnostic, inst.Diagnostic)
}

func TestDividerExact(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 100)
	dp.Registers.Write(3, 4)

	u := NewDivider()
	inst := &decode.DecodedInstruction{Op: isa.DIV, Fi: 1, Fj: 2, Fk: 3}
	u.Issue(0, inst, NoProducer, NoProducer, true, true)
	runToCompletion(t, u, dp, inst, DivLatency)

	result, has := u.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, 25, result)
	require.Empty(t, inst.Diagnostic)
}

func TestMemoryDLTAddsDeltaConstant(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 1)

	u := NewMemory()
	inst := &decode.DecodedInstruction{Op: isa.DLT, Fi: 1, Fj: 2}
	u.Issue(0, inst, NoProducer, NoProducer, true, true)
	runToCompletion(t, u, dp, inst, MemLatency)

	result, has := u.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, uint32(1)+isa.DeltaConstant, result)
}

func TestMemoryLoadStor(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(1, 0xCAFE)
	dp.Registers.Write(2, 4) // base
	dp.Registers.Write(3, 0) // offset

	storU := NewMemory()
	storInst := &decode.DecodedInstruction{Op: isa.STOR, Fi: 1, Fj: 2, Fk: 3}
	storU.Issue(0, storInst, NoProducer, NoProducer, true, true)
	runToCompletion(t, storU, dp, storInst, MemLatency)
	_, has := storU.WriteBack(dp)
	require.False(t, has)
	require.EqualValues(t, 0xCAFE, dp.Data.Read(4))

	loadU := NewMemory()
	loadInst := &decode.DecodedInstruction{Op: isa.LOAD, Fi: 5, Fj: 2, Fk: 3}
	loadU.Issue(1, loadInst, NoProducer, NoProducer, true, true)
	runToCompletion(t, loadU, dp, loadInst, MemLatency)
	result, has := loadU.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, 0xCAFE, result)
}

func TestMemorySTKAndSaxsPairing(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(1, 0xA)
	dp.Registers.Write(2, 0xB)
	dp.Registers.Write(3, 0xC)
	dp.Registers.Write(4, 0xD)
	dp.Registers.Write(0, 0) // R0 always zero; STK index = fj + fk = 0

	stkU := NewMemory()
	stkInst := &decode.DecodedInstruction{Op: isa.STK, Fj: 0, Fk: 0}
	stkU.Issue(0, stkInst, NoProducer, NoProducer, true, true)
	runToCompletion(t, stkU, dp, stkInst, MemLatency)
	_, has := stkU.WriteBack(dp)
	require.False(t, has)

	dp.Registers.Write(6, 1) // v = 1

	saxsU := NewSaxs()
	saxsInst := &decode.DecodedInstruction{Op: isa.SAXS, Fi: 5, Fj: 6, IsImmediate: true, Immediate: 0}
	saxsU.Issue(0, saxsInst, NoProducer, NoProducer, true, true)
	runToCompletion(t, saxsU, dp, saxsInst, SaxsLatency)
	result, has := saxsU.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, 0x11, result) // ((1<<4)+0xA) XOR ((1>>5)+0xB) = 0x1A XOR 0x0B
}

func TestMultiplierWrapsOnOverflow(t *testing.T) {
	dp := datapath.New(16, nil)
	dp.Registers.Write(2, 0xFFFFFFFF)
	dp.Registers.Write(3, 2)

	u := NewMultiplier()
	inst := &decode.DecodedInstruction{Op: isa.MUL, Fi: 1, Fj: 2, Fk: 3}
	u.Issue(0, inst, NoProducer, NoProducer, true, true)
	runToCompletion(t, u, dp, inst, MulLatency)

	result, has := u.WriteBack(dp)
	require.True(t, has)
	require.EqualValues(t, 0xFFFFFFFE, result) // (2^32-1)*2 mod 2^32
}

func TestUnitCanAcceptRejectsForeignOpcodes(t *testing.T) {
	require.False(t, NewALU().CanAccept(isa.MUL))
	require.False(t, NewMultiplier().CanAccept(isa.ADD))
	require.False(t, NewDivider().CanAccept(isa.MUL))
	require.False(t, NewSaxs().CanAccept(isa.STK))
	require.False(t, NewMemory().CanAccept(isa.ADD))
	require.True(t, NewMemory().CanAccept(isa.STK))
}
