package stepper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archlab/tea-scoreboard/config"
	"github.com/archlab/tea-scoreboard/isa"
)

func encodeArith(op isa.Opcode, fi, fj, fk int) uint32 {
	return uint32(op)<<17 | uint32(fi)<<12 | uint32(fj)<<8 | uint32(fk)<<4
}

func TestResetWithNilConfigFallsBackToDefault(t *testing.T) {
	s := New()
	err := s.Reset(nil, []uint32{encodeArith(isa.ADD, 1, 0, 0)})
	require.NoError(t, err)
	require.False(t, s.Done())
}

func TestRunAdvancesUntilDone(t *testing.T) {
	s := New()
	program := []uint32{
		encodeArith(isa.ADD, 1, 0, 0), // R1 = 0 + 0
		encodeArith(isa.ADD, 2, 1, 1), // R2 = R1 + R1
	}
	require.NoError(t, s.Reset(config.DefaultConfig(), program))

	ran, err := s.Run(1000)
	require.NoError(t, err)
	require.True(t, s.Done())
	require.Greater(t, ran, uint64(0))
	require.Less(t, ran, uint64(1000))

	snap := s.Snapshot()
	require.Len(t, snap.Instructions, 2)
	require.NotNil(t, snap.Instructions[0].Result)
	require.NotNil(t, snap.Instructions[1].Result)
}

func TestRunStopsAtMaxCycles(t *testing.T) {
	s := New()
	program := []uint32{encodeArith(isa.ADD, 1, 0, 0)}
	require.NoError(t, s.Reset(config.DefaultConfig(), program))

	ran, err := s.Run(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), ran)
	require.False(t, s.Done())
}

func TestSnapshotDoesNotAliasInternalState(t *testing.T) {
	s := New()
	program := []uint32{encodeArith(isa.ADD, 1, 0, 0)}
	require.NoError(t, s.Reset(config.DefaultConfig(), program))
	_, err := s.Run(1000)
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.DataMemory[0] = 0xDEADBEEF
	snap.Registers[1] = 0xDEADBEEF

	again := s.Snapshot()
	require.NotEqual(t, uint32(0xDEADBEEF), again.DataMemory[0])
	require.NotEqual(t, uint32(0xDEADBEEF), again.Registers[1])
}

func TestUnitPoolSizeMatchesConfig(t *testing.T) {
	s := New()
	cfg := config.DefaultConfig()
	cfg.Units = config.UnitCounts{ALU: 3, Mem: 1, Mul: 1, Div: 1, Saxs: 1}
	require.NoError(t, s.Reset(cfg, []uint32{encodeArith(isa.ADD, 1, 0, 0)}))

	snap := s.Snapshot()
	require.Len(t, snap.Units, 7)
}

func TestWriteEncryptedOutputPadsAndTruncatesToInputSize(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.bin")
	require.NoError(t, os.WriteFile(inputPath, make([]byte, 5), 0600)) // 5 bytes -> rounds up to 8

	s := New()
	require.NoError(t, s.Reset(config.DefaultConfig(), []uint32{encodeArith(isa.ADD, 1, 0, 0)}))
	dp := s.Datapath()
	dp.Data.Write(4, 0x11223344)
	dp.Data.Write(5, 0xAABBCCDD)
	dp.Data.Write(6, 0xFFFFFFFF) // must not appear in output: beyond the padded 8-byte span

	require.NoError(t, WriteEncryptedOutput(dp, inputPath))

	out, err := os.ReadFile(filepath.Join(dir, "plain.enc"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11, 0xDD, 0xCC, 0xBB, 0xAA}, out)
}

func TestWriteEncryptedOutputMultiBlock(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain2.bin")
	require.NoError(t, os.WriteFile(inputPath, make([]byte, 16), 0600))

	s := New()
	require.NoError(t, s.Reset(config.DefaultConfig(), []uint32{encodeArith(isa.ADD, 1, 0, 0)}))
	dp := s.Datapath()
	for i, w := range []uint32{1, 2, 3, 4} {
		dp.Data.Write(uint32(4+i), w)
	}

	require.NoError(t, WriteEncryptedOutput(dp, inputPath))

	out, err := os.ReadFile(filepath.Join(dir, "plain2.enc"))
	require.NoError(t, err)
	require.Len(t, out, 16)
}
