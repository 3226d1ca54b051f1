package stepper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archlab/tea-scoreboard/config"
	"github.com/archlab/tea-scoreboard/isa"
)

// encImm builds an arithmetic-immediate-shape word: [op:4][1][fi:4][fj:4][imm:8].
// SAXS's third operand is always encoded this way (its key index is never a
// register), per asm/parser.go's parseArithmeticOperands.
func encImm(op isa.Opcode, fi, fj int, imm uint32) uint32 {
	return uint32(op)<<17 | 1<<16 | uint32(fi)<<12 | uint32(fj)<<8 | imm
}

// encMem builds a memory-shape word: [op:4][fi:4][fj:4][fk:4][pad:5]. STK and
// DLT leave fi/fk unused bits zeroed, matching asm/encoder.go's encodeMemory.
func encMem(op isa.Opcode, fi, fj, fk int) uint32 {
	return uint32(op)<<17 | uint32(fi)<<13 | uint32(fj)<<9 | uint32(fk)<<5
}

// mixOracle is an independent reimplementation of SAXS's mixing formula
// (units/saxs.go), used to compute the expected cipher state without
// running the program under test.
func mixOracle(v, low, high uint32) uint32 {
	return ((v << 4) + low) ^ ((v >> 5) + high)
}

// teaRoundTripOracle runs the same 32-round construction the generated
// program below executes, entirely in Go, independent of the scoreboard.
func teaRoundTripOracle(v0, v1, k0, k1, k2, k3 uint32) (cipherV0, cipherV1 uint32) {
	const delta = isa.DeltaConstant
	var sum uint32
	for i := 0; i < 32; i++ {
		sum += delta
		v0 += mixOracle(v1, k0, k1) ^ sum
		v1 += mixOracle(v0, k2, k3) ^ sum
	}
	return v0, v1
}

// buildTeaRoundTripProgram assembles, as raw 21-bit words, a program that
// loads a 128-bit key (words 0-3) and an 8-byte plaintext block (words 4-5)
// from data memory, runs 32 SAXS/DLT-based mixing rounds to encrypt it,
// persists the ciphertext back to data memory, then runs the 32 inverse
// rounds to decrypt it back into registers R5/R6.
//
// Register plan: R1-R4 hold the key for the program's entire lifetime (STK's
// key-safe write reads R1-R4 directly, per units/memory_unit.go, so nothing
// else may ever target them). R5/R6 hold v0/v1, R7 the running sum, R8 the
// materialized delta constant (decrypt has no "subtract delta" opcode), R9/
// R10 are round scratch, R13 is the address scratch LOAD/STOR share.
func buildTeaRoundTripProgram() []uint32 {
	var w []uint32

	// Load the key into R1-R4 and seed key-safe slot 0: index 0 -> (R1,R2),
	// index 1 -> (R3,R4), per datapath.KeySafe's Store/Load layout.
	for i, dest := range []int{1, 2, 3, 4} {
		w = append(w, encImm(isa.ADD, 13, 0, uint32(i)))
		w = append(w, encMem(isa.LOAD, dest, 13, 0))
	}
	w = append(w, encMem(isa.STK, 0, 0, 0))

	// Load the plaintext block into R5 (v0) and R6 (v1).
	w = append(w, encImm(isa.ADD, 13, 0, 4))
	w = append(w, encMem(isa.LOAD, 5, 13, 0))
	w = append(w, encImm(isa.ADD, 13, 0, 5))
	w = append(w, encMem(isa.LOAD, 6, 13, 0))

	w = append(w, encImm(isa.ADD, 7, 0, 0))  // sum = 0
	w = append(w, encMem(isa.DLT, 8, 0, 0))  // R8 = delta constant

	for i := 0; i < 32; i++ {
		w = append(w,
			encMem(isa.DLT, 7, 7, 0),      // sum += delta
			encImm(isa.SAXS, 9, 6, 0),     // R9 = mix(v1, key 0)
			uint32(isa.XOR)<<17|9<<12|9<<8|7<<4, // R9 ^= sum
			uint32(isa.ADD)<<17|5<<12|5<<8|9<<4, // v0 += R9
			encImm(isa.SAXS, 10, 5, 1),    // R10 = mix(v0, key 1)
			uint32(isa.XOR)<<17|10<<12|10<<8|7<<4, // R10 ^= sum
			uint32(isa.ADD)<<17|6<<12|6<<8|10<<4,  // v1 += R10
		)
	}

	// Persist the ciphertext to data memory so WriteEncryptedOutput can
	// read it after the decrypt phase overwrites the registers.
	w = append(w, encImm(isa.ADD, 13, 0, 4))
	w = append(w, encMem(isa.STOR, 5, 13, 0))
	w = append(w, encImm(isa.ADD, 13, 0, 5))
	w = append(w, encMem(isa.STOR, 6, 13, 0))

	for i := 0; i < 32; i++ {
		w = append(w,
			encImm(isa.SAXS, 10, 5, 1),    // R10 = mix(v0, key 1)
			uint32(isa.XOR)<<17|10<<12|10<<8|7<<4, // R10 ^= sum
			uint32(isa.SUB)<<17|6<<12|6<<8|10<<4,  // v1 -= R10 (undo)
			encImm(isa.SAXS, 9, 6, 0),     // R9 = mix(v1, key 0)
			uint32(isa.XOR)<<17|9<<12|9<<8|7<<4, // R9 ^= sum
			uint32(isa.SUB)<<17|5<<12|5<<8|9<<4, // v0 -= R9 (undo)
			uint32(isa.SUB)<<17|7<<12|7<<8|8<<4, // sum -= delta
		)
	}

	return w
}

func TestTeaRoundTripThirtyTwoRounds(t *testing.T) {
	const (
		k0 = 0x01234567
		k1 = 0x89ABCDEF
		k2 = 0xFEDCBA98
		k3 = 0x76543210
		v0 = 0xCAFEBABE
		v1 = 0xDEADBEEF
	)

	program := buildTeaRoundTripProgram()

	s := New()
	require.NoError(t, s.Reset(config.DefaultConfig(), program))

	dp := s.Datapath()
	dp.Data.Write(0, k0)
	dp.Data.Write(1, k1)
	dp.Data.Write(2, k2)
	dp.Data.Write(3, k3)
	dp.Data.Write(4, v0)
	dp.Data.Write(5, v1)

	ran, err := s.Run(20000)
	require.NoError(t, err)
	require.True(t, s.Done(), "program did not finish within the cycle budget")
	require.Less(t, ran, uint64(20000))

	wantCipherV0, wantCipherV1 := teaRoundTripOracle(v0, v1, k0, k1, k2, k3)
	require.NotEqual(t, uint32(v0), wantCipherV0, "oracle ciphertext must differ from plaintext")

	require.Equal(t, wantCipherV0, dp.Data.Read(4), "encrypted word 0 persisted to data memory")
	require.Equal(t, wantCipherV1, dp.Data.Read(5), "encrypted word 1 persisted to data memory")

	snap := s.Snapshot()
	require.Equal(t, uint32(v0), snap.Registers[5], "v0 must decrypt back to the original plaintext")
	require.Equal(t, uint32(v1), snap.Registers[6], "v1 must decrypt back to the original plaintext")
	require.Equal(t, uint32(0), snap.Registers[7], "sum must unwind to zero after 32 inverse rounds")

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "block.bin")
	require.NoError(t, os.WriteFile(inputPath, make([]byte, 8), 0600))
	require.NoError(t, WriteEncryptedOutput(dp, inputPath))

	out, err := os.ReadFile(filepath.Join(dir, "block.enc"))
	require.NoError(t, err)
	require.Len(t, out, 8)
}
