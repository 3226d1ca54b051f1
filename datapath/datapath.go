package datapath

// Datapath bundles the architectural state a running program reads and
// writes: registers, data memory, the key safe, and the instruction stream
// it was loaded from. Functional units and the scoreboard operate against
// a single shared *Datapath; only Write-Back mutates it.
type Datapath struct {
	Registers *RegisterFile
	Data      *DataMemory
	Keys      *KeySafe
	Program   *InstructionMemory
}

// New builds a Datapath with a fresh register file and key safe, data
// memory of the given word count, and the given program loaded into
// instruction memory.
func New(dataWords int, program []uint32) *Datapath {
	return &Datapath{
		Registers: NewRegisterFile(),
		Data:      NewDataMemory(dataWords),
		Keys:      NewKeySafe(),
		Program:   NewInstructionMemory(program),
	}
}

// Reset zeroes registers, data memory, and the key safe, leaving the
// loaded program untouched.
func (dp *Datapath) Reset() {
	dp.Registers.Reset()
	dp.Data.Reset()
	dp.Keys.Reset()
}
