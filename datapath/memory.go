package datapath

import "fmt"

// DefaultDataWords is the data memory size used when a caller does not
// specify one, per spec.md §3.
const DefaultDataWords = 4096

// StepperDataWords is the larger data memory the stepper facade uses by
// default (spec.md §3: "the stepper uses 15360").
const StepperDataWords = 15360

// DataMemory is a fixed-size, word-addressed store of unsigned 32-bit
// words. It exposes raw reads/writes; effective-address computation is the
// caller's (the memory functional unit's) responsibility.
type DataMemory struct {
	words []uint32
}

// NewDataMemory allocates a zeroed data memory of the given word count.
func NewDataMemory(size int) *DataMemory {
	return &DataMemory{words: make([]uint32, size)}
}

// Size returns the number of addressable words.
func (m *DataMemory) Size() int {
	return len(m.words)
}

// Read returns the word at address, or 0 if address is out of range —
// matching original_source/.../DM.py's read(), which silently returns 0 for
// an out-of-bounds address rather than erroring.
func (m *DataMemory) Read(address uint32) uint32 {
	if int(address) < 0 || int(address) >= len(m.words) {
		return 0
	}
	return m.words[address]
}

// Write stores value at address, masked to 32 bits. Out-of-range addresses
// are silently ignored, mirroring DM.py's write().
func (m *DataMemory) Write(address uint32, value uint32) {
	if int(address) < 0 || int(address) >= len(m.words) {
		return
	}
	m.words[address] = value
}

// Snapshot returns a copy of the full data memory.
func (m *DataMemory) Snapshot() []uint32 {
	out := make([]uint32, len(m.words))
	copy(out, m.words)
	return out
}

// Reset zeroes every word without changing the memory's size.
func (m *DataMemory) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
}

// WriteWordsAt copies words into memory starting at startAddress, returning
// an error if they would run past the end of memory.
func (m *DataMemory) WriteWordsAt(startAddress int, words []uint32) error {
	if startAddress < 0 || startAddress+len(words) > len(m.words) {
		return fmt.Errorf("datapath: %d words at address %d overrun %d-word memory", len(words), startAddress, len(m.words))
	}
	copy(m.words[startAddress:], words)
	return nil
}
