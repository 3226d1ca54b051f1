package datapath

// InstructionMemory is an ordered, immutable (after load) sequence of
// 21-bit encoded instruction words. Addresses are byte addresses; the
// instruction index is address/4, per spec.md §3.
type InstructionMemory struct {
	words []uint32
}

// NewInstructionMemory loads an ordered list of encoded instruction words.
func NewInstructionMemory(words []uint32) *InstructionMemory {
	out := make([]uint32, len(words))
	copy(out, words)
	return &InstructionMemory{words: out}
}

// Len returns the number of instructions.
func (im *InstructionMemory) Len() int {
	return len(im.words)
}

// At returns the encoded word at instruction index i.
func (im *InstructionMemory) At(i int) (uint32, bool) {
	if i < 0 || i >= len(im.words) {
		return 0, false
	}
	return im.words[i], true
}

// Words returns the full ordered instruction list (a copy).
func (im *InstructionMemory) Words() []uint32 {
	out := make([]uint32, len(im.words))
	copy(out, im.words)
	return out
}

// AddressOf converts an instruction index to its byte address.
func AddressOf(index int) uint32 {
	return uint32(index) * 4
}

// IndexOf converts a byte address to its instruction index.
func IndexOf(address uint32) int {
	return int(address / 4)
}
