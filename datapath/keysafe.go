package datapath

// NumKeySlots is the number of 128-bit key slots the safe holds.
const NumKeySlots = 4

// KeyHalf is one 64-bit half of a key, split into two 32-bit words, per
// spec.md §3: keys[i] = [[low0, low1], [high0, high1]].
type KeyHalf [2]uint32

// KeySafe is the four-slot, persistent-for-the-run key store SAXS reads
// from and STK writes to. Grounded on original_source/.../Safe.py.
type KeySafe struct {
	slots [NumKeySlots][2]KeyHalf // slots[i] = [low, high]
}

// NewKeySafe returns a zeroed key safe.
func NewKeySafe() *KeySafe {
	return &KeySafe{}
}

// Store writes slot (index mod 4) from four registers, per spec.md §4.5:
// safe[index mod 4] = [[r1, r2], [r3, r4]].
func (s *KeySafe) Store(index uint32, r1, r2, r3, r4 uint32) {
	slot := int(index) % NumKeySlots
	s.slots[slot][0] = KeyHalf{r1, r2}
	s.slots[slot][1] = KeyHalf{r3, r4}
}

// Load reads the (low, high) pair SAXS uses for key index k, per spec.md
// §4.5: slot = (k mod 8) div 2, half = k mod 2.
func (s *KeySafe) Load(k uint32) (low, high uint32) {
	slot := int(k%8) / 2
	half := int(k % 2)
	pair := s.slots[slot][half]
	return pair[0], pair[1]
}

// Snapshot returns a copy of all four slots.
func (s *KeySafe) Snapshot() [NumKeySlots][2]KeyHalf {
	return s.slots
}

// Reset clears every slot.
func (s *KeySafe) Reset() {
	s.slots = [NumKeySlots][2]KeyHalf{}
}
