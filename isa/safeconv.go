package isa

import "fmt"

// SafeRegister validates a parsed register number against the 4-bit
// register field (R0-R15).
func SafeRegister(n int) (int, error) {
	if n < 0 || n > MaxRegister {
		return 0, fmt.Errorf("register out of range: R%d (must be R0-R%d)", n, MaxRegister)
	}
	return n, nil
}

// SafeImmediate validates a parsed immediate against the 8-bit immediate
// field (0-255).
func SafeImmediate(v int) (uint8, error) {
	if v < 0 || v > MaxImmediate {
		return 0, fmt.Errorf("immediate out of range: %d (must be 0-%d)", v, MaxImmediate)
	}
	return uint8(v), nil
}

// SafeBranchTag validates a parsed branch target against the 13-bit tag
// field (0-8191).
func SafeBranchTag(v int) (uint16, error) {
	if v < 0 || v > MaxBranchTag {
		return 0, fmt.Errorf("branch target out of range: %d (must be 0-%d)", v, MaxBranchTag)
	}
	return uint16(v), nil
}
