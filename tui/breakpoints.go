// Package tui is the interactive terminal stepper: a tview/tcell view over
// a stepper.Stepper, with panels for registers, data memory, the key
// safe, and the instruction list, plus a command line (step, run, reset,
// break, print). Grounded on the teacher's debugger/tui.go,
// debugger/breakpoints.go, and debugger/history.go.
package tui

import (
	"fmt"
	"sync"
)

// Breakpoint is a halt point on one instruction index. Narrowed from
// debugger.Breakpoint's ARM byte-address key (this ISA has no byte
// addressing; PC advances by instruction index).
type Breakpoint struct {
	ID        int
	Index     int
	Enabled   bool
	Temporary bool
	HitCount  int
}

// BreakpointManager manages breakpoints keyed by instruction index,
// grounded on debugger.BreakpointManager.
type BreakpointManager struct {
	mu          sync.RWMutex
	breakpoints map[int]*Breakpoint
	nextID      int
}

// NewBreakpointManager returns an empty breakpoint manager.
func NewBreakpointManager() *BreakpointManager {
	return &BreakpointManager{
		breakpoints: make(map[int]*Breakpoint),
		nextID:      1,
	}
}

// Add sets a breakpoint at index. An existing breakpoint there is kept
// (same ID and hit count), re-enabled, and given the new temporary flag.
func (bm *BreakpointManager) Add(index int, temporary bool) *Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bp, exists := bm.breakpoints[index]; exists {
		bp.Enabled = true
		bp.Temporary = temporary
		return bp
	}

	bp := &Breakpoint{ID: bm.nextID, Index: index, Enabled: true, Temporary: temporary}
	bm.breakpoints[index] = bp
	bm.nextID++
	return bp
}

// Delete removes the breakpoint at index.
func (bm *BreakpointManager) Delete(index int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if _, exists := bm.breakpoints[index]; !exists {
		return fmt.Errorf("tui: no breakpoint at instruction %d", index)
	}
	delete(bm.breakpoints, index)
	return nil
}

// Get returns the breakpoint at index, or nil if none is set.
func (bm *BreakpointManager) Get(index int) *Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.breakpoints[index]
}

// All returns every breakpoint, in no particular order.
func (bm *BreakpointManager) All() []*Breakpoint {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	out := make([]*Breakpoint, 0, len(bm.breakpoints))
	for _, bp := range bm.breakpoints {
		out = append(out, bp)
	}
	return out
}

// Clear removes every breakpoint.
func (bm *BreakpointManager) Clear() {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.breakpoints = make(map[int]*Breakpoint)
}

// ProcessHit increments the hit count for index and removes the
// breakpoint if it is temporary, returning a copy safe to use after the
// lock is released. Returns nil if no enabled breakpoint is set there.
func (bm *BreakpointManager) ProcessHit(index int) *Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	bp, exists := bm.breakpoints[index]
	if !exists || !bp.Enabled {
		return nil
	}

	bp.HitCount++
	result := *bp
	if bp.Temporary {
		delete(bm.breakpoints, index)
	}
	return &result
}
