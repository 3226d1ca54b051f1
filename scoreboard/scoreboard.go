// Package scoreboard implements the out-of-order Issue/Read-Operands/
// Execute/Write-Back controller: a centralized scoreboard, in the
// tradition of the CDC 6600, that schedules a decoded instruction stream
// onto a pool of heterogeneous functional units while tracking RAW, WAR,
// and WAW hazards. Grounded on the teacher's vm/executor.go control flow
// and original_source/.../Pipeline.py and ParserMarcador.py.
package scoreboard

import (
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
	"github.com/archlab/tea-scoreboard/units"
)

// Scoreboard holds the architectural control state that drives one run:
// the functional-unit pool, the register-status table, the decoded
// instruction stream, and the program counter.
type Scoreboard struct {
	Datapath     *datapath.Datapath
	Units        []units.FunctionalUnit
	Instructions []*decode.DecodedInstruction
	RegStatus    map[int]int // register -> owning unit index; absent = free
	PC           int
	Clock        uint64
	WaitBranch   bool

	locked []bool // per-unit, cleared at the start of each tick
}

// New builds a scoreboard over the given datapath, unit pool, and decoded
// program. The clock starts at 1, per spec.md §3.
func New(dp *datapath.Datapath, unitPool []units.FunctionalUnit, instructions []*decode.DecodedInstruction) *Scoreboard {
	return &Scoreboard{
		Datapath:     dp,
		Units:        unitPool,
		Instructions: instructions,
		RegStatus:    make(map[int]int),
		PC:           0,
		Clock:        1,
		locked:       make([]bool, len(unitPool)),
	}
}

// Done reports whether the run has finished: PC has reached the end of
// the instruction list and every unit is idle.
func (s *Scoreboard) Done() bool {
	if s.PC < len(s.Instructions) {
		return false
	}
	for _, u := range s.Units {
		if u.Busy() {
			return false
		}
	}
	return true
}

// Tick advances the simulation by one cycle: Issue, Read-Operands, and
// Execute are evaluated in one pass per unit (each gated by the unit's
// per-tick lock), then Write-Back runs on every unit that did not just
// make a transition this tick. Clock advances unconditionally.
func (s *Scoreboard) Tick() {
	for i := range s.locked {
		s.locked[i] = false
	}

	s.tryIssue()
	s.tryReadOperandsAndExecute()
	s.tryWriteBack()

	s.Clock++
}

// tryIssue attempts to issue the instruction at PC onto a matching, idle
// unit, per spec.md §4.3's Issue preconditions.
func (s *Scoreboard) tryIssue() {
	if s.WaitBranch {
		return
	}
	if s.PC >= len(s.Instructions) {
		return
	}
	inst := s.Instructions[s.PC]

	hasDest := isa.HasDestination(inst.Op) && inst.Fi != decode.NoField && inst.Fi != 0
	if hasDest {
		if _, pending := s.RegStatus[inst.Fi]; pending {
			return // WAW: a prior instruction has not yet written this destination
		}
	}

	for i, u := range s.Units {
		if s.locked[i] || u.Busy() || !u.CanAccept(inst.Op) {
			continue
		}

		qj, rj := s.producerOf(inst.Fj)
		qk, rk := s.producerOf(inst.Fk)
		u.Issue(s.PC, inst, qj, qk, rj, rk)
		s.locked[i] = true

		if hasDest {
			s.RegStatus[inst.Fi] = i
		}
		inst.Issue = int(s.Clock)
		if inst.Op == isa.LOOP {
			s.WaitBranch = true
		}
		s.PC++
		return
	}
}

// producerOf reports the owning unit index for register reg and whether
// it is already ready (no pending writer, or the register slot is absent
// such as NoField). R0 is always ready since it is hardwired to zero.
func (s *Scoreboard) producerOf(reg int) (producer int, ready bool) {
	if reg == decode.NoField || reg == 0 {
		return units.NoProducer, true
	}
	if owner, pending := s.RegStatus[reg]; pending {
		return owner, false
	}
	return units.NoProducer, true
}

// tryReadOperandsAndExecute advances every busy, unlocked unit through
// Read-Operands (when both operands are ready) and Execute.
func (s *Scoreboard) tryReadOperandsAndExecute() {
	for i, u := range s.Units {
		if s.locked[i] || !u.Busy() {
			continue
		}
		if !u.ReadyJ() || !u.ReadyK() {
			continue
		}
		if s.isWithheldSTK(u) || s.isWithheldStorValue(u) {
			continue
		}

		inst := s.Instructions[u.InstructionIndex()]
		if inst.ReadOps == decode.NoTimestamp {
			inst.ReadOps = int(s.Clock)
		}

		if u.TickExecute(s.Datapath, inst) {
			inst.ExComplete = int(s.Clock)
			s.locked[i] = true
		}
	}
}

// isWithheldSTK reports whether u holds a pending STK instruction that
// must wait because R1-R4 (which STK reads implicitly) have an
// outstanding writer, per spec.md §4.3's Read-Operands preconditions.
func (s *Scoreboard) isWithheldSTK(u units.FunctionalUnit) bool {
	if u.Type() != isa.UnitMemory {
		return false
	}
	inst := s.Instructions[u.InstructionIndex()]
	if inst.Op != isa.STK {
		return false
	}
	for r := 1; r <= 4; r++ {
		if _, pending := s.RegStatus[r]; pending {
			return true
		}
	}
	return false
}

// isWithheldStorValue reports whether u holds a pending STOR whose value
// operand (fi — a read, not the formally hazard-tracked fj/fk pair) still
// has an outstanding writer. STOR samples fi directly in Execute with no
// Qi/Ri producer tracking, so without this check its Execute stage could
// run the same tick a producer's Write-Back commits fi, reading the
// pre-commit value.
func (s *Scoreboard) isWithheldStorValue(u units.FunctionalUnit) bool {
	if u.Type() != isa.UnitMemory {
		return false
	}
	inst := s.Instructions[u.InstructionIndex()]
	if inst.Op != isa.STOR || inst.Fi == decode.NoField || inst.Fi == 0 {
		return false
	}
	_, pending := s.RegStatus[inst.Fi]
	return pending
}

// tryWriteBack retires every busy unit not locked this tick whose
// Write-Back preconditions hold (no other unit still needs to read a
// source equal to this unit's destination).
func (s *Scoreboard) tryWriteBack() {
	for i, u := range s.Units {
		if s.locked[i] || !u.Busy() {
			continue
		}
		if u.InstructionIndex() >= len(s.Instructions) {
			continue
		}
		inst := s.Instructions[u.InstructionIndex()]
		if inst.ExComplete == decode.NoTimestamp {
			continue // Execute has not completed yet
		}
		if !s.warClear(i, u) {
			continue
		}

		// Capture what Write-Back needs before it clears the unit.
		zeroFlag := u.ZeroFlag()
		dest := u.Dest()

		result, hasResult := u.WriteBack(s.Datapath)
		inst.WriteBack = int(s.Clock)

		if zeroFlag {
			s.PC = int(result)
		} else if hasResult {
			resultCopy := result
			inst.Result = &resultCopy
			if dest != decode.NoField && dest != 0 {
				s.Datapath.Registers.Write(dest, result)
			}
		}

		if inst.Op == isa.LOOP {
			s.WaitBranch = false
		}

		s.propagateCompletion(i, dest)
		if dest != decode.NoField {
			if owner, ok := s.RegStatus[dest]; ok && owner == i {
				delete(s.RegStatus, dest)
			}
		}
	}
}

// warClear implements the Write-Back precondition: for every other unit
// V, V's fj != U's dest or V already read it (Rj true); likewise fk.
func (s *Scoreboard) warClear(ownerIdx int, owner units.FunctionalUnit) bool {
	dest := owner.Dest()
	if dest == decode.NoField || dest == 0 {
		return true
	}
	for i, v := range s.Units {
		if i == ownerIdx || !v.Busy() {
			continue
		}
		if v.Src1() == dest && !v.ReadyJ() {
			return false
		}
		if v.Src2() == dest && !v.ReadyK() {
			return false
		}
	}
	return true
}

// propagateCompletion marks Rj/Rk true on every other unit awaiting
// producerIdx's result.
func (s *Scoreboard) propagateCompletion(producerIdx int, dest int) {
	if dest == decode.NoField {
		return
	}
	for i, v := range s.Units {
		if i == producerIdx {
			continue
		}
		if v.ProducerJ() == producerIdx {
			v.MarkReadyJ()
		}
		if v.ProducerK() == producerIdx {
			v.MarkReadyK()
		}
	}
}
