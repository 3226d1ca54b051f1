// Package units implements the seven heterogeneous functional units
// (ALU×2, MEM×2, MUL, DIV, SAXS) the scoreboard schedules instructions
// onto. Each concrete type implements FunctionalUnit — the Go rendering of
// DESIGN NOTE (d)'s "tagged variant with a shared capability set": Go's
// idiomatic mechanism for a closed set of implementations behind one
// contract is an interface over concrete structs, not a sum type.
package units

import (
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
)

// NoProducer marks an operand with no pending producer unit (i.e. it is
// already ready).
const NoProducer = -1

// UnitState is a read-only snapshot of a functional unit, for the stepper,
// TUI, and API to display without reaching into unit internals.
type UnitState struct {
	Type      isa.UnitType
	Busy      bool
	Op        isa.Opcode
	Dest      int
	Src1      int
	Src2      int
	Remaining int
	InstIndex int
}

// FunctionalUnit is the capability set every concrete unit implements.
type FunctionalUnit interface {
	// Type reports the unit's kind (alu, memory, mult, div, saxs).
	Type() isa.UnitType

	// CanAccept reports whether this unit executes the given opcode.
	CanAccept(op isa.Opcode) bool

	// Busy reports whether the unit currently holds an instruction.
	Busy() bool

	// Issue assigns instruction index instIdx to this unit. qj/qk name the
	// producer unit index for each not-yet-ready source operand
	// (NoProducer if none); rj/rk are the corresponding initial
	// operand-ready flags.
	Issue(instIdx int, inst *decode.DecodedInstruction, qj, qk int, rj, rk bool)

	// ReadyJ and ReadyK report the current Rj/Rk operand-ready flags.
	ReadyJ() bool
	ReadyK() bool

	// ProducerJ and ProducerK report the outstanding producer unit index
	// for each operand (NoProducer once ready).
	ProducerJ() int
	ProducerK() int

	// MarkReadyJ and MarkReadyK are invoked by the scoreboard when the
	// named producer unit writes back, clearing the wait.
	MarkReadyJ()
	MarkReadyK()

	// InstructionIndex is the index into the scoreboard's decoded
	// instruction list this unit currently holds.
	InstructionIndex() int

	// TickExecute advances this unit's execution by one cycle, computing
	// the operation's result against dp when the latency counter reaches
	// zero. It reports whether execution completed this tick.
	TickExecute(dp *datapath.Datapath, inst *decode.DecodedInstruction) (completedThisTick bool)

	// ZeroFlag reports whether the held instruction is a taken branch
	// (LOOP whose tested register was zero).
	ZeroFlag() bool

	// Dest, Src1, Src2 report the held instruction's register fields
	// (decode.NoField if absent), needed by the scoreboard's WAR check.
	Dest() int
	Src1() int
	Src2() int

	// WriteBack performs any deferred memory/key-safe mutation against dp
	// (STOR, STK), returns the computed register result (if any), and
	// clears the unit, freeing it for a future Issue. Data memory and the
	// key safe are mutated only here, never during Execute.
	WriteBack(dp *datapath.Datapath) (result uint32, hasResult bool)

	// State returns a read-only snapshot for external display.
	State() UnitState
}

// base holds the fields common to every functional unit implementation.
type base struct {
	unitType  isa.UnitType
	latency   int
	busy      bool
	op        isa.Opcode
	dest      int
	src1      int
	src2      int
	remaining int
	rj, rk    bool
	qj, qk    int
	instIndex int
	zeroFlag  bool
	result    uint32
	hasResult bool

	// deferred holds a memory/key-safe mutation computed during Execute
	// but applied only at Write-Back, per spec.md §3 ("mutated only by
	// the Write-Back stage"). nil for units with no pending side effect.
	deferred func(dp *datapath.Datapath)
}

func newBase(t isa.UnitType, latency int) base {
	return base{unitType: t, latency: latency, dest: decode.NoField, src1: decode.NoField, src2: decode.NoField, qj: NoProducer, qk: NoProducer}
}

func (b *base) Type() isa.UnitType { return b.unitType }
func (b *base) Busy() bool         { return b.busy }
func (b *base) ReadyJ() bool       { return b.rj }
func (b *base) ReadyK() bool       { return b.rk }
func (b *base) ProducerJ() int     { return b.qj }
func (b *base) ProducerK() int     { return b.qk }
func (b *base) MarkReadyJ()        { b.rj = true; b.qj = NoProducer }
func (b *base) MarkReadyK()        { b.rk = true; b.qk = NoProducer }
func (b *base) InstructionIndex() int { return b.instIndex }
func (b *base) ZeroFlag() bool     { return b.zeroFlag }
func (b *base) Dest() int          { return b.dest }
func (b *base) Src1() int          { return b.src1 }
func (b *base) Src2() int          { return b.src2 }

func (b *base) issue(instIdx int, inst *decode.DecodedInstruction, qj, qk int, rj, rk bool) {
	b.busy = true
	b.op = inst.Op
	if isa.HasDestination(inst.Op) {
		b.dest = inst.Fi
	} else {
		b.dest = decode.NoField
	}
	b.src1 = inst.Fj
	b.src2 = inst.Fk
	b.remaining = b.latency
	b.qj, b.qk = qj, qk
	b.rj, b.rk = rj, rk
	b.instIndex = instIdx
	b.zeroFlag = false
	b.hasResult = false
}

func (b *base) clear() {
	b.busy = false
	b.dest, b.src1, b.src2 = decode.NoField, decode.NoField, decode.NoField
	b.qj, b.qk = NoProducer, NoProducer
	b.rj, b.rk = false, false
	b.zeroFlag = false
	b.hasResult = false
	b.remaining = 0
	b.deferred = nil
}

func (b *base) writeBack(dp *datapath.Datapath) (uint32, bool) {
	if b.deferred != nil {
		b.deferred(dp)
	}
	result, has := b.result, b.hasResult
	b.clear()
	return result, has
}

func (b *base) state() UnitState {
	return UnitState{
		Type:      b.unitType,
		Busy:      b.busy,
		Op:        b.op,
		Dest:      b.dest,
		Src1:      b.src1,
		Src2:      b.src2,
		Remaining: b.remaining,
		InstIndex: b.instIndex,
	}
}
