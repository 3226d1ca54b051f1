package units

import (
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
)

// DivLatency is DIV's fixed latency: a division takes far longer than the
// other arithmetic ops, per spec.md §4.4's latency table.
const DivLatency = 40

// DivisionByZeroDiagnostic is the exact diagnostic string attached to a
// DIV-by-zero instruction's result record: the wording of
// original_source/.../DIV.py's "Error: División por cero", lower-cased and
// without the "Error: " prefix.
const DivisionByZeroDiagnostic = "división por cero"

// Divider executes DIV. Division by zero is not fatal: it yields 0 and
// attaches DivisionByZeroDiagnostic to the instruction. Grounded on
// original_source/.../DIV.py.
type Divider struct {
	base
}

// NewDivider returns an idle divider with the default latency.
func NewDivider() *Divider {
	return NewDividerWithLatency(DivLatency)
}

// NewDividerWithLatency returns an idle divider with a config-supplied
// latency.
func NewDividerWithLatency(latency int) *Divider {
	return &Divider{base: newBase(isa.UnitDiv, latency)}
}

// CanAccept reports whether op is DIV.
func (u *Divider) CanAccept(op isa.Opcode) bool { return op == isa.DIV }

// Issue assigns an instruction to this divider.
func (u *Divider) Issue(instIdx int, inst *decode.DecodedInstruction, qj, qk int, rj, rk bool) {
	u.issue(instIdx, inst, qj, qk, rj, rk)
}

// TickExecute counts down the latency and computes the quotient, or 0 and
// the division-by-zero diagnostic when the divisor is zero.
func (u *Divider) TickExecute(dp *datapath.Datapath, inst *decode.DecodedInstruction) bool {
	if !u.busy || u.remaining == 0 {
		return false
	}
	u.remaining--
	if u.remaining > 0 {
		return false
	}

	fj := dp.Registers.Read(inst.Fj)
	var fk uint32
	if inst.IsImmediate {
		fk = inst.Immediate
	} else {
		fk = dp.Registers.Read(inst.Fk)
	}

	if fk == 0 {
		u.result = 0
		inst.Diagnostic = DivisionByZeroDiagnostic
	} else {
		u.result = fj / fk
	}
	u.hasResult = true
	return true
}

// WriteBack returns the computed quotient and frees the unit.
func (u *Divider) WriteBack(dp *datapath.Datapath) (uint32, bool) {
	return u.writeBack(dp)
}

// State returns a read-only snapshot.
func (u *Divider) State() UnitState {
	return u.state()
}
