package units

import (
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
)

// MulLatency is MUL's fixed latency.
const MulLatency = 1

// Multiplier executes MUL, wrapping the product to 32 bits. Grounded on
// original_source/.../ALU.py's multiply path and the teacher's
// vm/multiply.go dispatch shape.
type Multiplier struct {
	base
}

// NewMultiplier returns an idle multiplier with the default latency.
func NewMultiplier() *Multiplier {
	return NewMultiplierWithLatency(MulLatency)
}

// NewMultiplierWithLatency returns an idle multiplier with a
// config-supplied latency.
func NewMultiplierWithLatency(latency int) *Multiplier {
	return &Multiplier{base: newBase(isa.UnitMult, latency)}
}

// CanAccept reports whether op is MUL.
func (u *Multiplier) CanAccept(op isa.Opcode) bool { return op == isa.MUL }

// Issue assigns an instruction to this multiplier.
func (u *Multiplier) Issue(instIdx int, inst *decode.DecodedInstruction, qj, qk int, rj, rk bool) {
	u.issue(instIdx, inst, qj, qk, rj, rk)
}

// TickExecute counts down the latency and computes the wrapped product.
func (u *Multiplier) TickExecute(dp *datapath.Datapath, inst *decode.DecodedInstruction) bool {
	if !u.busy || u.remaining == 0 {
		return false
	}
	u.remaining--
	if u.remaining > 0 {
		return false
	}

	fj := uint64(dp.Registers.Read(inst.Fj))
	var fk uint64
	if inst.IsImmediate {
		fk = uint64(inst.Immediate)
	} else {
		fk = uint64(dp.Registers.Read(inst.Fk))
	}
	u.result = uint32(fj * fk) // modulo 2^32 by truncation
	u.hasResult = true
	return true
}

// WriteBack returns the computed product and frees the unit.
func (u *Multiplier) WriteBack(dp *datapath.Datapath) (uint32, bool) {
	return u.writeBack(dp)
}

// State returns a read-only snapshot.
func (u *Multiplier) State() UnitState {
	return u.state()
}
