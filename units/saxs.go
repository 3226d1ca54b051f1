package units

import (
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
)

// SaxsLatency is SAXS's fixed latency.
const SaxsLatency = 4

// Saxs executes SAXS, the TEA-style key-mixing operator: the instruction's
// immediate names a key index k into the shared key safe; Fj holds the
// value v being mixed; Fi receives the result. Grounded on
// original_source/.../SAXS.py and Safe.py's load_key.
type Saxs struct {
	base
}

// NewSaxs returns an idle SAXS unit with the default latency.
func NewSaxs() *Saxs {
	return NewSaxsWithLatency(SaxsLatency)
}

// NewSaxsWithLatency returns an idle SAXS unit with a config-supplied
// latency.
func NewSaxsWithLatency(latency int) *Saxs {
	return &Saxs{base: newBase(isa.UnitSaxs, latency)}
}

// CanAccept reports whether op is SAXS.
func (u *Saxs) CanAccept(op isa.Opcode) bool { return op == isa.SAXS }

// Issue assigns an instruction to this SAXS unit.
func (u *Saxs) Issue(instIdx int, inst *decode.DecodedInstruction, qj, qk int, rj, rk bool) {
	u.issue(instIdx, inst, qj, qk, rj, rk)
}

// TickExecute counts down the latency and computes the mixed value:
// ((v<<4)+low) XOR ((v>>5)+high), wrapped to 32 bits, where (low, high) is
// the key-safe pair addressed by the instruction's immediate key index.
func (u *Saxs) TickExecute(dp *datapath.Datapath, inst *decode.DecodedInstruction) bool {
	if !u.busy || u.remaining == 0 {
		return false
	}
	u.remaining--
	if u.remaining > 0 {
		return false
	}

	v := dp.Registers.Read(inst.Fj)
	low, high := dp.Keys.Load(inst.Immediate)
	u.result = ((v << 4) + low) ^ ((v >> 5) + high)
	u.hasResult = true
	return true
}

// WriteBack returns the computed value and frees the unit.
func (u *Saxs) WriteBack(dp *datapath.Datapath) (uint32, bool) {
	return u.writeBack(dp)
}

// State returns a read-only snapshot.
func (u *Saxs) State() UnitState {
	return u.state()
}
