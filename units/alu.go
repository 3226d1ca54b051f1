package units

import (
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
)

// ALULatency is the fixed one-cycle latency of every ALU operation.
const ALULatency = 1

// ALU executes the logic/shift opcodes and LOOP. Grounded on
// original_source/.../ALU.py and original_source/.../traductor.py's branch
// handling; structured after the teacher's vm/data_processing.go dispatch.
type ALU struct {
	base
}

// NewALU returns an idle ALU with the default latency.
func NewALU() *ALU {
	return NewALUWithLatency(ALULatency)
}

// NewALUWithLatency returns an idle ALU with a config-supplied latency.
func NewALUWithLatency(latency int) *ALU {
	return &ALU{base: newBase(isa.UnitALU, latency)}
}

// CanAccept reports whether op is one of the ALU's logic/shift/branch ops.
func (u *ALU) CanAccept(op isa.Opcode) bool {
	switch op {
	case isa.ADD, isa.SUB, isa.AND, isa.OR, isa.XOR, isa.SHRL, isa.SHLL, isa.LOOP:
		return true
	default:
		return false
	}
}

// Issue assigns an instruction to this ALU.
func (u *ALU) Issue(instIdx int, inst *decode.DecodedInstruction, qj, qk int, rj, rk bool) {
	u.issue(instIdx, inst, qj, qk, rj, rk)
}

// TickExecute counts down the latency and, on completion, computes the
// instruction's result against the shared datapath.
func (u *ALU) TickExecute(dp *datapath.Datapath, inst *decode.DecodedInstruction) bool {
	if !u.busy || u.remaining == 0 {
		return false
	}
	u.remaining--
	if u.remaining > 0 {
		return false
	}

	fj := dp.Registers.Read(inst.Fj)

	switch u.op {
	case isa.LOOP:
		if fj == 0 {
			u.result = inst.Immediate // absolute instruction index, per DESIGN.md (a)
			u.hasResult = true
			u.zeroFlag = true
		}
		// non-zero fj: no result, zero_flag stays false, WriteBack still
		// retires the instruction and clears wait_branch.
	case isa.ADD:
		u.result, u.hasResult = fj+u.operand2(dp, inst), true
	case isa.SUB:
		u.result, u.hasResult = fj-u.operand2(dp, inst), true
	case isa.AND:
		u.result, u.hasResult = fj&u.operand2(dp, inst), true
	case isa.OR:
		u.result, u.hasResult = fj|u.operand2(dp, inst), true
	case isa.XOR:
		u.result, u.hasResult = fj^u.operand2(dp, inst), true
	case isa.SHRL:
		u.result, u.hasResult = fj>>(u.operand2(dp, inst)&0x1F), true
	case isa.SHLL:
		u.result, u.hasResult = fj<<(u.operand2(dp, inst)&0x1F), true
	}
	return true
}

// operand2 resolves the second ALU operand, honoring the immediate shape.
func (u *ALU) operand2(dp *datapath.Datapath, inst *decode.DecodedInstruction) uint32 {
	if inst.IsImmediate {
		return inst.Immediate
	}
	return dp.Registers.Read(inst.Fk)
}

// WriteBack returns the computed result (if any) and frees the unit. The
// ALU has no deferred memory mutation; dp is accepted only to satisfy
// FunctionalUnit.
func (u *ALU) WriteBack(dp *datapath.Datapath) (uint32, bool) {
	return u.writeBack(dp)
}

// State returns a read-only snapshot.
func (u *ALU) State() UnitState {
	return u.state()
}
