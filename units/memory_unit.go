package units

import (
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/isa"
)

// MemLatency is the fixed latency shared by LOAD, STOR, STK, and DLT.
const MemLatency = 3

// Memory executes LOAD, STOR, STK, and DLT. Address computation
// (value(fj) + value(fk)) is shared by LOAD, STOR, and STK, per spec.md
// §4.1's memory shape; DLT ignores fk. Grounded on
// original_source/.../MEMORY.py.
type Memory struct {
	base
}

// NewMemory returns an idle memory unit with the default latency.
func NewMemory() *Memory {
	return NewMemoryWithLatency(MemLatency)
}

// NewMemoryWithLatency returns an idle memory unit with a config-supplied
// latency.
func NewMemoryWithLatency(latency int) *Memory {
	return &Memory{base: newBase(isa.UnitMemory, latency)}
}

// CanAccept reports whether op is one of the memory-shape opcodes.
func (u *Memory) CanAccept(op isa.Opcode) bool {
	switch op {
	case isa.LOAD, isa.STOR, isa.STK, isa.DLT:
		return true
	default:
		return false
	}
}

// Issue assigns an instruction to this memory unit.
func (u *Memory) Issue(instIdx int, inst *decode.DecodedInstruction, qj, qk int, rj, rk bool) {
	u.issue(instIdx, inst, qj, qk, rj, rk)
}

// TickExecute counts down the latency and, on completion, samples the
// operands it needs (register reads do not mutate state, so these may
// happen here) and prepares the operation's outcome. LOAD's result is a
// register commit handled like any other unit's result; STOR and STK defer
// their actual memory/key-safe mutation to Write-Back, per spec.md §3.
func (u *Memory) TickExecute(dp *datapath.Datapath, inst *decode.DecodedInstruction) bool {
	if !u.busy || u.remaining == 0 {
		return false
	}
	u.remaining--
	if u.remaining > 0 {
		return false
	}

	switch u.op {
	case isa.LOAD:
		addr := dp.Registers.Read(inst.Fj) + dp.Registers.Read(inst.Fk)
		u.result, u.hasResult = dp.Data.Read(addr), true
	case isa.STOR:
		addr := dp.Registers.Read(inst.Fj) + dp.Registers.Read(inst.Fk)
		value := dp.Registers.Read(inst.Fi)
		u.deferred = func(dp *datapath.Datapath) { dp.Data.Write(addr, value) }
	case isa.DLT:
		u.result = dp.Registers.Read(inst.Fj) + isa.DeltaConstant
		u.hasResult = true
	case isa.STK:
		index := dp.Registers.Read(inst.Fj) + dp.Registers.Read(inst.Fk)
		r1 := dp.Registers.Read(1)
		r2 := dp.Registers.Read(2)
		r3 := dp.Registers.Read(3)
		r4 := dp.Registers.Read(4)
		u.deferred = func(dp *datapath.Datapath) { dp.Keys.Store(index, r1, r2, r3, r4) }
	}
	return true
}

// WriteBack applies any deferred STOR/STK mutation, returns the computed
// result (LOAD/DLT only), and frees the unit.
func (u *Memory) WriteBack(dp *datapath.Datapath) (uint32, bool) {
	return u.writeBack(dp)
}

// State returns a read-only snapshot.
func (u *Memory) State() UnitState {
	return u.state()
}
