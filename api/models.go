package api

import (
	"time"

	"github.com/archlab/tea-scoreboard/stepper"
)

// SessionCreateRequest is the body of POST /api/v1/session: the program as
// assembly source text (the handler assembles it with asm.Parse/asm.Encode)
// plus optional paths to a data file and a 128-bit hex key file.
type SessionCreateRequest struct {
	Program  string `json:"program"`
	DataFile string `json:"dataFile,omitempty"`
	KeyFile  string `json:"keyFile,omitempty"`
}

// SessionCreateResponse is the response from creating a session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TickResponse is the response from POST /api/v1/session/{id}/tick.
type TickResponse struct {
	SnapshotResponse
}

// RunRequest is the body of POST /api/v1/session/{id}/run.
type RunRequest struct {
	MaxCycles uint64 `json:"maxCycles,omitempty"`
}

// RunResponse is the response from POST /api/v1/session/{id}/run.
type RunResponse struct {
	CyclesRan uint64 `json:"cyclesRan"`
	SnapshotResponse
}

// SnapshotResponse is the wire rendering of stepper.Snapshot returned by
// GET /api/v1/session/{id}/snapshot and embedded in tick/run responses.
type SnapshotResponse struct {
	Registers    [16]uint32           `json:"registers"`
	DataMemory   []uint32             `json:"dataMemory"`
	PC           int                  `json:"pc"`
	Clock        uint64               `json:"clock"`
	Done         bool                 `json:"done"`
	Instructions []InstructionSummary `json:"instructions"`
}

// InstructionSummary is one instruction's op and stage timestamps, the
// wire rendering of stepper.InstructionSnapshot.
type InstructionSummary struct {
	Op         string  `json:"op"`
	Issue      int     `json:"issue"`
	ReadOps    int     `json:"readOps"`
	ExComplete int     `json:"exComplete"`
	WriteBack  int     `json:"writeBack"`
	Result     *uint32 `json:"result,omitempty"`
	Diagnostic string  `json:"diagnostic,omitempty"`
}

// ErrorResponse is the uniform error body for any non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// toSnapshotResponse renders a stepper.Snapshot for the wire.
func toSnapshotResponse(snap stepper.Snapshot) SnapshotResponse {
	instructions := make([]InstructionSummary, len(snap.Instructions))
	for i, inst := range snap.Instructions {
		instructions[i] = InstructionSummary{
			Op:         inst.Op,
			Issue:      inst.Issue,
			ReadOps:    inst.ReadOps,
			ExComplete: inst.ExComplete,
			WriteBack:  inst.WriteBack,
			Result:     inst.Result,
			Diagnostic: inst.Diagnostic,
		}
	}
	return SnapshotResponse{
		Registers:    snap.Registers,
		DataMemory:   snap.DataMemory,
		PC:           snap.PC,
		Clock:        snap.Clock,
		Done:         snap.Done,
		Instructions: instructions,
	}
}

// snapshotToMap renders snap as a generic map for BroadcastSnapshot, whose
// event payload is a map[string]interface{} rather than a concrete type.
func snapshotToMap(snap SnapshotResponse) map[string]interface{} {
	return map[string]interface{}{
		"registers":    snap.Registers,
		"dataMemory":   snap.DataMemory,
		"pc":           snap.PC,
		"clock":        snap.Clock,
		"done":         snap.Done,
		"instructions": snap.Instructions,
	}
}
