// Package stepper provides a thread-safe facade over one simulator run:
// datapath, functional-unit pool, and scoreboard. Grounded on
// service/debugger_service.go's DebuggerService — a single mutex-guarded
// struct shared by every driver (TUI, HTTP API, and any future CLI) so
// none of them need to reimplement locking around a *scoreboard.Scoreboard.
package stepper

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/archlab/tea-scoreboard/config"
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/decode"
	"github.com/archlab/tea-scoreboard/scoreboard"
	"github.com/archlab/tea-scoreboard/units"
)

var stepperLog *log.Logger

func init() {
	if os.Getenv("TEASIM_DEBUG") != "" {
		logPath := filepath.Join(os.TempDir(), "teasim-stepper-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
		if err != nil {
			stepperLog = log.New(os.Stderr, "STEPPER: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			stepperLog = log.New(f, "STEPPER: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		stepperLog = log.New(io.Discard, "", 0)
	}
}

// Stepper is a thread-safe facade over one run's scoreboard and datapath.
//
// Lock ordering: Stepper holds its own sync.RWMutex (s.mu) and is the only
// lock in this package — the scoreboard and datapath it wraps have no
// internal locking of their own, so every exported method simply acquires
// s.mu for its duration. Do not call an exported Stepper method from
// inside another one while already holding s.mu; use the unexported
// lowercase helpers for that instead (they assume the caller already
// holds the lock), mirroring service/debugger_service.go's
// Step-calls-step convention.
type Stepper struct {
	mu         sync.RWMutex
	datapath   *datapath.Datapath
	scoreboard *scoreboard.Scoreboard
	cfg        *config.Config
	program    []uint32
}

// New constructs a Stepper with no program loaded; call Reset before
// ticking it.
func New() *Stepper {
	return &Stepper{cfg: config.DefaultConfig()}
}

// Reset builds a fresh datapath, unit pool, and scoreboard from cfg and
// program, discarding any prior run. Per spec.md §6, the Stepper is
// reconstructed on every reset rather than mutated in place — the
// facade's internals are simply replaced wholesale, unlike the source's
// singleton-class pattern.
func (s *Stepper) Reset(cfg *config.Config, program []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset(cfg, program)
}

func (s *Stepper) reset(cfg *config.Config, program []uint32) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	instructions := make([]*decode.DecodedInstruction, len(program))
	for i, word := range program {
		inst, err := decode.Decode(word)
		if err != nil {
			return fmt.Errorf("stepper: decoding instruction %d: %w", i, err)
		}
		instructions[i] = inst
	}

	dp := datapath.New(cfg.DataWords, program)
	pool := units.BuildPool(
		units.PoolCounts{ALU: cfg.Units.ALU, Mem: cfg.Units.Mem, Mul: cfg.Units.Mul, Div: cfg.Units.Div, Saxs: cfg.Units.Saxs},
		units.PoolLatencies{ALU: cfg.Latencies.ALU, Mem: cfg.Latencies.Mem, Mul: cfg.Latencies.Mul, Div: cfg.Latencies.Div, Saxs: cfg.Latencies.Saxs},
	)

	s.cfg = cfg
	s.program = program
	s.datapath = dp
	s.scoreboard = scoreboard.New(dp, pool, instructions)
	stepperLog.Printf("reset: %d instructions, %d-word data memory", len(instructions), cfg.DataWords)
	return nil
}

// Rewind rebuilds the run from the program and config most recently
// passed to Reset, for a TUI/API "start over" command that should not
// require the caller to keep the original program bytes around.
func (s *Stepper) Rewind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset(s.cfg, s.program)
}

// LoadData loads raw binary data into the run's data memory at wordAddress.
func (s *Stepper) LoadData(path string, wordAddress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.datapath == nil {
		return fmt.Errorf("stepper: no program loaded")
	}
	return datapath.LoadBinaryFile(s.datapath.Data, path, wordAddress)
}

// LoadKey loads a 128-bit hex key into the run's data memory at
// wordAddress.
func (s *Stepper) LoadKey(path string, wordAddress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.datapath == nil {
		return fmt.Errorf("stepper: no program loaded")
	}
	return datapath.LoadHexKeyFile(s.datapath.Data, path, wordAddress)
}

// Tick advances the run by exactly one cycle.
func (s *Stepper) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scoreboard == nil {
		return fmt.Errorf("stepper: no program loaded")
	}
	s.scoreboard.Tick()
	return nil
}

// Run advances the run until Done or maxCycles ticks have elapsed
// (whichever comes first), and reports how many ticks actually ran.
func (s *Stepper) Run(maxCycles uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scoreboard == nil {
		return 0, fmt.Errorf("stepper: no program loaded")
	}

	var ran uint64
	for ran < maxCycles && !s.scoreboard.Done() {
		s.scoreboard.Tick()
		ran++
	}
	stepperLog.Printf("run: %d cycles, done=%v", ran, s.scoreboard.Done())
	return ran, nil
}

// Done reports whether the run has finished.
func (s *Stepper) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scoreboard == nil || s.scoreboard.Done()
}

// Datapath returns the run's underlying datapath, for callers (such as
// WriteEncryptedOutput) that need direct access after the run completes.
// Callers must not mutate it concurrently with Tick/Run.
func (s *Stepper) Datapath() *datapath.Datapath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datapath
}

// Snapshot is a deep copy of everything external viewers (TUI, API,
// tests) need to display or persist: no slice or map in the returned
// value aliases Stepper-internal state.
type Snapshot struct {
	Registers    [datapath.NumRegisters]uint32
	KeySafe      [datapath.NumKeySlots][2]datapath.KeyHalf
	DataMemory   []uint32
	PC           int
	Clock        uint64
	Done         bool
	Instructions []InstructionSnapshot
	Units        []units.UnitState
}

// InstructionSnapshot is one decoded instruction's stage timestamps, for
// the TUI's instruction list and the API's snapshot response.
type InstructionSnapshot struct {
	Op         string
	Issue      int
	ReadOps    int
	ExComplete int
	WriteBack  int
	Result     *uint32
	Diagnostic string
}

// Snapshot returns a deep copy of the current run state.
func (s *Stepper) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Stepper) snapshot() Snapshot {
	if s.datapath == nil || s.scoreboard == nil {
		return Snapshot{}
	}

	instructions := make([]InstructionSnapshot, len(s.scoreboard.Instructions))
	for i, inst := range s.scoreboard.Instructions {
		var result *uint32
		if inst.Result != nil {
			r := *inst.Result
			result = &r
		}
		instructions[i] = InstructionSnapshot{
			Op:         inst.Op.String(),
			Issue:      inst.Issue,
			ReadOps:    inst.ReadOps,
			ExComplete: inst.ExComplete,
			WriteBack:  inst.WriteBack,
			Result:     result,
			Diagnostic: inst.Diagnostic,
		}
	}

	unitStates := make([]units.UnitState, len(s.scoreboard.Units))
	for i, u := range s.scoreboard.Units {
		unitStates[i] = u.State()
	}

	return Snapshot{
		Registers:    s.datapath.Registers.Snapshot(),
		KeySafe:      s.datapath.Keys.Snapshot(),
		DataMemory:   s.datapath.Data.Snapshot(),
		PC:           s.scoreboard.PC,
		Clock:        s.scoreboard.Clock,
		Done:         s.scoreboard.Done(),
		Instructions: instructions,
		Units:        unitStates,
	}
}
