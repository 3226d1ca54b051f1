package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/archlab/tea-scoreboard/stepper"
)

// memoryWindowWords is how many data-memory words the Memory panel shows
// per screen, grounded on tview's fixed-height text-view convention in
// debugger/tui.go's UpdateMemoryView (16 rows there; words here since
// this ISA is word-, not byte-, addressed).
const memoryWindowWords = 64

// TUI is the interactive terminal stepper: a tview application wrapping
// one stepper.Stepper, with panels for registers, data memory, the key
// safe, and the instruction list, plus a command line. Grounded on
// debugger/tui.go's panel/command-input/RefreshAll structure.
type TUI struct {
	Stepper     *stepper.Stepper
	Breakpoints *BreakpointManager
	History     *CommandHistory

	App          *tview.Application
	MainLayout   *tview.Flex
	RegisterView *tview.TextView
	MemoryView   *tview.TextView
	KeySafeView  *tview.TextView
	InstView     *tview.TextView
	OutputView   *tview.TextView
	CommandInput *tview.InputField

	MemoryWindowStart int
}

// New builds a TUI over an already-Reset stepper.
func New(s *stepper.Stepper) *TUI {
	t := &TUI{
		Stepper:     s,
		Breakpoints: NewBreakpointManager(),
		History:     NewCommandHistory(),
		App:         tview.NewApplication(),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Data Memory ")

	t.KeySafeView = tview.NewTextView().SetDynamicColors(true)
	t.KeySafeView.SetBorder(true).SetTitle(" Key Safe ")

	t.InstView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.InstView.SetBorder(true).SetTitle(" Instructions ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	leftPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.InstView, 0, 2, false).
		AddItem(t.MemoryView, 0, 2, false)

	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 7, 0, false).
		AddItem(t.KeySafeView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftPanel, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10:
			t.executeCommand("step")
			return nil
		case tcell.KeyF5:
			t.executeCommand("run")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd == "" {
		return
	}
	t.History.Add(cmd)
	t.executeCommand(cmd)
	t.CommandInput.SetText("")
}

// executeCommand runs one command line against the stepper and refreshes
// every panel, grounded on debugger/tui.go's executeCommand.
func (t *TUI) executeCommand(cmd string) {
	out, err := t.Run(cmd)
	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]error:[white] %v\n", err))
	} else if out != "" {
		t.WriteOutput(out + "\n")
	}
	t.RefreshAll()
}

// Run parses and executes one command line, returning its textual
// output. Commands: step, run [n], reset, break <index>, print Rn.
// Exported so callers (and tests) can drive the TUI's command language
// without going through the tview event loop.
func (t *TUI) Run(cmd string) (string, error) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return "", nil
	}

	switch strings.ToLower(fields[0]) {
	case "step":
		if err := t.Stepper.Tick(); err != nil {
			return "", err
		}
		snap := t.Stepper.Snapshot()
		if bp := t.Breakpoints.ProcessHit(snap.PC); bp != nil {
			return fmt.Sprintf("breakpoint %d hit at instruction %d", bp.ID, bp.Index), nil
		}
		return fmt.Sprintf("clock=%d pc=%d", snap.Clock, snap.PC), nil

	case "run":
		max := uint64(1000000)
		if len(fields) > 1 {
			n, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return "", fmt.Errorf("tui: invalid cycle count %q", fields[1])
			}
			max = n
		}
		ran, err := t.Stepper.Run(max)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("ran %d cycles", ran), nil

	case "reset":
		if err := t.Stepper.Rewind(); err != nil {
			return "", err
		}
		return "reset", nil

	case "break":
		if len(fields) != 2 {
			return "", fmt.Errorf("tui: usage: break <instruction-index>")
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return "", fmt.Errorf("tui: invalid instruction index %q", fields[1])
		}
		bp := t.Breakpoints.Add(idx, false)
		return fmt.Sprintf("breakpoint %d set at instruction %d", bp.ID, bp.Index), nil

	case "print":
		if len(fields) != 2 {
			return "", fmt.Errorf("tui: usage: print Rn")
		}
		reg, err := parseRegisterName(fields[1])
		if err != nil {
			return "", err
		}
		snap := t.Stepper.Snapshot()
		return fmt.Sprintf("R%d = 0x%08X", reg, snap.Registers[reg]), nil

	default:
		return "", fmt.Errorf("tui: unknown command %q", fields[0])
	}
}

func parseRegisterName(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "R") {
		return 0, fmt.Errorf("tui: register name must look like R0-R15, got %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n > 15 {
		return 0, fmt.Errorf("tui: register name must look like R0-R15, got %q", s)
	}
	return n, nil
}

// WriteOutput appends text to the output panel and scrolls to the end.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text)) // ignore write errors in a terminal UI
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from the stepper's current snapshot.
func (t *TUI) RefreshAll() {
	snap := t.Stepper.Snapshot()
	t.updateRegisterView(snap)
	t.updateMemoryView(snap)
	t.updateKeySafeView(snap)
	t.updateInstView(snap)
	t.App.Draw()
}

func (t *TUI) updateRegisterView(snap stepper.Snapshot) {
	var lines []string
	for row := 0; row < 4; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			r := row*4 + col
			cols = append(cols, fmt.Sprintf("R%-2d: 0x%08X", r, snap.Registers[r]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("PC: %d   Clock: %d   Done: %v", snap.PC, snap.Clock, snap.Done))
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateMemoryView(snap stepper.Snapshot) {
	start := t.MemoryWindowStart
	end := start + memoryWindowWords
	if end > len(snap.DataMemory) {
		end = len(snap.DataMemory)
	}

	var lines []string
	for addr := start; addr < end; addr += 4 {
		var cols []string
		for j := 0; j < 4 && addr+j < end; j++ {
			cols = append(cols, fmt.Sprintf("[%4d] 0x%08X", addr+j, snap.DataMemory[addr+j]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateKeySafeView(snap stepper.Snapshot) {
	var lines []string
	for i, slot := range snap.KeySafe {
		lines = append(lines, fmt.Sprintf("slot %d: low=%08X%08X high=%08X%08X",
			i, slot[0][0], slot[0][1], slot[1][0], slot[1][1]))
	}
	t.KeySafeView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateInstView(snap stepper.Snapshot) {
	var lines []string
	for i, inst := range snap.Instructions {
		marker := "  "
		if i == snap.PC {
			marker = "->"
		}
		if bp := t.Breakpoints.Get(i); bp != nil && bp.Enabled {
			marker = "* "
		}
		line := fmt.Sprintf("%s %4d: %-5s issue=%d readops=%d ex=%d wb=%d",
			marker, i, inst.Op, inst.Issue, inst.ReadOps, inst.ExComplete, inst.WriteBack)
		if inst.Diagnostic != "" {
			line += "  [yellow]" + inst.Diagnostic + "[white]"
		}
		lines = append(lines, line)
	}
	t.InstView.SetText(strings.Join(lines, "\n"))
}

// Start runs the tview event loop until the user quits.
func (t *TUI) Start() error {
	t.RefreshAll()
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}
