package debugger

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/hartsim/riscv-emulator/disasm"
	"github.com/hartsim/riscv-emulator/vm"
)

// TUI represents the text user interface for the debugger
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	// Layout containers
	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	// View panels
	RegisterView    *tview.TextView
	DisassemblyView *tview.TextView
	MemoryView      *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	// State
	MemoryAddress uint32
}

// NewTUI creates a new text user interface around a debugger
func NewTUI(debugger *Debugger) *TUI {
	tui := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication(),
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()
	tui.updateAll()

	return tui
}

// initializeViews creates all the view panels
func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.DisassemblyView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.MemoryView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("(dbg) ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(false)
	t.CommandInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		t.executeCommand(t.CommandInput.GetText())
		t.CommandInput.SetText("")
	})
}

// buildLayout arranges the panels: disassembly and memory on the left,
// registers and output on the right, command input along the bottom
func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 2, false).
		AddItem(t.MemoryView, 0, 1, false)

	t.RightPanel = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 12, 0, false).
		AddItem(t.OutputView, 0, 1, false)

	body := tview.NewFlex().
		AddItem(t.LeftPanel, 0, 3, false).
		AddItem(t.RightPanel, 0, 2, false)

	t.MainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(t.CommandInput, 1, 0, true)
}

// setupKeyBindings installs the global function-key shortcuts
func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF10:
			t.executeCommand("step")
			return nil
		case tcell.KeyUp:
			t.CommandInput.SetText(t.Debugger.History.Previous())
			return nil
		case tcell.KeyDown:
			t.CommandInput.SetText(t.Debugger.History.Next())
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		}
		return event
	})
}

// executeCommand runs a debugger command and refreshes the views
func (t *TUI) executeCommand(cmdLine string) {
	if cmdLine == "quit" || cmdLine == "q" {
		t.App.Stop()
		return
	}

	if err := t.Debugger.ExecuteCommand(cmdLine); err != nil {
		fmt.Fprintf(t.OutputView, "error: %v\n", err)
	}
	if out := t.Debugger.GetOutput(); out != "" {
		fmt.Fprint(t.OutputView, out)
	}
	t.OutputView.ScrollToEnd()
	t.updateAll()
}

// updateAll refreshes every panel from the current VM state
func (t *TUI) updateAll() {
	t.updateRegisters()
	t.updateDisassembly()
	t.updateMemory()
}

// updateRegisters refreshes the register pane
func (t *TUI) updateRegisters() {
	t.RegisterView.Clear()
	fmt.Fprint(t.RegisterView, FormatRegisters(t.Debugger.VM))
}

// updateDisassembly refreshes the disassembly pane around the current PC
func (t *TUI) updateDisassembly() {
	t.DisassemblyView.Clear()
	machine := t.Debugger.VM

	start := machine.CPU.PC
	const context = 4
	if start >= context*vm.InstructionSize {
		start -= context * vm.InstructionSize
	} else {
		start = 0
	}

	for i := 0; i < 16; i++ {
		addr := start + uint32(i*vm.InstructionSize)
		word, err := machine.Memory.ReadWord(addr)
		if err != nil {
			break
		}
		marker := "  "
		if addr == machine.CPU.PC {
			marker = "[yellow]=>[-]"
		} else if bp := t.Debugger.Breakpoints.GetBreakpoint(addr); bp != nil && bp.Enabled {
			marker = "[red]* [-]"
		}
		fmt.Fprintf(t.DisassemblyView, "%s %s\n", marker, disasm.FormatAt(addr, word))
	}
}

// updateMemory refreshes the memory pane at the currently examined address
func (t *TUI) updateMemory() {
	t.MemoryView.Clear()
	machine := t.Debugger.VM

	const bytesPerLine = 16
	for row := 0; row < 8; row++ {
		addr := t.MemoryAddress + uint32(row*bytesPerLine)
		data, err := machine.Memory.GetBytes(addr, bytesPerLine)
		if err != nil {
			break
		}
		fmt.Fprintf(t.MemoryView, "0x%08X: ", addr)
		for _, b := range data {
			fmt.Fprintf(t.MemoryView, "%02X ", b)
		}
		fmt.Fprintln(t.MemoryView)
	}
}

// SetMemoryAddress points the memory pane at a new address
func (t *TUI) SetMemoryAddress(addr uint32) {
	t.MemoryAddress = addr
	t.updateMemory()
}

// Run starts the TUI event loop; it blocks until the user quits
func (t *TUI) Run() error {
	fmt.Fprintln(t.OutputView, "RISC-V emulator debugger. F5=continue F10=step, 'help' for commands.")
	t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput)
	return t.App.Run()
}
