package debugger_test

import (
	"io"
	"strings"
	"testing"

	"github.com/hartsim/riscv-emulator/debugger"
	"github.com/hartsim/riscv-emulator/encoder"
	"github.com/hartsim/riscv-emulator/vm"
)

// newTestDebugger loads a small counting loop and returns a debugger over it:
//
//	0x00: addi x1, x0, 5
//	0x04: addi x2, x2, 1
//	0x08: bne  x2, x1, -4
//	0x0C: ebreak
func newTestDebugger(t *testing.T) *debugger.Debugger {
	t.Helper()

	machine := vm.NewVMWithMemory(1 << 16)
	machine.OutputWriter = io.Discard
	program := []vm.Instruction{
		{Op: vm.OpADDI, Rd: 1, Rs1: 0, Imm: 5},
		{Op: vm.OpADDI, Rd: 2, Rs1: 2, Imm: 1},
		{Op: vm.OpBNE, Rs1: 2, Rs2: 1, Imm: -4},
		{Op: vm.OpEBREAK},
	}
	for i, inst := range program {
		if err := machine.Memory.WriteWord(uint32(i*4), encoder.MustEncode(inst)); err != nil {
			t.Fatalf("Failed to write program: %v", err)
		}
	}
	// Memory past the program is zero, which decodes as an unknown
	// instruction and stops free runs with a trap
	machine.Bootstrap(0, 0xFF00)

	return debugger.NewDebugger(machine)
}

func TestCmdStep(t *testing.T) {
	d := newTestDebugger(t)

	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if d.VM.CPU.X[1] != 5 {
		t.Errorf("Expected x1=5 after first step, got %d", d.VM.CPU.X[1])
	}
	if d.VM.CPU.PC != 4 {
		t.Errorf("Expected PC=4, got 0x%08X", d.VM.CPU.PC)
	}
	if !strings.Contains(d.GetOutput(), "addi") {
		t.Error("Expected stepped instruction in output")
	}
}

func TestEmptyCommandRepeatsLast(t *testing.T) {
	d := newTestDebugger(t)

	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := d.ExecuteCommand(""); err != nil {
		t.Fatalf("empty command failed: %v", err)
	}
	if d.VM.CPU.PC != 8 {
		t.Errorf("Expected PC=8 after repeated step, got 0x%08X", d.VM.CPU.PC)
	}
}

func TestBreakpointStopsExecution(t *testing.T) {
	d := newTestDebugger(t)

	if err := d.ExecuteCommand("break 0x8"); err != nil {
		t.Fatalf("break failed: %v", err)
	}
	if err := d.ExecuteCommand("continue"); err != nil {
		t.Fatalf("continue failed: %v", err)
	}
	if d.VM.CPU.PC != 8 {
		t.Errorf("Expected stop at breakpoint 0x8, got PC=0x%08X", d.VM.CPU.PC)
	}
	if !strings.Contains(d.GetOutput(), "breakpoint") {
		t.Error("Expected breakpoint stop message")
	}

	// Continuing runs the loop once more back to the breakpoint
	if err := d.ExecuteCommand("continue"); err != nil {
		t.Fatalf("second continue failed: %v", err)
	}
	if d.VM.CPU.PC != 8 {
		t.Errorf("Expected second stop at 0x8, got PC=0x%08X", d.VM.CPU.PC)
	}
}

func TestSymbolResolution(t *testing.T) {
	d := newTestDebugger(t)
	d.LoadSymbols(map[string]uint32{"loop": 0x4})

	addr, err := d.ResolveAddress("loop")
	if err != nil {
		t.Fatalf("ResolveAddress failed: %v", err)
	}
	if addr != 4 {
		t.Errorf("Expected 4, got %d", addr)
	}

	addr, err = d.ResolveAddress("0x10")
	if err != nil {
		t.Fatalf("ResolveAddress failed: %v", err)
	}
	if addr != 16 {
		t.Errorf("Expected 16, got %d", addr)
	}

	addr, err = d.ResolveAddress("32")
	if err != nil {
		t.Fatalf("ResolveAddress failed: %v", err)
	}
	if addr != 32 {
		t.Errorf("Expected 32, got %d", addr)
	}

	if _, err := d.ResolveAddress("bogus!"); err == nil {
		t.Error("Expected error for unresolvable address")
	}
}

func TestCmdRegisters(t *testing.T) {
	d := newTestDebugger(t)
	d.VM.CPU.X[1] = 0xDEAD

	if err := d.ExecuteCommand("registers"); err != nil {
		t.Fatalf("registers failed: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "0x0000DEAD") {
		t.Errorf("Expected x1 value in output, got %q", out)
	}
	if !strings.Contains(out, "pc") {
		t.Errorf("Expected pc in output, got %q", out)
	}
}

func TestCmdCSR(t *testing.T) {
	d := newTestDebugger(t)
	d.VM.CPU.CSR.MustWrite(vm.CSRStvec, 0x1234)

	if err := d.ExecuteCommand("csr"); err != nil {
		t.Fatalf("csr failed: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "stvec") || !strings.Contains(out, "0x00001234") {
		t.Errorf("Expected stvec value in output, got %q", out)
	}
}

func TestCmdExamine(t *testing.T) {
	d := newTestDebugger(t)
	if err := d.VM.Memory.WriteWord(0x40, 0xAABBCCDD); err != nil {
		t.Fatalf("Memory setup failed: %v", err)
	}

	if err := d.ExecuteCommand("x 0x40 4"); err != nil {
		t.Fatalf("x failed: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "DD CC BB AA") {
		t.Errorf("Expected little-endian bytes in dump, got %q", out)
	}
}

func TestCmdDisasm(t *testing.T) {
	d := newTestDebugger(t)

	if err := d.ExecuteCommand("disasm 0 4"); err != nil {
		t.Fatalf("disasm failed: %v", err)
	}
	out := d.GetOutput()
	if !strings.Contains(out, "addi x1, x0, 5") {
		t.Errorf("Expected first instruction in disassembly, got %q", out)
	}
	if !strings.Contains(out, "=>") {
		t.Errorf("Expected PC marker, got %q", out)
	}
}

func TestCmdInfoBreakpoints(t *testing.T) {
	d := newTestDebugger(t)

	if err := d.ExecuteCommand("info breakpoints"); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if !strings.Contains(d.GetOutput(), "No breakpoints") {
		t.Error("Expected empty breakpoint list message")
	}

	if err := d.ExecuteCommand("break 0x4"); err != nil {
		t.Fatalf("break failed: %v", err)
	}
	d.GetOutput()
	if err := d.ExecuteCommand("info breakpoints"); err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if !strings.Contains(d.GetOutput(), "0x00000004") {
		t.Error("Expected breakpoint address in list")
	}
}

func TestUnknownCommand(t *testing.T) {
	d := newTestDebugger(t)
	if err := d.ExecuteCommand("frobnicate"); err == nil {
		t.Error("Expected error for unknown command")
	}
}

func TestCommandHistory(t *testing.T) {
	h := debugger.NewCommandHistory()

	h.Add("step")
	h.Add("step") // consecutive duplicate collapses
	h.Add("registers")

	if len(h.All()) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(h.All()))
	}
	if got := h.Previous(); got != "registers" {
		t.Errorf("Expected 'registers', got %q", got)
	}
	if got := h.Previous(); got != "step" {
		t.Errorf("Expected 'step', got %q", got)
	}
	if got := h.Next(); got != "registers" {
		t.Errorf("Expected 'registers', got %q", got)
	}
	if got := h.Next(); got != "" {
		t.Errorf("Expected empty past newest, got %q", got)
	}
}
