package debugger

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hartsim/riscv-emulator/disasm"
	"github.com/hartsim/riscv-emulator/vm"
)

// Command handler implementations

// cmdRun restarts the program from the entry point and runs to the next stop
func (d *Debugger) cmdRun(args []string) error {
	d.VM.ResetRegisters()
	d.Println("Starting program execution...")
	return d.resume()
}

// cmdContinue continues execution from the current point
func (d *Debugger) cmdContinue(args []string) error {
	if d.VM.State == vm.StateError {
		return fmt.Errorf("program is in error state")
	}
	return d.resume()
}

// cmdStep executes a single instruction and reports it
func (d *Debugger) cmdStep(args []string) error {
	pc := d.VM.CPU.PC
	if err := d.step(); err != nil {
		return nil // already reported
	}
	if word, err := d.VM.Memory.ReadWord(pc); err == nil {
		d.Printf("%s\n", disasm.FormatAt(pc, word))
	}
	return nil
}

// step executes one instruction, reporting traps and errors to the output
// buffer rather than failing the command
func (d *Debugger) step() error {
	err := d.VM.Step()
	if err == nil {
		return nil
	}

	var trap *vm.Trap
	if errors.As(err, &trap) {
		d.Printf("Trap: %s at PC=0x%08X\n", vm.CauseName(trap.Cause), trap.PC)
		if trap.HasFault {
			d.Printf("  faulting address: 0x%08X\n", trap.FaultAddr)
		}
	} else {
		d.Printf("Execution error: %v\n", err)
	}
	return err
}

// resume steps until a breakpoint, a trap, or an error
func (d *Debugger) resume() error {
	d.Running = true
	d.VM.State = vm.StateRunning

	// Step off the current address first so that continuing from a
	// breakpoint does not immediately re-break on it
	if err := d.step(); err != nil {
		d.Running = false
		return nil
	}

	for {
		if brk, reason := d.ShouldBreak(); brk {
			d.Printf("Stopped (%s) at PC=0x%08X\n", reason, d.VM.CPU.PC)
			d.VM.State = vm.StateBreakpoint
			d.Running = false
			return nil
		}
		if err := d.step(); err != nil {
			d.Running = false
			return nil
		}
	}
}

// cmdBreak sets a breakpoint: break <address|symbol>
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: break <address|symbol>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.AddBreakpoint(addr, false)
	d.Printf("Breakpoint %d at 0x%08X\n", bp.ID, bp.Address)
	return nil
}

// cmdDelete removes a breakpoint by ID
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Deleted breakpoint %d\n", id)
	return nil
}

// cmdEnable re-enables a breakpoint by ID
func (d *Debugger) cmdEnable(args []string) error {
	return d.setBreakpointEnabled(args, true)
}

// cmdDisable disables a breakpoint by ID
func (d *Debugger) cmdDisable(args []string) error {
	return d.setBreakpointEnabled(args, false)
}

func (d *Debugger) setBreakpointEnabled(args []string, enabled bool) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: enable|disable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	return d.Breakpoints.SetEnabled(id, enabled)
}

// cmdRegisters prints the register file and PC
func (d *Debugger) cmdRegisters(args []string) error {
	d.Printf("%s\n", FormatRegisters(d.VM))
	return nil
}

// cmdCSR prints the supervisor CSR bank
func (d *Debugger) cmdCSR(args []string) error {
	for _, addr := range vm.KnownCSRs() {
		value, err := d.VM.CPU.CSR.Read(addr)
		if err != nil {
			return err
		}
		d.Printf("%-12s (0x%03X) = 0x%08X\n", vm.CSRName(addr), addr, value)
	}
	return nil
}

// cmdExamine dumps memory: x <address|symbol> [count]
func (d *Debugger) cmdExamine(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: x <address|symbol> [count]")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	count := uint32(64)
	if len(args) > 1 {
		n, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[1])
		}
		count = uint32(n)
	}

	data, err := d.VM.Memory.GetBytes(addr, count)
	if err != nil {
		return fmt.Errorf("cannot read memory at 0x%08X: %w", addr, err)
	}

	const bytesPerLine = 16
	for i := 0; i < len(data); i += bytesPerLine {
		d.Printf("0x%08X: ", addr+uint32(i))
		for j := 0; j < bytesPerLine && i+j < len(data); j++ {
			d.Printf("%02X ", data[i+j])
		}
		d.Printf("\n")
	}
	return nil
}

// cmdDisasm disassembles memory: disasm [address|symbol] [count]
func (d *Debugger) cmdDisasm(args []string) error {
	addr := d.VM.CPU.PC
	if len(args) > 0 {
		a, err := d.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		addr = a
	}
	count := 8
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[1])
		}
		count = n
	}

	for i := 0; i < count; i++ {
		a := addr + uint32(i*vm.InstructionSize)
		word, err := d.VM.Memory.ReadWord(a)
		if err != nil {
			d.Printf("0x%08X: <out of bounds>\n", a)
			break
		}
		marker := "  "
		if a == d.VM.CPU.PC {
			marker = "=>"
		} else if bp := d.Breakpoints.GetBreakpoint(a); bp != nil && bp.Enabled {
			marker = "* "
		}
		d.Printf("%s %s\n", marker, disasm.FormatAt(a, word))
	}
	return nil
}

// cmdInfo shows debugger state: info breakpoints
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) < 1 || args[0] == "breakpoints" || args[0] == "break" {
		bps := d.Breakpoints.List()
		if len(bps) == 0 {
			d.Println("No breakpoints set")
			return nil
		}
		d.Println("Num  Address     Enabled  Hits")
		for _, bp := range bps {
			d.Printf("%-4d 0x%08X  %-7t  %d\n", bp.ID, bp.Address, bp.Enabled, bp.HitCount)
		}
		return nil
	}
	return fmt.Errorf("unknown info target: %s", args[0])
}

// cmdReset returns the hart to its boot state, keeping memory intact
func (d *Debugger) cmdReset(args []string) error {
	d.VM.ResetRegisters()
	d.Printf("Reset: PC=0x%08X SP=0x%08X\n", d.VM.CPU.PC, d.VM.CPU.GetSP())
	return nil
}

// cmdHelp prints command help
func (d *Debugger) cmdHelp(args []string) error {
	d.Println(`Commands:
  run, r              restart from the entry point
  continue, c         continue execution
  step, s             execute one instruction
  break, b <addr>     set breakpoint
  delete, d <id>      delete breakpoint
  enable <id>         enable breakpoint
  disable <id>        disable breakpoint
  registers, regs     show registers
  csr                 show supervisor CSRs
  x <addr> [n]        dump n bytes of memory
  disasm [addr] [n]   disassemble n instructions
  info breakpoints    list breakpoints
  reset               reset hart to boot state
  help, ?             this help
  quit, q             leave the debugger (TUI)`)
	return nil
}

// FormatRegisters renders the register file in four columns plus the PC,
// shared by the command interpreter and the TUI register pane
func FormatRegisters(machine *vm.VM) string {
	var out string
	for row := 0; row < 8; row++ {
		for col := 0; col < 4; col++ {
			reg := row + col*8
			out += fmt.Sprintf("%-4s 0x%08X   ", vm.RegisterName(reg), machine.CPU.GetRegister(reg))
		}
		out += "\n"
	}
	out += fmt.Sprintf("pc   0x%08X   cycles %d", machine.CPU.PC, machine.CPU.Cycles)
	return out
}
