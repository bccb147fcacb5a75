package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExecutionState represents the current state of execution
type ExecutionState int

const (
	StateHalted ExecutionState = iota
	StateRunning
	StateBreakpoint
	StateTrapped
	StateError
)

// VM represents the complete emulated machine: one hart plus its memory.
// Executed instructions mutate the hart state through Step; Bootstrap,
// ResetRegisters and a driver delivering a trap set it directly. Memory is
// mutated by store instructions and by the loader at boot.
type VM struct {
	CPU    *CPU
	Memory *Memory
	State  ExecutionState

	// Execution limits and statistics
	CycleLimit     uint64
	InstructionLog []uint32 // History of executed instruction addresses

	// Error handling
	LastError error
	LastTrap  *Trap

	// Runtime environment
	EntryPoint uint32
	StackTop   uint32 // Initial stack pointer value for reset

	// System instruction log destination (defaults to os.Stdout)
	OutputWriter io.Writer

	// Tracing and statistics
	ExecutionTrace *ExecutionTrace
	Statistics     *PerformanceStatistics
	CodeCoverage   *CodeCoverage
}

// NewVM creates a new virtual machine with the default memory size
func NewVM() *VM {
	return NewVMWithMemory(DefaultMemorySize)
}

// NewVMWithMemory creates a new virtual machine with the given memory size
func NewVMWithMemory(memorySize uint32) *VM {
	return &VM{
		CPU:            NewCPU(),
		Memory:         NewMemory(memorySize),
		State:          StateHalted,
		CycleLimit:     DefaultMaxCycles,
		InstructionLog: make([]uint32, 0, DefaultLogCapacity),
		OutputWriter:   os.Stdout,
	}
}

// Reset resets the VM to initial state, clearing memory
func (vm *VM) Reset() {
	vm.CPU.Reset()
	vm.Memory.Reset()
	vm.State = StateHalted
	vm.InstructionLog = vm.InstructionLog[:0]
	vm.LastError = nil
	vm.LastTrap = nil
}

// ResetRegisters resets the hart to boot state, preserving memory contents.
// PC returns to the entry point and the stack pointer to its initial value.
func (vm *VM) ResetRegisters() {
	vm.CPU.Reset()
	vm.CPU.PC = vm.EntryPoint
	if vm.StackTop != 0 {
		vm.CPU.SetSP(vm.StackTop)
	}
	vm.State = StateHalted
	vm.InstructionLog = vm.InstructionLog[:0]
	vm.LastError = nil
	vm.LastTrap = nil
}

// Bootstrap initializes the hart for execution: PC at the entry point and
// x2 at the top of stack
func (vm *VM) Bootstrap(entry, stackTop uint32) {
	vm.EntryPoint = entry
	vm.StackTop = stackTop
	vm.CPU.PC = entry
	vm.CPU.SetSP(stackTop)
	vm.State = StateHalted
}

// Fetch reads the 32-bit instruction word at the current PC. A read outside
// memory bounds is an instruction access fault.
func (vm *VM) Fetch() (uint32, *Trap) {
	word, err := vm.Memory.ReadWord(vm.CPU.PC)
	if err != nil {
		return 0, newMemoryTrap(CauseInstrAccessFault, vm.CPU.PC, vm.CPU.PC)
	}
	return word, nil
}

// Step executes a single instruction: fetch, decode, execute. On a trap the
// returned error is a *Trap, PC is left at the trapping instruction, and no
// architectural state has been modified by the trapping instruction.
func (vm *VM) Step() error {
	if vm.State == StateError {
		return fmt.Errorf("VM is in error state: %w", vm.LastError)
	}

	if vm.CycleLimit > 0 && vm.CPU.Cycles >= vm.CycleLimit {
		vm.State = StateError
		vm.LastError = fmt.Errorf("cycle limit exceeded (%d cycles)", vm.CycleLimit)
		return vm.LastError
	}

	vm.InstructionLog = append(vm.InstructionLog, vm.CPU.PC)

	word, trap := vm.Fetch()
	if trap != nil {
		vm.recordTrap(trap)
		return trap
	}

	inst := Decode(word)

	// Snapshot registers for the execution trace
	var regsBefore [GPRCount]uint32
	if vm.ExecutionTrace != nil && vm.ExecutionTrace.Enabled {
		regsBefore = vm.CPU.X
	}

	pc := vm.CPU.PC
	if err := vm.Execute(inst); err != nil {
		var t *Trap
		if errors.As(err, &t) {
			vm.recordTrap(t)
		} else if vm.State != StateHalted && vm.State != StateBreakpoint {
			vm.State = StateError
			vm.LastError = fmt.Errorf("execute failed at PC=0x%08X: %w", pc, err)
		}
		return err
	}

	vm.CPU.IncrementCycles(1)

	if vm.Statistics != nil && vm.Statistics.Enabled {
		vm.Statistics.RecordInstruction(inst.Op.Mnemonic())
	}
	if vm.CodeCoverage != nil && vm.CodeCoverage.Enabled {
		vm.CodeCoverage.RecordExecution(pc)
	}
	if vm.ExecutionTrace != nil && vm.ExecutionTrace.Enabled {
		vm.ExecutionTrace.Record(vm.CPU.Cycles, pc, inst, regsBefore, vm.CPU.X)
	}

	return nil
}

// recordTrap notes a trap without delivering it; delivery policy belongs to
// the driver
func (vm *VM) recordTrap(t *Trap) {
	vm.State = StateTrapped
	vm.LastTrap = t
	if vm.Statistics != nil && vm.Statistics.Enabled {
		vm.Statistics.RecordTrap(CauseName(t.Cause))
	}
}

// Execute dispatches a decoded instruction to its family handler. The
// handlers never leave partial writeback behind: any trap is raised before
// the first mutation of hart or memory state.
func (vm *VM) Execute(inst Instruction) error {
	switch inst.Op {
	case OpADD, OpSUB, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpSRA, OpOR, OpAND:
		return ExecuteOp(vm, inst)
	case OpADDI, OpSLTI, OpSLTIU, OpXORI, OpORI, OpANDI, OpSLLI, OpSRLI, OpSRAI:
		return ExecuteOpImm(vm, inst)
	case OpLUI, OpAUIPC:
		return ExecuteUpperImm(vm, inst)
	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return ExecuteLoad(vm, inst)
	case OpSB, OpSH, OpSW:
		return ExecuteStore(vm, inst)
	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return ExecuteBranch(vm, inst)
	case OpJAL, OpJALR:
		return ExecuteJump(vm, inst)
	case OpECALL, OpEBREAK, OpSRET, OpWFI, OpFENCE, OpFENCEI:
		return ExecuteSystem(vm, inst)
	case OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return ExecuteCSR(vm, inst)
	default:
		return newTrap(CauseIllegalInstruction, vm.CPU.PC)
	}
}

// Run executes instructions until a trap, an error, or a state change
// (halt, breakpoint)
func (vm *VM) Run() error {
	vm.State = StateRunning

	for vm.State == StateRunning {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// GetInstructionHistory returns the history of executed instruction addresses
func (vm *VM) GetInstructionHistory() []uint32 {
	return vm.InstructionLog
}

// DumpState returns a one-line representation of the hart state for debugging
func (vm *VM) DumpState() string {
	return fmt.Sprintf("PC=0x%08X SP=0x%08X RA=0x%08X Cycles=%d State=%v",
		vm.CPU.PC, vm.CPU.GetSP(), vm.CPU.GetRegister(RegRA), vm.CPU.Cycles, vm.State)
}
