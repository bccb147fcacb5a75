package vm

import (
	"errors"
	"fmt"
)

// ExecuteSystem executes ECALL, EBREAK, SRET, WFI, FENCE and FENCE.I. None
// of these currently transfer control: each is logged to the VM's output
// writer and the PC advances. WFI has no interrupt source to wait for, and
// the fences are hints with nothing to order on a single in-order hart. The
// environment-call and breakpoint trap codes exist in the cause set for
// drivers that layer their own ECALL handling on top.
func ExecuteSystem(vm *VM, inst Instruction) error {
	switch inst.Op {
	case OpECALL:
		fmt.Fprintf(vm.OutputWriter, "ecall at PC=0x%08X (a7=%d, a0=0x%08X)\n",
			vm.CPU.PC, vm.CPU.GetRegister(17), vm.CPU.GetRegister(RegA0))
	case OpEBREAK:
		fmt.Fprintf(vm.OutputWriter, "ebreak at PC=0x%08X\n", vm.CPU.PC)
	case OpSRET:
		fmt.Fprintf(vm.OutputWriter, "sret at PC=0x%08X (sepc=0x%08X)\n",
			vm.CPU.PC, vm.mustReadCSR(CSRSepc))
	case OpWFI:
		fmt.Fprintf(vm.OutputWriter, "wfi at PC=0x%08X\n", vm.CPU.PC)
	case OpFENCE, OpFENCEI:
		// Synchronization hints; nothing to order
	}

	vm.CPU.IncrementPC()
	return nil
}

// mustReadCSR reads a CSR known to be in the supervisor bank
func (vm *VM) mustReadCSR(addr uint16) uint32 {
	v, _ := vm.CPU.CSR.Read(addr)
	return v
}

// ExecuteCSR executes the six Zicsr instructions. The register forms take
// their source from rs1; the immediate forms use the zero-extended 5-bit
// immediate the decoder extracted from the rs1 field. The CSR's
// pre-operation value lands in rd. An unknown CSR address traps with the
// CSR bank and rd untouched.
func ExecuteCSR(vm *VM, inst Instruction) error {
	var source uint32
	switch inst.Op {
	case OpCSRRW, OpCSRRS, OpCSRRC:
		source = vm.CPU.GetRegister(inst.Rs1)
	case OpCSRRWI, OpCSRRSI, OpCSRRCI:
		source = uint32(inst.Imm)
	}

	var old uint32
	var err error
	switch inst.Op {
	case OpCSRRW, OpCSRRWI:
		old, err = vm.CPU.CSR.ReadWrite(inst.CSR, source)
	case OpCSRRS, OpCSRRSI:
		old, err = vm.CPU.CSR.ReadSet(inst.CSR, source)
	case OpCSRRC, OpCSRRCI:
		old, err = vm.CPU.CSR.ReadClear(inst.CSR, source)
	}
	if err != nil {
		var unknown *ErrUnknownCSR
		if errors.As(err, &unknown) {
			return newTrap(CauseIllegalInstruction, vm.CPU.PC)
		}
		return err
	}

	vm.CPU.SetRegister(inst.Rd, old)
	vm.CPU.IncrementPC()
	return nil
}
