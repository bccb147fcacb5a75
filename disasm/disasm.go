// Package disasm formats decoded RV32I instructions as conventional
// assembly text for traces, logs and the debugger views.
package disasm

import (
	"fmt"

	"github.com/hartsim/riscv-emulator/vm"
)

// Format renders a decoded instruction as RV32I assembly. Registers use the
// plain x-names, immediates are printed signed (hex for the upper-immediate
// forms), and the supervisor CSRs appear under their specification names.
// Unrecognized words come out as a .word directive.
func Format(inst vm.Instruction) string {
	mnemonic := inst.Op.Mnemonic()
	rd := vm.RegisterName(inst.Rd)
	rs1 := vm.RegisterName(inst.Rs1)
	rs2 := vm.RegisterName(inst.Rs2)

	switch inst.Op {
	case vm.OpADD, vm.OpSUB, vm.OpSLL, vm.OpSLT, vm.OpSLTU,
		vm.OpXOR, vm.OpSRL, vm.OpSRA, vm.OpOR, vm.OpAND:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic, rd, rs1, rs2)

	case vm.OpADDI, vm.OpSLTI, vm.OpSLTIU, vm.OpXORI, vm.OpORI, vm.OpANDI:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, rd, rs1, inst.Imm)

	case vm.OpSLLI, vm.OpSRLI, vm.OpSRAI:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, rd, rs1, inst.Imm&vm.ShiftAmountMask)

	case vm.OpLB, vm.OpLH, vm.OpLW, vm.OpLBU, vm.OpLHU:
		return fmt.Sprintf("%s %s, %d(%s)", mnemonic, rd, inst.Imm, rs1)

	case vm.OpSB, vm.OpSH, vm.OpSW:
		return fmt.Sprintf("%s %s, %d(%s)", mnemonic, rs2, inst.Imm, rs1)

	case vm.OpBEQ, vm.OpBNE, vm.OpBLT, vm.OpBGE, vm.OpBLTU, vm.OpBGEU:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, rs1, rs2, inst.Imm)

	case vm.OpLUI, vm.OpAUIPC:
		return fmt.Sprintf("%s %s, 0x%X", mnemonic, rd, uint32(inst.Imm)&0xFFFFF)

	case vm.OpJAL:
		return fmt.Sprintf("%s %s, %d", mnemonic, rd, inst.Imm)

	case vm.OpJALR:
		return fmt.Sprintf("%s %s, %d(%s)", mnemonic, rd, inst.Imm, rs1)

	case vm.OpECALL, vm.OpEBREAK, vm.OpSRET, vm.OpWFI, vm.OpFENCE, vm.OpFENCEI:
		return mnemonic

	case vm.OpCSRRW, vm.OpCSRRS, vm.OpCSRRC:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic, rd, vm.CSRName(inst.CSR), rs1)

	case vm.OpCSRRWI, vm.OpCSRRSI, vm.OpCSRRCI:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, rd, vm.CSRName(inst.CSR), inst.Imm)

	default:
		return fmt.Sprintf(".word 0x%08X", inst.Raw)
	}
}

// FormatWord decodes and formats a raw instruction word
func FormatWord(word uint32) string {
	return Format(vm.Decode(word))
}

// FormatAt renders an address-prefixed line of the form used by the trace
// and the debugger disassembly pane
func FormatAt(address, word uint32) string {
	return fmt.Sprintf("0x%08X:  %08X  %s", address, word, FormatWord(word))
}
