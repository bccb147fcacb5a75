// Package encoder assembles decoded instruction forms back into RV32I
// machine words. It is the inverse of vm.Decode for every recognized
// encoding; tests and fixed instruction sequences use it to produce
// known-good words.
package encoder

import (
	"fmt"

	"github.com/hartsim/riscv-emulator/vm"
)

// funct3/funct7 selectors per mnemonic
var rTypeFuncts = map[vm.Op]struct{ funct3, funct7 uint32 }{
	vm.OpADD:  {0b000, 0b0000000},
	vm.OpSUB:  {0b000, 0b0100000},
	vm.OpSLL:  {0b001, 0b0000000},
	vm.OpSLT:  {0b010, 0b0000000},
	vm.OpSLTU: {0b011, 0b0000000},
	vm.OpXOR:  {0b100, 0b0000000},
	vm.OpSRL:  {0b101, 0b0000000},
	vm.OpSRA:  {0b101, 0b0100000},
	vm.OpOR:   {0b110, 0b0000000},
	vm.OpAND:  {0b111, 0b0000000},
}

var iTypeFunct3 = map[vm.Op]uint32{
	vm.OpADDI:  0b000,
	vm.OpSLTI:  0b010,
	vm.OpSLTIU: 0b011,
	vm.OpXORI:  0b100,
	vm.OpORI:   0b110,
	vm.OpANDI:  0b111,
}

var loadFunct3 = map[vm.Op]uint32{
	vm.OpLB:  0b000,
	vm.OpLH:  0b001,
	vm.OpLW:  0b010,
	vm.OpLBU: 0b100,
	vm.OpLHU: 0b101,
}

var storeFunct3 = map[vm.Op]uint32{
	vm.OpSB: 0b000,
	vm.OpSH: 0b001,
	vm.OpSW: 0b010,
}

var branchFunct3 = map[vm.Op]uint32{
	vm.OpBEQ:  0b000,
	vm.OpBNE:  0b001,
	vm.OpBLT:  0b100,
	vm.OpBGE:  0b101,
	vm.OpBLTU: 0b110,
	vm.OpBGEU: 0b111,
}

var csrFunct3 = map[vm.Op]uint32{
	vm.OpCSRRW:  0b001,
	vm.OpCSRRS:  0b010,
	vm.OpCSRRC:  0b011,
	vm.OpCSRRWI: 0b101,
	vm.OpCSRRSI: 0b110,
	vm.OpCSRRCI: 0b111,
}

func checkRegister(name string, reg int) error {
	if reg < 0 || reg >= vm.GPRCount {
		return fmt.Errorf("register index %d out of range for %s", reg, name)
	}
	return nil
}

func checkImmRange(imm int32, min, max int32) error {
	if imm < min || imm > max {
		return fmt.Errorf("immediate %d outside range [%d, %d]", imm, min, max)
	}
	return nil
}

// Encode assembles a decoded instruction into its 32-bit machine word.
// Register indices and immediates are range-checked; branch and JAL offsets
// must be even.
func Encode(inst vm.Instruction) (uint32, error) {
	if err := checkRegister("rd", inst.Rd); err != nil {
		return 0, err
	}
	if err := checkRegister("rs1", inst.Rs1); err != nil {
		return 0, err
	}
	if err := checkRegister("rs2", inst.Rs2); err != nil {
		return 0, err
	}

	rd := uint32(inst.Rd)
	rs1 := uint32(inst.Rs1)
	rs2 := uint32(inst.Rs2)

	if f, ok := rTypeFuncts[inst.Op]; ok {
		return f.funct7<<25 | rs2<<20 | rs1<<15 | f.funct3<<12 | rd<<7 | vm.OpcodeOp, nil
	}

	switch inst.Op {
	case vm.OpADDI, vm.OpSLTI, vm.OpSLTIU, vm.OpXORI, vm.OpORI, vm.OpANDI:
		if err := checkImmRange(inst.Imm, -2048, 2047); err != nil {
			return 0, err
		}
		f3 := iTypeFunct3[inst.Op]
		return uint32(inst.Imm)&vm.Mask12Bit<<20 | rs1<<15 | f3<<12 | rd<<7 | vm.OpcodeOpImm, nil

	case vm.OpSLLI, vm.OpSRLI, vm.OpSRAI:
		if err := checkImmRange(inst.Imm, 0, 31); err != nil {
			return 0, err
		}
		shamt := uint32(inst.Imm) & vm.ShiftAmountMask
		var funct3, funct7 uint32
		switch inst.Op {
		case vm.OpSLLI:
			funct3 = 0b001
		case vm.OpSRLI:
			funct3 = 0b101
		case vm.OpSRAI:
			funct3, funct7 = 0b101, 0b0100000
		}
		return funct7<<25 | shamt<<20 | rs1<<15 | funct3<<12 | rd<<7 | vm.OpcodeOpImm, nil

	case vm.OpLB, vm.OpLH, vm.OpLW, vm.OpLBU, vm.OpLHU:
		if err := checkImmRange(inst.Imm, -2048, 2047); err != nil {
			return 0, err
		}
		f3 := loadFunct3[inst.Op]
		return uint32(inst.Imm)&vm.Mask12Bit<<20 | rs1<<15 | f3<<12 | rd<<7 | vm.OpcodeLoad, nil

	case vm.OpSB, vm.OpSH, vm.OpSW:
		if err := checkImmRange(inst.Imm, -2048, 2047); err != nil {
			return 0, err
		}
		imm := uint32(inst.Imm) & vm.Mask12Bit
		return imm>>5<<25 | rs2<<20 | rs1<<15 | storeFunct3[inst.Op]<<12 |
			(imm&vm.Mask5Bit)<<7 | vm.OpcodeStore, nil

	case vm.OpBEQ, vm.OpBNE, vm.OpBLT, vm.OpBGE, vm.OpBLTU, vm.OpBGEU:
		if err := checkImmRange(inst.Imm, -4096, 4094); err != nil {
			return 0, err
		}
		if inst.Imm&1 != 0 {
			return 0, fmt.Errorf("branch offset %d is odd", inst.Imm)
		}
		imm := uint32(inst.Imm)
		return (imm>>12&1)<<31 | (imm>>5&0x3F)<<25 | rs2<<20 | rs1<<15 |
			branchFunct3[inst.Op]<<12 | (imm>>1&0xF)<<8 | (imm>>11&1)<<7 |
			vm.OpcodeBranch, nil

	case vm.OpLUI, vm.OpAUIPC:
		if err := checkImmRange(inst.Imm, -524288, 524287); err != nil {
			return 0, err
		}
		opcode := uint32(vm.OpcodeLUI)
		if inst.Op == vm.OpAUIPC {
			opcode = vm.OpcodeAUIPC
		}
		return uint32(inst.Imm)&0xFFFFF<<12 | rd<<7 | opcode, nil

	case vm.OpJAL:
		if err := checkImmRange(inst.Imm, -1048576, 1048574); err != nil {
			return 0, err
		}
		if inst.Imm&1 != 0 {
			return 0, fmt.Errorf("jump offset %d is odd", inst.Imm)
		}
		imm := uint32(inst.Imm)
		return (imm>>20&1)<<31 | (imm>>1&0x3FF)<<21 | (imm>>11&1)<<20 |
			(imm>>12&0xFF)<<12 | rd<<7 | vm.OpcodeJAL, nil

	case vm.OpJALR:
		if err := checkImmRange(inst.Imm, -2048, 2047); err != nil {
			return 0, err
		}
		return uint32(inst.Imm)&vm.Mask12Bit<<20 | rs1<<15 | rd<<7 | vm.OpcodeJALR, nil

	case vm.OpECALL:
		return uint32(vm.Funct12ECall)<<20 | vm.OpcodeSystem, nil
	case vm.OpEBREAK:
		return uint32(vm.Funct12EBreak)<<20 | vm.OpcodeSystem, nil
	case vm.OpSRET:
		return uint32(vm.Funct12SRet)<<20 | vm.OpcodeSystem, nil
	case vm.OpWFI:
		return uint32(vm.Funct12WFI)<<20 | vm.OpcodeSystem, nil

	case vm.OpFENCE:
		return vm.OpcodeFence, nil
	case vm.OpFENCEI:
		return 1<<12 | vm.OpcodeFence, nil

	case vm.OpCSRRW, vm.OpCSRRS, vm.OpCSRRC:
		return uint32(inst.CSR)<<20 | rs1<<15 | csrFunct3[inst.Op]<<12 | rd<<7 |
			vm.OpcodeSystem, nil

	case vm.OpCSRRWI, vm.OpCSRRSI, vm.OpCSRRCI:
		if err := checkImmRange(inst.Imm, 0, 31); err != nil {
			return 0, err
		}
		return uint32(inst.CSR)<<20 | uint32(inst.Imm)<<15 | csrFunct3[inst.Op]<<12 |
			rd<<7 | vm.OpcodeSystem, nil
	}

	return 0, fmt.Errorf("cannot encode op %q", inst.Op.Mnemonic())
}

// MustEncode encodes an instruction and panics on invalid fields; intended
// for tests and fixed instruction sequences
func MustEncode(inst vm.Instruction) uint32 {
	word, err := Encode(inst)
	if err != nil {
		panic(err)
	}
	return word
}
