package vm

// Op identifies a decoded RV32I instruction
type Op int

const (
	OpUnknown Op = iota

	// Register-register ALU
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// Register-immediate ALU
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	// Loads
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	// Stores
	OpSB
	OpSH
	OpSW

	// Branches
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// Upper immediate
	OpLUI
	OpAUIPC

	// Jumps
	OpJAL
	OpJALR

	// System
	OpECALL
	OpEBREAK
	OpSRET
	OpWFI
	OpFENCE
	OpFENCEI
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
)

// Instruction is a decoded RV32I instruction. Only the fields the Op needs
// carry meaning: register indices are pre-masked to 5 bits, CSR is the 12-bit
// CSR address, and Imm is the immediate sign-extended to its natural width
// (zero-extended for the CSR immediate forms).
type Instruction struct {
	Raw uint32 // original instruction word
	Op  Op
	Rd  int
	Rs1 int
	Rs2 int
	Imm int32
	CSR uint16
}

// Immediate extraction per the RV32I base encoding. Each helper assembles the
// scattered immediate bits and sign-extends via an arithmetic shift.

// immI extracts the 12-bit sign-extended I-type immediate (bits [31:20])
func immI(word uint32) int32 {
	return int32(word) >> 20
}

// immS extracts the 12-bit sign-extended S-type immediate
// (bits [31:25] ++ bits [11:7])
func immS(word uint32) int32 {
	imm := (word>>25)<<5 | (word >> 7 & Mask5Bit)
	return int32(imm<<20) >> 20
}

// immB extracts the 13-bit sign-extended B-type immediate
// ({bit 31, bit 7, bits 30:25, bits 11:8, 0})
func immB(word uint32) int32 {
	imm := (word>>31)<<12 |
		(word>>7&1)<<11 |
		(word>>25&0x3F)<<5 |
		(word >> 8 & 0xF << 1)
	return int32(imm<<19) >> 19
}

// immU extracts the signed 20-bit U-type immediate (bits [31:12]); the
// executor shifts it left by 12 when consuming it
func immU(word uint32) int32 {
	return int32(word) >> 12
}

// immJ extracts the 21-bit sign-extended J-type immediate
// ({bit 31, bits 19:12, bit 20, bits 30:21, 0})
func immJ(word uint32) int32 {
	imm := (word>>31)<<20 |
		(word>>12&0xFF)<<12 |
		(word>>20&1)<<11 |
		(word >> 21 & 0x3FF << 1)
	return int32(imm<<11) >> 11
}

// Decode maps a 32-bit instruction word to its typed form. It is a pure
// function of the word and is total: encodings outside the recognized set
// come back as OpUnknown carrying the raw word, never an error. Surfacing
// the unknown as an illegal-instruction trap is the executor's job.
func Decode(word uint32) Instruction {
	inst := Instruction{
		Raw: word,
		Op:  OpUnknown,
		Rd:  int(word >> 7 & Mask5Bit),
		Rs1: int(word >> 15 & Mask5Bit),
		Rs2: int(word >> 20 & Mask5Bit),
	}

	opcode := word & Mask7Bit
	funct3 := word >> 12 & Mask3Bit
	funct7 := word >> 25 & Mask7Bit
	funct12 := word >> 20 & Mask12Bit

	switch opcode {
	case OpcodeOp:
		inst.Op = decodeOp(funct3, funct7)

	case OpcodeOpImm:
		inst.Imm = immI(word)
		switch funct3 {
		case 0b000:
			inst.Op = OpADDI
		case 0b010:
			inst.Op = OpSLTI
		case 0b011:
			inst.Op = OpSLTIU
		case 0b100:
			inst.Op = OpXORI
		case 0b110:
			inst.Op = OpORI
		case 0b111:
			inst.Op = OpANDI
		case 0b001:
			if funct7 == 0 {
				inst.Op = OpSLLI
			}
		case 0b101:
			switch funct7 {
			case 0b0000000:
				inst.Op = OpSRLI
			case 0b0100000:
				inst.Op = OpSRAI
				inst.Imm = int32(word >> 20 & Mask5Bit)
			}
		}

	case OpcodeLoad:
		inst.Imm = immI(word)
		switch funct3 {
		case 0b000:
			inst.Op = OpLB
		case 0b001:
			inst.Op = OpLH
		case 0b010:
			inst.Op = OpLW
		case 0b100:
			inst.Op = OpLBU
		case 0b101:
			inst.Op = OpLHU
		}

	case OpcodeStore:
		inst.Imm = immS(word)
		switch funct3 {
		case 0b000:
			inst.Op = OpSB
		case 0b001:
			inst.Op = OpSH
		case 0b010:
			inst.Op = OpSW
		}

	case OpcodeBranch:
		inst.Imm = immB(word)
		switch funct3 {
		case 0b000:
			inst.Op = OpBEQ
		case 0b001:
			inst.Op = OpBNE
		case 0b100:
			inst.Op = OpBLT
		case 0b101:
			inst.Op = OpBGE
		case 0b110:
			inst.Op = OpBLTU
		case 0b111:
			inst.Op = OpBGEU
		}

	case OpcodeLUI:
		inst.Op = OpLUI
		inst.Imm = immU(word)

	case OpcodeAUIPC:
		inst.Op = OpAUIPC
		inst.Imm = immU(word)

	case OpcodeJAL:
		inst.Op = OpJAL
		inst.Imm = immJ(word)

	case OpcodeJALR:
		// Non-zero funct3 is an unrecognized encoding
		if funct3 == 0 {
			inst.Op = OpJALR
			inst.Imm = immI(word)
		}

	case OpcodeSystem:
		// funct12 is the CSR address for the Zicsr forms; for the funct3=0
		// specials it only selects the instruction
		if funct3 != 0 {
			inst.CSR = uint16(funct12)
		}
		switch funct3 {
		case 0b000:
			switch funct12 {
			case Funct12ECall:
				inst.Op = OpECALL
			case Funct12EBreak:
				inst.Op = OpEBREAK
			case Funct12SRet:
				inst.Op = OpSRET
			case Funct12WFI:
				inst.Op = OpWFI
			}
		case 0b001:
			inst.Op = OpCSRRW
		case 0b010:
			inst.Op = OpCSRRS
		case 0b011:
			inst.Op = OpCSRRC
		case 0b101, 0b110, 0b111:
			// CSR immediate forms: the rs1 field is a 5-bit zero-extended
			// immediate
			inst.Imm = int32(word >> 15 & Mask5Bit)
			switch funct3 {
			case 0b101:
				inst.Op = OpCSRRWI
			case 0b110:
				inst.Op = OpCSRRSI
			case 0b111:
				inst.Op = OpCSRRCI
			}
		}

	case OpcodeFence:
		switch funct3 {
		case 0b000:
			inst.Op = OpFENCE
		case 0b001:
			inst.Op = OpFENCEI
		}
	}

	return inst
}

// decodeOp discriminates the R-type ALU group on funct3 + funct7
func decodeOp(funct3, funct7 uint32) Op {
	switch funct7 {
	case 0b0000000:
		switch funct3 {
		case 0b000:
			return OpADD
		case 0b001:
			return OpSLL
		case 0b010:
			return OpSLT
		case 0b011:
			return OpSLTU
		case 0b100:
			return OpXOR
		case 0b101:
			return OpSRL
		case 0b110:
			return OpOR
		case 0b111:
			return OpAND
		}
	case 0b0100000:
		switch funct3 {
		case 0b000:
			return OpSUB
		case 0b101:
			return OpSRA
		}
	}
	return OpUnknown
}

// opNames maps each Op to its assembly mnemonic
var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpADD:     "add", OpSUB: "sub", OpSLL: "sll", OpSLT: "slt",
	OpSLTU: "sltu", OpXOR: "xor", OpSRL: "srl", OpSRA: "sra",
	OpOR: "or", OpAND: "and",
	OpADDI: "addi", OpSLTI: "slti", OpSLTIU: "sltiu", OpXORI: "xori",
	OpORI: "ori", OpANDI: "andi", OpSLLI: "slli", OpSRLI: "srli",
	OpSRAI: "srai",
	OpLB:   "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu",
	OpSB: "sb", OpSH: "sh", OpSW: "sw",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge",
	OpBLTU: "bltu", OpBGEU: "bgeu",
	OpLUI: "lui", OpAUIPC: "auipc",
	OpJAL: "jal", OpJALR: "jalr",
	OpECALL: "ecall", OpEBREAK: "ebreak", OpSRET: "sret", OpWFI: "wfi",
	OpFENCE: "fence", OpFENCEI: "fence.i",
	OpCSRRW: "csrrw", OpCSRRS: "csrrs", OpCSRRC: "csrrc",
	OpCSRRWI: "csrrwi", OpCSRRSI: "csrrsi", OpCSRRCI: "csrrci",
}

// Mnemonic returns the assembly mnemonic for an Op
func (op Op) Mnemonic() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}
