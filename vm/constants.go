package vm

// ============================================================================
// RV32I Architecture Constants
// ============================================================================
// These values are defined by the RISC-V unprivileged and supervisor
// specifications and should not be modified

const (
	// Instruction encoding
	InstructionSize = 4 // bytes per RV32I instruction

	// Register file
	GPRCount = 32 // x0-x31, x0 hardwired to zero

	// Base opcodes (bits [6:0] of the instruction word)
	OpcodeOp     = 0b0110011 // register-register ALU
	OpcodeOpImm  = 0b0010011 // register-immediate ALU
	OpcodeLoad   = 0b0000011 // LB/LH/LW/LBU/LHU
	OpcodeStore  = 0b0100011 // SB/SH/SW
	OpcodeBranch = 0b1100011 // BEQ/BNE/BLT/BGE/BLTU/BGEU
	OpcodeJAL    = 0b1101111
	OpcodeJALR   = 0b1100111
	OpcodeLUI    = 0b0110111
	OpcodeAUIPC  = 0b0010111
	OpcodeSystem = 0b1110011 // ECALL/EBREAK/SRET/WFI/CSRRx
	OpcodeFence  = 0b0001111 // FENCE/FENCE.I

	// funct12 values discriminating the funct3=0 system instructions
	Funct12ECall  = 0x000
	Funct12EBreak = 0x001
	Funct12SRet   = 0x102
	Funct12WFI    = 0x105

	// Shift instructions use only the low 5 bits of the shift operand
	ShiftAmountMask = 0x1F

	// Sign bit of a 32-bit word
	SignBitMask = 0x80000000

	// Field masks
	Mask3Bit  = 0x7
	Mask5Bit  = 0x1F
	Mask7Bit  = 0x7F
	Mask12Bit = 0xFFF

	// Alignment masks (address & mask == 0 means aligned)
	AlignMaskWord     = 3
	AlignMaskHalfword = 1
)

// Trap cause codes per the RISC-V privileged specification
const (
	CauseInstrAddrMisaligned uint32 = 0
	CauseInstrAccessFault    uint32 = 1
	CauseIllegalInstruction  uint32 = 2
	CauseBreakpoint          uint32 = 3
	CauseLoadAddrMisaligned  uint32 = 4
	CauseLoadAccessFault     uint32 = 5
	CauseStoreAddrMisaligned uint32 = 6
	CauseStoreAccessFault    uint32 = 7
	CauseECallFromU          uint32 = 8
	CauseECallFromS          uint32 = 9
)

// Supervisor CSR addresses
const (
	CSRSstatus    uint16 = 0x100
	CSRSie        uint16 = 0x104
	CSRStvec      uint16 = 0x105
	CSRScounteren uint16 = 0x106
	CSRSscratch   uint16 = 0x140
	CSRSepc       uint16 = 0x141
	CSRScause     uint16 = 0x142
	CSRStval      uint16 = 0x143
	CSRSip        uint16 = 0x144
	CSRSatp       uint16 = 0x180
)

// Default runtime limits
const (
	DefaultMemorySize  = 1 << 30 // 1 GiB flat memory
	DefaultStackTop    = 0x000FFFFC
	DefaultMaxCycles   = 1000000
	DefaultLogCapacity = 1000
)
