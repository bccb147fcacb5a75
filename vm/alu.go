package vm

// ExecuteOp executes the register-register ALU instructions. All arithmetic
// is two's-complement with wrap-around; overflow never traps. Shifts use
// only the low 5 bits of rs2.
func ExecuteOp(vm *VM, inst Instruction) error {
	rs1 := vm.CPU.GetRegister(inst.Rs1)
	rs2 := vm.CPU.GetRegister(inst.Rs2)

	var result uint32
	switch inst.Op {
	case OpADD:
		result = rs1 + rs2
	case OpSUB:
		result = rs1 - rs2
	case OpSLL:
		result = rs1 << (rs2 & ShiftAmountMask)
	case OpSLT:
		if int32(rs1) < int32(rs2) {
			result = 1
		}
	case OpSLTU:
		if rs1 < rs2 {
			result = 1
		}
	case OpXOR:
		result = rs1 ^ rs2
	case OpSRL:
		result = rs1 >> (rs2 & ShiftAmountMask)
	case OpSRA:
		result = uint32(int32(rs1) >> (rs2 & ShiftAmountMask))
	case OpOR:
		result = rs1 | rs2
	case OpAND:
		result = rs1 & rs2
	}

	vm.CPU.SetRegister(inst.Rd, result)
	vm.CPU.IncrementPC()
	return nil
}

// ExecuteOpImm executes the register-immediate ALU instructions. The second
// operand is the sign-extended 12-bit immediate, reinterpreted as unsigned
// for SLTIU and masked to a 5-bit shift amount for the shift forms.
func ExecuteOpImm(vm *VM, inst Instruction) error {
	rs1 := vm.CPU.GetRegister(inst.Rs1)
	imm := uint32(inst.Imm)

	var result uint32
	switch inst.Op {
	case OpADDI:
		result = rs1 + imm
	case OpSLTI:
		if int32(rs1) < inst.Imm {
			result = 1
		}
	case OpSLTIU:
		if rs1 < imm {
			result = 1
		}
	case OpXORI:
		result = rs1 ^ imm
	case OpORI:
		result = rs1 | imm
	case OpANDI:
		result = rs1 & imm
	case OpSLLI:
		result = rs1 << (imm & ShiftAmountMask)
	case OpSRLI:
		result = rs1 >> (imm & ShiftAmountMask)
	case OpSRAI:
		result = uint32(int32(rs1) >> (imm & ShiftAmountMask))
	}

	vm.CPU.SetRegister(inst.Rd, result)
	vm.CPU.IncrementPC()
	return nil
}

// ExecuteUpperImm executes LUI and AUIPC. The decoder delivers the U-type
// immediate as a signed 20-bit value; it is consumed shifted left by 12.
func ExecuteUpperImm(vm *VM, inst Instruction) error {
	value := uint32(inst.Imm) << 12

	switch inst.Op {
	case OpLUI:
		vm.CPU.SetRegister(inst.Rd, value)
	case OpAUIPC:
		vm.CPU.SetRegister(inst.Rd, vm.CPU.PC+value)
	}

	vm.CPU.IncrementPC()
	return nil
}
