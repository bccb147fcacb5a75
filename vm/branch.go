package vm

// ExecuteBranch executes the conditional branches. A taken branch adds the
// B-type immediate to the PC with wrap-around. An immediate of zero falls
// through even when the predicate holds; assemblers targeting this core must
// not emit branch-to-self with a zero offset.
func ExecuteBranch(vm *VM, inst Instruction) error {
	rs1 := vm.CPU.GetRegister(inst.Rs1)
	rs2 := vm.CPU.GetRegister(inst.Rs2)

	var taken bool
	switch inst.Op {
	case OpBEQ:
		taken = rs1 == rs2
	case OpBNE:
		taken = rs1 != rs2
	case OpBLT:
		taken = int32(rs1) < int32(rs2)
	case OpBGE:
		taken = int32(rs1) >= int32(rs2)
	case OpBLTU:
		taken = rs1 < rs2
	case OpBGEU:
		taken = rs1 >= rs2
	}

	if vm.Statistics != nil && vm.Statistics.Enabled {
		vm.Statistics.RecordBranch(taken && inst.Imm != 0)
	}

	if taken && inst.Imm != 0 {
		vm.CPU.PC += uint32(inst.Imm)
	} else {
		vm.CPU.IncrementPC()
	}
	return nil
}

// ExecuteJump executes JAL and JALR. The link value is PC+4, written only
// when rd is not x0. JALR clears bit 0 of the target and does not trap on a
// target with bit 1 set.
func ExecuteJump(vm *VM, inst Instruction) error {
	link := vm.CPU.PC + InstructionSize

	switch inst.Op {
	case OpJAL:
		vm.CPU.SetRegister(inst.Rd, link)
		vm.CPU.PC += uint32(inst.Imm)
	case OpJALR:
		target := (vm.CPU.GetRegister(inst.Rs1) + uint32(inst.Imm)) &^ 1
		vm.CPU.SetRegister(inst.Rd, link)
		vm.CPU.PC = target
	}
	return nil
}
