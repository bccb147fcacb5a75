package vm

// Loads and stores. The effective address is rs1 plus the sign-extended
// immediate, reduced modulo 2^32. Alignment is checked here, not in the
// memory layer: LH/LHU/SH require a 2-byte boundary, LW/SW a 4-byte
// boundary, byte accesses none. A trap leaves registers and memory
// untouched and the PC unadvanced.

// ExecuteLoad executes LB, LH, LW, LBU and LHU
func ExecuteLoad(vm *VM, inst Instruction) error {
	addr := vm.CPU.GetRegister(inst.Rs1) + uint32(inst.Imm)

	switch inst.Op {
	case OpLH, OpLHU:
		if addr&AlignMaskHalfword != 0 {
			return newMemoryTrap(CauseLoadAddrMisaligned, vm.CPU.PC, addr)
		}
	case OpLW:
		if addr&AlignMaskWord != 0 {
			return newMemoryTrap(CauseLoadAddrMisaligned, vm.CPU.PC, addr)
		}
	}

	var value uint32
	switch inst.Op {
	case OpLB:
		b, err := vm.Memory.ReadByte(addr)
		if err != nil {
			return newMemoryTrap(CauseLoadAccessFault, vm.CPU.PC, addr)
		}
		value = uint32(int32(int8(b)))
	case OpLBU:
		b, err := vm.Memory.ReadByte(addr)
		if err != nil {
			return newMemoryTrap(CauseLoadAccessFault, vm.CPU.PC, addr)
		}
		value = uint32(b)
	case OpLH:
		h, err := vm.Memory.ReadHalfword(addr)
		if err != nil {
			return newMemoryTrap(CauseLoadAccessFault, vm.CPU.PC, addr)
		}
		value = uint32(int32(int16(h)))
	case OpLHU:
		h, err := vm.Memory.ReadHalfword(addr)
		if err != nil {
			return newMemoryTrap(CauseLoadAccessFault, vm.CPU.PC, addr)
		}
		value = uint32(h)
	case OpLW:
		w, err := vm.Memory.ReadWord(addr)
		if err != nil {
			return newMemoryTrap(CauseLoadAccessFault, vm.CPU.PC, addr)
		}
		value = w
	}

	vm.CPU.SetRegister(inst.Rd, value)
	vm.CPU.IncrementPC()
	return nil
}

// ExecuteStore executes SB, SH and SW; the low 8/16/32 bits of rs2 are
// written
func ExecuteStore(vm *VM, inst Instruction) error {
	addr := vm.CPU.GetRegister(inst.Rs1) + uint32(inst.Imm)
	value := vm.CPU.GetRegister(inst.Rs2)

	switch inst.Op {
	case OpSH:
		if addr&AlignMaskHalfword != 0 {
			return newMemoryTrap(CauseStoreAddrMisaligned, vm.CPU.PC, addr)
		}
	case OpSW:
		if addr&AlignMaskWord != 0 {
			return newMemoryTrap(CauseStoreAddrMisaligned, vm.CPU.PC, addr)
		}
	}

	var err error
	switch inst.Op {
	case OpSB:
		err = vm.Memory.WriteByte(addr, byte(value))
	case OpSH:
		err = vm.Memory.WriteHalfword(addr, uint16(value))
	case OpSW:
		err = vm.Memory.WriteWord(addr, value)
	}
	if err != nil {
		return newMemoryTrap(CauseStoreAccessFault, vm.CPU.PC, addr)
	}

	vm.CPU.IncrementPC()
	return nil
}
