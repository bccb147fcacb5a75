package vm_test

import (
	"testing"

	"github.com/hartsim/riscv-emulator/encoder"
	"github.com/hartsim/riscv-emulator/vm"
)

func newTestVM() *vm.VM {
	return vm.NewVMWithMemory(testMemorySize)
}

// exec executes a single instruction built from fields
func exec(t *testing.T, v *vm.VM, inst vm.Instruction) error {
	t.Helper()
	return v.Execute(vm.Decode(encoder.MustEncode(inst)))
}

func TestADDBasic(t *testing.T) {
	v := newTestVM()
	v.CPU.X[1] = 1
	v.CPU.X[2] = 2

	if err := exec(t, v, vm.Instruction{Op: vm.OpADD, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
		t.Fatalf("ADD failed: %v", err)
	}
	if v.CPU.X[3] != 3 {
		t.Errorf("Expected x3=3, got %d", v.CPU.X[3])
	}
	if v.CPU.PC != 4 {
		t.Errorf("Expected PC=4, got %d", v.CPU.PC)
	}
}

// TestADDWraparound verifies two's-complement wrap semantics
func TestADDWraparound(t *testing.T) {
	cases := []struct {
		a, b, want uint32
	}{
		{0xFFFFFFFF, 1, 0},
		{0x7FFFFFFF, 0x80000000, 0xFFFFFFFF},
		{0x80000000, 0x80000000, 0},
		{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFE},
	}

	for _, tc := range cases {
		v := newTestVM()
		v.CPU.X[1] = tc.a
		v.CPU.X[2] = tc.b
		if err := exec(t, v, vm.Instruction{Op: vm.OpADD, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
			t.Fatalf("ADD failed: %v", err)
		}
		if v.CPU.X[3] != tc.want {
			t.Errorf("ADD(0x%08X, 0x%08X) = 0x%08X, want 0x%08X", tc.a, tc.b, v.CPU.X[3], tc.want)
		}
	}
}

func TestSUBWraparound(t *testing.T) {
	v := newTestVM()
	v.CPU.X[1] = 0
	v.CPU.X[2] = 1

	if err := exec(t, v, vm.Instruction{Op: vm.OpSUB, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
		t.Fatalf("SUB failed: %v", err)
	}
	if v.CPU.X[3] != 0xFFFFFFFF {
		t.Errorf("Expected 0-1 = 0xFFFFFFFF, got 0x%08X", v.CPU.X[3])
	}
}

// TestShiftAmountMasking verifies shifts depend on rs2 only through its low
// 5 bits
func TestShiftAmountMasking(t *testing.T) {
	ops := []vm.Op{vm.OpSLL, vm.OpSRL, vm.OpSRA}
	for _, op := range ops {
		// Shift amounts 4 and 36 must agree (36 & 0x1F == 4)
		var results [2]uint32
		for i, amount := range []uint32{4, 36} {
			v := newTestVM()
			v.CPU.X[1] = 0x80001234
			v.CPU.X[2] = amount
			if err := exec(t, v, vm.Instruction{Op: op, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
				t.Fatalf("%s failed: %v", op.Mnemonic(), err)
			}
			results[i] = v.CPU.X[3]
		}
		if results[0] != results[1] {
			t.Errorf("%s: shift by 4 gave 0x%08X but shift by 36 gave 0x%08X",
				op.Mnemonic(), results[0], results[1])
		}
	}
}

func TestShiftSemantics(t *testing.T) {
	cases := []struct {
		op      vm.Op
		val     uint32
		amount  uint32
		want    uint32
	}{
		{vm.OpSLL, 0x00000001, 31, 0x80000000},
		{vm.OpSRL, 0x80000000, 31, 0x00000001},
		{vm.OpSRA, 0x80000000, 31, 0xFFFFFFFF}, // sign-preserving
		{vm.OpSRA, 0x40000000, 30, 0x00000001},
		{vm.OpSRL, 0xFFFFFFFF, 4, 0x0FFFFFFF}, // logical
		{vm.OpSRA, 0xFFFFFFFF, 4, 0xFFFFFFFF},
	}

	for _, tc := range cases {
		v := newTestVM()
		v.CPU.X[1] = tc.val
		v.CPU.X[2] = tc.amount
		if err := exec(t, v, vm.Instruction{Op: tc.op, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
			t.Fatalf("%s failed: %v", tc.op.Mnemonic(), err)
		}
		if v.CPU.X[3] != tc.want {
			t.Errorf("%s(0x%08X, %d) = 0x%08X, want 0x%08X",
				tc.op.Mnemonic(), tc.val, tc.amount, v.CPU.X[3], tc.want)
		}
	}
}

func TestSetLessThan(t *testing.T) {
	cases := []struct {
		op   vm.Op
		a, b uint32
		want uint32
	}{
		{vm.OpSLT, 0xFFFFFFFF, 0, 1},  // -1 < 0 signed
		{vm.OpSLT, 0, 0xFFFFFFFF, 0},  // 0 < -1 is false
		{vm.OpSLT, 5, 5, 0},
		{vm.OpSLTU, 0xFFFFFFFF, 0, 0}, // max unsigned not < 0
		{vm.OpSLTU, 0, 0xFFFFFFFF, 1},
		{vm.OpSLTU, 1, 2, 1},
	}

	for _, tc := range cases {
		v := newTestVM()
		v.CPU.X[1] = tc.a
		v.CPU.X[2] = tc.b
		if err := exec(t, v, vm.Instruction{Op: tc.op, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
			t.Fatalf("%s failed: %v", tc.op.Mnemonic(), err)
		}
		if v.CPU.X[3] != tc.want {
			t.Errorf("%s(0x%08X, 0x%08X) = %d, want %d", tc.op.Mnemonic(), tc.a, tc.b, v.CPU.X[3], tc.want)
		}
	}
}

func TestBitwiseOps(t *testing.T) {
	v := newTestVM()
	v.CPU.X[1] = 0xFF00FF00
	v.CPU.X[2] = 0x0F0F0F0F

	checks := []struct {
		op   vm.Op
		want uint32
	}{
		{vm.OpXOR, 0xF00FF00F},
		{vm.OpOR, 0xFF0FFF0F},
		{vm.OpAND, 0x0F000F00},
	}
	for _, tc := range checks {
		if err := exec(t, v, vm.Instruction{Op: tc.op, Rd: 3, Rs1: 1, Rs2: 2}); err != nil {
			t.Fatalf("%s failed: %v", tc.op.Mnemonic(), err)
		}
		if v.CPU.X[3] != tc.want {
			t.Errorf("%s = 0x%08X, want 0x%08X", tc.op.Mnemonic(), v.CPU.X[3], tc.want)
		}
	}
}

func TestImmediateArithmetic(t *testing.T) {
	cases := []struct {
		op   vm.Op
		rs1  uint32
		imm  int32
		want uint32
	}{
		{vm.OpADDI, 10, -3, 7},
		{vm.OpADDI, 0, -1, 0xFFFFFFFF},
		{vm.OpADDI, 0xFFFFFFFF, 1, 0},
		{vm.OpSLTI, 0xFFFFFFFF, 0, 1},  // -1 < 0
		{vm.OpSLTIU, 0xFFFFFFFF, -1, 0}, // imm sign-extends, compared unsigned
		{vm.OpSLTIU, 0, -1, 1},
		{vm.OpXORI, 0xAAAAAAAA, -1, 0x55555555},
		{vm.OpORI, 0xF0, 0x0F, 0xFF},
		{vm.OpANDI, 0x1234, 0xFF, 0x34},
		{vm.OpSLLI, 1, 31, 0x80000000},
		{vm.OpSRLI, 0x80000000, 31, 1},
		{vm.OpSRAI, 0x80000000, 31, 0xFFFFFFFF},
	}

	for _, tc := range cases {
		v := newTestVM()
		v.CPU.X[1] = tc.rs1
		if err := exec(t, v, vm.Instruction{Op: tc.op, Rd: 2, Rs1: 1, Imm: tc.imm}); err != nil {
			t.Fatalf("%s failed: %v", tc.op.Mnemonic(), err)
		}
		if v.CPU.X[2] != tc.want {
			t.Errorf("%s(0x%08X, %d) = 0x%08X, want 0x%08X",
				tc.op.Mnemonic(), tc.rs1, tc.imm, v.CPU.X[2], tc.want)
		}
	}
}

func TestLUI(t *testing.T) {
	v := newTestVM()
	if err := exec(t, v, vm.Instruction{Op: vm.OpLUI, Rd: 1, Imm: 0x12345}); err != nil {
		t.Fatalf("LUI failed: %v", err)
	}
	if v.CPU.X[1] != 0x12345000 {
		t.Errorf("Expected 0x12345000, got 0x%08X", v.CPU.X[1])
	}
	if v.CPU.PC != 4 {
		t.Errorf("Expected PC=4, got %d", v.CPU.PC)
	}
}

func TestAUIPC(t *testing.T) {
	v := newTestVM()
	v.CPU.PC = 0x1000
	if err := exec(t, v, vm.Instruction{Op: vm.OpAUIPC, Rd: 1, Imm: 0x2}); err != nil {
		t.Fatalf("AUIPC failed: %v", err)
	}
	if v.CPU.X[1] != 0x3000 {
		t.Errorf("Expected 0x3000, got 0x%08X", v.CPU.X[1])
	}
	if v.CPU.PC != 0x1004 {
		t.Errorf("Expected PC=0x1004, got 0x%08X", v.CPU.PC)
	}
}

// TestZeroRegisterInvariant verifies x0 stays zero across writes from every
// writing instruction family
func TestZeroRegisterInvariant(t *testing.T) {
	v := newTestVM()
	v.CPU.X[1] = 123

	writes := []vm.Instruction{
		{Op: vm.OpADD, Rd: 0, Rs1: 1, Rs2: 1},
		{Op: vm.OpADDI, Rd: 0, Rs1: 1, Imm: 7},
		{Op: vm.OpLUI, Rd: 0, Imm: 0x1},
		{Op: vm.OpAUIPC, Rd: 0, Imm: 0x1},
	}
	for _, inst := range writes {
		if err := exec(t, v, inst); err != nil {
			t.Fatalf("%s failed: %v", inst.Op.Mnemonic(), err)
		}
		if v.CPU.X[0] != 0 {
			t.Fatalf("%s: x0 modified to 0x%08X", inst.Op.Mnemonic(), v.CPU.X[0])
		}
	}

	if got := v.CPU.GetRegister(0); got != 0 {
		t.Errorf("GetRegister(0) = %d, want 0", got)
	}
}
