// Package loader populates VM memory from ELF-32 RISC-V executables.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/hartsim/riscv-emulator/vm"
)

// Program describes a loaded executable
type Program struct {
	Entry    uint32            // e_entry, the initial PC
	Segments int               // number of PT_LOAD segments copied
	Symbols  map[string]uint32 // function, object and untyped symbols, when present
}

// LoadFile loads an ELF-32 executable from disk into the VM's memory and
// returns its entry point
func LoadFile(machine *vm.VM, path string) (*Program, error) {
	f, err := os.Open(path) // #nosec G304 -- user-supplied program path
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer f.Close()
	return Load(machine, f)
}

// Load loads an ELF-32 executable from r into the VM's memory. Each PT_LOAD
// segment's file data is copied to its virtual address; the remainder up to
// MemSz relies on memory being zero-initialized, so only its bounds are
// checked. The VM is bootstrapped with PC at e_entry and the stack pointer
// at the VM's configured stack top.
func Load(machine *vm.VM, r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF: %w", err)
	}
	defer f.Close()

	if err := validate(f); err != nil {
		return nil, err
	}

	program := &Program{
		Entry:   uint32(f.Entry),
		Symbols: make(map[string]uint32),
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Vaddr+prog.Memsz > uint64(machine.Memory.Size()) {
			return nil, fmt.Errorf("segment at 0x%08X size 0x%X exceeds memory size 0x%08X",
				prog.Vaddr, prog.Memsz, machine.Memory.Size())
		}
		if prog.Filesz > 0 {
			data := make([]byte, prog.Filesz)
			if _, err := io.ReadFull(prog.Open(), data); err != nil {
				return nil, fmt.Errorf("failed to read segment at 0x%08X: %w", prog.Vaddr, err)
			}
			if err := machine.Memory.LoadBytes(uint32(prog.Vaddr), data); err != nil {
				return nil, fmt.Errorf("failed to load segment at 0x%08X: %w", prog.Vaddr, err)
			}
		}
		program.Segments++
	}

	if program.Segments == 0 {
		return nil, fmt.Errorf("ELF has no PT_LOAD segments")
	}

	// Symbol table is optional; stripped binaries load fine without one
	if symbols, err := f.Symbols(); err == nil {
		for _, sym := range symbols {
			if sym.Name == "" {
				continue
			}
			switch elf.ST_TYPE(sym.Info) {
			case elf.STT_FUNC, elf.STT_OBJECT, elf.STT_NOTYPE:
				program.Symbols[sym.Name] = uint32(sym.Value)
			}
		}
	}

	stackTop := machine.StackTop
	if stackTop == 0 {
		stackTop = vm.DefaultStackTop
	}
	machine.Bootstrap(program.Entry, stackTop)

	return program, nil
}

// validate rejects everything that is not a 32-bit little-endian RISC-V
// executable
func validate(f *elf.File) error {
	if f.Class != elf.ELFCLASS32 {
		return fmt.Errorf("unsupported ELF class %v: want ELFCLASS32", f.Class)
	}
	if f.Data != elf.ELFDATA2LSB {
		return fmt.Errorf("unsupported ELF byte order %v: want little-endian", f.Data)
	}
	if f.Machine != elf.EM_RISCV {
		return fmt.Errorf("unsupported machine %v: want EM_RISCV", f.Machine)
	}
	if f.Type != elf.ET_EXEC {
		return fmt.Errorf("unsupported ELF type %v: want ET_EXEC", f.Type)
	}
	return nil
}
