package vm

import (
	"fmt"
)

// Memory represents the flat byte-addressable memory of the emulated machine.
// Multi-byte accesses are little-endian. Bounds are checked on every access;
// natural alignment is an instruction-level concern and is NOT enforced here.
type Memory struct {
	Data []byte

	// Access counters for statistics
	AccessCount uint64
	ReadCount   uint64
	WriteCount  uint64
}

// NewMemory creates a Memory instance with the given size in bytes
func NewMemory(size uint32) *Memory {
	return &Memory{
		Data: make([]byte, size),
	}
}

// Size returns the memory size in bytes
func (m *Memory) Size() uint32 {
	return uint32(len(m.Data))
}

// checkBounds verifies that the highest byte of an access of the given width
// starting at address lies inside the buffer
func (m *Memory) checkBounds(address uint32, width uint32) error {
	size := uint64(len(m.Data))
	if uint64(address)+uint64(width) > size {
		return fmt.Errorf("memory access out of bounds: address 0x%08X width %d exceeds size 0x%08X",
			address, width, size)
	}
	return nil
}

// ReadByte reads a single byte from memory
func (m *Memory) ReadByte(address uint32) (byte, error) {
	if err := m.checkBounds(address, 1); err != nil {
		return 0, err
	}
	m.AccessCount++
	m.ReadCount++
	return m.Data[address], nil
}

// WriteByte writes a single byte to memory
func (m *Memory) WriteByte(address uint32, value byte) error {
	if err := m.checkBounds(address, 1); err != nil {
		return err
	}
	m.AccessCount++
	m.WriteCount++
	m.Data[address] = value
	return nil
}

// ReadHalfword reads a 16-bit halfword from memory in little-endian order
func (m *Memory) ReadHalfword(address uint32) (uint16, error) {
	if err := m.checkBounds(address, 2); err != nil {
		return 0, err
	}
	m.AccessCount++
	m.ReadCount++
	return uint16(m.Data[address]) | uint16(m.Data[address+1])<<8, nil
}

// WriteHalfword writes a 16-bit halfword to memory in little-endian order
func (m *Memory) WriteHalfword(address uint32, value uint16) error {
	if err := m.checkBounds(address, 2); err != nil {
		return err
	}
	m.AccessCount++
	m.WriteCount++
	m.Data[address] = byte(value)
	m.Data[address+1] = byte(value >> 8)
	return nil
}

// ReadWord reads a 32-bit word from memory in little-endian order
func (m *Memory) ReadWord(address uint32) (uint32, error) {
	if err := m.checkBounds(address, 4); err != nil {
		return 0, err
	}
	m.AccessCount++
	m.ReadCount++
	return uint32(m.Data[address]) |
		uint32(m.Data[address+1])<<8 |
		uint32(m.Data[address+2])<<16 |
		uint32(m.Data[address+3])<<24, nil
}

// WriteWord writes a 32-bit word to memory in little-endian order
func (m *Memory) WriteWord(address uint32, value uint32) error {
	if err := m.checkBounds(address, 4); err != nil {
		return err
	}
	m.AccessCount++
	m.WriteCount++
	m.Data[address] = byte(value)
	m.Data[address+1] = byte(value >> 8)
	m.Data[address+2] = byte(value >> 16)
	m.Data[address+3] = byte(value >> 24)
	return nil
}

// LoadBytes copies a byte slice into memory at the specified address
func (m *Memory) LoadBytes(address uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := m.checkBounds(address, uint32(len(data))); err != nil {
		return fmt.Errorf("failed to load %d bytes: %w", len(data), err)
	}
	copy(m.Data[address:], data)
	return nil
}

// GetBytes retrieves a copy of length bytes starting at address
func (m *Memory) GetBytes(address uint32, length uint32) ([]byte, error) {
	if err := m.checkBounds(address, length); err != nil {
		return nil, err
	}
	result := make([]byte, length)
	copy(result, m.Data[address:uint64(address)+uint64(length)])
	return result, nil
}

// Reset zeroes the entire memory buffer and clears access counters
func (m *Memory) Reset() {
	for i := range m.Data {
		m.Data[i] = 0
	}
	m.AccessCount = 0
	m.ReadCount = 0
	m.WriteCount = 0
}
