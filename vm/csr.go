package vm

import "fmt"

// ErrUnknownCSR is returned by the CSR primitives for addresses outside the
// supervisor bank. The executor surfaces it as an illegal-instruction trap.
type ErrUnknownCSR struct {
	Address uint16
}

func (e *ErrUnknownCSR) Error() string {
	return fmt.Sprintf("unknown CSR address 0x%03X", e.Address)
}

// csrSlots maps a CSR address to its slot in the backing array
var csrSlots = map[uint16]int{
	CSRSstatus:    0,
	CSRSie:        1,
	CSRStvec:      2,
	CSRScounteren: 3,
	CSRSscratch:   4,
	CSRSepc:       5,
	CSRScause:     6,
	CSRStval:      7,
	CSRSip:        8,
	CSRSatp:       9,
}

// csrNames maps a CSR address to its specification name
var csrNames = map[uint16]string{
	CSRSstatus:    "sstatus",
	CSRSie:        "sie",
	CSRStvec:      "stvec",
	CSRScounteren: "scounteren",
	CSRSscratch:   "sscratch",
	CSRSepc:       "sepc",
	CSRScause:     "scause",
	CSRStval:      "stval",
	CSRSip:        "sip",
	CSRSatp:       "satp",
}

// CSRName returns the specification name for a CSR address, or the hex
// address when the CSR is not part of the supervisor bank
func CSRName(addr uint16) string {
	if name, ok := csrNames[addr]; ok {
		return name
	}
	return fmt.Sprintf("0x%03X", addr)
}

// CSRFile is the supervisor control and status register bank. All cells are
// zero-initialized. The three primitives perform the read-modify-write as a
// single logical step; execution is single-threaded so no locking is needed.
type CSRFile struct {
	cells [10]uint32
}

// Read returns the current value of the CSR at addr
func (f *CSRFile) Read(addr uint16) (uint32, error) {
	slot, ok := csrSlots[addr]
	if !ok {
		return 0, &ErrUnknownCSR{Address: addr}
	}
	return f.cells[slot], nil
}

// ReadWrite writes value to the CSR at addr and returns the old value
func (f *CSRFile) ReadWrite(addr uint16, value uint32) (uint32, error) {
	slot, ok := csrSlots[addr]
	if !ok {
		return 0, &ErrUnknownCSR{Address: addr}
	}
	old := f.cells[slot]
	f.cells[slot] = value
	return old, nil
}

// ReadSet sets the bits of mask in the CSR at addr and returns the old value
func (f *CSRFile) ReadSet(addr uint16, mask uint32) (uint32, error) {
	slot, ok := csrSlots[addr]
	if !ok {
		return 0, &ErrUnknownCSR{Address: addr}
	}
	old := f.cells[slot]
	f.cells[slot] = old | mask
	return old, nil
}

// ReadClear clears the bits of mask in the CSR at addr and returns the old value
func (f *CSRFile) ReadClear(addr uint16, mask uint32) (uint32, error) {
	slot, ok := csrSlots[addr]
	if !ok {
		return 0, &ErrUnknownCSR{Address: addr}
	}
	old := f.cells[slot]
	f.cells[slot] = old &^ mask
	return old, nil
}

// MustWrite writes a CSR known to be in the supervisor bank, for trap
// delivery code that addresses CSRs by constant
func (f *CSRFile) MustWrite(addr uint16, value uint32) {
	if _, err := f.ReadWrite(addr, value); err != nil {
		panic(err)
	}
}

// Reset zeroes every CSR cell
func (f *CSRFile) Reset() {
	f.cells = [10]uint32{}
}

// KnownCSRs returns the addresses of the supervisor bank in ascending order
func KnownCSRs() []uint16 {
	return []uint16{
		CSRSstatus, CSRSie, CSRStvec, CSRScounteren, CSRSscratch,
		CSRSepc, CSRScause, CSRStval, CSRSip, CSRSatp,
	}
}
