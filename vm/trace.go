package vm

import (
	"fmt"
	"io"
)

// TraceEntry represents a single execution trace entry
type TraceEntry struct {
	Sequence        uint64            // Instruction sequence number
	Address         uint32            // Instruction address
	Raw             uint32            // Raw instruction word
	Disassembly     string            // Formatted instruction
	RegisterChanges map[string]uint32 // Register changes (name -> new value)
}

// ExecutionTrace records one entry per executed instruction and flushes them
// to a writer. The Formatter hook lets the driver plug in a real
// disassembler; without one the trace shows the mnemonic and raw word.
type ExecutionTrace struct {
	Enabled    bool
	Writer     io.Writer
	MaxEntries int

	// Formatter renders an instruction for the trace; optional
	Formatter func(Instruction) string

	entries []TraceEntry
}

// NewExecutionTrace creates a new execution trace writing to writer
func NewExecutionTrace(writer io.Writer) *ExecutionTrace {
	return &ExecutionTrace{
		Enabled:    true,
		Writer:     writer,
		MaxEntries: 100000,
		entries:    make([]TraceEntry, 0, DefaultLogCapacity),
	}
}

// Record appends a trace entry for an executed instruction, diffing the
// register file snapshots taken around execution
func (t *ExecutionTrace) Record(sequence uint64, pc uint32, inst Instruction, before, after [GPRCount]uint32) {
	if !t.Enabled || len(t.entries) >= t.MaxEntries {
		return
	}

	changes := make(map[string]uint32)
	for i := 1; i < GPRCount; i++ {
		if before[i] != after[i] {
			changes[RegisterName(i)] = after[i]
		}
	}

	disasm := ""
	if t.Formatter != nil {
		disasm = t.Formatter(inst)
	} else {
		disasm = fmt.Sprintf("%-8s 0x%08X", inst.Op.Mnemonic(), inst.Raw)
	}

	t.entries = append(t.entries, TraceEntry{
		Sequence:        sequence,
		Address:         pc,
		Raw:             inst.Raw,
		Disassembly:     disasm,
		RegisterChanges: changes,
	})
}

// Entries returns the recorded trace entries
func (t *ExecutionTrace) Entries() []TraceEntry {
	return t.entries
}

// Flush writes all recorded entries to the trace writer
func (t *ExecutionTrace) Flush() error {
	for _, e := range t.entries {
		line := fmt.Sprintf("%8d  0x%08X  %s", e.Sequence, e.Address, e.Disassembly)
		for i := 1; i < GPRCount; i++ {
			name := RegisterName(i)
			if v, ok := e.RegisterChanges[name]; ok {
				line += fmt.Sprintf("  %s=0x%08X", name, v)
			}
		}
		if _, err := fmt.Fprintln(t.Writer, line); err != nil {
			return fmt.Errorf("failed to write trace entry: %w", err)
		}
	}
	return nil
}

// Clear discards all recorded entries
func (t *ExecutionTrace) Clear() {
	t.entries = t.entries[:0]
}
