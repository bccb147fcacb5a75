package vm

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// PerformanceStatistics tracks execution statistics across a run
type PerformanceStatistics struct {
	Enabled bool

	// Execution metrics
	TotalInstructions  uint64
	ExecutionTime      time.Duration
	InstructionsPerSec float64

	// Instruction breakdown
	InstructionCounts map[string]uint64 // mnemonic -> count

	// Branch statistics
	BranchCount      uint64
	BranchTakenCount uint64

	// Trap breakdown
	TrapCounts map[string]uint64 // cause name -> count

	// Memory access statistics, sampled from the memory layer at report time
	MemoryReads  uint64
	MemoryWrites uint64

	startTime time.Time
}

// NewPerformanceStatistics creates a new statistics collector
func NewPerformanceStatistics() *PerformanceStatistics {
	return &PerformanceStatistics{
		Enabled:           true,
		InstructionCounts: make(map[string]uint64),
		TrapCounts:        make(map[string]uint64),
	}
}

// Start marks the beginning of measured execution
func (s *PerformanceStatistics) Start() {
	s.startTime = time.Now()
}

// Stop marks the end of measured execution and derives the rate metrics
func (s *PerformanceStatistics) Stop() {
	if !s.startTime.IsZero() {
		s.ExecutionTime = time.Since(s.startTime)
	}
	if s.ExecutionTime > 0 {
		s.InstructionsPerSec = float64(s.TotalInstructions) / s.ExecutionTime.Seconds()
	}
}

// RecordInstruction counts one executed instruction by mnemonic
func (s *PerformanceStatistics) RecordInstruction(mnemonic string) {
	s.TotalInstructions++
	s.InstructionCounts[mnemonic]++
}

// RecordBranch counts a branch and whether it was taken
func (s *PerformanceStatistics) RecordBranch(taken bool) {
	s.BranchCount++
	if taken {
		s.BranchTakenCount++
	}
}

// RecordTrap counts a trap by cause name
func (s *PerformanceStatistics) RecordTrap(cause string) {
	s.TrapCounts[cause]++
}

// SampleMemory pulls the access counters from the memory layer
func (s *PerformanceStatistics) SampleMemory(m *Memory) {
	s.MemoryReads = m.ReadCount
	s.MemoryWrites = m.WriteCount
}

// instructionCountRow is the serialized form of one mnemonic's count
type instructionCountRow struct {
	Mnemonic string `json:"mnemonic"`
	Count    uint64 `json:"count"`
}

// sortedCounts returns the instruction counts ordered by descending count
func (s *PerformanceStatistics) sortedCounts() []instructionCountRow {
	rows := make([]instructionCountRow, 0, len(s.InstructionCounts))
	for mnemonic, count := range s.InstructionCounts {
		rows = append(rows, instructionCountRow{Mnemonic: mnemonic, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Mnemonic < rows[j].Mnemonic
	})
	return rows
}

// statisticsReport is the JSON output document
type statisticsReport struct {
	TotalInstructions  uint64                `json:"total_instructions"`
	ExecutionTimeMs    float64               `json:"execution_time_ms"`
	InstructionsPerSec float64               `json:"instructions_per_sec"`
	BranchCount        uint64                `json:"branch_count"`
	BranchTakenCount   uint64                `json:"branch_taken_count"`
	MemoryReads        uint64                `json:"memory_reads"`
	MemoryWrites       uint64                `json:"memory_writes"`
	Traps              map[string]uint64     `json:"traps"`
	Instructions       []instructionCountRow `json:"instructions"`
}

// WriteJSON writes the statistics as an indented JSON document
func (s *PerformanceStatistics) WriteJSON(w io.Writer) error {
	report := statisticsReport{
		TotalInstructions:  s.TotalInstructions,
		ExecutionTimeMs:    float64(s.ExecutionTime.Microseconds()) / 1000.0,
		InstructionsPerSec: s.InstructionsPerSec,
		BranchCount:        s.BranchCount,
		BranchTakenCount:   s.BranchTakenCount,
		MemoryReads:        s.MemoryReads,
		MemoryWrites:       s.MemoryWrites,
		Traps:              s.TrapCounts,
		Instructions:       s.sortedCounts(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	return nil
}

// WriteCSV writes the per-mnemonic instruction counts as CSV
func (s *PerformanceStatistics) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"mnemonic", "count"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range s.sortedCounts() {
		if err := cw.Write([]string{row.Mnemonic, fmt.Sprintf("%d", row.Count)}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
