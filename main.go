package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hartsim/riscv-emulator/config"
	"github.com/hartsim/riscv-emulator/debugger"
	"github.com/hartsim/riscv-emulator/disasm"
	"github.com/hartsim/riscv-emulator/loader"
	"github.com/hartsim/riscv-emulator/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debugMode   = flag.Bool("debug", false, "Start in the TUI debugger")
		configFile  = flag.String("config", "", "Config file path (default: platform config dir)")
		memSize     = flag.Uint("mem-size", 0, "Memory size in bytes (overrides config)")
		maxCycles   = flag.Uint64("max-cycles", 0, "Maximum instructions before halt (overrides config)")
		entryPoint  = flag.String("entry", "", "Entry point override (hex or decimal; default: ELF e_entry)")
		stackTop    = flag.String("sp", "", "Initial stack pointer (hex or decimal)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")

		enableTrace  = flag.Bool("trace", false, "Enable execution trace")
		traceFile    = flag.String("trace-file", "", "Trace output file (default from config)")
		enableStats  = flag.Bool("stats", false, "Enable performance statistics")
		statsFile    = flag.String("stats-file", "", "Statistics output file (default from config)")
		statsFormat  = flag.String("stats-format", "", "Statistics format (json, csv)")
		enableCover  = flag.Bool("coverage", false, "Enable code coverage tracking")
		coverageFile = flag.String("coverage-file", "", "Coverage output file (default: stdout)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("RISC-V RV32I Emulator %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp || flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	// Load configuration, then apply flag overrides
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *memSize != 0 {
		cfg.Execution.MemorySize = uint32(*memSize)
	}
	if *maxCycles != 0 {
		cfg.Execution.MaxCycles = *maxCycles
	}
	if *enableTrace {
		cfg.Execution.EnableTrace = true
	}
	if *enableStats {
		cfg.Execution.EnableStats = true
	}
	if *traceFile != "" {
		cfg.Trace.OutputFile = *traceFile
	}
	if *statsFile != "" {
		cfg.Statistics.OutputFile = *statsFile
	}
	if *statsFormat != "" {
		cfg.Statistics.Format = *statsFormat
	}

	elfFile := flag.Arg(0)
	if _, err := os.Stat(elfFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", elfFile)
		os.Exit(1)
	}

	machine := vm.NewVMWithMemory(cfg.Execution.MemorySize)
	machine.CycleLimit = cfg.Execution.MaxCycles
	machine.StackTop = cfg.Execution.StackTop

	if *stackTop != "" {
		sp, err := parseAddress(*stackTop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -sp value: %v\n", err)
			os.Exit(1)
		}
		machine.StackTop = sp
	}

	if *verboseMode {
		fmt.Printf("Loading ELF: %s (memory %d MiB)\n", elfFile, cfg.Execution.MemorySize>>20)
	}

	program, err := loader.LoadFile(machine, elfFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		os.Exit(1)
	}

	if *entryPoint != "" {
		entry, err := parseAddress(*entryPoint)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -entry value: %v\n", err)
			os.Exit(1)
		}
		machine.Bootstrap(entry, machine.StackTop)
	}

	if *verboseMode {
		fmt.Printf("Loaded %d segments, entry 0x%08X, SP=0x%08X\n",
			program.Segments, machine.EntryPoint, machine.CPU.GetSP())
	}

	// Tracing, statistics and coverage
	var traceOut *os.File
	if cfg.Execution.EnableTrace {
		traceOut, err = os.Create(cfg.Trace.OutputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot create trace file: %v\n", err)
			os.Exit(1)
		}
		defer traceOut.Close()
		trace := vm.NewExecutionTrace(traceOut)
		trace.MaxEntries = cfg.Trace.MaxEntries
		if cfg.Trace.IncludeDisasm {
			trace.Formatter = disasm.Format
		}
		machine.ExecutionTrace = trace
	}
	if cfg.Execution.EnableStats {
		machine.Statistics = vm.NewPerformanceStatistics()
	}
	if *enableCover {
		machine.CodeCoverage = vm.NewCodeCoverage()
	}

	// Interactive debugger mode
	if *debugMode {
		dbg := debugger.NewDebugger(machine)
		dbg.LoadSymbols(program.Symbols)
		tui := debugger.NewTUI(dbg)
		if err := tui.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	exitCode := run(machine, *verboseMode)

	if machine.ExecutionTrace != nil {
		if err := machine.ExecutionTrace.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Trace write error: %v\n", err)
		}
	}
	if machine.Statistics != nil {
		machine.Statistics.SampleMemory(machine.Memory)
		if err := writeStatistics(machine.Statistics, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Statistics write error: %v\n", err)
		}
	}
	if machine.CodeCoverage != nil {
		if err := writeCoverage(machine.CodeCoverage, *coverageFile); err != nil {
			fmt.Fprintf(os.Stderr, "Coverage write error: %v\n", err)
		}
	}

	os.Exit(exitCode)
}

// run owns the fetch-execute loop and the trap delivery policy: on a trap,
// sepc/scause/stval are written and execution vectors through stvec when one
// is installed; with no handler the trap terminates the run.
func run(machine *vm.VM, verbose bool) int {
	if machine.Statistics != nil {
		machine.Statistics.Start()
	}
	defer func() {
		if machine.Statistics != nil {
			machine.Statistics.Stop()
		}
	}()

	for {
		err := machine.Run()
		if err == nil {
			return 0
		}

		var trap *vm.Trap
		if !errors.As(err, &trap) {
			fmt.Fprintf(os.Stderr, "Execution stopped: %v\n", err)
			return 1
		}

		stvec, _ := machine.CPU.CSR.Read(vm.CSRStvec)
		if stvec == 0 {
			fmt.Fprintf(os.Stderr, "Unhandled %v\n", trap)
			fmt.Fprintln(os.Stderr, machine.DumpState())
			return 1
		}
		if trap.PC == stvec {
			fmt.Fprintf(os.Stderr, "Double trap at handler 0x%08X: %v\n", stvec, trap)
			return 1
		}

		if verbose {
			fmt.Printf("Delivering trap (%s) to handler 0x%08X\n", vm.CauseName(trap.Cause), stvec)
		}
		machine.CPU.CSR.MustWrite(vm.CSRSepc, trap.PC)
		machine.CPU.CSR.MustWrite(vm.CSRScause, trap.Cause)
		machine.CPU.CSR.MustWrite(vm.CSRStval, trap.FaultAddr)
		machine.CPU.PC = stvec
	}
}

// writeStatistics writes the run statistics in the configured format
func writeStatistics(stats *vm.PerformanceStatistics, cfg *config.Config) error {
	f, err := os.Create(cfg.Statistics.OutputFile)
	if err != nil {
		return fmt.Errorf("cannot create statistics file: %w", err)
	}
	defer f.Close()

	switch cfg.Statistics.Format {
	case "csv":
		return stats.WriteCSV(f)
	default:
		return stats.WriteJSON(f)
	}
}

// writeCoverage writes the coverage report to a file, or stdout when no
// path is given
func writeCoverage(coverage *vm.CodeCoverage, path string) error {
	if path == "" {
		return coverage.WriteReport(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create coverage file: %w", err)
	}
	defer f.Close()
	return coverage.WriteReport(f)
}

// parseAddress parses a hex (0x-prefixed) or decimal address
func parseAddress(s string) (uint32, error) {
	var addr uint32
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		if _, err := fmt.Sscanf(s, "0x%x", &addr); err != nil {
			return 0, fmt.Errorf("invalid address %q", s)
		}
		return addr, nil
	}
	if _, err := fmt.Sscanf(s, "%d", &addr); err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return addr, nil
}

func printHelp() {
	fmt.Printf(`RISC-V RV32I Emulator %s

Usage: riscv-emulator [options] program.elf

Runs an ELF-32 little-endian RISC-V binary on an emulated RV32I hart with
the Zicsr extension, starting in Supervisor mode.

Options:
`, Version)
	flag.PrintDefaults()
	fmt.Println(`
Examples:
  riscv-emulator program.elf
  riscv-emulator -trace -trace-file run.log program.elf
  riscv-emulator -stats -stats-format csv program.elf
  riscv-emulator -debug program.elf`)
}
