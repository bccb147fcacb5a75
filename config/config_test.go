package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartsim/riscv-emulator/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, uint32(1<<30), cfg.Execution.MemorySize)
	assert.Equal(t, uint64(1000000), cfg.Execution.MaxCycles)
	assert.Equal(t, uint32(0x000FFFFC), cfg.Execution.StackTop)
	assert.False(t, cfg.Execution.EnableTrace)
	assert.Equal(t, "hex", cfg.Display.NumberFormat)
	assert.Equal(t, "json", cfg.Statistics.Format)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[execution]
memory_size = 65536
max_cycles = 500
stack_top = 0xFF00
enable_trace = true

[trace]
output_file = "custom.log"
max_entries = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(65536), cfg.Execution.MemorySize)
	assert.Equal(t, uint64(500), cfg.Execution.MaxCycles)
	assert.Equal(t, uint32(0xFF00), cfg.Execution.StackTop)
	assert.True(t, cfg.Execution.EnableTrace)
	assert.Equal(t, "custom.log", cfg.Trace.OutputFile)
	assert.Equal(t, 10, cfg.Trace.MaxEntries)

	// Unspecified values keep their defaults
	assert.Equal(t, "json", cfg.Statistics.Format)
}

func TestLoadFromInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0600))

	_, err := config.LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := config.DefaultConfig()
	cfg.Execution.MaxCycles = 42
	cfg.Statistics.Format = "csv"
	require.NoError(t, cfg.SaveTo(path))

	reloaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}
