// Package config holds the FV-1 toolchain's persistent options: assembler
// quirk flags, simulator sizing, and the debug API server's bind address.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the FV-1 assembler/simulator/debug-server configuration
// (spec.md §6: "Assembler options" plus this repo's API/CLI expansion).
type Config struct {
	// Assembler settings
	Assembler struct {
		MemBug     bool `toml:"mem_bug"`     // replicate the SpinASM MEM allocator quirk
		ClampReals bool `toml:"clamp_reals"` // clamp out-of-range fixed-point literals instead of erroring
		ProgSize   int  `toml:"prog_size"`   // instruction words per program image
	} `toml:"assembler"`

	// Simulator settings
	Simulator struct {
		RegCount   int  `toml:"reg_count"`   // general-purpose register file size
		DelaySize  int  `toml:"delay_size"`  // delay RAM word capacity
		SampleRate int  `toml:"sample_rate"` // nominal sample rate, Hz, informational only
		Saturate   bool `toml:"saturate"`    // saturate ACC/PACC instead of wrapping
	} `toml:"simulator"`

	// Debugger settings
	Debugger struct {
		HistorySize     int  `toml:"history_size"`
		AutoSaveBreaks  bool `toml:"auto_save_breakpoints"`
		ShowDisassembly bool `toml:"show_disassembly"`
	} `toml:"debugger"`

	// API settings
	API struct {
		ListenAddr   string `toml:"listen_addr"`
		ReadTimeout  int    `toml:"read_timeout_seconds"`
		WriteTimeout int    `toml:"write_timeout_seconds"`
	} `toml:"api"`

	// Trace settings
	Trace struct {
		OutputFile   string `toml:"output_file"`
		IncludeFlags bool   `toml:"include_flags"`
		MaxEntries   int    `toml:"max_entries"`
	} `toml:"trace"`
}

// DefaultConfig returns a configuration matching spec.md §6's stated
// defaults (mirrored by parser.DefaultOptions).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assembler.MemBug = true
	cfg.Assembler.ClampReals = false
	cfg.Assembler.ProgSize = 128

	cfg.Simulator.RegCount = 32
	cfg.Simulator.DelaySize = 32768
	cfg.Simulator.SampleRate = 32768
	cfg.Simulator.Saturate = true

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.AutoSaveBreaks = true
	cfg.Debugger.ShowDisassembly = true

	cfg.API.ListenAddr = "127.0.0.1:7734"
	cfg.API.ReadTimeout = 30
	cfg.API.WriteTimeout = 30

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.IncludeFlags = true
	cfg.Trace.MaxEntries = 100000

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "fv1asm")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "fv1asm")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "fv1asm", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "fv1asm", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back to
// defaults when the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
