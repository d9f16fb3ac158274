// Package config loads debugger front-end configuration from TOML files
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all front-end settings.
type Config struct {
	// GDB is the debugger launch configuration.
	GDB GDBConfig `toml:"gdb"`

	// Logging configures the diagnostic log.
	Logging LoggingConfig `toml:"logging"`

	// Scripts are Lua hook files loaded at startup.
	Scripts []string `toml:"scripts"`
}

// GDBConfig configures the debugger subprocess.
type GDBConfig struct {
	// Path is the gdb executable.
	Path string `toml:"path"`

	// Args are extra arguments placed before the MI interpreter flags.
	Args []string `toml:"args"`

	// Target is the program to debug.
	Target string `toml:"target"`
}

// LoggingConfig configures diagnostics.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`

	// File receives the log; empty means stderr.
	File string `toml:"file"`

	// EchoCommands echoes every transmitted MI command at debug level.
	EchoCommands bool `toml:"echo_commands"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GDB: GDBConfig{
			Path: "gdb",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a TOML file, then applies environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides settings from GDBMI_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("GDBMI_GDB"); v != "" {
		cfg.GDB.Path = v
	}
	if v := os.Getenv("GDBMI_TARGET"); v != "" {
		cfg.GDB.Target = v
	}
	if v := os.Getenv("GDBMI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GDBMI_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("GDBMI_ECHO_COMMANDS"); v != "" {
		cfg.Logging.EchoCommands = parseBool(v)
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
