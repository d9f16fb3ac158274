package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GDB.Path != "gdb" {
		t.Errorf("gdb path = %q, want default", cfg.GDB.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdbmi.toml")
	data := `
scripts = ["hooks.lua"]

[gdb]
path = "/usr/bin/gdb-multiarch"
args = ["-nx"]
target = "./a.out"

[logging]
level = "debug"
echo_commands = true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GDB.Path != "/usr/bin/gdb-multiarch" {
		t.Errorf("gdb path = %q", cfg.GDB.Path)
	}
	if len(cfg.GDB.Args) != 1 || cfg.GDB.Args[0] != "-nx" {
		t.Errorf("gdb args = %v", cfg.GDB.Args)
	}
	if cfg.GDB.Target != "./a.out" {
		t.Errorf("target = %q", cfg.GDB.Target)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.EchoCommands {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if len(cfg.Scripts) != 1 || cfg.Scripts[0] != "hooks.lua" {
		t.Errorf("scripts = %v", cfg.Scripts)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[gdb\npath ="), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GDBMI_GDB", "/opt/gdb")
	t.Setenv("GDBMI_TARGET", "./prog")
	t.Setenv("GDBMI_LOG_LEVEL", "warn")
	t.Setenv("GDBMI_ECHO_COMMANDS", "yes")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GDB.Path != "/opt/gdb" {
		t.Errorf("gdb path = %q", cfg.GDB.Path)
	}
	if cfg.GDB.Target != "./prog" {
		t.Errorf("target = %q", cfg.GDB.Target)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if !cfg.Logging.EchoCommands {
		t.Error("echo override not applied")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdbmi.toml")
	if err := os.WriteFile(path, []byte("[gdb]\npath = \"/usr/bin/gdb\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GDBMI_GDB", "/opt/gdb")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GDB.Path != "/opt/gdb" {
		t.Errorf("gdb path = %q, want env to win over file", cfg.GDB.Path)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "yes", "on", "TRUE"} {
		if !parseBool(s) {
			t.Errorf("parseBool(%q) = false", s)
		}
	}
	for _, s := range []string{"", "0", "false", "no", "off"} {
		if parseBool(s) {
			t.Errorf("parseBool(%q) = true", s)
		}
	}
}
