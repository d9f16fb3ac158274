// Package main is the entry point for the gdbmi debugger front end.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/dshills/gdbmi/internal/app"
	"github.com/dshills/gdbmi/internal/config"
	"github.com/dshills/gdbmi/internal/mi"
	"github.com/dshills/gdbmi/internal/script"
	"github.com/dshills/gdbmi/internal/session"
	"github.com/dshills/gdbmi/internal/tui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, configPath := parseFlags()

	logOutput, closeLog, err := openLog(cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	log := app.NewLogger(logOutput, app.ParseLogLevel(cfg.Logging.Level))

	sess := session.New(log)
	sess.SetCommandEcho(cfg.Logging.EchoCommands)

	host := script.NewHost(sess, log)
	defer host.Close()
	sess.SetHooks(host)
	for _, path := range cfg.Scripts {
		if err := host.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	ui, err := tui.New(sess, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	defer ui.Shutdown()

	// Re-apply logging settings when the config file changes.
	if configPath != "" {
		watcher, err := config.Watch(configPath, func(next config.Config) {
			log.SetLevel(app.ParseLogLevel(next.Logging.Level))
			sess.SetCommandEcho(next.Logging.EchoCommands)
		}, func(err error) {
			log.Warn("config reload: %v", err)
		})
		if err != nil {
			log.Warn("config watch: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	if err := startSession(sess, cfg.GDB); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer sess.Kill()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		sess.Kill()
		ui.Shutdown()
	}()

	ui.Run()
	return 0
}

// startSession launches the debugger subprocess in MI mode and hands its
// pipes to the session.
func startSession(sess *session.Session, gdb config.GDBConfig) error {
	args := append([]string{}, gdb.Args...)
	args = append(args, "--interpreter=mi3", "--quiet")
	if gdb.Target != "" {
		args = append(args, gdb.Target)
	}

	cmd := exec.Command(gdb.Path, args...)
	transport, err := mi.NewStdioTransport(cmd)
	if err != nil {
		return fmt.Errorf("launch %s: %w", gdb.Path, err)
	}
	if err := sess.Start(transport); err != nil {
		transport.Close()
		return err
	}
	return nil
}

// openLog resolves the diagnostic log destination. The terminal owns
// stdout, so the default is stderr.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

func parseFlags() (config.Config, string) {
	var configPath string
	var gdbPath string
	var logLevel string
	var echo bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&gdbPath, "gdb", "", "Path to the gdb executable")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&echo, "echo", false, "Echo transmitted MI commands at debug level")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gdbmi - terminal front end for gdb/MI\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gdbmi [options] [target]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gdbmi ./a.out               Debug a program\n")
		fmt.Fprintf(os.Stderr, "  gdbmi -c gdbmi.toml ./a.out Use a config file\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("gdbmi %s (%s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if gdbPath != "" {
		cfg.GDB.Path = gdbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if echo {
		cfg.Logging.EchoCommands = true
	}
	if flag.NArg() > 0 {
		cfg.GDB.Target = flag.Arg(0)
	}

	return cfg, configPath
}
