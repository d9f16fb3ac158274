package mi

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Transport carries MI text between the engine and a debugger process.
// Send writes one complete command line; Receive blocks for the next output
// line. Receive returning an error is terminal for the stream.
type Transport interface {
	// Send transmits one command line. The line need not be newline
	// terminated; the transport frames it.
	Send(line string) error

	// Receive returns the next output line without its trailing newline.
	Receive() (string, error)

	// Close tears down the transport and any underlying process.
	Close() error
}

// StdioTransport runs a debugger subprocess and speaks MI over its standard
// streams.
type StdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewStdioTransport starts the given command and attaches to its stdio.
func NewStdioTransport(cmd *exec.Cmd) (*StdioTransport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("get stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start command: %w", err)
	}

	return &StdioTransport{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		reader: bufio.NewReader(stdout),
	}, nil
}

// Send writes one command line to the debugger's stdin.
func (t *StdioTransport) Send(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeLine(t.stdin, line)
}

// Receive reads the next output line from the debugger's stdout.
func (t *StdioTransport) Receive() (string, error) {
	return readLine(t.reader)
}

// Close closes the pipes and terminates the subprocess.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stdin.Close()
	t.stdout.Close()

	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}

	return t.cmd.Wait()
}

// RawTransport wraps any io.ReadWriteCloser as a Transport. Used for tests
// and for debuggers reached over pre-established connections.
type RawTransport struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewRawTransport creates a transport from any ReadWriteCloser.
func NewRawTransport(rwc io.ReadWriteCloser) *RawTransport {
	return &RawTransport{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
	}
}

// Send writes one command line.
func (t *RawTransport) Send(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeLine(t.rwc, line)
}

// Receive reads the next output line.
func (t *RawTransport) Receive() (string, error) {
	return readLine(t.reader)
}

// Close closes the underlying connection.
func (t *RawTransport) Close() error {
	return t.rwc.Close()
}

// writeLine frames and writes a single command line.
func writeLine(w io.Writer, line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// readLine reads one line, tolerating both \n and \r\n endings.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
