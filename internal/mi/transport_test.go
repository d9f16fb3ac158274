package mi

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
)

// rwc is an in-memory ReadWriteCloser for transport tests.
type rwc struct {
	io.Reader
	mu     sync.Mutex
	writes bytes.Buffer
	closed bool
}

func (c *rwc) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes.Write(p)
}

func (c *rwc) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *rwc) written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes.String()
}

func TestRawTransportSendFramesLine(t *testing.T) {
	conn := &rwc{Reader: strings.NewReader("")}
	tr := NewRawTransport(conn)

	if err := tr.Send("-exec-run"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := conn.written(); got != "-exec-run\n" {
		t.Fatalf("written = %q", got)
	}

	// Already-terminated lines are not double framed.
	if err := tr.Send("-exec-continue\n"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := conn.written(); got != "-exec-run\n-exec-continue\n" {
		t.Fatalf("written = %q", got)
	}
}

func TestRawTransportReceiveLines(t *testing.T) {
	conn := &rwc{Reader: strings.NewReader("^done\r\n(gdb) \n*stopped")}
	tr := NewRawTransport(conn)

	line, err := tr.Receive()
	if err != nil || line != "^done" {
		t.Fatalf("line 1 = %q, %v", line, err)
	}
	line, err = tr.Receive()
	if err != nil || line != "(gdb) " {
		t.Fatalf("line 2 = %q, %v", line, err)
	}

	// Final line without newline is still delivered before EOF.
	line, err = tr.Receive()
	if err != nil || line != "*stopped" {
		t.Fatalf("line 3 = %q, %v", line, err)
	}
	if _, err = tr.Receive(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestRawTransportClose(t *testing.T) {
	conn := &rwc{Reader: strings.NewReader("")}
	tr := NewRawTransport(conn)
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !conn.closed {
		t.Fatal("underlying connection not closed")
	}
}
