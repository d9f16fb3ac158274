package session

import (
	"strconv"
	"sync"
)

// ContextKind is the semantic purpose of an outstanding command token.
type ContextKind int

const (
	// CtxNone means the command is sent uncorrelated, with no token.
	CtxNone ContextKind = iota

	// CtxIgnore correlates the command but discards its result.
	CtxIgnore

	// CtxInitialFile is the startup request for the initial source location.
	CtxInitialFile

	// CtxBreakpointInsert is a breakpoint insertion; the breakpoint itself
	// arrives through a separate notification, so the result is a no-op.
	CtxBreakpointInsert

	// CtxThreadInfo is a thread listing request.
	CtxThreadInfo

	// CtxFrameInfo is a stack-frame listing request for one thread.
	CtxFrameInfo

	// CtxDisassemble is a disassembly request owned by a specific view.
	CtxDisassemble
)

// String returns the string representation of the context kind.
func (k ContextKind) String() string {
	switch k {
	case CtxNone:
		return "none"
	case CtxIgnore:
		return "ignore"
	case CtxInitialFile:
		return "initial-file"
	case CtxBreakpointInsert:
		return "breakpoint-insert"
	case CtxThreadInfo:
		return "thread-info"
	case CtxFrameInfo:
		return "frame-info"
	case CtxDisassemble:
		return "disassemble"
	default:
		return "unknown"
	}
}

// PendingContext records the intent behind one outstanding command token.
type PendingContext struct {
	Token    string
	Kind     ContextKind
	ThreadID int  // CtxFrameInfo: the thread whose stack was requested
	View     View // CtxDisassemble: the view awaiting output
}

// tokenTable maps outstanding command tokens to their pending contexts.
// Tokens are strictly increasing for the lifetime of the table; an entry is
// removed exactly once, by the first result record that carries its token.
type tokenTable struct {
	mu      sync.Mutex
	next    uint64
	pending map[string]PendingContext
}

// Allocate returns the current counter value as text and increments it.
func (t *tokenTable) Allocate() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.next == 0 {
		t.next = 1
	}
	token := strconv.FormatUint(t.next, 10)
	t.next++
	return token
}

// Register records the pending context for a token.
func (t *tokenTable) Register(token string, pc PendingContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		t.pending = make(map[string]PendingContext)
	}
	pc.Token = token
	t.pending[token] = pc
}

// Resolve atomically removes and returns the context for a token. A token
// that is absent, already resolved, or empty yields ok=false; that is not
// an error, merely a result record nobody is waiting on.
func (t *tokenTable) Resolve(token string) (PendingContext, bool) {
	if token == "" {
		return PendingContext{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	pc, ok := t.pending[token]
	if ok {
		delete(t.pending, token)
	}
	return pc, ok
}

// reset drops all pending contexts. The counter keeps increasing so tokens
// stay unique across restarts of the same engine.
func (t *tokenTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = make(map[string]PendingContext)
}
