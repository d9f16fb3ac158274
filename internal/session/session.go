package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/gdbmi/internal/app"
	"github.com/dshills/gdbmi/internal/mi"
)

// ErrSessionActive is returned by Start when a debugger is already attached.
var ErrSessionActive = errors.New("session already active")

// maxConsoleLines bounds the retained console/log stream backlog.
const maxConsoleLines = 10000

// Context describes the correlation intent of a command about to be sent.
type Context struct {
	Kind     ContextKind
	ThreadID int  // CtxFrameInfo
	View     View // CtxDisassemble
}

// Session owns one debug target: the token table, the state store, the
// selected thread, the dirty-view set, and the subprocess transport.
// All mutation is serialized under one mutex; collaborator callbacks and
// hooks run after the lock is released so they may call back in.
type Session struct {
	mu sync.Mutex

	log  *app.Logger
	echo bool

	transport mi.Transport
	gen       uuid.UUID
	alive     bool

	tokens   tokenTable
	store    Store
	selected int // selected thread id, 0 when none

	views     *Invalidator
	source    SourceDisplay
	completer PathCompleter
	cursor    CursorContext
	chooser   Chooser
	hooks     Hooks
	onEnded   func(err error)

	console []string

	// deferred collects collaborator/hook callbacks accumulated while the
	// lock is held; finish drains it and then flushes dirty views.
	deferred []func()
}

// New creates a session with no debugger attached. Commands sent before
// Start are silently dropped.
func New(log *app.Logger) *Session {
	if log == nil {
		log = app.NullLogger
	}
	return &Session{
		log:   log.WithComponent("session"),
		views: NewInvalidator(),
	}
}

// Views returns the session's view invalidator for host registration.
func (s *Session) Views() *Invalidator { return s.views }

// SetSourceDisplay sets the source-location collaborator.
func (s *Session) SetSourceDisplay(d SourceDisplay) {
	s.mu.Lock()
	s.source = d
	s.mu.Unlock()
}

// SetPathCompleter sets the path-completion collaborator.
func (s *Session) SetPathCompleter(c PathCompleter) {
	s.mu.Lock()
	s.completer = c
	s.mu.Unlock()
}

// SetCursorContext sets the cursor-context collaborator.
func (s *Session) SetCursorContext(c CursorContext) {
	s.mu.Lock()
	s.cursor = c
	s.mu.Unlock()
}

// SetChooser sets the disambiguation-prompt collaborator.
func (s *Session) SetChooser(c Chooser) {
	s.mu.Lock()
	s.chooser = c
	s.mu.Unlock()
}

// SetHooks sets the session event hooks.
func (s *Session) SetHooks(h Hooks) {
	s.mu.Lock()
	s.hooks = h
	s.mu.Unlock()
}

// SetCommandEcho enables diagnostic echoing of every transmitted command.
func (s *Session) SetCommandEcho(on bool) {
	s.mu.Lock()
	s.echo = on
	s.mu.Unlock()
}

// OnEnded sets the host callback fired when the session tears down.
func (s *Session) OnEnded(fn func(err error)) {
	s.mu.Lock()
	s.onEnded = fn
	s.mu.Unlock()
}

// Start attaches a debugger transport, issues the setup sequence (enable
// MI async mode, enable non-stop mode, request the initial source location)
// and begins pumping output. Breakpoints retained from a previous session
// for post-mortem inspection are dropped here.
func (s *Session) Start(t mi.Transport) error {
	s.mu.Lock()
	if s.alive {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.transport = t
	s.gen = uuid.New()
	s.alive = true
	s.selected = 0
	s.tokens.reset()
	s.store.ClearThreads()
	s.store.ResetBreakpoints()
	s.console = nil

	s.transmitLocked("-gdb-set mi-async on")
	s.transmitLocked("-gdb-set non-stop on")
	s.sendLocked("-file-list-exec-source-file", Context{Kind: CtxInitialFile}, false)
	gen := s.gen
	s.mu.Unlock()

	go s.readLoop(t, gen)
	return nil
}

// Kill discards the subprocess and all per-session state. Breakpoints and
// the console backlog stay readable so the host can keep their views up for
// post-mortem inspection. Replies still in flight are dropped.
func (s *Session) Kill() {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	t := s.transport
	s.teardownLocked(nil)
	s.mu.Unlock()

	if t != nil {
		t.Close()
	}
	s.finish()
}

// Alive reports whether a debugger subprocess is attached.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// teardownLocked clears live state and queues the session-ended callbacks.
func (s *Session) teardownLocked(err error) {
	s.alive = false
	s.transport = nil
	s.tokens.reset()
	s.store.ClearThreads()
	s.selected = 0
	s.views.MarkDirty(ViewThreads)
	s.views.MarkDirty(ViewFrames)
	s.deferSourceClearLocked()

	hooks, onEnded := s.hooks, s.onEnded
	s.deferred = append(s.deferred, func() {
		if hooks != nil {
			hooks.OnSessionEnded(err)
		}
		if onEnded != nil {
			onEnded(err)
		}
	})
}

// readLoop pumps subprocess output, batching lines into one chunk per
// "(gdb)" prompt so state mutation and redraw happen once per batch.
func (s *Session) readLoop(t mi.Transport, gen uuid.UUID) {
	var chunk []string
	for {
		line, err := t.Receive()
		if err != nil {
			if len(chunk) > 0 {
				s.handleOutput(gen, chunk)
			}
			s.end(gen, err)
			return
		}
		chunk = append(chunk, line)
		if rec, ok := mi.ParseLine(line); ok && rec.Kind == mi.RecordPrompt {
			s.handleOutput(gen, chunk)
			chunk = nil
		}
	}
}

// end tears the session down after the output stream dies. A session killed
// or restarted in the meantime is left alone; the stale reader just exits.
func (s *Session) end(gen uuid.UUID, err error) {
	s.mu.Lock()
	if !s.alive || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.log.Info("debugger stream ended: %v", err)
	t := s.transport
	s.teardownLocked(err)
	s.mu.Unlock()

	if t != nil {
		t.Close()
	}
	s.finish()
}

// finish drains deferred callbacks and performs the single post-batch
// redraw pass.
func (s *Session) finish() {
	s.mu.Lock()
	deferred := s.deferred
	s.deferred = nil
	s.mu.Unlock()

	for _, fn := range deferred {
		fn()
	}
	s.views.Flush()
}

// Send transmits an uncorrelated command.
func (s *Session) Send(command string) {
	s.mu.Lock()
	s.sendLocked(command, Context{}, false)
	s.mu.Unlock()
}

// SendWithContext allocates a token, registers the pending context, and
// transmits the token-prefixed command.
func (s *Session) SendWithContext(command string, ctx Context) {
	s.mu.Lock()
	s.sendLocked(command, ctx, false)
	s.mu.Unlock()
}

// SendForceStopped transmits a command that needs a halted thread,
// temporarily interrupting one if none is halted.
func (s *Session) SendForceStopped(command string, ctx Context) {
	s.mu.Lock()
	s.sendLocked(command, ctx, true)
	s.mu.Unlock()
}

// sendLocked is the dispatcher core. With forceStopped set and no thread
// halted, it wraps the command in interrupt/continue for the first running
// thread, in strict send order and without waiting for acknowledgments; the
// debugger serializes requests on its input channel. With no live
// subprocess the command is silently dropped.
func (s *Session) sendLocked(command string, ctx Context, forceStopped bool) {
	if !s.alive || s.transport == nil {
		return
	}

	if forceStopped && !s.store.AnyStopped() {
		if tid, ok := s.store.FirstRunning(); ok {
			s.sendLocked(fmt.Sprintf("-exec-interrupt --thread %d", tid), Context{}, false)
			s.transmitCorrelatedLocked(command, ctx)
			s.sendLocked(fmt.Sprintf("-exec-continue --thread %d", tid), Context{}, false)
			return
		}
		// Zero known threads: nothing to interrupt, send unwrapped.
	}

	s.transmitCorrelatedLocked(command, ctx)
}

// transmitCorrelatedLocked prefixes a token when the context is
// correlatable and registers it before transmission, so a reply can never
// outrun its pending context.
func (s *Session) transmitCorrelatedLocked(command string, ctx Context) {
	if ctx.Kind != CtxNone {
		token := s.tokens.Allocate()
		s.tokens.Register(token, PendingContext{
			Kind:     ctx.Kind,
			ThreadID: ctx.ThreadID,
			View:     ctx.View,
		})
		command = token + command
	}
	s.transmitLocked(command)
}

// transmitLocked writes the literal command text to the subprocess input.
func (s *Session) transmitLocked(command string) {
	if s.echo {
		s.log.Debug("send: %s", command)
	}
	if err := s.transport.Send(command); err != nil {
		s.log.Warn("transmit failed: %v", err)
	}
}

// SendWithLocation resolves thread/frame scoping before delegating to the
// dispatcher. Precedence: explicit arguments, then the item under the
// host's cursor in a thread/frame view, then the session's selected thread;
// with no resolution and several threads known, the chooser collaborator
// disambiguates. thread 0 and frame -1 mean "not specified".
func (s *Session) SendWithLocation(command string, ctx Context, thread, frame int) {
	s.mu.Lock()

	tid := thread
	if tid == 0 && s.cursor != nil {
		if id, ok := s.cursor.CursorThread(); ok {
			tid = id
		}
	}
	if tid == 0 {
		tid = s.selected
	}
	if tid == 0 && s.chooser != nil && s.store.ThreadCount() > 1 {
		options := make([]ChoiceOption, 0, s.store.ThreadCount())
		for _, t := range s.store.Threads() {
			options = append(options, ChoiceOption{
				ID:    t.ID,
				Label: fmt.Sprintf("%d %s (%s)", t.ID, t.TargetID, t.State),
			})
		}
		chooser := s.chooser
		s.mu.Unlock()
		id, ok := chooser.Choose("Thread", options)
		s.mu.Lock()
		if ok {
			tid = id
		}
	}

	lvl := frame
	if lvl < 0 && s.cursor != nil {
		if l, ok := s.cursor.CursorFrame(); ok {
			lvl = l
		}
	}

	if tid != 0 {
		command += fmt.Sprintf(" --thread %d", tid)
	}
	if lvl >= 0 {
		command += fmt.Sprintf(" --frame %d", lvl)
	}
	if ctx.Kind == CtxFrameInfo && ctx.ThreadID == 0 {
		ctx.ThreadID = tid
	}

	s.sendLocked(command, ctx, false)
	s.mu.Unlock()
}

// requestFramesLocked issues a scoped stack-frame request for a thread.
func (s *Session) requestFramesLocked(tid int) {
	s.sendLocked(fmt.Sprintf("-stack-list-frames --thread %d", tid),
		Context{Kind: CtxFrameInfo, ThreadID: tid}, false)
}

// Command helpers composing dispatcher calls.

// Run starts the target from the beginning.
func (s *Session) Run() { s.Send("-exec-run") }

// Continue resumes the inspected thread.
func (s *Session) Continue() { s.SendWithLocation("-exec-continue", Context{}, 0, -1) }

// Next steps over the next line in the inspected thread.
func (s *Session) Next() { s.SendWithLocation("-exec-next", Context{}, 0, -1) }

// Step steps into the next line in the inspected thread.
func (s *Session) Step() { s.SendWithLocation("-exec-step", Context{}, 0, -1) }

// Finish runs until the current frame returns.
func (s *Session) Finish() { s.SendWithLocation("-exec-finish", Context{}, 0, -1) }

// Interrupt halts the inspected thread.
func (s *Session) Interrupt() { s.SendWithLocation("-exec-interrupt", Context{}, 0, -1) }

// BreakInsert sets a breakpoint at a location ("file:line", function or
// *address). The resulting breakpoint state arrives through a separate
// notification; insertion needs a halted thread on targets without full
// async support.
func (s *Session) BreakInsert(location string) {
	s.SendForceStopped("-break-insert -f "+location, Context{Kind: CtxBreakpointInsert})
}

// BreakDelete removes a breakpoint by number.
func (s *Session) BreakDelete(number int) {
	s.Send(fmt.Sprintf("-break-delete %d", number))
}

// RequestThreads asks the debugger for the full thread listing.
func (s *Session) RequestThreads() {
	s.SendWithContext("-thread-info", Context{Kind: CtxThreadInfo})
}

// RequestFrames asks for a thread's stack; the frame view redraws only once
// the stack arrives.
func (s *Session) RequestFrames(tid int) {
	s.mu.Lock()
	s.requestFramesLocked(tid)
	s.mu.Unlock()
}

// RequestDisassembly asks for disassembly around the inspected frame's pc
// on behalf of the given view. Decoded output is handed to the view
// verbatim.
func (s *Session) RequestDisassembly(view View) {
	s.mu.Lock()
	s.sendLocked(`-data-disassemble -s $pc -e "$pc + 128" -- 0`,
		Context{Kind: CtxDisassemble, View: view}, true)
	s.mu.Unlock()
}

// Accessors. All return copies; views call these from redraw callbacks.

// Threads returns all known threads in insertion order.
func (s *Session) Threads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Threads()
}

// Thread returns one thread by id.
func (s *Session) Thread(id int) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th := s.store.Thread(id)
	if th == nil {
		return Thread{}, false
	}
	return *th, true
}

// Breakpoints returns all breakpoints in insertion order.
func (s *Session) Breakpoints() []Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Breakpoints()
}

// SelectedThread returns the selected thread id, 0 when none.
func (s *Session) SelectedThread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// ConsoleLines returns the retained console/log stream backlog.
func (s *Session) ConsoleLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.console))
	copy(out, s.console)
	return out
}

// deferSourceClearLocked queues a source-marker clear for after the lock is
// released.
func (s *Session) deferSourceClearLocked() {
	if s.source == nil {
		return
	}
	src := s.source
	s.deferred = append(s.deferred, func() { src.Clear() })
	s.views.MarkDirty(ViewSource)
}

// deferLocked queues an arbitrary callback for after the lock is released.
func (s *Session) deferLocked(fn func()) {
	s.deferred = append(s.deferred, fn)
}
