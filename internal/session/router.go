package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/gdbmi/internal/mi"
)

// HandleOutput consumes one textual chunk of debugger output: zero or more
// complete records. After all records in the chunk are processed, dirty
// views are flushed exactly once. Chunks arriving after teardown are
// dropped wholesale; the token table they refer to no longer exists.
func (s *Session) HandleOutput(chunk string) {
	s.mu.Lock()
	gen := s.gen
	alive := s.alive
	s.mu.Unlock()
	if !alive {
		return
	}
	s.handleOutput(gen, strings.Split(chunk, "\n"))
}

// handleOutput is the serialized record-processing path. The generation
// check discards output from a transport that belonged to a previous
// lifetime of this session.
func (s *Session) handleOutput(gen uuid.UUID, lines []string) {
	s.mu.Lock()
	if !s.alive || gen != s.gen {
		s.mu.Unlock()
		return
	}

	for _, line := range lines {
		rec, ok := mi.ParseLine(line)
		if !ok {
			continue
		}
		switch rec.Kind {
		case mi.RecordResult:
			s.handleResultLocked(rec)
		case mi.RecordExecAsync, mi.RecordNotifyAsync:
			s.handleAsyncLocked(rec)
		case mi.RecordStream:
			s.appendConsoleLocked(rec.Text)
		case mi.RecordPrompt, mi.RecordStatusAsync:
			// No state impact.
		default:
			s.log.Debug("dropping unrecognized record: %s", rec.Text)
		}
	}
	s.mu.Unlock()

	s.finish()
}

// handleResultLocked routes a token-correlated result record to the handler
// keyed by its pending context. A token nobody registered, or one already
// consumed, means nobody is waiting: the record is ignored.
func (s *Session) handleResultLocked(rec mi.Record) {
	pc, ok := s.tokens.Resolve(rec.Token)
	if !ok {
		return
	}

	if rec.Class == "error" {
		// No corrective action; the context is consumed and the failure is
		// visible only in diagnostics.
		s.log.Debug("command failed (%s): %s", pc.Kind, rec.Results.Str("msg"))
		return
	}

	switch pc.Kind {
	case CtxIgnore, CtxBreakpointInsert:
		// BreakpointInsert state arrives via =breakpoint-created instead.
	case CtxInitialFile:
		s.handleInitialFileLocked(rec)
	case CtxThreadInfo:
		s.handleThreadInfoLocked(rec)
	case CtxFrameInfo:
		s.handleFrameListLocked(pc.ThreadID, rec)
	case CtxDisassemble:
		s.handleDisassemblyLocked(pc.View, rec)
	}
}

// handleInitialFileLocked sets the initial source location from the startup
// -file-list-exec-source-file reply.
func (s *Session) handleInitialFileLocked(rec mi.Record) {
	path := rec.Results.Str("fullname")
	if path == "" {
		path = rec.Results.Str("file")
	}
	if path == "" {
		return
	}
	if s.completer != nil {
		path = s.completer.Complete(path)
	}
	line, ok := rec.Results.Int("line")
	if !ok {
		line = 1
	}
	if s.source != nil {
		src := s.source
		s.deferLocked(func() { src.Show(path, line) })
	}
	s.views.MarkDirty(ViewSource)
}

// handleThreadInfoLocked upserts every thread in a -thread-info listing.
func (s *Session) handleThreadInfoLocked(rec mi.Record) {
	for _, item := range rec.Results.List("threads") {
		if item.Kind != mi.ValueTuple {
			continue
		}
		t, ok := threadFromTuple(item.Tuple)
		if !ok {
			continue
		}
		s.upsertThreadLocked(t)
	}
}

// handleFrameListLocked rebuilds a thread's stack from a -stack-list-frames
// reply.
func (s *Session) handleFrameListLocked(tid int, rec mi.Record) {
	var frames []Frame
	for _, item := range rec.Results.List("stack") {
		if item.Kind != mi.ValueTuple {
			continue
		}
		frames = append(frames, frameFromTuple(item.Tuple))
	}
	s.rebuildFramesLocked(tid, frames)
}

// handleDisassemblyLocked hands decoded disassembler output to the view
// that requested it. No instruction decoding happens here; lines are
// formatted from the fields gdb already provides.
func (s *Session) handleDisassemblyLocked(view View, rec mi.Record) {
	sink, ok := view.(DisassemblySink)
	if !ok {
		return
	}

	var lines []string
	for _, item := range rec.Results.List("asm_insns") {
		if item.Kind != mi.ValueTuple {
			continue
		}
		addr := item.Tuple.Str("address")
		inst := item.Tuple.Str("inst")
		if fn := item.Tuple.Str("func-name"); fn != "" {
			addr += " <" + fn + "+" + item.Tuple.Str("offset") + ">"
		}
		lines = append(lines, addr+":\t"+inst)
	}

	s.deferLocked(func() { sink.SetDisassembly(lines) })
	s.views.MarkDirty(ViewDisassembly)
}

// handleAsyncLocked dispatches an async notification to the state mutator
// for its class. Classes the engine does not model are dropped.
func (s *Session) handleAsyncLocked(rec mi.Record) {
	switch rec.Class {
	case "running":
		s.handleRunningLocked(rec)
	case "stopped":
		s.handleStoppedLocked(rec)
	case "thread-created":
		s.handleThreadCreatedLocked(rec)
	case "thread-exited":
		if id, ok := rec.Results.Int("id"); ok {
			s.removeThreadLocked(id)
		}
	case "breakpoint-created", "breakpoint-modified":
		if bkpt := rec.Results.Tuple("bkpt"); bkpt != nil {
			s.upsertBreakpointLocked(breakpointFromTuple(bkpt))
		}
	case "breakpoint-deleted":
		if id, ok := rec.Results.Int("id"); ok {
			s.removeBreakpointLocked(id)
		}
	default:
		s.log.Debug("dropping notification: %s", rec.Class)
	}
}

// handleRunningLocked marks one thread, or all, as running.
func (s *Session) handleRunningLocked(rec mi.Record) {
	if rec.Results.Str("thread-id") == "all" {
		for _, t := range s.store.Threads() {
			s.markRunningLocked(t.ID)
		}
		return
	}
	if id, ok := rec.Results.Int("thread-id"); ok {
		s.markRunningLocked(id)
	}
}

// handleStoppedLocked marks the stopping thread (or all threads) stopped,
// which chains into a stack request per stopped thread, and offers the
// stopping thread to the selection controller under the non-forced rules.
func (s *Session) handleStoppedLocked(rec mi.Record) {
	reason := rec.Results.Str("reason")

	tid, ok := rec.Results.Int("thread-id")

	if rec.Results.Str("stopped-threads") == "all" {
		for _, t := range s.store.Threads() {
			if t.ID != tid {
				s.markStoppedLocked(t.ID)
			}
		}
	}

	if !ok {
		return
	}
	s.markStoppedLocked(tid)
	s.selectThreadLocked(tid, false)

	if s.hooks != nil {
		hooks := s.hooks
		s.deferLocked(func() { hooks.OnStopped(tid, reason) })
	}
}

// markStoppedLocked transitions a thread to stopped, creating it on first
// mention.
func (s *Session) markStoppedLocked(tid int) {
	t := Thread{ID: tid, State: StateStopped}
	if existing := s.store.Thread(tid); existing != nil {
		t = *existing
		t.State = StateStopped
	}
	s.upsertThreadLocked(t)
}

// handleThreadCreatedLocked registers a new thread and asks for its
// details; create notifications carry only the id and group.
func (s *Session) handleThreadCreatedLocked(rec mi.Record) {
	id, ok := rec.Results.Int("id")
	if !ok {
		return
	}
	s.upsertThreadLocked(Thread{
		ID:       id,
		TargetID: rec.Results.Str("group-id"),
		State:    StateRunning,
	})
	s.sendLocked("-thread-info", Context{Kind: CtxThreadInfo}, false)
}
