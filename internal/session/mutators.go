package session

// State-store mutators. Each runs under the session lock, marks the views
// it invalidates, and queues hook callbacks for after the lock is released.

// markRunningLocked records that a thread resumed. Its frames are cleared,
// they are stale once execution resumes, and the source marker is cleared
// when the resumed thread is the selected one.
func (s *Session) markRunningLocked(tid int) {
	th := s.store.Thread(tid)
	if th == nil {
		s.store.UpsertThread(Thread{ID: tid, State: StateRunning})
	} else {
		th.State = StateRunning
		th.Frames = nil
	}

	s.views.MarkDirty(ViewThreads)
	s.views.MarkDirty(ViewFrames)

	if tid == s.selected {
		s.deferSourceClearLocked()
	}
	if s.hooks != nil {
		hooks := s.hooks
		s.deferLocked(func() { hooks.OnRunning(tid) })
	}
}

// upsertThreadLocked inserts or replaces a thread. The first thread to
// appear becomes the selection; a thread arriving in stopped state gets an
// immediate scoped stack request, and the frame view redraws only once that
// stack arrives rather than showing a thread with an unknown stack.
func (s *Session) upsertThreadLocked(t Thread) {
	s.store.UpsertThread(t)
	s.views.MarkDirty(ViewThreads)

	if s.selected == 0 {
		s.selectThreadLocked(t.ID, false)
	}
	if t.State == StateStopped {
		s.requestFramesLocked(t.ID)
	}
}

// removeThreadLocked deletes an exited thread, reselecting the first
// remaining thread (forced) or clearing the selection when none remain.
func (s *Session) removeThreadLocked(tid int) {
	if !s.store.RemoveThread(tid) {
		return
	}

	if s.selected == tid {
		s.selected = 0
		if first, ok := s.store.FirstThreadID(); ok {
			s.selectThreadLocked(first, true)
		} else {
			s.deferSourceClearLocked()
		}
	}

	s.views.MarkDirty(ViewThreads)
	s.views.MarkDirty(ViewFrames)

	if s.hooks != nil {
		hooks := s.hooks
		s.deferLocked(func() { hooks.OnThreadExited(tid) })
	}
}

// rebuildFramesLocked replaces a thread's stack wholesale: clear, append in
// arrival order, then finalize into ascending level order. The stack is
// never observable mid-rebuild.
func (s *Session) rebuildFramesLocked(tid int, frames []Frame) {
	if s.store.Thread(tid) == nil {
		return
	}
	s.store.ClearFrames(tid)
	for _, f := range frames {
		s.store.AppendFrame(tid, f)
	}
	s.store.FinalizeFrames(tid)

	s.views.MarkDirty(ViewThreads)
	s.views.MarkDirty(ViewFrames)

	// A fresh stack for the selected thread re-resolves the source marker.
	if tid == s.selected {
		s.selectFrameLocked(0)
	}
}

// upsertBreakpointLocked inserts or replaces a breakpoint by number.
func (s *Session) upsertBreakpointLocked(b Breakpoint) {
	s.store.UpsertBreakpoint(b)
	s.views.MarkDirty(ViewBreakpoints)

	if s.hooks != nil {
		hooks := s.hooks
		s.deferLocked(func() { hooks.OnBreakpoint(b) })
	}
}

// removeBreakpointLocked deletes a breakpoint by number.
func (s *Session) removeBreakpointLocked(number int) {
	if s.store.RemoveBreakpoint(number) {
		s.views.MarkDirty(ViewBreakpoints)
	}
}

// appendConsoleLocked retains one stream-record payload for the console
// view, trimming the oldest half of the backlog at the cap.
func (s *Session) appendConsoleLocked(text string) {
	s.console = append(s.console, text)
	if len(s.console) > maxConsoleLines {
		s.console = append([]string(nil), s.console[len(s.console)/2:]...)
	}
	s.views.MarkDirty(ViewConsole)
}
