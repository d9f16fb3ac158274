package session

// SelectThread switches the selected thread. Without force, the switch is
// refused while the currently selected thread is mid-stop-sequence: it
// happens only if nothing is selected, or the current selection is not in
// stopped state and the requested id differs. This protects the thread the
// user is inspecting from notification storms.
func (s *Session) SelectThread(id int, force bool) {
	s.mu.Lock()
	s.selectThreadLocked(id, force)
	s.mu.Unlock()
	s.finish()
}

// SelectFrame resolves the source location of the given frame of the
// selected thread and informs the source-location collaborator.
func (s *Session) SelectFrame(level int) {
	s.mu.Lock()
	s.selectFrameLocked(level)
	s.mu.Unlock()
	s.finish()
}

// ClearSourceMarker clears the current-location marker on behalf of a frame
// view, but only when that view's thread is the globally selected one;
// markers belonging to a thread the user is still inspecting stay put.
func (s *Session) ClearSourceMarker(viewThread int) {
	s.mu.Lock()
	if viewThread == s.selected {
		s.deferSourceClearLocked()
	}
	s.mu.Unlock()
	s.finish()
}

func (s *Session) selectThreadLocked(id int, force bool) {
	cur := s.store.Thread(s.selected)
	switch {
	case force:
	case s.selected == 0:
	case cur == nil:
	case cur.State != StateStopped && id != s.selected:
	default:
		return
	}

	// Selection must reference a thread present in the store.
	if s.store.Thread(id) == nil {
		return
	}

	s.selected = id
	s.views.MarkDirty(ViewThreads)
	s.views.MarkDirty(ViewFrames)
	s.selectFrameLocked(0)
}

func (s *Session) selectFrameLocked(level int) {
	th := s.store.Thread(s.selected)
	if th == nil || level < 0 || level >= len(th.Frames) || !th.Frames[level].HasSource() {
		// No debug info or no stack yet: clear any stale marker.
		s.deferSourceClearLocked()
		return
	}

	f := th.Frames[level]
	path := f.File
	if s.completer != nil {
		path = s.completer.Complete(path)
	}
	if s.source != nil {
		src, line := s.source, f.Line
		s.deferLocked(func() { src.Show(path, line) })
	}
	s.views.MarkDirty(ViewSource)
}
