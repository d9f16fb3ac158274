package session

// SourceDisplay is the collaborator that shows the current source location.
// The engine only ever asks it to display a (path, line) marker or to clear
// it; buffer and window mechanics belong entirely to the host.
type SourceDisplay interface {
	// Show displays and marks the given source location.
	Show(path string, line int)

	// Clear removes any current-location marker.
	Clear()
}

// PathCompleter resolves a file path reported by the debugger into one the
// host can open (remote prefixes, compilation-dir relative paths, ...).
type PathCompleter interface {
	// Complete maps a protocol-reported path to a displayable one. Returning
	// the input unchanged is always acceptable.
	Complete(path string) string
}

// ChoiceOption is one entry in a disambiguation prompt.
type ChoiceOption struct {
	ID    int
	Label string
}

// Chooser is the collaborator that asks the user to disambiguate when a
// command needs a thread the caller did not unambiguously provide.
type Chooser interface {
	// Choose presents the options and returns the chosen id. The boolean is
	// false when the user dismissed the prompt.
	Choose(title string, options []ChoiceOption) (int, bool)
}

// CursorContext reports the thread or frame under the host's cursor within
// a thread/frame view, so location-scoped commands can act on the item the
// user is pointing at.
type CursorContext interface {
	// CursorThread returns the thread id under the cursor, if any.
	CursorThread() (int, bool)

	// CursorFrame returns the frame level under the cursor, if any.
	CursorFrame() (int, bool)

	// CursorViewThread returns the thread id the focused frame view is
	// rendering, if the focused view is a frame view.
	CursorViewThread() (int, bool)
}

// DisassemblySink receives decoded disassembler output. Views interested in
// disassembly implement it in addition to View.
type DisassemblySink interface {
	// SetDisassembly replaces the view's disassembly text.
	SetDisassembly(lines []string)
}

// Hooks receives session event callbacks. All methods are invoked outside
// the engine lock, after the state mutation that triggered them, so a hook
// may call back into the session.
type Hooks interface {
	// OnStopped fires when a thread stops.
	OnStopped(threadID int, reason string)

	// OnRunning fires when a thread resumes.
	OnRunning(threadID int)

	// OnBreakpoint fires when a breakpoint is created or modified.
	OnBreakpoint(b Breakpoint)

	// OnThreadExited fires when a thread exits.
	OnThreadExited(threadID int)

	// OnSessionEnded fires when the session tears down. err is nil for an
	// explicit kill and carries the stream error for a subprocess death.
	OnSessionEnded(err error)
}
