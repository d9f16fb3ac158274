package session

import "sync"

// ViewKind identifies a category of debugger view.
type ViewKind int

const (
	// ViewThreads lists the target's threads.
	ViewThreads ViewKind = iota

	// ViewFrames shows the selected thread's call stack.
	ViewFrames

	// ViewBreakpoints lists breakpoints.
	ViewBreakpoints

	// ViewDisassembly shows disassembled target code.
	ViewDisassembly

	// ViewConsole shows console, log and target stream output.
	ViewConsole

	// ViewSource is the source-location display.
	ViewSource
)

// String returns the string representation of the view kind.
func (k ViewKind) String() string {
	switch k {
	case ViewThreads:
		return "threads"
	case ViewFrames:
		return "frames"
	case ViewBreakpoints:
		return "breakpoints"
	case ViewDisassembly:
		return "disassembly"
	case ViewConsole:
		return "console"
	case ViewSource:
		return "source"
	default:
		return "unknown"
	}
}

// View is a live view instance the engine can invalidate.
type View interface {
	// ViewKind reports which category of state this view renders.
	ViewKind() ViewKind

	// Redraw re-renders the view from current session state.
	Redraw()
}

// Invalidator coalesces state changes into at most one redraw per view per
// output batch. Mutators mark kinds dirty; Flush runs once per batch,
// redraws every live view whose kind is dirty, and clears the set.
type Invalidator struct {
	mu    sync.Mutex
	views []View
	dirty map[ViewKind]struct{}
}

// NewInvalidator creates an empty view invalidator.
func NewInvalidator() *Invalidator {
	return &Invalidator{dirty: make(map[ViewKind]struct{})}
}

// Register adds a live view instance.
func (inv *Invalidator) Register(v View) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.views = append(inv.views, v)
}

// Unregister removes a view instance.
func (inv *Invalidator) Unregister(v View) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i, existing := range inv.views {
		if existing == v {
			inv.views = append(inv.views[:i], inv.views[i+1:]...)
			return
		}
	}
}

// MarkDirty tags a view kind as needing redraw. Duplicate tags collapse.
func (inv *Invalidator) MarkDirty(kind ViewKind) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.dirty[kind] = struct{}{}
}

// IsDirty reports whether a kind is pending redraw.
func (inv *Invalidator) IsDirty(kind ViewKind) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	_, ok := inv.dirty[kind]
	return ok
}

// Flush redraws every registered view whose kind is in the dirty set, then
// clears the set. Redraw callbacks run without the invalidator lock held so
// views can read session state freely.
func (inv *Invalidator) Flush() {
	inv.mu.Lock()
	if len(inv.dirty) == 0 {
		inv.mu.Unlock()
		return
	}
	dirty := inv.dirty
	inv.dirty = make(map[ViewKind]struct{})
	views := make([]View, len(inv.views))
	copy(views, inv.views)
	inv.mu.Unlock()

	for _, v := range views {
		if _, ok := dirty[v.ViewKind()]; ok {
			v.Redraw()
		}
	}
}
