package session

import (
	"sort"
)

// ThreadState is the execution state of one target thread.
type ThreadState int

const (
	// StateRunning means the thread is executing.
	StateRunning ThreadState = iota
	// StateStopped means the thread is halted.
	StateStopped
)

// String returns the string representation of the thread state.
func (s ThreadState) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "running"
}

// Thread is one target thread and its (possibly empty) call stack.
type Thread struct {
	ID       int
	TargetID string
	Name     string
	State    ThreadState
	Core     string

	// Frames is the call stack in ascending level order starting at 0.
	// Empty while the thread runs or before the first stack refresh.
	Frames []Frame
}

// Frame is one stack frame, owned exclusively by its thread.
type Frame struct {
	Level int
	Addr  string
	Func  string
	File  string
	Line  int
	From  string
}

// HasSource reports whether the frame resolves to a source location.
func (f Frame) HasSource() bool {
	return f.File != "" && f.Line > 0
}

// Breakpoint is one debugger breakpoint keyed by number.
type Breakpoint struct {
	Number      int
	Type        string
	Disp        string
	Enabled     bool
	Addr        string
	Hits        string
	Description string
	File        string
	Line        int
}

// Store is the authoritative debug-state model: threads and breakpoints as
// ordered insert-or-replace maps keyed by integer id. Enumeration order is
// insertion order, which disambiguation prompts depend on. The store does
// no locking; the owning session serializes access.
type Store struct {
	threadOrder []int
	threads     map[int]*Thread

	bpOrder []int
	bps     map[int]*Breakpoint
}

// Thread returns the thread with the given id, or nil.
func (st *Store) Thread(id int) *Thread {
	return st.threads[id]
}

// Threads returns copies of all threads in insertion order.
func (st *Store) Threads() []Thread {
	out := make([]Thread, 0, len(st.threadOrder))
	for _, id := range st.threadOrder {
		out = append(out, *st.threads[id])
	}
	return out
}

// ThreadCount returns the number of known threads.
func (st *Store) ThreadCount() int {
	return len(st.threadOrder)
}

// UpsertThread inserts or replaces a thread by id, preserving its relative
// position and its frame list when replacing.
func (st *Store) UpsertThread(t Thread) {
	if st.threads == nil {
		st.threads = make(map[int]*Thread)
	}
	if existing, ok := st.threads[t.ID]; ok {
		if t.Frames == nil {
			t.Frames = existing.Frames
		}
		*existing = t
		return
	}
	th := t
	st.threads[t.ID] = &th
	st.threadOrder = append(st.threadOrder, t.ID)
}

// RemoveThread deletes a thread by id.
func (st *Store) RemoveThread(id int) bool {
	if _, ok := st.threads[id]; !ok {
		return false
	}
	delete(st.threads, id)
	for i, tid := range st.threadOrder {
		if tid == id {
			st.threadOrder = append(st.threadOrder[:i], st.threadOrder[i+1:]...)
			break
		}
	}
	return true
}

// FirstThreadID returns the first thread in insertion order.
func (st *Store) FirstThreadID() (int, bool) {
	if len(st.threadOrder) == 0 {
		return 0, false
	}
	return st.threadOrder[0], true
}

// FirstRunning returns the first-enumerated running thread.
func (st *Store) FirstRunning() (int, bool) {
	for _, id := range st.threadOrder {
		if st.threads[id].State == StateRunning {
			return id, true
		}
	}
	return 0, false
}

// AnyStopped reports whether at least one thread is stopped.
func (st *Store) AnyStopped() bool {
	for _, id := range st.threadOrder {
		if st.threads[id].State == StateStopped {
			return true
		}
	}
	return false
}

// ClearFrames begins a stack rebuild for a thread by dropping its frames.
func (st *Store) ClearFrames(id int) {
	if th, ok := st.threads[id]; ok {
		th.Frames = []Frame{}
	}
}

// AppendFrame accumulates one frame during a stack rebuild. Arrival order
// does not matter; FinalizeFrames establishes the invariant ordering.
func (st *Store) AppendFrame(id int, f Frame) {
	if th, ok := st.threads[id]; ok {
		th.Frames = append(th.Frames, f)
	}
}

// FinalizeFrames completes a stack rebuild, ordering frames by ascending
// level. Views never observe the stack between ClearFrames and here.
func (st *Store) FinalizeFrames(id int) {
	th, ok := st.threads[id]
	if !ok {
		return
	}
	sort.SliceStable(th.Frames, func(i, j int) bool {
		return th.Frames[i].Level < th.Frames[j].Level
	})
}

// Breakpoint returns the breakpoint with the given number, or nil.
func (st *Store) Breakpoint(number int) *Breakpoint {
	return st.bps[number]
}

// Breakpoints returns copies of all breakpoints in insertion order.
func (st *Store) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, 0, len(st.bpOrder))
	for _, n := range st.bpOrder {
		out = append(out, *st.bps[n])
	}
	return out
}

// UpsertBreakpoint inserts or replaces a breakpoint by number.
func (st *Store) UpsertBreakpoint(b Breakpoint) {
	if st.bps == nil {
		st.bps = make(map[int]*Breakpoint)
	}
	if existing, ok := st.bps[b.Number]; ok {
		*existing = b
		return
	}
	bp := b
	st.bps[b.Number] = &bp
	st.bpOrder = append(st.bpOrder, b.Number)
}

// RemoveBreakpoint deletes a breakpoint by number.
func (st *Store) RemoveBreakpoint(number int) bool {
	if _, ok := st.bps[number]; !ok {
		return false
	}
	delete(st.bps, number)
	for i, n := range st.bpOrder {
		if n == number {
			st.bpOrder = append(st.bpOrder[:i], st.bpOrder[i+1:]...)
			break
		}
	}
	return true
}

// ClearThreads drops all threads and the frames they own. Breakpoints are
// deliberately retained for post-mortem inspection; ResetBreakpoints drops
// them when a fresh session starts.
func (st *Store) ClearThreads() {
	st.threadOrder = nil
	st.threads = make(map[int]*Thread)
}

// ResetBreakpoints drops all breakpoints.
func (st *Store) ResetBreakpoints() {
	st.bpOrder = nil
	st.bps = make(map[int]*Breakpoint)
}
