package session

import (
	"strings"
	"sync"
	"testing"
)

// recordingHooks records hook invocations.
type recordingHooks struct {
	mu       sync.Mutex
	stopped  []string
	running  []int
	bkpts    []Breakpoint
	exited   []int
	endCount int
}

func (h *recordingHooks) OnStopped(threadID int, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = append(h.stopped, reason)
}

func (h *recordingHooks) OnRunning(threadID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = append(h.running, threadID)
}

func (h *recordingHooks) OnBreakpoint(b Breakpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bkpts = append(h.bkpts, b)
}

func (h *recordingHooks) OnThreadExited(threadID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exited = append(h.exited, threadID)
}

func (h *recordingHooks) OnSessionEnded(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endCount++
}

func TestInitialFileReplySetsSourceLocation(t *testing.T) {
	mt := newMockTransport()
	s := New(nil)
	src := &mockSource{}
	s.SetSourceDisplay(src)
	if err := s.Start(mt); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Kill()

	// Token 1 is the startup source-location request.
	s.HandleOutput("1^done,fullname=\"/src/main.c\",file=\"main.c\",line=\"12\"\n(gdb)")

	shown := src.shown()
	if len(shown) != 1 || shown[0] != "/src/main.c" {
		t.Fatalf("shown = %v, want [/src/main.c]", shown)
	}
}

func TestResultTokenResolvesOnce(t *testing.T) {
	s, _ := startedSession(t)
	src := &mockSource{}
	s.SetSourceDisplay(src)

	reply := "1^done,fullname=\"/src/main.c\",line=\"12\"\n(gdb)"
	s.HandleOutput(reply)
	s.HandleOutput(reply) // duplicate token: nobody is waiting anymore

	if got := len(src.shown()); got != 1 {
		t.Fatalf("source shown %d times, want 1", got)
	}
}

func TestStoppedRequestsFramesAndSelects(t *testing.T) {
	s, mt := startedSession(t)
	hooks := &recordingHooks{}
	s.SetHooks(hooks)
	src := &mockSource{}
	s.SetSourceDisplay(src)

	s.HandleOutput(strings.Join([]string{
		`=thread-created,id="1",group-id="i1"`,
		`*running,thread-id="1"`,
		"(gdb)",
	}, "\n"))
	mt.clearSent()

	s.HandleOutput(`*stopped,reason="breakpoint-hit",thread-id="1",stopped-threads="all"` + "\n(gdb)")

	sent := mt.sentLines()
	if len(sent) != 1 || !strings.HasSuffix(sent[0], "-stack-list-frames --thread 1") {
		t.Fatalf("sent = %v, want a scoped stack request", sent)
	}
	if s.SelectedThread() != 1 {
		t.Errorf("selected = %d, want 1", s.SelectedThread())
	}
	if len(hooks.stopped) != 1 || hooks.stopped[0] != "breakpoint-hit" {
		t.Errorf("stopped hooks = %v, want [breakpoint-hit]", hooks.stopped)
	}

	// Stack reply arrives out of level order; token 3 is the stack request.
	s.HandleOutput(`3^done,stack=[` +
		`frame={level="2",addr="0x3",func="start",file="rt.c",fullname="/src/rt.c",line="30"},` +
		`frame={level="0",addr="0x1",func="worker",file="main.c",fullname="/src/main.c",line="10"},` +
		`frame={level="1",addr="0x2",func="main",file="main.c",fullname="/src/main.c",line="20"}]` +
		"\n(gdb)")

	th, ok := s.Thread(1)
	if !ok {
		t.Fatal("thread 1 missing")
	}
	if len(th.Frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(th.Frames))
	}
	for i, f := range th.Frames {
		if f.Level != i {
			t.Errorf("frame %d has level %d, want ascending order", i, f.Level)
		}
	}

	// Frame 0 of the selected thread resolves the source marker.
	shown := src.shown()
	if len(shown) == 0 || shown[len(shown)-1] != "/src/main.c" {
		t.Errorf("shown = %v, want /src/main.c last", shown)
	}
}

func TestStoppedAllMarksEveryThread(t *testing.T) {
	s, _ := startedSession(t)
	s.HandleOutput(strings.Join([]string{
		`=thread-created,id="1",group-id="i1"`,
		`=thread-created,id="2",group-id="i1"`,
		`*running,thread-id="all"`,
		"(gdb)",
	}, "\n"))

	s.HandleOutput(`*stopped,reason="signal-received",thread-id="2",stopped-threads="all"` + "\n(gdb)")

	for _, th := range s.Threads() {
		if th.State != StateStopped {
			t.Errorf("thread %d state = %v, want stopped", th.ID, th.State)
		}
	}
}

func TestRunningClearsFramesAndMarker(t *testing.T) {
	s, _ := startedSession(t)
	src := &mockSource{}
	s.SetSourceDisplay(src)

	s.HandleOutput(strings.Join([]string{
		`=thread-created,id="1",group-id="i1"`,
		`*stopped,reason="breakpoint-hit",thread-id="1"`,
		"(gdb)",
	}, "\n"))
	s.HandleOutput(`3^done,stack=[frame={level="0",addr="0x1",func="main",file="main.c",fullname="/src/main.c",line="10"}]` + "\n(gdb)")

	clearsBefore := src.clearCount()
	s.HandleOutput(`*running,thread-id="1"` + "\n(gdb)")

	th, _ := s.Thread(1)
	if th.State != StateRunning {
		t.Errorf("state = %v, want running", th.State)
	}
	if len(th.Frames) != 0 {
		t.Errorf("frames = %d, want cleared on resume", len(th.Frames))
	}
	if src.clearCount() <= clearsBefore {
		t.Error("source marker not cleared when the selected thread resumed")
	}
}

func TestThreadInfoListingUpserts(t *testing.T) {
	s, _ := startedSession(t)

	s.RequestThreads() // token 2
	s.HandleOutput(`2^done,threads=[` +
		`{id="1",target-id="Thread 0x1",name="main",state="stopped",core="0"},` +
		`{id="2",target-id="Thread 0x2",name="worker",state="running"}]` +
		"\n(gdb)")

	threads := s.Threads()
	if len(threads) != 2 {
		t.Fatalf("threads = %d, want 2", len(threads))
	}
	if threads[0].Name != "main" || threads[0].State != StateStopped {
		t.Errorf("thread 1 = %+v, want stopped main", threads[0])
	}
	if threads[1].Name != "worker" || threads[1].State != StateRunning {
		t.Errorf("thread 2 = %+v, want running worker", threads[1])
	}
}

func TestThreadExitedReselectsRemaining(t *testing.T) {
	s, _ := startedSession(t)
	hooks := &recordingHooks{}
	s.SetHooks(hooks)

	s.HandleOutput(strings.Join([]string{
		`=thread-created,id="1",group-id="i1"`,
		`=thread-created,id="2",group-id="i1"`,
		"(gdb)",
	}, "\n"))
	if s.SelectedThread() != 1 {
		t.Fatalf("selected = %d, want 1", s.SelectedThread())
	}

	s.HandleOutput(`=thread-exited,id="1",group-id="i1"` + "\n(gdb)")

	if s.SelectedThread() != 2 {
		t.Errorf("selected = %d, want reselection to 2", s.SelectedThread())
	}
	if len(hooks.exited) != 1 || hooks.exited[0] != 1 {
		t.Errorf("exited hooks = %v, want [1]", hooks.exited)
	}

	s.HandleOutput(`=thread-exited,id="2",group-id="i1"` + "\n(gdb)")
	if s.SelectedThread() != 0 {
		t.Errorf("selected = %d, want none after last exit", s.SelectedThread())
	}
}

func TestBreakpointNotificationLifecycle(t *testing.T) {
	s, _ := startedSession(t)
	hooks := &recordingHooks{}
	s.SetHooks(hooks)

	s.HandleOutput(`=breakpoint-created,bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="0x1000",func="main",file="main.c",fullname="/src/main.c",line="10",times="0"}` + "\n(gdb)")

	bps := s.Breakpoints()
	if len(bps) != 1 {
		t.Fatalf("breakpoints = %d, want 1", len(bps))
	}
	if bps[0].Description != "in main at main.c:10" {
		t.Errorf("description = %q", bps[0].Description)
	}
	if len(hooks.bkpts) != 1 {
		t.Errorf("breakpoint hooks = %d, want 1", len(hooks.bkpts))
	}

	s.HandleOutput(`=breakpoint-modified,bkpt={number="1",type="breakpoint",disp="keep",enabled="n",addr="0x1000",func="main",file="main.c",line="10",times="2"}` + "\n(gdb)")

	bps = s.Breakpoints()
	if len(bps) != 1 || bps[0].Enabled || bps[0].Hits != "2" {
		t.Errorf("modified breakpoint = %+v, want disabled with 2 hits", bps[0])
	}

	s.HandleOutput(`=breakpoint-deleted,id="1"` + "\n(gdb)")
	if len(s.Breakpoints()) != 0 {
		t.Error("breakpoint survived deletion")
	}
}

func TestStreamRecordsAppendConsole(t *testing.T) {
	s, _ := startedSession(t)

	s.HandleOutput(strings.Join([]string{
		`~"Reading symbols from a.out\n"`,
		`&"warning: something\n"`,
		`@"target says hi\n"`,
		"(gdb)",
	}, "\n"))

	lines := s.ConsoleLines()
	if len(lines) != 3 {
		t.Fatalf("console = %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Reading symbols") {
		t.Errorf("line 0 = %q", lines[0])
	}
}

func TestChunkFlushesEachDirtyViewOnce(t *testing.T) {
	s, _ := startedSession(t)
	threadsView := &countingView{kind: ViewThreads}
	consoleView := &countingView{kind: ViewConsole}
	bpView := &countingView{kind: ViewBreakpoints}
	s.Views().Register(threadsView)
	s.Views().Register(consoleView)
	s.Views().Register(bpView)

	s.HandleOutput(strings.Join([]string{
		`=thread-created,id="1",group-id="i1"`,
		`=thread-created,id="2",group-id="i1"`,
		`~"one\n"`,
		`~"two\n"`,
		"(gdb)",
	}, "\n"))

	if got := threadsView.count(); got != 1 {
		t.Errorf("threads view redrawn %d times, want 1", got)
	}
	if got := consoleView.count(); got != 1 {
		t.Errorf("console view redrawn %d times, want 1", got)
	}
	if got := bpView.count(); got != 0 {
		t.Errorf("breakpoints view redrawn %d times, want 0", got)
	}
}

func TestOutputAfterKillIsDropped(t *testing.T) {
	s, _ := startedSession(t)
	s.HandleOutput(`=thread-created,id="1",group-id="i1"` + "\n(gdb)")
	s.Kill()

	s.HandleOutput(`=thread-created,id="2",group-id="i1"` + "\n(gdb)")

	if len(s.Threads()) != 0 {
		t.Error("output after kill mutated state")
	}
}

func TestDisassemblyRoutedToRequestingView(t *testing.T) {
	s, _ := startedSession(t)

	sink := &disasmSink{}
	s.RequestDisassembly(sink) // token 2, no threads so unwrapped

	s.HandleOutput(`2^done,asm_insns=[` +
		`{address="0x1000",func-name="main",offset="0",inst="push %rbp"},` +
		`{address="0x1001",func-name="main",offset="1",inst="mov %rsp,%rbp"}]` +
		"\n(gdb)")

	lines := sink.lines()
	if len(lines) != 2 {
		t.Fatalf("disassembly = %d lines, want 2", len(lines))
	}
	if lines[0] != "0x1000 <main+0>:\tpush %rbp" {
		t.Errorf("line 0 = %q", lines[0])
	}
}

func TestErrorResultConsumesContext(t *testing.T) {
	s, mt := startedSession(t)

	s.RequestThreads() // token 2
	mt.clearSent()

	s.HandleOutput(`2^error,msg="No registers."` + "\n(gdb)")

	// No retry, no state change, no crash.
	if got := mt.sentLines(); len(got) != 0 {
		t.Errorf("error result triggered traffic: %v", got)
	}
	if len(s.Threads()) != 0 {
		t.Error("error result mutated thread state")
	}
}

// disasmSink captures disassembly listings.
type disasmSink struct {
	mu    sync.Mutex
	got   []string
	drawn int
}

func (d *disasmSink) ViewKind() ViewKind { return ViewDisassembly }

func (d *disasmSink) Redraw() {
	d.mu.Lock()
	d.drawn++
	d.mu.Unlock()
}

func (d *disasmSink) SetDisassembly(lines []string) {
	d.mu.Lock()
	d.got = lines
	d.mu.Unlock()
}

func (d *disasmSink) lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.got...)
}
