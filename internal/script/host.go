// Package script hosts user Lua hooks for debugger session events.
//
// Scripts register callbacks through a `gdb` module table and may issue MI
// commands back into the session:
//
//	gdb.on_stopped(function(thread, reason) gdb.send("-thread-info") end)
package script

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gdbmi/internal/app"
	"github.com/dshills/gdbmi/internal/session"
)

// Sender issues an MI command. Satisfied by *session.Session.
type Sender interface {
	Send(command string)
}

// Host owns one Lua state and dispatches session events into registered
// callbacks. gopher-lua states are not goroutine-safe; the mutex serializes
// script execution against event delivery.
type Host struct {
	mu        sync.Mutex
	state     *lua.LState
	log       *app.Logger
	sender    Sender
	callbacks map[string][]*lua.LFunction
	closed    bool
}

// NewHost creates a script host bound to the given command sender.
func NewHost(sender Sender, log *app.Logger) *Host {
	if log == nil {
		log = app.NullLogger
	}

	h := &Host{
		state:     lua.NewState(),
		log:       log.WithComponent("script"),
		sender:    sender,
		callbacks: make(map[string][]*lua.LFunction),
	}
	h.installModule()
	return h
}

// installModule registers the `gdb` table.
func (h *Host) installModule() {
	L := h.state
	mod := L.NewTable()

	L.SetField(mod, "send", L.NewFunction(func(L *lua.LState) int {
		cmd := L.CheckString(1)
		if h.sender != nil {
			h.sender.Send(cmd)
		}
		return 0
	}))

	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		h.log.Info("%s", L.CheckString(1))
		return 0
	}))

	for _, event := range []string{
		"stopped", "running", "breakpoint", "thread_exited", "session_ended",
	} {
		event := event
		L.SetField(mod, "on_"+event, L.NewFunction(func(L *lua.LState) int {
			fn := L.CheckFunction(1)
			h.callbacks[event] = append(h.callbacks[event], fn)
			return 0
		}))
	}

	L.SetGlobal("gdb", mod)
}

// LoadFile executes a hook script.
func (h *Host) LoadFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("script host closed")
	}
	if err := h.state.DoFile(path); err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}
	return nil
}

// LoadString executes inline hook source.
func (h *Host) LoadString(src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("script host closed")
	}
	if err := h.state.DoString(src); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	return nil
}

// Close releases the Lua state.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.state.Close()
	}
}

// call invokes every callback registered for an event. A failing callback
// is logged and does not stop the others.
func (h *Host) call(event string, args ...lua.LValue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.callLocked(event, args...)
}

func (h *Host) callLocked(event string, args ...lua.LValue) {
	for _, fn := range h.callbacks[event] {
		err := h.state.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, args...)
		if err != nil {
			h.log.Warn("hook %s failed: %v", event, err)
		}
	}
}

// Session event hooks (session.Hooks).

// OnStopped dispatches on_stopped(thread, reason).
func (h *Host) OnStopped(threadID int, reason string) {
	h.call("stopped", lua.LNumber(threadID), lua.LString(reason))
}

// OnRunning dispatches on_running(thread).
func (h *Host) OnRunning(threadID int) {
	h.call("running", lua.LNumber(threadID))
}

// OnBreakpoint dispatches on_breakpoint(bkpt) with a table argument.
func (h *Host) OnBreakpoint(b session.Breakpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	tbl := h.state.NewTable()
	h.state.SetField(tbl, "number", lua.LNumber(b.Number))
	h.state.SetField(tbl, "enabled", lua.LBool(b.Enabled))
	h.state.SetField(tbl, "file", lua.LString(b.File))
	h.state.SetField(tbl, "line", lua.LNumber(b.Line))
	h.state.SetField(tbl, "description", lua.LString(b.Description))
	h.callLocked("breakpoint", tbl)
}

// OnThreadExited dispatches on_thread_exited(thread).
func (h *Host) OnThreadExited(threadID int) {
	h.call("thread_exited", lua.LNumber(threadID))
}

// OnSessionEnded dispatches on_session_ended(err_text).
func (h *Host) OnSessionEnded(err error) {
	msg := lua.LString("")
	if err != nil {
		msg = lua.LString(err.Error())
	}
	h.call("session_ended", msg)
}
