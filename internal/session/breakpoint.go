package session

import (
	"fmt"

	"github.com/dshills/gdbmi/internal/mi"
)

// breakpointFromTuple builds a Breakpoint from the bkpt tuple of a
// breakpoint notification. Fields the engine does not model are ignored.
func breakpointFromTuple(v mi.Values) Breakpoint {
	num, _ := v.Int("number")
	b := Breakpoint{
		Number:  num,
		Type:    v.Str("type"),
		Disp:    v.Str("disp"),
		Enabled: v.Str("enabled") == "y",
		Addr:    v.Str("addr"),
		Hits:    v.Str("times"),
	}

	if full := v.Str("fullname"); full != "" {
		b.File = full
	} else {
		b.File = v.Str("file")
	}
	if line, ok := v.Int("line"); ok {
		b.Line = line
	}

	b.Description = describeBreakpoint(v)
	return b
}

// describeBreakpoint synthesizes display text for a breakpoint from
// whichever of the explicit "what" field, the pending-resolution label, the
// target-address label, or function+file:line is available, in that
// preference order. Condition and thread suffixes are appended when present.
func describeBreakpoint(v mi.Values) string {
	var desc string
	switch {
	case v.Str("what") != "":
		desc = v.Str("what")
	case v.Str("pending") != "":
		desc = "pending: " + v.Str("pending")
	case v.Str("func") == "" && v.Str("addr") != "":
		desc = "at " + v.Str("addr")
	default:
		fn := v.Str("func")
		if fn == "" {
			fn = "?"
		}
		file := v.Str("file")
		if file == "" {
			file = v.Str("fullname")
		}
		desc = fmt.Sprintf("in %s at %s:%s", fn, file, v.Str("line"))
	}

	if cond := v.Str("cond"); cond != "" {
		desc += " if " + cond
	}
	if th := v.Str("thread"); th != "" {
		desc += " on thread " + th
	}
	return desc
}

// threadFromTuple builds a Thread from one element of a -thread-info
// listing.
func threadFromTuple(v mi.Values) (Thread, bool) {
	id, ok := v.Int("id")
	if !ok {
		return Thread{}, false
	}

	t := Thread{
		ID:       id,
		TargetID: v.Str("target-id"),
		Name:     v.Str("name"),
		Core:     v.Str("core"),
		State:    StateRunning,
	}
	if v.Str("state") == "stopped" {
		t.State = StateStopped
	}
	return t, true
}

// frameFromTuple builds a Frame from a frame tuple of a stack listing.
func frameFromTuple(v mi.Values) Frame {
	f := Frame{
		Addr: v.Str("addr"),
		Func: v.Str("func"),
		From: v.Str("from"),
	}
	if lvl, ok := v.Int("level"); ok {
		f.Level = lvl
	}
	if full := v.Str("fullname"); full != "" {
		f.File = full
	} else {
		f.File = v.Str("file")
	}
	if line, ok := v.Int("line"); ok {
		f.Line = line
	}
	return f
}
