package mi

import "strconv"

// RecordKind classifies an MI output record.
type RecordKind int

const (
	// RecordUnknown is a line the parser could not classify.
	RecordUnknown RecordKind = iota

	// RecordResult is a token-correlated result record (^done, ^error, ...).
	RecordResult

	// RecordExecAsync is an execution-state notification (*running, *stopped).
	RecordExecAsync

	// RecordNotifyAsync is a general notification (=thread-created, ...).
	RecordNotifyAsync

	// RecordStatusAsync is a progress notification (+download, ...).
	RecordStatusAsync

	// RecordStream is console, target or log stream output (~, @, &).
	RecordStream

	// RecordPrompt is the "(gdb)" ready prompt terminating an output batch.
	RecordPrompt
)

// String returns a string representation of the record kind.
func (k RecordKind) String() string {
	switch k {
	case RecordResult:
		return "result"
	case RecordExecAsync:
		return "exec-async"
	case RecordNotifyAsync:
		return "notify-async"
	case RecordStatusAsync:
		return "status-async"
	case RecordStream:
		return "stream"
	case RecordPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// StreamKind identifies the channel of a stream record.
type StreamKind int

const (
	// StreamConsole is CLI console output (~).
	StreamConsole StreamKind = iota
	// StreamTarget is target program output (@).
	StreamTarget
	// StreamLog is GDB's own log/debug output (&).
	StreamLog
)

// Record is one parsed MI output record.
type Record struct {
	// Kind classifies the record.
	Kind RecordKind

	// Token is the decimal correlation token, empty when absent.
	Token string

	// Class is the result class ("done", "error", "running", "exit") or the
	// async class name ("stopped", "thread-created", ...).
	Class string

	// Results holds the named fields following the class.
	Results Values

	// Stream is the channel for RecordStream records.
	Stream StreamKind

	// Text is the decoded payload for stream records and the raw line for
	// unknown records.
	Text string
}

// ValueKind discriminates an MI value.
type ValueKind int

const (
	// ValueString is a c-string constant.
	ValueString ValueKind = iota
	// ValueTuple is a {name=value, ...} tuple.
	ValueTuple
	// ValueList is a [value, ...] or [name=value, ...] list.
	ValueList
)

// Value is a single MI result value: a string constant, a tuple, or a list.
type Value struct {
	Kind  ValueKind
	Str   string
	Tuple Values
	List  []Value
}

// Values maps result names to values.
type Values map[string]Value

// Str returns the string value of a named field, or "" when absent or not a
// string.
func (v Values) Str(name string) string {
	val, ok := v[name]
	if !ok || val.Kind != ValueString {
		return ""
	}
	return val.Str
}

// Int returns the integer value of a named string field. The second return
// is false when the field is absent or not a decimal integer.
func (v Values) Int(name string) (int, bool) {
	s := v.Str(name)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Tuple returns the tuple value of a named field, or nil.
func (v Values) Tuple(name string) Values {
	val, ok := v[name]
	if !ok || val.Kind != ValueTuple {
		return nil
	}
	return val.Tuple
}

// List returns the list elements of a named field, or nil. MI encodes some
// lists as repeated name=value pairs inside brackets; for those the parser
// keeps the values in arrival order and drops the repeated names.
func (v Values) List(name string) []Value {
	val, ok := v[name]
	if !ok || val.Kind != ValueList {
		return nil
	}
	return val.List
}
