package mi

import (
	"strings"
)

// ParseLine parses a single line of MI output into a Record. The boolean is
// false only for blank lines; anything else yields at least a RecordUnknown
// carrying the raw text, so callers can log and drop it.
func ParseLine(line string) (Record, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Record{}, false
	}

	if strings.TrimSpace(line) == "(gdb)" {
		return Record{Kind: RecordPrompt}, true
	}

	p := &parser{input: line}
	token := p.token()

	switch {
	case p.eat('^'):
		return p.classRecord(RecordResult, token)
	case p.eat('*'):
		return p.classRecord(RecordExecAsync, token)
	case p.eat('='):
		return p.classRecord(RecordNotifyAsync, token)
	case p.eat('+'):
		return p.classRecord(RecordStatusAsync, token)
	case p.eat('~'):
		return p.streamRecord(StreamConsole)
	case p.eat('@'):
		return p.streamRecord(StreamTarget)
	case p.eat('&'):
		return p.streamRecord(StreamLog)
	default:
		return Record{Kind: RecordUnknown, Text: line}, true
	}
}

// parser is a single-line recursive-descent parser over MI output grammar.
type parser struct {
	input string
	pos   int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) eat(c byte) bool {
	if !p.eof() && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// token consumes a leading run of decimal digits.
func (p *parser) token() string {
	start := p.pos
	for !p.eof() && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	return p.input[start:p.pos]
}

// classRecord parses `class ( "," result )*` after the kind sigil.
func (p *parser) classRecord(kind RecordKind, token string) (Record, bool) {
	class := p.ident()
	if class == "" {
		return Record{Kind: RecordUnknown, Text: p.input}, true
	}

	rec := Record{Kind: kind, Token: token, Class: class, Results: Values{}}
	for p.eat(',') {
		name, val, ok := p.result()
		if !ok {
			// Defensive: keep what parsed cleanly, drop the rest.
			break
		}
		rec.Results[name] = val
	}
	return rec, true
}

// streamRecord parses the c-string payload after a stream sigil.
func (p *parser) streamRecord(stream StreamKind) (Record, bool) {
	text, ok := p.cstring()
	if !ok {
		text = p.input[p.pos:]
	}
	return Record{Kind: RecordStream, Stream: stream, Text: text}, true
}

// ident consumes an MI identifier (letters, digits, '-', '_').
func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.input[p.pos]
		if c == '-' || c == '_' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

// result parses `name "=" value`.
func (p *parser) result() (string, Value, bool) {
	name := p.ident()
	if name == "" || !p.eat('=') {
		return "", Value{}, false
	}
	val, ok := p.value()
	if !ok {
		return "", Value{}, false
	}
	return name, val, true
}

// value parses a c-string, tuple or list.
func (p *parser) value() (Value, bool) {
	switch p.peek() {
	case '"':
		s, ok := p.cstring()
		if !ok {
			return Value{}, false
		}
		return Value{Kind: ValueString, Str: s}, true
	case '{':
		return p.tuple()
	case '[':
		return p.list()
	default:
		return Value{}, false
	}
}

// tuple parses `{ result ( "," result )* }` (possibly empty).
func (p *parser) tuple() (Value, bool) {
	if !p.eat('{') {
		return Value{}, false
	}
	vals := Values{}
	if p.eat('}') {
		return Value{Kind: ValueTuple, Tuple: vals}, true
	}
	for {
		name, val, ok := p.result()
		if !ok {
			return Value{}, false
		}
		vals[name] = val
		if p.eat(',') {
			continue
		}
		if p.eat('}') {
			return Value{Kind: ValueTuple, Tuple: vals}, true
		}
		return Value{}, false
	}
}

// list parses `[ item ( "," item )* ]` where an item is either a bare value
// or a name=value pair. Pairs keep only their value; arrival order is
// preserved.
func (p *parser) list() (Value, bool) {
	if !p.eat('[') {
		return Value{}, false
	}
	var items []Value
	if p.eat(']') {
		return Value{Kind: ValueList, List: items}, true
	}
	for {
		var item Value
		var ok bool
		if c := p.peek(); c == '"' || c == '{' || c == '[' {
			item, ok = p.value()
		} else {
			_, item, ok = p.result()
		}
		if !ok {
			return Value{}, false
		}
		items = append(items, item)
		if p.eat(',') {
			continue
		}
		if p.eat(']') {
			return Value{Kind: ValueList, List: items}, true
		}
		return Value{}, false
	}
}

// cstring parses a double-quoted string with MI escapes.
func (p *parser) cstring() (string, bool) {
	if !p.eat('"') {
		return "", false
	}
	var b strings.Builder
	for !p.eof() {
		c := p.input[p.pos]
		p.pos++
		switch c {
		case '"':
			return b.String(), true
		case '\\':
			if p.eof() {
				return "", false
			}
			e := p.input[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '"', '\'':
				b.WriteByte(e)
			default:
				// Unknown escape: keep it verbatim rather than fail the record.
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", false
}
