package value

import "strconv"

// Options controls Print's output.
type Options struct {
	// Pretty enables tab-indented, CRLF-newline formatting with a blank
	// line inserted between an object member whose value is a non-empty
	// nested array/object and the member that follows it (none after the
	// last member).
	Pretty bool
}

// Print serializes v in two passes: the first walks the tree with a nil
// write buffer purely to compute the exact output length, the second
// allocates a buffer of that length and walks the tree again to fill it.
// This mirrors the source's null-cursor-then-real-buffer printer and avoids
// any buffer growth/reallocation during the write pass.
func Print(v Value, opts Options) []byte {
	counter := &writer{}
	counter.writeValue(v, opts.Pretty, 0)

	buf := make([]byte, counter.n)
	w := &writer{buf: buf}
	w.writeValue(v, opts.Pretty, 0)
	return buf
}

// writer accumulates a byte count when buf is nil, or writes into buf (which
// must be exactly long enough) otherwise.
type writer struct {
	buf []byte
	n   int
}

func (w *writer) byte(b byte) {
	if w.buf != nil {
		w.buf[w.n] = b
	}
	w.n++
}

func (w *writer) str(s string) {
	if w.buf != nil {
		copy(w.buf[w.n:], s)
	}
	w.n += len(s)
}

func (w *writer) raw(b []byte) {
	if w.buf != nil {
		copy(w.buf[w.n:], b)
	}
	w.n += len(b)
}

func (w *writer) indent(level int) {
	for i := 0; i < level; i++ {
		w.byte('\t')
	}
}

func isNonEmptyContainer(v Value) bool {
	return (v.Kind() == Array || v.Kind() == Object) && v.Len() > 0
}

func (w *writer) writeValue(v Value, pretty bool, level int) {
	switch v.Kind() {
	case Null:
		w.str("null")
	case Bool:
		if v.Bool() {
			w.str("true")
		} else {
			w.str("false")
		}
	case Int:
		var tmp [24]byte
		w.raw(strconv.AppendInt(tmp[:0], v.Int(), 10))
	case String:
		w.writeString(v.Str())
	case Array:
		w.writeArray(v, pretty, level)
	case Object:
		w.writeObject(v, pretty, level)
	}
}

func (w *writer) writeArray(v Value, pretty bool, level int) {
	w.byte('[')
	n := v.Len()
	if n == 0 {
		w.byte(']')
		return
	}
	for i := 0; i < n; i++ {
		if pretty {
			if i == 0 {
				w.str("\r\n")
			} else {
				w.byte(',')
				w.str("\r\n")
			}
			w.indent(level + 1)
		} else if i > 0 {
			w.byte(',')
		}
		w.writeValue(v.Index(i), pretty, level+1)
	}
	if pretty {
		w.str("\r\n")
		w.indent(level)
	}
	w.byte(']')
}

func (w *writer) writeObject(v Value, pretty bool, level int) {
	w.byte('{')
	n := v.Len()
	if n == 0 {
		w.byte('}')
		return
	}
	for i := 0; i < n; i++ {
		m := v.MemberAt(i)
		if pretty {
			if i == 0 {
				w.str("\r\n")
			} else {
				w.byte(',')
				w.str("\r\n")
				if isNonEmptyContainer(v.MemberAt(i - 1).Value) {
					w.str("\r\n")
				}
			}
			w.indent(level + 1)
		} else if i > 0 {
			w.byte(',')
		}
		w.writeString(m.Name.Str())
		w.byte(':')
		if pretty {
			w.byte(' ')
		}
		w.writeValue(m.Value, pretty, level+1)
	}
	if pretty {
		w.str("\r\n")
		w.indent(level)
	}
	w.byte('}')
}

const hexUpper = "0123456789ABCDEF"

func (w *writer) writeString(s string) {
	w.byte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			w.str(`\\`)
		case '"':
			w.str(`\"`)
		case '\n':
			w.str(`\n`)
		case '\r':
			w.str(`\r`)
		case '\t':
			w.str(`\t`)
		case '\b':
			w.str(`\b`)
		case '\f':
			w.str(`\f`)
		default:
			if c < 0x20 {
				w.str(`\u00`)
				w.byte(hexUpper[c>>4])
				w.byte(hexUpper[c&0xF])
			} else {
				w.byte(c)
			}
		}
	}
	w.byte('"')
}
