package h1

import "github.com/genhoi/unit/internal/fields"

// Field is a raw, order-preserved (name, value) header pair. Every header
// line is kept as a Field, whether or not the dispatch table in
// internal/fields recognizes it, so an upstream handler can still see it.
type Field struct {
	Name  string
	Value string
}

// Request is a fully parsed HTTP/1.x request: request line, the subset of
// header fields internal/fields recognizes semantically (embedded), every
// raw header in wire order, and the body (nil if none was requested).
type Request struct {
	Method        string
	RequestTarget string
	Version       string // "HTTP/1.0" or "HTTP/1.1"

	fields.Target

	RawFields []Field
	Body      []byte
}
