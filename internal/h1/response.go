package h1

import "strconv"

// Response assembles an outgoing HTTP/1.x response: a status line, a
// header block, and — if Build decides the body needs it — chunked
// framing. One Response is built per request/response cycle and is not
// reused.
type Response struct {
	Version string // the request's negotiated version
	Status  int

	fieldNames  []string
	fieldValues []string
	skip        []bool

	// Keepalive is the connection's effective decision for this response.
	// NewResponse defaults it to true for HTTP/1.1, false for HTTP/1.0; the
	// caller overrides it, typically with the request's Keepalive (which
	// field dispatch clears on Connection: close).
	Keepalive bool

	// Chunked is set by Build when the response carries no Content-Length
	// and the client is HTTP/1.1; callers must then frame every body write
	// through a ChunkFramer (Frame, then Last) instead of writing raw bytes.
	Chunked bool
}

// NewResponse starts a response for the given request version and status,
// defaulting Keepalive to the version's implicit default (true for
// HTTP/1.1, false for HTTP/1.0).
func NewResponse(version string, status int) *Response {
	return &Response{
		Version:   version,
		Status:    status,
		Keepalive: defaultKeepalive(version),
	}
}

func defaultKeepalive(version string) bool { return version == "HTTP/1.1" }

// AddField appends a header field in the order it should be written. Every
// field has a skip flag that Build honours, but AddField always stores it
// as false and this package has no method that sets it, so every added
// field is written.
func (r *Response) AddField(name, value string) {
	r.fieldNames = append(r.fieldNames, name)
	r.fieldValues = append(r.fieldValues, value)
	r.skip = append(r.skip, false)
}

func (r *Response) hasContentLength() bool {
	for i, name := range r.fieldNames {
		if name == "Content-Length" && !r.skip[i] {
			return true
		}
	}
	return false
}

// Build renders the status line and header block. If no Content-Length
// field was added and the client is HTTP/1.1, Build sets Chunked and
// appends Transfer-Encoding: chunked; the body must then be framed through
// a ChunkFramer. A Connection header is emitted only when
// Keepalive differs from the version's implicit default.
func (r *Response) Build() []byte {
	buf := []byte(statusLine(r.Version, r.Status))

	def := defaultKeepalive(r.Version)
	if r.Keepalive != def {
		if r.Keepalive {
			buf = append(buf, "Connection: keep-alive\r\n"...)
		} else {
			buf = append(buf, "Connection: close\r\n"...)
		}
	}

	if !r.hasContentLength() && r.Version == "HTTP/1.1" {
		r.Chunked = true
		buf = append(buf, "Transfer-Encoding: chunked\r\n"...)
	}

	for i, name := range r.fieldNames {
		if r.skip[i] {
			continue
		}
		buf = append(buf, name...)
		buf = append(buf, ": "...)
		buf = append(buf, r.fieldValues[i]...)
		buf = append(buf, "\r\n"...)
	}
	buf = append(buf, "\r\n"...)
	return buf
}

// ChunkFramer frames a response body as RFC 7230 chunks. It defers each
// chunk's trailing CRLF to the start of the next Frame/Last call, so the
// first chunk is written bare (size CRLF data) and every call after it is
// prefixed with the CRLF that closes the previous one — which is what
// produces the "\r\n<hex-size>\r\n" framing the wire format calls for on
// every chunk but the first, and the "\r\n0\r\n\r\n" terminator on Last.
type ChunkFramer struct {
	started bool
}

// Frame returns the bytes to write for one body chunk. An empty data is
// equivalent to calling Last.
func (c *ChunkFramer) Frame(data []byte) []byte {
	if len(data) == 0 {
		return c.Last()
	}
	var buf []byte
	if c.started {
		buf = append(buf, "\r\n"...)
	}
	c.started = true
	buf = append(buf, strconv.FormatInt(int64(len(data)), 16)...)
	buf = append(buf, "\r\n"...)
	buf = append(buf, data...)
	return buf
}

// Last returns the terminating zero-size chunk.
func (c *ChunkFramer) Last() []byte {
	var buf []byte
	if c.started {
		buf = append(buf, "\r\n"...)
	}
	c.started = true
	buf = append(buf, "0\r\n\r\n"...)
	return buf
}
