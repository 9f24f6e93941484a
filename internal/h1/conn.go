// Package h1 implements the HTTP/1.x connection state machine: idle →
// read-header (incremental header parse) → (read-body) → request-ready,
// then Reset back to idle or read-header on keepalive, or close on a parse
// error. Writing the response is left to the owner: StateSend is defined,
// but no method of Connection enters it. The package also builds response
// heads and frames chunked response bodies. It consumes an
// arena.Arena for every allocation and internal/fields for per-field
// semantic dispatch; it does not open sockets or run timers itself — those
// are external collaborators the connection's owner drives by calling
// Feed with newly read bytes.
package h1

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/genhoi/unit/internal/arena"
	"github.com/genhoi/unit/internal/fields"
)

// State is one node of the connection's state machine.
type State uint8

const (
	StateIdle State = iota
	StateReadHeader
	StateReadBody
	StateRequestReady
	StateSend
	StateClose
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReadHeader:
		return "read-header"
	case StateReadBody:
		return "read-body"
	case StateRequestReady:
		return "request-ready"
	case StateSend:
		return "send"
	case StateClose:
		return "close"
	default:
		return "invalid"
	}
}

// Config bounds a connection's buffer and body sizes. Values are supplied
// by pkg/config (the server's own YAML settings) and never change over a
// connection's lifetime.
type Config struct {
	HeaderBufferSize      int
	LargeHeaderBufferSize int
	LargeHeaderBuffers    int
	MaxBodySize           int
}

// ErrWrongState is returned by Feed/FeedBody when called outside the state
// they apply to — a programming error in the connection's owner, not a
// wire-format condition.
var ErrWrongState = errors.New("h1: Feed called in wrong state")

type bufferNode struct {
	buf  []byte
	next *bufferNode
}

// Connection drives one client connection's request/response cycles. It
// owns a per-connection arena: every header/body buffer it allocates lives
// in that arena, and a keepalive transition resets the arena as a single
// unit instead of freeing buffers individually.
type Connection struct {
	cfg Config
	a   *arena.Arena

	state State

	header    []byte // working header buffer, grown via growHeader
	headerEnd int     // offset of the byte after the terminating \r\n\r\n
	overflow  *bufferNode
	largeBufs int

	pipeline []byte // bytes already read beyond the current request

	req        *Request
	bodyFilled int

	keepaliveDefault bool
}

// NewConnection creates a connection bound to arena a, idle until the first
// Feed call.
func NewConnection(a *arena.Arena, cfg Config) *Connection {
	c := &Connection{cfg: cfg, a: a, state: StateIdle}
	c.header = a.Get(cfg.HeaderBufferSize)[:0]
	return c
}

// State reports the connection's current state.
func (c *Connection) State() State { return c.state }

// Feed delivers newly read bytes to the connection while it is idle or in
// read-header. It returns (req, status, err):
//   - req != nil: a complete request is ready (state is now request-ready).
//   - status != 0: a parse-semantic error was detected; the caller should
//     send that status and close (state is now close).
//   - all zero: more bytes are needed. The state is read-header while the
//     header block is incomplete, or read-body once the headers are done
//     and the body is short; in read-body, deliver the rest via FeedBody.
func (c *Connection) Feed(data []byte) (*Request, int, error) {
	if c.state == StateIdle {
		c.state = StateReadHeader
	}
	if c.state != StateReadHeader {
		return nil, 0, fmt.Errorf("%w: state=%s", ErrWrongState, c.state)
	}

	status, done := c.feedHeader(data)
	if status != 0 {
		c.state = StateClose
		return nil, status, nil
	}
	if !done {
		return nil, 0, nil
	}
	return c.onHeadersDone()
}

// feedHeader appends data to the working header buffer, growing it (and
// linking the exhausted buffer into the overflow chain) when it fills
// without the request yet terminating in \r\n\r\n. It returns a non-zero
// status on 431, or done=true once the terminator is found.
func (c *Connection) feedHeader(data []byte) (status int, done bool) {
	space := cap(c.header) - len(c.header)
	n := len(data)
	if n > space {
		n = space
	}
	c.header = append(c.header, data[:n]...)
	leftover := data[n:]

	if idx := bytes.Index(c.header, []byte("\r\n\r\n")); idx >= 0 {
		c.headerEnd = idx + 4
		c.pipeline = append(c.pipeline, c.header[c.headerEnd:]...)
		c.pipeline = append(c.pipeline, leftover...)
		return 0, true
	}

	if len(c.header) < cap(c.header) {
		if len(leftover) > 0 {
			return c.feedHeader(leftover)
		}
		return 0, false
	}

	// Buffer is full with no terminator found: grow.
	if cap(c.header) >= c.cfg.LargeHeaderBufferSize || c.largeBufs >= c.cfg.LargeHeaderBuffers {
		return 431, false
	}
	old := c.header
	c.overflow = &bufferNode{buf: old, next: c.overflow}
	c.largeBufs++
	grown := c.a.Get(c.cfg.LargeHeaderBufferSize)[:len(old)]
	copy(grown, old)
	c.header = grown

	if len(leftover) > 0 {
		return c.feedHeader(leftover)
	}
	return 0, false
}

// onHeadersDone parses the request line and header fields out of the
// completed header buffer, dispatches each field through internal/fields,
// and decides body handling per the source's TE/CL rules.
func (c *Connection) onHeadersDone() (*Request, int, error) {
	lines := c.header[:c.headerEnd]
	lineEnd := bytes.Index(lines, []byte("\r\n"))
	if lineEnd < 0 {
		c.state = StateClose
		return nil, 400, nil
	}
	method, target, version, ok := parseRequestLine(lines[:lineEnd])
	if !ok {
		c.state = StateClose
		return nil, 400, nil
	}
	if version != "HTTP/1.0" && version != "HTTP/1.1" {
		c.state = StateClose
		return nil, 505, nil
	}

	req := &Request{Method: method, RequestTarget: target, Version: version}
	req.Keepalive = version == "HTTP/1.1"

	rest := lines[lineEnd+2:]
	for len(rest) > 2 { // stop at the trailing bare "\r\n"
		idx := bytes.Index(rest, []byte("\r\n"))
		if idx < 0 {
			break
		}
		line := rest[:idx]
		rest = rest[idx+2:]

		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			c.state = StateClose
			return nil, 400, nil
		}
		name := string(bytes.TrimSpace(line[:colon]))
		val := string(bytes.TrimSpace(line[colon+1:]))

		req.RawFields = append(req.RawFields, Field{Name: name, Value: val})
		fields.Dispatch(&req.Target, name, val)
	}

	switch req.TE {
	case fields.TEChunked:
		c.state = StateClose
		return nil, 411, nil
	case fields.TEUnsupported:
		c.state = StateClose
		return nil, 501, nil
	}

	if !req.HasContentLength || req.ContentLength == 0 {
		c.state = StateRequestReady
		c.req = req
		return req, 0, nil
	}
	if req.ContentLength > int64(c.cfg.MaxBodySize) {
		c.state = StateClose
		return nil, 413, nil
	}

	body := c.a.Get(int(req.ContentLength))
	already := c.pipeline
	if int64(len(already)) > req.ContentLength {
		already = already[:req.ContentLength]
	}
	c.bodyFilled = copy(body, already)
	c.pipeline = c.pipeline[c.bodyFilled:]
	req.Body = body

	if c.bodyFilled == len(body) {
		c.state = StateRequestReady
		c.req = req
		return req, 0, nil
	}
	c.state = StateReadBody
	c.req = req
	return nil, 0, nil
}

// FeedBody delivers newly read bytes while in read-body. It returns the
// completed request once Content-Length bytes have accumulated.
func (c *Connection) FeedBody(data []byte) (*Request, error) {
	if c.state != StateReadBody {
		return nil, fmt.Errorf("%w: state=%s", ErrWrongState, c.state)
	}
	need := len(c.req.Body) - c.bodyFilled
	n := len(data)
	if n > need {
		n = need
	}
	c.bodyFilled += copy(c.req.Body[c.bodyFilled:], data[:n])
	if c.bodyFilled < len(c.req.Body) {
		return nil, nil
	}
	c.state = StateRequestReady
	return c.req, nil
}

// Pipelined reports whether bytes of a subsequent request are already
// buffered (HTTP pipelining), and returns them.
func (c *Connection) Pipelined() []byte { return c.pipeline }

// Reset returns the connection to idle after a response has been fully
// sent on a keepalive path: it resets the per-request fields, resets the
// backing arena (which is what "frees" the header overflow chain — a bump
// arena has no per-allocation free), and re-allocates a fresh header
// buffer at the configured starting size. Any pipelined bytes from the
// next request are moved into that header buffer and the state is set to
// read-header instead of idle; the caller then calls Feed (nil is enough)
// to parse them before reading more from the network.
func (c *Connection) Reset() {
	pipeline := c.pipeline

	c.a.Reset()
	c.header = c.a.Get(c.cfg.HeaderBufferSize)[:0]
	c.headerEnd = 0
	c.overflow = nil
	c.largeBufs = 0
	c.pipeline = nil
	c.req = nil
	c.bodyFilled = 0
	c.state = StateIdle

	if len(pipeline) > 0 {
		c.state = StateReadHeader
		c.header = append(c.header, pipeline...)
	}
}

func parseRequestLine(line []byte) (method, target, version string, ok bool) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return "", "", "", false
	}
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 < 0 {
		return "", "", "", false
	}
	return string(line[:sp1]), string(rest[:sp2]), string(rest[sp2+1:]), true
}
