// Package fields implements the read-only-after-init header-field dispatch
// table: after a request's header lines are parsed, each (name, value) pair
// is looked up by exact name and handed to a small per-field handler that
// folds it into the in-flight request's semantic state (keepalive,
// transfer-encoding, Host/Cookie/Content-Type passthrough). The table is
// built once via register and never mutated afterward, so Dispatch is safe
// to call concurrently from many connections' goroutines — mirroring the
// teacher's register/dispatch-table split between a protected build phase
// and a lock-free read phase.
package fields

import (
	"strconv"
)

// TE is the parsed Transfer-Encoding state of a request.
type TE uint8

const (
	TENone TE = iota
	TEChunked
	TEUnsupported
)

// Target is the subset of a request's semantic state that header-field
// handlers are allowed to mutate. internal/h1's Request embeds one.
type Target struct {
	Keepalive        bool
	TE               TE
	ContentLength    int64
	HasContentLength bool
	Host             string
	Cookie           string
	ContentType      string
}

// Handler folds one field's value into target. Handlers never see the
// field name (Dispatch already used it for the lookup) and never return an
// error: an unparseable value is simply left unrecorded, which the caller
// observes as HasContentLength staying false, Host staying "", and so on.
type Handler func(target *Target, value string)

var table = make(map[string]Handler, 8)

// register binds name to h. Like the teacher's opcode registry, a
// duplicate binding is a programming error caught at init time, not a
// runtime condition to recover from.
func register(name string, h Handler) {
	if _, exists := table[name]; exists {
		panic("fields: duplicate handler registered for " + name)
	}
	table[name] = h
}

func init() {
	register("Connection", handleConnection)
	register("Transfer-Encoding", handleTransferEncoding)
	register("Content-Length", handleContentLength)
	register("Host", handleHost)
	register("Cookie", handleCookie)
	register("Content-Type", handleContentType)
}

// Dispatch looks up name in the handler table and, if found, applies value
// to target. Unrecognized field names are a no-op: the caller may still
// choose to keep the raw (name, value) pair for the upper layer.
func Dispatch(target *Target, name, value string) {
	if h, ok := table[name]; ok {
		h(target, value)
	}
}

// Registered reports whether name has a handler, for callers that want to
// separate "recognized but handled here" fields from ones to pass through.
func Registered(name string) bool {
	_, ok := table[name]
	return ok
}

func handleConnection(target *Target, value string) {
	if value == "close" {
		target.Keepalive = false
	}
}

func handleTransferEncoding(target *Target, value string) {
	if value == "chunked" {
		target.TE = TEChunked
	} else {
		target.TE = TEUnsupported
	}
}

func handleContentLength(target *Target, value string) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return
	}
	target.ContentLength = n
	target.HasContentLength = true
}

func handleHost(target *Target, value string)        { target.Host = value }
func handleCookie(target *Target, value string)       { target.Cookie = value }
func handleContentType(target *Target, value string) { target.ContentType = value }
