package h1

import (
	"testing"

	"github.com/genhoi/unit/internal/arena"
	"github.com/genhoi/unit/internal/fields"
)

func testConfig() Config {
	return Config{
		HeaderBufferSize:      128,
		LargeHeaderBufferSize: 512,
		LargeHeaderBuffers:    2,
		MaxBodySize:           1024,
	}
}

func TestFeedSimpleGetRequest(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, err := c.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if status != 0 {
		t.Fatalf("expected no error status, got %d", status)
	}
	if req == nil {
		t.Fatalf("expected a completed request")
	}
	if req.Method != "GET" || req.RequestTarget != "/" || req.Version != "HTTP/1.1" {
		t.Fatalf("got method=%q target=%q version=%q", req.Method, req.RequestTarget, req.Version)
	}
	if req.Host != "x" {
		t.Fatalf("expected Host=x, got %q", req.Host)
	}
	if !req.Keepalive {
		t.Fatalf("expected HTTP/1.1 default keepalive")
	}
	if c.State() != StateRequestReady {
		t.Fatalf("expected request-ready state, got %s", c.State())
	}
}

func TestFeedIncrementalHeaderArrival(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, err := c.Feed([]byte("GET / HTTP/1.1\r\n"))
	if err != nil || status != 0 || req != nil {
		t.Fatalf("expected to stay pending, got req=%v status=%d err=%v", req, status, err)
	}
	req, status, err = c.Feed([]byte("Host: x\r\n\r\n"))
	if err != nil || status != 0 || req == nil {
		t.Fatalf("expected completed request, got req=%v status=%d err=%v", req, status, err)
	}
}

func TestConnectionCloseOverridesKeepalive(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, _, _ := c.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	if req == nil || req.Keepalive {
		t.Fatalf("expected Connection: close to clear keepalive")
	}
}

func TestUnsupportedHTTPVersionRejected(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, _ := c.Feed([]byte("GET / HTTP/2.0\r\nHost: x\r\n\r\n"))
	if req != nil || status != 505 {
		t.Fatalf("expected 505 for unsupported version, got req=%v status=%d", req, status)
	}
}

func TestUnsupportedTransferEncodingRejected(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, _ := c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: gzip\r\nContent-Length: 0\r\n\r\n"))
	if req != nil || status != 501 {
		t.Fatalf("expected 501 for unsupported TE, got req=%v status=%d", req, status)
	}
}

func TestChunkedTransferEncodingRejected(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, _ := c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n"))
	if req != nil || status != 411 {
		t.Fatalf("expected 411 for request-side chunked, got req=%v status=%d", req, status)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	a := arena.New(0)
	cfg := testConfig()
	cfg.MaxBodySize = 0
	c := NewConnection(a, cfg)
	req, status, _ := c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 1\r\n\r\nX"))
	if req != nil || status != 413 {
		t.Fatalf("expected 413 for oversized body, got req=%v status=%d", req, status)
	}
}

func TestBodyDeliveredWithHeaders(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, err := c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello"))
	if err != nil || status != 0 || req == nil {
		t.Fatalf("expected completed request, got req=%v status=%d err=%v", req, status, err)
	}
	if string(req.Body) != "hello" {
		t.Fatalf("got body %q", req.Body)
	}
}

func TestBodyArrivesAfterHeaders(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, err := c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\n"))
	if err != nil || status != 0 || req != nil {
		t.Fatalf("expected read-body state, got req=%v status=%d err=%v", req, status, err)
	}
	if c.State() != StateReadBody {
		t.Fatalf("expected read-body state, got %s", c.State())
	}
	req, err = c.FeedBody([]byte("he"))
	if err != nil || req != nil {
		t.Fatalf("expected body still incomplete")
	}
	req, err = c.FeedBody([]byte("llo"))
	if err != nil || req == nil {
		t.Fatalf("expected completed request after full body, err=%v", err)
	}
	if string(req.Body) != "hello" {
		t.Fatalf("got body %q", req.Body)
	}
}

func TestZeroContentLengthSkipsBody(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, status, _ := c.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\n\r\n"))
	if status != 0 || req == nil {
		t.Fatalf("expected request-ready with no body, got req=%v status=%d", req, status)
	}
	if req.Body != nil {
		t.Fatalf("expected nil body for Content-Length: 0")
	}
}

func TestHeaderGrowsToLargeBuffer(t *testing.T) {
	a := arena.New(0)
	cfg := testConfig()
	cfg.HeaderBufferSize = 32
	c := NewConnection(a, cfg)

	req, status, err := c.Feed([]byte("GET / HTTP/1.1\r\n"))
	if req != nil || status != 0 || err != nil {
		t.Fatalf("unexpected initial feed result: %v %d %v", req, status, err)
	}
	req, status, err = c.Feed([]byte("X-Pad: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if status != 0 || req == nil {
		t.Fatalf("expected the header to grow and succeed, got req=%v status=%d", req, status)
	}
}

func TestHeaderTooLargeRejected(t *testing.T) {
	a := arena.New(0)
	cfg := Config{HeaderBufferSize: 16, LargeHeaderBufferSize: 32, LargeHeaderBuffers: 1, MaxBodySize: 1024}
	c := NewConnection(a, cfg)
	pad := make([]byte, 200)
	for i := range pad {
		pad[i] = 'a'
	}
	req, status, err := c.Feed(append([]byte("GET / HTTP/1.1\r\nX-Pad: "), pad...))
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if req != nil || status != 431 {
		t.Fatalf("expected 431 for oversized headers, got req=%v status=%d", req, status)
	}
}

func TestPipeliningLeavesResidualForNextRequest(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	first := "GET /a HTTP/1.1\r\nHost: x\r\n\r\n"
	second := "GET /b HTTP/1.1\r\nHost: x\r\n\r\n"
	req, status, err := c.Feed([]byte(first + second))
	if err != nil || status != 0 || req == nil {
		t.Fatalf("expected first request ready, got req=%v status=%d err=%v", req, status, err)
	}
	if req.RequestTarget != "/a" {
		t.Fatalf("expected /a, got %q", req.RequestTarget)
	}
	if string(c.Pipelined()) != second {
		t.Fatalf("expected second request buffered as pipeline residual, got %q", c.Pipelined())
	}

	c.Reset()
	if c.State() != StateReadHeader {
		t.Fatalf("expected Reset to re-enter read-header for pipelined bytes, got %s", c.State())
	}
	req2, status2, err2 := c.Feed(nil)
	if err2 != nil || status2 != 0 || req2 == nil {
		t.Fatalf("expected pipelined second request ready, got req=%v status=%d err=%v", req2, status2, err2)
	}
	if req2.RequestTarget != "/b" {
		t.Fatalf("expected /b, got %q", req2.RequestTarget)
	}
}

func TestResponseBuildDefaultKeepaliveHasNoConnectionHeader(t *testing.T) {
	r := NewResponse("HTTP/1.1", 200)
	r.AddField("Content-Length", "0")
	out := string(r.Build())
	if want := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"; out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestResponseBuildChunkedWhenNoContentLength(t *testing.T) {
	r := NewResponse("HTTP/1.1", 200)
	head := r.Build()
	if !r.Chunked {
		t.Fatalf("expected Chunked=true")
	}
	want := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"
	if string(head) != want {
		t.Fatalf("got %q want %q", head, want)
	}
	var framer ChunkFramer
	out := framer.Frame([]byte("hi"))
	if string(out) != "2\r\nhi" {
		t.Fatalf("got %q", out)
	}
	out = framer.Last()
	if string(out) != "\r\n0\r\n\r\n" {
		t.Fatalf("got %q", out)
	}
}

func TestResponseBuildHTTP10UsesConnectionCloseNotChunked(t *testing.T) {
	r := NewResponse("HTTP/1.0", 200)
	r.Keepalive = false
	out := string(r.Build())
	if r.Chunked {
		t.Fatalf("HTTP/1.0 must not be chunked")
	}
	want := "HTTP/1.0 200 OK\r\n\r\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestFieldsDispatchedThroughConnection(t *testing.T) {
	a := arena.New(0)
	c := NewConnection(a, testConfig())
	req, _, _ := c.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\nCookie: a=1\r\nContent-Type: text/plain\r\n\r\n"))
	if req.Cookie != "a=1" || req.ContentType != "text/plain" {
		t.Fatalf("expected Cookie/Content-Type captured, got %+v", req.Target)
	}
	if req.TE != fields.TENone {
		t.Fatalf("expected TENone by default, got %v", req.TE)
	}
}
