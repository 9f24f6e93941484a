package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/genhoi/unit/pkg/config"
)

func dialWithRetry(addr string) (net.Conn, error) {
	deadline := time.Now().Add(2 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(10 * time.Millisecond)
	}
	return nil, lastErr
}

func testServerConfig(addr string) *config.Config {
	var cfg config.Config
	cfg.Server.ListenAddr = addr
	cfg.Server.HeaderBufferSize = 4096
	cfg.Server.LargeHeaderBufferSize = 65536
	cfg.Server.LargeHeaderBuffers = 4
	cfg.Server.MaxBodySize = 1 << 20
	cfg.Arena.BlockSize = 4096
	cfg.Arena.PoolMaxIdle = 4
	cfg.Arena.PoolIdleTTL = time.Minute
	cfg.Cache.Enabled = false
	return &cfg
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestServeRespondsToSimpleGet(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/hello", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hi"))
	})

	s, err := New(testServerConfig("127.0.0.1:0"), r, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	conn, err := dialWithRetry(s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if want := "HTTP/1.1 200 OK\r\n"; statusLine != want {
		t.Fatalf("got %q want %q", statusLine, want)
	}
}

// TestServePipelinesBufferedRequests writes two requests in a single TCP
// write and expects two responses back without the server ever issuing a
// second network read for the already-buffered second request.
func TestServePipelinesBufferedRequests(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/first", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("one"))
	})
	r.Get("/second", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("two"))
	})

	s, err := New(testServerConfig("127.0.0.1:0"), r, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	conn, err := dialWithRetry(s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	both := "GET /first HTTP/1.1\r\nHost: x\r\n\r\n" +
		"GET /second HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"
	if _, err := conn.Write([]byte(both)); err != nil {
		t.Fatalf("write: %v", err)
	}

	reader := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	for _, want := range []string{"one", "two"} {
		statusLine, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read status line: %v", err)
		}
		if wantLine := "HTTP/1.1 200 OK\r\n"; statusLine != wantLine {
			t.Fatalf("got %q want %q", statusLine, wantLine)
		}
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read header: %v", err)
			}
			if line == "\r\n" {
				break
			}
		}
		body := make([]byte, len(want))
		if _, err := io.ReadFull(reader, body); err != nil {
			t.Fatalf("read body: %v", err)
		}
		if string(body) != want {
			t.Fatalf("got body %q want %q", body, want)
		}
	}
}
