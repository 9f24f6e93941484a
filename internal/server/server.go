// Package server glues the HTTP/1 connection state machine (internal/h1)
// to a TCP listener and an upstream chi.Router: it accepts connections,
// drives each one's Connection through read-header/read-body/send, and
// once a request is fully parsed converts it to a *http.Request and hands
// it to the router — the "upper layer" spec.md treats as an external
// collaborator. Metrics are exposed via prometheus/client_golang and every
// connection gets a google/uuid correlation id, threaded through the logger
// and set as X-Request-Id on each request it carries.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/google/uuid"

	"github.com/genhoi/unit/internal/arena"
	"github.com/genhoi/unit/internal/h1"
	"github.com/genhoi/unit/pkg/config"
)

// Server accepts connections on a net.Listener and drives each one through
// internal/h1's state machine.
type Server struct {
	listener net.Listener
	pool     *arena.Pool
	h1cfg    h1.Config
	router   *chi.Mux
	log      *logrus.Logger
	metrics  *Metrics
	cache    *lru.Cache[string, []byte]

	readBufSize int
}

// New builds a Server bound to cfg's listen address, backed by an arena
// pool sized from cfg.Arena, serving requests through router.
func New(cfg *config.Config, router *chi.Mux, log *logrus.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return nil, err
	}

	var cache *lru.Cache[string, []byte]
	if cfg.Cache.Enabled && cfg.Cache.Capacity > 0 {
		cache, err = lru.New[string, []byte](cfg.Cache.Capacity)
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		listener: ln,
		pool:     arena.NewPool(cfg.Arena.BlockSize, cfg.Arena.PoolMaxIdle, cfg.Arena.PoolIdleTTL),
		h1cfg: h1.Config{
			HeaderBufferSize:      cfg.Server.HeaderBufferSize,
			LargeHeaderBufferSize: cfg.Server.LargeHeaderBufferSize,
			LargeHeaderBuffers:    cfg.Server.LargeHeaderBuffers,
			MaxBodySize:           cfg.Server.MaxBodySize,
		},
		router:      router,
		log:         log,
		metrics:     NewMetrics(),
		cache:       cache,
		readBufSize: cfg.Server.HeaderBufferSize,
	}
	s.router.Handle("/metrics", promhttp.Handler())
	return s, nil
}

// Addr reports the listener's bound address, useful when cfg requested
// port 0.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		netConn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		s.metrics.connectionsTotal.Inc()
		go s.serveConn(ctx, netConn)
	}
}

func (s *Server) serveConn(ctx context.Context, netConn net.Conn) {
	defer netConn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("remote", netConn.RemoteAddr().String()).
				Errorf("connection goroutine panicked: %v", r)
		}
	}()

	a := s.pool.Acquire()
	defer s.pool.Release(a)

	conn := h1.NewConnection(a, s.h1cfg)
	connID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"conn": connID, "remote": netConn.RemoteAddr().String()})

	reader := bufio.NewReaderSize(netConn, s.readBufSize)
	buf := make([]byte, s.readBufSize)

	for {
		req, status, err := s.readRequest(conn, reader, buf)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).Debug("connection read failed")
			}
			return
		}
		if status != 0 {
			s.writeErrorAndMaybeClose(netConn, conn, status, log)
			return
		}
		if req == nil {
			continue
		}

		keepalive := s.dispatch(netConn, conn, req, connID, log)
		if !keepalive {
			return
		}
		conn.Reset()
	}
}

// readRequest drives Feed/FeedBody against conn until a request is ready,
// a parse-semantic status is produced, or the underlying read fails.
//
// Reset already moved any pipelined bytes from the prior request into the
// header buffer and left the connection in StateReadHeader when it did so
// (StateIdle otherwise), so that state — not Pipelined, which Reset always
// clears — is what tells us a buffered residual is waiting to be parsed
// before the next network read.
func (s *Server) readRequest(conn *h1.Connection, r *bufio.Reader, buf []byte) (*h1.Request, int, error) {
	if conn.State() == h1.StateReadHeader {
		req, status, err := conn.Feed(nil)
		if err != nil {
			return nil, 0, err
		}
		if req != nil || status != 0 {
			return req, status, nil
		}
	}
	for {
		n, err := r.Read(buf)
		if n == 0 && err != nil {
			return nil, 0, err
		}
		var req *h1.Request
		var status int
		var feedErr error
		if conn.State() == h1.StateReadBody {
			req, feedErr = conn.FeedBody(buf[:n])
		} else {
			req, status, feedErr = conn.Feed(buf[:n])
		}
		if feedErr != nil {
			return nil, 0, feedErr
		}
		if req != nil || status != 0 {
			return req, status, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
}

// dispatch converts req to a *http.Request, runs it through the router,
// frames the response per internal/h1's chunked/keepalive rules, writes it,
// and returns whether the connection should stay open.
func (s *Server) dispatch(netConn net.Conn, conn *h1.Connection, req *h1.Request, connID string, log *logrus.Entry) bool {
	s.metrics.requestsTotal.Inc()

	httpReq, err := toHTTPRequest(req)
	if err != nil {
		log.WithError(err).Warn("request conversion failed")
		s.writeErrorAndMaybeClose(netConn, conn, 400, log)
		return false
	}
	httpReq.Header.Set("X-Request-Id", connID)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httpReq)

	resp := h1.NewResponse(req.Version, rec.Code)
	resp.Keepalive = req.Keepalive
	for name, vals := range rec.Header() {
		for _, v := range vals {
			resp.AddField(name, v)
		}
	}
	body := rec.Body.Bytes()
	if rec.Header().Get("Content-Length") == "" {
		resp.AddField("Content-Length", itoa(len(body)))
	}

	head := resp.Build()
	if _, err := netConn.Write(head); err != nil {
		return false
	}
	if resp.Chunked {
		var framer h1.ChunkFramer
		if _, err := netConn.Write(framer.Frame(body)); err != nil {
			return false
		}
		if _, err := netConn.Write(framer.Last()); err != nil {
			return false
		}
	} else if len(body) > 0 {
		if _, err := netConn.Write(body); err != nil {
			return false
		}
	}

	return resp.Keepalive
}

// errorCacheKey namespaces the response cache so a rendered error page
// never collides with anything dispatch might someday cache under a
// request-derived key.
func errorCacheKey(status int) string {
	return "err:" + itoa(status)
}

func (s *Server) writeErrorAndMaybeClose(netConn net.Conn, conn *h1.Connection, status int, log *logrus.Entry) {
	key := errorCacheKey(status)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if _, err := netConn.Write(cached); err != nil {
				log.WithError(err).Debug("failed writing cached error response")
			}
			return
		}
	}

	body := []byte(`{"error":"` + itoa(status) + `"}`)
	resp := h1.NewResponse("HTTP/1.1", status)
	resp.Keepalive = false
	resp.AddField("Content-Type", "application/json")
	resp.AddField("Content-Length", itoa(len(body)))
	rendered := append(resp.Build(), body...)

	if s.cache != nil {
		s.cache.Add(key, rendered)
	}

	if _, err := netConn.Write(rendered); err != nil {
		log.WithError(err).Debug("failed writing error response")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Metrics holds the prometheus counters registered on the server's chi
// router at /metrics.
type Metrics struct {
	connectionsTotal prometheus.Counter
	requestsTotal    prometheus.Counter
	patchesTotal     prometheus.Counter
}

// NewMetrics registers and returns the server's counters against the
// default registry. A counter already registered there by an earlier
// Server in the same process is reused rather than registered twice.
func NewMetrics() *Metrics {
	m := &Metrics{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unitd_connections_total",
			Help: "Total accepted TCP connections.",
		}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unitd_requests_total",
			Help: "Total HTTP requests dispatched to the upstream router.",
		}),
		patchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unitd_config_patches_total",
			Help: "Total config overlay patches applied.",
		}),
	}
	for _, c := range []*prometheus.Counter{&m.connectionsTotal, &m.requestsTotal, &m.patchesTotal} {
		if err := prometheus.Register(*c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
			*c = are.ExistingCollector.(prometheus.Counter)
		}
	}
	return m
}

// PatchApplied increments the config-patch counter; internal/server's
// config HTTP handlers call this after a successful patch.Apply.
func (m *Metrics) PatchApplied() { m.patchesTotal.Inc() }
