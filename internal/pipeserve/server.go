package pipeserve

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/breeze-rmm/screengrab/internal/capture"
	"github.com/breeze-rmm/screengrab/internal/config"
	"github.com/breeze-rmm/screengrab/internal/logging"
	"github.com/breeze-rmm/screengrab/internal/workerpool"
)

var log = logging.L("pipeserve")

const (
	// connIdleTimeout disconnects clients that send nothing for this long.
	connIdleTimeout = 10 * time.Minute

	// captureTimeout bounds one capture request end to end.
	captureTimeout = 30 * time.Second

	// Two capture workers cover the common multi-display setup; more
	// would only contend on the per-display serialization.
	captureWorkers   = 2
	captureQueueSize = 8

	shutdownGrace = 5 * time.Second
)

// grabFn and displaysFn are package variables so tests can substitute
// the GPU-backed implementations.
var (
	grabFn     = capture.Grab
	displaysFn = capture.Displays
)

// Server answers capture requests from local clients.
type Server struct {
	endpoint string
	version  string
	cfg      *config.Config
	limiter  *RateLimiter
	pool     *workerpool.Pool

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Conn]struct{}
	closed   bool

	startedAt time.Time
	served    atomic.Uint64
	failed    atomic.Uint64
	limited   atomic.Uint64
}

// New creates a Server for cfg. The endpoint is derived from
// cfg.PipeName per platform.
func New(cfg *config.Config, version string) *Server {
	return &Server{
		endpoint:  Endpoint(cfg.PipeName),
		version:   version,
		cfg:       cfg,
		limiter:   NewRateLimiter(cfg.PipeRatePerMin, time.Minute),
		pool:      workerpool.New(captureWorkers, captureQueueSize),
		conns:     make(map[*Conn]struct{}),
		startedAt: time.Now(),
	}
}

// Listen starts the pipe listener. Blocks until stopChan is closed.
func (s *Server) Listen(stopChan <-chan struct{}) error {
	listener, err := listen(s.endpoint)
	if err != nil {
		return fmt.Errorf("pipeserve: listen %s: %w", s.endpoint, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.startedAt = time.Now()
	s.mu.Unlock()

	log.Info("listening", "endpoint", s.endpoint)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				s.mu.Lock()
				closed := s.closed
				s.mu.Unlock()
				if closed {
					return
				}
				log.Warn("accept error", "error", err)
				continue
			}
			go s.handleConnection(conn)
		}
	}()

	<-stopChan
	s.Close()
	return nil
}

// Close shuts down the listener, open connections, and the capture pool.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	listener := s.listener
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	if listener != nil {
		listener.Close()
	}
	cleanupEndpoint(s.endpoint)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	s.pool.Shutdown(ctx)

	log.Info("server closed")
}

func (s *Server) handleConnection(raw net.Conn) {
	conn := NewConn(raw)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	log.Debug("client connected")

	for {
		conn.SetReadDeadline(time.Now().Add(connIdleTimeout))
		env, err := conn.Recv()
		if err != nil {
			log.Debug("client disconnected", "reason", err)
			return
		}
		s.dispatch(conn, env)
	}
}

func (s *Server) dispatch(conn *Conn, env *Envelope) {
	switch env.Type {
	case TypePing:
		conn.SendTyped(env.ID, TypePong, nil)

	case TypeListDisplays:
		displays, err := displaysFn()
		if err != nil {
			conn.SendError(env.ID, TypeDisplayList, err.Error())
			return
		}
		conn.SendTyped(env.ID, TypeDisplayList, DisplayList{Displays: displays})

	case TypeStatusRequest:
		conn.SendTyped(env.ID, TypeStatusReport, s.status())

	case TypeCaptureRequest:
		s.handleCapture(conn, env)

	default:
		conn.SendError(env.ID, TypeError, fmt.Sprintf("unknown message type: %s", env.Type))
	}
}

func (s *Server) handleCapture(conn *Conn, env *Envelope) {
	if !s.limiter.Allow() {
		s.limited.Add(1)
		conn.SendError(env.ID, TypeCaptureResult, "capture rate limit exceeded")
		return
	}

	var req CaptureRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		conn.SendError(env.ID, TypeCaptureResult, fmt.Sprintf("invalid capture request: %v", err))
		return
	}

	id := env.ID
	if !s.pool.Submit(func() { s.runCapture(conn, id, req) }) {
		conn.SendError(id, TypeCaptureResult, "server busy, try again")
	}
}

func (s *Server) runCapture(conn *Conn, id string, req CaptureRequest) {
	reqLog := logging.WithRequest(log, id, "")
	start := time.Now()

	quality := req.Quality
	if quality == 0 {
		quality = s.cfg.Quality
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	res, err := grabFn(ctx, capture.Request{
		Region:  capture.Region{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height},
		Quality: quality,
	})
	if err != nil {
		s.failed.Add(1)
		reqLog.Warn("capture failed", "error", err)
		conn.SendError(id, TypeCaptureResult, err.Error())
		return
	}

	s.served.Add(1)
	durationMs := time.Since(start).Milliseconds()
	reqLog.Debug("capture served", "display", res.Display, "bytes", len(res.Data), "durationMs", durationMs)

	sendErr := conn.SendTyped(id, TypeCaptureResult, CaptureResult{
		Display:    res.Display,
		Width:      res.Width,
		Height:     res.Height,
		Rotation:   res.RotationHint,
		JPEG:       res.Data,
		DurationMs: durationMs,
	})
	if sendErr != nil {
		reqLog.Warn("failed to deliver capture", "error", sendErr)
	}
}

func (s *Server) status() StatusReport {
	s.mu.Lock()
	connCount := len(s.conns)
	started := s.startedAt
	s.mu.Unlock()

	return StatusReport{
		Version:        s.version,
		PID:            os.Getpid(),
		UptimeSeconds:  int64(time.Since(started).Seconds()),
		CapturesServed: s.served.Load(),
		CapturesFailed: s.failed.Load(),
		RateLimited:    s.limited.Load(),
		Connections:    connCount,
	}
}
