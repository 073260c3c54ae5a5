package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config holds the server settings. Zero timeouts mean no deadline.
type Config struct {
	Addr            string
	ReadBufferSize  int
	MaxRequestBytes int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadBufferSize:  4096,
		MaxRequestBytes: 1 << 20,
	}
}

// State is the accept loop state.
type State int32

const (
	StateIdle State = iota
	StateListening
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

type Server struct {
	cfg     Config
	handler Handler
	logger  zerolog.Logger
	metrics *Metrics
	pool    *BufferPool

	mu       sync.Mutex
	listener net.Listener

	state  atomic.Int32
	closed atomic.Bool
	conns  sync.WaitGroup
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server for handler. Nothing is bound until Listen.
func New(cfg Config, handler Handler, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = def.MaxRequestBytes
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  zerolog.Nop(),
		metrics: NewMetrics(),
		pool:    NewBufferPool(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the configured address. A bind failure is returned as is and
// the server never reaches StateListening.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "bind %s", s.cfg.Addr)
	}
	return s.adopt(ln)
}

func (s *Server) adopt(ln net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		ln.Close()
		return ErrServerClosed
	}
	if s.listener != nil {
		ln.Close()
		return errors.New("server is already listening")
	}

	s.listener = ln
	s.state.Store(int32(StateListening))
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return nil
}

// Serve runs the accept loop on the bound listener, one goroutine per
// connection. It returns nil after Close or Shutdown, and the accept error
// when the listener itself fails.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || isFatalAcceptError(err) {
				s.state.Store(int32(StateTerminated))
				if s.closed.Load() {
					return nil
				}
				s.logger.Error().Err(err).Msg("listener failed")
				return errors.Wrap(err, "accept")
			}

			s.metrics.AcceptErrors.Add(1)
			delay = nextAcceptDelay(delay)
			s.logger.Warn().Err(err).Dur("retry_in", delay).Msg("accept error")
			time.Sleep(delay)
			continue
		}
		delay = 0

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.serveConn(conn)
		}()
	}
}

// ServeListener adopts ln as the listening socket and runs Serve.
func (s *Server) ServeListener(ln net.Listener) error {
	if err := s.adopt(ln); err != nil {
		return err
	}
	return s.Serve()
}

// ListenAndServe binds the configured address and runs the accept loop.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) State() State {
	return State(s.state.Load())
}

// Close stops accepting connections. In-flight connections finish on their own.
func (s *Server) Close() error {
	s.closed.Store(true)

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		s.state.Store(int32(StateTerminated))
		return nil
	}
	err := ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Shutdown closes the listener and waits for in-flight connections until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// isFatalAcceptError reports errors that mean the listening socket is gone.
// Anything else (aborted handshakes, fd exhaustion) is retried.
func isFatalAcceptError(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EBADF) ||
		errors.Is(err, syscall.EINVAL)
}

func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptDelay
	}
	d *= 2
	if d > maxAcceptDelay {
		d = maxAcceptDelay
	}
	return d
}
