package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Server represents the chat server
type Server struct {
	cfg      Config
	logger   *zap.Logger
	registry *Registry
	router   *Router

	mu        sync.Mutex
	closed    bool
	listeners map[net.Listener]struct{}
	https     []*http.Server
	sessions  sync.WaitGroup
}

func NewServer(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		registry:  NewRegistry(),
		router:    NewRouter(logger),
		listeners: make(map[net.Listener]struct{}),
	}
}

// Registry returns the name registry shared by all sessions.
func (s *Server) Registry() *Registry { return s.registry }

// Router returns the router shared by all sessions.
func (s *Server) Router() *Router { return s.router }

// ListenAndServe listens on the configured TCP address and, if set, the
// WebSocket address, then serves until Shutdown.
func (s *Server) ListenAndServe() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if s.cfg.WSAddr != "" {
		wsListener, err := net.Listen("tcp", s.cfg.WSAddr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("failed to start websocket listener: %w", err)
		}
		go func() {
			if err := s.ServeWebSocket(wsListener); err != nil && !errors.Is(err, ErrServerClosed) {
				s.logger.Error("websocket listener stopped", zap.Error(err))
			}
		}()
	}

	return s.Serve(listener)
}

// Serve accepts stream connections on listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	if !s.trackListener(listener) {
		listener.Close()
		return ErrServerClosed
	}
	defer s.untrackListener(listener)

	s.logger.Info("serving", zap.String("addr", listener.Addr().String()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}
			s.logger.Warn("failed to accept connection", zap.Error(err))
			continue
		}
		if !s.handleTransport(NewStreamTransport(conn, s.cfg.MaxFrameSize)) {
			conn.Close()
		}
	}
}

// ServeWebSocket accepts WebSocket peers on listener until Shutdown.
func (s *Server) ServeWebSocket(listener net.Listener) error {
	srv := &http.Server{Handler: s.websocketHandler()}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	s.https = append(s.https, srv)
	s.mu.Unlock()

	s.logger.Info("serving websocket", zap.String("addr", listener.Addr().String()), zap.String("path", WebSocketPath))
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ErrServerClosed
}

// handleTransport starts a session for t. It returns false once the server is
// shutting down.
func (s *Server) handleTransport(t Transport) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	c := newConnection(t, s.cfg.WriteTimeout)
	s.router.Add(c)
	s.sessions.Add(1)
	s.mu.Unlock()

	sess := newSession(c, s.registry, s.router, s.logger)
	go func() {
		defer s.sessions.Done()
		sess.run()
	}()
	return true
}

// Shutdown stops the listeners, closes every live connection and waits for
// the sessions to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listeners := make([]net.Listener, 0, len(s.listeners))
	for l := range s.listeners {
		listeners = append(listeners, l)
	}
	https := s.https
	s.mu.Unlock()

	for _, l := range listeners {
		l.Close()
	}
	for _, srv := range https {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("websocket listener shutdown", zap.Error(err))
		}
	}

	closed := s.router.closeAll()
	s.logger.Info("shutting down", zap.Int("connections", closed))

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) trackListener(l net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.listeners[l] = struct{}{}
	return true
}

func (s *Server) untrackListener(l net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, l)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
