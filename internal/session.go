package internal

import (
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// session drives one connection: Connecting until the first frame names the
// peer, Registered while it relays lines, Closed after the read loop ends.
type session struct {
	conn     *Connection
	registry *Registry
	router   *Router
	logger   *zap.Logger
	now      func() time.Time
}

func newSession(c *Connection, registry *Registry, router *Router, logger *zap.Logger) *session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &session{
		conn:     c,
		registry: registry,
		router:   router,
		logger:   logger.With(zap.String("conn", c.ID()), zap.String("addr", c.Addr())),
		now:      time.Now,
	}
}

// run blocks until the connection fails or the peer hangs up. The connection
// must already be in the router's set.
func (s *session) run() {
	s.logger.Debug("connection accepted")

	var cause error
	for {
		frame, err := s.conn.readFrame()
		if err != nil {
			cause = err
			break
		}
		s.handleFrame(frame)
	}
	s.close(cause)
}

func (s *session) handleFrame(frame []byte) {
	line, err := DecodeLine(frame)
	if err != nil {
		s.logger.Warn("dropping frame", zap.Error(err))
		return
	}

	if s.conn.State() == StateConnecting {
		s.handleRegistration(line)
		return
	}
	s.handleLine(line)
}

func (s *session) handleRegistration(line string) {
	name := strings.TrimSpace(line)
	if name == "" {
		s.logger.Debug("ignoring empty registration frame")
		return
	}
	if err := s.conn.register(name); err != nil {
		s.logger.Warn("registration rejected", zap.Error(err))
		return
	}
	s.registry.Register(name, s.conn)
	s.logger.Info("user connected", zap.String("user", name))

	if err := s.router.Broadcast(connectedNotice(name, s.conn.Addr(), s.now())); err != nil {
		s.logger.Error("join notice failed", zap.Error(err))
	}
}

func (s *session) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	name, _ := s.conn.Name()

	if isWhisper(line) {
		s.handleWhisper(name, line)
		return
	}

	s.logger.Info("message", zap.String("user", name), zap.String("content", line))
	if err := s.router.Broadcast(NewEnvelope(line, name, EventMessage, s.now())); err != nil {
		s.logger.Error("broadcast failed", zap.Error(err))
	}
}

func (s *session) handleWhisper(name, line string) {
	target, text, err := parseWhisper(line)
	if err != nil {
		s.logger.Info("malformed whisper", zap.String("user", name), zap.String("line", line), zap.Error(err))
		if err := s.router.Whisper(unacceptableNotice(s.now()), s.conn); err != nil {
			s.logger.Warn("reply failed", zap.Error(err))
		}
		return
	}

	s.logger.Info("whisper", zap.String("user", name), zap.String("to", target), zap.String("content", text))
	env := NewEnvelope(text, name, EventWhisper, s.now())

	to, lookupErr := s.registry.Lookup(target)
	err = s.router.Whisper(env, to)
	switch {
	case lookupErr != nil:
		// the sender is not told about unknown recipients
		s.logger.Warn("whisper not delivered", zap.String("user", name), zap.Error(lookupErr))
	case err != nil:
		s.logger.Warn("whisper not delivered", zap.String("user", name), zap.String("to", target), zap.Error(err))
	}
}

func (s *session) close(cause error) {
	s.conn.Close()
	s.conn.markClosed()
	s.router.Remove(s.conn)

	switch {
	case cause == nil, IsExpectedCloseError(cause):
		s.logger.Debug("connection closed", zap.NamedError("cause", cause))
	default:
		s.logger.Warn("connection lost", zap.Error(cause))
	}

	name, ok := s.conn.Name()
	if !ok {
		s.logger.Debug("unregistered peer left")
		return
	}

	now := s.now()
	s.registry.MarkDeparted(name, now)
	s.logger.Info("user disconnected", zap.String("user", name))
	if err := s.router.Broadcast(disconnectedNotice(name, s.conn.Addr(), now)); err != nil {
		s.logger.Error("part notice failed", zap.Error(err))
	}
}

// IsExpectedCloseError reports errors caused by an ordinary hang up.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close 1000") ||
		strings.Contains(errStr, "websocket: close 1001") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "broken pipe")
}
