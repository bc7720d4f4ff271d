package internal

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Renderer displays what a ChatClient receives
type Renderer interface {
	Render(env Envelope)
	Malformed(err error)
}

// ChatClient is the user side of a chat connection.
type ChatClient struct {
	user         string
	transport    Transport
	writeTimeout time.Duration

	mu       sync.Mutex
	lastSent string
}

// Dial connects to the server described by cfg and sends the registration frame.
func Dial(ctx context.Context, cfg ClientConfig) (*ChatClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		t   Transport
		err error
	)
	if cfg.WebSocket {
		t, err = DialWebSocket(ctx, cfg.Address(), cfg.MaxFrameSize)
	} else {
		var conn net.Conn
		dialer := net.Dialer{}
		conn, err = dialer.DialContext(ctx, "tcp", cfg.Address())
		if err == nil {
			t = NewStreamTransport(conn, 0)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to server: %w", err)
	}

	c := NewChatClient(cfg.User, t, cfg.WriteTimeout)
	if err := c.Register(); err != nil {
		t.Close()
		return nil, err
	}
	return c, nil
}

func NewChatClient(user string, t Transport, writeTimeout time.Duration) *ChatClient {
	return &ChatClient{
		user:         user,
		transport:    t,
		writeTimeout: writeTimeout,
	}
}

func (c *ChatClient) User() string { return c.user }

// RemoteAddr describes the server side of the link for status lines.
func (c *ChatClient) RemoteAddr() string {
	if a := c.transport.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// Register sends the display name as the first frame.
func (c *ChatClient) Register() error {
	return c.write(EncodeLine(c.user))
}

// Send forwards one input line. Plain lines are remembered so their echo from
// the server is not displayed twice; whisper commands are not.
func (c *ChatClient) Send(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if !isWhisper(line) {
		c.mu.Lock()
		c.lastSent = line
		c.mu.Unlock()
	}
	return c.write(EncodeLine(line))
}

// ShouldDisplay reports false for the echo of the last line this client sent.
func (c *ChatClient) ShouldDisplay(env Envelope) bool {
	if env.Event != EventMessage || env.Author != c.user {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSent != "" && env.Content == c.lastSent {
		c.lastSent = ""
		return false
	}
	return true
}

// Listen reads frames until the connection ends and passes them to r.
func (c *ChatClient) Listen(r Renderer) error {
	for {
		frame, err := c.transport.ReadFrame()
		if err != nil {
			return err
		}
		env, err := Decode(frame)
		if err != nil {
			r.Malformed(err)
			continue
		}
		if c.ShouldDisplay(env) {
			r.Render(env)
		}
	}
}

func (c *ChatClient) Close() error {
	return c.transport.Close()
}

func (c *ChatClient) write(frame []byte) error {
	var deadline time.Time
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if err := c.transport.WriteFrame(frame, deadline); err != nil {
		return &ConnectionError{Addr: c.RemoteAddr(), Op: "write", Err: err}
	}
	return nil
}
