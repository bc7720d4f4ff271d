package internal

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event identifies the kind of a delivered envelope
type Event int

// Envelope event kinds
const (
	_ Event = iota
	EventMessage
	EventServerNotice
	EventWhisper
)

// ServerAuthor is the author of every envelope the server builds itself
const ServerAuthor = "[Server]"

// TimestampLayout is the wire layout of Envelope.Timestamp
const TimestampLayout = "15:04:05"

func (e Event) String() string {
	switch e {
	case EventMessage:
		return "message"
	case EventServerNotice:
		return "servermsg"
	case EventWhisper:
		return "whisper"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// MarshalText encodes the event as its wire tag.
func (e Event) MarshalText() ([]byte, error) {
	switch e {
	case EventMessage, EventServerNotice, EventWhisper:
		return []byte(e.String()), nil
	}
	return nil, fmt.Errorf("invalid event %d", int(e))
}

// UnmarshalText decodes a wire tag into the event.
func (e *Event) UnmarshalText(text []byte) error {
	switch string(text) {
	case "message":
		*e = EventMessage
	case "servermsg":
		*e = EventServerNotice
	case "whisper":
		*e = EventWhisper
	default:
		return fmt.Errorf("invalid event tag %q", text)
	}
	return nil
}

// Envelope is one delivered chat message. It is a value and is never changed
// after NewEnvelope returns it.
type Envelope struct {
	Content   string `json:"content"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Event     Event  `json:"event"`
}

// NewEnvelope stamps content with the wall-clock time t.
func NewEnvelope(content, author string, event Event, t time.Time) Envelope {
	return Envelope{
		Content:   content,
		Author:    author,
		Timestamp: t.Format(TimestampLayout),
		Event:     event,
	}
}

// State of a connection session
type State int

const (
	StateConnecting State = iota
	StateRegistered
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection represents one live chat peer
type Connection struct {
	id           string
	transport    Transport
	addr         string
	writeTimeout time.Duration
	joinTime     time.Time

	mu    sync.Mutex
	name  string
	state State

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newConnection(t Transport, writeTimeout time.Duration) *Connection {
	addr := ""
	if a := t.RemoteAddr(); a != nil {
		addr = a.String()
	}
	return &Connection{
		id:           uuid.NewString(),
		transport:    t,
		addr:         addr,
		writeTimeout: writeTimeout,
		joinTime:     time.Now(),
		state:        StateConnecting,
	}
}

// ID returns the unique id assigned on accept.
func (c *Connection) ID() string { return c.id }

// Addr returns the remote address of the peer.
func (c *Connection) Addr() string { return c.addr }

// Name returns the display name and whether the connection has registered.
func (c *Connection) Name() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name, c.name != ""
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// register assigns the display name once.
func (c *Connection) register(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnecting {
		return ErrAlreadyRegistered
	}
	c.name = name
	c.state = StateRegistered
	return nil
}

func (c *Connection) markClosed() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

// send writes one complete frame, bounded by the write timeout.
func (c *Connection) send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var deadline time.Time
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if err := c.transport.WriteFrame(frame, deadline); err != nil {
		return &ConnectionError{Addr: c.addr, Op: "write", Err: err}
	}
	return nil
}

func (c *Connection) readFrame() ([]byte, error) {
	frame, err := c.transport.ReadFrame()
	if err != nil {
		return nil, &ConnectionError{Addr: c.addr, Op: "read", Err: err}
	}
	return frame, nil
}

// Close shuts the underlying transport. It is safe to call more than once.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.transport.Close()
	})
	return c.closeErr
}

// Transport is a framed, bidirectional link to one peer.
type Transport interface {
	// ReadFrame blocks until one complete frame arrives, without its delimiter.
	ReadFrame() ([]byte, error)
	// WriteFrame writes one encoded frame. A zero deadline means no deadline.
	WriteFrame(frame []byte, deadline time.Time) error
	RemoteAddr() net.Addr
	Close() error
}
