package internal

import (
	"sync"

	"go.uber.org/zap"
)

// Router owns the set of live connections and the delivery history.
type Router struct {
	mu      sync.Mutex
	conns   map[*Connection]struct{}
	history []Envelope
	logger  *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		conns:  make(map[*Connection]struct{}),
		logger: logger,
	}
}

// Add inserts c into the connection set.
func (r *Router) Add(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
}

// Remove drops c from the connection set.
func (r *Router) Remove(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

// Len returns the number of live connections.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// History returns a copy of every envelope delivered so far, oldest first.
func (r *Router) History() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := make([]Envelope, len(r.history))
	copy(history, r.history)
	return history
}

// HistoryLen returns the number of envelopes delivered so far.
func (r *Router) HistoryLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

// Broadcast records env and writes it to every live connection, the author
// included. Writes run concurrently and each is bounded by its connection's
// write timeout; a failed peer is closed and does not affect the others.
func (r *Router) Broadcast(env Envelope) error {
	frame, err := Encode(env)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, env)

	wg := sync.WaitGroup{}
	for c := range r.conns {
		wg.Add(1)
		go func(c *Connection) {
			defer wg.Done()
			r.deliver(c, frame)
		}(c)
	}
	wg.Wait()
	return nil
}

// Whisper records env and writes it to target only. A nil target means the
// recipient is unknown: env is recorded and ErrNotFound is returned.
func (r *Router) Whisper(env Envelope, target *Connection) error {
	frame, err := Encode(env)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, env)
	if target == nil {
		return ErrNotFound
	}
	return r.deliver(target, frame)
}

// closeAll closes every live connection; their sessions finish on their own.
func (r *Router) closeAll() int {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return len(conns)
}

func (r *Router) deliver(c *Connection, frame []byte) error {
	if err := c.send(frame); err != nil {
		r.logger.Warn("delivery failed",
			zap.String("conn", c.ID()),
			zap.String("addr", c.Addr()),
			zap.Error(err),
		)
		// unblocks the session read loop so it runs its departure path
		c.Close()
		return err
	}
	return nil
}
