package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound - no connection is registered under the requested name.
	ErrNotFound = errors.New("user not found")

	// ErrMalformedCommand - a command line has too few tokens.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrFrameTooLarge - an inbound frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrAlreadyRegistered - a connection tried to take a second name.
	ErrAlreadyRegistered = errors.New("connection already registered")

	// ErrServerClosed - returned by Serve after Shutdown.
	ErrServerClosed = errors.New("chat server closed")
)

// DecodeError reports a frame that could not be decoded.
type DecodeError struct {
	Frame string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %q: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LookupError reports a whisper to a name missing from the registry.
type LookupError struct {
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q: %v", e.Name, ErrNotFound)
}

func (e *LookupError) Unwrap() error { return ErrNotFound }

// ConnectionError wraps an I/O failure on one peer.
type ConnectionError struct {
	Addr string
	Op   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
