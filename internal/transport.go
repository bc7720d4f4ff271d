package internal

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

// streamTransport frames a byte stream with FrameDelimiter.
type streamTransport struct {
	conn     net.Conn
	reader   *bufio.Reader
	maxFrame int
}

// NewStreamTransport wraps a stream connection such as TCP. Frames longer than
// maxFrame bytes fail with ErrFrameTooLarge; maxFrame <= 0 disables the check.
func NewStreamTransport(conn net.Conn, maxFrame int) Transport {
	return &streamTransport{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		maxFrame: maxFrame,
	}
}

func (t *streamTransport) ReadFrame() ([]byte, error) {
	var frame []byte
	for {
		chunk, err := t.reader.ReadSlice(FrameDelimiter)
		frame = append(frame, chunk...)
		if t.maxFrame > 0 && len(trimDelimiter(frame)) > t.maxFrame {
			return nil, ErrFrameTooLarge
		}
		switch {
		case err == nil:
			return trimDelimiter(frame), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(frame) > 0:
			// peer closed in the middle of a frame
			return nil, io.ErrUnexpectedEOF
		default:
			return nil, err
		}
	}
}

func (t *streamTransport) WriteFrame(frame []byte, deadline time.Time) error {
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := t.conn.Write(frame)
	return err
}

func (t *streamTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

func (t *streamTransport) Close() error { return t.conn.Close() }
