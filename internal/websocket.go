package internal

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketPath is where the server upgrades HTTP requests
const WebSocketPath = "/ws"

// wsTransport carries one frame per WebSocket text message.
type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport wraps an upgraded or dialed WebSocket connection.
func NewWebSocketTransport(conn *websocket.Conn, maxFrame int) Transport {
	if maxFrame > 0 {
		conn.SetReadLimit(int64(maxFrame))
	}
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadFrame() ([]byte, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			if err == websocket.ErrReadLimit {
				return nil, ErrFrameTooLarge
			}
			return nil, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		return trimDelimiter(data), nil
	}
}

func (t *wsTransport) WriteFrame(frame []byte, deadline time.Time) error {
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, bytes.TrimSuffix(frame, []byte{FrameDelimiter}))
}

func (t *wsTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

func (t *wsTransport) Close() error { return t.conn.Close() }

// websocketHandler upgrades requests on WebSocketPath and hands them to sessions.
func (s *Server) websocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// no authentication or origin policy
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", zap.String("addr", r.RemoteAddr), zap.Error(err))
			return
		}
		if !s.handleTransport(NewWebSocketTransport(ws, s.cfg.MaxFrameSize)) {
			ws.Close()
		}
	})
	return mux
}

// DialWebSocket connects to a chat server WebSocket endpoint.
// addr is either host:port or a full ws:// URL.
func DialWebSocket(ctx context.Context, addr string, maxFrame int) (Transport, error) {
	url := addr
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		url = "ws://" + addr + WebSocketPath
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocketTransport(ws, maxFrame), nil
}
