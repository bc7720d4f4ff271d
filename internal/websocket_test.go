package internal

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startWebSocketServer(t *testing.T) (*Server, string, string) {
	t.Helper()
	server, tcpAddr := startTestServer(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not listen: %v", err)
	}
	go server.ServeWebSocket(listener)
	return server, tcpAddr, listener.Addr().String()
}

func dialWebSocketClient(t *testing.T, addr, name string) Transport {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	transport, err := DialWebSocket(ctx, addr, 0)
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}
	t.Cleanup(func() { transport.Close() })
	if err := transport.WriteFrame(EncodeLine(name), time.Now().Add(dialTimeout)); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	return transport
}

func expectFrame(t *testing.T, transport Transport, match func(Envelope) bool) Envelope {
	t.Helper()
	type result struct {
		env Envelope
		err error
	}
	results := make(chan result, 1)
	go func() {
		for {
			frame, err := transport.ReadFrame()
			if err != nil {
				results <- result{err: err}
				return
			}
			env, err := Decode(frame)
			if err != nil {
				results <- result{err: err}
				return
			}
			if match(env) {
				results <- result{env: env}
				return
			}
		}
	}()
	select {
	case r := <-results:
		if r.err != nil {
			t.Fatalf("read failed: %v", r.err)
		}
		return r.env
	case <-time.After(messageTimeout):
		t.Fatal("no matching frame")
	}
	return Envelope{}
}

func TestWebSocketPeersInteroperateWithTCP(t *testing.T) {
	_, tcpAddr, wsAddr := startWebSocketServer(t)

	alice := join(t, tcpAddr, "alice")
	bob := dialWebSocketClient(t, wsAddr, "bob")
	expectFrame(t, bob, func(env Envelope) bool { return strings.HasPrefix(env.Content, "bob connected") })
	alice.expect(t, func(env Envelope) bool { return strings.HasPrefix(env.Content, "bob connected") })

	alice.send(t, "hi bob")
	expectFrame(t, bob, isMessage("alice", "hi bob"))

	if err := bob.WriteFrame(EncodeLine("/w alice psst"), time.Now().Add(dialTimeout)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	env := alice.expect(t, func(env Envelope) bool { return env.Event == EventWhisper })
	if env.Author != "bob" || env.Content != "psst" {
		t.Errorf("whisper = %+v", env)
	}
}

func TestWebSocketFramesHaveNoDelimiter(t *testing.T) {
	_, _, wsAddr := startWebSocketServer(t)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+wsAddr+WebSocketPath, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, []byte("gina")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	ws.SetReadDeadline(time.Now().Add(messageTimeout))
	kind, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Errorf("message type = %d, want text", kind)
	}
	if strings.HasSuffix(string(data), "\n") {
		t.Errorf("websocket frame %q carries a stream delimiter", data)
	}
	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !strings.HasPrefix(env.Content, "gina connected") {
		t.Errorf("first envelope = %+v", env)
	}
}

func TestWebSocketRejectsPlainHTTP(t *testing.T) {
	server := NewServer(DefaultConfig(), nil)
	ts := httptest.NewServer(server.websocketHandler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + WebSocketPath)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode < 400 {
		t.Errorf("plain GET status = %d, want an error status", resp.StatusCode)
	}
	if server.Router().Len() != 0 {
		t.Error("plain GET created a connection")
	}
}
