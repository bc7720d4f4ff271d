package internal

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 7, 5, 9, 0, time.Local)
	tests := []struct {
		name string
		env  Envelope
	}{
		{"Message", NewEnvelope("hi", "alice", EventMessage, at)},
		{"Whisper", NewEnvelope("hello there", "alice", EventWhisper, at)},
		{"ServerNotice", NewEnvelope("bob connected (127.0.0.1:5555)", ServerAuthor, EventServerNotice, at)},
		{"EmptyContent", NewEnvelope("", "bob", EventMessage, at)},
		{"Multiline", NewEnvelope("line one\nline two", "carol", EventMessage, at)},
		{"Unicode", NewEnvelope("Hello, 世界 ⌘", "дмитрий", EventMessage, at)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(tt.env)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.HasSuffix(frame, []byte{FrameDelimiter}) {
				t.Errorf("frame %q is not newline terminated", frame)
			}
			if n := bytes.Count(frame, []byte{FrameDelimiter}); n != 1 {
				t.Errorf("frame %q has %d delimiters, want 1", frame, n)
			}

			got, err := Decode(frame)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != tt.env {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, tt.env)
			}
		})
	}
}

func TestNewEnvelopeTimestamp(t *testing.T) {
	env := NewEnvelope("x", "a", EventMessage, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if env.Timestamp != "03:04:05" {
		t.Errorf("Timestamp = %q, want zero padded 03:04:05", env.Timestamp)
	}
}

func TestEncodeWireFormat(t *testing.T) {
	env := Envelope{Content: "hi", Author: "a", Timestamp: "12:00:00", Event: EventServerNotice}
	frame, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `{"content":"hi","author":"a","timestamp":"12:00:00","event":"servermsg"}` + "\n"
	if string(frame) != want {
		t.Errorf("Encode = %q, want %q", frame, want)
	}
}

func TestEncodeInvalidEvent(t *testing.T) {
	if _, err := Encode(Envelope{Content: "x", Author: "a", Timestamp: "12:00:00"}); err == nil {
		t.Error("expected error for envelope without event")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"NotJSON", "hello"},
		{"Truncated", `{"content":"hi"`},
		{"MissingContent", `{"author":"a","timestamp":"12:00:00","event":"message"}`},
		{"MissingAuthor", `{"content":"hi","timestamp":"12:00:00","event":"message"}`},
		{"MissingTimestamp", `{"content":"hi","author":"a","event":"message"}`},
		{"MissingEvent", `{"content":"hi","author":"a","timestamp":"12:00:00"}`},
		{"UnknownEvent", `{"content":"hi","author":"a","timestamp":"12:00:00","event":"shout"}`},
		{"NumericEvent", `{"content":"hi","author":"a","timestamp":"12:00:00","event":1}`},
		{"BadTimestamp", `{"content":"hi","author":"a","timestamp":"noon","event":"message"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame + "\n"))
			if err == nil {
				t.Fatalf("expected error for %s", tt.frame)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("error %v is not a *DecodeError", err)
			}
		})
	}
}

func TestDecodeLine(t *testing.T) {
	line, err := DecodeLine([]byte("alice\r\n"))
	if err != nil {
		t.Fatalf("DecodeLine failed: %v", err)
	}
	if line != "alice" {
		t.Errorf("DecodeLine = %q, want alice", line)
	}

	_, err = DecodeLine([]byte{0xff, 0xfe, '\n'})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("expected *DecodeError for invalid utf-8, got %v", err)
	}
}

func TestEncodeLine(t *testing.T) {
	frame := EncodeLine("one\ntwo\r\nthree")
	if string(frame) != "one two three\n" {
		t.Errorf("EncodeLine = %q", frame)
	}
	if strings.Count(string(frame), "\n") != 1 {
		t.Errorf("EncodeLine produced more than one frame: %q", frame)
	}
}
