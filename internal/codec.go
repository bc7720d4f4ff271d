package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// FrameDelimiter terminates every frame on a byte stream
const FrameDelimiter = '\n'

type wireEnvelope struct {
	Content   *string `json:"content"`
	Author    *string `json:"author"`
	Timestamp *string `json:"timestamp"`
	Event     *Event  `json:"event"`
}

// Encode serializes an envelope into one newline-terminated frame.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return append(data, FrameDelimiter), nil
}

// Decode parses one frame produced by Encode.
func Decode(frame []byte) (Envelope, error) {
	frame = trimDelimiter(frame)

	var w wireEnvelope
	if err := json.Unmarshal(frame, &w); err != nil {
		return Envelope{}, &DecodeError{Frame: string(frame), Err: err}
	}

	var missing []string
	if w.Content == nil {
		missing = append(missing, "content")
	}
	if w.Author == nil {
		missing = append(missing, "author")
	}
	if w.Timestamp == nil {
		missing = append(missing, "timestamp")
	}
	if w.Event == nil {
		missing = append(missing, "event")
	}
	if len(missing) > 0 {
		return Envelope{}, &DecodeError{
			Frame: string(frame),
			Err:   fmt.Errorf("missing field(s): %s", strings.Join(missing, ", ")),
		}
	}
	if _, err := time.Parse(TimestampLayout, *w.Timestamp); err != nil {
		return Envelope{}, &DecodeError{Frame: string(frame), Err: fmt.Errorf("invalid timestamp: %w", err)}
	}

	return Envelope{
		Content:   *w.Content,
		Author:    *w.Author,
		Timestamp: *w.Timestamp,
		Event:     *w.Event,
	}, nil
}

// DecodeLine turns a registration or command frame into text.
func DecodeLine(frame []byte) (string, error) {
	frame = trimDelimiter(frame)
	if !utf8.Valid(frame) {
		return "", &DecodeError{Frame: string(frame), Err: errors.New("invalid utf-8")}
	}
	return string(frame), nil
}

// EncodeLine frames a plain text line. Embedded line breaks become spaces so
// the line cannot be split into several frames.
func EncodeLine(line string) []byte {
	line = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line)
	return append([]byte(line), FrameDelimiter)
}

func trimDelimiter(frame []byte) []byte {
	frame = bytes.TrimSuffix(frame, []byte{FrameDelimiter})
	return bytes.TrimSuffix(frame, []byte{'\r'})
}
