package internal

import (
	"fmt"
	"strings"
	"time"
)

// WhisperCommand prefixes a directed message line
const WhisperCommand = "/w"

// UnacceptableMessage is sent back for a whisper command that is too short
const UnacceptableMessage = "Unacceptable message"

func connectedNotice(name, addr string, t time.Time) Envelope {
	return NewEnvelope(fmt.Sprintf("%s connected (%s)", name, addr), ServerAuthor, EventServerNotice, t)
}

func disconnectedNotice(name, addr string, t time.Time) Envelope {
	return NewEnvelope(fmt.Sprintf("%s disconnected (%s)", name, addr), ServerAuthor, EventServerNotice, t)
}

func unacceptableNotice(t time.Time) Envelope {
	return NewEnvelope(UnacceptableMessage, ServerAuthor, EventServerNotice, t)
}

// isWhisper reports whether the first space separated token of line is /w.
func isWhisper(line string) bool {
	command, _, _ := strings.Cut(line, " ")
	return command == WhisperCommand
}

// parseWhisper splits "/w <target> <text...>". The text keeps its inner
// spacing. Fewer than three tokens is ErrMalformedCommand.
func parseWhisper(line string) (target, text string, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 || parts[0] != WhisperCommand {
		return "", "", ErrMalformedCommand
	}
	return parts[1], parts[2], nil
}

// FormatEnvelope renders an envelope the way terminal clients print it.
func FormatEnvelope(env Envelope) string {
	if env.Event == EventServerNotice {
		return fmt.Sprintf("%s | %s %s", env.Timestamp, env.Author, env.Content)
	}
	return fmt.Sprintf("%s | %s: %s", env.Timestamp, env.Author, env.Content)
}
