package internal

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var eventStyles = map[Event]lipgloss.Style{
	EventMessage:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	EventWhisper:      lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	EventServerNotice: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
}

// LineRenderer prints one colored line per envelope.
type LineRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewLineRenderer(out io.Writer) *LineRenderer {
	return &LineRenderer{out: out}
}

func (r *LineRenderer) Render(env Envelope) {
	line := FormatEnvelope(env)
	if style, ok := eventStyles[env.Event]; ok {
		line = style.Render(line)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, line)
}

func (r *LineRenderer) Malformed(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Malformed message")
}

// RunLineMode forwards every line of in to the server and prints incoming
// envelopes to out. It returns when either side closes.
func RunLineMode(c *ChatClient, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Connected to %s\n", c.RemoteAddr())

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- c.Listen(NewLineRenderer(out))
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case err := <-listenErr:
			return err
		case line, ok := <-lines:
			if !ok {
				c.Close()
				return <-listenErr
			}
			if err := c.Send(line); err != nil {
				return err
			}
		}
	}
}
