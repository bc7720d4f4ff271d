package internal

import (
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"
)

// ANSI colors understood by gocui in OutputNormal mode
var eventColors = map[Event]string{
	EventMessage:      "\x1b[33;1m",
	EventWhisper:      "\x1b[35m",
	EventServerNotice: "\x1b[36m",
}

const colorReset = "\x1b[0m"

// ChatUI is the terminal front end of a ChatClient
type ChatUI struct {
	gui        *gocui.Gui
	client     *ChatClient
	msgView    string
	inputView  string
	statusView string
	helpView   string
	showHelp   bool
}

func NewChatUI(client *ChatClient) (*ChatUI, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	ui := &ChatUI{
		gui:        g,
		client:     client,
		msgView:    "messages",
		inputView:  "input",
		statusView: "status",
		helpView:   "help",
	}

	g.Cursor = true
	g.SetManagerFunc(ui.layout)
	return ui, nil
}

func (ui *ChatUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	msgHeight := maxY - 6

	// Messages view
	if v, err := g.SetView(ui.msgView, 0, 0, maxX-1, msgHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Messages"
		v.Wrap = true
		v.Autoscroll = true
	}

	// Status bar
	if v, err := g.SetView(ui.statusView, 0, msgHeight+1, maxX-1, msgHeight+3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Wrap = true
		fmt.Fprintf(v, "Connected to %s as %s | Ctrl-H: Help", ui.client.RemoteAddr(), ui.client.User())
	}

	// Input field
	if v, err := g.SetView(ui.inputView, 0, msgHeight+3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = ui.client.User()
		v.Editable = true
		v.Wrap = true

		if _, err := g.SetCurrentView(ui.inputView); err != nil {
			return err
		}
	}

	// Help window
	if !ui.showHelp {
		if err := g.DeleteView(ui.helpView); err != nil && err != gocui.ErrUnknownView {
			return err
		}
		return nil
	}
	if v, err := g.SetView(ui.helpView, maxX/6, maxY/6, maxX*5/6, maxY*5/6); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Help"
		fmt.Fprintln(v, `Commands:
/w <user> <message> - Send private message

Keybindings:
Ctrl-C          - Quit
Ctrl-H          - Toggle help
Enter           - Send message`)
	}
	return nil
}

// Render appends one colored envelope to the messages view.
func (ui *ChatUI) Render(env Envelope) {
	ui.appendLine(colorize(env))
}

func (ui *ChatUI) Malformed(error) {
	ui.appendLine("Malformed message")
}

func (ui *ChatUI) appendLine(line string) {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.msgView)
		if err != nil {
			return err
		}
		fmt.Fprintln(v, line)
		return nil
	})
}

func (ui *ChatUI) updateStatus(status string) {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.statusView)
		if err != nil {
			return err
		}
		v.Clear()
		fmt.Fprint(v, status)
		return nil
	})
}

func (ui *ChatUI) keybindings() error {
	// Quit
	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone,
		func(_ *gocui.Gui, _ *gocui.View) error {
			return gocui.ErrQuit
		}); err != nil {
		return err
	}

	// Toggle help
	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlH, gocui.ModNone,
		func(_ *gocui.Gui, _ *gocui.View) error {
			ui.showHelp = !ui.showHelp
			return nil
		}); err != nil {
		return err
	}

	// Send message
	return ui.gui.SetKeybinding(ui.inputView, gocui.KeyEnter, gocui.ModNone, ui.handleInput)
}

func (ui *ChatUI) handleInput(_ *gocui.Gui, v *gocui.View) error {
	input := strings.TrimSpace(v.Buffer())
	v.Clear()
	if err := v.SetCursor(0, 0); err != nil {
		return err
	}
	if input == "" {
		return nil
	}

	if err := ui.client.Send(input); err != nil {
		ui.updateStatus(fmt.Sprintf("Send failed: %v", err))
	}
	return nil
}

// Run listens for envelopes and blocks in the gocui main loop until Ctrl-C or
// the connection ends.
func (ui *ChatUI) Run() error {
	if err := ui.keybindings(); err != nil {
		return err
	}

	go func() {
		err := ui.client.Listen(ui)
		ui.gui.Update(func(*gocui.Gui) error {
			if err != nil && !IsExpectedCloseError(err) {
				return err
			}
			return gocui.ErrQuit
		})
	}()

	if err := ui.gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func (ui *ChatUI) Close() {
	ui.gui.Close()
	ui.client.Close()
}

func colorize(env Envelope) string {
	line := FormatEnvelope(env)
	if color, ok := eventColors[env.Event]; ok {
		return color + line + colorReset
	}
	return line
}
