package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Alerter shows the reminder text in a modal dialog program (zenity,
// kdialog, ...) and falls back to writing a banner to Out.
type Alerter struct {
	Command []string // Program and leading args; the text is appended
	Out     io.Writer

	mu sync.Mutex
}

// Alert blocks until the dialog is dismissed.
func (a *Alerter) Alert(ctx context.Context, text string) error {
	if len(a.Command) > 0 {
		args := append(append([]string{}, a.Command[1:]...), text)
		err := exec.CommandContext(ctx, a.Command[0], args...).Run()
		if err == nil {
			return nil
		}
		if a.Out == nil {
			return fmt.Errorf("alert dialog failed: %w", err)
		}
	}
	if a.Out == nil {
		return fmt.Errorf("no alert output configured")
	}
	return a.banner(text)
}

func (a *Alerter) banner(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	line := strings.Repeat("=", len(text)+4)
	_, err := fmt.Fprintf(a.Out, "\a%s\n| %s |\n%s\n", line, text, line)
	return err
}

// Viewport classifies the display the reminder is shown on.
type Viewport struct {
	Width int // Pixels; 0 when unknown
}

// Small reports constrained displays, below 600 pixels wide.
func (v Viewport) Small() bool {
	return v.Width > 0 && v.Width < 600
}
