package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/studio/internal/workflow"
)

// Notifier carries "session changed" signals from the workflow controller
// to the UI. Notify never blocks: signals raised before the UI caught up
// collapse into one, and the UI reads the latest session when it wakes.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier returns a ready Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify implements workflow.Options.OnChange.
func (n *Notifier) Notify(workflow.Session) {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

type sessionMsg workflow.Session

// waitForChange blocks until the next signal, then reports the current
// session. It returns nil once ctx is done so the program can exit.
func waitForChange(ctx context.Context, n *Notifier, wf Workflow) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-n.ch:
			return sessionMsg(wf.Session())
		}
	}
}
