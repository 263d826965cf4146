package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"supportstudio/internal/api"
	"supportstudio/internal/request"
	"supportstudio/internal/session"
)

type sendDoneMsg struct {
	out request.Outcome[string]
}

type suggestDoneMsg struct {
	out request.Outcome[string]
}

type summarizeDoneMsg struct {
	out request.Outcome[session.Summary]
}

type healthMsg struct {
	status string
	err    error
}

// dispatchCmd runs d off the event loop and delivers its outcome wrapped by
// wrap. The view that issued d decides on arrival whether it still applies.
func dispatchCmd[T any](ctx context.Context, d request.Dispatch[T], wrap func(request.Outcome[T]) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return wrap(d.Run(ctx))
	}
}

// HealthChecker is the probe used for the header badge.
type HealthChecker interface {
	Health(ctx context.Context) (api.HealthResponse, error)
}

const healthProbeTimeout = 5 * time.Second

func healthCmd(ctx context.Context, checker HealthChecker) tea.Cmd {
	if checker == nil {
		return nil
	}
	return func() tea.Msg {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()
		resp, err := checker.Health(probeCtx)
		return healthMsg{status: resp.Status, err: err}
	}
}
