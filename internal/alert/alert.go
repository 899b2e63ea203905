// Package alert fans a pressure alert out to the configured
// notification channels.
package alert

import (
	"context"
	"log/slog"

	"github.com/boilerwatch/boilerwatch/internal/pressure"
)

// Alert is one notification about boiler state.
type Alert struct {
	Status pressure.Status
	Title  string
	// Body is the plain-text status report.
	Body string
	// Link points at the diagnostic chart.
	Link string
}

// Notifier delivers an alert over one channel.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
	// Name identifies the channel in logs.
	Name() string
}

// Multi fans out to several channels. A failing channel is logged and
// skipped: a dead channel must not hide a pressure alert from the
// others. Notify reports an error only when every channel failed.
type Multi struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewMulti creates the fan-out.
func NewMulti(logger *slog.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, a Alert) error {
	if len(m.notifiers) == 0 {
		m.logger.Warn("no notification channels configured, alert dropped",
			"status", string(a.Status))
		return nil
	}

	var delivered int
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			m.logger.Error("notification channel failed",
				"channel", n.Name(), "error", err)
			lastErr = err
			continue
		}
		delivered++
		m.logger.Info("alert delivered", "channel", n.Name(), "status", string(a.Status))
	}
	if delivered == 0 {
		return lastErr
	}
	return nil
}
