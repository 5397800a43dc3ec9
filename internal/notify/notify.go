// Package notify fans decisions out to configured notification channels.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"signal-router/internal/models"
)

// Notifier delivers a decision summary to one channel.
type Notifier interface {
	NotifyDecision(ctx context.Context, d *models.Decision) error
}

// Dispatcher fans a decision out to all registered notifiers. Delivery is
// best-effort: a failing channel is logged and skipped.
type Dispatcher struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(logger zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, logger: logger}
}

// Dispatch sends the decision to every channel.
func (d *Dispatcher) Dispatch(ctx context.Context, decision *models.Decision) {
	for _, n := range d.notifiers {
		if err := n.NotifyDecision(ctx, decision); err != nil {
			d.logger.Warn().Err(err).Msg("Notification delivery failed")
		}
	}
}
