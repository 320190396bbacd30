package attendance

import (
	"context"
	"log/slog"

	"eventcheckin/internal/queue"
)

// Reconciler converges event promotion from check-in notifications. The API
// promotes inline; this catches any promotion that failed there.
type Reconciler struct {
	events Registry
	logger *slog.Logger
}

func NewReconciler(events Registry, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{events: events, logger: logger}
}

// Handle processes one message. Unknown types are ignored.
func (r *Reconciler) Handle(ctx context.Context, msg queue.Message) error {
	if msg.Type != queue.TypeCheckIn {
		return nil
	}
	if err := r.events.PromoteIfUpcoming(ctx, msg.EventID); err != nil {
		r.logger.Warn("reconcile promotion failed", slog.Int64("event_id", msg.EventID), slog.Any("error", err))
		return err
	}
	return nil
}

// Run handles messages until the channel closes.
func (r *Reconciler) Run(ctx context.Context, messages <-chan queue.Message) {
	for msg := range messages {
		_ = r.Handle(ctx, msg)
	}
}
