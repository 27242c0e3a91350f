package audit

import (
	"context"
	"log/slog"
)

// Sink persists or forwards audit events.
type Sink interface {
	Write(ctx context.Context, ev Event) error
}

// Worker consumes audit events from a channel and hands them to a sink.
// Sink errors are logged; audit never fails a session.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until it is closed or ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.sink.Write(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink write failed",
					"error", err,
					"action", event.Action,
					"session_id", event.SessionID,
				)
			}
		}
	}
}
