package audit

import (
	"context"
	"errors"
)

// ErrInboxFull is returned by ChannelSink.Append when the queue is
// saturated; the event is dropped rather than blocking the request.
var ErrInboxFull = errors.New("audit inbox full")

// ChannelSink is a Store whose writes queue events for a Worker instead
// of hitting the persistent store inline. Reads pass through.
type ChannelSink struct {
	inbox chan<- Event
	store Store
}

func NewChannelSink(inbox chan<- Event, store Store) *ChannelSink {
	return &ChannelSink{inbox: inbox, store: store}
}

func (s *ChannelSink) Append(ctx context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		return ErrInboxFull
	}
}

func (s *ChannelSink) ListByUser(ctx context.Context, userID int64) ([]Event, error) {
	return s.store.ListByUser(ctx, userID)
}

// Worker consumes audit events from a channel and persists them. It keeps
// the write path off the request hot path without wiring a broker.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
