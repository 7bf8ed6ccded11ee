package broadcaster

import (
	"context"
	"errors"
)

// Func adapts a plain function to the Broadcaster interface. The server uses
// it for lightweight sinks like event tracing.
type Func func(ctx context.Context, event Event) error

// Broadcast satisfies the Broadcaster interface.
func (f Func) Broadcast(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// Fanout multicasts every event to a fixed set of sinks. The server pairs
// the connection hub with auxiliary sinks (event tracing, future SSE
// surfaces) this way, so the relay manager only ever sees one broadcaster.
type Fanout struct {
	sinks []Broadcaster
}

// NewFanout assembles a broadcaster over the given sinks; nils are dropped.
func NewFanout(sinks ...Broadcaster) *Fanout {
	filtered := make([]Broadcaster, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return &Fanout{sinks: filtered}
}

var _ Broadcaster = (*Fanout)(nil)

// Broadcast delivers the event to every sink even when some fail, then
// reports the failures joined. One slow or broken sink must not hide the
// event from the others.
func (f *Fanout) Broadcast(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Broadcast(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
