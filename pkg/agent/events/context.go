package events

import (
	"context"
)

// EventSink receives published events. Sinks must be safe for concurrent
// use; tool calls within a round may publish in parallel.
type EventSink interface {
	PublishEvent(e Event) error
}

// SinkFunc adapts a plain function to the EventSink interface.
type SinkFunc func(e Event) error

func (f SinkFunc) PublishEvent(e Event) error {
	return f(e)
}

type ctxKey int

const ctxKeyEventSinks ctxKey = iota

// WithSinks attaches sinks to the context, appending to any already present.
func WithSinks(ctx context.Context, sinks ...EventSink) context.Context {
	if len(sinks) == 0 {
		return ctx
	}
	combined := append([]EventSink{}, SinksFrom(ctx)...)
	combined = append(combined, sinks...)
	return context.WithValue(ctx, ctxKeyEventSinks, combined)
}

// SinksFrom returns the sinks attached to ctx, if any.
func SinksFrom(ctx context.Context) []EventSink {
	if v := ctx.Value(ctxKeyEventSinks); v != nil {
		if sinks, ok := v.([]EventSink); ok {
			return sinks
		}
	}
	return nil
}

// Publish delivers e to every sink on the context. Sink errors are ignored;
// event delivery is best effort and never disrupts orchestration.
func Publish(ctx context.Context, e Event) {
	for _, sink := range SinksFrom(ctx) {
		_ = sink.PublishEvent(e)
	}
}
