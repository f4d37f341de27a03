// Package progress defines the capability long-running tools use to emit
// intermediate status events. The dispatcher binds a concrete reporter to
// the request context; tools retrieve it with FromContext and never know
// which transport drains the events.
package progress

import "context"

// Event is one intermediate status notification.
type Event struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	IsFinal bool    `json:"isFinal,omitempty"`
	Data    any     `json:"data,omitempty"`
}

// Reporter delivers progress events to the caller of the active request.
// Events from one handler reach its caller in the order emitted.
type Reporter interface {
	Notify(ctx context.Context, ev Event)
}

// Func adapts a function to the Reporter interface.
type Func func(ctx context.Context, ev Event)

func (f Func) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard is the no-op reporter used when the caller has no progress
// listener (batch HTTP calls).
var Discard Reporter = Func(func(context.Context, Event) {})

type reporterKey struct{}

// WithReporter returns a context carrying the reporter.
func WithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

// FromContext extracts the bound reporter, defaulting to Discard.
func FromContext(ctx context.Context) Reporter {
	if r, ok := ctx.Value(reporterKey{}).(Reporter); ok && r != nil {
		return r
	}
	return Discard
}
