// Package tracer is the tracing seam used around remote calls. Services see
// only Tracer and Span; OpenTelemetry stays behind the OTel adapter.
package tracer

import "context"

// Span is ended exactly once, usually via defer, with the operation error.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute     { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute   { return Attribute{Key: key, Value: value} }
func Int64(key string, value int64) Attribute { return Attribute{Key: key, Value: value} }

// Noop discards spans. Used in tests and when tracing is off.
type Noop struct{}

func (Noop) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                     {}
func (noopSpan) SetAttributes(...Attribute)    {}
func (noopSpan) AddEvent(string, ...Attribute) {}
