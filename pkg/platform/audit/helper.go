package audit

import (
	"context"
	"log/slog"

	"dhruva/pkg/requestcontext"
)

// Emitter is satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes an audit line to slog and forwards the event to an
// optional Emitter. A nil *Logger is a no-op so services can skip wiring.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{textLogger: textLogger, emitter: emitter}
}

// Record logs and emits event. Timestamp, category and request ID are
// filled from ctx when the caller left them empty. Emission failures are
// logged, never returned.
func (l *Logger) Record(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = CategoryFor(event.Action)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if l.textLogger != nil {
		l.textLogger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"category", string(event.Category),
			"subject", event.Subject,
			"actor_id", event.ActorID,
			"decision", event.Decision,
			"reason", event.Reason,
			"request_id", event.RequestID,
		)
	}

	if l.emitter == nil {
		return
	}
	if err := l.emitter.Emit(ctx, event); err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", event.Action,
		)
	}
}
