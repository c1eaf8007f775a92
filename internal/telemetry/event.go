// Package telemetry defines the per-request telemetry event and best-effort emission helpers.
package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"risk-adaptive-auth/internal/logging"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after GracefulStop before shutting down OTel
// providers so in-flight async emits can finish. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// Event is one telemetry record. Empty fields are omitted by emitters.
type Event struct {
	Type       string
	Source     string
	AccountID  string
	SessionID  string
	FullMethod string
	StatusCode string
	ClientIP   string
	Duration   time.Duration
	CreatedAt  time.Time
	Attrs      map[string]string
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// EmitAsync runs Emit in a goroutine with emitTimeout so the caller is not blocked.
// emitter and event may be nil. Request cancellation does not abort an in-flight emit.
func EmitAsync(emitter EventEmitter, event *Event, logger *zap.Logger) {
	if emitter == nil || event == nil {
		return
	}
	logger = logging.OrNop(logger)
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			logger.Warn("telemetry: async emit failed", zap.Error(err))
		}
	}()
}
