package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"risk-adaptive-auth/internal/telemetry"
)

const instrumentationName = "riskauth.telemetry"

// RecordEmitter is the part of an OTel logger the event emitter uses.
type RecordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter writing OTel log records through provider.
// A nil provider yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(instrumentationName))
}

// NewEventEmitterWithLogger returns an EventEmitter over l.
func NewEventEmitterWithLogger(l RecordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: l}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger RecordEmitter
}

// Emit converts event to a log record. Empty fields become no attribute.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetBody(otellog.StringValue(event.Type))

	for _, kv := range []struct{ key, val string }{
		{"event_type", event.Type},
		{"source", event.Source},
		{"account_id", event.AccountID},
		{"session_id", event.SessionID},
		{"rpc.method", event.FullMethod},
		{"rpc.status_code", event.StatusCode},
		{"client.address", event.ClientIP},
	} {
		if kv.val != "" {
			rec.AddAttributes(otellog.String(kv.key, kv.val))
		}
	}
	if event.Duration > 0 {
		rec.AddAttributes(otellog.Int64("duration_ms", event.Duration.Milliseconds()))
	}
	for k, v := range event.Attrs {
		rec.AddAttributes(otellog.String(k, v))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
