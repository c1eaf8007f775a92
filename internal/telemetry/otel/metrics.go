package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "riskauth.login"

// LoginMetrics records login outcomes and risk scores.
type LoginMetrics struct {
	outcomes metric.Int64Counter
	scores   metric.Int64Histogram
}

// NewLoginMetrics registers the login instruments on mp.
func NewLoginMetrics(mp metric.MeterProvider) (*LoginMetrics, error) {
	meter := mp.Meter(meterName)
	outcomes, err := meter.Int64Counter("auth.login.outcomes",
		metric.WithDescription("Login and OTP verification results by outcome."),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("otel: outcomes counter: %w", err)
	}
	scores, err := meter.Int64Histogram("auth.risk.score",
		metric.WithDescription("Risk value assigned to freshly created sessions."),
		metric.WithExplicitBucketBoundaries(0, 30, 40, 50, 70, 100, 140),
	)
	if err != nil {
		return nil, fmt.Errorf("otel: risk histogram: %w", err)
	}
	return &LoginMetrics{outcomes: outcomes, scores: scores}, nil
}

// LoginOutcome counts one outcome (token_issued, otp_pending, otp_verified or a decline reason).
func (m *LoginMetrics) LoginOutcome(ctx context.Context, outcome string) {
	m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RiskScore records one assessment.
func (m *LoginMetrics) RiskScore(ctx context.Context, value int, suspicious bool) {
	m.scores.Record(ctx, int64(value), metric.WithAttributes(attribute.Bool("suspicious", suspicious)))
}
