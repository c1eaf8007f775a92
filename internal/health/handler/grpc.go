// Package handler implements the standard gRPC health service used for readiness checks.
package handler

import (
	"context"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"risk-adaptive-auth/internal/logging"
)

// Pinger reports whether a backing store is reachable (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// PolicyChecker reports whether the step-up policy engine can evaluate.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server implements grpc.health.v1.Health. Any failing dependency reports NOT_SERVING.
// Nil dependencies are skipped.
type Server struct {
	healthpb.UnimplementedHealthServer
	db     Pinger
	cache  Pinger
	policy PolicyChecker
	logger *zap.Logger
}

// NewServer returns a health server over the given dependencies.
func NewServer(db, cache Pinger, policy PolicyChecker, logger *zap.Logger) *Server {
	return &Server{db: db, cache: cache, policy: policy, logger: logging.OrNop(logger)}
}

// Check pings every configured dependency. Failures are reported in the status, never as an error.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"database", pingFn(s.db)},
		{"redis", pingFn(s.cache)},
		{"policy", policyFn(s.policy)},
	}
	for _, c := range checks {
		if c.fn == nil {
			continue
		}
		if err := c.fn(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("dependency", c.name), zap.Error(err))
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func pingFn(p Pinger) func(context.Context) error {
	if p == nil {
		return nil
	}
	return p.PingContext
}

func policyFn(p PolicyChecker) func(context.Context) error {
	if p == nil {
		return nil
	}
	return p.HealthCheck
}
