// Package server assembles the gRPC server: interceptors, stats handler and service registration.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	riskauthv1 "risk-adaptive-auth/api/riskauth/v1"
	healthhandler "risk-adaptive-auth/internal/health/handler"
	identityhandler "risk-adaptive-auth/internal/identity/handler"
	"risk-adaptive-auth/internal/security"
	"risk-adaptive-auth/internal/server/interceptors"
	"risk-adaptive-auth/internal/telemetry"
)

// Deps holds the service implementations. Nil members are tolerated.
type Deps struct {
	// Auth backs AuthService. If nil, every auth RPC returns Unimplemented.
	Auth identityhandler.AuthService
	// HealthDB, HealthCache and HealthPolicy back the readiness check. Nil ones are skipped.
	HealthDB     healthhandler.Pinger
	HealthCache  healthhandler.Pinger
	HealthPolicy healthhandler.PolicyChecker
	// DevOTPHandler is the development-only DevService. If nil, DevService is not registered.
	DevOTPHandler riskauthv1.DevServiceServer
	Logger        *zap.Logger
}

// Options configures the interceptor chain.
type Options struct {
	Tokens      *security.TokenProvider
	Revocations interceptors.RevocationChecker
	Emitter     telemetry.EventEmitter
	// TrustedProxies may set x-forwarded-for and x-real-ip. Empty means the peer address is used.
	TrustedProxies interceptors.TrustedProxies
	// Instrument adds the otelgrpc stats handler using the global providers.
	Instrument bool
	Logger     *zap.Logger
}

// PublicMethods run without an access token.
func PublicMethods() map[string]bool {
	return map[string]bool{
		riskauthv1.AuthService_Login_FullMethodName:        true,
		riskauthv1.AuthService_VerifyOtp_FullMethodName:    true,
		riskauthv1.AuthService_RefreshToken_FullMethodName: true,
		riskauthv1.DevService_GetOTP_FullMethodName:        true,
		healthpb.Health_Check_FullMethodName:               true,
		healthpb.Health_Watch_FullMethodName:               true,
	}
}

// NewGRPCServer returns a server with client, auth and telemetry interceptors installed.
func NewGRPCServer(opts Options) *grpc.Server {
	skipTelemetry := map[string]bool{healthpb.Health_Check_FullMethodName: true}
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptors.ClientUnary(opts.TrustedProxies),
			interceptors.AuthUnary(opts.Tokens, PublicMethods(), opts.Revocations, opts.Logger),
			interceptors.TelemetryUnary(opts.Emitter, skipTelemetry, opts.Logger),
		),
	}
	if opts.Instrument {
		serverOpts = append(serverOpts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}
	return grpc.NewServer(serverOpts...)
}

// RegisterServices registers every service with s.
//
// Service → handler mapping:
//   - riskauth.auth.v1.AuthService → internal/identity/handler
//   - riskauth.dev.v1.DevService   → internal/devotp/handler (development only)
//   - grpc.health.v1.Health        → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	riskauthv1.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth, deps.Logger))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthDB, deps.HealthCache, deps.HealthPolicy, deps.Logger))
	if deps.DevOTPHandler != nil {
		riskauthv1.RegisterDevServiceServer(s, deps.DevOTPHandler)
	}
}
