package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"risk-adaptive-auth/internal/telemetry"
)

// TelemetryUnary returns a unary server interceptor that emits a grpc_request event after
// each RPC. Emission is asynchronous and never fails the RPC. A nil emitter no-ops.
func TelemetryUnary(emitter telemetry.EventEmitter, skipMethods map[string]bool, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if emitter == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		accountID, _ := GetAccountID(ctx)
		sessionID, _ := GetSessionID(ctx)
		telemetry.EmitAsync(emitter, &telemetry.Event{
			Type:       "grpc_request",
			Source:     "grpc_interceptor",
			AccountID:  accountID,
			SessionID:  sessionID,
			FullMethod: info.FullMethod,
			StatusCode: status.Code(err).String(),
			ClientIP:   Client(ctx).IP,
			Duration:   time.Since(start),
			CreatedAt:  start.UTC(),
		}, logger)
		return resp, err
	}
}
