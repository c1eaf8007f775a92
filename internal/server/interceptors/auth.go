package interceptors

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/security"
)

const bearerPrefix = "bearer "

// RevocationChecker reports whether the access tokens of a session were revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// AuthUnary returns a unary server interceptor that validates the Bearer access token and
// puts account_id, session_id and guard into the context. publicMethods run without a
// token; a bad token on a public method is ignored. revocations may be nil.
func AuthUnary(tokens *security.TokenProvider, publicMethods map[string]bool, revocations RevocationChecker, logger *zap.Logger) grpc.UnaryServerInterceptor {
	logger = logging.OrNop(logger)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		public := publicMethods[info.FullMethod]
		token := extractBearer(ctx)
		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		claims, err := tokens.ValidateAccess(token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}
		if revocations != nil {
			revoked, err := revocations.IsRevoked(ctx, claims.SessionID)
			if err != nil {
				logger.Error("revocation check failed", zap.String("session_id", claims.SessionID), zap.Error(err))
				return nil, status.Error(codes.Unavailable, "authorization temporarily unavailable")
			}
			if revoked {
				if public {
					return handler(ctx, req)
				}
				return nil, status.Error(codes.Unauthenticated, "session has been signed out")
			}
		}

		ctx = WithIdentity(ctx, claims.Subject, claims.SessionID, claims.Guard)
		return handler(ctx, req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
