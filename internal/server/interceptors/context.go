package interceptors

import "context"

type contextKey struct{ name string }

var (
	accountIDKey = contextKey{"account_id"}
	sessionIDKey = contextKey{"session_id"}
	guardKey     = contextKey{"guard"}
)

// WithIdentity returns a context carrying the authenticated account, session and guard.
func WithIdentity(ctx context.Context, accountID, sessionID, guard string) context.Context {
	ctx = context.WithValue(ctx, accountIDKey, accountID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	ctx = context.WithValue(ctx, guardKey, guard)
	return ctx
}

// GetAccountID returns the account_id from context and true if set.
func GetAccountID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey).(string)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}

// GetGuard returns the guard from context and true if set.
func GetGuard(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(guardKey).(string)
	return v, ok
}
