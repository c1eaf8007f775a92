// Package handler binds the login orchestrator to the AuthService gRPC API.
package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	riskauthv1 "risk-adaptive-auth/api/riskauth/v1"
	"risk-adaptive-auth/internal/identity/service"
	"risk-adaptive-auth/internal/logging"
	"risk-adaptive-auth/internal/server/interceptors"
	sessiondomain "risk-adaptive-auth/internal/session/domain"
	tokendomain "risk-adaptive-auth/internal/token/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AuthService is the orchestrator the server delegates to.
type AuthService interface {
	Login(ctx context.Context, creds service.Credentials, portal string, client sessiondomain.ClientContext) (*service.LoginResult, error)
	VerifyOTP(ctx context.Context, accountID, sessionID, code string, client sessiondomain.ClientContext) (*service.LoginResult, error)
	RefreshToken(ctx context.Context, raw string, client sessiondomain.ClientContext) (*tokendomain.TokenPair, error)
	LogoutCurrentDevice(ctx context.Context, accountID, sessionID string, client sessiondomain.ClientContext) error
	LogoutDevice(ctx context.Context, accountID, targetSessionID string, client sessiondomain.ClientContext) error
	ListSessions(ctx context.Context, accountID string, limit int32) ([]*sessiondomain.Session, error)
}

// AuthServer implements riskauth.auth.v1.AuthService.
type AuthServer struct {
	riskauthv1.UnimplementedAuthServiceServer
	auth   AuthService
	logger *zap.Logger
}

var _ riskauthv1.AuthServiceServer = (*AuthServer)(nil)

// NewAuthServer returns an AuthServer. When auth is nil every RPC returns Unimplemented.
func NewAuthServer(auth AuthService, logger *zap.Logger) *AuthServer {
	return &AuthServer{auth: auth, logger: logging.OrNop(logger)}
}

// Login runs the credential phase. Request: email, password, portal, location.
func (s *AuthServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.auth == nil {
		return s.UnimplementedAuthServiceServer.Login(ctx, req)
	}
	email := riskauthv1.GetString(req, "email")
	password := riskauthv1.GetString(req, "password")
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}
	client := interceptors.Client(ctx)
	if loc := riskauthv1.GetStruct(req, "location"); loc != nil {
		client.Location = sessiondomain.Location{
			Country:  riskauthv1.GetString(loc, "country"),
			City:     riskauthv1.GetString(loc, "city"),
			Timezone: riskauthv1.GetString(loc, "timezone"),
		}
	}
	res, err := s.auth.Login(ctx, service.Credentials{Email: email, Password: password}, riskauthv1.GetString(req, "portal"), client)
	if err != nil {
		return nil, s.toStatus(ctx, "login", err)
	}
	return loginResponse(res)
}

// VerifyOtp completes a step-up. Request: account_id, session_id, otp.
func (s *AuthServer) VerifyOtp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.auth == nil {
		return s.UnimplementedAuthServiceServer.VerifyOtp(ctx, req)
	}
	accountID := riskauthv1.GetString(req, "account_id")
	sessionID := riskauthv1.GetString(req, "session_id")
	code := riskauthv1.GetString(req, "otp")
	if accountID == "" || sessionID == "" || code == "" {
		return nil, status.Error(codes.InvalidArgument, "account_id, session_id and otp are required")
	}
	res, err := s.auth.VerifyOTP(ctx, accountID, sessionID, code, interceptors.Client(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, "verify otp", err)
	}
	return loginResponse(res)
}

// RefreshToken rotates a refresh token. Request: refresh_token.
func (s *AuthServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.auth == nil {
		return s.UnimplementedAuthServiceServer.RefreshToken(ctx, req)
	}
	raw := riskauthv1.GetString(req, "refresh_token")
	if raw == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh_token is required")
	}
	pair, err := s.auth.RefreshToken(ctx, raw, interceptors.Client(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, "refresh", err)
	}
	return structpb.NewStruct(tokenFields(pair))
}

// Logout signs out the session of the presented access token.
func (s *AuthServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.auth == nil {
		return s.UnimplementedAuthServiceServer.Logout(ctx, req)
	}
	accountID, sessionID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.LogoutCurrentDevice(ctx, accountID, sessionID, interceptors.Client(ctx)); err != nil {
		return nil, s.toStatus(ctx, "logout", err)
	}
	return &structpb.Struct{}, nil
}

// LogoutDevice signs out one of the caller's sessions. Request: session_id.
func (s *AuthServer) LogoutDevice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.auth == nil {
		return s.UnimplementedAuthServiceServer.LogoutDevice(ctx, req)
	}
	accountID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	target := riskauthv1.GetString(req, "session_id")
	if target == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	if err := s.auth.LogoutDevice(ctx, accountID, target, interceptors.Client(ctx)); err != nil {
		return nil, s.toStatus(ctx, "logout device", err)
	}
	return &structpb.Struct{}, nil
}

// ListSessions returns the caller's login history, newest first. Request: page_size.
func (s *AuthServer) ListSessions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.auth == nil {
		return s.UnimplementedAuthServiceServer.ListSessions(ctx, req)
	}
	accountID, current, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	size := riskauthv1.GetInt(req, "page_size")
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	list, err := s.auth.ListSessions(ctx, accountID, int32(size))
	if err != nil {
		return nil, s.toStatus(ctx, "list sessions", err)
	}
	items := make([]interface{}, 0, len(list))
	for _, sess := range list {
		items = append(items, sessionFields(sess, current))
	}
	return structpb.NewStruct(map[string]interface{}{"sessions": items})
}

func identity(ctx context.Context) (accountID, sessionID string, err error) {
	accountID, _ = interceptors.GetAccountID(ctx)
	sessionID, _ = interceptors.GetSessionID(ctx)
	if accountID == "" || sessionID == "" {
		return "", "", status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
	return accountID, sessionID, nil
}

// toStatus maps declines to their gRPC code and hides infrastructure faults behind Internal.
func (s *AuthServer) toStatus(ctx context.Context, op string, err error) error {
	if d, ok := service.AsDecline(err); ok {
		return status.Error(declineCode(d.Reason), d.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "request canceled")
	}
	s.logger.Error(op+" failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

func declineCode(r service.Reason) codes.Code {
	switch r {
	case service.ReasonRateLimited:
		return codes.ResourceExhausted
	case service.ReasonAccountInactive, service.ReasonPortalUnauthorized, service.ReasonInvalidSession:
		return codes.PermissionDenied
	default:
		return codes.Unauthenticated
	}
}

func loginResponse(res *service.LoginResult) (*structpb.Struct, error) {
	roles := make([]interface{}, 0, len(res.Account.Roles))
	for _, r := range res.Account.Roles {
		roles = append(roles, r)
	}
	out := map[string]interface{}{
		"state":                 string(res.State),
		"requires_verification": res.RequiresVerification,
		"session_id":            res.SessionID,
		"guard":                 res.Guard,
		"portal":                res.Portal,
		"account": map[string]interface{}{
			"id":    res.Account.ID,
			"email": res.Account.Email,
			"name":  res.Account.Name,
			"roles": roles,
		},
	}
	if res.Tokens != nil {
		for k, v := range tokenFields(res.Tokens) {
			out[k] = v
		}
	}
	if res.Session != nil {
		out["session"] = sessionFields(res.Session, res.SessionID)
	}
	if res.DevOTP != "" {
		out["dev_otp"] = res.DevOTP
	}
	return structpb.NewStruct(out)
}

func tokenFields(p *tokendomain.TokenPair) map[string]interface{} {
	return map[string]interface{}{
		"access_token":  p.AccessToken,
		"refresh_token": p.RefreshToken,
		"token_type":    p.TokenType,
		"expires_in":    p.ExpiresIn,
	}
}

func sessionFields(s *sessiondomain.Session, current string) map[string]interface{} {
	out := map[string]interface{}{
		"id":         s.ID,
		"portal":     s.Portal,
		"ip":         s.IP,
		"device":     s.Device,
		"browser":    s.Browser,
		"os":         s.OS,
		"country":    s.Location.Country,
		"city":       s.Location.City,
		"active":     s.Active(),
		"current":    s.ID == current,
		"created_at": s.CreatedAt.UTC().Format(time.RFC3339),
	}
	if s.LoggedOutAt != nil {
		out["logged_out_at"] = s.LoggedOutAt.UTC().Format(time.RFC3339)
	}
	return out
}
