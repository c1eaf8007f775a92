// Package handler implements the development-only DevService (GetOTP).
package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	riskauthv1 "risk-adaptive-auth/api/riskauth/v1"
	"risk-adaptive-auth/internal/devotp"
)

const devOTPNote = "DEV MODE ONLY"

// Server implements DevService. Only registered when OTP_RETURN_TO_CLIENT is set outside production.
type Server struct {
	store devotp.Store
}

var _ riskauthv1.DevServiceServer = (*Server)(nil)

// NewServer returns a DevService server reading from store.
func NewServer(store devotp.Store) *Server {
	return &Server{store: store}
}

// GetOTP returns the plain code for session_id. Returns NotFound if missing or expired.
func (s *Server) GetOTP(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sessionID := riskauthv1.GetString(req, "session_id")
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	code, ok := s.store.Get(ctx, sessionID)
	if !ok {
		return nil, status.Error(codes.NotFound, "OTP not found or expired")
	}
	return structpb.NewStruct(map[string]interface{}{
		"otp":  code,
		"note": devOTPNote,
	})
}
