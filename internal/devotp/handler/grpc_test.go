package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	riskauthv1 "risk-adaptive-auth/api/riskauth/v1"
	"risk-adaptive-auth/internal/devotp"
)

func request(t *testing.T, sessionID string) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]interface{}{"session_id": sessionID})
	require.NoError(t, err)
	return req
}

func TestGetOTP_Success(t *testing.T) {
	store := devotp.NewMemoryStore()
	store.Put(context.Background(), "session-1", "123456", time.Now().Add(time.Minute))
	srv := NewServer(store)

	resp, err := srv.GetOTP(context.Background(), request(t, "session-1"))
	require.NoError(t, err)
	assert.Equal(t, "123456", riskauthv1.GetString(resp, "otp"))
	assert.Equal(t, devOTPNote, riskauthv1.GetString(resp, "note"))
}

func TestGetOTP_NotFound(t *testing.T) {
	srv := NewServer(devotp.NewMemoryStore())
	_, err := srv.GetOTP(context.Background(), request(t, "missing"))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetOTP_MissingSessionID(t *testing.T) {
	srv := NewServer(devotp.NewMemoryStore())
	_, err := srv.GetOTP(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
