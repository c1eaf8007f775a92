package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	riskauthv1 "risk-adaptive-auth/api/riskauth/v1"
	"risk-adaptive-auth/internal/devotp"
	devotphandler "risk-adaptive-auth/internal/devotp/handler"
	"risk-adaptive-auth/internal/security"
)

type mockServiceRegistrar struct {
	services []string
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.services = append(m.services, desc.ServiceName)
}

func TestRegisterServices_WithoutDevService(t *testing.T) {
	reg := &mockServiceRegistrar{}
	RegisterServices(reg, Deps{})
	assert.Equal(t, []string{riskauthv1.AuthServiceName, healthpb.Health_ServiceDesc.ServiceName}, reg.services)
}

func TestRegisterServices_WithDevService(t *testing.T) {
	reg := &mockServiceRegistrar{}
	RegisterServices(reg, Deps{DevOTPHandler: devotphandler.NewServer(devotp.NewMemoryStore())})
	assert.Contains(t, reg.services, riskauthv1.DevServiceName)
	assert.Len(t, reg.services, 3)
}

func TestPublicMethods(t *testing.T) {
	public := PublicMethods()
	assert.True(t, public[riskauthv1.AuthService_Login_FullMethodName])
	assert.True(t, public[riskauthv1.AuthService_VerifyOtp_FullMethodName])
	assert.True(t, public[riskauthv1.AuthService_RefreshToken_FullMethodName])
	assert.False(t, public[riskauthv1.AuthService_Logout_FullMethodName])
	assert.False(t, public[riskauthv1.AuthService_LogoutDevice_FullMethodName])
	assert.False(t, public[riskauthv1.AuthService_ListSessions_FullMethodName])
}

func dial(t *testing.T, srv *grpc.Server) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
	})
	return conn
}

func TestNewGRPCServer_EndToEnd(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	require.NoError(t, err)
	srv := NewGRPCServer(Options{Tokens: tokens})
	RegisterServices(srv, Deps{})
	conn := dial(t, srv)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	auth := riskauthv1.NewAuthServiceClient(conn)
	_, err = auth.ListSessions(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "protected RPC without a token")

	_, err = auth.Login(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.Unimplemented, status.Code(err), "public RPC reaches the handler")
}
