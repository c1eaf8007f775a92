// Package riskauthv1 declares the gRPC services of the authentication API. Requests and
// responses travel as google.protobuf.Struct messages; field names are documented on each
// method constant.
package riskauthv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	AuthServiceName = "riskauth.auth.v1.AuthService"
	DevServiceName  = "riskauth.dev.v1.DevService"
)

// Full method names.
const (
	// Login request: email, password, portal, location{country,city,timezone}.
	AuthService_Login_FullMethodName = "/" + AuthServiceName + "/Login"
	// VerifyOtp request: account_id, session_id, otp.
	AuthService_VerifyOtp_FullMethodName = "/" + AuthServiceName + "/VerifyOtp"
	// RefreshToken request: refresh_token.
	AuthService_RefreshToken_FullMethodName = "/" + AuthServiceName + "/RefreshToken"
	// Logout request: empty; the session comes from the access token.
	AuthService_Logout_FullMethodName = "/" + AuthServiceName + "/Logout"
	// LogoutDevice request: session_id.
	AuthService_LogoutDevice_FullMethodName = "/" + AuthServiceName + "/LogoutDevice"
	// ListSessions request: page_size.
	AuthService_ListSessions_FullMethodName = "/" + AuthServiceName + "/ListSessions"
	// GetOTP request: session_id.
	DevService_GetOTP_FullMethodName = "/" + DevServiceName + "/GetOTP"
)

// AuthServiceServer is the server API for AuthService.
type AuthServiceServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyOtp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LogoutDevice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedAuthServiceServer returns Unimplemented for every method.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Login(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAuthServiceServer) VerifyOtp(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyOtp not implemented")
}
func (UnimplementedAuthServiceServer) RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedAuthServiceServer) Logout(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedAuthServiceServer) LogoutDevice(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method LogoutDevice not implemented")
}
func (UnimplementedAuthServiceServer) ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSessions not implemented")
}

// DevServiceServer is the server API for the development-only DevService.
type DevServiceServer interface {
	GetOTP(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthService_ServiceDesc is the grpc.ServiceDesc for AuthService.
var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(AuthService_Login_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServiceServer).Login(ctx, in)
		})},
		{MethodName: "VerifyOtp", Handler: unaryHandler(AuthService_VerifyOtp_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServiceServer).VerifyOtp(ctx, in)
		})},
		{MethodName: "RefreshToken", Handler: unaryHandler(AuthService_RefreshToken_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServiceServer).RefreshToken(ctx, in)
		})},
		{MethodName: "Logout", Handler: unaryHandler(AuthService_Logout_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServiceServer).Logout(ctx, in)
		})},
		{MethodName: "LogoutDevice", Handler: unaryHandler(AuthService_LogoutDevice_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServiceServer).LogoutDevice(ctx, in)
		})},
		{MethodName: "ListSessions", Handler: unaryHandler(AuthService_ListSessions_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServiceServer).ListSessions(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "riskauth/auth/v1/auth.proto",
}

// DevService_ServiceDesc is the grpc.ServiceDesc for DevService.
var DevService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DevServiceName,
	HandlerType: (*DevServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetOTP", Handler: unaryHandler(DevService_GetOTP_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(DevServiceServer).GetOTP(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "riskauth/dev/v1/dev.proto",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

// RegisterDevServiceServer registers srv on s.
func RegisterDevServiceServer(s grpc.ServiceRegistrar, srv DevServiceServer) {
	s.RegisterService(&DevService_ServiceDesc, srv)
}
