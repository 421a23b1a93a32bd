package authrpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName полное имя gRPC-сервиса.
const ServiceName = "evofit.auth.v1.AuthService"

// AuthServiceServer серверная сторона сервиса идентификации.
type AuthServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*UserResponse, error)
	SignIn(context.Context, *SignInRequest) (*SignInResponse, error)
	SignOut(context.Context, *SignOutRequest) (*SignOutResponse, error)
	GetUser(context.Context, *GetUserRequest) (*GetUserResponse, error)
	GetUserByID(context.Context, *GetUserByIDRequest) (*UserResponse, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*UserResponse, error)
}

// ServiceDesc описание сервиса для grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler("SignUp", AuthServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unaryHandler("SignIn", AuthServiceServer.SignIn)},
		{MethodName: "SignOut", Handler: unaryHandler("SignOut", AuthServiceServer.SignOut)},
		{MethodName: "GetUser", Handler: unaryHandler("GetUser", AuthServiceServer.GetUser)},
		{MethodName: "GetUserByID", Handler: unaryHandler("GetUserByID", AuthServiceServer.GetUserByID)},
		{MethodName: "UpdateUser", Handler: unaryHandler("UpdateUser", AuthServiceServer.UpdateUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "evofit/auth/v1/auth.json",
}

// RegisterAuthServiceServer регистрирует реализацию на сервере.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler[Req, Resp any](
	method string,
	call func(AuthServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceClient клиентская заглушка сервиса идентификации.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient создаёт заглушку поверх соединения.
func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, "SignUp", in, opts)
}

func (c *AuthServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInResponse, error) {
	return invoke[SignInResponse](ctx, c.cc, "SignIn", in, opts)
}

func (c *AuthServiceClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutResponse, error) {
	return invoke[SignOutResponse](ctx, c.cc, "SignOut", in, opts)
}

func (c *AuthServiceClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error) {
	return invoke[GetUserResponse](ctx, c.cc, "GetUser", in, opts)
}

func (c *AuthServiceClient) GetUserByID(ctx context.Context, in *GetUserByIDRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, "GetUserByID", in, opts)
}

func (c *AuthServiceClient) UpdateUser(ctx context.Context, in *UpdateUserRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, "UpdateUser", in, opts)
}
