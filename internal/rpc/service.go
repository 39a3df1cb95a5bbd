package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "pagewatch.v1.PageWatch"

const (
	MethodPing            = "/" + ServiceName + "/Ping"
	MethodSignInAnonymous = "/" + ServiceName + "/SignInAnonymous"
	MethodSignInWithToken = "/" + ServiceName + "/SignInWithToken"
	MethodRefreshToken    = "/" + ServiceName + "/RefreshToken"
	MethodCreateRecord    = "/" + ServiceName + "/CreateRecord"
	MethodUpdateRecord    = "/" + ServiceName + "/UpdateRecord"
	MethodDeleteRecord    = "/" + ServiceName + "/DeleteRecord"
	MethodHistory         = "/" + ServiceName + "/History"
	MethodExport          = "/" + ServiceName + "/Export"
	MethodSubscribe       = "/" + ServiceName + "/Subscribe"
)

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	MethodPing:            true,
	MethodSignInAnonymous: true,
	MethodSignInWithToken: true,
	MethodRefreshToken:    true,
}

// SnapshotStream is the server side of Subscribe.
type SnapshotStream = grpc.ServerStreamingServer[Snapshot]

// PageWatchServer is implemented by the store service.
type PageWatchServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	SignInAnonymous(context.Context, *SignInAnonymousRequest) (*IdentityResponse, error)
	SignInWithToken(context.Context, *SignInWithTokenRequest) (*IdentityResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*IdentityResponse, error)
	CreateRecord(context.Context, *CreateRecordRequest) (*CreateRecordResponse, error)
	UpdateRecord(context.Context, *UpdateRecordRequest) (*Empty, error)
	DeleteRecord(context.Context, *DeleteRecordRequest) (*Empty, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
	Export(context.Context, *ExportRequest) (*ExportResponse, error)
	Subscribe(*SubscribeRequest, SnapshotStream) error
}

// unary builds a grpc.MethodHandler that decodes Req, runs the interceptor
// chain and calls fn.
func unary[Req any, Res any](fullMethod string, fn func(PageWatchServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(PageWatchServer)
		if interceptor == nil {
			return fn(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(s, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(PageWatchServer).Subscribe(in, &grpc.GenericServerStream[SubscribeRequest, Snapshot]{ServerStream: stream})
}

// ServiceDesc describes the PageWatch service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PageWatchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(MethodPing, PageWatchServer.Ping)},
		{MethodName: "SignInAnonymous", Handler: unary(MethodSignInAnonymous, PageWatchServer.SignInAnonymous)},
		{MethodName: "SignInWithToken", Handler: unary(MethodSignInWithToken, PageWatchServer.SignInWithToken)},
		{MethodName: "RefreshToken", Handler: unary(MethodRefreshToken, PageWatchServer.RefreshToken)},
		{MethodName: "CreateRecord", Handler: unary(MethodCreateRecord, PageWatchServer.CreateRecord)},
		{MethodName: "UpdateRecord", Handler: unary(MethodUpdateRecord, PageWatchServer.UpdateRecord)},
		{MethodName: "DeleteRecord", Handler: unary(MethodDeleteRecord, PageWatchServer.DeleteRecord)},
		{MethodName: "History", Handler: unary(MethodHistory, PageWatchServer.History)},
		{MethodName: "Export", Handler: unary(MethodExport, PageWatchServer.Export)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "pagewatch.v1",
}

// RegisterPageWatchServer registers srv on s.
func RegisterPageWatchServer(s grpc.ServiceRegistrar, srv PageWatchServer) {
	s.RegisterService(&ServiceDesc, srv)
}
