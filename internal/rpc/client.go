package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// SnapshotReceiver is the client side of Subscribe.
type SnapshotReceiver = grpc.ServerStreamingClient[Snapshot]

// PageWatchClient is the client API of the PageWatch service.
type PageWatchClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	SignInAnonymous(ctx context.Context, in *SignInAnonymousRequest, opts ...grpc.CallOption) (*IdentityResponse, error)
	SignInWithToken(ctx context.Context, in *SignInWithTokenRequest, opts ...grpc.CallOption) (*IdentityResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*IdentityResponse, error)
	CreateRecord(ctx context.Context, in *CreateRecordRequest, opts ...grpc.CallOption) (*CreateRecordResponse, error)
	UpdateRecord(ctx context.Context, in *UpdateRecordRequest, opts ...grpc.CallOption) (*Empty, error)
	DeleteRecord(ctx context.Context, in *DeleteRecordRequest, opts ...grpc.CallOption) (*Empty, error)
	History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error)
	Export(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*ExportResponse, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (SnapshotReceiver, error)
}

type pageWatchClient struct {
	cc grpc.ClientConnInterface
}

// NewPageWatchClient wraps a connection. Every call uses the JSON codec.
func NewPageWatchClient(cc grpc.ClientConnInterface) PageWatchClient {
	return &pageWatchClient{cc: cc}
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pageWatchClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *pageWatchClient) SignInAnonymous(ctx context.Context, in *SignInAnonymousRequest, opts ...grpc.CallOption) (*IdentityResponse, error) {
	return invoke[IdentityResponse](ctx, c.cc, MethodSignInAnonymous, in, opts)
}

func (c *pageWatchClient) SignInWithToken(ctx context.Context, in *SignInWithTokenRequest, opts ...grpc.CallOption) (*IdentityResponse, error) {
	return invoke[IdentityResponse](ctx, c.cc, MethodSignInWithToken, in, opts)
}

func (c *pageWatchClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*IdentityResponse, error) {
	return invoke[IdentityResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *pageWatchClient) CreateRecord(ctx context.Context, in *CreateRecordRequest, opts ...grpc.CallOption) (*CreateRecordResponse, error) {
	return invoke[CreateRecordResponse](ctx, c.cc, MethodCreateRecord, in, opts)
}

func (c *pageWatchClient) UpdateRecord(ctx context.Context, in *UpdateRecordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodUpdateRecord, in, opts)
}

func (c *pageWatchClient) DeleteRecord(ctx context.Context, in *DeleteRecordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeleteRecord, in, opts)
}

func (c *pageWatchClient) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, MethodHistory, in, opts)
}

func (c *pageWatchClient) Export(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, MethodExport, in, opts)
}

func (c *pageWatchClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (SnapshotReceiver, error) {
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodSubscribe, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, Snapshot]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
