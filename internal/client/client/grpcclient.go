package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.PageWatchClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(accessToken, refreshToken string)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// refresh swaps the token pair using the refresh token. Callers retry
// their request once afterwards.
func (s *GRPCClient) refresh(ctx context.Context) error {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return common.ErrorUnauthorized
	}

	resp, err := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	cb := s.onRefresh
	s.mu.Unlock()

	if cb != nil {
		cb(resp.AccessToken, resp.RefreshToken)
	}
	return nil
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if rpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	accessToken, _ := s.tokens()
	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if rerr := s.refresh(ctx); rerr != nil {
		return err
	}

	accessToken, _ = s.tokens()
	return invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
}

func NewPageWatchClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewPageWatchClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SetTokens installs the token pair sent with every call. Empty strings
// clear it.
func (s *GRPCClient) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

// OnTokensRefreshed registers fn to learn about transparently refreshed
// tokens.
func (s *GRPCClient) OnTokensRefreshed(fn func(accessToken, refreshToken string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

func toIdentity(r *rpc.IdentityResponse) *models.Identity {
	return &models.Identity{
		UserID:       r.UserID,
		Anonymous:    r.Anonymous,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}

func (s *GRPCClient) SignInAnonymous(ctx context.Context) (*models.Identity, error) {
	resp, err := s.client.SignInAnonymous(ctx, &rpc.SignInAnonymousRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return toIdentity(resp), nil
}

func (s *GRPCClient) SignInWithToken(ctx context.Context, token string) (*models.Identity, error) {
	resp, err := s.client.SignInWithToken(ctx, &rpc.SignInWithTokenRequest{Token: token})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return toIdentity(resp), nil
}

// Resume restores a session from a refresh token kept by an earlier run.
// The server rotates the pair, so the stored token must be replaced with
// the one in the returned identity.
func (s *GRPCClient) Resume(ctx context.Context, refreshToken string) (*models.Identity, error) {
	resp, err := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return toIdentity(resp), nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "ok" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) CreateRecord(ctx context.Context, collectionPath string, fields models.Fields, st models.Status, lastValue *string) (string, error) {
	resp, err := s.client.CreateRecord(ctx, &rpc.CreateRecordRequest{
		CollectionPath: collectionPath,
		Fields:         fields,
		Status:         st,
		LastValue:      lastValue,
	})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.ID, nil
}

func (s *GRPCClient) UpdateRecord(ctx context.Context, docPath string, patch models.Patch) error {
	if _, err := s.client.UpdateRecord(ctx, &rpc.UpdateRecordRequest{DocPath: docPath, Patch: patch}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) DeleteRecord(ctx context.Context, docPath string) error {
	if _, err := s.client.DeleteRecord(ctx, &rpc.DeleteRecordRequest{DocPath: docPath}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) History(ctx context.Context, docPath string, limit int) ([]models.HistoryEntry, error) {
	resp, err := s.client.History(ctx, &rpc.HistoryRequest{DocPath: docPath, Limit: limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Entries, nil
}

func (s *GRPCClient) Export(ctx context.Context, collectionPath string) (*ExportLink, error) {
	resp, err := s.client.Export(ctx, &rpc.ExportRequest{CollectionPath: collectionPath})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &ExportLink{Key: resp.Key, URL: resp.URL, ExpiresAt: resp.ExpiresAt}, nil
}

type snapshotStream struct {
	stream rpc.SnapshotReceiver
	first  *rpc.Snapshot
	mapErr func(error) error
}

func (s *snapshotStream) Recv() (*rpc.Snapshot, error) {
	if s.first != nil {
		snap := s.first
		s.first = nil
		return snap, nil
	}
	snap, err := s.stream.Recv()
	if err != nil {
		return nil, s.mapErr(err)
	}
	return snap, nil
}

// Subscribe opens a snapshot stream and waits for the first snapshot, so
// an expired access token is caught here and refreshed once.
func (s *GRPCClient) Subscribe(ctx context.Context, collectionPath, orderHint string) (SnapshotStream, error) {
	open := func() (rpc.SnapshotReceiver, *rpc.Snapshot, error) {
		accessToken, _ := s.tokens()
		stream, err := s.client.Subscribe(withAccessToken(ctx, accessToken), &rpc.SubscribeRequest{
			CollectionPath: collectionPath,
			OrderHint:      orderHint,
		})
		if err != nil {
			return nil, nil, err
		}
		first, err := stream.Recv()
		if err != nil {
			return nil, nil, err
		}
		return stream, first, nil
	}

	stream, first, err := open()
	if isTokenExpired(err) && s.refresh(ctx) == nil {
		stream, first, err = open()
	}
	if err != nil {
		return nil, s.mapError(err)
	}
	return &snapshotStream{stream: stream, first: first, mapErr: s.mapError}, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		if st.Message() == common.ErrTokenExpired.Error() {
			return common.ErrTokenExpired
		}
		return common.ErrorUnauthorized
	case codes.PermissionDenied:
		return common.ErrPermissionDenied
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidationFailed, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
