package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/rpc"
	"github.com/dmitrijs2005/pagewatch/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func identityResponse(id *models.Identity) *rpc.IdentityResponse {
	return &rpc.IdentityResponse{
		UserID:       id.UserID,
		Anonymous:    id.Anonymous,
		AccessToken:  id.AccessToken,
		RefreshToken: id.RefreshToken,
	}
}

func mustUser(ctx context.Context) (string, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())
	}
	return userID, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "ok"}, nil
}

func (s *GRPCServer) SignInAnonymous(ctx context.Context, _ *rpc.SignInAnonymousRequest) (*rpc.IdentityResponse, error) {
	id, err := s.identity.SignInAnonymous(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return identityResponse(id), nil
}

func (s *GRPCServer) SignInWithToken(ctx context.Context, req *rpc.SignInWithTokenRequest) (*rpc.IdentityResponse, error) {
	if req.Token == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}
	id, err := s.identity.SignInWithToken(ctx, req.Token)
	if err != nil {
		return nil, toStatus(err)
	}
	return identityResponse(id), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.IdentityResponse, error) {
	id, err := s.identity.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return identityResponse(id), nil
}

func (s *GRPCServer) CreateRecord(ctx context.Context, req *rpc.CreateRecordRequest) (*rpc.CreateRecordResponse, error) {
	userID, err := mustUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.monitors.Create(ctx, userID, req.CollectionPath, services.CreateInput{
		Fields:    req.Fields,
		Status:    req.Status,
		LastValue: req.LastValue,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.CreateRecordResponse{ID: id}, nil
}

func (s *GRPCServer) UpdateRecord(ctx context.Context, req *rpc.UpdateRecordRequest) (*rpc.Empty, error) {
	userID, err := mustUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.monitors.Update(ctx, userID, req.DocPath, req.Patch); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) DeleteRecord(ctx context.Context, req *rpc.DeleteRecordRequest) (*rpc.Empty, error) {
	userID, err := mustUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.monitors.Delete(ctx, userID, req.DocPath); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) History(ctx context.Context, req *rpc.HistoryRequest) (*rpc.HistoryResponse, error) {
	userID, err := mustUser(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.monitors.History(ctx, userID, req.DocPath, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.HistoryResponse{Entries: entries}, nil
}

func (s *GRPCServer) Export(ctx context.Context, req *rpc.ExportRequest) (*rpc.ExportResponse, error) {
	userID, err := mustUser(ctx)
	if err != nil {
		return nil, err
	}
	if s.exporter == nil {
		return nil, status.Error(codes.Unimplemented, "export is not configured")
	}
	res, err := s.exporter.Export(ctx, userID, req.CollectionPath)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ExportResponse{Key: res.Key, URL: res.URL, ExpiresAt: res.ExpiresAt}, nil
}

// Subscribe sends the current list right away and again after every change
// signal for the collection. It returns when the client goes away.
func (s *GRPCServer) Subscribe(req *rpc.SubscribeRequest, stream rpc.SnapshotStream) error {
	ctx := stream.Context()
	userID, err := mustUser(ctx)
	if err != nil {
		return err
	}

	changes, cancel, err := s.monitors.Watch(userID, req.CollectionPath)
	if err != nil {
		return toStatus(err)
	}
	defer cancel()

	s.observer.SubscriptionOpened()
	defer s.observer.SubscriptionClosed()

	send := func() error {
		list, err := s.monitors.List(ctx, userID, req.CollectionPath)
		if err != nil {
			return toStatus(err)
		}
		return stream.Send(&rpc.Snapshot{Monitors: list, ReadAt: time.Now().UTC()})
	}

	if err := send(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := send(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
