// Package grpc exposes the store and identity services over gRPC using the
// PageWatch service descriptor.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/rpc"
	"github.com/dmitrijs2005/pagewatch/internal/server/services"
	"google.golang.org/grpc"
)

// IdentityProvider is the identity service as seen by the transport.
type IdentityProvider interface {
	SignInAnonymous(ctx context.Context) (*models.Identity, error)
	SignInWithToken(ctx context.Context, token string) (*models.Identity, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.Identity, error)
	UserIDFromAccessToken(token string) (string, error)
}

// MonitorStore is the monitor service as seen by the transport.
type MonitorStore interface {
	Create(ctx context.Context, userID, collectionPath string, in services.CreateInput) (string, error)
	Update(ctx context.Context, userID, docPath string, patch models.Patch) error
	Delete(ctx context.Context, userID, docPath string) error
	List(ctx context.Context, userID, collectionPath string) ([]models.Monitor, error)
	History(ctx context.Context, userID, docPath string, limit int) ([]models.HistoryEntry, error)
	Watch(userID, collectionPath string) (<-chan struct{}, func(), error)
}

// Exporter uploads a collection and returns a download link.
type Exporter interface {
	Export(ctx context.Context, userID, collectionPath string) (*services.ExportResult, error)
}

// RPCObserver records per-call outcomes and live subscriptions.
type RPCObserver interface {
	ObserveRPC(method, code string)
	SubscriptionOpened()
	SubscriptionClosed()
}

type nopRPCObserver struct{}

func (nopRPCObserver) ObserveRPC(string, string) {}
func (nopRPCObserver) SubscriptionOpened()       {}
func (nopRPCObserver) SubscriptionClosed()       {}

type GRPCServer struct {
	address  string
	identity IdentityProvider
	monitors MonitorStore
	exporter Exporter
	observer RPCObserver
	logger   logging.Logger
}

func NewGRPCServer(addr string, l logging.Logger, id IdentityProvider, ms MonitorStore, ex Exporter, obs RPCObserver) *GRPCServer {
	if obs == nil {
		obs = nopRPCObserver{}
	}
	return &GRPCServer{
		address:  addr,
		identity: id,
		monitors: ms,
		exporter: ex,
		observer: obs,
		logger:   l.With("module", "grpc_server"),
	}
}

// NewServer builds a grpc.Server with the interceptor chain and the
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(s.observeInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.observeStreamInterceptor, s.accessTokenStreamInterceptor),
	)
	srv := grpc.NewServer(opts...)
	rpc.RegisterPageWatchServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping gRPC server")
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			// live Subscribe streams never finish on their own
			srv.Stop()
		}
	}()

	s.logger.Info(ctx, "starting gRPC server", "address", s.address)
	return srv.Serve(listen)
}
