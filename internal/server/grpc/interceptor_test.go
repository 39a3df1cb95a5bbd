package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(id *fakeIdentity) *GRPCServer {
	return NewGRPCServer("", logging.Nop{}, id, newFakeStore(), nil, nil)
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		common.AccessTokenHeaderName: token,
	}))
}

func TestInterceptor_PublicMethodSkipsAuth(t *testing.T) {
	s := newTestServer(&fakeIdentity{})

	called := false
	h := func(ctx context.Context, req any) (any, error) {
		called = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodSignInAnonymous}, h)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newTestServer(&fakeIdentity{})

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodCreateRecord}, h)
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "missing token", status.Convert(err).Message())
}

func TestInterceptor_TokenErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"expired", common.ErrTokenExpired, "token expired"},
		{"invalid", fmt.Errorf("%w: bad signature", common.ErrInvalidToken), "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeIdentity{tokenErr: tt.err})
			h := func(ctx context.Context, req any) (any, error) {
				t.Fatal("handler should not be called")
				return nil, nil
			}
			_, err := s.accessTokenInterceptor(withToken("tok"), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodUpdateRecord}, h)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
			assert.Equal(t, tt.message, status.Convert(err).Message())
		})
	}
}

func TestInterceptor_ValidTokenSetsUser(t *testing.T) {
	s := newTestServer(&fakeIdentity{userID: "u-1"})

	var got string
	h := func(ctx context.Context, req any) (any, error) {
		got, _ = UserIDFromContext(ctx)
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(withToken("tok"), nil, &grpc.UnaryServerInfo{FullMethod: rpc.MethodHistory}, h)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("name: %w", common.ErrValidationFailed), codes.InvalidArgument},
		{common.ErrPermissionDenied, codes.PermissionDenied},
		{fmt.Errorf("monitor x: %w", common.ErrorNotFound), codes.NotFound},
		{common.ErrTokenExpired, codes.Unauthenticated},
		{common.ErrRefreshTokenExpired, codes.Unauthenticated},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{status.Error(codes.Aborted, "as is"), codes.Aborted},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatus(tt.err)))
		})
	}
	assert.NoError(t, toStatus(nil))
	assert.Equal(t, "token expired", status.Convert(toStatus(common.ErrTokenExpired)).Message())
}
