package middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/testutil"
)

func TestLogging_HandleGRPC(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		handler  grpc.UnaryHandler
		wantLog  bool
		wantCode codes.Code
	}{
		{
			name:   "success is logged",
			method: "/session.v1.Echo/Ping",
			handler: func(ctx context.Context, req any) (any, error) {
				return "ok", nil
			},
			wantLog:  true,
			wantCode: codes.OK,
		},
		{
			name:   "error is logged and propagated",
			method: "/session.v1.Echo/Ping",
			handler: func(ctx context.Context, req any) (any, error) {
				return nil, status.Error(codes.InvalidArgument, "bad input")
			},
			wantLog:  true,
			wantCode: codes.InvalidArgument,
		},
		{
			name:   "health check is not logged",
			method: healthpb.Health_Check_FullMethodName,
			handler: func(ctx context.Context, req any) (any, error) {
				return "ok", nil
			},
			wantCode: codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			lg := NewLogging(logger.NewWithWriter(&buf, -4))

			info := &grpc.UnaryServerInfo{FullMethod: tt.method}
			_, err := lg.HandleGRPC()(context.Background(), struct{}{}, info, tt.handler)

			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantLog {
				assert.Contains(t, buf.String(), "finished call")
				assert.Contains(t, buf.String(), "session.v1.Echo")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestRecovery_HandleGRPC(t *testing.T) {
	rec := NewRecovery(testutil.MakeNoopLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/session.v1.Echo/Ping"}

	_, err := rec.HandleGRPC()(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})

	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestRecovery_PassesErrorsThrough(t *testing.T) {
	rec := NewRecovery(testutil.MakeNoopLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/session.v1.Echo/Ping"}
	want := errors.New("plain")

	_, err := rec.HandleGRPC()(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, want
	})

	assert.ErrorIs(t, err, want)
}
