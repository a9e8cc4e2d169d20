package middleware

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/session-server/internal/logger"
)

// Recovery turns handler panics into Internal status errors.
type Recovery struct {
	logger *logger.Logger
}

func NewRecovery(logger *logger.Logger) *Recovery {
	return &Recovery{logger: logger}
}

func (r *Recovery) HandleGRPC() grpc.UnaryServerInterceptor {
	return recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(r.recover))
}

func (r *Recovery) HandleGRPCStream() grpc.StreamServerInterceptor {
	return recovery.StreamServerInterceptor(recovery.WithRecoveryHandlerContext(r.recover))
}

func (r *Recovery) recover(ctx context.Context, p any) error {
	r.logger.ErrorContext(ctx, "gRPC handler panicked", "panic", p)
	return status.Error(codes.Internal, "internal server error")
}
