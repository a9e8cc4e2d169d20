package middleware

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/session-server/internal/logger"
)

// Logging adapts the application logger to the go-grpc-middleware logging
// interceptors.
type Logging struct {
	logger *logger.Logger
}

func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Log implements logging.Logger. Interceptor levels share slog's numbering.
func (l *Logging) Log(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
	l.logger.Log(ctx, slog.Level(lvl), msg, fields...)
}

// HandleGRPC logs finished unary calls. Health check calls are
// skipped.
func (l *Logging) HandleGRPC() grpc.UnaryServerInterceptor {
	return selector.UnaryServerInterceptor(
		logging.UnaryServerInterceptor(l, logging.WithLogOnEvents(logging.FinishCall)),
		selector.MatchFunc(notHealthCheck),
	)
}

// HandleGRPCStream logs finished streaming calls such as health watches and
// reflection.
func (l *Logging) HandleGRPCStream() grpc.StreamServerInterceptor {
	return logging.StreamServerInterceptor(l, logging.WithLogOnEvents(logging.FinishCall))
}

func notHealthCheck(_ context.Context, c interceptors.CallMeta) bool {
	return c.FullMethod() != healthpb.Health_Check_FullMethodName
}
