package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/session-server/internal/api/grpc/middleware"
	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

// GRPCServer wraps a gRPC server with address and lifecycle methods.
type GRPCServer struct {
	server *grpc.Server
	addr   string
}

// NewGRPCServer creates a GRPCServer with given server and address.
func NewGRPCServer(server *grpc.Server, addr string) *GRPCServer {
	return &GRPCServer{server: server, addr: addr}
}

// NewHealthServer builds a gRPC server exposing the health service and
// reflection, with recovery and logging interceptors.
func NewHealthServer(healthServer *health.Server, addr string, logger *logger.Logger) *GRPCServer {
	recovery := middleware.NewRecovery(logger)
	logging := middleware.NewLogging(logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recovery.HandleGRPC(), logging.HandleGRPC()),
		grpc.ChainStreamInterceptor(recovery.HandleGRPCStream(), logging.HandleGRPCStream()),
	)
	healthpb.RegisterHealthServer(s, healthServer)
	reflection.Register(s)

	return NewGRPCServer(s, addr)
}

// Start starts serving on the configured address using the provided security layer.
func (s *GRPCServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.server.Serve(listener)
}

// Stop drains open calls, forcing the server closed once ctx expires.
// Health watch streams never finish on their own, so the deadline is what
// bounds shutdown.
func (s *GRPCServer) Stop(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		<-stopped
		return ctx.Err()
	}
}

// Address returns the configured listen address.
func (s *GRPCServer) Address() string {
	return s.addr
}
