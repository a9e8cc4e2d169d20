// Package health drives the gRPC health service from store pings.
package health

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

const pingTimeout = 2 * time.Second

// Reporter periodically pings the identity store and publishes the result
// as the overall serving status.
type Reporter struct {
	server   *health.Server
	pinger   model.Pinger
	interval time.Duration
	logger   *logger.Logger
}

func NewReporter(server *health.Server, pinger model.Pinger, interval time.Duration, logger *logger.Logger) *Reporter {
	return &Reporter{
		server:   server,
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
}

// Run reports once immediately and then on every tick until ctx is done,
// after which every service is marked NOT_SERVING.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}

// Check pings the store once and updates the serving status.
func (r *Reporter) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := r.pinger.Ping(pingCtx); err != nil {
		r.logger.Warn("Health reporter: store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus("", status)
}
