package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"google.golang.org/grpc/health"

	grpchealth "github.com/dtroode/session-server/internal/api/grpc/health"
	grpcserver "github.com/dtroode/session-server/internal/api/grpc/server"
	reqctx "github.com/dtroode/session-server/internal/api/http/context"
	"github.com/dtroode/session-server/internal/api/http/handler"
	"github.com/dtroode/session-server/internal/api/http/router"
	httpserver "github.com/dtroode/session-server/internal/api/http/server"
	"github.com/dtroode/session-server/internal/config"
	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
	"github.com/dtroode/session-server/internal/password"
	"github.com/dtroode/session-server/internal/repository/memory"
	"github.com/dtroode/session-server/internal/repository/postgres"
	"github.com/dtroode/session-server/internal/server"
	"github.com/dtroode/session-server/internal/service"
	memstorage "github.com/dtroode/session-server/internal/storage/memory"
	miniostorage "github.com/dtroode/session-server/internal/storage/minio"
	"github.com/dtroode/session-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const shutdownTimeout = 10 * time.Second

// backend is the identity store and media storage selected by STORAGE_DRIVER.
type backend struct {
	store   model.UserStore
	storage model.Storage
	routes  []router.Option
	closer  io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	b, err := newBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err, "driver", cfg.StorageDriver)
	}
	defer b.closer.Close()

	codec, err := token.NewJWT(cfg.JWT)
	if err != nil {
		logger.Fatal("failed to initialize token codec", "error", err)
	}
	hasher := password.NewBcrypt(cfg.Password.BcryptCost)

	sessionService := service.NewSession(b.store, hasher, codec, logger, service.SessionOptions{
		RevokeOnReuse:          cfg.Session.RevokeOnReuse,
		RevokeOnPasswordChange: cfg.Session.RevokeOnPasswordChange,
	})
	profileService := service.NewProfile(b.store, hasher, b.storage, logger)

	cookies := handler.CookieConfig{
		Secure:     cfg.HTTP.CookiesSecure(),
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}
	r := router.New(sessionService, profileService, b.store, reqctx.NewManager(), cookies, cfg.HTTP.MaxUploadBytes, logger, b.routes...)

	healthServer := health.NewServer()
	reporter := grpchealth.NewReporter(healthServer, b.store, cfg.GRPC.HealthCheckInterval, logger)

	servers := []model.Server{
		httpserver.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port)),
		grpcserver.NewHealthServer(healthServer, fmt.Sprintf(":%s", cfg.GRPC.Port), logger),
	}
	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reporter.Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func newBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.StorageDriver == config.DriverMemory {
		baseURL := cfg.Storage.PublicURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%s/media", cfg.HTTP.Port)
		}
		media := memstorage.NewStorage(baseURL)
		return &backend{
			store:   memory.NewUserRepository(),
			storage: media,
			routes:  []router.Option{router.WithMedia(media)},
			closer:  io.NopCloser(nil),
		}, nil
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	objects, err := miniostorage.NewClient(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.PublicURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	return &backend{
		store:   postgres.NewUserRepository(db),
		storage: objects,
		closer:  db,
	}, nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
