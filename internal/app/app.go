package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/config"
	"github.com/MikhailRaia/shortlinks/internal/generator"
	"github.com/MikhailRaia/shortlinks/internal/handler"
	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/proto"
	"github.com/MikhailRaia/shortlinks/internal/service"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/MikhailRaia/shortlinks/internal/storage/file"
	"github.com/MikhailRaia/shortlinks/internal/storage/memory"
	"github.com/MikhailRaia/shortlinks/internal/storage/postgres"
	"github.com/MikhailRaia/shortlinks/internal/worker"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

const (
	limiterPruneInterval = time.Minute
	limiterMaxIdle       = 10 * time.Minute
)

type App struct {
	config     *config.Config
	storage    storage.Storage
	clicks     *worker.ClickWorkerPool
	limiter    *middleware.IPRateLimiter
	handler    http.Handler
	grpcServer *grpc.Server
	closeOnce  sync.Once
}

// NewApp opens storage, seeds the demo accounts and wires every component.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	if err := service.SeedUsers(ctx, store, service.DefaultSeedAccounts); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	if cfg.UsesDevSecret() {
		log.Warn().Msg("Signing tokens with the built-in development secret, set JWT_SECRET")
	}

	tokens := auth.NewJWTService(cfg.JWTSecret,
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithAudience(cfg.JWTAudience),
		auth.WithTTL(cfg.TokenTTL),
	)

	codes := generator.NewSeededCodeGenerator(time.Now().UnixNano())
	urlService := service.NewURLService(store, codes, cfg.BaseURL)
	authService := service.NewAuthService(store, tokens)
	aboutService := service.NewAboutService(store)

	a := &App{
		config:  cfg,
		storage: store,
		limiter: middleware.NewIPRateLimiter(rate.Limit(cfg.LoginRateLimit), cfg.LoginRateBurst),
	}

	opts := []handler.Option{
		handler.WithLoginLimiter(a.limiter),
		handler.WithListAuth(cfg.RequireAuthForList),
		handler.WithCORS(cfg.CORSAllowedOrigins),
	}

	var clickQueue handler.ClickQueue
	if cfg.ClickWorkers > 0 {
		a.clicks = worker.NewClickWorkerPool(urlService, worker.Config{
			WorkerCount:  cfg.ClickWorkers,
			BufferSize:   worker.DefaultConfig().BufferSize,
			BatchSize:    cfg.ClickBatchSize,
			BatchTimeout: cfg.ClickBatchTimeout,
		})
		a.clicks.Start()
		clickQueue = a.clicks
		opts = append(opts, handler.WithClickQueue(a.clicks))
	}

	if !cfg.RequireAuthForList {
		log.Warn().Msg("GET /api/urls is public and lists every short URL, set REQUIRE_AUTH_FOR_LIST to restrict it")
	}

	httpHandler := handler.NewHandler(urlService, authService, aboutService, store, middleware.NewAuthMiddleware(tokens), opts...)
	a.handler = httpHandler.RegisterRoutes()

	if cfg.GRPCAddress != "" {
		grpcAuth := middleware.NewGRPCAuthMiddleware(tokens, handler.PublicGRPCMethods(cfg.RequireAuthForList)...)
		a.grpcServer = grpc.NewServer(
			grpc.ForceServerCodec(proto.JSONCodec{}),
			grpc.UnaryInterceptor(grpcAuth.UnaryInterceptor),
		)
		proto.RegisterShortenerServer(a.grpcServer, handler.NewShortenerGRPCServer(urlService, authService, clickQueue))
	}

	return a, nil
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch {
	case cfg.DatabaseDSN != "":
		log.Info().Msg("Using PostgreSQL storage")
		s, err := postgres.NewStorage(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return s, nil
	case cfg.FileStoragePath != "":
		log.Info().Str("path", cfg.FileStoragePath).Msg("Using file storage")
		s, err := file.NewStorage(cfg.FileStoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		return s, nil
	default:
		log.Info().Msg("Using in-memory storage")
		return memory.NewStorage(), nil
	}
}

// Handler returns the HTTP router.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP, and gRPC when configured, until ctx is cancelled or a
// server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	server := &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 2)

	go func() {
		var err error
		if a.config.EnableHTTPS {
			log.Info().Str("addr", server.Addr).Str("baseURL", a.config.BaseURL).Msg("Starting HTTPS server")
			err = server.ListenAndServeTLS(a.config.CertFile, a.config.KeyFile)
		} else {
			log.Info().Str("addr", server.Addr).Str("baseURL", a.config.BaseURL).Msg("Starting HTTP server")
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.grpcServer != nil {
		lis, err := net.Listen("tcp", a.config.GRPCAddress)
		if err != nil {
			_ = server.Close()
			return fmt.Errorf("failed to listen on %s: %w", a.config.GRPCAddress, err)
		}
		go func() {
			log.Info().Str("addr", a.config.GRPCAddress).Msg("Starting gRPC server")
			if err := a.grpcServer.Serve(lis); err != nil {
				serverErrors <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go a.pruneLimiter(pruneCtx)

	var runErr error
	select {
	case runErr = <-serverErrors:
		log.Error().Err(runErr).Msg("Server failed")
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()

	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed, closing server")
		if closeErr := server.Close(); closeErr != nil {
			return fmt.Errorf("failed to close server: %w", closeErr)
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")
	return runErr
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(limiterMaxIdle); n > 0 {
				log.Debug().Int("removed", n).Msg("Pruned idle rate limiters")
			}
		}
	}
}

// Close flushes queued clicks and releases storage. Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.clicks != nil {
			if err := a.clicks.Shutdown(a.config.ShutdownTimeout); err != nil {
				log.Error().Err(err).Msg("Click worker pool did not drain in time")
			}
		}
		a.storage.Close()
		log.Info().Msg("Storage closed")
	})
}
