package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/netgraph/backend/internal/config"
	delivery "github.com/netgraph/backend/internal/delivery/http"
	"github.com/netgraph/backend/internal/logger"
	"github.com/netgraph/backend/internal/middleware"
	"github.com/netgraph/backend/internal/repository/postgres"
	"github.com/netgraph/backend/internal/usecase"
	"github.com/netgraph/backend/pkg/graph"
)

func main() {
	cfg := config.Load()

	log := logger.Must(cfg.Log.Level)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("starting netgraph server", zap.String("port", cfg.Server.Port))

	// Connect to PostgreSQL with retry
	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var err error
		pool, err = pgxpool.New(ctx, cfg.Database.URL)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				cancel()
				log.Info("connected to PostgreSQL")
				break
			} else {
				pool.Close()
				log.Warn("failed to ping database", zap.Int("attempt", attempt), zap.Error(pingErr))
			}
		} else {
			log.Warn("failed to connect to database", zap.Int("attempt", attempt), zap.Error(err))
		}
		cancel()
		if attempt == 5 {
			log.Fatal("could not connect to database after 5 attempts")
		}
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	defer pool.Close()

	ctx := context.Background()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	// Connect to Neo4j; a down graph database degrades the gateway but must
	// not keep the auth endpoints from coming up.
	graphClient, err := graph.NewClient(graph.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
	})
	if err != nil {
		log.Fatal("failed to create graph client", zap.Error(err))
	}
	defer graphClient.Close(ctx)

	if err := graphClient.VerifyConnectivity(ctx); err != nil {
		log.Warn("could not verify graph connectivity", zap.Error(err))
	} else {
		log.Info("connected to Neo4j", zap.String("uri", cfg.Graph.URI))
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewRefreshTokenRepository(pool)
	flagRepo := postgres.NewFlagRepository(pool)

	// Initialize usecases
	signer := usecase.NewTokenSigner(&cfg.JWT)
	authUsecase := usecase.NewAuthUsecase(userRepo, tokenRepo, signer, &cfg.JWT, log)
	graphUsecase := usecase.NewGraphUsecase(graphClient, &cfg.API, log)
	flagUsecase := usecase.NewFlagUsecase(flagRepo)

	if err := authUsecase.BootstrapAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatal("failed to bootstrap admin user", zap.Error(err))
	}

	// Initialize HTTP handler and middleware
	handler := delivery.NewHandler(authUsecase, graphUsecase, flagUsecase, graphClient)
	authMiddleware := middleware.NewAuthMiddleware(authUsecase)

	router := delivery.NewRouter(handler, authMiddleware, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Housekeeping: drop refresh token records past their expiry.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.API.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				authUsecase.SweepExpired()
			case <-sweepDone:
				return
			}
		}
	}()

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")
	close(sweepDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped gracefully")
}
