package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/config"
	db "github.com/fonsecaaso/tinylinks/go-server/internal/database"
	"github.com/fonsecaaso/tinylinks/go-server/internal/handler"
	"github.com/fonsecaaso/tinylinks/go-server/internal/idgen"
	"github.com/fonsecaaso/tinylinks/go-server/internal/observability"
	"github.com/fonsecaaso/tinylinks/go-server/internal/repository"
	route "github.com/fonsecaaso/tinylinks/go-server/internal/routes"
	"github.com/fonsecaaso/tinylinks/go-server/internal/service"
	"github.com/fonsecaaso/tinylinks/go-server/internal/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("error loading configuration", zap.Error(err))
	}

	obs, err := observability.Setup(ctx, cfg)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("observability failed to initialize", zap.Error(err))
	}
	logger := obs.Logger
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observability shutdown", zap.Error(err))
		}
	}()

	links, users, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("storage failed to initialize", zap.String("storage", cfg.Storage), zap.Error(err))
	}
	defer closeStores()

	linkService := service.NewLinkService(links, users, idgen.New())
	authService := service.NewAuthService(users, service.NewBcryptHasher(cfg.BcryptCost), idgen.New())

	if cfg.SeedDemo {
		if err := service.SeedDemoData(ctx, authService, linkService); err != nil {
			if !errors.Is(err, service.ErrConflict) {
				logger.Fatal("seeding demo data failed", zap.Error(err))
			}
			logger.Info("demo data already present")
		}
	}

	r := route.SetupRouter(route.Dependencies{
		Links:  linkService,
		Users:  authService,
		Tokens: token.NewManager(cfg.JWTSecret, cfg.SessionTTL),
		SessionCookie: handler.SessionCookie{
			Name:   cfg.SessionCookie,
			Secure: cfg.IsProduction(),
		},
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

// openStores builds the link and user repositories for the configured backing.
func openStores(ctx context.Context, cfg *config.Config) (repository.LinkRepository, repository.UserRepository, func(), error) {
	logger := zap.L()

	if cfg.Storage == config.StorageMemory {
		logger.Info("using in-memory storage")
		return repository.NewMemoryLinkRepository(), repository.NewMemoryUserRepository(), func() {}, nil
	}

	if err := db.RunMigrations(cfg.PostgresURL); err != nil {
		return nil, nil, nil, err
	}

	pgClient, err := db.NewPostgresClient(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("postgres connection established")

	var links repository.LinkRepository = repository.NewPostgresLinkRepository(pgClient)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = db.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			pgClient.Close()
			return nil, nil, nil, err
		}
		logger.Info("redis connection established")
		links = repository.NewCachedLinkRepository(links, redisClient, cfg.RedisCacheTTL)
	}

	closeFn := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		pgClient.Close()
	}

	return links, repository.NewPostgresUserRepository(pgClient), closeFn, nil
}
