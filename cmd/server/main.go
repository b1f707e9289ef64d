package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/application"
	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/handler"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/cache"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/database"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/persistence"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/persistence/memory"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/provider"
	"github.com/alphinepj/Clam-Companion/internal/logging"
	"github.com/alphinepj/Clam-Companion/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yml", "path to the configuration file")
	flag.Parse()

	logger := logging.NewJSONLogger()
	ctx := context.Background()

	cfg, err := config.LoadConfigFrom(*configPath)
	if err != nil {
		logger.Error(ctx, "failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger logging.Logger) error {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		conversations domain.ConversationRepository
		users         domain.UserRepository
	)
	switch cfg.Storage.Backend {
	case "memory":
		store := memory.NewStore()
		conversations = memory.NewConversationRepository(store)
		users = memory.NewUserRepository(store)
		logger.Warn(ctx, "memory storage backend selected, data will not survive a restart")
	default:
		db, err := database.NewPostgresDB(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := db.CreateTables(persistence.Models()...); err != nil {
			return err
		}
		conversations = persistence.NewConversationRepository(db)
		users = persistence.NewUserRepository(db)
	}

	var cacheStore cache.Store
	switch {
	case !cfg.Cache.Enabled:
		cacheStore = cache.NewNoop()
	case cfg.Storage.Backend == "memory":
		cacheStore = cache.NewMemoryStore()
	default:
		redisStore, err := cache.NewRedisStore(&cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		cacheStore = redisStore
	}
	defer cacheStore.Close()

	providers := provider.FromConfig(cfg.Providers)
	if len(providers) == 0 {
		logger.Warn(ctx, "no AI providers configured, every turn will use the fallback reply")
	}
	orch := application.NewOrchestrator(providers, cfg.Providers.AttemptTimeout, logger)

	tokens := application.NewTokenService(cfg.Auth.JwtSecret, cfg.Auth.Expire_Access_H)
	chatSvc := application.NewChatService(conversations, users, orch, cacheStore, cfg.Cache, cfg.Chat, logger)
	authSvc := application.NewAuthService(users, tokens, orch, cfg.Auth, cfg.Providers.Default, logger)

	// The limiter runs on its own redis connection, separate from the
	// cache pool.
	var rateLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limiterClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Address, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		defer limiterClient.Close()
		rateLimit = middleware.RateLimit(limiterClient, cfg.RateLimit.QPS, cfg.RateLimit.Burst, logger)
	}

	router := handler.NewRouter(
		handler.NewAuthHandler(authSvc, logger),
		handler.NewChatHandler(chatSvc, logger),
		handler.NewSettingsHandler(authSvc, logger),
		tokens,
		rateLimit,
		logger,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"storage", cfg.Storage.Backend,
			"providers", orch.Names(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
