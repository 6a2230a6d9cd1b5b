package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"admarket/internal/cache"
	"admarket/internal/config"
	"admarket/internal/database"
	"admarket/internal/handler"
	"admarket/internal/logging"
	"admarket/internal/queue"
	"admarket/internal/repository"
	"admarket/internal/service"
	"admarket/internal/worker"
)

// Run wires the whole application together: config, database, Redis, object
// storage, repositories, services, handlers, cleanup workers, and the HTTP
// server with graceful shutdown.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init media service: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	adRepo := repository.NewAdRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)

	// Queue + cache
	publisher := queue.NewPublisher(redisClient)
	consumer := queue.NewConsumer(redisClient)
	listingCache := cache.NewListingCache(redisClient)

	// Services
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshTokenRepo, userRepo, cfg)
	adService := service.NewAdService(adRepo, listingCache, publisher, cfg.PlaceholderThumbnailURL)
	favoriteService := service.NewFavoriteService(favoriteRepo, adRepo)

	// Cleanup workers for orphaned storage objects
	manager := worker.NewManager(consumer, worker.NewHandler(mediaService), worker.ManagerConfig{})
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cleanup workers: %w", err)
	}
	defer manager.Stop()

	router := NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userService, authService),
		UserHandler:     handler.NewUserHandler(userService),
		AdHandler:       handler.NewAdHandler(adService, mediaService),
		FavoriteHandler: handler.NewFavoriteHandler(favoriteService),
		TokenVerifier:   authService,
		Env:             cfg.Env,
		AllowedOrigin:   cfg.CORSAllowedOrigin,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
