package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/handler"
	"github.com/aryan0dhankhar/bloggingapi/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/bloggingapi/internal/infrastructure/mongodb"
	"github.com/aryan0dhankhar/bloggingapi/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/bloggingapi/internal/observability/tracing"
	"github.com/aryan0dhankhar/bloggingapi/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/bloggingapi/internal/repository"
	"github.com/aryan0dhankhar/bloggingapi/internal/security"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/audit"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/auth"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/middleware"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/ratelimit"
	"github.com/aryan0dhankhar/bloggingapi/internal/service"
	"github.com/aryan0dhankhar/bloggingapi/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	log.Info("starting blogging API", slog.String("environment", cfg.Environment))
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET not set, using the insecure development default")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, "bloggingapi", cfg.Environment, cfg.OTelEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. MongoDB; the service does not run without its store
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		log.Error("failed to connect to MongoDB", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer mongoClient.Close()

	checks := map[string]handler.Pinger{"mongodb": mongoClient}

	// 5. Auth rate limiter, shared through Redis when configured
	memLimiter := ratelimit.NewLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	defer memLimiter.Stop()

	var authLimiter ratelimit.RateLimiter = memLimiter
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		checks["redis"] = redisClient

		breaker := circuitbreaker.NewCircuitBreaker(5, 1, 30*time.Second)
		breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
			log.Warn("redis rate limiter breaker changed state",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		})
		authLimiter = ratelimit.NewRedisLimiter(redisClient, "ratelimit:auth", cfg.AuthRateLimit, cfg.AuthRateWindow).
			WithBreaker(breaker, memLimiter)
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Error("invalid TRUSTED_PROXIES", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Repositories and services
	userRepo := repository.NewMongoUserRepository(mongoClient, log)
	blogRepo := repository.NewMongoBlogRepository(mongoClient, log)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "bloggingapi", cfg.JWTExpiresIn)
	authService := service.NewAuthService(userRepo, tokenManager, cfg.BcryptCost, log)
	blogService := service.NewBlogService(
		blogRepo,
		userRepo,
		security.NewAuthorizationService(log),
		audit.NewLogger(log),
		service.BlogOptions{
			DefaultLimit:   cfg.DefaultPageSize,
			MaxLimit:       cfg.MaxPageSize,
			SkipOwnerReads: cfg.SkipOwnerReads,
		},
		log,
	)

	// 7. Routes
	router := handler.NewRouter(handler.Deps{
		Auth:               authService,
		Blogs:              blogService,
		AuthLimiter:        authLimiter,
		TrustedProxies:     proxies,
		Checks:             checks,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             log,
	})

	// 8. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(router, "bloggingapi"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("database", cfg.MongoDatabase),
		slog.Int("auth_rate_limit", cfg.AuthRateLimit),
		slog.Duration("auth_rate_window", cfg.AuthRateWindow),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("server error", slog.String("error", err.Error()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}
