package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/api/handlers"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/api/middleware"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/cache"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/catalog"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/config"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/health"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/metrics"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/orders"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/ratelimit"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/seed"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/session"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/telemetry"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, &cfg.Otel)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpClient := utils.NewHTTPClient(cfg.Backend.RequestTimeout)

	// Redis backs the catalog cache and the order attempt limiter; both are optional
	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.RateConfig.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, &cfg.RedisConnect)
		if err != nil {
			slog.Warn("⚠️ Redis unavailable, running without cache and rate limiting", slog.String("error", err.Error()))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
				}
			}()
		}
	}

	var seedOpts []seed.Option
	var catalogClient catalog.Catalog = catalog.NewClient(cfg.Backend.BaseURL, httpClient)
	if cfg.Cache.Enabled && redisClient != nil {
		cachedCatalog := catalog.NewCachedCatalog(catalogClient, cache.NewRedisCache(redisClient, &cfg.Cache), cfg.Cache.DefaultTTL)
		seedOpts = append(seedOpts, seed.WithAfterSeed(cachedCatalog.InvalidateRestaurants))
		catalogClient = cachedCatalog
	}

	var orderOpts []orders.Option
	if cfg.Submission.TransportRetries > 0 {
		orderOpts = append(orderOpts, orders.WithTransportRetries(cfg.Submission.TransportRetries, cfg.Submission.InitialBackoff))
	}
	orderClient := orders.NewClient(cfg.Backend.BaseURL, httpClient, orderOpts...)

	// Best-effort demo data, never awaited
	if !cfg.Backend.SeedDisabled {
		seed.Detached(ctx, seed.NewSeeder(cfg.Backend.BaseURL, httpClient, seedOpts...), cfg.Backend.SeedTimeout, logger.With(slog.String("component", "seed")))
	}

	sessions := session.NewStore(catalogClient, orderClient, cfg.Session.IdleTTL, session.WithMaxSessions(cfg.Session.MaxSessions))
	go sessions.RunSweeper(ctx, cfg.Session.SweepInterval)

	var handlerOpts []handlers.HandlerOption
	if cfg.RateConfig.Enabled && redisClient != nil {
		handlerOpts = append(handlerOpts, handlers.WithOrderLimiter(ratelimit.NewRedisLimiter(redisClient, &cfg.RateConfig)))
	}

	sessionHandler := handlers.NewSessionHandler(sessions, cfg.Backend.RequestTimeout*time.Duration(cfg.Submission.TransportRetries+1), handlerOpts...)

	healthChecker, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health checker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("services initialized",
		slog.String("env", cfg.Env),
		slog.String("backend", cfg.Backend.BaseURL),
		slog.Bool("cache", cfg.Cache.Enabled && redisClient != nil),
		slog.Bool("orderRateLimit", cfg.RateConfig.Enabled && redisClient != nil),
		slog.String("version", health.Version))

	// Setup router
	routerMux := http.NewServeMux()
	sessionHandler.RegisterRoutes(routerMux)
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthChecker.Handler())
	routerMux.Handle("GET /test", healthChecker.Handler())

	// Middleware chaining; metrics sits directly on the mux to read the matched pattern
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "dine-preorder")
	handler = middleware.Logging(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(handler)

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("⚠️ Tracer shutdown encountered an issue", slog.String("error", err.Error()))
	}
}
