package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ussyboy7/npa-emr-flow/internal/adapters/cache"
	"github.com/Ussyboy7/npa-emr-flow/internal/adapters/events"
	"github.com/Ussyboy7/npa-emr-flow/internal/adapters/memory"
	"github.com/Ussyboy7/npa-emr-flow/internal/api/handlers"
	"github.com/Ussyboy7/npa-emr-flow/internal/api/routes"
	"github.com/Ussyboy7/npa-emr-flow/internal/application/services"
	"github.com/Ussyboy7/npa-emr-flow/internal/domain/providers"
	redisclient "github.com/Ussyboy7/npa-emr-flow/internal/infrastructure/clients/redis"
	"github.com/Ussyboy7/npa-emr-flow/internal/infrastructure/observability"
	queryservices "github.com/Ussyboy7/npa-emr-flow/internal/query/services"
	"github.com/Ussyboy7/npa-emr-flow/pkg/config"
	"github.com/Ussyboy7/npa-emr-flow/pkg/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize Redis client with retry; the service runs without Redis,
	// losing only caching and real-time streams.
	var redisClient *redisclient.Client
	err = retry.DoWithLog(ctx, retry.DefaultConfig(), func() error {
		var connErr error
		redisClient, connErr = redisclient.NewClient(&cfg.Redis)
		return connErr
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("Redis connection failed, retrying")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without cache and event bus")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Initialize the in-memory flow store and services
	store := memory.NewStore()
	evaluator := services.NewVitalsEvaluator()
	flowService := services.NewFlowService(store, evaluator, eventBus, cacheProvider, *observability.GetLogger())
	snapshotService := queryservices.NewSnapshotService(
		store,
		cacheProvider,
		metrics,
		*observability.GetLogger(),
		cfg.Flow.SnapshotCacheTTLSeconds,
	)

	// Initialize handlers
	encounterHandler := handlers.NewEncounterHandler(flowService)
	roomHandler := handlers.NewRoomHandler(flowService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus, time.Duration(cfg.Flow.SSEHeartbeatSeconds)*time.Second)
	}

	// Set up router
	router := routes.NewRouter(encounterHandler, roomHandler, snapshotHandler, sseHandler, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE connections stay open indefinitely
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
