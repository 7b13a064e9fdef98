package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/ai"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api/handlers"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/config"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/coordinator"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/search"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/streaming"
)

func main() {
	// Load .env file if present (development convenience).
	_ = godotenv.Load()          // cmd/api/.env
	_ = godotenv.Load("../.env") // running from cmd/api -> project root .env

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	slog.Info("starting dhscanner orchestrator ingress API", "port", cfg.APIPort, "env", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Metadata index (Postgres) ---
	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	metaIndex := artifacts.NewPostgresIndex(pgPool)

	// --- Byte store: disk or S3, selected by ARTIFACT_BACKEND ---
	var byteStore artifacts.ByteStore
	switch cfg.ArtifactBackend {
	case "s3":
		s3Store, err := artifacts.NewS3Store(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL, false)
		if err != nil {
			slog.Error("failed to initialize S3 artifact store", "error", err)
			os.Exit(1)
		}
		byteStore = s3Store
	default:
		byteStore = artifacts.NewDiskStore(cfg.ArtifactBaseDir)
	}
	store := artifacts.New(byteStore, metaIndex)

	// --- Status coordinator + rate limiter (Redis) ---
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to parse REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	coord := coordinator.New(redisClient)
	limiter := coordinator.NewRateLimiter(redisClient)

	// --- Log sink client (C2 observability, also used by upload) ---
	logClient := logsink.NewClient(getEnv("LOG_SINK_URL", "http://logger:8000/log"))

	// --- Event bus + WebSocket hub (optional; best-effort) ---
	var bus streaming.EventBus
	natsBus, err := streaming.NewNATSBus(cfg.NATSURL)
	if err != nil {
		slog.Warn("NATS unavailable; pipeline events will not be published", "error", err)
	} else {
		if err := natsBus.EnsureStream(ctx); err != nil {
			slog.Warn("failed to ensure NATS stream", "error", err)
		}
		bus = natsBus
		defer natsBus.Close()
	}

	hub := streaming.NewHub()
	go hub.Run()

	// --- Operator search index (optional) ---
	var indexer search.Indexer
	bleveIndex, err := search.NewBleveIndex(cfg.BleveIndexDir)
	if err != nil {
		slog.Warn("search index unavailable; /search will be disabled", "error", err)
	} else {
		indexer = bleveIndex
		defer bleveIndex.Close()
	}

	// --- AI narrator (optional) ---
	var querier ai.AIQuerier
	if cfg.AnthropicAPIKey != "" {
		aiClient, err := ai.NewClient(cfg.AnthropicAPIKey, getEnv("ANTHROPIC_MODEL", ""))
		if err != nil {
			slog.Warn("AI narrator unavailable", "error", err)
		} else {
			querier = aiClient
		}
	}

	// --- Build handlers ---
	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: []string{"*"},
		ApprovedURLs:   cfg.ApprovedURLs,
		Limiter:        limiter,

		JobIDHandler:   handlers.JobIDHandler(),
		UploadHandler:  handlers.UploadHandler(store, logClient, indexer),
		AnalyzeHandler: handlers.AnalyzeHandler(coord),
		StatusHandler:  handlers.StatusHandler(coord),
		ResultsHandler: handlers.ResultsHandler(coord, store),

		WSHandler:      handlers.WSHandler(bus, hub),
		SearchHandler:  handlers.SearchHandler(indexer),
		ExplainHandler: handlers.ExplainHandler(coord, store, querier),
	})

	// --- Start HTTP server ---
	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("dhscanner orchestrator ingress API stopped")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
