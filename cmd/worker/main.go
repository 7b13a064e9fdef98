package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/config"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/coordinator"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/engine"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/httpclient"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/logsink"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/stageworker"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/streaming"
)

func main() {
	// Load .env file if present (development convenience).
	_ = godotenv.Load()          // cmd/worker/.env
	_ = godotenv.Load("../.env") // running from cmd/worker -> project root .env

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	slog.Info("starting dhscanner orchestrator stage workers", "env", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Metadata index (Postgres) + byte store (disk or S3) ---
	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	metaIndex := artifacts.NewPostgresIndex(pgPool)

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

	// --- Status coordinator (Redis) ---
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

	// --- Event bus (optional; best-effort) ---
	var fanout streaming.FanOutPublisher
	natsBus, err := streaming.NewNATSBus(cfg.NATSURL)
	if err != nil {
		slog.Warn("NATS unavailable; pipeline events will not be published", "error", err)
	} else {
		if err := natsBus.EnsureStream(ctx); err != nil {
			slog.Warn("failed to ensure NATS stream", "error", err)
		}
		fanout = append(fanout, natsBus)
		defer natsBus.Close()
	}

	if cfg.ClickHouseDSN != "" {
		chSink, err := streaming.NewClickHouseSink(ctx, cfg.ClickHouseDSN)
		if err != nil {
			slog.Warn("ClickHouse unavailable; pipeline event history will not be recorded", "error", err)
		} else if err := chSink.EnsureTable(ctx); err != nil {
			slog.Warn("failed to ensure pipeline_events table", "error", err)
			_ = chSink.Close()
		} else {
			fanout = append(fanout, chSink)
			defer chSink.Close()
		}
	}

	var bus engine.EventPublisher
	if len(fanout) > 0 {
		bus = fanout
	}

	logClient := logsink.NewClient(getEnv("LOG_SINK_URL", "http://logger:8000/log"))
	client := httpclient.New(60 * time.Second)
	endpoints := stageworker.DefaultEndpoints()

	engines := []*engine.Engine{
		{
			Stage:       "native-parse",
			Trigger:     domain.StatusWaitingForNativeParsing,
			Coordinator: coord,
			Handler:     stageworker.NativeParse(store, client, logClient, endpoints),
			Events:      bus,
		},
		{
			Stage:       "dhscanner-parse",
			Trigger:     domain.StatusWaitingForDhscannerParsing,
			Coordinator: coord,
			Handler:     stageworker.DhscannerParse(store, client, logClient, endpoints),
			Events:      bus,
		},
		{
			Stage:       "codegen",
			Trigger:     domain.StatusWaitingForCodegen,
			Coordinator: coord,
			Handler:     stageworker.Codegen(store, client, logClient, endpoints),
			Events:      bus,
		},
		{
			Stage:       "kbgen",
			Trigger:     domain.StatusWaitingForKbgen,
			Coordinator: coord,
			Handler:     stageworker.Kbgen(store, client, logClient, endpoints),
			Events:      bus,
		},
		{
			Stage:       "queryengine",
			Trigger:     domain.StatusWaitingForQueryengine,
			Coordinator: coord,
			Handler:     stageworker.Queryengine(store, client, logClient, endpoints),
			Events:      bus,
		},
		{
			Stage:       "results",
			Trigger:     domain.StatusWaitingForResultsGeneration,
			Coordinator: coord,
			Handler:     stageworker.Results(store, logClient),
			Events:      bus,
		},
	}

	var wg sync.WaitGroup
	for _, e := range engines {
		e := e
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Run(ctx)
		}()
	}

	slog.Info("all stage workers running", "count", len(engines))

	// --- Wait for shutdown signal ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	slog.Info("received shutdown signal, draining...", "signal", sig)
	cancel()
	wg.Wait()
	slog.Info("dhscanner orchestrator stage workers stopped")
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
