package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-turnos/internal/analytics"
	analytics_api "ms-turnos/internal/analytics/api"
	"ms-turnos/internal/auth"
	"ms-turnos/internal/clock"
	"ms-turnos/internal/config"
	"ms-turnos/internal/kafka"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/realtime"
	"ms-turnos/internal/turnos/db"
	qr "ms-turnos/internal/turnos/qr_generator"
	turnosredis "ms-turnos/internal/turnos/redis"
	"ms-turnos/internal/turnos/report"
	turnos "ms-turnos/internal/turnos/service"
	"ms-turnos/internal/turnos/turno_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

var parseLogLevel = logger.ParseLevel

func connectRedis(ctx context.Context, cfg *config.Config, logger *logger.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Fatal("CONFIG", "ISSUANCE_LOCK=redis needs REDIS_ADDR")
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return redisClient
}

func buildSequencer(ctx context.Context, cfg *config.Config, logger *logger.Logger) (turnos.Sequencer, *redis.Client) {
	switch cfg.Issuance.Lock {
	case "redis":
		client := connectRedis(ctx, cfg, logger)
		logger.Info("TURNO", fmt.Sprintf("Ticket numbers serialized through redis (lock TTL %s)", cfg.Redis.LockTTL))
		return turnosredis.NewSequencer(client, cfg.Redis.LockTTL, logger), client
	case "none":
		logger.Warn("TURNO", "ISSUANCE_LOCK=none: concurrent registrations may receive duplicate numbers")
		return turnos.UnguardedSequencer{}, nil
	default:
		logger.Info("TURNO", "Ticket numbers serialized in-process")
		return turnos.NewLocalSequencer(), nil
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting turnos service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	logger.SetLevel(parseLogLevel(cfg.LogLevel))
	ctx := context.Background()

	logger.Info("DATABASE", fmt.Sprintf("Opening %s store", cfg.Database.Driver))
	bunDB, err := db.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open store: %v", err))
	}
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	if err := store.Init(ctx, cfg.Database.SeedUsername, cfg.Database.SeedPassword); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to initialize schema: %v", err))
	}
	logger.LogDatabase("INIT", "usuarios, orden_llegada", "✅ schema ready")

	clk := clock.Real(cfg.Location)
	emitter := realtime.NewEmitter()

	ticketService := turnos.NewTicketService(store, emitter, logger)
	ticketService.Clock = clk
	ticketService.RequireFields = cfg.Issuance.RequireFields

	sequencer, redisClient := buildSequencer(ctx, cfg, logger)
	ticketService.Sequencer = sequencer
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Publishing ticket events to %s via %v", cfg.Kafka.Topic, cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer producer.Close()
		ticketService.Publisher = producer
	}

	handler := turno_api.NewHandler(
		ticketService,
		report.NewService(store, clk),
		store,
		auth.NewSessions(cfg.Session),
		emitter,
		qr.NewQRGenerator(cfg.Server.RegistrationURL()),
		logger,
	)
	handler.HealthCheck = func(ctx context.Context) error {
		if err := bunDB.PingContext(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if pinger, ok := sequencer.(interface{ Ping(context.Context) error }); ok {
			if err := pinger.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	analytics_api.NewHandler(analytics.NewService(bunDB, clk), logger).RegisterRoutes(r)
	logger.Info("ROUTER", "Analytics endpoint registered at /api/estadisticas")
	logger.Info("ROUTER", fmt.Sprintf("Registration QR points to %s", cfg.Server.RegistrationURL()))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Turnos service running on %s", cfg.Server.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Turnos service shutdown complete")
	}
}
