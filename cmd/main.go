/**
 * @description
 * This is the main entry point for the club service. It initializes and wires
 * together all the components of the application: configuration, database
 * connection pool, Redis, the RabbitMQ producer and consumer, the application
 * services, the cron scheduler, and the HTTP router. Finally, it starts the
 * HTTP server and shuts everything down gracefully on SIGINT/SIGTERM.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/api"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/app"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/config"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/store"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/llmclient"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/rabbitmq"
	"github.com/alessandrojcm/dhc-dashboard-sub005/pkg/stripeclient"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env in development; in production the variables come from the
	// environment directly.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Establish connection to the PostgreSQL database with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Use simple protocol so the service works behind PgBouncer transaction
	// pooling without statement cache errors (SQLSTATE 42P05).
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Redis backs the per-user rate limits. A missing Redis URL disables
	// them rather than blocking startup.
	var redisClient redis.UniversalClient
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid redis URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
	} else {
		logger.Warn("REDIS_URL not set, rate limiting disabled")
	}

	// The event producer is best-effort: if the broker is unreachable at
	// startup the service still runs, and the reconciliation job covers the
	// refund flow the events would have driven.
	var publisher rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("failed to connect to rabbitmq, events disabled", "error", err)
		publisher = &rabbitmq.NoopPublisher{Logger: logger}
	} else {
		publisher = producer
		defer producer.Close()
	}

	// External clients.
	stripe := stripeclient.NewClient(cfg.StripeAPIBaseURL, cfg.StripeAPIKey)
	llm := llmclient.NewClient(cfg.LLMAPIBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	// Initialize application layers.
	repository := store.NewPostgresRepository(dbpool)
	memberService := app.NewMemberService(repository, publisher, cfg.ClubEventExchange, logger)
	workshopService := app.NewWorkshopService(repository, publisher, cfg.ClubEventExchange, logger)
	registrationService := app.NewRegistrationService(repository)
	refundService := app.NewRefundService(repository, stripe, publisher, cfg.ClubEventExchange, logger)
	billingService := app.NewBillingService(repository, stripe, cfg.StripeMembershipPriceID, logger)
	assistantService := app.NewAssistantService(llm)
	limiter := app.NewRedisRateLimiter(redisClient, cfg.RateLimitPrefix)

	// Background jobs and the cron scheduler.
	jobs := app.NewJobs(repository, refundService, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	scheduler.Start()
	defer scheduler.Stop()

	// Event consumer for the bulk-refund flow.
	eventConsumer := app.NewEventConsumer(repository, refundService, logger)
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("failed to start rabbitmq consumer, relying on reconciliation job", "error", err)
	} else {
		defer consumer.Close()
		go func() {
			if err := consumer.ConsumeWithBindings(cfg.ClubEventExchange, cfg.ClubEventQueue, eventConsumer.Bindings()); err != nil {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	handlers := api.NewClubHandlers(
		memberService,
		workshopService,
		registrationService,
		refundService,
		billingService,
		assistantService,
		logger,
	)
	router := api.ClubRoutes(handlers, limiter, cfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
