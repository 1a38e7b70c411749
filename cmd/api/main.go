package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/bus/eventbridge"
	"github.com/ToldYaOnce/kx-event-tracking/internal/config"
	"github.com/ToldYaOnce/kx-event-tracking/internal/handler"
	"github.com/ToldYaOnce/kx-event-tracking/internal/logger"
	"github.com/ToldYaOnce/kx-event-tracking/internal/publisher"
	"github.com/ToldYaOnce/kx-event-tracking/internal/queue/sqs"
	"github.com/ToldYaOnce/kx-event-tracking/internal/repository/postgres"
	"github.com/ToldYaOnce/kx-event-tracking/internal/secrets"
	"github.com/ToldYaOnce/kx-event-tracking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment, "event-tracking-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	busClient, err := eventbridge.NewClient(ctx, cfg.EventBridge, log)
	if err != nil {
		log.Fatal("Failed to create EventBridge client", zap.Error(err))
	}

	dsn, err := secrets.ResolveDSN(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to resolve database credentials", zap.Error(err))
	}

	pgClient, err := postgres.NewClient(ctx, dsn, cfg.Postgres.MaxConns, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer pgClient.Close()

	repo := postgres.NewRepository(pgClient, log)

	pub := publisher.New(sqsClient, busClient, log)
	eventService := service.NewEventService(pub, repo, log)
	h := handler.NewHandler(eventService, pub, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
