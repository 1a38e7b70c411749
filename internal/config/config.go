package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Service holds shared process-level settings.
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
}

// SQS configures the durable-queue sink and the consumer's receive loop.
type SQS struct {
	QueueURL string `envconfig:"EVENTS_QUEUE_URL" required:"true"`
	Region   string `envconfig:"AWS_REGION" default:"us-east-1"`
	Endpoint string `envconfig:"SQS_ENDPOINT"`
}

// EventBridge configures the real-time bus sink.
type EventBridge struct {
	BusName  string `envconfig:"EVENT_BUS_NAME" required:"true"`
	Region   string `envconfig:"AWS_REGION" default:"us-east-1"`
	Endpoint string `envconfig:"EVENTBRIDGE_ENDPOINT"`
}

// Postgres configures the relational store. DSN wins when set; otherwise
// credentials are resolved from Secrets Manager via SecretARN.
type Postgres struct {
	DSN        string `envconfig:"POSTGRES_DSN"`
	SecretARN  string `envconfig:"DB_SECRET_ARN"`
	Region     string `envconfig:"AWS_REGION" default:"us-east-1"`
	MaxConns   int32  `envconfig:"POSTGRES_MAX_CONNS" default:"5"`
	SSLMode    string `envconfig:"POSTGRES_SSL_MODE" default:"require"`
	InitSchema bool   `envconfig:"POSTGRES_INIT_SCHEMA" default:"true"`
}

// Consumer tunes the ingestion pipeline.
type Consumer struct {
	BatchSizeMax    int    `envconfig:"CONSUMER_BATCH_SIZE_MAX" default:"100"`
	BatchTimeoutSec int    `envconfig:"CONSUMER_BATCH_TIMEOUT_SEC" default:"5"`
	HealthCheckPort string `envconfig:"CONSUMER_HEALTH_CHECK_PORT" default:"8081"`
}

type Config struct {
	Service     Service
	SQS         SQS
	EventBridge EventBridge
	Postgres    Postgres
	Consumer    Consumer
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
