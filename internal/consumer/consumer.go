package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/config"
	"github.com/ToldYaOnce/kx-event-tracking/internal/queue"
	"github.com/ToldYaOnce/kx-event-tracking/internal/repository"
)

// Consumer is the ingestion pipeline: receive raw queue messages, validate
// them against the event contract, and batch-persist the survivors. This
// path only persists; real-time bus fan-out already happened at
// event-construction time and is never repeated here.
type Consumer struct {
	receiver    *Receiver
	validator   *ValidatorStage
	batchWriter *BatchWriter
}

// NewConsumer wires the pipeline stages.
func NewConsumer(cfg *config.Config, queueConsumer queue.Consumer, repo repository.EventRepository, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
	}, log)

	validator := NewValidatorStage(queueConsumer, log)

	batchWriter := NewBatchWriter(repo, BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log)

	return &Consumer{
		receiver:    receiver,
		validator:   validator,
		batchWriter: batchWriter,
	}
}

// Start runs all stages until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.validator.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
