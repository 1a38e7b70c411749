package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/bus"
	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
	"github.com/ToldYaOnce/kx-event-tracking/internal/queue"
)

// ErrDurablePublish marks a failed queue send. It is the one publish
// failure that escapes: losing the durable path means losing the record, so
// the caller's unit of work must fail and let platform redelivery engage.
var ErrDurablePublish = errors.New("durable publish failed")

// Publisher dispatches one record to both sinks: the durable queue that
// feeds relational persistence, and the real-time bus for immediate
// fan-out. The two sends run concurrently and both are always awaited; a
// fast bus failure never masks the queue outcome.
type Publisher struct {
	queue queue.Publisher
	bus   bus.Publisher
	log   *zap.Logger
}

// New creates a dual-sink publisher.
func New(queuePub queue.Publisher, busPub bus.Publisher, log *zap.Logger) *Publisher {
	return &Publisher{
		queue: queuePub,
		bus:   busPub,
		log:   log,
	}
}

// Publish validates and sends a single tracked event. A bus failure is
// logged as a warning and absorbed; a queue failure is returned after both
// sinks have been attempted.
func (p *Publisher) Publish(ctx context.Context, event *domain.TrackedEvent) error {
	if err := event.Validate(); err != nil {
		p.log.Error("Refusing to publish invalid event",
			zap.String("event_id", event.EventID),
			zap.Error(err))
		return err
	}

	var (
		wg       sync.WaitGroup
		queueErr error
		busErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		queueErr = p.queue.SendEvent(ctx, event)
	}()
	go func() {
		defer wg.Done()
		busErr = p.bus.PublishEvents(ctx, []*domain.TrackedEvent{event})
	}()
	wg.Wait()

	if busErr != nil {
		p.log.Warn("Real-time bus publish failed, continuing without fan-out",
			zap.String("event_id", event.EventID),
			zap.String("routing_key", event.RoutingKey()),
			zap.Error(busErr))
	}

	if queueErr != nil {
		p.log.Error("Durable queue publish failed",
			zap.String("event_id", event.EventID),
			zap.String("routing_key", event.RoutingKey()),
			zap.Error(queueErr))
		return fmt.Errorf("%w: %v", ErrDurablePublish, queueErr)
	}

	p.log.Info("Event published",
		zap.String("event_id", event.EventID),
		zap.String("routing_key", event.RoutingKey()),
		zap.Bool("realtime_delivered", busErr == nil))

	return nil
}
