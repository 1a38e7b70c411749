package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	envConfig "github.com/ToldYaOnce/kx-event-tracking/internal/config"
	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// maxEntriesPerCall is the PutEvents API cap; larger outbound sets are
// chunked and each call awaited independently.
const maxEntriesPerCall = 10

// putEventsAPI is the slice of the EventBridge client the publisher needs.
type putEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Client publishes tracked events to an EventBridge bus.
type Client struct {
	client  putEventsAPI
	busName string
	log     *zap.Logger
}

// NewClient creates a new EventBridge client
func NewClient(ctx context.Context, cfg envConfig.EventBridge, log *zap.Logger) (*Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	var clientOpts []func(*eventbridge.Options)

	// Local development against LocalStack
	if cfg.Endpoint != "" {
		log.Info("Configuring EventBridge for local development",
			zap.String("endpoint", cfg.Endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *eventbridge.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("EventBridge client created",
		zap.String("region", cfg.Region),
		zap.String("bus_name", cfg.BusName))

	return &Client{
		client:  eventbridge.NewFromConfig(awsCfg, clientOpts...),
		busName: cfg.BusName,
		log:     log,
	}, nil
}

// newWithAPI wires an explicit API implementation; used by tests.
func newWithAPI(api putEventsAPI, busName string, log *zap.Logger) *Client {
	return &Client{client: api, busName: busName, log: log}
}

// PublishEvents sends the events to the bus in chunks of at most ten
// entries per call. Every chunk is attempted and awaited regardless of
// earlier failures; partial failures within a chunk are logged per entry.
// The returned error aggregates all failed chunks.
func (c *Client) PublishEvents(ctx context.Context, events []*domain.TrackedEvent) error {
	if len(events) == 0 {
		return nil
	}

	var errs []error
	for start := 0; start < len(events); start += maxEntriesPerCall {
		end := start + maxEntriesPerCall
		if end > len(events) {
			end = len(events)
		}
		if err := c.publishChunk(ctx, events[start:end]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Client) publishChunk(ctx context.Context, events []*domain.TrackedEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))
	for _, event := range events {
		detail, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventID, err)
		}

		entry := types.PutEventsRequestEntry{
			Source:       aws.String(domain.Source),
			DetailType:   aws.String(event.RoutingKey()),
			Detail:       aws.String(string(detail)),
			EventBusName: aws.String(c.busName),
		}
		if occurredAt, err := event.OccurredAtTime(); err == nil {
			entry.Time = aws.Time(occurredAt)
		}
		entries = append(entries, entry)
	}

	result, err := c.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		c.log.Warn("EventBridge call failed",
			zap.Int("entry_count", len(entries)),
			zap.Error(err))
		return fmt.Errorf("failed to put events: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil {
				c.log.Warn("EventBridge entry failed",
					zap.String("event_id", events[i].EventID),
					zap.String("error_code", aws.ToString(entry.ErrorCode)),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)))
			}
		}
		return fmt.Errorf("%d of %d bus entries failed", result.FailedEntryCount, len(entries))
	}

	c.log.Info("Events published to bus",
		zap.Int("entry_count", len(entries)),
		zap.String("bus_name", c.busName))

	return nil
}
