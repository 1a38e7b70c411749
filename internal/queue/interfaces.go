package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// Publisher defines the durable-queue sink: one serialized TrackedEvent per
// message. This is the system-of-record path; send failures are critical.
type Publisher interface {
	SendEvent(ctx context.Context, event *domain.TrackedEvent) error
}

// Consumer defines the receive side used by the ingestion pipeline.
type Consumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
