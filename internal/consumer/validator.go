package consumer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
	"github.com/ToldYaOnce/kx-event-tracking/internal/queue"
)

// ValidatorStage checks each raw queue message against the TrackedEvent
// contract. A malformed message is dropped (deleted from the queue) and
// logged; it never affects the rest of the batch.
type ValidatorStage struct {
	consumer queue.Consumer
	log      *zap.Logger
}

// NewValidatorStage creates a new validator stage
func NewValidatorStage(consumer queue.Consumer, log *zap.Logger) *ValidatorStage {
	return &ValidatorStage{
		consumer: consumer,
		log:      log,
	}
}

// Start begins validating messages and outputs envelopes
func (v *ValidatorStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			v.log.Info("Validator stage shutting down")
			return
		case msg, ok := <-in:
			if !ok {
				v.log.Info("Validator stage input channel closed")
				return
			}

			envelope := v.validateMessage(ctx, msg)
			if envelope == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
			}
		}
	}
}

// validateMessage parses one message into an envelope, or drops it.
func (v *ValidatorStage) validateMessage(ctx context.Context, msg types.Message) *Envelope {
	event, err := domain.ParseTrackedEvent([]byte(aws.ToString(msg.Body)))
	if err != nil {
		v.log.Warn("Dropping malformed message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		if err := v.deleteMessage(ctx, msg); err != nil {
			v.log.Error("Failed to delete malformed message",
				zap.String("message_id", aws.ToString(msg.MessageId)),
				zap.Error(err))
		}
		return nil
	}

	ack := func(ctx context.Context) error {
		return v.deleteMessage(ctx, msg)
	}

	// Leaving the message alone lets the visibility timeout expire, so
	// the queue redelivers it and eventually dead-letters it.
	nack := func(ctx context.Context) error {
		return nil
	}

	return NewEnvelope(event, ack, nack)
}

// deleteMessage deletes a message from SQS
func (v *ValidatorStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := v.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(v.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	return err
}
