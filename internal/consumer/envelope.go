package consumer

import (
	"context"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// Envelope pairs a validated tracked event with its queue acknowledgment
// callbacks. Ack removes the message; Nack leaves it for redelivery after
// the visibility timeout expires.
type Envelope struct {
	Event *domain.TrackedEvent
	ack   func(context.Context) error
	nack  func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(event *domain.TrackedEvent, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Event: event,
		ack:   ack,
		nack:  nack,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
