package bus

import (
	"context"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// Publisher defines the real-time bus sink. Delivery is best-effort: the
// durable queue, not the bus, is the system of record.
type Publisher interface {
	PublishEvents(ctx context.Context, events []*domain.TrackedEvent) error
}
