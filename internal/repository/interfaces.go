package repository

import (
	"context"
	"errors"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// ErrEventNotFound is returned by lookups for an unknown event id.
var ErrEventNotFound = errors.New("event not found")

// EventRepository defines the interface for tracked-event storage.
type EventRepository interface {
	// InitSchema creates the events table and its indexes if absent.
	InitSchema(ctx context.Context) error

	// InsertBatch inserts events in one transaction with idempotent
	// conflict handling and returns the number of new rows. A duplicate
	// eventId is silently skipped; any other failure rolls back the
	// whole batch.
	InsertBatch(ctx context.Context, events []*domain.TrackedEvent) (int, error)

	// GetEvent fetches a single event by id.
	GetEvent(ctx context.Context, eventID string) (*domain.TrackedEvent, error)

	// GetJourney walks the previousEventId chain backwards from the
	// given event to its root, most recent first.
	GetJourney(ctx context.Context, eventID string) ([]*domain.TrackedEvent, error)

	// ListByClient returns a client's events in reverse time order.
	ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.TrackedEvent, error)

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close()
}
