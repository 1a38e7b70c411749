package service

import (
	"context"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
	"github.com/ToldYaOnce/kx-event-tracking/internal/tracking"
)

// EventServicer defines the interface for event service operations
type EventServicer interface {
	Track(ctx context.Context, entityType, eventType string, req *tracking.Request, overrides *tracking.Overrides) (*domain.TrackedEvent, error)
	GetEvent(ctx context.Context, eventID string) (*domain.TrackedEvent, error)
	GetJourney(ctx context.Context, eventID string) ([]*domain.TrackedEvent, error)
	ListClientEvents(ctx context.Context, clientID string, limit int) ([]*domain.TrackedEvent, error)
}
