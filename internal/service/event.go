package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
	"github.com/ToldYaOnce/kx-event-tracking/internal/repository"
	"github.com/ToldYaOnce/kx-event-tracking/internal/tracking"
)

// EventService drives manual event tracking and record lookups.
type EventService struct {
	publisher  tracking.EventPublisher
	repository repository.EventRepository
	log        *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(publisher tracking.EventPublisher, repo repository.EventRepository, log *zap.Logger) *EventService {
	return &EventService{
		publisher:  publisher,
		repository: repo,
		log:        log,
	}
}

// Track builds a TrackedEvent from the request and publishes it to both
// sinks. This is the manual publish path; the automatic path is the
// tracking middleware around business handlers.
func (s *EventService) Track(ctx context.Context, entityType, eventType string, req *tracking.Request, overrides *tracking.Overrides) (*domain.TrackedEvent, error) {
	if entityType == "" || eventType == "" {
		return nil, fmt.Errorf("entityType and eventType are required")
	}

	event, err := tracking.Build(entityType, eventType, req, overrides)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	return event, nil
}

// GetEvent returns one persisted event.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*domain.TrackedEvent, error) {
	return s.repository.GetEvent(ctx, eventID)
}

// GetJourney returns the causal chain ending at the given event, the event
// itself first and the journey root last.
func (s *EventService) GetJourney(ctx context.Context, eventID string) ([]*domain.TrackedEvent, error) {
	return s.repository.GetJourney(ctx, eventID)
}

// ListClientEvents returns a client's most recent events.
func (s *EventService) ListClientEvents(ctx context.Context, clientID string, limit int) ([]*domain.TrackedEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.repository.ListByClient(ctx, clientID, limit)
}
