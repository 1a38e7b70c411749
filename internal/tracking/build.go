package tracking

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// ErrMissingClientID is returned by Build when no source in the request
// carries a client identifier. Callers skip publishing; the business
// response is unaffected.
var ErrMissingClientID = errors.New("clientId not found in request")

// Overrides are caller-supplied values merged on top of the computed
// defaults. A set override always wins, including PreviousEventID and
// OccurredAt.
type Overrides struct {
	UserID          string
	EntityID        string
	Source          string
	CampaignID      string
	PointsAwarded   *int
	SessionID       string
	PreviousEventID *string
	OccurredAt      string
	Metadata        map[string]any
}

// Build assembles a TrackedEvent for a successful business invocation.
// Pure except for id and timestamp generation; performs no I/O.
func Build(entityType, eventType string, req *Request, overrides *Overrides) (*domain.TrackedEvent, error) {
	clientID := ExtractClientID(req)
	if clientID == "" {
		return nil, ErrMissingClientID
	}

	var previousEventID *string
	if prev := ExtractPreviousEventID(req); prev != "" {
		previousEventID = &prev
	}

	event := &domain.TrackedEvent{
		EventID:         uuid.NewString(),
		ClientID:        clientID,
		PreviousEventID: previousEventID,
		EntityType:      entityType,
		EventType:       eventType,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}

	if overrides != nil {
		applyOverrides(event, overrides)
	}

	return event, nil
}

func applyOverrides(event *domain.TrackedEvent, o *Overrides) {
	if o.UserID != "" {
		event.UserID = o.UserID
	}
	if o.EntityID != "" {
		event.EntityID = o.EntityID
	}
	if o.Source != "" {
		event.Source = o.Source
	}
	if o.CampaignID != "" {
		event.CampaignID = o.CampaignID
	}
	if o.PointsAwarded != nil {
		event.PointsAwarded = o.PointsAwarded
	}
	if o.SessionID != "" {
		event.SessionID = o.SessionID
	}
	if o.PreviousEventID != nil {
		event.PreviousEventID = o.PreviousEventID
	}
	if o.OccurredAt != "" {
		event.OccurredAt = o.OccurredAt
	}
	if o.Metadata != nil {
		event.Metadata = o.Metadata
	}
}
