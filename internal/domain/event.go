package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Source is the fixed origin tag attached to every bus message published by
// this tracking system.
const Source = "kx-event-tracking"

// ErrMalformedEvent indicates a queue message that failed the TrackedEvent
// contract. Callers drop the offending message and keep the batch.
var ErrMalformedEvent = errors.New("malformed tracked event")

// TrackedEvent is the canonical record moving through the pipeline. It is
// built once, after a business handler succeeds, and never mutated afterwards.
type TrackedEvent struct {
	EventID         string         `json:"eventId"`
	ClientID        string         `json:"clientId"`
	PreviousEventID *string        `json:"previousEventId"`
	UserID          string         `json:"userId,omitempty"`
	EntityID        string         `json:"entityId,omitempty"`
	EntityType      string         `json:"entityType"`
	EventType       string         `json:"eventType"`
	Source          string         `json:"source,omitempty"`
	CampaignID      string         `json:"campaignId,omitempty"`
	PointsAwarded   *int           `json:"pointsAwarded,omitempty"`
	SessionID       string         `json:"sessionId,omitempty"`
	OccurredAt      string         `json:"occurredAt"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// RoutingKey returns the "entityType.eventType" category key used as the bus
// detail-type and for subscriber pattern matching.
func (e *TrackedEvent) RoutingKey() string {
	return e.EntityType + "." + e.EventType
}

// OccurredAtTime parses the record's occurredAt timestamp.
func (e *TrackedEvent) OccurredAtTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.OccurredAt)
}

// Validate checks the record against the wire contract: required fields
// present and occurredAt parseable. Optional-field types are enforced by
// ParseTrackedEvent at decode time.
func (e *TrackedEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: missing eventId", ErrMalformedEvent)
	}
	if e.ClientID == "" {
		return fmt.Errorf("%w: missing clientId", ErrMalformedEvent)
	}
	if e.EntityType == "" {
		return fmt.Errorf("%w: missing entityType", ErrMalformedEvent)
	}
	if e.EventType == "" {
		return fmt.Errorf("%w: missing eventType", ErrMalformedEvent)
	}
	if e.OccurredAt == "" {
		return fmt.Errorf("%w: missing occurredAt", ErrMalformedEvent)
	}
	if _, err := e.OccurredAtTime(); err != nil {
		return fmt.Errorf("%w: occurredAt %q is not a valid timestamp", ErrMalformedEvent, e.OccurredAt)
	}
	return nil
}

// ParseTrackedEvent decodes a raw queue message body into a validated
// TrackedEvent. Any JSON or contract violation yields ErrMalformedEvent.
func ParseTrackedEvent(body []byte) (*TrackedEvent, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	event := &TrackedEvent{}
	for _, f := range []struct {
		key      string
		dst      any
		required bool
	}{
		{"eventId", &event.EventID, true},
		{"clientId", &event.ClientID, true},
		{"entityType", &event.EntityType, true},
		{"eventType", &event.EventType, true},
		{"occurredAt", &event.OccurredAt, true},
		{"previousEventId", &event.PreviousEventID, false},
		{"userId", &event.UserID, false},
		{"entityId", &event.EntityID, false},
		{"source", &event.Source, false},
		{"campaignId", &event.CampaignID, false},
		{"pointsAwarded", &event.PointsAwarded, false},
		{"sessionId", &event.SessionID, false},
	} {
		val, ok := raw[f.key]
		if !ok || string(val) == "null" {
			if f.required {
				return nil, fmt.Errorf("%w: missing %s", ErrMalformedEvent, f.key)
			}
			continue
		}
		if err := json.Unmarshal(val, f.dst); err != nil {
			return nil, fmt.Errorf("%w: invalid %s", ErrMalformedEvent, f.key)
		}
	}

	if val, ok := raw["metadata"]; ok && string(val) != "null" {
		// Must be a JSON object, never an array or scalar.
		if err := json.Unmarshal(val, &event.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata must be an object", ErrMalformedEvent)
		}
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}
