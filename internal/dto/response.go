package dto

import "github.com/ToldYaOnce/kx-event-tracking/internal/domain"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TrackEventResponse acknowledges an accepted event.
type TrackEventResponse struct {
	EventID    string `json:"eventId"`
	RoutingKey string `json:"routingKey"`
	Status     string `json:"status"`
}

// EventsResponse wraps a list of persisted events.
type EventsResponse struct {
	Events []*domain.TrackedEvent `json:"events"`
	Count  int                    `json:"count"`
}

// SignupResponse is the demo business endpoint's result.
type SignupResponse struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}
