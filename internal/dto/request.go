package dto

// TrackEventRequest is the manual publish request. Identifying fields not
// present in the body are still resolved from headers and query parameters
// by the extractor.
type TrackEventRequest struct {
	EntityType      string         `json:"entityType" binding:"required"`
	EventType       string         `json:"eventType" binding:"required"`
	ClientID        string         `json:"clientId"`
	PreviousEventID *string        `json:"previousEventId"`
	UserID          string         `json:"userId"`
	EntityID        string         `json:"entityId"`
	Source          string         `json:"source"`
	CampaignID      string         `json:"campaignId"`
	PointsAwarded   *int           `json:"pointsAwarded"`
	SessionID       string         `json:"sessionId"`
	OccurredAt      string         `json:"occurredAt"`
	Metadata        map[string]any `json:"metadata"`
}

// ListEventsRequest bounds client event listings.
type ListEventsRequest struct {
	Limit int `form:"limit"`
}

// SignupRequest is the demo business endpoint wrapped by the tracking
// middleware.
type SignupRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}
