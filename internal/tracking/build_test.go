package tracking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_FromHeaderAndOverrides(t *testing.T) {
	req := &Request{
		Headers: map[string]string{"x-client-id": "client_123"},
		Body:    `{"email":"a@b.com"}`,
	}

	event, err := Build("user", "user_created", req, &Overrides{EntityID: "user_1"})
	require.NoError(t, err)

	assert.Equal(t, "client_123", event.ClientID)
	assert.Nil(t, event.PreviousEventID)
	assert.Equal(t, "user", event.EntityType)
	assert.Equal(t, "user_created", event.EventType)
	assert.Equal(t, "user_1", event.EntityID)
	assert.Equal(t, "user.user_created", event.RoutingKey())

	_, err = uuid.Parse(event.EventID)
	assert.NoError(t, err, "eventId must be a valid uuid")

	occurredAt, err := event.OccurredAtTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), occurredAt, 5*time.Second)
}

func TestBuild_MissingClientID(t *testing.T) {
	event, err := Build("user", "user_created", &Request{Body: `{"email":"a@b.com"}`}, nil)

	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrMissingClientID)
}

func TestBuild_FreshEventIDPerBuild(t *testing.T) {
	req := &Request{Fields: map[string]any{"clientId": "client_123"}}

	first, err := Build("user", "user_created", req, nil)
	require.NoError(t, err)
	second, err := Build("user", "user_created", req, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.EventID, second.EventID)
}

func TestBuild_ChainViaOverride(t *testing.T) {
	req := &Request{Fields: map[string]any{"clientId": "client_123"}}

	first, err := Build("order", "order_created", req, nil)
	require.NoError(t, err)
	require.Nil(t, first.PreviousEventID)

	second, err := Build("order", "order_paid", req, &Overrides{
		PreviousEventID: &first.EventID,
	})
	require.NoError(t, err)

	require.NotNil(t, second.PreviousEventID)
	assert.Equal(t, first.EventID, *second.PreviousEventID)
}

func TestBuild_PreviousEventIDFromRequest(t *testing.T) {
	req := &Request{
		Headers: map[string]string{
			"x-client-id":         "client_123",
			"x-previous-event-id": "prev_9",
		},
	}

	event, err := Build("user", "user_updated", req, nil)
	require.NoError(t, err)

	require.NotNil(t, event.PreviousEventID)
	assert.Equal(t, "prev_9", *event.PreviousEventID)
}

func TestBuild_OverridesWin(t *testing.T) {
	req := &Request{
		Headers: map[string]string{
			"x-client-id":         "client_123",
			"x-previous-event-id": "prev_from_header",
		},
	}

	points := 25
	prev := "prev_from_override"
	overrides := &Overrides{
		UserID:          "user_7",
		Source:          "worker",
		CampaignID:      "cmp_1",
		PointsAwarded:   &points,
		SessionID:       "sess_1",
		PreviousEventID: &prev,
		OccurredAt:      "2024-06-01T10:00:00Z",
		Metadata:        map[string]any{"plan": "pro"},
	}

	event, err := Build("user", "user_upgraded", req, overrides)
	require.NoError(t, err)

	assert.Equal(t, "user_7", event.UserID)
	assert.Equal(t, "worker", event.Source)
	assert.Equal(t, "cmp_1", event.CampaignID)
	assert.Equal(t, &points, event.PointsAwarded)
	assert.Equal(t, "sess_1", event.SessionID)
	assert.Equal(t, "prev_from_override", *event.PreviousEventID)
	assert.Equal(t, "2024-06-01T10:00:00Z", event.OccurredAt)
	assert.Equal(t, map[string]any{"plan": "pro"}, event.Metadata)
}
