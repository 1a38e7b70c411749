package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
	"github.com/ToldYaOnce/kx-event-tracking/internal/dto"
	"github.com/ToldYaOnce/kx-event-tracking/internal/repository"
	"github.com/ToldYaOnce/kx-event-tracking/internal/tracking"
)

// MockEventServicer is a mock implementation of service.EventServicer
type MockEventServicer struct {
	mock.Mock
}

func (m *MockEventServicer) Track(ctx context.Context, entityType, eventType string, req *tracking.Request, overrides *tracking.Overrides) (*domain.TrackedEvent, error) {
	args := m.Called(ctx, entityType, eventType, req, overrides)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackedEvent), args.Error(1)
}

func (m *MockEventServicer) GetEvent(ctx context.Context, eventID string) (*domain.TrackedEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackedEvent), args.Error(1)
}

func (m *MockEventServicer) GetJourney(ctx context.Context, eventID string) ([]*domain.TrackedEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrackedEvent), args.Error(1)
}

func (m *MockEventServicer) ListClientEvents(ctx context.Context, clientID string, limit int) ([]*domain.TrackedEvent, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrackedEvent), args.Error(1)
}

// MockEventPublisher is a mock implementation of tracking.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.TrackedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestHandler(t *testing.T) (*Handler, *MockEventServicer, *MockEventPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockService := new(MockEventServicer)
	mockPublisher := new(MockEventPublisher)
	return NewHandler(mockService, mockPublisher, zap.NewNop()), mockService, mockPublisher
}

func perform(h *Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, val := range headers {
		req.Header.Set(key, val)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := perform(h, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrackEvent_Accepted(t *testing.T) {
	h, mockService, _ := newTestHandler(t)

	event := &domain.TrackedEvent{
		EventID:    "a7e54b20-9c5d-4d3f-8b1a-222222222222",
		ClientID:   "client_123",
		EntityType: "order",
		EventType:  "order_placed",
	}
	mockService.On("Track", mock.Anything, "order", "order_placed", mock.Anything, mock.Anything).
		Return(event, nil).Once()

	body := []byte(`{"entityType":"order","eventType":"order_placed"}`)
	rec := perform(h, http.MethodPost, "/events/track", body, map[string]string{
		"x-client-id": "client_123",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp dto.TrackEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, event.EventID, resp.EventID)
	assert.Equal(t, "order.order_placed", resp.RoutingKey)
	assert.Equal(t, "accepted", resp.Status)
	mockService.AssertExpectations(t)
}

func TestTrackEvent_MissingRequiredFields(t *testing.T) {
	h, mockService, _ := newTestHandler(t)

	rec := perform(h, http.MethodPost, "/events/track", []byte(`{"entityType":"order"}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "Track")
}

func TestTrackEvent_MissingClientID(t *testing.T) {
	h, mockService, _ := newTestHandler(t)
	mockService.On("Track", mock.Anything, "order", "order_placed", mock.Anything, mock.Anything).
		Return(nil, tracking.ErrMissingClientID).Once()

	body := []byte(`{"entityType":"order","eventType":"order_placed"}`)
	rec := perform(h, http.MethodPost, "/events/track", body, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_client_id", resp.Error)
}

func TestGetEvent_NotFound(t *testing.T) {
	h, mockService, _ := newTestHandler(t)
	mockService.On("GetEvent", mock.Anything, "missing").
		Return(nil, repository.ErrEventNotFound).Once()

	rec := perform(h, http.MethodGet, "/events/missing", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJourney_ReturnsChain(t *testing.T) {
	h, mockService, _ := newTestHandler(t)

	chain := []*domain.TrackedEvent{
		{EventID: "e2", ClientID: "client_123", EntityType: "order", EventType: "order_placed"},
		{EventID: "e1", ClientID: "client_123", EntityType: "user", EventType: "user_created"},
	}
	mockService.On("GetJourney", mock.Anything, "e2").Return(chain, nil).Once()

	rec := perform(h, http.MethodGet, "/events/e2/journey", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.EventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "e2", resp.Events[0].EventID)
}

func TestListClientEvents_PassesLimit(t *testing.T) {
	h, mockService, _ := newTestHandler(t)
	mockService.On("ListClientEvents", mock.Anything, "client_123", 5).
		Return([]*domain.TrackedEvent{}, nil).Once()

	rec := perform(h, http.MethodGet, "/clients/client_123/events?limit=5", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

func TestSignup_MiddlewarePublishesAfterSuccess(t *testing.T) {
	h, _, mockPublisher := newTestHandler(t)
	mockPublisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *domain.TrackedEvent) bool {
		return e.RoutingKey() == "user.user_created" && e.ClientID == "client_123"
	})).Return(nil).Once()

	body := []byte(`{"email":"ada@example.com"}`)
	rec := perform(h, http.MethodPost, "/signup", body, map[string]string{
		"x-client-id": "client_123",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockPublisher.AssertExpectations(t)
}

func TestSignup_NoPublishOnValidationFailure(t *testing.T) {
	h, _, mockPublisher := newTestHandler(t)

	rec := perform(h, http.MethodPost, "/signup", []byte(`{"email":"not-an-email"}`), map[string]string{
		"x-client-id": "client_123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockPublisher.AssertNotCalled(t, "Publish")
}
