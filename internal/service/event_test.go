package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
	"github.com/ToldYaOnce/kx-event-tracking/internal/tracking"
)

// MockEventPublisher is a mock implementation of tracking.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.TrackedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) InsertBatch(ctx context.Context, events []*domain.TrackedEvent) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockEventRepository) GetEvent(ctx context.Context, eventID string) (*domain.TrackedEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackedEvent), args.Error(1)
}

func (m *MockEventRepository) GetJourney(ctx context.Context, eventID string) ([]*domain.TrackedEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrackedEvent), args.Error(1)
}

func (m *MockEventRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.TrackedEvent, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrackedEvent), args.Error(1)
}

func (m *MockEventRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) Close() {
	m.Called()
}

func trackRequest() *tracking.Request {
	return &tracking.Request{
		Headers: map[string]string{"x-client-id": "client_123"},
	}
}

func TestTrack_PublishesBuiltEvent(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	mockRepo := new(MockEventRepository)

	var published *domain.TrackedEvent
	mockPublisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *domain.TrackedEvent) bool {
		published = e
		return e.ClientID == "client_123" && e.RoutingKey() == "user.user_created"
	})).Return(nil).Once()

	svc := NewEventService(mockPublisher, mockRepo, zap.NewNop())

	event, err := svc.Track(context.Background(), "user", "user_created", trackRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, published, event)
	assert.NotEmpty(t, event.EventID)
	mockPublisher.AssertExpectations(t)
}

func TestTrack_RequiresEntityAndEventType(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockPublisher, mockRepo, zap.NewNop())

	_, err := svc.Track(context.Background(), "", "user_created", trackRequest(), nil)
	assert.Error(t, err)

	_, err = svc.Track(context.Background(), "user", "", trackRequest(), nil)
	assert.Error(t, err)

	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestTrack_MissingClientID(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockPublisher, mockRepo, zap.NewNop())

	_, err := svc.Track(context.Background(), "user", "user_created", &tracking.Request{}, nil)

	assert.ErrorIs(t, err, tracking.ErrMissingClientID)
	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestTrack_PublishFailureSurfaces(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	mockRepo := new(MockEventRepository)
	mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	svc := NewEventService(mockPublisher, mockRepo, zap.NewNop())

	_, err := svc.Track(context.Background(), "user", "user_created", trackRequest(), nil)

	assert.ErrorIs(t, err, assert.AnError)
	mockPublisher.AssertExpectations(t)
}

func TestListClientEvents_ClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"zero falls back to default", 0, 100},
		{"negative falls back to default", -5, 100},
		{"over cap falls back to default", 5000, 100},
		{"in range passes through", 250, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPublisher := new(MockEventPublisher)
			mockRepo := new(MockEventRepository)
			mockRepo.On("ListByClient", mock.Anything, "client_123", tt.wantLimit).
				Return([]*domain.TrackedEvent{}, nil).Once()

			svc := NewEventService(mockPublisher, mockRepo, zap.NewNop())

			_, err := svc.ListClientEvents(context.Background(), "client_123", tt.limit)
			require.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetJourney_DelegatesToRepository(t *testing.T) {
	mockPublisher := new(MockEventPublisher)
	mockRepo := new(MockEventRepository)

	chain := []*domain.TrackedEvent{
		{EventID: "e3", ClientID: "client_123", EntityType: "order", EventType: "order_placed"},
		{EventID: "e2", ClientID: "client_123", EntityType: "cart", EventType: "item_added"},
		{EventID: "e1", ClientID: "client_123", EntityType: "user", EventType: "user_created"},
	}
	mockRepo.On("GetJourney", mock.Anything, "e3").Return(chain, nil).Once()

	svc := NewEventService(mockPublisher, mockRepo, zap.NewNop())

	events, err := svc.GetJourney(context.Background(), "e3")
	require.NoError(t, err)
	assert.Equal(t, chain, events)
	mockRepo.AssertExpectations(t)
}
