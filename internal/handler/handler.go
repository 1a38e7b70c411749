package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/dto"
	"github.com/ToldYaOnce/kx-event-tracking/internal/repository"
	"github.com/ToldYaOnce/kx-event-tracking/internal/service"
	"github.com/ToldYaOnce/kx-event-tracking/internal/tracking"
)

type Handler struct {
	eventService service.EventServicer
	publisher    tracking.EventPublisher
	router       *gin.Engine
	log          *zap.Logger
}

func NewHandler(eventService service.EventServicer, publisher tracking.EventPublisher, log *zap.Logger) *Handler {
	h := &Handler{
		eventService: eventService,
		publisher:    publisher,
		router:       gin.Default(),
		log:          log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events/track", h.trackEvent)
	h.router.GET("/events/:id", h.getEvent)
	h.router.GET("/events/:id/journey", h.getJourney)
	h.router.GET("/clients/:clientId/events", h.listClientEvents)

	// Demo business endpoint: the handler knows nothing about tracking,
	// the middleware publishes user.user_created after a 2xx response.
	h.router.POST("/signup",
		tracking.Middleware(h.publisher, "user", "user_created",
			&tracking.Overrides{Source: "api"}, h.log),
		h.signup)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// trackEvent handles POST /events/track, the manual publish path.
func (h *Handler) trackEvent(c *gin.Context) {
	req := tracking.RequestFromGin(c)

	var body dto.TrackEventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Warn("Invalid track request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	overrides := &tracking.Overrides{
		UserID:          body.UserID,
		EntityID:        body.EntityID,
		Source:          body.Source,
		CampaignID:      body.CampaignID,
		PointsAwarded:   body.PointsAwarded,
		SessionID:       body.SessionID,
		PreviousEventID: body.PreviousEventID,
		OccurredAt:      body.OccurredAt,
		Metadata:        body.Metadata,
	}

	event, err := h.eventService.Track(c.Request.Context(), body.EntityType, body.EventType, req, overrides)
	if err != nil {
		if errors.Is(err, tracking.ErrMissingClientID) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "missing_client_id",
				Message: "clientId not found in headers, query, body, or context",
			})
			return
		}
		h.log.Error("Failed to track event",
			zap.String("entity_type", body.EntityType),
			zap.String("event_type", body.EventType),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.TrackEventResponse{
		EventID:    event.EventID,
		RoutingKey: event.RoutingKey(),
		Status:     "accepted",
	})
}

// getEvent handles GET /events/:id
func (h *Handler) getEvent(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// getJourney handles GET /events/:id/journey
func (h *Handler) getJourney(c *gin.Context) {
	events, err := h.eventService.GetJourney(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EventsResponse{
		Events: events,
		Count:  len(events),
	})
}

// listClientEvents handles GET /clients/:clientId/events
func (h *Handler) listClientEvents(c *gin.Context) {
	var req dto.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	events, err := h.eventService.ListClientEvents(c.Request.Context(), c.Param("clientId"), req.Limit)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EventsResponse{
		Events: events,
		Count:  len(events),
	})
}

// signup is a stand-in business handler; its only job here is to show the
// tracking middleware leaving the business response untouched.
func (h *Handler) signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, dto.SignupResponse{
		UserID: uuid.NewString(),
		Status: "created",
	})
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: "not_found",
		})
		return
	}
	h.log.Error("Lookup failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}
