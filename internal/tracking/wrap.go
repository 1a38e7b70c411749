package tracking

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
)

// EventPublisher is the sink the dispatch wrapper hands built records to.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.TrackedEvent) error
}

// Handler is a generic business handler invocation.
type Handler func(ctx context.Context, req *Request) (any, error)

// Tracked wraps a business handler so that, after successful execution, a
// TrackedEvent is built from the request and published. The wrapped
// handler's result and error pass through unchanged in every case: a failed
// handler is never tracked, and a failed build or publish is logged, never
// surfaced. At most one publish happens per successful invocation.
func Tracked(pub EventPublisher, entityType, eventType string, overrides *Overrides, log *zap.Logger) func(Handler) Handler {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (any, error) {
			result, err := next(ctx, req)
			if err != nil {
				return nil, err
			}

			publishAfterSuccess(ctx, pub, entityType, eventType, req, overrides, log)
			return result, nil
		}
	}
}

func publishAfterSuccess(ctx context.Context, pub EventPublisher, entityType, eventType string, req *Request, overrides *Overrides, log *zap.Logger) {
	event, err := Build(entityType, eventType, req, overrides)
	if err != nil {
		if errors.Is(err, ErrMissingClientID) {
			log.Warn("Skipping event tracking: clientId not found",
				zap.String("entity_type", entityType),
				zap.String("event_type", eventType))
		} else {
			log.Error("Failed to build tracked event",
				zap.String("entity_type", entityType),
				zap.String("event_type", eventType),
				zap.Error(err))
		}
		return
	}

	if err := pub.Publish(ctx, event); err != nil {
		log.Error("Failed to publish tracked event",
			zap.String("event_id", event.EventID),
			zap.String("routing_key", event.RoutingKey()),
			zap.Error(err))
	}
}

// Middleware adapts the dispatch wrapper to gin routes: it snapshots the
// inbound request, runs the handler chain, and publishes only when the
// response is a success (2xx).
func Middleware(pub EventPublisher, entityType, eventType string, overrides *Overrides, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := RequestFromGin(c)

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		publishAfterSuccess(c.Request.Context(), pub, entityType, eventType, req, overrides, log)
	}
}

// RequestFromGin builds the extractor's request shape from an HTTP request.
// The body is buffered and restored so downstream binding still works.
func RequestFromGin(c *gin.Context) *Request {
	headers := make(map[string]string, len(c.Request.Header))
	for key := range c.Request.Header {
		headers[key] = c.GetHeader(key)
	}

	query := make(map[string]string)
	for key, vals := range c.Request.URL.Query() {
		if len(vals) > 0 {
			query[key] = vals[0]
		}
	}

	var body any
	if c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err == nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			if len(raw) > 0 {
				body = string(raw)
			}
		}
	}

	return &Request{
		Headers:     headers,
		QueryParams: query,
		Body:        body,
	}
}
