package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ToldYaOnce/kx-event-tracking/internal/domain"
	"github.com/ToldYaOnce/kx-event-tracking/internal/repository"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	event_id          UUID PRIMARY KEY,
	client_id         VARCHAR(128) NOT NULL,
	previous_event_id UUID NULL,
	user_id           VARCHAR(128),
	entity_id         VARCHAR(128),
	entity_type       VARCHAR(48) NOT NULL,
	event_type        VARCHAR(48) NOT NULL,
	source            VARCHAR(32),
	campaign_id       VARCHAR(128),
	points_awarded    INTEGER,
	session_id        VARCHAR(128),
	occurred_at       TIMESTAMPTZ NOT NULL,
	metadata          JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT fk_events_previous
		FOREIGN KEY (previous_event_id) REFERENCES events(event_id)
		ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_events_client_time
	ON events (client_id, occurred_at DESC);

CREATE INDEX IF NOT EXISTS idx_events_user_time
	ON events (user_id, occurred_at DESC);

CREATE INDEX IF NOT EXISTS idx_events_type_time
	ON events (event_type, occurred_at DESC);

CREATE INDEX IF NOT EXISTS idx_events_campaign_time
	ON events (campaign_id, occurred_at DESC);

CREATE INDEX IF NOT EXISTS idx_events_prev
	ON events (previous_event_id);

CREATE INDEX IF NOT EXISTS idx_events_metadata_gin
	ON events USING GIN (metadata);
`

const insertSQL = `
INSERT INTO events (
	event_id, client_id, previous_event_id, user_id, entity_id, entity_type,
	event_type, source, campaign_id, points_awarded, session_id, occurred_at, metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (event_id) DO NOTHING
`

const selectColumns = `
	event_id, client_id, previous_event_id, user_id, entity_id, entity_type,
	event_type, source, campaign_id, points_awarded, session_id, occurred_at, metadata
`

// Repository implements repository.EventRepository on Postgres.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new Postgres repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the events table, the self-referencing chain
// constraint, and the retrieval indexes.
func (r *Repository) InitSchema(ctx context.Context) error {
	if _, err := r.client.Pool().Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create events schema: %w", err)
	}

	r.log.Info("Postgres schema initialized")
	return nil
}

// InsertBatch inserts all events in a single transaction. Duplicate event
// ids are skipped by the conflict clause and do not count as inserted; any
// other error rolls back the entire batch.
func (r *Repository) InsertBatch(ctx context.Context, events []*domain.TrackedEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.client.Pool().Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, event := range events {
		occurredAt, err := event.OccurredAtTime()
		if err != nil {
			return 0, fmt.Errorf("event %s has invalid occurredAt: %w", event.EventID, err)
		}

		tag, err := tx.Exec(ctx, insertSQL,
			event.EventID,
			event.ClientID,
			event.PreviousEventID,
			nullable(event.UserID),
			nullable(event.EntityID),
			event.EntityType,
			event.EventType,
			nullable(event.Source),
			nullable(event.CampaignID),
			event.PointsAwarded,
			nullable(event.SessionID),
			occurredAt,
			event.Metadata,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert event %s: %w", event.EventID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	r.log.Info("Inserted event batch",
		zap.Int("batch_size", len(events)),
		zap.Int("inserted", inserted),
		zap.Int("duplicates_skipped", len(events)-inserted))

	return inserted, nil
}

// GetEvent fetches one event by id.
func (r *Repository) GetEvent(ctx context.Context, eventID string) (*domain.TrackedEvent, error) {
	row := r.client.Pool().QueryRow(ctx,
		"SELECT"+selectColumns+"FROM events WHERE event_id = $1", eventID)

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	return event, nil
}

// GetJourney walks the chain backwards from the given event via a
// recursive query, returning the event itself first and the root last.
func (r *Repository) GetJourney(ctx context.Context, eventID string) ([]*domain.TrackedEvent, error) {
	query := `
	WITH RECURSIVE journey AS (
		SELECT ` + selectColumns + `, 0 AS depth FROM events WHERE event_id = $1
		UNION ALL
		SELECT
			e.event_id, e.client_id, e.previous_event_id, e.user_id, e.entity_id,
			e.entity_type, e.event_type, e.source, e.campaign_id, e.points_awarded,
			e.session_id, e.occurred_at, e.metadata, j.depth + 1
		FROM events e JOIN journey j ON e.event_id = j.previous_event_id
	)
	SELECT ` + selectColumns + ` FROM journey ORDER BY depth
	`

	rows, err := r.client.Pool().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journey for %s: %w", eventID, err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan journey for %s: %w", eventID, err)
	}
	if len(events) == 0 {
		return nil, repository.ErrEventNotFound
	}
	return events, nil
}

// ListByClient returns a client's most recent events.
func (r *Repository) ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.TrackedEvent, error) {
	rows, err := r.client.Pool().Query(ctx,
		"SELECT"+selectColumns+"FROM events WHERE client_id = $1 ORDER BY occurred_at DESC LIMIT $2",
		clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for client %s: %w", clientID, err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan events for client %s: %w", clientID, err)
	}
	return events, nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Pool().Ping(ctx)
}

// Close closes the underlying connection pool.
func (r *Repository) Close() {
	r.client.Close()
}

func scanEvent(row pgx.Row) (*domain.TrackedEvent, error) {
	var (
		event      domain.TrackedEvent
		userID     *string
		entityID   *string
		source     *string
		campaignID *string
		sessionID  *string
		occurredAt time.Time
	)

	err := row.Scan(
		&event.EventID,
		&event.ClientID,
		&event.PreviousEventID,
		&userID,
		&entityID,
		&event.EntityType,
		&event.EventType,
		&source,
		&campaignID,
		&event.PointsAwarded,
		&sessionID,
		&occurredAt,
		&event.Metadata,
	)
	if err != nil {
		return nil, err
	}

	event.UserID = deref(userID)
	event.EntityID = deref(entityID)
	event.Source = deref(source)
	event.CampaignID = deref(campaignID)
	event.SessionID = deref(sessionID)
	event.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)

	return &event, nil
}

func scanEvents(rows pgx.Rows) ([]*domain.TrackedEvent, error) {
	var events []*domain.TrackedEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
