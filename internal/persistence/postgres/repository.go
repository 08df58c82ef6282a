// Package postgres provides pgx-backed persistence for routines, sessions,
// and history queries, plus transactional outbox recording.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides Postgres-backed persistence for the workout service.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// encodeList serialises a string list to its JSON text column form.
// nil encodes as "[]" so columns never hold SQL null.
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeList parses a JSON text column back into a string list.
func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode list column: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	PartitionKeyFn func(userID, aggregateID string) string
}

var eventCatalog = map[string]EventMetadata{
	"session.recorded": {
		Topic: "workout_sessions",
		PartitionKeyFn: func(userID, _ string) string {
			return userID
		},
	},
	"routine.deleted": {
		Topic: "routine_events",
		PartitionKeyFn: func(_, aggregateID string) string {
			return aggregateID
		},
	},
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, userID, aggregateType, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	partitionKey := meta.PartitionKeyFn(userID, aggregateID)
	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}
