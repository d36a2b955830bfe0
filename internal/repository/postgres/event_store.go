package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type eventStore struct {
	db *sql.DB
}

// NewEventStore creates a new EventStore backed by Postgres.
func NewEventStore(db *sql.DB) repository.EventStore {
	return &eventStore{db: db}
}

// SaveEvents appends events to one storefront stream: "inventory-<slug>" for a
// product's stock ledger or "order-<id>" for an order's lifecycle. Stock
// commits and restocks for the same product race on the inventory stream, so
// a stale expectedVersion, or losing the (stream_id, version) index to a
// concurrent writer, yields repository.ErrConcurrency and the caller reloads
// and retries.
func (s *eventStore) SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM events WHERE stream_id = $1", streamID).Scan(&currentVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to get current stream version: %w", err)
	}

	if currentVersion != expectedVersion {
		return fmt.Errorf("%w: expected version %d, got %d", repository.ErrConcurrency, expectedVersion, currentVersion)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO events (id, stream_id, stream_type, version, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	version := expectedVersion
	now := time.Now()

	for _, event := range events {
		version++

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}

		_, err = stmt.ExecContext(ctx, uuid.NewString(), streamID, streamType, version, event.EventType(), payload, now)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: version %d of %s already written", repository.ErrConcurrency, version, streamID)
			}
			return fmt.Errorf("failed to insert event %s: %w", event.EventType(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadEvents returns a stream's events oldest first. An unknown stream yields
// no records and no error.
func (s *eventStore) LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, stream_id, stream_type, version, event_type, payload, created_at FROM events WHERE stream_id = $1 ORDER BY version ASC", streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for stream %s: %w", streamID, err)
	}
	defer rows.Close()

	var events []entity.EventStoreRecord
	for rows.Next() {
		var record entity.EventStoreRecord
		if err := rows.Scan(&record.ID, &record.StreamID, &record.StreamType, &record.Version, &record.EventType, &record.Payload, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		events = append(events, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}
