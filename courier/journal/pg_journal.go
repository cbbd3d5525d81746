// Package journal persists published lifecycle events to Postgres so a
// saga's full history can be inspected after the fact. It is an optional
// sink behind the publisher's Recorder seam; recording failures never
// block event delivery.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/publisher"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	Position       int64
	TrackingNumber uuid.UUID
	Kind           contracts.Events
	Payload        map[string]any
	CreatedAt      time.Time
}

// PgJournal records events into a single append-only table.
type PgJournal struct {
	pool  *pgxpool.Pool
	table string
}

var _ publisher.Recorder = (*PgJournal)(nil)

// NewJournal creates a journal over the given pool. An empty table name
// defaults to routing_slip_events.
func NewJournal(pool *pgxpool.Pool, table string) *PgJournal {
	if table == "" {
		table = "routing_slip_events"
	}
	return &PgJournal{pool: pool, table: table}
}

// Setup creates the journal table and its indexes if they do not exist.
func (j *PgJournal) Setup(ctx context.Context) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			"position" BIGSERIAL PRIMARY KEY,
			"tracking_number" UUID NOT NULL,
			"kind" VARCHAR(64) NOT NULL,
			"payload" JSONB NOT NULL,
			"created_at" TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, j.table)

	if _, err := j.pool.Exec(ctx, sql); err != nil {
		return errors.Wrap(err, "journal: create table")
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_tracking_number_idx ON %s ("tracking_number")`, j.table, j.table)
	if _, err := j.pool.Exec(ctx, index); err != nil {
		return errors.Wrap(err, "journal: create index")
	}
	return nil
}

// Record appends one event. Implements the publisher's Recorder.
func (j *PgJournal) Record(ctx context.Context, kind contracts.Events, trackingNumber uuid.UUID, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "journal: marshal payload")
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (tracking_number, kind, payload)
		VALUES ($1, $2, $3)
	`, j.table)

	_, err = j.pool.Exec(ctx, sql, trackingNumber, kind.String(), body)
	return errors.Wrap(err, "journal: insert event")
}

// Entries returns every recorded event for a slip in insertion order.
func (j *PgJournal) Entries(ctx context.Context, trackingNumber uuid.UUID) ([]Entry, error) {
	sql := fmt.Sprintf(`
		SELECT "position", tracking_number, kind, payload, created_at
		FROM %s
		WHERE tracking_number = $1
		ORDER BY "position" ASC
	`, j.table)

	rows, err := j.pool.Query(ctx, sql, trackingNumber)
	if err != nil {
		return nil, errors.Wrap(err, "journal: query events")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var kind string
		var payload []byte
		if err := rows.Scan(&entry.Position, &entry.TrackingNumber, &kind, &payload, &entry.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "journal: scan event")
		}
		entry.Kind = kindFromString(kind)
		if err := json.Unmarshal(payload, &entry.Payload); err != nil {
			return nil, errors.Wrap(err, "journal: unmarshal payload")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Cleanup drops the journal table. Intended for tests.
func (j *PgJournal) Cleanup(ctx context.Context) error {
	_, err := j.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, j.table))
	return errors.Wrap(err, "journal: drop table")
}

func kindFromString(name string) contracts.Events {
	kinds := []contracts.Events{
		contracts.EventCompleted,
		contracts.EventFaulted,
		contracts.EventCompensationFailed,
		contracts.EventActivityCompleted,
		contracts.EventActivityFaulted,
		contracts.EventActivityCompensated,
		contracts.EventActivityCompensationFailed,
	}
	for _, kind := range kinds {
		if kind.String() == name {
			return kind
		}
	}
	return contracts.EventsAll
}
