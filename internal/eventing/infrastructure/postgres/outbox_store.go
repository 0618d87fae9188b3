package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"parking-cloud/internal/eventing"
)

const defaultOutboxTable = "tariff_event_outbox"

const (
	statusPending = "pending"
	statusSent    = "sent"
	statusFailed  = "failed"
)

// OutboxStore records tariff event envelopes and their delivery outcome.
type OutboxStore struct {
	db    *sql.DB
	table string
}

// OutboxOption configures the outbox store.
type OutboxOption func(*OutboxStore)

// WithOutboxTable overrides the table name.
func WithOutboxTable(table string) OutboxOption {
	return func(store *OutboxStore) {
		if table != "" {
			store.table = table
		}
	}
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore(db *sql.DB, opts ...OutboxOption) *OutboxStore {
	store := &OutboxStore{db: db, table: defaultOutboxTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Insert stores env as pending and returns the outbox row id.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("outbox store: nil db")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("outbox store: encode %s: %w", env.EventType, err)
	}
	id := eventing.NewEventID()
	query := fmt.Sprintf(`
INSERT INTO %s (id, event_id, event_type, tenant_id, lot_id, payload, status, attempts, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)`, s.table)
	if _, err := s.db.ExecContext(ctx, query,
		id, env.EventID, env.EventType, env.TenantID, env.LotID, payload, statusPending, env.OccurredAt,
	); err != nil {
		return "", fmt.Errorf("outbox store: insert %s: %w", env.EventType, err)
	}
	return id, nil
}

// MarkSent records a delivery in which every subscriber succeeded.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.mark(ctx, id, statusSent, "sent_at")
}

// MarkFailed records a delivery in which a subscriber failed.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	return s.mark(ctx, id, statusFailed, "failed_at")
}

func (s *OutboxStore) mark(ctx context.Context, id, status, stampColumn string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET status = $2, attempts = attempts + 1, %s = $3
WHERE id = $1`, s.table, stampColumn)
	res, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("outbox store: mark %s %s: %w", id, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("outbox store: record %s not found", id)
	}
	return nil
}
