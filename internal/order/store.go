package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists order snapshots.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Get(ctx context.Context, id uuid.UUID) (*Snapshot, error)
}

// PGStore keeps snapshots in the order_snapshots table as JSONB documents with
// the money columns duplicated for reporting.
type PGStore struct {
	Pool *pgxpool.Pool
}

const upsertSnapshotSQL = `
INSERT INTO order_snapshots (id, status, payload, total_price, cost_total, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	payload = EXCLUDED.payload,
	total_price = EXCLUDED.total_price,
	cost_total = EXCLUDED.cost_total,
	updated_at = EXCLUDED.updated_at`

const selectSnapshotSQL = `SELECT payload FROM order_snapshots WHERE id = $1`

// Save inserts or replaces a snapshot.
func (s *PGStore) Save(ctx context.Context, snap *Snapshot) error {
	if s == nil || s.Pool == nil {
		return errors.New("order store not configured")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	total := pgtype.Int8{}
	if snap.TotalPrice != nil {
		total = pgtype.Int8{Int64: *snap.TotalPrice, Valid: true}
	}
	_, err = s.Pool.Exec(ctx, upsertSnapshotSQL,
		pgtype.UUID{Bytes: snap.ID, Valid: true},
		string(snap.Status),
		payload,
		total,
		snap.CostTotal,
		snap.CreatedAt,
		snap.UpdatedAt,
	)
	return err
}

// Get loads a snapshot by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("order store not configured")
	}
	var payload []byte
	err := s.Pool.QueryRow(ctx, selectSnapshotSQL, pgtype.UUID{Bytes: id, Valid: true}).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
