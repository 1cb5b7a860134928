package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/health-portal/internal/persistence"
)

// snapshotSlot is the fixed key under which the single identity record lives.
const snapshotSlot = "current_identity"

// SnapshotStore implements persistence.SnapshotStore over a single-slot
// key-value table. Last writer wins when multiple processes share the file.
type SnapshotStore struct {
	storage *Storage
}

// NewSnapshotStore creates a snapshot store backed by the given storage.
func NewSnapshotStore(storage *Storage) *SnapshotStore {
	return &SnapshotStore{storage: storage}
}

type snapshotPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SaveSnapshot serializes the identity into the fixed slot, replacing any
// previous record.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, identity persistence.Identity) error {
	payload, err := json.Marshal(snapshotPayload{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
	})
	if err != nil {
		return fmt.Errorf("encode identity snapshot: %w", err)
	}

	const query = `
		INSERT INTO identity_snapshot (slot, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	_, err = s.storage.DB().ExecContext(ctx, query, snapshotSlot, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

// LoadSnapshot reads the persisted identity. A missing slot reports
// persistence.ErrNotFound; an undecodable payload reports
// persistence.ErrCorrupt so callers can discard it.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (persistence.Identity, error) {
	const query = `SELECT payload FROM identity_snapshot WHERE slot = ?`

	var raw string
	err := s.storage.DB().QueryRowContext(ctx, query, snapshotSlot).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Identity{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Identity{}, err
	}

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return persistence.Identity{}, fmt.Errorf("%w: %v", persistence.ErrCorrupt, err)
	}
	if payload.ID == "" {
		return persistence.Identity{}, persistence.ErrCorrupt
	}

	return persistence.Identity{
		ID:    payload.ID,
		Name:  payload.Name,
		Email: payload.Email,
		Role:  payload.Role,
	}, nil
}

// ClearSnapshot removes the persisted identity. Clearing an empty slot is
// not an error.
func (s *SnapshotStore) ClearSnapshot(ctx context.Context) error {
	const query = `DELETE FROM identity_snapshot WHERE slot = ?`
	_, err := s.storage.DB().ExecContext(ctx, query, snapshotSlot)
	return err
}
