package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/health-portal/internal/persistence"
	"github.com/example/health-portal/internal/testfixtures"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	identity := persistence.Identity{ID: "p1", Name: "John Doe", Email: "patient@example.com", Role: "patient"}
	if err := harness.Snapshots.SaveSnapshot(ctx, identity); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := harness.Snapshots.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded != identity {
		t.Fatalf("expected %#v, got %#v", identity, loaded)
	}
}

func TestSnapshotStore_LastWriterWins(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	first := persistence.Identity{ID: "p1", Name: "John Doe", Email: "patient@example.com", Role: "patient"}
	second := persistence.Identity{ID: "d1", Name: "Dr. Smith", Email: "doctor@example.com", Role: "doctor"}

	if err := harness.Snapshots.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := harness.Snapshots.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := harness.Snapshots.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.ID != "d1" {
		t.Fatalf("expected the second identity to win, got %#v", loaded)
	}
}

func TestSnapshotStore_MissingSlot(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)

	_, err := harness.Snapshots.LoadSnapshot(context.Background())
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty slot, got %v", err)
	}
}

func TestSnapshotStore_CorruptPayload(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		payload string
	}{
		{"unparsable json", "{not json"},
		{"missing identity id", `{"name":"ghost"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			const insert = `
				INSERT INTO identity_snapshot (slot, payload, updated_at)
				VALUES ('current_identity', ?, '2025-06-01T09:00:00Z')
				ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload
			`
			if _, err := harness.Storage.DB().ExecContext(ctx, insert, tc.payload); err != nil {
				t.Fatalf("failed to plant corrupt payload: %v", err)
			}

			_, err := harness.Snapshots.LoadSnapshot(ctx)
			if !errors.Is(err, persistence.ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestSnapshotStore_Clear(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	if err := harness.Snapshots.ClearSnapshot(ctx); err != nil {
		t.Fatalf("expected clearing an empty slot to succeed, got %v", err)
	}

	if err := harness.Snapshots.SaveSnapshot(ctx, persistence.Identity{ID: "p1"}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := harness.Snapshots.ClearSnapshot(ctx); err != nil {
		t.Fatalf("ClearSnapshot failed: %v", err)
	}
	if _, err := harness.Snapshots.LoadSnapshot(ctx); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}
