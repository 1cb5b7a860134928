package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type recordStoreStub struct {
	entries   []RecordEntry
	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error

	nextID int
}

func (s *recordStoreStub) CreateRecord(ctx context.Context, entry RecordEntry) (RecordEntry, error) {
	if s.createErr != nil {
		return RecordEntry{}, s.createErr
	}
	s.nextID++
	entry.Record.ID = fmt.Sprintf("r%d", s.nextID)
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *recordStoreStub) GetRecord(ctx context.Context, id string) (RecordEntry, error) {
	if s.getErr != nil {
		return RecordEntry{}, s.getErr
	}
	for _, entry := range s.entries {
		if entry.Record.ID == id {
			return entry, nil
		}
	}
	return RecordEntry{}, ErrNotFound
}

func (s *recordStoreStub) UpdateRecord(ctx context.Context, entry RecordEntry) (RecordEntry, error) {
	if s.updateErr != nil {
		return RecordEntry{}, s.updateErr
	}
	for i, existing := range s.entries {
		if existing.Record.ID == entry.Record.ID {
			s.entries[i] = entry
			return entry, nil
		}
	}
	return RecordEntry{}, ErrNotFound
}

func (s *recordStoreStub) DeleteRecord(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, existing := range s.entries {
		if existing.Record.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *recordStoreStub) ListRecordsForPatient(ctx context.Context, patientID string) ([]RecordEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]RecordEntry, 0)
	for _, entry := range s.entries {
		if entry.Record.PatientID == patientID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func seededRecordStore() *recordStoreStub {
	return &recordStoreStub{
		nextID: 1,
		entries: []RecordEntry{{
			Record: MedicalRecord{
				ID:          "r1",
				PatientID:   "p1",
				Title:       "Annual Physical Examination",
				Date:        "2025-02-15",
				Description: "Patient is in good health.",
				AuthorName:  "Dr. Emily Smith",
			},
			AccessSecretHash: "hashed:health123",
		}},
	}
}

func newTestRecordsService(store RecordStore, cfg RecordsServiceConfig) *RecordsService {
	return NewRecordsService(store, testHashSecret, testVerifySecret, cfg)
}

func validRecordInput() RecordInput {
	return RecordInput{
		PatientID:    "p1",
		Title:        "Flu Treatment",
		Date:         "2025-01-10",
		Description:  "Diagnosed with influenza A.",
		AuthorName:   "Dr. Sarah Johnson",
		AccessSecret: "flu456",
	}
}

func TestRecordsService_AddRecord(t *testing.T) {
	t.Parallel()

	t.Run("hashes the access secret and stores the record", func(t *testing.T) {
		t.Parallel()

		store := &recordStoreStub{}
		svc := newTestRecordsService(store, RecordsServiceConfig{})

		record, err := svc.AddRecord(context.Background(), validRecordInput())
		if err != nil {
			t.Fatalf("AddRecord failed: %v", err)
		}
		if record.ID != "r1" {
			t.Fatalf("expected store assigned id r1, got %s", record.ID)
		}
		if got := store.entries[0].AccessSecretHash; got != "hashed:flu456" {
			t.Fatalf("expected hashed access secret, got %q", got)
		}
	})

	t.Run("collects field errors for incomplete input", func(t *testing.T) {
		t.Parallel()

		store := &recordStoreStub{}
		svc := newTestRecordsService(store, RecordsServiceConfig{})

		_, err := svc.AddRecord(context.Background(), RecordInput{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"patientId", "title", "date", "description", "authorName", "accessSecret"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected field error for %s, got %#v", field, vErr.FieldErrors)
			}
		}
		if len(store.entries) != 0 {
			t.Fatalf("expected nothing stored after validation failure")
		}
	})
}

func TestRecordsService_ListRecords(t *testing.T) {
	t.Parallel()

	t.Run("withholds descriptions until unlocked", func(t *testing.T) {
		t.Parallel()

		svc := newTestRecordsService(seededRecordStore(), RecordsServiceConfig{})

		records, err := svc.ListRecords(context.Background(), "p1", "viewer")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected one record, got %d", len(records))
		}
		if records[0].Description != "" || !records[0].Locked {
			t.Fatalf("expected locked record with blank description, got %#v", records[0])
		}
		if records[0].Title != "Annual Physical Examination" {
			t.Fatalf("expected metadata to stay visible, got %#v", records[0])
		}
	})

	t.Run("scopes unlocks to the granting viewer", func(t *testing.T) {
		t.Parallel()

		svc := newTestRecordsService(seededRecordStore(), RecordsServiceConfig{})

		ok, err := svc.CheckAccessSecret(context.Background(), "r1", "alice", "health123")
		if err != nil || !ok {
			t.Fatalf("expected unlock to succeed, got ok=%v err=%v", ok, err)
		}

		unlocked, err := svc.ListRecords(context.Background(), "p1", "alice")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if unlocked[0].Locked || unlocked[0].Description == "" {
			t.Fatalf("expected alice to see the description, got %#v", unlocked[0])
		}

		other, err := svc.ListRecords(context.Background(), "p1", "bob")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if !other[0].Locked || other[0].Description != "" {
			t.Fatalf("expected bob to stay locked out, got %#v", other[0])
		}
	})

	t.Run("expires unlocks after the TTL", func(t *testing.T) {
		t.Parallel()

		current := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
		svc := newTestRecordsService(seededRecordStore(), RecordsServiceConfig{
			UnlockTTL: time.Minute,
			Now:       func() time.Time { return current },
		})

		if ok, err := svc.CheckAccessSecret(context.Background(), "r1", "alice", "health123"); err != nil || !ok {
			t.Fatalf("expected unlock to succeed, got ok=%v err=%v", ok, err)
		}

		current = current.Add(2 * time.Minute)

		records, err := svc.ListRecords(context.Background(), "p1", "alice")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if !records[0].Locked {
			t.Fatalf("expected unlock to expire, got %#v", records[0])
		}
	})
}

func TestRecordsService_CheckAccessSecret(t *testing.T) {
	t.Parallel()

	t.Run("rejects a mismatching secret", func(t *testing.T) {
		t.Parallel()

		svc := newTestRecordsService(seededRecordStore(), RecordsServiceConfig{})

		ok, err := svc.CheckAccessSecret(context.Background(), "r1", "alice", "HEALTH123")
		if err != nil {
			t.Fatalf("CheckAccessSecret failed: %v", err)
		}
		if ok {
			t.Fatalf("expected case mismatch to be rejected")
		}
	})

	t.Run("treats unknown records like mismatches", func(t *testing.T) {
		t.Parallel()

		svc := newTestRecordsService(&recordStoreStub{}, RecordsServiceConfig{})

		ok, err := svc.CheckAccessSecret(context.Background(), "missing", "alice", "whatever")
		if err != nil {
			t.Fatalf("CheckAccessSecret failed: %v", err)
		}
		if ok {
			t.Fatalf("expected unknown record to report false")
		}
	})

	t.Run("propagates unexpected store failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("backend down")
		svc := newTestRecordsService(&recordStoreStub{getErr: expected}, RecordsServiceConfig{})

		if _, err := svc.CheckAccessSecret(context.Background(), "r1", "alice", "x"); !errors.Is(err, expected) {
			t.Fatalf("expected store error to propagate, got %v", err)
		}
	})
}

func TestRecordsService_UpdateRecord(t *testing.T) {
	t.Parallel()

	t.Run("merges non-empty fields", func(t *testing.T) {
		t.Parallel()

		store := seededRecordStore()
		svc := newTestRecordsService(store, RecordsServiceConfig{})

		record, err := svc.UpdateRecord(context.Background(), "r1", RecordUpdate{Title: "Updated Title"})
		if err != nil {
			t.Fatalf("UpdateRecord failed: %v", err)
		}
		if record.Title != "Updated Title" {
			t.Fatalf("expected new title, got %q", record.Title)
		}
		if record.Description != "Patient is in good health." {
			t.Fatalf("expected untouched description, got %q", record.Description)
		}
		if store.entries[0].AccessSecretHash != "hashed:health123" {
			t.Fatalf("expected secret hash to survive, got %q", store.entries[0].AccessSecretHash)
		}
	})

	t.Run("rotating the access secret revokes unlocks", func(t *testing.T) {
		t.Parallel()

		store := seededRecordStore()
		svc := newTestRecordsService(store, RecordsServiceConfig{})

		if ok, err := svc.CheckAccessSecret(context.Background(), "r1", "alice", "health123"); err != nil || !ok {
			t.Fatalf("expected unlock to succeed, got ok=%v err=%v", ok, err)
		}

		if _, err := svc.UpdateRecord(context.Background(), "r1", RecordUpdate{AccessSecret: "newsecret"}); err != nil {
			t.Fatalf("UpdateRecord failed: %v", err)
		}

		records, err := svc.ListRecords(context.Background(), "p1", "alice")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if !records[0].Locked {
			t.Fatalf("expected unlock to be revoked after secret rotation")
		}
		if store.entries[0].AccessSecretHash != "hashed:newsecret" {
			t.Fatalf("expected rotated hash, got %q", store.entries[0].AccessSecretHash)
		}
	})

	t.Run("reports unknown records", func(t *testing.T) {
		t.Parallel()

		svc := newTestRecordsService(&recordStoreStub{}, RecordsServiceConfig{})

		if _, err := svc.UpdateRecord(context.Background(), "missing", RecordUpdate{Title: "x"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRecordsService_DeleteRecord(t *testing.T) {
	t.Parallel()

	t.Run("removes the record and its unlocks", func(t *testing.T) {
		t.Parallel()

		store := seededRecordStore()
		svc := newTestRecordsService(store, RecordsServiceConfig{})

		if ok, err := svc.CheckAccessSecret(context.Background(), "r1", "alice", "health123"); err != nil || !ok {
			t.Fatalf("expected unlock to succeed, got ok=%v err=%v", ok, err)
		}

		if err := svc.DeleteRecord(context.Background(), "r1"); err != nil {
			t.Fatalf("DeleteRecord failed: %v", err)
		}
		if len(store.entries) != 0 {
			t.Fatalf("expected record to be removed")
		}
	})

	t.Run("ignores unknown ids", func(t *testing.T) {
		t.Parallel()

		svc := newTestRecordsService(&recordStoreStub{}, RecordsServiceConfig{})

		if err := svc.DeleteRecord(context.Background(), "missing"); err != nil {
			t.Fatalf("expected unknown delete to be a no-op, got %v", err)
		}
	})
}
