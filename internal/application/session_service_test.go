package application

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testHashSecret(secret string) (string, error) {
	return "hashed:" + secret, nil
}

func testVerifySecret(encodedHash, secret string) error {
	if encodedHash != "hashed:"+secret {
		return ErrInvalidCredentials
	}
	return nil
}

type directoryStoreStub struct {
	entries   map[string]DirectoryEntry
	created   []DirectoryEntry
	createErr error
	getErr    error
}

func newDirectoryStoreStub(entries ...DirectoryEntry) *directoryStoreStub {
	stub := &directoryStoreStub{entries: make(map[string]DirectoryEntry)}
	for _, entry := range entries {
		stub.entries[strings.ToLower(entry.Identity.Email)] = entry
	}
	return stub
}

func (s *directoryStoreStub) CreateEntry(ctx context.Context, entry DirectoryEntry) (DirectoryEntry, error) {
	if s.createErr != nil {
		return DirectoryEntry{}, s.createErr
	}
	if _, exists := s.entries[strings.ToLower(entry.Identity.Email)]; exists {
		return DirectoryEntry{}, ErrAlreadyExists
	}
	if entry.Identity.ID == "" {
		entry.Identity.ID = "generated-id"
	}
	s.entries[strings.ToLower(entry.Identity.Email)] = entry
	s.created = append(s.created, entry)
	return entry, nil
}

func (s *directoryStoreStub) GetEntryByEmail(ctx context.Context, email string) (DirectoryEntry, error) {
	if s.getErr != nil {
		return DirectoryEntry{}, s.getErr
	}
	entry, ok := s.entries[strings.ToLower(email)]
	if !ok {
		return DirectoryEntry{}, ErrNotFound
	}
	return entry, nil
}

type snapshotStoreStub struct {
	saved      *Identity
	loaded     *Identity
	saveErr    error
	loadErr    error
	clearErr   error
	clearCalls int
}

func (s *snapshotStoreStub) SaveSnapshot(ctx context.Context, identity Identity) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &identity
	return nil
}

func (s *snapshotStoreStub) LoadSnapshot(ctx context.Context) (Identity, error) {
	if s.loadErr != nil {
		return Identity{}, s.loadErr
	}
	if s.loaded == nil {
		return Identity{}, ErrNotFound
	}
	return *s.loaded, nil
}

func (s *snapshotStoreStub) ClearSnapshot(ctx context.Context) error {
	s.clearCalls++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.saved = nil
	s.loaded = nil
	return nil
}

func patientEntry() DirectoryEntry {
	return DirectoryEntry{
		Identity: Identity{
			ID:    "p1",
			Name:  "John Doe",
			Email: "patient@example.com",
			Role:  RolePatient,
		},
		SecretHash: "hashed:password123",
	}
}

func TestSessionService_Login(t *testing.T) {
	t.Parallel()

	t.Run("establishes the current identity for valid credentials", func(t *testing.T) {
		t.Parallel()

		directory := newDirectoryStoreStub(patientEntry())
		snapshots := &snapshotStoreStub{}
		svc := NewSessionService(directory, snapshots, testHashSecret, testVerifySecret)

		identity, err := svc.Login(context.Background(), LoginParams{Email: " Patient@Example.com ", Secret: "password123"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if identity.ID != "p1" {
			t.Fatalf("expected identity p1, got %s", identity.ID)
		}

		current, ok := svc.Current(context.Background())
		if !ok || current.ID != "p1" {
			t.Fatalf("expected current identity p1, got %#v ok=%v", current, ok)
		}
		if snapshots.saved == nil || snapshots.saved.ID != "p1" {
			t.Fatalf("expected snapshot to be persisted, got %#v", snapshots.saved)
		}
	})

	t.Run("reports not found for an unknown email", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newDirectoryStoreStub(), nil, testHashSecret, testVerifySecret)

		_, err := svc.Login(context.Background(), LoginParams{Email: "nobody@example.com", Secret: "whatever"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, ok := svc.Current(context.Background()); ok {
			t.Fatalf("expected no current identity after failed login")
		}
	})

	t.Run("rejects a wrong secret without touching the session", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newDirectoryStoreStub(patientEntry()), nil, testHashSecret, testVerifySecret)

		_, err := svc.Login(context.Background(), LoginParams{Email: "patient@example.com", Secret: "PASSWORD123"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for case mismatch, got %v", err)
		}
		if _, ok := svc.Current(context.Background()); ok {
			t.Fatalf("expected no current identity after failed login")
		}
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newDirectoryStoreStub(patientEntry()), nil, testHashSecret, testVerifySecret)

		if _, err := svc.Login(context.Background(), LoginParams{Email: "", Secret: "x"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for empty email, got %v", err)
		}
		if _, err := svc.Login(context.Background(), LoginParams{Email: "patient@example.com", Secret: ""}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for empty secret, got %v", err)
		}
	})

	t.Run("keeps the session when snapshot persistence fails", func(t *testing.T) {
		t.Parallel()

		snapshots := &snapshotStoreStub{saveErr: errors.New("disk full")}
		svc := NewSessionService(newDirectoryStoreStub(patientEntry()), snapshots, testHashSecret, testVerifySecret)

		if _, err := svc.Login(context.Background(), LoginParams{Email: "patient@example.com", Secret: "password123"}); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if _, ok := svc.Current(context.Background()); !ok {
			t.Fatalf("expected session despite snapshot failure")
		}
	})
}

func TestSessionService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates an entry and signs it in", func(t *testing.T) {
		t.Parallel()

		directory := newDirectoryStoreStub()
		snapshots := &snapshotStoreStub{}
		svc := NewSessionService(directory, snapshots, testHashSecret, testVerifySecret)

		identity, err := svc.Register(context.Background(), RegisterParams{
			Name:   " Jane Roe ",
			Email:  "Jane@Example.com",
			Secret: "s3cret",
			Role:   RolePatient,
		})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if identity.Name != "Jane Roe" || identity.Email != "jane@example.com" {
			t.Fatalf("expected normalized identity, got %#v", identity)
		}

		if len(directory.created) != 1 {
			t.Fatalf("expected one created entry, got %d", len(directory.created))
		}
		if got := directory.created[0].SecretHash; got != "hashed:s3cret" {
			t.Fatalf("expected hashed secret to be stored, got %q", got)
		}
		if current, ok := svc.Current(context.Background()); !ok || current.Email != "jane@example.com" {
			t.Fatalf("expected registered identity to be signed in, got %#v ok=%v", current, ok)
		}
		if snapshots.saved == nil {
			t.Fatalf("expected snapshot to be persisted")
		}
	})

	t.Run("collects field errors for invalid input", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newDirectoryStoreStub(), nil, testHashSecret, testVerifySecret)

		_, err := svc.Register(context.Background(), RegisterParams{Email: "not-an-email", Role: "admin"})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "email", "secret", "role"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected field error for %s, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("surfaces duplicate emails", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newDirectoryStoreStub(patientEntry()), nil, testHashSecret, testVerifySecret)

		_, err := svc.Register(context.Background(), RegisterParams{
			Name:   "Dup",
			Email:  "patient@example.com",
			Secret: "x",
			Role:   RolePatient,
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if _, ok := svc.Current(context.Background()); ok {
			t.Fatalf("expected no session after failed registration")
		}
	})
}

func TestSessionService_Logout(t *testing.T) {
	t.Parallel()

	t.Run("clears the session and the snapshot", func(t *testing.T) {
		t.Parallel()

		snapshots := &snapshotStoreStub{}
		svc := NewSessionService(newDirectoryStoreStub(patientEntry()), snapshots, testHashSecret, testVerifySecret)

		if _, err := svc.Login(context.Background(), LoginParams{Email: "patient@example.com", Secret: "password123"}); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		svc.Logout(context.Background())

		if _, ok := svc.Current(context.Background()); ok {
			t.Fatalf("expected no current identity after logout")
		}
		if snapshots.clearCalls != 1 {
			t.Fatalf("expected one snapshot clear, got %d", snapshots.clearCalls)
		}
	})

	t.Run("swallows snapshot cleanup failures", func(t *testing.T) {
		t.Parallel()

		snapshots := &snapshotStoreStub{clearErr: errors.New("io error")}
		svc := NewSessionService(newDirectoryStoreStub(patientEntry()), snapshots, testHashSecret, testVerifySecret)

		if _, err := svc.Login(context.Background(), LoginParams{Email: "patient@example.com", Secret: "password123"}); err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		svc.Logout(context.Background())
		if _, ok := svc.Current(context.Background()); ok {
			t.Fatalf("expected session to be cleared even when snapshot cleanup fails")
		}
	})
}

func TestSessionService_Restore(t *testing.T) {
	t.Parallel()

	t.Run("restores the persisted identity", func(t *testing.T) {
		t.Parallel()

		identity := patientEntry().Identity
		snapshots := &snapshotStoreStub{loaded: &identity}
		svc := NewSessionService(newDirectoryStoreStub(), snapshots, testHashSecret, testVerifySecret)

		if err := svc.Restore(context.Background()); err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if current, ok := svc.Current(context.Background()); !ok || current.ID != "p1" {
			t.Fatalf("expected restored identity p1, got %#v ok=%v", current, ok)
		}
	})

	t.Run("treats a missing snapshot as signed out", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newDirectoryStoreStub(), &snapshotStoreStub{}, testHashSecret, testVerifySecret)

		if err := svc.Restore(context.Background()); err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if _, ok := svc.Current(context.Background()); ok {
			t.Fatalf("expected no identity after restoring empty snapshot")
		}
	})

	t.Run("discards a corrupt snapshot", func(t *testing.T) {
		t.Parallel()

		snapshots := &snapshotStoreStub{loadErr: ErrCorruptSnapshot}
		svc := NewSessionService(newDirectoryStoreStub(), snapshots, testHashSecret, testVerifySecret)

		if err := svc.Restore(context.Background()); err != nil {
			t.Fatalf("expected corrupt snapshot to be suppressed, got %v", err)
		}
		if snapshots.clearCalls != 1 {
			t.Fatalf("expected corrupt snapshot to be cleared, got %d calls", snapshots.clearCalls)
		}
		if _, ok := svc.Current(context.Background()); ok {
			t.Fatalf("expected no identity after discarding corrupt snapshot")
		}
	})

	t.Run("propagates unexpected load failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("db locked")
		snapshots := &snapshotStoreStub{loadErr: expected}
		svc := NewSessionService(newDirectoryStoreStub(), snapshots, testHashSecret, testVerifySecret)

		if err := svc.Restore(context.Background()); !errors.Is(err, expected) {
			t.Fatalf("expected load error to propagate, got %v", err)
		}
	})
}
