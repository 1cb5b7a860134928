package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
)

// DirectoryStore exposes the identity directory operations required by the
// session service.
type DirectoryStore interface {
	CreateEntry(ctx context.Context, entry DirectoryEntry) (DirectoryEntry, error)
	GetEntryByEmail(ctx context.Context, email string) (DirectoryEntry, error)
}

// IdentitySnapshotStore persists the single current-identity record across
// process restarts.
type IdentitySnapshotStore interface {
	SaveSnapshot(ctx context.Context, identity Identity) error
	LoadSnapshot(ctx context.Context) (Identity, error)
	ClearSnapshot(ctx context.Context) error
}

// ErrCorruptSnapshot is reported by snapshot stores when the persisted record
// cannot be decoded. The session service discards such records silently.
var ErrCorruptSnapshot = errors.New("application: corrupt identity snapshot")

// SessionService tracks the single authenticated identity for the life of the
// process and validates credentials against the directory.
type SessionService struct {
	directory    DirectoryStore
	snapshots    IdentitySnapshotStore
	hashSecret   SecretHasher
	verifySecret SecretVerifier
	logger       *slog.Logger

	mu      sync.RWMutex
	current *Identity
}

// NewSessionService constructs a SessionService with the provided dependencies.
func NewSessionService(directory DirectoryStore, snapshots IdentitySnapshotStore, hash SecretHasher, verify SecretVerifier) *SessionService {
	return NewSessionServiceWithLogger(directory, snapshots, hash, verify, nil)
}

// NewSessionServiceWithLogger constructs a SessionService with a specified logger.
func NewSessionServiceWithLogger(directory DirectoryStore, snapshots IdentitySnapshotStore, hash SecretHasher, verify SecretVerifier, logger *slog.Logger) *SessionService {
	if hash == nil {
		hash = HasherWith(DefaultArgon2idParams)
	}
	if verify == nil {
		verify = VerifySecret
	}
	return &SessionService{
		directory:    directory,
		snapshots:    snapshots,
		hashSecret:   hash,
		verifySecret: verify,
		logger:       defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// Login validates credentials and establishes the current identity. It
// returns ErrNotFound when no directory entry matches the email and
// ErrInvalidCredentials when the secret does not verify; neither failure
// touches the current identity.
func (s *SessionService) Login(ctx context.Context, params LoginParams) (identity Identity, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.directory == nil {
		err = fmt.Errorf("directory store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", identity.ID, "role", identity.Role).InfoContext(ctx, "login succeeded")
	}()

	if email == "" || params.Secret == "" {
		err = ErrInvalidCredentials
		return
	}

	var entry DirectoryEntry
	entry, err = s.directory.GetEntryByEmail(ctx, email)
	if err != nil {
		return
	}

	if err = s.verifySecret(entry.SecretHash, params.Secret); err != nil {
		err = ErrInvalidCredentials
		return
	}

	identity = entry.Identity
	s.setCurrent(identity)
	s.persist(ctx, logger, identity)
	return
}

// Register appends a new directory entry and immediately establishes a
// session for it, mirroring Login's persistence behavior. A duplicate email
// yields ErrAlreadyExists and leaves the directory untouched.
func (s *SessionService) Register(ctx context.Context, params RegisterParams) (identity Identity, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.directory == nil {
		err = fmt.Errorf("directory store not configured")
		return
	}

	normalized := normalizeRegisterParams(params)

	logger := s.loggerWith(ctx, "Register", "email", normalized.Email, "role", normalized.Role)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", identity.ID).InfoContext(ctx, "registration succeeded")
	}()

	vErr := validateRegisterParams(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var secretHash string
	secretHash, err = s.hashSecret(params.Secret)
	if err != nil {
		return
	}

	var entry DirectoryEntry
	entry, err = s.directory.CreateEntry(ctx, DirectoryEntry{
		Identity: Identity{
			Name:  normalized.Name,
			Email: normalized.Email,
			Role:  normalized.Role,
		},
		SecretHash: secretHash,
	})
	if err != nil {
		return
	}

	identity = entry.Identity
	s.setCurrent(identity)
	s.persist(ctx, logger, identity)
	return
}

// Logout clears the current identity and the persisted snapshot. It always
// succeeds; snapshot cleanup failures are logged and swallowed.
func (s *SessionService) Logout(ctx context.Context) {
	if s == nil {
		return
	}

	logger := s.loggerWith(ctx, "Logout")

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.ClearSnapshot(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to clear identity snapshot", "error", err)
			return
		}
	}
	logger.InfoContext(ctx, "session cleared")
}

// Current returns the authenticated identity, if any.
func (s *SessionService) Current(ctx context.Context) (Identity, bool) {
	if s == nil {
		return Identity{}, false
	}
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

// Restore loads the persisted identity snapshot at startup. A missing or
// corrupt snapshot leaves no current identity; corrupt payloads are deleted
// and the error suppressed.
func (s *SessionService) Restore(ctx context.Context) error {
	if s == nil || s.snapshots == nil {
		return nil
	}

	logger := s.loggerWith(ctx, "Restore")

	identity, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if errors.Is(err, ErrCorruptSnapshot) {
			logger.WarnContext(ctx, "discarding corrupt identity snapshot", "error", err)
			if clearErr := s.snapshots.ClearSnapshot(ctx); clearErr != nil {
				logger.ErrorContext(ctx, "failed to discard corrupt snapshot", "error", clearErr)
			}
			return nil
		}
		return err
	}

	s.setCurrent(identity)
	logger.With("user_id", identity.ID, "role", identity.Role).InfoContext(ctx, "session restored")
	return nil
}

func (s *SessionService) setCurrent(identity Identity) {
	s.mu.Lock()
	s.current = &identity
	s.mu.Unlock()
}

// persist writes the snapshot on a best effort basis; the in-process session
// stays valid even when the durable store is unavailable.
func (s *SessionService) persist(ctx context.Context, logger *slog.Logger, identity Identity) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SaveSnapshot(ctx, identity); err != nil {
		logger.ErrorContext(ctx, "failed to persist identity snapshot", "error", err)
	}
}

func normalizeRegisterParams(params RegisterParams) RegisterParams {
	return RegisterParams{
		Name:   strings.TrimSpace(params.Name),
		Email:  strings.TrimSpace(strings.ToLower(params.Email)),
		Secret: params.Secret,
		Role:   Role(strings.TrimSpace(strings.ToLower(string(params.Role)))),
	}
}

func validateRegisterParams(params RegisterParams) *ValidationError {
	vErr := &ValidationError{}
	if params.Name == "" {
		vErr.add("name", "name is required")
	}
	if params.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(params.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if params.Secret == "" {
		vErr.add("secret", "secret is required")
	}
	if !params.Role.Valid() {
		vErr.add("role", "role must be patient or doctor")
	}
	return vErr
}
