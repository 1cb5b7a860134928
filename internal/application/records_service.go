package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RecordStore captures the persistence interactions for medical records.
type RecordStore interface {
	CreateRecord(ctx context.Context, entry RecordEntry) (RecordEntry, error)
	GetRecord(ctx context.Context, id string) (RecordEntry, error)
	UpdateRecord(ctx context.Context, entry RecordEntry) (RecordEntry, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecordsForPatient(ctx context.Context, patientID string) ([]RecordEntry, error)
}

// RecordsService owns per-patient record entries. Each record is guarded by
// an independently set access secret; descriptions are withheld until the
// viewer presents the secret.
type RecordsService struct {
	records      RecordStore
	hashSecret   SecretHasher
	verifySecret SecretVerifier
	unlocks      *unlockCache
	logger       *slog.Logger
}

// RecordsServiceConfig tunes optional records service behavior.
type RecordsServiceConfig struct {
	// UnlockTTL bounds how long a successful access-secret check keeps a
	// record readable for the viewer. Zero selects the default.
	UnlockTTL time.Duration
	// MaxUnlockGrants caps the tracked grants. Zero selects the default.
	MaxUnlockGrants int
	// Now overrides the time source, for tests.
	Now func() time.Time
}

// NewRecordsService constructs a RecordsService with the provided dependencies.
func NewRecordsService(records RecordStore, hash SecretHasher, verify SecretVerifier, cfg RecordsServiceConfig) *RecordsService {
	return NewRecordsServiceWithLogger(records, hash, verify, cfg, nil)
}

// NewRecordsServiceWithLogger constructs a RecordsService with a specified logger.
func NewRecordsServiceWithLogger(records RecordStore, hash SecretHasher, verify SecretVerifier, cfg RecordsServiceConfig, logger *slog.Logger) *RecordsService {
	if hash == nil {
		hash = HasherWith(DefaultArgon2idParams)
	}
	if verify == nil {
		verify = VerifySecret
	}
	return &RecordsService{
		records:      records,
		hashSecret:   hash,
		verifySecret: verify,
		unlocks:      newUnlockCache(cfg.UnlockTTL, cfg.MaxUnlockGrants, cfg.Now),
		logger:       defaultLogger(logger),
	}
}

func (s *RecordsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RecordsService", operation, attrs...)
}

// ListRecords returns the patient's records in insertion order. Records the
// viewer has not unlocked carry a blank description and Locked set; the
// stored access-secret hash never leaves the service.
func (s *RecordsService) ListRecords(ctx context.Context, patientID, viewerID string) ([]MedicalRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("RecordsService is nil")
	}
	if s.records == nil {
		return nil, nil
	}

	entries, err := s.records.ListRecordsForPatient(ctx, strings.TrimSpace(patientID))
	if err != nil {
		return nil, err
	}

	out := make([]MedicalRecord, 0, len(entries))
	for _, entry := range entries {
		out = append(out, s.view(entry, viewerID))
	}
	return out, nil
}

// AddRecord validates input, hashes the access secret, and appends a record.
// The store assigns the id.
func (s *RecordsService) AddRecord(ctx context.Context, input RecordInput) (record MedicalRecord, err error) {
	if s == nil {
		err = fmt.Errorf("RecordsService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("record store not configured")
		return
	}

	normalized := normalizeRecordInput(input)

	logger := s.loggerWith(ctx, "AddRecord", "patient_id", normalized.PatientID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "record creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("record_id", record.ID).InfoContext(ctx, "record created")
	}()

	vErr := validateRecordInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var secretHash string
	secretHash, err = s.hashSecret(input.AccessSecret)
	if err != nil {
		return
	}

	var entry RecordEntry
	entry, err = s.records.CreateRecord(ctx, RecordEntry{
		Record: MedicalRecord{
			PatientID:   normalized.PatientID,
			Title:       normalized.Title,
			Date:        normalized.Date,
			Description: normalized.Description,
			AuthorName:  normalized.AuthorName,
		},
		AccessSecretHash: secretHash,
	})
	if err != nil {
		return
	}

	record = entry.Record
	return
}

// UpdateRecord merges the non-empty fields of the update into the stored
// record. Supplying a new access secret rehashes it and revokes every
// outstanding unlock for the record.
func (s *RecordsService) UpdateRecord(ctx context.Context, id string, update RecordUpdate) (MedicalRecord, error) {
	if s == nil {
		return MedicalRecord{}, fmt.Errorf("RecordsService is nil")
	}
	if s.records == nil {
		return MedicalRecord{}, fmt.Errorf("record store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateRecord", "record_id", id)

	entry, err := s.records.GetRecord(ctx, strings.TrimSpace(id))
	if err != nil {
		return MedicalRecord{}, err
	}

	if title := strings.TrimSpace(update.Title); title != "" {
		entry.Record.Title = title
	}
	if date := strings.TrimSpace(update.Date); date != "" {
		entry.Record.Date = date
	}
	if description := strings.TrimSpace(update.Description); description != "" {
		entry.Record.Description = description
	}
	if author := strings.TrimSpace(update.AuthorName); author != "" {
		entry.Record.AuthorName = author
	}
	if update.AccessSecret != "" {
		secretHash, hashErr := s.hashSecret(update.AccessSecret)
		if hashErr != nil {
			return MedicalRecord{}, hashErr
		}
		entry.AccessSecretHash = secretHash
		s.unlocks.RevokeRecord(entry.Record.ID)
	}

	updated, err := s.records.UpdateRecord(ctx, entry)
	if err != nil {
		logger.ErrorContext(ctx, "record update failed", "error", err, "error_kind", ErrorKind(err))
		return MedicalRecord{}, err
	}

	logger.InfoContext(ctx, "record updated")
	return updated.Record, nil
}

// DeleteRecord removes the record and any outstanding unlock grants. An
// unknown id is a silent no-op.
func (s *RecordsService) DeleteRecord(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("RecordsService is nil")
	}
	if s.records == nil {
		return fmt.Errorf("record store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRecord", "record_id", id)

	trimmed := strings.TrimSpace(id)
	if err := s.records.DeleteRecord(ctx, trimmed); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "delete ignored for unknown record")
			return nil
		}
		return err
	}

	s.unlocks.RevokeRecord(trimmed)
	logger.InfoContext(ctx, "record deleted")
	return nil
}

// CheckAccessSecret reports whether the candidate matches the record's
// stored access secret exactly. Success grants the viewer a TTL-bounded
// unlock so subsequent listings include the description. Unknown records
// and mismatches both report false without distinguishing themselves.
func (s *RecordsService) CheckAccessSecret(ctx context.Context, recordID, viewerID, candidate string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("RecordsService is nil")
	}
	if s.records == nil {
		return false, fmt.Errorf("record store not configured")
	}

	logger := s.loggerWith(ctx, "CheckAccessSecret", "record_id", recordID, "viewer_id", viewerID)

	entry, err := s.records.GetRecord(ctx, strings.TrimSpace(recordID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.verifySecret(entry.AccessSecretHash, candidate); err != nil {
		logger.WarnContext(ctx, "access secret rejected")
		return false, nil
	}

	s.unlocks.Grant(viewerID, entry.Record.ID)
	logger.InfoContext(ctx, "record unlocked")
	return true, nil
}

func (s *RecordsService) view(entry RecordEntry, viewerID string) MedicalRecord {
	record := entry.Record
	if s.unlocks.Unlocked(viewerID, record.ID) {
		record.Locked = false
		return record
	}
	record.Description = ""
	record.Locked = true
	return record
}

func normalizeRecordInput(input RecordInput) RecordInput {
	return RecordInput{
		PatientID:    strings.TrimSpace(input.PatientID),
		Title:        strings.TrimSpace(input.Title),
		Date:         strings.TrimSpace(input.Date),
		Description:  strings.TrimSpace(input.Description),
		AuthorName:   strings.TrimSpace(input.AuthorName),
		AccessSecret: input.AccessSecret,
	}
}

func validateRecordInput(input RecordInput) *ValidationError {
	vErr := &ValidationError{}
	if input.PatientID == "" {
		vErr.add("patientId", "patient id is required")
	}
	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Date == "" {
		vErr.add("date", "date is required")
	}
	if input.Description == "" {
		vErr.add("description", "description is required")
	}
	if input.AuthorName == "" {
		vErr.add("authorName", "author name is required")
	}
	if input.AccessSecret == "" {
		vErr.add("accessSecret", "access secret is required")
	}
	return vErr
}
