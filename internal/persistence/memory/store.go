// Package memory provides seeded in-memory implementations of the portal
// repositories. A Store stands in for a real backing service: every
// operation can simulate network latency, and all state is lost on process
// exit except what the SQLite snapshot store persists separately.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/health-portal/internal/persistence"
)

// Config controls the initial contents and behavior of a Store.
type Config struct {
	// Seed provides the initial contents of each collection.
	Seed persistence.Seed
	// Latency is applied before every operation to simulate a remote
	// backend. Zero disables the delay; waits honor context cancellation.
	Latency time.Duration
}

// Store is an explicit, injectable replacement for module-level mock arrays:
// each test or process instantiates its own. It implements every portal
// repository interface except SnapshotStore.
type Store struct {
	mu      sync.RWMutex
	latency time.Duration

	directory []persistence.DirectoryEntry
	providers []persistence.Provider
	slots     []persistence.TimeSlot
	bookings  []persistence.Booking
	records   []persistence.MedicalRecord

	// Monotonic counters own id assignment; ids keep the historical
	// role-prefixed shapes (p3, d4, a2, r5) without deriving them from
	// collection length.
	directorySeq uint64
	bookingSeq   uint64
	recordSeq    uint64
}

// NewStore builds a Store seeded with cloned copies of the configured data.
func NewStore(cfg Config) *Store {
	return &Store{
		latency:      cfg.Latency,
		directory:    append([]persistence.DirectoryEntry(nil), cfg.Seed.Directory...),
		providers:    append([]persistence.Provider(nil), cfg.Seed.Providers...),
		slots:        append([]persistence.TimeSlot(nil), cfg.Seed.Slots...),
		bookings:     append([]persistence.Booking(nil), cfg.Seed.Bookings...),
		records:      append([]persistence.MedicalRecord(nil), cfg.Seed.Records...),
		directorySeq: uint64(len(cfg.Seed.Directory)),
		bookingSeq:   uint64(len(cfg.Seed.Bookings)),
		recordSeq:    uint64(len(cfg.Seed.Records)),
	}
}

// wait simulates backend latency while honoring cancellation.
func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CreateEntry appends a directory entry, assigning a role-prefixed id when
// none is supplied. Email collisions report persistence.ErrAlreadyExists.
func (s *Store) CreateEntry(ctx context.Context, entry persistence.DirectoryEntry) (persistence.DirectoryEntry, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.DirectoryEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.directory {
		if strings.EqualFold(existing.Email, entry.Email) {
			return persistence.DirectoryEntry{}, persistence.ErrAlreadyExists
		}
	}

	if entry.ID == "" {
		s.directorySeq++
		entry.ID = fmt.Sprintf("%s%d", rolePrefix(entry.Role), s.directorySeq)
	}

	s.directory = append(s.directory, entry)
	return entry, nil
}

// GetEntryByEmail looks up a directory entry by case-insensitive email.
func (s *Store) GetEntryByEmail(ctx context.Context, email string) (persistence.DirectoryEntry, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.DirectoryEntry{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.directory {
		if strings.EqualFold(entry.Email, email) {
			return entry, nil
		}
	}
	return persistence.DirectoryEntry{}, persistence.ErrNotFound
}

// ListEntries returns the directory in insertion order.
func (s *Store) ListEntries(ctx context.Context) ([]persistence.DirectoryEntry, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]persistence.DirectoryEntry(nil), s.directory...), nil
}

// ListProviders returns the full provider catalog.
func (s *Store) ListProviders(ctx context.Context) ([]persistence.Provider, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]persistence.Provider(nil), s.providers...), nil
}

// GetProvider returns the catalog entry with the given id.
func (s *Store) GetProvider(ctx context.Context, id string) (persistence.Provider, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.Provider{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, provider := range s.providers {
		if provider.ID == id {
			return provider, nil
		}
	}
	return persistence.Provider{}, persistence.ErrNotFound
}

// ListSlots returns the seeded slot set. The provider and date arguments are
// accepted so per-provider availability can be introduced without changing
// the contract; the seed currently offers one shared set.
func (s *Store) ListSlots(ctx context.Context, providerID, date string) ([]persistence.TimeSlot, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	_, _ = providerID, date

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]persistence.TimeSlot(nil), s.slots...), nil
}

// CreateBooking appends a booking, assigning the next "a"-prefixed id when
// none is supplied.
func (s *Store) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == "" {
		s.bookingSeq++
		booking.ID = fmt.Sprintf("a%d", s.bookingSeq)
	}

	s.bookings = append(s.bookings, booking)
	return booking, nil
}

// GetBooking returns the booking with the given id.
func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.Booking{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, booking := range s.bookings {
		if booking.ID == id {
			return booking, nil
		}
	}
	return persistence.Booking{}, persistence.ErrNotFound
}

// UpdateBooking replaces the stored booking with the same id.
func (s *Store) UpdateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.bookings {
		if existing.ID == booking.ID {
			s.bookings[i] = booking
			return booking, nil
		}
	}
	return persistence.Booking{}, persistence.ErrNotFound
}

// ListBookings returns bookings matching the filter in insertion order.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Booking, 0)
	for _, booking := range s.bookings {
		if filter.PatientID != "" && booking.PatientID != filter.PatientID {
			continue
		}
		if filter.ProviderID != "" && booking.ProviderID != filter.ProviderID {
			continue
		}
		out = append(out, booking)
	}
	return out, nil
}

// CreateRecord appends a medical record, assigning the next "r"-prefixed id
// when none is supplied.
func (s *Store) CreateRecord(ctx context.Context, record persistence.MedicalRecord) (persistence.MedicalRecord, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.MedicalRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		s.recordSeq++
		record.ID = fmt.Sprintf("r%d", s.recordSeq)
	}

	s.records = append(s.records, record)
	return record, nil
}

// GetRecord returns the record with the given id.
func (s *Store) GetRecord(ctx context.Context, id string) (persistence.MedicalRecord, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.MedicalRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.ID == id {
			return record, nil
		}
	}
	return persistence.MedicalRecord{}, persistence.ErrNotFound
}

// UpdateRecord replaces the stored record with the same id.
func (s *Store) UpdateRecord(ctx context.Context, record persistence.MedicalRecord) (persistence.MedicalRecord, error) {
	if err := s.wait(ctx); err != nil {
		return persistence.MedicalRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.records {
		if existing.ID == record.ID {
			s.records[i] = record
			return record, nil
		}
	}
	return persistence.MedicalRecord{}, persistence.ErrNotFound
}

// DeleteRecord removes the record with the given id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.records {
		if existing.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

// ListRecordsForPatient returns the patient's records in insertion order.
func (s *Store) ListRecordsForPatient(ctx context.Context, patientID string) ([]persistence.MedicalRecord, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.MedicalRecord, 0)
	for _, record := range s.records {
		if record.PatientID == patientID {
			out = append(out, record)
		}
	}
	return out, nil
}

func rolePrefix(role string) string {
	trimmed := strings.TrimSpace(strings.ToLower(role))
	if trimmed == "" {
		return "u"
	}
	return trimmed[:1]
}
