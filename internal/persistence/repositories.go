package persistence

import "context"

// DirectoryRepository exposes the identity directory used for credential lookup.
type DirectoryRepository interface {
	CreateEntry(ctx context.Context, entry DirectoryEntry) (DirectoryEntry, error)
	GetEntryByEmail(ctx context.Context, email string) (DirectoryEntry, error)
	ListEntries(ctx context.Context) ([]DirectoryEntry, error)
}

// ProviderRepository exposes the read-only provider catalog.
type ProviderRepository interface {
	ListProviders(ctx context.Context) ([]Provider, error)
	GetProvider(ctx context.Context, id string) (Provider, error)
}

// SlotRepository exposes bookable time slots. The provider and date narrow
// the query even though the current seed offers one shared set.
type SlotRepository interface {
	ListSlots(ctx context.Context, providerID, date string) ([]TimeSlot, error)
}

// BookingFilter narrows booking queries to one side of the appointment.
type BookingFilter struct {
	PatientID  string
	ProviderID string
}

// BookingRepository stores appointment bookings.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
}

// RecordRepository stores per-patient medical records.
type RecordRepository interface {
	CreateRecord(ctx context.Context, record MedicalRecord) (MedicalRecord, error)
	GetRecord(ctx context.Context, id string) (MedicalRecord, error)
	UpdateRecord(ctx context.Context, record MedicalRecord) (MedicalRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecordsForPatient(ctx context.Context, patientID string) ([]MedicalRecord, error)
}

// SnapshotStore persists the single serialized identity record that survives
// process restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, identity Identity) error
	LoadSnapshot(ctx context.Context) (Identity, error)
	ClearSnapshot(ctx context.Context) error
}
