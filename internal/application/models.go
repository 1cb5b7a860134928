package application

import "time"

// Role identifies the portal persona attached to an identity.
type Role string

const (
	// RolePatient marks an identity that books appointments and owns records.
	RolePatient Role = "patient"
	// RoleDoctor marks an identity that authors records and receives bookings.
	RoleDoctor Role = "doctor"
)

// Valid reports whether the role is one of the known personas.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// Identity represents a registered portal user without credential material.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// DirectoryEntry pairs an identity with its stored credential hash. The hash
// never crosses the service boundary.
type DirectoryEntry struct {
	Identity   Identity
	SecretHash string
}

// LoginParams captures the data required to authenticate against the directory.
type LoginParams struct {
	Email  string
	Secret string
}

// RegisterParams captures the data required to create a directory entry.
type RegisterParams struct {
	Name   string
	Email  string
	Secret string
	Role   Role
}

// Provider represents a bookable care provider from the seed catalog.
type Provider struct {
	ID        string
	Name      string
	Specialty string
	Fee       int
	Available bool
}

// TimeSlot represents a bookable time-of-day entry.
type TimeSlot struct {
	ID        string
	Time      string
	Available bool
}

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingScheduled BookingStatus = "scheduled"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// PaymentStatus tracks whether a booking fee has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Booking represents an appointment between a patient and a provider.
type Booking struct {
	ID            string
	PatientID     string
	PatientName   string
	ProviderID    string
	ProviderName  string
	Date          string
	Time          string
	Status        BookingStatus
	PaymentStatus PaymentStatus
	Fee           int
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	PatientID    string
	PatientName  string
	ProviderID   string
	ProviderName string
	Date         string
	Slot         TimeSlot
	Fee          int
}

// BookingQuery narrows booking listings to the caller's side of the
// appointment: patients see bookings they made, doctors see bookings made
// with them.
type BookingQuery struct {
	UserID string
	Role   Role
}

// PaymentDetails carries the card fields collected for a booking payment.
// The portal never charges the card; the fields are validated and discarded.
type PaymentDetails struct {
	CardholderName string
	CardNumber     string
	ExpiryDate     string
	CVV            string
	Amount         int
}

// PaymentReceipt reports the outcome of a completed payment.
type PaymentReceipt struct {
	BookingID string
	Reference string
	Amount    int
	PaidAt    time.Time
}

// MedicalRecord is a per-patient record entry. Description is withheld and
// Locked set until the viewer unlocks the record with its access secret.
type MedicalRecord struct {
	ID          string
	PatientID   string
	Title       string
	Date        string
	Description string
	AuthorName  string
	Locked      bool
}

// RecordEntry pairs a medical record with its stored access-secret hash.
// Only the records service and its store ever see the hash.
type RecordEntry struct {
	Record           MedicalRecord
	AccessSecretHash string
}

// RecordInput captures caller provided record fields.
type RecordInput struct {
	PatientID    string
	Title        string
	Date         string
	Description  string
	AuthorName   string
	AccessSecret string
}

// RecordUpdate carries the partial fields merged into an existing record.
// Empty fields keep their stored values.
type RecordUpdate struct {
	Title        string
	Date         string
	Description  string
	AuthorName   string
	AccessSecret string
}
