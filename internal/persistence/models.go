package persistence

// Identity represents a portal user as stored, without credential material.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// DirectoryEntry couples an identity with its argon2id secret hash.
type DirectoryEntry struct {
	Identity
	SecretHash string
}

// Provider represents a care provider catalog entry.
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

// Booking represents an appointment as stored.
type Booking struct {
	ID            string
	PatientID     string
	PatientName   string
	ProviderID    string
	ProviderName  string
	Date          string
	Time          string
	Status        string
	PaymentStatus string
	Fee           int
}

// MedicalRecord represents a patient record entry as stored, including the
// access-secret hash guarding its description.
type MedicalRecord struct {
	ID               string
	PatientID        string
	Title            string
	Date             string
	Description      string
	AuthorName       string
	AccessSecretHash string
}

// Seed bundles the initial contents of the in-memory stores, standing in for
// a real backing store.
type Seed struct {
	Directory []DirectoryEntry
	Providers []Provider
	Slots     []TimeSlot
	Bookings  []Booking
	Records   []MedicalRecord
}
