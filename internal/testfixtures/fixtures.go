package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/health-portal/internal/application"
	"github.com/example/health-portal/internal/persistence"
)

var (
	identityCounter uint64
	providerCounter uint64
	slotCounter     uint64
	bookingCounter  uint64
	recordCounter   uint64
)

var referenceTime = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// PlainHasher returns the secret prefixed with "hashed:"; PlainVerifier
// accepts exactly what PlainHasher produced. Together they stand in for
// argon2id in tests that do not exercise real hashing.
func PlainHasher(secret string) (string, error) {
	return "hashed:" + secret, nil
}

// PlainVerifier pairs with PlainHasher.
func PlainVerifier(encodedHash, secret string) error {
	if encodedHash != "hashed:"+secret {
		return application.ErrInvalidCredentials
	}
	return nil
}

// --------------------------- Identity fixtures ---------------------------

// IdentityFixture represents a deterministic directory entry that can be
// materialised for application or persistence tests.
type IdentityFixture struct {
	ID         string
	Name       string
	Email      string
	Role       application.Role
	SecretHash string
}

// IdentityOption configures the generated identity fixture.
type IdentityOption func(*IdentityFixture)

// NewIdentityFixture returns a deterministic identity fixture with optional overrides.
func NewIdentityFixture(opts ...IdentityOption) IdentityFixture {
	idx := atomic.AddUint64(&identityCounter, 1)
	fixture := IdentityFixture{
		ID:         fmt.Sprintf("p%d", idx),
		Name:       fmt.Sprintf("Patient %03d", idx),
		Email:      fmt.Sprintf("patient%03d@example.com", idx),
		Role:       application.RolePatient,
		SecretHash: fmt.Sprintf("hashed:secret-%03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithIdentityID overrides the generated identity ID.
func WithIdentityID(id string) IdentityOption {
	return func(f *IdentityFixture) {
		f.ID = id
	}
}

// WithIdentityName overrides the generated display name.
func WithIdentityName(name string) IdentityOption {
	return func(f *IdentityFixture) {
		f.Name = name
	}
}

// WithIdentityEmail overrides the generated email address.
func WithIdentityEmail(email string) IdentityOption {
	return func(f *IdentityFixture) {
		f.Email = email
	}
}

// WithIdentityRole overrides the generated role.
func WithIdentityRole(role application.Role) IdentityOption {
	return func(f *IdentityFixture) {
		f.Role = role
	}
}

// WithIdentitySecretHash overrides the stored secret hash.
func WithIdentitySecretHash(hash string) IdentityOption {
	return func(f *IdentityFixture) {
		f.SecretHash = hash
	}
}

// Application returns the fixture as an application.Identity value.
func (f IdentityFixture) Application() application.Identity {
	return application.Identity{
		ID:    f.ID,
		Name:  f.Name,
		Email: f.Email,
		Role:  f.Role,
	}
}

// Entry returns the fixture as an application.DirectoryEntry.
func (f IdentityFixture) Entry() application.DirectoryEntry {
	return application.DirectoryEntry{
		Identity:   f.Application(),
		SecretHash: f.SecretHash,
	}
}

// Persistence returns the fixture as a persistence.DirectoryEntry value.
func (f IdentityFixture) Persistence() persistence.DirectoryEntry {
	return persistence.DirectoryEntry{
		Identity: persistence.Identity{
			ID:    f.ID,
			Name:  f.Name,
			Email: f.Email,
			Role:  string(f.Role),
		},
		SecretHash: f.SecretHash,
	}
}

// --------------------------- Provider fixtures ---------------------------

// ProviderFixture represents a deterministic provider catalog entry.
type ProviderFixture struct {
	ID        string
	Name      string
	Specialty string
	Fee       int
	Available bool
}

// ProviderOption configures the generated provider fixture.
type ProviderOption func(*ProviderFixture)

// NewProviderFixture returns a deterministic provider fixture with optional overrides.
func NewProviderFixture(opts ...ProviderOption) ProviderFixture {
	idx := atomic.AddUint64(&providerCounter, 1)
	fixture := ProviderFixture{
		ID:        fmt.Sprintf("d%d", idx),
		Name:      fmt.Sprintf("Dr. Provider %03d", idx),
		Specialty: "General Practice",
		Fee:       100,
		Available: true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithProviderID overrides the generated provider ID.
func WithProviderID(id string) ProviderOption {
	return func(f *ProviderFixture) {
		f.ID = id
	}
}

// WithProviderName overrides the generated provider name.
func WithProviderName(name string) ProviderOption {
	return func(f *ProviderFixture) {
		f.Name = name
	}
}

// WithProviderSpecialty overrides the generated specialty.
func WithProviderSpecialty(specialty string) ProviderOption {
	return func(f *ProviderFixture) {
		f.Specialty = specialty
	}
}

// WithProviderFee overrides the consultation fee.
func WithProviderFee(fee int) ProviderOption {
	return func(f *ProviderFixture) {
		f.Fee = fee
	}
}

// WithProviderAvailable sets the availability flag.
func WithProviderAvailable(available bool) ProviderOption {
	return func(f *ProviderFixture) {
		f.Available = available
	}
}

// Application returns the fixture as an application.Provider value.
func (f ProviderFixture) Application() application.Provider {
	return application.Provider{
		ID:        f.ID,
		Name:      f.Name,
		Specialty: f.Specialty,
		Fee:       f.Fee,
		Available: f.Available,
	}
}

// Persistence returns the fixture as a persistence.Provider value.
func (f ProviderFixture) Persistence() persistence.Provider {
	return persistence.Provider{
		ID:        f.ID,
		Name:      f.Name,
		Specialty: f.Specialty,
		Fee:       f.Fee,
		Available: f.Available,
	}
}

// ----------------------------- Slot fixtures -----------------------------

// SlotFixture represents a deterministic bookable time slot.
type SlotFixture struct {
	ID        string
	Time      string
	Available bool
}

// SlotOption configures the generated slot fixture.
type SlotOption func(*SlotFixture)

// NewSlotFixture returns a deterministic slot fixture with optional overrides.
func NewSlotFixture(opts ...SlotOption) SlotFixture {
	idx := atomic.AddUint64(&slotCounter, 1)
	fixture := SlotFixture{
		ID:        fmt.Sprintf("t%d", idx),
		Time:      fmt.Sprintf("%02d:00 AM", 8+idx%4),
		Available: true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSlotID overrides the generated slot ID.
func WithSlotID(id string) SlotOption {
	return func(f *SlotFixture) {
		f.ID = id
	}
}

// WithSlotTime overrides the generated time label.
func WithSlotTime(label string) SlotOption {
	return func(f *SlotFixture) {
		f.Time = label
	}
}

// WithSlotAvailable sets the availability flag.
func WithSlotAvailable(available bool) SlotOption {
	return func(f *SlotFixture) {
		f.Available = available
	}
}

// Application returns the fixture as an application.TimeSlot value.
func (f SlotFixture) Application() application.TimeSlot {
	return application.TimeSlot{ID: f.ID, Time: f.Time, Available: f.Available}
}

// Persistence returns the fixture as a persistence.TimeSlot value.
func (f SlotFixture) Persistence() persistence.TimeSlot {
	return persistence.TimeSlot{ID: f.ID, Time: f.Time, Available: f.Available}
}

// --------------------------- Booking fixtures ----------------------------

// BookingFixture represents a deterministic booking record.
type BookingFixture struct {
	ID            string
	PatientID     string
	PatientName   string
	ProviderID    string
	ProviderName  string
	Date          string
	Time          string
	Status        application.BookingStatus
	PaymentStatus application.PaymentStatus
	Fee           int
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional overrides.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	fixture := BookingFixture{
		ID:            fmt.Sprintf("a%d", idx),
		PatientID:     "p1",
		PatientName:   "John Doe",
		ProviderID:    "d1",
		ProviderName:  "Dr. Emily Smith",
		Date:          referenceTime.AddDate(0, 0, int(idx)).Format("2006-01-02"),
		Time:          "10:00 AM",
		Status:        application.BookingScheduled,
		PaymentStatus: application.PaymentPending,
		Fee:           150,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingPatient overrides the patient side of the booking.
func WithBookingPatient(id, name string) BookingOption {
	return func(f *BookingFixture) {
		f.PatientID = id
		f.PatientName = name
	}
}

// WithBookingProvider overrides the provider side of the booking.
func WithBookingProvider(id, name string) BookingOption {
	return func(f *BookingFixture) {
		f.ProviderID = id
		f.ProviderName = name
	}
}

// WithBookingDate overrides the appointment date.
func WithBookingDate(date string) BookingOption {
	return func(f *BookingFixture) {
		f.Date = date
	}
}

// WithBookingTime overrides the appointment time label.
func WithBookingTime(label string) BookingOption {
	return func(f *BookingFixture) {
		f.Time = label
	}
}

// WithBookingStatus overrides the booking status.
func WithBookingStatus(status application.BookingStatus) BookingOption {
	return func(f *BookingFixture) {
		f.Status = status
	}
}

// WithBookingPaymentStatus overrides the payment status.
func WithBookingPaymentStatus(status application.PaymentStatus) BookingOption {
	return func(f *BookingFixture) {
		f.PaymentStatus = status
	}
}

// WithBookingFee overrides the booking fee.
func WithBookingFee(fee int) BookingOption {
	return func(f *BookingFixture) {
		f.Fee = fee
	}
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:            f.ID,
		PatientID:     f.PatientID,
		PatientName:   f.PatientName,
		ProviderID:    f.ProviderID,
		ProviderName:  f.ProviderName,
		Date:          f.Date,
		Time:          f.Time,
		Status:        f.Status,
		PaymentStatus: f.PaymentStatus,
		Fee:           f.Fee,
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:            f.ID,
		PatientID:     f.PatientID,
		PatientName:   f.PatientName,
		ProviderID:    f.ProviderID,
		ProviderName:  f.ProviderName,
		Date:          f.Date,
		Time:          f.Time,
		Status:        string(f.Status),
		PaymentStatus: string(f.PaymentStatus),
		Fee:           f.Fee,
	}
}

// ---------------------------- Record fixtures ----------------------------

// RecordFixture represents a deterministic medical record entry.
type RecordFixture struct {
	ID               string
	PatientID        string
	Title            string
	Date             string
	Description      string
	AuthorName       string
	AccessSecretHash string
}

// RecordOption configures the generated record fixture.
type RecordOption func(*RecordFixture)

// NewRecordFixture returns a deterministic record fixture with optional overrides.
func NewRecordFixture(opts ...RecordOption) RecordFixture {
	idx := atomic.AddUint64(&recordCounter, 1)
	fixture := RecordFixture{
		ID:               fmt.Sprintf("r%d", idx),
		PatientID:        "p1",
		Title:            fmt.Sprintf("Checkup %03d", idx),
		Date:             referenceTime.AddDate(0, 0, -int(idx)).Format("2006-01-02"),
		Description:      fmt.Sprintf("Routine examination %03d, no findings.", idx),
		AuthorName:       "Dr. Emily Smith",
		AccessSecretHash: fmt.Sprintf("hashed:record-secret-%03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRecordID overrides the generated record ID.
func WithRecordID(id string) RecordOption {
	return func(f *RecordFixture) {
		f.ID = id
	}
}

// WithRecordPatientID overrides the owning patient.
func WithRecordPatientID(patientID string) RecordOption {
	return func(f *RecordFixture) {
		f.PatientID = patientID
	}
}

// WithRecordTitle overrides the generated title.
func WithRecordTitle(title string) RecordOption {
	return func(f *RecordFixture) {
		f.Title = title
	}
}

// WithRecordDate overrides the record date.
func WithRecordDate(date string) RecordOption {
	return func(f *RecordFixture) {
		f.Date = date
	}
}

// WithRecordDescription overrides the protected description.
func WithRecordDescription(description string) RecordOption {
	return func(f *RecordFixture) {
		f.Description = description
	}
}

// WithRecordAuthorName overrides the authoring doctor name.
func WithRecordAuthorName(name string) RecordOption {
	return func(f *RecordFixture) {
		f.AuthorName = name
	}
}

// WithRecordAccessSecretHash overrides the stored access-secret hash.
func WithRecordAccessSecretHash(hash string) RecordOption {
	return func(f *RecordFixture) {
		f.AccessSecretHash = hash
	}
}

// Application returns the fixture as an application.MedicalRecord value.
func (f RecordFixture) Application() application.MedicalRecord {
	return application.MedicalRecord{
		ID:          f.ID,
		PatientID:   f.PatientID,
		Title:       f.Title,
		Date:        f.Date,
		Description: f.Description,
		AuthorName:  f.AuthorName,
	}
}

// Entry returns the fixture as an application.RecordEntry.
func (f RecordFixture) Entry() application.RecordEntry {
	return application.RecordEntry{
		Record:           f.Application(),
		AccessSecretHash: f.AccessSecretHash,
	}
}

// Persistence returns the fixture as a persistence.MedicalRecord value.
func (f RecordFixture) Persistence() persistence.MedicalRecord {
	return persistence.MedicalRecord{
		ID:               f.ID,
		PatientID:        f.PatientID,
		Title:            f.Title,
		Date:             f.Date,
		Description:      f.Description,
		AuthorName:       f.AuthorName,
		AccessSecretHash: f.AccessSecretHash,
	}
}
