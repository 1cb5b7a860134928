package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

// ProviderCatalog exposes the read-only provider directory.
type ProviderCatalog interface {
	ListProviders(ctx context.Context) ([]Provider, error)
	GetProvider(ctx context.Context, id string) (Provider, error)
}

// SlotDirectory exposes the bookable time slots for a provider and date.
type SlotDirectory interface {
	ListSlots(ctx context.Context, providerID, date string) ([]TimeSlot, error)
}

// BookingRepository captures the persistence interactions for bookings.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	ListBookings(ctx context.Context, query BookingQuery) ([]Booking, error)
}

// SchedulingService coordinates provider browsing, booking, cancellation,
// and payment settlement.
type SchedulingService struct {
	providers ProviderCatalog
	slots     SlotDirectory
	bookings  BookingRepository
	reference func() string
	now       func() time.Time
	logger    *slog.Logger
}

// NewSchedulingService constructs a SchedulingService with the provided dependencies.
func NewSchedulingService(providers ProviderCatalog, slots SlotDirectory, bookings BookingRepository, reference func() string, now func() time.Time) *SchedulingService {
	return NewSchedulingServiceWithLogger(providers, slots, bookings, reference, now, nil)
}

// NewSchedulingServiceWithLogger constructs a SchedulingService with a specified logger.
func NewSchedulingServiceWithLogger(providers ProviderCatalog, slots SlotDirectory, bookings BookingRepository, reference func() string, now func() time.Time, logger *slog.Logger) *SchedulingService {
	if reference == nil {
		reference = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SchedulingService{
		providers: providers,
		slots:     slots,
		bookings:  bookings,
		reference: reference,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *SchedulingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SchedulingService", operation, attrs...)
}

// ListProviders returns the full provider directory. Search and specialty
// filtering happen on the caller's side over the complete list.
func (s *SchedulingService) ListProviders(ctx context.Context) ([]Provider, error) {
	if s == nil {
		return nil, fmt.Errorf("SchedulingService is nil")
	}
	if s.providers == nil {
		return nil, nil
	}

	providers, err := s.providers.ListProviders(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Provider, len(providers))
	copy(out, providers)
	return out, nil
}

// ListSlots returns the bookable slots for the provider and date. The
// current slot directory offers the same set for every query; the provider
// and date travel through so per-provider availability can be introduced
// without changing the call contract.
func (s *SchedulingService) ListSlots(ctx context.Context, providerID, date string) ([]TimeSlot, error) {
	if s == nil {
		return nil, fmt.Errorf("SchedulingService is nil")
	}
	if s.slots == nil {
		return nil, nil
	}

	slots, err := s.slots.ListSlots(ctx, strings.TrimSpace(providerID), strings.TrimSpace(date))
	if err != nil {
		return nil, err
	}

	out := make([]TimeSlot, len(slots))
	copy(out, slots)
	return out, nil
}

// ListBookings returns the caller's bookings in insertion order: bookings
// made by a patient, or bookings made with a doctor.
func (s *SchedulingService) ListBookings(ctx context.Context, query BookingQuery) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("SchedulingService is nil")
	}
	if s.bookings == nil {
		return nil, nil
	}
	if !query.Role.Valid() {
		vErr := &ValidationError{}
		vErr.add("role", "role must be patient or doctor")
		return nil, vErr
	}

	bookings, err := s.bookings.ListBookings(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]Booking, len(bookings))
	copy(out, bookings)
	return out, nil
}

// Book validates input and appends a new booking with status scheduled and
// payment pending. Failures are caller visible; nothing is appended.
func (s *SchedulingService) Book(ctx context.Context, input BookingInput) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	normalized := normalizeBookingInput(input)

	logger := s.loggerWith(ctx, "Book",
		"patient_id", normalized.PatientID,
		"provider_id", normalized.ProviderID,
		"date", normalized.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking created")
	}()

	vErr := validateBookingInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.providers != nil {
		if _, err = s.providers.GetProvider(ctx, normalized.ProviderID); err != nil {
			return
		}
	}

	booking, err = s.bookings.CreateBooking(ctx, Booking{
		PatientID:     normalized.PatientID,
		PatientName:   normalized.PatientName,
		ProviderID:    normalized.ProviderID,
		ProviderName:  normalized.ProviderName,
		Date:          normalized.Date,
		Time:          normalized.Slot.Time,
		Status:        BookingScheduled,
		PaymentStatus: PaymentPending,
		Fee:           normalized.Fee,
	})
	return
}

// Cancel marks a booking cancelled. An unknown id is a silent no-op, and a
// booking already in a terminal state keeps it.
func (s *SchedulingService) Cancel(ctx context.Context, bookingID string) error {
	if s == nil {
		return fmt.Errorf("SchedulingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	logger := s.loggerWith(ctx, "Cancel", "booking_id", bookingID)

	booking, err := s.bookings.GetBooking(ctx, strings.TrimSpace(bookingID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "cancel ignored for unknown booking")
			return nil
		}
		return err
	}

	if booking.Status.Terminal() {
		logger.WarnContext(ctx, "cancel ignored for terminal booking", "status", booking.Status)
		return nil
	}

	booking.Status = BookingCancelled
	if _, err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		logger.ErrorContext(ctx, "cancellation failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "booking cancelled")
	return nil
}

// CompletePayment settles a pending booking: payment moves to paid and
// status to confirmed in a single update. The card details are validated
// and then discarded; no charge is made.
func (s *SchedulingService) CompletePayment(ctx context.Context, bookingID string, details PaymentDetails) (receipt PaymentReceipt, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CompletePayment", "booking_id", bookingID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "payment failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reference", receipt.Reference).InfoContext(ctx, "payment completed")
	}()

	vErr := validatePaymentDetails(details)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var booking Booking
	booking, err = s.bookings.GetBooking(ctx, strings.TrimSpace(bookingID))
	if err != nil {
		return
	}

	if booking.Status.Terminal() || booking.PaymentStatus == PaymentPaid {
		err = ErrInvalidTransition
		return
	}

	booking.PaymentStatus = PaymentPaid
	booking.Status = BookingConfirmed
	booking, err = s.bookings.UpdateBooking(ctx, booking)
	if err != nil {
		return
	}

	receipt = PaymentReceipt{
		BookingID: booking.ID,
		Reference: s.reference(),
		Amount:    booking.Fee,
		PaidAt:    s.now(),
	}
	return
}

func normalizeBookingInput(input BookingInput) BookingInput {
	return BookingInput{
		PatientID:    strings.TrimSpace(input.PatientID),
		PatientName:  strings.TrimSpace(input.PatientName),
		ProviderID:   strings.TrimSpace(input.ProviderID),
		ProviderName: strings.TrimSpace(input.ProviderName),
		Date:         strings.TrimSpace(input.Date),
		Slot:         TimeSlot{ID: strings.TrimSpace(input.Slot.ID), Time: strings.TrimSpace(input.Slot.Time), Available: input.Slot.Available},
		Fee:          input.Fee,
	}
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := &ValidationError{}
	if input.PatientID == "" {
		vErr.add("patientId", "patient id is required")
	}
	if input.PatientName == "" {
		vErr.add("patientName", "patient name is required")
	}
	if input.ProviderID == "" {
		vErr.add("providerId", "provider id is required")
	}
	if input.Date == "" {
		vErr.add("date", "date is required")
	}
	if input.Slot.Time == "" {
		vErr.add("slot", "time slot is required")
	}
	if input.Fee <= 0 {
		vErr.add("fee", "fee must be positive")
	}
	return vErr
}

func validatePaymentDetails(details PaymentDetails) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(details.CardholderName) == "" {
		vErr.add("cardholderName", "cardholder name is required")
	}
	if digits := cardDigits(details.CardNumber); len(digits) < 12 || len(digits) > 19 {
		vErr.add("cardNumber", "card number must be 12 to 19 digits")
	}
	if strings.TrimSpace(details.ExpiryDate) == "" {
		vErr.add("expiryDate", "expiry date is required")
	}
	if strings.TrimSpace(details.CVV) == "" {
		vErr.add("cvv", "security code is required")
	}
	return vErr
}

func cardDigits(number string) string {
	var builder strings.Builder
	for _, r := range number {
		if unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else if r != ' ' && r != '-' {
			return ""
		}
	}
	return builder.String()
}
