package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type providerCatalogStub struct {
	providers []Provider
	listErr   error
}

func (s *providerCatalogStub) ListProviders(ctx context.Context) ([]Provider, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.providers, nil
}

func (s *providerCatalogStub) GetProvider(ctx context.Context, id string) (Provider, error) {
	for _, provider := range s.providers {
		if provider.ID == id {
			return provider, nil
		}
	}
	return Provider{}, ErrNotFound
}

type slotDirectoryStub struct {
	slots       []TimeSlot
	err         error
	gotProvider string
	gotDate     string
}

func (s *slotDirectoryStub) ListSlots(ctx context.Context, providerID, date string) ([]TimeSlot, error) {
	s.gotProvider = providerID
	s.gotDate = date
	if s.err != nil {
		return nil, s.err
	}
	return s.slots, nil
}

type bookingRepositoryStub struct {
	bookings  []Booking
	createErr error
	getErr    error
	updateErr error
	listErr   error

	created []Booking
	updated []Booking
	gotList BookingQuery
	nextID  int
}

func (s *bookingRepositoryStub) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if s.createErr != nil {
		return Booking{}, s.createErr
	}
	s.nextID++
	booking.ID = fmt.Sprintf("a%d", s.nextID)
	s.bookings = append(s.bookings, booking)
	s.created = append(s.created, booking)
	return booking, nil
}

func (s *bookingRepositoryStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	if s.getErr != nil {
		return Booking{}, s.getErr
	}
	for _, booking := range s.bookings {
		if booking.ID == id {
			return booking, nil
		}
	}
	return Booking{}, ErrNotFound
}

func (s *bookingRepositoryStub) UpdateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if s.updateErr != nil {
		return Booking{}, s.updateErr
	}
	for i, existing := range s.bookings {
		if existing.ID == booking.ID {
			s.bookings[i] = booking
			s.updated = append(s.updated, booking)
			return booking, nil
		}
	}
	return Booking{}, ErrNotFound
}

func (s *bookingRepositoryStub) ListBookings(ctx context.Context, query BookingQuery) ([]Booking, error) {
	s.gotList = query
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.bookings, nil
}

func validBookingInput() BookingInput {
	return BookingInput{
		PatientID:    "p1",
		PatientName:  "John Doe",
		ProviderID:   "d1",
		ProviderName: "Dr. Emily Smith",
		Date:         "2025-06-15",
		Slot:         TimeSlot{ID: "t2", Time: "10:00 AM", Available: true},
		Fee:          150,
	}
}

func TestSchedulingService_ListSlots(t *testing.T) {
	t.Parallel()

	slots := &slotDirectoryStub{slots: []TimeSlot{{ID: "t1", Time: "9:00 AM", Available: true}}}
	svc := NewSchedulingService(nil, slots, nil, nil, nil)

	got, err := svc.ListSlots(context.Background(), " d1 ", " 2025-06-15 ")
	if err != nil {
		t.Fatalf("ListSlots failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("unexpected slots: %#v", got)
	}
	if slots.gotProvider != "d1" || slots.gotDate != "2025-06-15" {
		t.Fatalf("expected trimmed provider and date to pass through, got %q %q", slots.gotProvider, slots.gotDate)
	}
}

func TestSchedulingService_ListBookings(t *testing.T) {
	t.Parallel()

	t.Run("passes the query through for valid roles", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepositoryStub{bookings: []Booking{{ID: "a1"}}}
		svc := NewSchedulingService(nil, nil, repo, nil, nil)

		got, err := svc.ListBookings(context.Background(), BookingQuery{UserID: "d1", Role: RoleDoctor})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected one booking, got %d", len(got))
		}
		if repo.gotList.UserID != "d1" || repo.gotList.Role != RoleDoctor {
			t.Fatalf("unexpected query: %#v", repo.gotList)
		}
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		t.Parallel()

		svc := NewSchedulingService(nil, nil, &bookingRepositoryStub{}, nil, nil)

		_, err := svc.ListBookings(context.Background(), BookingQuery{UserID: "x", Role: "admin"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestSchedulingService_Book(t *testing.T) {
	t.Parallel()

	t.Run("appends a scheduled booking with payment pending", func(t *testing.T) {
		t.Parallel()

		providers := &providerCatalogStub{providers: []Provider{{ID: "d1", Name: "Dr. Emily Smith", Fee: 150}}}
		repo := &bookingRepositoryStub{}
		svc := NewSchedulingService(providers, nil, repo, nil, nil)

		booking, err := svc.Book(context.Background(), validBookingInput())
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}

		if booking.ID == "" {
			t.Fatalf("expected repository assigned id")
		}
		if booking.Status != BookingScheduled {
			t.Fatalf("expected scheduled status, got %s", booking.Status)
		}
		if booking.PaymentStatus != PaymentPending {
			t.Fatalf("expected pending payment, got %s", booking.PaymentStatus)
		}
		if booking.Time != "10:00 AM" {
			t.Fatalf("expected slot time on booking, got %q", booking.Time)
		}
	})

	t.Run("collects field errors and appends nothing", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepositoryStub{}
		svc := NewSchedulingService(nil, nil, repo, nil, nil)

		_, err := svc.Book(context.Background(), BookingInput{Fee: -10})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"patientId", "patientName", "providerId", "date", "slot", "fee"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected field error for %s, got %#v", field, vErr.FieldErrors)
			}
		}
		if len(repo.created) != 0 {
			t.Fatalf("expected no booking to be created")
		}
	})

	t.Run("rejects bookings for unknown providers", func(t *testing.T) {
		t.Parallel()

		providers := &providerCatalogStub{}
		repo := &bookingRepositoryStub{}
		svc := NewSchedulingService(providers, nil, repo, nil, nil)

		_, err := svc.Book(context.Background(), validBookingInput())
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if len(repo.created) != 0 {
			t.Fatalf("expected no booking to be created")
		}
	})
}

func TestSchedulingService_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("marks an active booking cancelled", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepositoryStub{bookings: []Booking{{ID: "a1", Status: BookingScheduled}}}
		svc := NewSchedulingService(nil, nil, repo, nil, nil)

		if err := svc.Cancel(context.Background(), "a1"); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if got := repo.bookings[0].Status; got != BookingCancelled {
			t.Fatalf("expected cancelled status, got %s", got)
		}
	})

	t.Run("ignores unknown ids", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepositoryStub{}
		svc := NewSchedulingService(nil, nil, repo, nil, nil)

		if err := svc.Cancel(context.Background(), "missing"); err != nil {
			t.Fatalf("expected unknown id to be a no-op, got %v", err)
		}
		if len(repo.updated) != 0 {
			t.Fatalf("expected no update for unknown id")
		}
	})

	t.Run("keeps terminal bookings untouched", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepositoryStub{bookings: []Booking{{ID: "a1", Status: BookingCompleted}}}
		svc := NewSchedulingService(nil, nil, repo, nil, nil)

		if err := svc.Cancel(context.Background(), "a1"); err != nil {
			t.Fatalf("expected terminal cancel to be a no-op, got %v", err)
		}
		if got := repo.bookings[0].Status; got != BookingCompleted {
			t.Fatalf("expected completed status to survive, got %s", got)
		}
	})
}

func TestSchedulingService_CompletePayment(t *testing.T) {
	t.Parallel()

	validDetails := PaymentDetails{
		CardholderName: "John Doe",
		CardNumber:     "4111 1111 1111 1111",
		ExpiryDate:     "12/27",
		CVV:            "123",
		Amount:         150,
	}

	t.Run("settles payment and confirms in one update", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
		repo := &bookingRepositoryStub{bookings: []Booking{{
			ID:            "a1",
			Status:        BookingScheduled,
			PaymentStatus: PaymentPending,
			Fee:           150,
		}}}
		svc := NewSchedulingService(nil, nil, repo, func() string { return "ref-1" }, func() time.Time { return now })

		receipt, err := svc.CompletePayment(context.Background(), "a1", validDetails)
		if err != nil {
			t.Fatalf("CompletePayment failed: %v", err)
		}

		if receipt.Reference != "ref-1" || receipt.Amount != 150 || !receipt.PaidAt.Equal(now) {
			t.Fatalf("unexpected receipt: %#v", receipt)
		}
		if len(repo.updated) != 1 {
			t.Fatalf("expected a single update, got %d", len(repo.updated))
		}
		stored := repo.bookings[0]
		if stored.Status != BookingConfirmed || stored.PaymentStatus != PaymentPaid {
			t.Fatalf("expected confirmed and paid, got %s %s", stored.Status, stored.PaymentStatus)
		}
	})

	t.Run("validates card details before touching the booking", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepositoryStub{bookings: []Booking{{ID: "a1", Status: BookingScheduled, PaymentStatus: PaymentPending}}}
		svc := NewSchedulingService(nil, nil, repo, nil, nil)

		_, err := svc.CompletePayment(context.Background(), "a1", PaymentDetails{CardNumber: "12ab"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"cardholderName", "cardNumber", "expiryDate", "cvv"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected field error for %s, got %#v", field, vErr.FieldErrors)
			}
		}
		if len(repo.updated) != 0 {
			t.Fatalf("expected no update after validation failure")
		}
	})

	t.Run("rejects settled and terminal bookings", func(t *testing.T) {
		t.Parallel()

		repo := &bookingRepositoryStub{bookings: []Booking{
			{ID: "paid", Status: BookingConfirmed, PaymentStatus: PaymentPaid},
			{ID: "done", Status: BookingCancelled, PaymentStatus: PaymentPending},
		}}
		svc := NewSchedulingService(nil, nil, repo, nil, nil)

		for _, id := range []string{"paid", "done"} {
			if _, err := svc.CompletePayment(context.Background(), id, validDetails); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition for %s, got %v", id, err)
			}
		}
	})

	t.Run("propagates lookup failures", func(t *testing.T) {
		t.Parallel()

		svc := NewSchedulingService(nil, nil, &bookingRepositoryStub{}, nil, nil)

		if _, err := svc.CompletePayment(context.Background(), "missing", validDetails); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCardDigits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "4111111111111111", "4111111111111111"},
		{"spaces and hyphens", "4111-1111 1111-1111", "4111111111111111"},
		{"letters reject the number", "4111abcd", ""},
		{"empty input", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := cardDigits(tc.input); got != tc.want {
				t.Fatalf("cardDigits(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
