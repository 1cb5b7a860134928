package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/health-portal/internal/application"
)

type schedulingService interface {
	ListProviders(ctx context.Context) ([]application.Provider, error)
	ListSlots(ctx context.Context, providerID, date string) ([]application.TimeSlot, error)
	ListBookings(ctx context.Context, query application.BookingQuery) ([]application.Booking, error)
	Book(ctx context.Context, input application.BookingInput) (application.Booking, error)
	Cancel(ctx context.Context, bookingID string) error
	CompletePayment(ctx context.Context, bookingID string, details application.PaymentDetails) (application.PaymentReceipt, error)
}

// SchedulingHandler serves provider browsing, slot listing, and the booking
// lifecycle including payment settlement.
type SchedulingHandler struct {
	service   schedulingService
	responder responder
	logger    *slog.Logger
}

func NewSchedulingHandler(service schedulingService, logger *slog.Logger) *SchedulingHandler {
	base := defaultLogger(logger)
	return &SchedulingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SchedulingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SchedulingHandler", operation, attrs...)
}

func (h *SchedulingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// ListProviders handles GET /providers.
func (h *SchedulingHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	providers, err := h.service.ListProviders(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]providerDTO, 0, len(providers))
	for _, provider := range providers {
		out = append(out, toProviderDTO(provider))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, providersResponse{Providers: out})
}

// ListSlots handles GET /slots?provider=&date=.
func (h *SchedulingHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := r.URL.Query()
	slots, err := h.service.ListSlots(r.Context(), query.Get("provider"), query.Get("date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{ID: slot.ID, Time: slot.Time, Available: slot.Available})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{Slots: out})
}

// ListBookings handles GET /bookings. Without explicit user/role query
// parameters the listing defaults to the signed-in principal's side.
func (h *SchedulingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := application.BookingQuery{
		UserID: r.URL.Query().Get("user"),
		Role:   application.Role(r.URL.Query().Get("role")),
	}
	if query.UserID == "" {
		if principal, ok := PrincipalFromContext(r.Context()); ok {
			query.UserID = principal.ID
			if query.Role == "" {
				query.Role = principal.Role
			}
		}
	}

	bookings, err := h.service.ListBookings(r.Context(), query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingsResponse{Bookings: out})
}

// CreateBooking handles POST /bookings.
func (h *SchedulingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateBooking", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateBooking", "provider_id", req.ProviderID, "date", req.Date)

	booking, err := h.service.Book(r.Context(), application.BookingInput{
		PatientID:    req.PatientID,
		PatientName:  req.PatientName,
		ProviderID:   req.ProviderID,
		ProviderName: req.ProviderName,
		Date:         req.Date,
		Slot:         application.TimeSlot{ID: req.Slot.ID, Time: req.Slot.Time, Available: req.Slot.Available},
		Fee:          req.Fee,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

// CancelBooking handles POST /bookings/{id}/cancel.
func (h *SchedulingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	if err := h.service.Cancel(r.Context(), bookingID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "CancelBooking", "booking_id", bookingID).InfoContext(r.Context(), "booking cancel accepted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CompletePayment handles POST /bookings/{id}/payment.
func (h *SchedulingHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CompletePayment", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode payment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CompletePayment", "booking_id", bookingID)

	receipt, err := h.service.CompletePayment(r.Context(), bookingID, application.PaymentDetails{
		CardholderName: req.CardholderName,
		CardNumber:     req.CardNumber,
		ExpiryDate:     req.ExpiryDate,
		CVV:            req.CVV,
		Amount:         req.Amount,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "payment rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reference", receipt.Reference).InfoContext(r.Context(), "payment completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, receiptResponse{Receipt: receiptDTO{
		BookingID: receipt.BookingID,
		Reference: receipt.Reference,
		Amount:    receipt.Amount,
		PaidAt:    receipt.PaidAt.UTC().Format(time.RFC3339),
	}})
}

type providerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Fee       int    `json:"fee"`
	Available bool   `json:"available"`
}

type providersResponse struct {
	Providers []providerDTO `json:"providers"`
}

type slotDTO struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type slotsResponse struct {
	Slots []slotDTO `json:"slots"`
}

type bookingDTO struct {
	ID            string `json:"id"`
	PatientID     string `json:"patientId"`
	PatientName   string `json:"patientName"`
	ProviderID    string `json:"doctorId"`
	ProviderName  string `json:"doctorName"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	Fee           int    `json:"fee"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type bookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingRequest struct {
	PatientID    string  `json:"patientId"`
	PatientName  string  `json:"patientName"`
	ProviderID   string  `json:"doctorId"`
	ProviderName string  `json:"doctorName"`
	Date         string  `json:"date"`
	Slot         slotDTO `json:"slot"`
	Fee          int     `json:"fee"`
}

type paymentRequest struct {
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
	Amount         int    `json:"amount"`
}

type receiptDTO struct {
	BookingID string `json:"bookingId"`
	Reference string `json:"reference"`
	Amount    int    `json:"amount"`
	PaidAt    string `json:"paidAt"`
}

type receiptResponse struct {
	Receipt receiptDTO `json:"receipt"`
}

func toProviderDTO(provider application.Provider) providerDTO {
	return providerDTO{
		ID:        provider.ID,
		Name:      provider.Name,
		Specialty: provider.Specialty,
		Fee:       provider.Fee,
		Available: provider.Available,
	}
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:            booking.ID,
		PatientID:     booking.PatientID,
		PatientName:   booking.PatientName,
		ProviderID:    booking.ProviderID,
		ProviderName:  booking.ProviderName,
		Date:          booking.Date,
		Time:          booking.Time,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		Fee:           booking.Fee,
	}
}
