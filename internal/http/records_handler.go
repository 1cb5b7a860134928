package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/health-portal/internal/application"
)

type recordsService interface {
	ListRecords(ctx context.Context, patientID, viewerID string) ([]application.MedicalRecord, error)
	AddRecord(ctx context.Context, input application.RecordInput) (application.MedicalRecord, error)
	UpdateRecord(ctx context.Context, id string, update application.RecordUpdate) (application.MedicalRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	CheckAccessSecret(ctx context.Context, recordID, viewerID, candidate string) (bool, error)
}

// RecordsHandler serves medical record listing, authoring, and unlocking.
type RecordsHandler struct {
	service   recordsService
	responder responder
	logger    *slog.Logger
}

func NewRecordsHandler(service recordsService, logger *slog.Logger) *RecordsHandler {
	base := defaultLogger(logger)
	return &RecordsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RecordsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RecordsHandler", operation, attrs...)
}

func (h *RecordsHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// ListRecords handles GET /records?patient=. Patients see their own records;
// the patient query parameter lets doctors pull up another patient's chart.
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	patientID := r.URL.Query().Get("patient")
	if patientID == "" {
		patientID = principal.ID
	}
	if principal.Role == application.RolePatient && patientID != principal.ID {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	records, err := h.service.ListRecords(r.Context(), patientID, principal.ID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]recordDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordDTO(record))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, recordsResponse{Records: out})
}

// CreateRecord handles POST /records.
func (h *RecordsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateRecord", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode record request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateRecord", "patient_id", req.PatientID)

	record, err := h.service.AddRecord(r.Context(), application.RecordInput{
		PatientID:    req.PatientID,
		Title:        req.Title,
		Date:         req.Date,
		Description:  req.Description,
		AuthorName:   req.AuthorName,
		AccessSecret: req.AccessSecret,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "record creation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("record_id", record.ID).InfoContext(r.Context(), "record created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, recordResponse{Record: toRecordDTO(record)})
}

// UpdateRecord handles PUT /records/{id}.
func (h *RecordsHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	recordID, ok := RecordIDFromContext(r.Context())
	if !ok || recordID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRecordID)
		return
	}

	var req recordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateRecord", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode record update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateRecord", "record_id", recordID)

	record, err := h.service.UpdateRecord(r.Context(), recordID, application.RecordUpdate{
		Title:        req.Title,
		Date:         req.Date,
		Description:  req.Description,
		AuthorName:   req.AuthorName,
		AccessSecret: req.AccessSecret,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "record update rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "record updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, recordResponse{Record: toRecordDTO(record)})
}

// DeleteRecord handles DELETE /records/{id}.
func (h *RecordsHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	recordID, ok := RecordIDFromContext(r.Context())
	if !ok || recordID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRecordID)
		return
	}

	if err := h.service.DeleteRecord(r.Context(), recordID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "DeleteRecord", "record_id", recordID).InfoContext(r.Context(), "record delete accepted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// UnlockRecord handles POST /records/{id}/unlock. A failed check reports
// unlocked=false with 200 so the caller cannot distinguish a wrong secret
// from an unknown record.
func (h *RecordsHandler) UnlockRecord(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	recordID, ok := RecordIDFromContext(r.Context())
	if !ok || recordID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRecordID)
		return
	}

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UnlockRecord", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode unlock request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	unlocked, err := h.service.CheckAccessSecret(r.Context(), recordID, principal.ID, req.AccessSecret)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, unlockResponse{Unlocked: unlocked})
}

type recordDTO struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AuthorName  string `json:"doctorName"`
	Locked      bool   `json:"locked"`
}

type recordResponse struct {
	Record recordDTO `json:"record"`
}

type recordsResponse struct {
	Records []recordDTO `json:"records"`
}

type recordRequest struct {
	PatientID    string `json:"patientId"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	AuthorName   string `json:"doctorName"`
	AccessSecret string `json:"accessSecret"`
}

type recordUpdateRequest struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	AuthorName   string `json:"doctorName"`
	AccessSecret string `json:"accessSecret"`
}

type unlockRequest struct {
	AccessSecret string `json:"accessSecret"`
}

type unlockResponse struct {
	Unlocked bool `json:"unlocked"`
}

func toRecordDTO(record application.MedicalRecord) recordDTO {
	return recordDTO{
		ID:          record.ID,
		PatientID:   record.PatientID,
		Title:       record.Title,
		Date:        record.Date,
		Description: record.Description,
		AuthorName:  record.AuthorName,
		Locked:      record.Locked,
	}
}
