package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/health-portal/internal/application"
)

type sessionService interface {
	Login(ctx context.Context, params application.LoginParams) (application.Identity, error)
	Register(ctx context.Context, params application.RegisterParams) (application.Identity, error)
	Logout(ctx context.Context)
	Current(ctx context.Context) (application.Identity, bool)
}

// AuthHandler serves login, registration, and logout for the single portal
// session.
type AuthHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service sessionService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// CreateSession handles POST /sessions.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "CreateSession", "email", email)

	identity, err := h.service.Login(r.Context(), application.LoginParams{
		Email:  email,
		Secret: req.Secret,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "login rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", identity.ID).InfoContext(r.Context(), "user signed in")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, identityResponse{Identity: toIdentityDTO(identity)})
}

// CurrentSession handles GET /sessions/current.
func (h *AuthHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	identity, ok := h.service.Current(r.Context())
	if !ok {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   errNotSignedIn.Error(),
		})
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, identityResponse{Identity: toIdentityDTO(identity)})
}

// DeleteCurrentSession handles DELETE /sessions/current.
func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.service.Logout(r.Context())
	h.log(r.Context(), "DeleteCurrentSession").InfoContext(r.Context(), "user signed out")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Register handles POST /registrations.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode registration request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Register", "email", req.Email, "role", req.Role)

	identity, err := h.service.Register(r.Context(), application.RegisterParams{
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Secret,
		Role:   application.Role(req.Role),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "registration rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", identity.ID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, identityResponse{Identity: toIdentityDTO(identity)})
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
	Role   string `json:"role"`
}

type identityDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type identityResponse struct {
	Identity identityDTO `json:"identity"`
}

func toIdentityDTO(identity application.Identity) identityDTO {
	return identityDTO{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  string(identity.Role),
	}
}
