package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrrecords/internal/domain/auth"
	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/platform/requestctx"
	"hrrecords/internal/transport/http/api"
	"hrrecords/internal/transport/http/middleware"
)

// Service is the slice of auth.Service the handlers drive.
type Service interface {
	AvailableRoles(ctx context.Context, userID string) ([]permissions.Role, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	Logout(ctx context.Context, user auth.UserContext) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/roles", h.HandleRoles)
		r.Post("/login", h.HandleLogin)
		r.With(middleware.RequireUser).Post("/logout", h.HandleLogout)
		r.With(middleware.RequireUser).Get("/me", h.HandleMe)
	})
}

type rolesRequest struct {
	UserID string `json:"userId"`
}

type loginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
	Role     string `json:"role"`
	MFACode  string `json:"mfaCode"`
}

func (h *Handler) HandleRoles(w http.ResponseWriter, r *http.Request) {
	var payload rolesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "userId is required", requestctx.GetRequestID(r.Context()))
		return
	}

	roles, err := h.Service.AvailableRoles(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]any{"roles": roles}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.UserID) == "" || payload.Password == "" || strings.TrimSpace(payload.Role) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "userId, password and role are required", requestctx.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.Login(r.Context(), auth.LoginRequest{
		UserID:   strings.TrimSpace(payload.UserID),
		Password: payload.Password,
		Role:     payload.Role,
		MFACode:  strings.TrimSpace(payload.MFACode),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Logout(r.Context(), user); err != nil {
		slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, user, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := requestctx.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
	case errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", "unknown user", reqID)
	case errors.Is(err, auth.ErrSuspended):
		api.Fail(w, http.StatusForbidden, "account_suspended", "system access is suspended", reqID)
	case errors.Is(err, auth.ErrRoleNotAvailable):
		api.Fail(w, http.StatusForbidden, "role_not_available", "role is not available to this user", reqID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
	default:
		slog.Error("auth request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "auth_error", "authentication failed", reqID)
	}
}
