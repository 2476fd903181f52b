package recordshandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrrecords/internal/domain/hr"
	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/domain/records"
	"hrrecords/internal/transport/http/api"
	"hrrecords/internal/transport/http/middleware"
	"hrrecords/internal/transport/http/shared"
)

// Service is the record workflow the handlers drive.
type Service interface {
	Decide(ctx context.Context, actor permissions.Actor, action permissions.Action, target *records.Record) permissions.Decision
	Create(ctx context.Context, actor permissions.Actor, rec *records.Record) error
	Modify(ctx context.Context, actor permissions.Actor, rec *records.Record) error
	View(ctx context.Context, actor permissions.Actor, kind records.Kind, employeeID string) ([]*records.Record, error)
	Approve(ctx context.Context, actor permissions.Actor, rec *records.Record) error
	ExportPDF(ctx context.Context, actor permissions.Actor, kind records.Kind, employeeID string, w io.Writer) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/schema", h.handleListSchemas)
	r.Get("/schema/{kind}", h.handleGetSchema)
	r.Post("/records/{kind}/validate", h.handleValidate)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/records/{kind}", h.handleCreate)
		r.Put("/records/{kind}", h.handleModify)
		r.Post("/records/{kind}/approve", h.handleApprove)
		r.Get("/records/{kind}/{employeeID}", h.handleView)
		r.Get("/records/{kind}/{employeeID}/sheet.pdf", h.handleSheet)
		r.Post("/authorize", h.handleAuthorize)
	})
}

type schemaResponse struct {
	Kind       string                    `json:"kind"`
	Name       string                    `json:"name"`
	NaturalKey []string                  `json:"naturalKey"`
	Fields     []records.FieldDefinition `json:"fields"`
}

type recordPayload struct {
	Values map[string]string `json:"values"`
}

type authorizeRequest struct {
	Action string            `json:"action"`
	Kind   string            `json:"kind"`
	Values map[string]string `json:"values"`
}

func describe(kind records.Kind) schemaResponse {
	return schemaResponse{
		Kind:       kind.Token(),
		Name:       kind.Name(),
		NaturalKey: records.NaturalKey(kind),
		Fields:     records.Definitions(kind),
	}
}

func (h *Handler) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	out := make([]schemaResponse, 0, len(records.Kinds()))
	for _, kind := range records.Kinds() {
		out = append(out, describe(kind))
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	api.Success(w, describe(kind), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	v.Record(rec)
	issues := v.Issues()
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Reason)
	}
	api.Success(w, map[string]any{
		"valid":    !v.HasIssues(),
		"messages": messages,
		"fields":   issues,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok || h.rejectUnknown(w, r, rec) {
		return
	}
	actor := actorFrom(r)
	if err := h.Service.Create(r.Context(), actor, rec); err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("record created", "kind", rec.Kind().Token(), "userId", actor.UserID)
	api.Created(w, rec.Values(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleModify(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok || h.rejectUnknown(w, r, rec) {
		return
	}
	actor := actorFrom(r)
	if err := h.Service.Modify(r.Context(), actor, rec); err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("record modified", "kind", rec.Kind().Token(), "userId", actor.UserID)
	api.Success(w, rec.Values(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	if err := h.Service.Approve(r.Context(), actorFrom(r), rec); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, rec.Values(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	employeeID := strings.TrimSpace(chi.URLParam(r, "employeeID"))
	recs, err := h.Service.View(r.Context(), actorFrom(r), kind, employeeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]map[string]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Values())
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSheet(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	employeeID := strings.TrimSpace(chi.URLParam(r, "employeeID"))

	var buf bytes.Buffer
	if err := h.Service.ExportPDF(r.Context(), actorFrom(r), kind, employeeID, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Attachment(w, "application/pdf", fmt.Sprintf("%s-%s.pdf", kind.Token(), employeeID), &buf)
}

// handleAuthorize reports the engine's decision for the caller without
// touching any record.
func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var payload authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	action, ok := permissions.ParseAction(payload.Action)
	if !ok {
		v.Add("action", "must be one of Create, View, Modify, Approve")
	}
	kind, kindOK := records.ParseKind(payload.Kind)
	if !kindOK {
		v.Add("kind", "unknown record kind")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	decision := h.Service.Decide(r.Context(), actorFrom(r), action, records.New(kind, payload.Values))
	api.Success(w, decision, middleware.GetRequestID(r.Context()))
}

func (h *Handler) kindParam(w http.ResponseWriter, r *http.Request) (records.Kind, bool) {
	kind, ok := records.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		api.Fail(w, http.StatusNotFound, "unknown_kind", "unknown record kind", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return kind, true
}

func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (*records.Record, bool) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return nil, false
	}
	var payload recordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return records.New(kind, payload.Values), true
}

func (h *Handler) rejectUnknown(w http.ResponseWriter, r *http.Request, rec *records.Record) bool {
	v := shared.NewValidator()
	for _, name := range rec.UnknownFields() {
		v.Add(name, "is not a field of "+rec.Kind().Name())
	}
	return v.Reject(w, middleware.GetRequestID(r.Context()))
}

func actorFrom(r *http.Request) permissions.Actor {
	user, _ := middleware.GetUser(r.Context())
	return user.Actor()
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var verr *hr.ValidationError
	switch {
	case errors.As(err, &verr):
		issues := make([]shared.ValidationIssue, 0, len(verr.Messages))
		for _, msg := range verr.Messages {
			issues = append(issues, shared.ValidationIssue{Reason: msg})
		}
		shared.FailValidation(w, reqID, issues)
	case errors.Is(err, hr.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", reqID)
	case errors.Is(err, hr.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", reqID)
	default:
		slog.Error("record request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "record_error", "record operation failed", reqID)
	}
}
