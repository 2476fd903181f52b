package shared

import (
	"net/http"
	"strings"

	"hrrecords/internal/domain/records"
	"hrrecords/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects request issues in the order they are found.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{
		Field:  field,
		Reason: reason,
	})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// Record adds one issue per failing field of rec, in schema order, plus one
// per field name the kind does not define.
func (v *Validator) Record(rec *records.Record) {
	for _, name := range rec.UnknownFields() {
		v.Add(name, "is not a field of "+rec.Kind().Name())
	}
	for _, fe := range records.ValidateFields(rec) {
		v.Add(fe.Field, fe.Message)
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

// FailValidation answers 400 with the issues and their reasons as a flat
// message list, both in the order given.
func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Reason)
	}
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues, "messages": messages},
		requestID,
	)
}
