package hr

import (
	"errors"
	"strings"

	"hrrecords/internal/domain/records"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrRecordNotFound = errors.New("record not found")
)

// ValidationError carries the validator's messages in field order.
type ValidationError struct {
	Kind     records.Kind
	Messages []string
}

func (e *ValidationError) Error() string {
	return e.Kind.Name() + " is invalid: " + strings.Join(e.Messages, "; ")
}
