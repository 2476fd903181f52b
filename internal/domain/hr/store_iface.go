package hr

import (
	"context"

	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/domain/records"
)

type StoreAPI interface {
	// Retrieve returns every stored record of kind for the employee. No rows is
	// an empty slice, not an error.
	Retrieve(ctx context.Context, kind records.Kind, employeeID string) ([]*records.Record, error)
	Insert(ctx context.Context, rec *records.Record) error
	// Update returns the number of rows matched by the natural key.
	Update(ctx context.Context, rec *records.Record) (int64, error)
}

type Authorizer interface {
	Decide(ctx context.Context, actor permissions.Actor, action permissions.Action, target *records.Record) permissions.Decision
}
