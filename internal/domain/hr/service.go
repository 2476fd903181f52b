package hr

import (
	"context"
	"fmt"

	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/domain/records"
)

// Service runs the record workflow: validate, authorize, then persist.
//
// Authorization and the storage call that follows are separate steps, so a
// grant revoked between them does not stop an operation already authorized.
// Callers needing a stronger guarantee must serialize grant changes with
// record writes themselves.
type Service struct {
	Store  StoreAPI
	Engine Authorizer
}

func NewService(store StoreAPI, engine Authorizer) *Service {
	return &Service{Store: store, Engine: engine}
}

func (s *Service) Validate(rec *records.Record) []string {
	return records.Validate(rec)
}

func (s *Service) Authorize(ctx context.Context, actor permissions.Actor, action permissions.Action, target *records.Record) bool {
	return s.Engine.Decide(ctx, actor, action, target).Allowed
}

func (s *Service) Decide(ctx context.Context, actor permissions.Actor, action permissions.Action, target *records.Record) permissions.Decision {
	return s.Engine.Decide(ctx, actor, action, target)
}

func (s *Service) Create(ctx context.Context, actor permissions.Actor, rec *records.Record) error {
	if err := s.check(ctx, actor, permissions.ActionCreate, rec); err != nil {
		return err
	}
	if err := s.Store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert %s: %w", rec.Kind().Token(), err)
	}
	return nil
}

func (s *Service) Modify(ctx context.Context, actor permissions.Actor, rec *records.Record) error {
	if err := s.check(ctx, actor, permissions.ActionModify, rec); err != nil {
		return err
	}
	n, err := s.Store.Update(ctx, rec)
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.Kind().Token(), err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// View authorizes against a placeholder carrying only the employee id, so
// nothing is read from storage unless the actor may see it.
func (s *Service) View(ctx context.Context, actor permissions.Actor, kind records.Kind, employeeID string) ([]*records.Record, error) {
	placeholder := records.Placeholder(kind, employeeID)
	if !s.Authorize(ctx, actor, permissions.ActionView, placeholder) {
		return nil, ErrForbidden
	}
	out, err := s.Store.Retrieve(ctx, kind, employeeID)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", kind.Token(), err)
	}
	return out, nil
}

// Approve has no grant scheme and is always refused. The decision still goes
// through the engine so observers see it.
func (s *Service) Approve(ctx context.Context, actor permissions.Actor, rec *records.Record) error {
	s.Authorize(ctx, actor, permissions.ActionApprove, rec)
	return ErrForbidden
}

func (s *Service) check(ctx context.Context, actor permissions.Actor, action permissions.Action, rec *records.Record) error {
	if msgs := records.Validate(rec); len(msgs) > 0 {
		return &ValidationError{Kind: rec.Kind(), Messages: msgs}
	}
	if !s.Authorize(ctx, actor, action, rec) {
		return ErrForbidden
	}
	return nil
}
