package permissions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads and seeds grant tiers in Postgres.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) IsGrantedToRole(ctx context.Context, role Role, capability string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_grants
    WHERE role_level = $1 AND capability = $2
  `, role.Level, capability).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) IsGrantedToDepartment(ctx context.Context, departmentID, capability string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM department_grants
    WHERE department_id = $1 AND capability = $2
  `, departmentID, capability).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) IsGrantedToUser(ctx context.Context, userID, capability string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM user_grants
    WHERE user_id = $1 AND capability = $2
  `, userID, capability).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DepartmentOf(ctx context.Context, staffNo string) (string, error) {
	var departmentID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE("departmentId", '')
    FROM "Employee"
    WHERE "employeeId" = $1
  `, staffNo).Scan(&departmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrDepartmentNotFound
	}
	if err != nil {
		return "", err
	}
	if departmentID == "" {
		return "", ErrDepartmentNotFound
	}
	return departmentID, nil
}

func (s *Store) GrantToRole(ctx context.Context, roleLevel int, capability string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO role_grants (role_level, capability)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, roleLevel, capability)
	return err
}

func (s *Store) GrantToDepartment(ctx context.Context, departmentID, capability string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO department_grants (department_id, capability)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, departmentID, capability)
	return err
}

func (s *Store) GrantToUser(ctx context.Context, userID, capability string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_grants (user_id, capability)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, userID, capability)
	return err
}
