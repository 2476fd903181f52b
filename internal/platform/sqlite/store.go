// Package sqlite is a single-file storage backend for records, grants and
// identities, for development and small deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"hrrecords/internal/domain/auth"
	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/domain/records"
	"hrrecords/internal/platform/sqlbuild"
)

const MemoryPath = ":memory:"

type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; a single connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, kind := range records.Kinds() {
		ddl, err := sqlbuild.CreateTable(sqlbuild.SQLite, kind)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create %s: %w", kind.Table(), err)
		}
	}
	if _, err := s.db.ExecContext(ctx, infraSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Records.

func (s *Store) Retrieve(ctx context.Context, kind records.Kind, employeeID string) ([]*records.Record, error) {
	stmt, err := sqlbuild.SelectByEmployee(sqlbuild.SQLite, kind, employeeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := records.FieldNames(kind)
	out := []*records.Record{}
	for rows.Next() {
		values := make([]string, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, records.FromRow(kind, names, values))
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, rec *records.Record) error {
	stmt, err := sqlbuild.Insert(sqlbuild.SQLite, rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	return err
}

func (s *Store) Update(ctx context.Context, rec *records.Record) (int64, error) {
	stmt, err := sqlbuild.Update(sqlbuild.SQLite, rec)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Grants.

func (s *Store) count(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) IsGrantedToRole(ctx context.Context, role permissions.Role, capability string) (bool, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM role_grants WHERE role_level = ? AND capability = ?", role.Level, capability)
}

func (s *Store) IsGrantedToDepartment(ctx context.Context, departmentID, capability string) (bool, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM department_grants WHERE department_id = ? AND capability = ?", departmentID, capability)
}

func (s *Store) IsGrantedToUser(ctx context.Context, userID, capability string) (bool, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM user_grants WHERE user_id = ? AND capability = ?", userID, capability)
}

func (s *Store) DepartmentOf(ctx context.Context, staffNo string) (string, error) {
	var departmentID string
	err := s.db.QueryRowContext(ctx, `SELECT "departmentId" FROM "Employee" WHERE "employeeId" = ?`, staffNo).Scan(&departmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", permissions.ErrDepartmentNotFound
	}
	if err != nil {
		return "", err
	}
	if departmentID == "" {
		return "", permissions.ErrDepartmentNotFound
	}
	return departmentID, nil
}

func (s *Store) GrantToRole(ctx context.Context, roleLevel int, capability string) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO role_grants (role_level, capability) VALUES (?, ?)", roleLevel, capability)
	return err
}

func (s *Store) GrantToDepartment(ctx context.Context, departmentID, capability string) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO department_grants (department_id, capability) VALUES (?, ?)", departmentID, capability)
	return err
}

func (s *Store) GrantToUser(ctx context.Context, userID, capability string) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO user_grants (user_id, capability) VALUES (?, ?)", userID, capability)
	return err
}

// Identity.

func (s *Store) FindUser(ctx context.Context, userID string) (auth.User, error) {
	var out auth.User
	err := s.db.QueryRowContext(ctx, `
    SELECT u.user_id, u.password_hash, u.has_system_access, COALESCE(u.mfa_secret, ''),
           COALESCE((SELECT e."employeeId" FROM "Employee" e WHERE e."employeeLogin" = u.user_id ORDER BY e."employeeId" LIMIT 1), '')
    FROM users u
    WHERE u.user_id = ?
  `, userID).Scan(&out.ID, &out.PasswordHash, &out.HasSystemAccess, &out.MFASecret, &out.StaffNo)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	return out, err
}

func (s *Store) HighestRole(ctx context.Context, staffNo string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `
    SELECT "newRole" FROM "Promotion"
    WHERE "employeeId" = ?
    ORDER BY "startDate" DESC, "promotionId" DESC
    LIMIT 1
  `, staffNo).Scan(&role)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	err = s.db.QueryRowContext(ctx, `SELECT "initalRole" FROM "InitialEmploymentDetails" WHERE "employeeId" = ?`, staffNo).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return role, err
}

func (s *Store) CreateUser(ctx context.Context, user auth.User) error {
	_, err := s.db.ExecContext(ctx, `
    INSERT OR IGNORE INTO users (user_id, password_hash, has_system_access, mfa_secret)
    VALUES (?, ?, ?, NULLIF(?, ''))
  `, user.ID, user.PasswordHash, user.HasSystemAccess, user.MFASecret)
	return err
}

// SetSystemAccess suspends or restores a user.
func (s *Store) SetSystemAccess(ctx context.Context, userID string, allowed bool) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET has_system_access = ? WHERE user_id = ?", allowed, userID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, sessionHash string, expires time.Time) error {
	_, err := s.db.ExecContext(ctx, `
    INSERT INTO sessions (user_id, session_hash, expires_at) VALUES (?, ?, ?)
  `, userID, sessionHash, expires.Unix())
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, sessionHash string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND session_hash = ?", time.Now().Unix(), userID, sessionHash)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, sessionHash string, now time.Time) (bool, error) {
	return s.count(ctx, `
    SELECT COUNT(1) FROM sessions
    WHERE user_id = ? AND session_hash = ? AND expires_at > ? AND revoked_at IS NULL
  `, userID, sessionHash, now.Unix())
}

func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL", now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE user_id = ?", time.Now().Unix(), userID)
	return err
}
