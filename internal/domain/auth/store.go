package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindUser(ctx context.Context, userID string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT u.user_id, u.password_hash, u.has_system_access, COALESCE(u.mfa_secret, ''),
           COALESCE((SELECT e."employeeId" FROM "Employee" e WHERE e."employeeLogin" = u.user_id ORDER BY e."employeeId" LIMIT 1), '')
    FROM users u
    WHERE u.user_id = $1
  `, userID).Scan(&out.ID, &out.PasswordHash, &out.HasSystemAccess, &out.MFASecret, &out.StaffNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) HighestRole(ctx context.Context, staffNo string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, `
    SELECT "newRole"
    FROM "Promotion"
    WHERE "employeeId" = $1
    ORDER BY "startDate" DESC, "promotionId" DESC
    LIMIT 1
  `, staffNo).Scan(&role)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = s.DB.QueryRow(ctx, `
    SELECT "initalRole"
    FROM "InitialEmploymentDetails"
    WHERE "employeeId" = $1
  `, staffNo).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return role, err
}

func (s *Store) CreateUser(ctx context.Context, user User) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (user_id, password_hash, has_system_access, mfa_secret)
    VALUES ($1, $2, $3, NULLIF($4, ''))
    ON CONFLICT (user_id) DO NOTHING
  `, user.ID, user.PasswordHash, user.HasSystemAccess, user.MFASecret)
	return err
}

// SetSystemAccess suspends or restores a user.
func (s *Store) SetSystemAccess(ctx context.Context, userID string, allowed bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET has_system_access = $1 WHERE user_id = $2", allowed, userID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, sessionHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, session_hash, expires_at)
    VALUES ($1, $2, $3)
  `, userID, sessionHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, sessionHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND session_hash = $2", userID, sessionHash)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, sessionHash string, now time.Time) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE user_id = $1 AND session_hash = $2 AND expires_at > $3 AND revoked_at IS NULL
  `, userID, sessionHash, now).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= $1 OR revoked_at IS NOT NULL", now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE user_id = $1", userID)
	return err
}
