package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	// FindUser returns ErrUserNotFound for an unknown id.
	FindUser(ctx context.Context, userID string) (User, error)
	// HighestRole returns the role level of the employee's latest promotion,
	// else their initial role, else "".
	HighestRole(ctx context.Context, staffNo string) (string, error)
	CreateUser(ctx context.Context, user User) error
	CreateSession(ctx context.Context, userID, sessionHash string, expires time.Time) error
	RevokeSession(ctx context.Context, userID, sessionHash string) error
	SessionValid(ctx context.Context, userID, sessionHash string, now time.Time) (bool, error)
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}
