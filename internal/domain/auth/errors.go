package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSuspended          = errors.New("system access suspended")
	ErrRoleNotAvailable   = errors.New("role not available to user")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
	ErrSessionExpired     = errors.New("session expired")
)
