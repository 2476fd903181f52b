package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"hrrecords/internal/domain/permissions"
)

// SecretOpener recovers a stored TOTP seed.
type SecretOpener interface {
	DecryptString(value string) (string, error)
}

type Service struct {
	Store      StoreAPI
	Roles      *permissions.RoleTable
	Secret     string
	SessionTTL time.Duration
	// MFASecrets opens sealed TOTP seeds. Nil means seeds are stored plain.
	MFASecrets SecretOpener

	now func() time.Time
}

func NewService(store StoreAPI, roles *permissions.RoleTable, secret string, sessionTTL time.Duration) *Service {
	return &Service{
		Store:      store,
		Roles:      roles,
		Secret:     secret,
		SessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// AvailableRoles lists the roles a user may log in as, highest first: the
// role from their latest promotion (or initial employment) plus Employee.
func (s *Service) AvailableRoles(ctx context.Context, userID string) ([]permissions.Role, error) {
	user, err := s.Store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasSystemAccess {
		return nil, ErrSuspended
	}
	return s.rolesFor(ctx, user)
}

func (s *Service) rolesFor(ctx context.Context, user User) ([]permissions.Role, error) {
	base, ok := s.Roles.ByLevel(permissions.RoleEmployee.Level)
	if !ok {
		return nil, fmt.Errorf("role table has no level %d", permissions.RoleEmployee.Level)
	}
	out := []permissions.Role{base}
	if user.StaffNo == "" {
		return out, nil
	}

	raw, err := s.Store.HighestRole(ctx, user.StaffNo)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return out, nil
	}
	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("stored role level is not a number", "staffNo", user.StaffNo, "value", raw)
		return out, nil
	}
	highest, ok := s.Roles.ByLevel(level)
	if !ok {
		slog.Warn("stored role level is not in the role table", "staffNo", user.StaffNo, "level", level)
		return out, nil
	}
	if highest.Level == base.Level {
		return out, nil
	}
	return []permissions.Role{highest, base}, nil
}

// Login checks credentials, that the selected role is one the user holds and,
// when enrolled, the TOTP code. It opens a session and returns a signed token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.Store.FindUser(ctx, req.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, req.Password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !user.HasSystemAccess {
		return LoginResult{}, ErrSuspended
	}

	available, err := s.rolesFor(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	role, ok := pickRole(available, req.Role)
	if !ok {
		return LoginResult{}, ErrRoleNotAvailable
	}

	if user.MFASecret != "" {
		if req.MFACode == "" {
			return LoginResult{}, ErrMFARequired
		}
		seed, err := s.openSeed(user.MFASecret)
		if err != nil {
			return LoginResult{}, fmt.Errorf("open mfa secret: %w", err)
		}
		if !totp.Validate(req.MFACode, seed) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	sessionID := uuid.NewString()
	expires := s.now().Add(s.SessionTTL)
	if err := s.Store.CreateSession(ctx, user.ID, HashToken(sessionID), expires); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	claims := Claims{
		UserID:    user.ID,
		StaffNo:   user.StaffNo,
		RoleName:  role.Name,
		RoleLevel: role.Level,
		SessionID: sessionID,
	}
	token, err := GenerateToken(s.Secret, claims, s.SessionTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last login failed", "userId", user.ID, "err", err)
	}

	return LoginResult{Token: token, ExpiresAt: expires, User: claims.UserContext()}, nil
}

func (s *Service) openSeed(stored string) (string, error) {
	if s.MFASecrets == nil {
		return stored, nil
	}
	return s.MFASecrets.DecryptString(stored)
}

func pickRole(available []permissions.Role, name string) (permissions.Role, bool) {
	for _, role := range available {
		if strings.EqualFold(role.Name, strings.TrimSpace(name)) {
			return role, true
		}
	}
	return permissions.Role{}, false
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, user.UserID, HashToken(user.SessionID))
}

func (s *Service) SessionValid(ctx context.Context, userID, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return s.Store.SessionValid(ctx, userID, HashToken(sessionID), s.now())
}

func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.Store.PurgeExpiredSessions(ctx, s.now())
}
