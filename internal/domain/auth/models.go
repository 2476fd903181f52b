package auth

import (
	"time"

	"hrrecords/internal/domain/permissions"
)

type User struct {
	ID              string
	PasswordHash    string
	HasSystemAccess bool
	MFASecret       string
	// StaffNo is the employee id linked through Employee.employeeLogin.
	StaffNo string
}

// UserContext is the authenticated caller carried on a request.
type UserContext struct {
	UserID    string `json:"userId"`
	StaffNo   string `json:"staffNo"`
	RoleName  string `json:"role"`
	RoleLevel int    `json:"roleLevel"`
	SessionID string `json:"-"`
}

func (u UserContext) Actor() permissions.Actor {
	return permissions.Actor{
		UserID:  u.UserID,
		StaffNo: u.StaffNo,
		Role:    permissions.Role{Level: u.RoleLevel, Name: u.RoleName},
	}
}

type LoginRequest struct {
	UserID   string
	Password string
	Role     string
	MFACode  string
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserContext `json:"user"`
}
