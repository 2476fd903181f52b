package db

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"hrrecords/internal/domain/auth"
	"hrrecords/internal/domain/hr"
	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/domain/records"
	"hrrecords/internal/platform/config"
)

type GrantSeeder interface {
	GrantToRole(ctx context.Context, roleLevel int, capability string) error
	GrantToDepartment(ctx context.Context, departmentID, capability string) error
	GrantToUser(ctx context.Context, userID, capability string) error
}

type AccountSeeder interface {
	CreateUser(ctx context.Context, user auth.User) error
	SetSystemAccess(ctx context.Context, userID string, allowed bool) error
}

type SecretSealer interface {
	EncryptString(value string) (string, error)
}

// Seeder loads a grants file into whichever storage backs the gateways.
// Every step is idempotent so it can run on each start.
type Seeder struct {
	Grants   GrantSeeder
	Accounts AccountSeeder
	Records  hr.StoreAPI
	Roles    *permissions.RoleTable

	// MFASecrets seals TOTP seeds before they are stored. Nil stores them plain.
	MFASecrets SecretSealer
}

var scopeEmployee = regexp.MustCompile(`^[0-9]{6}$`)

func (s Seeder) Seed(ctx context.Context, grants config.Grants) error {
	for _, g := range grants.Roles {
		role, ok := s.Roles.ByName(g.Role)
		if !ok {
			return fmt.Errorf("role grant: %w: %s", permissions.ErrUnknownRole, g.Role)
		}
		caps, err := ExpandRule(g.GrantRule)
		if err != nil {
			return fmt.Errorf("role grant %s: %w", g.Role, err)
		}
		for _, c := range caps {
			if err := s.Grants.GrantToRole(ctx, role.Level, c); err != nil {
				return err
			}
		}
	}

	for _, g := range grants.Departments {
		caps, err := ExpandRule(g.GrantRule)
		if err != nil {
			return fmt.Errorf("department grant %s: %w", g.Department, err)
		}
		for _, c := range caps {
			if err := s.Grants.GrantToDepartment(ctx, g.Department, c); err != nil {
				return err
			}
		}
	}

	for _, g := range grants.Users {
		caps, err := ExpandRule(g.GrantRule)
		if err != nil {
			return fmt.Errorf("user grant %s: %w", g.User, err)
		}
		for _, c := range caps {
			if err := s.Grants.GrantToUser(ctx, g.User, c); err != nil {
				return err
			}
		}
	}

	for _, a := range grants.Accounts {
		if err := s.seedAccount(ctx, a); err != nil {
			return err
		}
	}

	for _, e := range grants.Employees {
		if err := s.seedEmployee(ctx, e); err != nil {
			return err
		}
	}

	slog.Info("seed applied",
		"roleGrants", len(grants.Roles),
		"departmentGrants", len(grants.Departments),
		"userGrants", len(grants.Users),
		"accounts", len(grants.Accounts),
		"employees", len(grants.Employees),
	)
	return nil
}

func (s Seeder) seedAccount(ctx context.Context, a config.SeedUser) error {
	if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.Password) == "" {
		return nil
	}
	hash, err := auth.HashPassword(a.Password)
	if err != nil {
		return err
	}
	seed := a.MFASecret
	if seed != "" && s.MFASecrets != nil {
		if seed, err = s.MFASecrets.EncryptString(seed); err != nil {
			return fmt.Errorf("seal mfa secret for %s: %w", a.ID, err)
		}
	}
	err = s.Accounts.CreateUser(ctx, auth.User{
		ID:              a.ID,
		PasswordHash:    hash,
		HasSystemAccess: a.SystemAccess,
		MFASecret:       seed,
	})
	if err != nil {
		return err
	}
	// Existing accounts keep their password and seed; only access follows the file.
	return s.Accounts.SetSystemAccess(ctx, a.ID, a.SystemAccess)
}

func (s Seeder) seedEmployee(ctx context.Context, e config.SeedEmployee) error {
	existing, err := s.Records.Retrieve(ctx, records.Employee, e.EmployeeID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	rec := records.New(records.Employee, map[string]string{
		"employeeId":    e.EmployeeID,
		"employeeLogin": e.Login,
		"departmentId":  e.Department,
	})
	if msgs := records.Validate(rec); len(msgs) > 0 {
		return fmt.Errorf("employee %s: %s", e.EmployeeID, strings.Join(msgs, "; "))
	}
	if err := s.Records.Insert(ctx, rec); err != nil {
		return err
	}

	if e.Role == "" {
		return nil
	}
	return s.Records.Insert(ctx, records.New(records.InitialEmploymentDetails, map[string]string{
		records.FieldEmployeeID:  e.EmployeeID,
		"initialDepartment":      e.Department,
		records.FieldInitialRole: e.Role,
	}))
}

// ExpandRule turns a grant rule into capability strings, one per kind and
// action, all formatted by permissions.Capability.
func ExpandRule(rule config.GrantRule) ([]string, error) {
	kinds, err := expandKinds(rule.Kinds)
	if err != nil {
		return nil, err
	}
	if len(rule.Actions) == 0 {
		return nil, fmt.Errorf("no actions")
	}

	scope := strings.TrimSpace(rule.Scope)
	var out []string
	for _, raw := range rule.Actions {
		action, ok := permissions.ParseAction(raw)
		if !ok {
			return nil, fmt.Errorf("unknown action %q", raw)
		}
		if action == permissions.ActionApprove {
			return nil, fmt.Errorf("approve cannot be granted")
		}
		if action != permissions.ActionCreate && !validScope(scope) {
			return nil, fmt.Errorf("invalid scope %q for %s", scope, action)
		}
		for _, kind := range kinds {
			out = append(out, permissions.Capability(kind, action, scope))
		}
	}
	return out, nil
}

func expandKinds(raw []string) ([]records.Kind, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no kinds")
	}
	var out []records.Kind
	for _, name := range raw {
		if strings.TrimSpace(name) == "*" {
			return records.Kinds(), nil
		}
		kind, ok := records.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q", name)
		}
		out = append(out, kind)
	}
	return out, nil
}

func validScope(scope string) bool {
	return scope == permissions.ScopeSelf || scope == permissions.ScopeAny || scopeEmployee.MatchString(scope)
}
