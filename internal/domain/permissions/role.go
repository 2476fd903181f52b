package permissions

import (
	"fmt"
	"sort"
	"strings"
)

// Role is an authority level an actor selects at login.
type Role struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
}

var (
	RoleEmployee = Role{Level: 1, Name: "Employee"}
	RoleManager  = Role{Level: 2, Name: "Manager"}
	RoleDirector = Role{Level: 3, Name: "Director"}
)

// RoleTable translates between role levels and names. Build it once and pass
// it to whatever needs the translation.
type RoleTable struct {
	byLevel map[int]Role
	byName  map[string]Role
}

func NewRoleTable(roles ...Role) (*RoleTable, error) {
	t := &RoleTable{
		byLevel: make(map[int]Role, len(roles)),
		byName:  make(map[string]Role, len(roles)),
	}
	for _, role := range roles {
		if role.Level <= 0 || strings.TrimSpace(role.Name) == "" {
			return nil, fmt.Errorf("invalid role %+v", role)
		}
		key := strings.ToLower(role.Name)
		if _, ok := t.byLevel[role.Level]; ok {
			return nil, fmt.Errorf("duplicate role level %d", role.Level)
		}
		if _, ok := t.byName[key]; ok {
			return nil, fmt.Errorf("duplicate role name %s", role.Name)
		}
		t.byLevel[role.Level] = role
		t.byName[key] = role
	}
	return t, nil
}

// DefaultRoleTable holds Employee, Manager and Director.
func DefaultRoleTable() *RoleTable {
	t, err := NewRoleTable(RoleEmployee, RoleManager, RoleDirector)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *RoleTable) ByLevel(level int) (Role, bool) {
	role, ok := t.byLevel[level]
	return role, ok
}

func (t *RoleTable) ByName(name string) (Role, bool) {
	role, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return role, ok
}

// Contains reports whether role is exactly a member of the table.
func (t *RoleTable) Contains(role Role) bool {
	known, ok := t.byLevel[role.Level]
	return ok && known.Name == role.Name
}

// Roles returns the members ordered by level, highest first.
func (t *RoleTable) Roles() []Role {
	out := make([]Role, 0, len(t.byLevel))
	for _, role := range t.byLevel {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	return out
}
