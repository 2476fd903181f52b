package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// GrantRule expands to one capability per kind and action. Kinds accept
// display names, tokens or "*" for every kind.
type GrantRule struct {
	Kinds   []string `toml:"kinds"`
	Actions []string `toml:"actions"`
	Scope   string   `toml:"scope"`
}

type RoleGrant struct {
	Role string `toml:"role"`
	GrantRule
}

type DepartmentGrant struct {
	Department string `toml:"department"`
	GrantRule
}

type UserGrant struct {
	User string `toml:"user"`
	GrantRule
}

type SeedUser struct {
	ID           string `toml:"id"`
	Password     string `toml:"password"`
	SystemAccess bool   `toml:"system_access"`
	MFASecret    string `toml:"mfa_secret"`
}

type SeedEmployee struct {
	EmployeeID string `toml:"employee_id"`
	Login      string `toml:"login"`
	Department string `toml:"department"`
	Role       string `toml:"initial_role"`
}

// Grants is the seed file: grant tiers plus optional bootstrap identities.
type Grants struct {
	Roles       []RoleGrant       `toml:"role"`
	Departments []DepartmentGrant `toml:"department"`
	Users       []UserGrant       `toml:"user"`
	Accounts    []SeedUser        `toml:"account"`
	Employees   []SeedEmployee    `toml:"employee"`
}

func LoadGrants(path string) (Grants, error) {
	var out Grants
	meta, err := toml.DecodeFile(path, &out)
	if err != nil {
		return Grants{}, fmt.Errorf("read grants file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Grants{}, fmt.Errorf("grants file %s: unknown key %s", path, undecoded[0].String())
	}
	return out, nil
}

func ParseGrants(data string) (Grants, error) {
	var out Grants
	meta, err := toml.Decode(data, &out)
	if err != nil {
		return Grants{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Grants{}, fmt.Errorf("unknown key %s", undecoded[0].String())
	}
	return out, nil
}
