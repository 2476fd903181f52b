package permissions

import (
	"context"
	"errors"
	"log/slog"

	"hrrecords/internal/domain/records"
)

// Gateway is the read side of grant storage the engine depends on. Each call
// is an independent, idempotent read.
type Gateway interface {
	IsGrantedToRole(ctx context.Context, role Role, capability string) (bool, error)
	IsGrantedToDepartment(ctx context.Context, departmentID, capability string) (bool, error)
	IsGrantedToUser(ctx context.Context, userID, capability string) (bool, error)
	// DepartmentOf returns ErrDepartmentNotFound for an unknown staff number.
	DepartmentOf(ctx context.Context, staffNo string) (string, error)
}

// Actor is the authenticated user attempting an action.
type Actor struct {
	UserID  string
	StaffNo string
	Role    Role
}

// Tier names the grant tier that decided an authorization.
type Tier int

const (
	TierNone Tier = iota
	TierRole
	TierDepartment
	TierUser
)

func (t Tier) String() string {
	switch t {
	case TierRole:
		return "role"
	case TierDepartment:
		return "department"
	case TierUser:
		return "user"
	default:
		return "none"
	}
}

// FailurePolicy decides what a failed grant lookup does to the remaining
// tiers. A failure never allows.
type FailurePolicy int

const (
	// ContinueOnFailure treats a failed tier as "no match" and moves on.
	ContinueOnFailure FailurePolicy = iota
	// AbortOnFailure denies as soon as any tier lookup fails.
	AbortOnFailure
)

// Decision is the full outcome of one authorization check.
type Decision struct {
	Allowed      bool     `json:"allowed"`
	Tier         Tier     `json:"-"`
	TierName     string   `json:"tier"`
	Capability   string   `json:"capability,omitempty"`
	Capabilities []string `json:"capabilities"`
	Failures     int      `json:"failures"`
}

type Option func(*Engine)

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithObserver registers a callback that receives every decision.
func WithObserver(fn func(Decision)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine resolves whether an actor may perform an action on a record by
// matching generated capabilities against role, department and user grants,
// in that order. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	gateway   Gateway
	roles     *RoleTable
	policy    FailurePolicy
	observers []func(Decision)
	logger    *slog.Logger
}

func NewEngine(gateway Gateway, roles *RoleTable, opts ...Option) *Engine {
	e := &Engine{
		gateway: gateway,
		roles:   roles,
		policy:  ContinueOnFailure,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Roles() *RoleTable {
	return e.roles
}

// Authorize reports whether actor may perform action on target.
func (e *Engine) Authorize(ctx context.Context, actor Actor, action Action, target *records.Record) bool {
	return e.Decide(ctx, actor, action, target).Allowed
}

type tierCheck struct {
	tier  Tier
	check func(ctx context.Context, capability string) (bool, error)
}

// Decide is Authorize with the deciding tier and capability reported.
func (e *Engine) Decide(ctx context.Context, actor Actor, action Action, target *records.Record) Decision {
	caps := Capabilities(actor.StaffNo, action, target)
	d := Decision{Capabilities: caps}
	if len(caps) == 0 {
		return e.finish(d)
	}

	tiers := []tierCheck{
		{tier: TierRole, check: func(ctx context.Context, capability string) (bool, error) {
			if e.roles == nil || !e.roles.Contains(actor.Role) {
				return false, ErrUnknownRole
			}
			return e.gateway.IsGrantedToRole(ctx, actor.Role, capability)
		}},
		{tier: TierDepartment},
		{tier: TierUser, check: func(ctx context.Context, capability string) (bool, error) {
			return e.gateway.IsGrantedToUser(ctx, actor.UserID, capability)
		}},
	}

	for _, t := range tiers {
		if err := ctx.Err(); err != nil {
			d.Failures++
			e.logger.Warn("authorization cancelled", "tier", t.tier.String(), "err", err)
			return e.finish(d)
		}

		check := t.check
		if t.tier == TierDepartment {
			departmentID, err := e.departmentOf(ctx, actor.StaffNo)
			if errors.Is(err, ErrDepartmentNotFound) {
				continue
			}
			if err != nil {
				d.Failures++
				e.logger.Warn("department lookup failed", "staffNo", actor.StaffNo, "err", err)
				if e.policy == AbortOnFailure {
					return e.finish(d)
				}
				continue
			}
			check = func(ctx context.Context, capability string) (bool, error) {
				return e.gateway.IsGrantedToDepartment(ctx, departmentID, capability)
			}
		}
		if t.tier == TierUser && actor.UserID == "" {
			continue
		}

		capability, granted, err := e.firstGranted(ctx, t.tier, caps, check)
		if granted {
			d.Allowed = true
			d.Tier = t.tier
			d.Capability = capability
			return e.finish(d)
		}
		if err != nil {
			d.Failures++
			if e.policy == AbortOnFailure {
				return e.finish(d)
			}
		}
	}
	return e.finish(d)
}

func (e *Engine) departmentOf(ctx context.Context, staffNo string) (string, error) {
	if staffNo == "" {
		return "", ErrDepartmentNotFound
	}
	return e.gateway.DepartmentOf(ctx, staffNo)
}

// firstGranted stops at the first granted capability. A lookup error ends the
// tier as unmatched.
func (e *Engine) firstGranted(ctx context.Context, tier Tier, caps []string, check func(context.Context, string) (bool, error)) (string, bool, error) {
	for _, capability := range caps {
		granted, err := check(ctx, capability)
		if err != nil {
			e.logger.Warn("grant lookup failed", "tier", tier.String(), "capability", capability, "err", err)
			return "", false, err
		}
		if granted {
			return capability, true, nil
		}
	}
	return "", false, nil
}

func (e *Engine) finish(d Decision) Decision {
	d.TierName = d.Tier.String()
	for _, observe := range e.observers {
		observe(d)
	}
	return d
}
