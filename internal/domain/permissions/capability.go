package permissions

import (
	"strings"

	"hrrecords/internal/domain/records"
)

const (
	capabilityPrefix = "records"

	// ScopeSelf grants an action on the actor's own records.
	ScopeSelf = "self"
	// ScopeAny grants an action on every employee's records.
	ScopeAny = "*"
)

// Capability formats a capability string. Create capabilities carry no scope:
// "records.<kind>.create". Every other action is
// "records.<kind>.<action>.<scope>" where scope is ScopeSelf, ScopeAny or an
// employee id. Grant seeding and capability generation must both go through
// this function.
func Capability(kind records.Kind, action Action, scope string) string {
	base := capabilityPrefix + "." + kind.Token() + "." + strings.ToLower(action.String())
	if action == ActionCreate {
		return base
	}
	return base + "." + scope
}

// Capabilities lists, most specific ownership first, every capability that
// would let staffNo perform action on target. Approve yields none.
func Capabilities(staffNo string, action Action, target *records.Record) []string {
	if target == nil {
		return nil
	}
	kind := target.Kind()

	switch action {
	case ActionCreate:
		return []string{Capability(kind, action, "")}
	case ActionView, ActionModify:
		var out []string
		employeeID, hasEmployee := target.EmployeeID()
		if hasEmployee && employeeID == staffNo {
			out = append(out, Capability(kind, action, ScopeSelf))
		}
		out = appendUnique(out, Capability(kind, action, ScopeAny))
		if hasEmployee {
			out = appendUnique(out, Capability(kind, action, employeeID))
		}
		return out
	default:
		return nil
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
