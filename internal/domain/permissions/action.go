package permissions

import "strings"

// Action is an operation attempted on a record.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionView
	ActionModify
	ActionApprove
)

var actionNames = map[Action]string{
	ActionCreate:  "Create",
	ActionView:    "View",
	ActionModify:  "Modify",
	ActionApprove: "Approve",
}

func (a Action) String() string {
	return actionNames[a]
}

// ParseAction accepts an action name case-insensitively.
func ParseAction(raw string) (Action, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for action, name := range actionNames {
		if strings.ToLower(name) == normalized {
			return action, true
		}
	}
	return 0, false
}
