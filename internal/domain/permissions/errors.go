package permissions

import "errors"

var (
	ErrDepartmentNotFound = errors.New("no department for staff number")
	ErrUnknownRole        = errors.New("role is not in the role table")
)
