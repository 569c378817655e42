package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
	ErrRoleNotFound  = errors.New("role not found")
	ErrUserNotFound  = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")

	ErrForbidden                = errors.New("access forbidden")
	ErrCannotModifySystemUser   = errors.New("cannot modify default system users")
	ErrCannotDeleteSystemUser   = errors.New("cannot delete default system users")
	ErrCannotDeleteSelf         = errors.New("cannot delete your own account")
	ErrOldPasswordRequired      = errors.New("old password is required to change password")
	ErrIncorrectCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidRole              = errors.New("invalid role specified")

	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports malformed input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}
