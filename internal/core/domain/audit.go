package domain

import "time"

// AuditAction names an identity lifecycle change recorded in the audit trail.
type AuditAction string

const (
	AuditUserRegistered  AuditAction = "user.registered"
	AuditUserLogin       AuditAction = "user.login"
	AuditUserUpdated     AuditAction = "user.updated"
	AuditPasswordChanged AuditAction = "user.password_changed"
	AuditUserDeleted     AuditAction = "user.deleted"
)

// AuditEvent describes a completed mutation. ActorID is 0 for anonymous callers.
type AuditEvent struct {
	Action   AuditAction
	ActorID  int
	TargetID int
	Username string
	Fields   []string // changed fields, updates only
	At       time.Time
}
