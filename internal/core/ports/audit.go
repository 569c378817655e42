package ports

import (
	"context"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}

// AuditPublisher hands events off for asynchronous recording. Publish must not
// block the request path.
type AuditPublisher interface {
	Publish(event domain.AuditEvent)
}

// LoginThrottle limits login attempts per username within a fixed window.
// Attempt counts the attempt and reports whether it is within the limit in one
// step, so concurrent attempts cannot overshoot it. Reset clears the count
// after a successful login.
type LoginThrottle interface {
	Attempt(ctx context.Context, username string) (bool, error)
	Reset(ctx context.Context, username string) error
}
