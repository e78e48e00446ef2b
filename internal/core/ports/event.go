package ports

import (
	"context"

	"github.com/eduka/campus-auth/internal/core/domain"
)

// AuthEventRecorder accepts audit events without blocking the caller.
type AuthEventRecorder interface {
	Record(event domain.AuthEvent)
}

// AuthEventRepository persists the audit trail.
type AuthEventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// NotificationPublisher hands messages to the notification service.
type NotificationPublisher interface {
	Publish(ctx context.Context, msg domain.NotificationMessage) error
}

// AuditService processes one audit event end to end.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
