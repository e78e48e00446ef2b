package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/internal/core/domain"
	"github.com/eduka/campus-auth/internal/core/ports"
)

type auditService struct {
	repo      ports.AuthEventRepository
	publisher ports.NotificationPublisher
	log       zerolog.Logger
}

// NewAuditService returns an AuditService. publisher may be nil, in which
// case no welcome notifications are sent.
func NewAuditService(repo ports.AuthEventRepository, publisher ports.NotificationPublisher, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, publisher: publisher, log: log}
}

// Process persists event to the audit trail and, for registrations, asks the
// notification service to send a welcome e-mail.
func (s *auditService) Process(ctx context.Context, event domain.AuthEvent) error {
	// 1. Audit trail.
	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("process auth event: insert: %w", err)
	}

	// 2. Welcome notification (non-fatal on failure).
	if event.Type != domain.EventRegistered || s.publisher == nil || event.Email == "" {
		return nil
	}
	msg := domain.NotificationMessage{
		UserID:    event.UserID,
		Type:      domain.NotificationTypeEmail,
		Subject:   "Welcome to Eduka",
		Message:   fmt.Sprintf("Hello %s, your %s account is ready.", event.Identifier, event.Role),
		Email:     event.Email,
		Timestamp: event.Timestamp,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("user_id", event.UserID).Msg("failed to publish welcome notification")
		return nil
	}

	s.log.Debug().Str("user_id", event.UserID).Msg("welcome notification published")
	return nil
}
