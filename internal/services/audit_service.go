package services

import (
	"context"
	"log/slog"

	"github.com/harvestlink/backend/internal/models"
)

// AuditLogStore is the subset of AuditLogRepository methods the audit
// service needs.
type AuditLogStore interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
}

// AuditService records moderation events with a dual-write pattern: an
// immediate slog line plus a best-effort database row for the admin activity
// feed. Persistence failures never propagate.
type AuditService struct {
	repo   AuditLogStore
	logger *slog.Logger
}

func NewAuditService(repo AuditLogStore, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// Record writes one successful audit event. Implements AuditRecorder.
func (s *AuditService) Record(ctx context.Context, eventType string, actorID, targetID *string, metadata models.AuditMetadata) {
	s.RecordOutcome(ctx, eventType, actorID, targetID, true, metadata)
}

// RecordOutcome writes one audit event with an explicit success flag, used
// for events like failed logins where the attempt itself is the record.
func (s *AuditService) RecordOutcome(ctx context.Context, eventType string, actorID, targetID *string, success bool, metadata models.AuditMetadata) {
	attrs := []slog.Attr{
		slog.String("event_type", eventType),
		slog.Bool("success", success),
	}
	if actorID != nil {
		attrs = append(attrs, slog.String("actor_id", *actorID))
	}
	if targetID != nil {
		attrs = append(attrs, slog.String("target_id", *targetID))
	}
	attrs = append(attrs, slog.Any("metadata", metadata))

	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)

	log := &models.AuditLog{
		EventType: eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Success:   success,
		Metadata:  metadata,
	}

	if _, err := s.repo.Create(ctx, log); err != nil {
		s.logger.Error("failed to persist audit log",
			slog.String("event_type", eventType), slog.Any("error", err))
	}
}
