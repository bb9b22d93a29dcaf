package services

import (
	"context"
	"log/slog"

	"github.com/harvestlink/backend/internal/models"
)

// NotificationStore is the subset of NotificationRepository methods the
// notification sink needs.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

// NotificationService is the in-app notification sink. Writes are
// fire-and-forget: a failed insert is logged and swallowed so it can never
// abort the state transition that produced it.
type NotificationService struct {
	repo   NotificationStore
	logger *slog.Logger
}

func NewNotificationService(repo NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger,
	}
}

// Notify persists a notice for the recipient. Best-effort.
func (s *NotificationService) Notify(ctx context.Context, recipientID, message string, link *string) {
	n := &models.Notification{
		RecipientID: recipientID,
		Message:     message,
		Link:        link,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create notification",
			slog.String("recipient_id", recipientID), slog.Any("error", err))
	}
}

// ListNotifications returns the recipient's notices, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, recipientID string, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	notifications, err := s.repo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notifications",
			slog.String("recipient_id", recipientID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return notifications, nil
}

// MarkRead marks one of the recipient's notices as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		if err == models.ErrNotFound {
			return models.ErrNotFound
		}
		s.logger.Error("failed to mark notification read",
			slog.String("notification_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}
