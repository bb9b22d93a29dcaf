package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/harvestlink/backend/internal/models"
)

// ReportSubmissionStore is the subset of ReportRepository methods needed to
// submit and list reports.
type ReportSubmissionStore interface {
	Create(ctx context.Context, rep *models.MessageReport) (*models.MessageReport, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*models.MessageReport, error)
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
}

// ReportService handles user-facing report submission and the moderator's
// open-report queue.
type ReportService struct {
	reports ReportSubmissionStore
	logger  *slog.Logger
}

func NewReportService(reports ReportSubmissionStore, logger *slog.Logger) *ReportService {
	return &ReportService{
		reports: reports,
		logger:  logger,
	}
}

// SubmitReport files a report against a message. A user cannot report their
// own message, and one reporter gets one report per message; a duplicate is
// an ErrConflict.
func (s *ReportService) SubmitReport(ctx context.Context, reporterID, messageID, reason string) (*models.MessageReport, error) {
	msg, err := s.reports.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load reported message",
			slog.String("message_id", messageID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if msg.SenderID == reporterID {
		return nil, models.ErrBadRequest
	}

	rep := &models.MessageReport{
		MessageID:  messageID,
		ReporterID: reporterID,
		Reason:     reason,
	}

	created, err := s.reports.Create(ctx, rep)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create report",
			slog.String("message_id", messageID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("message reported",
		slog.String("message_id", messageID),
		slog.String("reporter_id", reporterID))

	return created, nil
}

// ListOpenReports returns the unresolved report queue for moderators.
func (s *ReportService) ListOpenReports(ctx context.Context, limit, offset int) ([]*models.MessageReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	reports, err := s.reports.ListOpen(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list open reports", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return reports, nil
}
