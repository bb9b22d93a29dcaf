package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harvestlink/backend/internal/models"
)

// ModerationAction is a bulk action an administrator takes over a selection
// of message reports.
type ModerationAction string

const (
	ModerationActionResolve       ModerationAction = "resolve"
	ModerationActionWarn          ModerationAction = "warn"
	ModerationActionDeleteMessage ModerationAction = "delete_message"
	ModerationActionDeleteReport  ModerationAction = "delete_report"
	ModerationActionBan           ModerationAction = "ban"
)

// Valid reports whether a is a known bulk action.
func (a ModerationAction) Valid() bool {
	switch a {
	case ModerationActionResolve, ModerationActionWarn, ModerationActionDeleteMessage,
		ModerationActionDeleteReport, ModerationActionBan:
		return true
	}
	return false
}

// ModerationReportStore is the subset of ReportRepository methods the
// moderation engine needs.
type ModerationReportStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]*models.MessageReport, error)
	Resolve(ctx context.Context, id string, action models.ModerationAction, moderatorID, notes string) error
	Delete(ctx context.Context, id string) error
	SoftDeleteMessage(ctx context.Context, messageID string) error
}

// ModerationUserStore reads and mutates warning state on accounts.
type ModerationUserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateModerationState(ctx context.Context, user *models.User) error
}

// WarningPurger removes stale link-less warning notifications. Best-effort.
type WarningPurger interface {
	PurgeUnlinkedWarnings(ctx context.Context, recipientID string) (int64, error)
}

// ModerationSummary is the per-batch outcome shown to the administrator.
type ModerationSummary struct {
	ReportsResolved int `json:"reports_resolved"`
	ReportsDeleted  int `json:"reports_deleted"`
	MessagesDeleted int `json:"messages_deleted"`
	UsersWarned     int `json:"users_warned"`
	UsersSuspended  int `json:"users_suspended"`
	Skipped         int `json:"skipped"`
}

// Text renders the summary the way the moderation dashboard displays it.
func (ms *ModerationSummary) Text() string {
	parts := make([]string, 0, 3)
	if ms.UsersWarned > 0 {
		parts = append(parts, fmt.Sprintf("Warned %d user(s)", ms.UsersWarned))
	}
	if ms.UsersSuspended > 0 {
		parts = append(parts, fmt.Sprintf("Suspended %d user(s)", ms.UsersSuspended))
	}
	if ms.MessagesDeleted > 0 {
		parts = append(parts, fmt.Sprintf("Deleted %d message(s)", ms.MessagesDeleted))
	}
	if ms.ReportsDeleted > 0 {
		parts = append(parts, fmt.Sprintf("Deleted %d report(s)", ms.ReportsDeleted))
	}
	if ms.ReportsResolved > 0 {
		parts = append(parts, fmt.Sprintf("Resolved %d report(s)", ms.ReportsResolved))
	}
	if len(parts) == 0 {
		return "No reports required action"
	}
	return strings.Join(parts, " and ")
}

// ModerationService interprets administrator bulk actions over message
// reports and drives warning accumulation into the suspension engine.
type ModerationService struct {
	reports    ModerationReportStore
	users      ModerationUserStore
	notify     Notifier
	purger     WarningPurger
	suspension *SuspensionService
	audit      AuditRecorder
	threshold  int
	logger     *slog.Logger
}

// NewModerationService creates a new ModerationService. audit may be nil.
func NewModerationService(
	reports ModerationReportStore,
	users ModerationUserStore,
	notify Notifier,
	purger WarningPurger,
	suspension *SuspensionService,
	audit AuditRecorder,
	threshold int,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		reports:    reports,
		users:      users,
		notify:     notify,
		purger:     purger,
		suspension: suspension,
		audit:      audit,
		threshold:  threshold,
		logger:     logger,
	}
}

// ResolveReports applies one bulk action to a selection of reports. Reports
// that no longer exist are treated as already processed and skipped. An
// empty selection or unknown action is a validation error with no state
// change.
func (s *ModerationService) ResolveReports(ctx context.Context, reportIDs []string, action ModerationAction, moderatorID string) (*ModerationSummary, error) {
	if len(reportIDs) == 0 {
		return nil, fmt.Errorf("%w: no reports selected", models.ErrBadRequest)
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown moderation action %q", models.ErrBadRequest, action)
	}

	reports, err := s.reports.GetByIDs(ctx, reportIDs)
	if err != nil {
		s.logger.Error("failed to load reports", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	summary := &ModerationSummary{Skipped: len(reportIDs) - len(reports)}

	// Stale link-less warning notices for every offending sender go first,
	// so resolved reports do not leave dead warnings behind. Best-effort.
	for senderID := range distinctSenders(reports) {
		if _, err := s.purger.PurgeUnlinkedWarnings(ctx, senderID); err != nil {
			s.logger.Warn("failed to purge stale warning notifications",
				slog.String("user_id", senderID), slog.Any("error", err))
		}
	}

	switch action {
	case ModerationActionResolve:
		err = s.resolveWithoutAction(ctx, reports, moderatorID, summary)
	case ModerationActionDeleteMessage:
		err = s.deleteMessages(ctx, reports, moderatorID, summary)
	case ModerationActionDeleteReport:
		err = s.deleteReports(ctx, reports, summary)
	case ModerationActionWarn:
		err = s.warnSenders(ctx, reports, moderatorID, summary)
	case ModerationActionBan:
		err = s.banSenders(ctx, reports, moderatorID, summary)
	}
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, moderatorID, string(action), summary)

	return summary, nil
}

// resolveWithoutAction closes every report with no side effects on the
// message or its sender.
func (s *ModerationService) resolveWithoutAction(ctx context.Context, reports []*models.MessageReport, moderatorID string, summary *ModerationSummary) error {
	for _, rep := range reports {
		if err := s.resolveOne(ctx, rep.ID, models.ActionNone, moderatorID, "Resolved without action."); err != nil {
			return err
		}
		summary.ReportsResolved++
	}
	return nil
}

// deleteMessages soft-deletes each reported message and notifies the sender
// once per distinct sender within the batch.
func (s *ModerationService) deleteMessages(ctx context.Context, reports []*models.MessageReport, moderatorID string, summary *ModerationSummary) error {
	notified := make(map[string]bool)

	for _, rep := range reports {
		if err := s.reports.SoftDeleteMessage(ctx, rep.MessageID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				summary.Skipped++
				continue
			}
			s.logger.Error("failed to soft-delete message",
				slog.String("message_id", rep.MessageID), slog.Any("error", err))
			return models.ErrInternalServer
		}
		summary.MessagesDeleted++

		if err := s.resolveOne(ctx, rep.ID, models.ActionDelete, moderatorID, "Message removed by moderator."); err != nil {
			return err
		}
		summary.ReportsResolved++

		if !notified[rep.SenderID] {
			notified[rep.SenderID] = true
			s.notify.Notify(ctx, rep.SenderID,
				"One of your messages has been removed by a moderator for violating our community guidelines.", nil)
		}
	}
	return nil
}

// deleteReports removes the report rows entirely: no notification, no effect
// on the message or the sender's warning state.
func (s *ModerationService) deleteReports(ctx context.Context, reports []*models.MessageReport, summary *ModerationSummary) error {
	for _, rep := range reports {
		if err := s.reports.Delete(ctx, rep.ID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				summary.Skipped++
				continue
			}
			s.logger.Error("failed to delete report",
				slog.String("report_id", rep.ID), slog.Any("error", err))
			return models.ErrInternalServer
		}
		summary.ReportsDeleted++
	}
	return nil
}

// warnSenders increments the warning count once per distinct offending
// sender in the batch. Reaching the threshold escalates into the suspension
// engine instead of a plain warning notice.
func (s *ModerationService) warnSenders(ctx context.Context, reports []*models.MessageReport, moderatorID string, summary *ModerationSummary) error {
	for senderID, senderReports := range distinctSenders(reports) {
		user, err := s.users.GetByID(ctx, senderID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				summary.Skipped += len(senderReports)
				continue
			}
			s.logger.Error("failed to load reported sender",
				slog.String("user_id", senderID), slog.Any("error", err))
			return models.ErrInternalServer
		}

		user.WarningCount++

		if user.WarningCount >= s.threshold {
			if _, err := s.suspension.ApplySuspension(ctx, user, "accumulated warnings"); err != nil {
				return err
			}
			summary.UsersSuspended++
		} else {
			if err := s.users.UpdateModerationState(ctx, user); err != nil {
				s.logger.Error("failed to persist warning",
					slog.String("user_id", senderID), slog.Any("error", err))
				return models.ErrInternalServer
			}
			remaining := s.threshold - user.WarningCount
			s.notify.Notify(ctx, senderID, fmt.Sprintf(
				"You have received a warning for violating our community guidelines. You have %d warning(s); %d more will result in account suspension.",
				user.WarningCount, remaining), nil)
			summary.UsersWarned++
		}

		notes := fmt.Sprintf("Sender warned (total warnings: %d).", user.WarningCount)
		for _, rep := range senderReports {
			if err := s.resolveOne(ctx, rep.ID, models.ActionWarn, moderatorID, notes); err != nil {
				return err
			}
			summary.ReportsResolved++
		}
	}
	return nil
}

// banSenders forces the warning count to the threshold and escalates every
// distinct offending sender regardless of their current count.
func (s *ModerationService) banSenders(ctx context.Context, reports []*models.MessageReport, moderatorID string, summary *ModerationSummary) error {
	for senderID, senderReports := range distinctSenders(reports) {
		user, err := s.users.GetByID(ctx, senderID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				summary.Skipped += len(senderReports)
				continue
			}
			s.logger.Error("failed to load reported sender",
				slog.String("user_id", senderID), slog.Any("error", err))
			return models.ErrInternalServer
		}

		user.WarningCount = s.threshold

		if _, err := s.suspension.ApplySuspension(ctx, user, "a serious community guidelines violation"); err != nil {
			return err
		}
		summary.UsersSuspended++

		for _, rep := range senderReports {
			if err := s.resolveOne(ctx, rep.ID, models.ActionBan, moderatorID, "Sender suspended by moderator."); err != nil {
				return err
			}
			summary.ReportsResolved++
		}
	}
	return nil
}

// resolveOne marks a single report resolved. A report that disappeared
// underneath us counts as already processed.
func (s *ModerationService) resolveOne(ctx context.Context, reportID string, action models.ModerationAction, moderatorID, notes string) error {
	if err := s.reports.Resolve(ctx, reportID, action, moderatorID, notes); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to resolve report",
			slog.String("report_id", reportID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// distinctSenders groups reports by the offending sender so batch actions
// penalize each sender once however many of their messages were reported.
func distinctSenders(reports []*models.MessageReport) map[string][]*models.MessageReport {
	bySender := make(map[string][]*models.MessageReport)
	for _, rep := range reports {
		bySender[rep.SenderID] = append(bySender[rep.SenderID], rep)
	}
	return bySender
}

func (s *ModerationService) recordAudit(ctx context.Context, moderatorID, action string, summary *ModerationSummary) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditEventTypeReportResolved, &moderatorID, nil, models.AuditMetadata{
		"action":           action,
		"reports_resolved": summary.ReportsResolved,
		"reports_deleted":  summary.ReportsDeleted,
		"users_warned":     summary.UsersWarned,
		"users_suspended":  summary.UsersSuspended,
	})
}
