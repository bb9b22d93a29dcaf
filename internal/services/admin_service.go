package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/harvestlink/backend/internal/models"
)

// AdminUserRepository is the subset of UserRepository methods needed by AdminService.
type AdminUserRepository interface {
	CountTotal(ctx context.Context) (int64, error)
	CountSuspended(ctx context.Context) (int64, error)
	CountBanned(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
	CountNewSince(ctx context.Context, since time.Time) (int64, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AdminVendorRepository is the subset of VendorProfileRepository methods
// needed by AdminService.
type AdminVendorRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.VendorProfile, error)
	SetVerified(ctx context.Context, userID string, verified bool) error
	ListPendingVerification(ctx context.Context, limit, offset int) ([]*models.VendorProfile, error)
	CountPendingVerification(ctx context.Context) (int64, error)
}

// AdminReportRepository counts open reports for the dashboard.
type AdminReportRepository interface {
	CountOpen(ctx context.Context) (int64, error)
}

// AdminAuditRepository reads recent moderation events for the activity feed.
type AdminAuditRepository interface {
	GetRecentByEventType(ctx context.Context, eventType string, limit int) ([]*models.AuditLog, error)
	CountTodayByEventType(ctx context.Context, eventType string) (int64, error)
}

// DashboardStatsResponse contains aggregate admin metrics.
type DashboardStatsResponse struct {
	TotalUsers       int64 `json:"total_users"`
	SuspendedUsers   int64 `json:"suspended_users"`
	BannedUsers      int64 `json:"banned_users"`
	VendorCount      int64 `json:"vendor_count"`
	ConsumerCount    int64 `json:"consumer_count"`
	PendingVendors   int64 `json:"pending_vendors"`
	OpenReports      int64 `json:"open_reports"`
	SuspensionsToday int64 `json:"suspensions_today"`
	NewUsersToday    int64 `json:"new_users_today"`
}

// ActivityEntry is a single item in the recent-activity feed.
type ActivityEntry struct {
	Timestamp string                 `json:"timestamp"`
	ActorID   *string                `json:"actor_id,omitempty"`
	TargetID  *string                `json:"target_id,omitempty"`
	EventType string                 `json:"event_type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// DashboardActivityResponse contains recent moderation event feeds.
type DashboardActivityResponse struct {
	RecentSuspensions []ActivityEntry `json:"recent_suspensions"`
	RecentResolutions []ActivityEntry `json:"recent_resolutions"`
}

// AdminService aggregates data for the moderation dashboard and owns the
// vendor verification workflow.
type AdminService struct {
	users     AdminUserRepository
	vendors   AdminVendorRepository
	reports   AdminReportRepository
	auditRepo AdminAuditRepository
	notify    Notifier
	audit     AuditRecorder
	logger    *slog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	users AdminUserRepository,
	vendors AdminVendorRepository,
	reports AdminReportRepository,
	auditRepo AdminAuditRepository,
	notify Notifier,
	audit AuditRecorder,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:     users,
		vendors:   vendors,
		reports:   reports,
		auditRepo: auditRepo,
		notify:    notify,
		audit:     audit,
		logger:    logger,
	}
}

// GetDashboardStats returns aggregate user and moderation counts.
func (s *AdminService) GetDashboardStats(ctx context.Context) (*DashboardStatsResponse, error) {
	total, err := s.users.CountTotal(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count total users", slog.Any("error", err))
		return nil, err
	}

	suspended, err := s.users.CountSuspended(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count suspended users", slog.Any("error", err))
		return nil, err
	}

	banned, err := s.users.CountBanned(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count banned users", slog.Any("error", err))
		return nil, err
	}

	vendorCount, err := s.users.CountByRole(ctx, models.RoleVendor)
	if err != nil {
		s.logger.Error("dashboard: failed to count vendors", slog.Any("error", err))
		return nil, err
	}

	consumerCount, err := s.users.CountByRole(ctx, models.RoleConsumer)
	if err != nil {
		s.logger.Error("dashboard: failed to count consumers", slog.Any("error", err))
		return nil, err
	}

	pendingVendors, err := s.vendors.CountPendingVerification(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count pending vendors", slog.Any("error", err))
		return nil, err
	}

	openReports, err := s.reports.CountOpen(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count open reports", slog.Any("error", err))
		return nil, err
	}

	suspensionsToday, err := s.auditRepo.CountTodayByEventType(ctx, models.AuditEventTypeSuspension)
	if err != nil {
		s.logger.Error("dashboard: failed to count suspensions today", slog.Any("error", err))
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	newToday, err := s.users.CountNewSince(ctx, today)
	if err != nil {
		s.logger.Error("dashboard: failed to count new users today", slog.Any("error", err))
		return nil, err
	}

	return &DashboardStatsResponse{
		TotalUsers:       total,
		SuspendedUsers:   suspended,
		BannedUsers:      banned,
		VendorCount:      vendorCount,
		ConsumerCount:    consumerCount,
		PendingVendors:   pendingVendors,
		OpenReports:      openReports,
		SuspensionsToday: suspensionsToday,
		NewUsersToday:    newToday,
	}, nil
}

// GetRecentActivity returns recent moderation event feeds for the activity
// dashboard. limit is clamped to a maximum of 20.
func (s *AdminService) GetRecentActivity(ctx context.Context, limit int) (*DashboardActivityResponse, error) {
	if limit <= 0 || limit > 20 {
		limit = 20
	}

	suspensions, err := s.auditRepo.GetRecentByEventType(ctx, models.AuditEventTypeSuspension, limit)
	if err != nil {
		s.logger.Error("dashboard: failed to fetch recent suspensions", slog.Any("error", err))
		return nil, err
	}

	resolutions, err := s.auditRepo.GetRecentByEventType(ctx, models.AuditEventTypeReportResolved, limit)
	if err != nil {
		s.logger.Error("dashboard: failed to fetch recent resolutions", slog.Any("error", err))
		return nil, err
	}

	toEntry := func(log *models.AuditLog) ActivityEntry {
		return ActivityEntry{
			Timestamp: log.CreatedAt.UTC().Format(time.RFC3339),
			ActorID:   log.ActorID,
			TargetID:  log.TargetID,
			EventType: log.EventType,
			Metadata:  log.Metadata,
		}
	}

	recentSuspensions := make([]ActivityEntry, 0, len(suspensions))
	for _, l := range suspensions {
		recentSuspensions = append(recentSuspensions, toEntry(l))
	}

	recentResolutions := make([]ActivityEntry, 0, len(resolutions))
	for _, l := range resolutions {
		recentResolutions = append(recentResolutions, toEntry(l))
	}

	return &DashboardActivityResponse{
		RecentSuspensions: recentSuspensions,
		RecentResolutions: recentResolutions,
	}, nil
}

// ListPendingVendors returns vendor profiles awaiting verification.
func (s *AdminService) ListPendingVendors(ctx context.Context, limit, offset int) ([]*models.VendorProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	profiles, err := s.vendors.ListPendingVerification(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list pending vendors", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return profiles, nil
}

// VerifyVendor approves a vendor's shop, restoring their ability to list
// products, and tells them.
func (s *AdminService) VerifyVendor(ctx context.Context, userID, adminID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load user for verification",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.IsPermanentlyBanned {
		return models.ErrForbidden
	}

	if err := s.vendors.SetVerified(ctx, userID, true); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to verify vendor",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	link := "/products/manage/"
	s.notify.Notify(ctx, userID,
		"Congratulations! Your vendor account has been verified. You can now list products.", &link)

	if s.audit != nil {
		s.audit.Record(ctx, models.AuditEventTypeVendorVerified, &adminID, &userID, nil)
	}

	s.logger.Info("vendor verified",
		slog.String("user_id", userID), slog.String("admin_id", adminID))
	return nil
}
