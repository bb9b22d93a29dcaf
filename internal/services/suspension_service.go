package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harvestlink/backend/internal/models"
)

// SuspensionPolicy holds the escalation knobs. Defaults match the
// marketplace community-guidelines policy.
type SuspensionPolicy struct {
	FirstDuration    time.Duration // level 1
	SecondDuration   time.Duration // level 2
	WarningThreshold int           // warnings that trigger the next suspension
	PointPenalty     int           // loyalty points deducted from consumers
}

// DefaultSuspensionPolicy returns the production policy: 2 days, 1 week,
// 2 warnings, 100 points.
func DefaultSuspensionPolicy() SuspensionPolicy {
	return SuspensionPolicy{
		FirstDuration:    48 * time.Hour,
		SecondDuration:   7 * 24 * time.Hour,
		WarningThreshold: 2,
		PointPenalty:     100,
	}
}

// SuspensionResult describes the outcome of one escalation step.
type SuspensionResult struct {
	Level       int    `json:"level"`
	Duration    string `json:"duration"`
	CanBeLifted bool   `json:"can_be_lifted"`
	Message     string `json:"message"`
}

// SuspensionUserStore is the subset of UserRepository methods the suspension
// engine needs.
type SuspensionUserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateModerationState(ctx context.Context, user *models.User) error
}

// SuspensionVendorStore provides vendor profile reads and the transactional
// penalty unit.
type SuspensionVendorStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.VendorProfile, error)
	UnverifyAndDeleteProducts(ctx context.Context, userID string) (int64, error)
}

// LoyaltyStore provides loyalty profile access with a get-or-create
// baseline.
type LoyaltyStore interface {
	GetOrCreate(ctx context.Context, userID string) (*models.LoyaltyProfile, error)
	Save(ctx context.Context, lp *models.LoyaltyProfile) error
}

// Notifier delivers in-app notices. Implementations must be best-effort:
// they log failures and never return them to the caller.
type Notifier interface {
	Notify(ctx context.Context, recipientID, message string, link *string)
}

// SuspensionEmailSender sends out-of-band email notices for severe
// suspensions. Best-effort.
type SuspensionEmailSender interface {
	SendSuspensionNotice(ctx context.Context, email, subject, body string) error
}

// AuditRecorder persists moderation audit events. Best-effort.
type AuditRecorder interface {
	Record(ctx context.Context, eventType string, actorID, targetID *string, metadata models.AuditMetadata)
	RecordOutcome(ctx context.Context, eventType string, actorID, targetID *string, success bool, metadata models.AuditMetadata)
}

// SuspensionService is the suspension engine: it owns every mutation of an
// account's suspension state and the role-specific side effects that come
// with each level.
type SuspensionService struct {
	users   SuspensionUserStore
	vendors SuspensionVendorStore
	loyalty LoyaltyStore
	notify  Notifier
	email   SuspensionEmailSender
	audit   AuditRecorder
	policy  SuspensionPolicy
	logger  *slog.Logger
	now     func() time.Time
}

// NewSuspensionService creates a new SuspensionService. email and audit may
// be nil; both are optional side channels.
func NewSuspensionService(
	users SuspensionUserStore,
	vendors SuspensionVendorStore,
	loyalty LoyaltyStore,
	notify Notifier,
	email SuspensionEmailSender,
	audit AuditRecorder,
	policy SuspensionPolicy,
	logger *slog.Logger,
) *SuspensionService {
	return &SuspensionService{
		users:   users,
		vendors: vendors,
		loyalty: loyalty,
		notify:  notify,
		email:   email,
		audit:   audit,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

const suspensionDateFormat = "January 2, 2006 at 3:04 PM"

// ApplySuspension advances the account one suspension level and applies the
// level's side effects. Each call always escalates from whatever
// SuspensionCount currently holds; callers decide when a violation warrants
// it. The account mutation is persisted before any notification goes out,
// and notification failures never roll it back.
func (s *SuspensionService) ApplySuspension(ctx context.Context, user *models.User, reason string) (*SuspensionResult, error) {
	if reason == "" {
		reason = "community guidelines violation"
	}

	user.SuspensionCount++
	user.IsActive = false

	var result *SuspensionResult
	var err error

	switch {
	case user.SuspensionCount == 1:
		result, err = s.applyTimedSuspension(ctx, user, reason, 1, s.policy.FirstDuration, "2 days")
	case user.SuspensionCount == 2:
		result, err = s.applyTimedSuspension(ctx, user, reason, 2, s.policy.SecondDuration, "1 week")
	default:
		result, err = s.applyPermanentBan(ctx, user)
	}
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, models.AuditEventTypeSuspension, nil, &user.ID, models.AuditMetadata{
		"level":  result.Level,
		"reason": reason,
	})

	return result, nil
}

func (s *SuspensionService) applyTimedSuspension(ctx context.Context, user *models.User, reason string, level int, duration time.Duration, durationLabel string) (*SuspensionResult, error) {
	endDate := s.now().Add(duration)
	user.IsSuspended = true
	user.SuspensionEndDate = &endDate

	if err := s.users.UpdateModerationState(ctx, user); err != nil {
		s.logger.Error("failed to persist suspension",
			slog.String("user_id", user.ID), slog.Int("level", level), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if level == 1 {
		s.notify.Notify(ctx, user.ID, fmt.Sprintf(
			"Your account has been SUSPENDED for 2 days due to %s. You can access your account again after %s.",
			reason, endDate.Format(suspensionDateFormat)), nil)
	} else {
		s.notify.Notify(ctx, user.ID, fmt.Sprintf(
			"Your account has been SUSPENDED for 1 WEEK due to repeated violations. You can access your account again after %s.",
			endDate.Format(suspensionDateFormat)), nil)
		s.sendEmail(ctx, user, "Account suspended for 1 week", fmt.Sprintf(
			"Your account has been suspended for one week due to repeated violations. Access resumes after %s.",
			endDate.Format(suspensionDateFormat)))
	}

	switch user.Role {
	case models.RoleVendor:
		if level == 1 {
			// Posting is blocked by the eligibility check; the vendor only
			// gets told about it.
			s.notify.Notify(ctx, user.ID, "During suspension, you cannot add or edit products.", nil)
		} else {
			s.penalizeVendor(ctx, user)
			link := "/become-vendor/"
			s.notify.Notify(ctx, user.ID,
				"Your vendor account has been unverified and all products have been removed. You must wait 1 week and reapply for verification.",
				&link)
		}
	case models.RoleConsumer:
		s.deductPoints(ctx, user)
		if level == 1 {
			s.notify.Notify(ctx, user.ID, fmt.Sprintf(
				"%d loyalty points have been deducted from your account.", s.policy.PointPenalty), nil)
		} else {
			s.notify.Notify(ctx, user.ID, fmt.Sprintf(
				"%d loyalty points have been deducted. You cannot checkout products during this suspension.",
				s.policy.PointPenalty), nil)
		}
	}

	s.logger.Info("suspension applied",
		slog.String("user_id", user.ID),
		slog.Int("level", level),
		slog.String("role", string(user.Role)),
		slog.Time("ends_at", endDate))

	return &SuspensionResult{
		Level:       level,
		Duration:    durationLabel,
		CanBeLifted: true,
		Message:     fmt.Sprintf("User suspended for %s", durationLabel),
	}, nil
}

func (s *SuspensionService) applyPermanentBan(ctx context.Context, user *models.User) (*SuspensionResult, error) {
	user.IsPermanentlyBanned = true
	user.IsSuspended = false
	user.SuspensionEndDate = nil

	if err := s.users.UpdateModerationState(ctx, user); err != nil {
		s.logger.Error("failed to persist permanent ban",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.notify.Notify(ctx, user.ID,
		"Your account has been PERMANENTLY BANNED due to repeated serious violations of our community guidelines. This action cannot be reversed.",
		nil)
	s.sendEmail(ctx, user, "Account permanently banned",
		"Your account has been permanently banned due to repeated serious violations of our community guidelines. This action cannot be reversed.")

	if user.Role == models.RoleVendor {
		s.penalizeVendor(ctx, user)
	}

	s.logger.Info("permanent ban applied",
		slog.String("user_id", user.ID),
		slog.Int("suspension_count", user.SuspensionCount))

	return &SuspensionResult{
		Level:       models.MaxSuspensionLevel,
		Duration:    "Permanent",
		CanBeLifted: false,
		Message:     "User permanently banned",
	}, nil
}

// deductPoints takes the policy penalty off the consumer's balance, clamped
// at zero, creating a zero-point profile first when none exists.
func (s *SuspensionService) deductPoints(ctx context.Context, user *models.User) {
	lp, err := s.loyalty.GetOrCreate(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to load loyalty profile for deduction",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}

	lp.Deduct(s.policy.PointPenalty)

	if err := s.loyalty.Save(ctx, lp); err != nil {
		s.logger.Error("failed to save loyalty deduction",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

// penalizeVendor runs the transactional de-verify + delete-products unit. A
// vendor account without a profile is a logged no-op; the suspension itself
// stands.
func (s *SuspensionService) penalizeVendor(ctx context.Context, user *models.User) {
	deleted, err := s.vendors.UnverifyAndDeleteProducts(ctx, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("vendor has no profile, skipping penalty",
				slog.String("user_id", user.ID))
			return
		}
		s.logger.Error("vendor penalty failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}

	// Demotion happened inside the penalty transaction; mirror it on the
	// in-memory account.
	user.Role = models.RoleConsumer

	s.logger.Info("vendor unverified and products removed",
		slog.String("user_id", user.ID),
		slog.Int64("products_deleted", deleted))
}

// CheckAndLiftSuspension lifts an expired timed suspension and reports
// whether a lift occurred. Permanent bans are never lifted. Called on every
// authenticated request by the suspension gate, so expiry is observed on the
// next request with no background job.
func (s *SuspensionService) CheckAndLiftSuspension(ctx context.Context, user *models.User) (bool, error) {
	if user.IsPermanentlyBanned {
		return false, nil
	}

	if !user.SuspensionExpired(s.now()) {
		return false, nil
	}

	user.IsSuspended = false
	user.SuspensionEndDate = nil
	user.IsActive = true

	if err := s.users.UpdateModerationState(ctx, user); err != nil {
		s.logger.Error("failed to lift suspension",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	s.notify.Notify(ctx, user.ID,
		"Your suspension period has ended. Welcome back! Please follow our community guidelines.", nil)

	s.recordAudit(ctx, models.AuditEventTypeSuspensionLift, nil, &user.ID, models.AuditMetadata{
		"suspension_count": user.SuspensionCount,
	})

	s.logger.Info("suspension lifted", slog.String("user_id", user.ID))
	return true, nil
}

// CanUserAddEditProducts answers the posting eligibility predicate for the
// product handlers. Read-only.
func (s *SuspensionService) CanUserAddEditProducts(ctx context.Context, user *models.User) (bool, error) {
	if user.Role != models.RoleVendor {
		return false, nil
	}

	vp, err := s.vendors.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		s.logger.Error("failed to load vendor profile",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	return models.CanAddEditProducts(user, vp), nil
}

// CanUserCheckout answers the checkout eligibility predicate. Read-only.
func (s *SuspensionService) CanUserCheckout(user *models.User) bool {
	return models.CanCheckout(user)
}

// SuspensionStatusMessage renders the human-readable account standing shown
// on profile pages and the admin user list.
func (s *SuspensionService) SuspensionStatusMessage(user *models.User) string {
	if user.IsPermanentlyBanned {
		return "Permanently Banned"
	}

	if user.IsSuspended && user.SuspensionEndDate != nil {
		remaining := user.SuspensionEndDate.Sub(s.now())
		days := int(remaining.Hours()) / 24
		hours := int(remaining.Hours()) % 24

		switch {
		case days > 0:
			return fmt.Sprintf("Suspended for %d more day(s)", days)
		case hours > 0:
			return fmt.Sprintf("Suspended for %d more hour(s)", hours)
		default:
			return "Suspension ending soon"
		}
	}

	return fmt.Sprintf("Active (Suspensions: %d/%d)", user.SuspensionCount, models.MaxSuspensionLevel)
}

func (s *SuspensionService) sendEmail(ctx context.Context, user *models.User, subject, body string) {
	if s.email == nil || user.Email == "" {
		return
	}

	if err := s.email.SendSuspensionNotice(ctx, user.Email, subject, body); err != nil {
		s.logger.Error("failed to send suspension email",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

func (s *SuspensionService) recordAudit(ctx context.Context, eventType string, actorID, targetID *string, metadata models.AuditMetadata) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, eventType, actorID, targetID, metadata)
}
