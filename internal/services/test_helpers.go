package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/harvestlink/backend/internal/models"
)

// Shared test doubles for the service layer. Each mock uses function fields
// so tests override exactly the calls they care about.

type MockUserStore struct {
	GetByIDFunc               func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc            func(ctx context.Context, email string) (*models.User, error)
	UpdateModerationStateFunc func(ctx context.Context, user *models.User) error

	UpdatedUsers []*models.User
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) UpdateModerationState(ctx context.Context, user *models.User) error {
	snapshot := *user
	m.UpdatedUsers = append(m.UpdatedUsers, &snapshot)
	if m.UpdateModerationStateFunc != nil {
		return m.UpdateModerationStateFunc(ctx, user)
	}
	return nil
}

type MockVendorStore struct {
	GetByUserIDFunc               func(ctx context.Context, userID string) (*models.VendorProfile, error)
	UnverifyAndDeleteProductsFunc func(ctx context.Context, userID string) (int64, error)

	PenalizedUserIDs []string
}

func (m *MockVendorStore) GetByUserID(ctx context.Context, userID string) (*models.VendorProfile, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockVendorStore) UnverifyAndDeleteProducts(ctx context.Context, userID string) (int64, error) {
	m.PenalizedUserIDs = append(m.PenalizedUserIDs, userID)
	if m.UnverifyAndDeleteProductsFunc != nil {
		return m.UnverifyAndDeleteProductsFunc(ctx, userID)
	}
	return 0, nil
}

type MockLoyaltyStore struct {
	GetOrCreateFunc func(ctx context.Context, userID string) (*models.LoyaltyProfile, error)
	SaveFunc        func(ctx context.Context, lp *models.LoyaltyProfile) error

	Saved []*models.LoyaltyProfile
}

func (m *MockLoyaltyStore) GetOrCreate(ctx context.Context, userID string) (*models.LoyaltyProfile, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, userID)
	}
	return &models.LoyaltyProfile{UserID: userID, Rank: models.RankBronze}, nil
}

func (m *MockLoyaltyStore) Save(ctx context.Context, lp *models.LoyaltyProfile) error {
	snapshot := *lp
	m.Saved = append(m.Saved, &snapshot)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, lp)
	}
	return nil
}

// SentNotice captures one Notify call.
type SentNotice struct {
	RecipientID string
	Message     string
	Link        *string
}

type MockNotifier struct {
	Sent []SentNotice
}

func (m *MockNotifier) Notify(ctx context.Context, recipientID, message string, link *string) {
	m.Sent = append(m.Sent, SentNotice{RecipientID: recipientID, Message: message, Link: link})
}

// SentFor returns the notices delivered to one recipient.
func (m *MockNotifier) SentFor(recipientID string) []SentNotice {
	var out []SentNotice
	for _, n := range m.Sent {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

type MockEmailSender struct {
	SendSuspensionNoticeFunc func(ctx context.Context, email, subject, body string) error

	SentSubjects []string
}

func (m *MockEmailSender) SendSuspensionNotice(ctx context.Context, email, subject, body string) error {
	m.SentSubjects = append(m.SentSubjects, subject)
	if m.SendSuspensionNoticeFunc != nil {
		return m.SendSuspensionNoticeFunc(ctx, email, subject, body)
	}
	return nil
}

// RecordedEvent captures one audit Record call.
type RecordedEvent struct {
	EventType string
	ActorID   *string
	TargetID  *string
	Success   bool
	Metadata  models.AuditMetadata
}

type MockAuditRecorder struct {
	Events []RecordedEvent
}

func (m *MockAuditRecorder) Record(ctx context.Context, eventType string, actorID, targetID *string, metadata models.AuditMetadata) {
	m.RecordOutcome(ctx, eventType, actorID, targetID, true, metadata)
}

func (m *MockAuditRecorder) RecordOutcome(ctx context.Context, eventType string, actorID, targetID *string, success bool, metadata models.AuditMetadata) {
	m.Events = append(m.Events, RecordedEvent{
		EventType: eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Success:   success,
		Metadata:  metadata,
	})
}

type MockReportStore struct {
	GetByIDsFunc          func(ctx context.Context, ids []string) ([]*models.MessageReport, error)
	ResolveFunc           func(ctx context.Context, id string, action models.ModerationAction, moderatorID, notes string) error
	DeleteFunc            func(ctx context.Context, id string) error
	SoftDeleteMessageFunc func(ctx context.Context, messageID string) error

	ResolvedIDs       []string
	ResolvedActions   map[string]models.ModerationAction
	DeletedReportIDs  []string
	DeletedMessageIDs []string
}

func (m *MockReportStore) GetByIDs(ctx context.Context, ids []string) ([]*models.MessageReport, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *MockReportStore) Resolve(ctx context.Context, id string, action models.ModerationAction, moderatorID, notes string) error {
	if m.ResolvedActions == nil {
		m.ResolvedActions = make(map[string]models.ModerationAction)
	}
	m.ResolvedIDs = append(m.ResolvedIDs, id)
	m.ResolvedActions[id] = action
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, id, action, moderatorID, notes)
	}
	return nil
}

func (m *MockReportStore) Delete(ctx context.Context, id string) error {
	m.DeletedReportIDs = append(m.DeletedReportIDs, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockReportStore) SoftDeleteMessage(ctx context.Context, messageID string) error {
	m.DeletedMessageIDs = append(m.DeletedMessageIDs, messageID)
	if m.SoftDeleteMessageFunc != nil {
		return m.SoftDeleteMessageFunc(ctx, messageID)
	}
	return nil
}

type MockWarningPurger struct {
	PurgeUnlinkedWarningsFunc func(ctx context.Context, recipientID string) (int64, error)

	PurgedRecipients []string
}

func (m *MockWarningPurger) PurgeUnlinkedWarnings(ctx context.Context, recipientID string) (int64, error) {
	m.PurgedRecipients = append(m.PurgedRecipients, recipientID)
	if m.PurgeUnlinkedWarningsFunc != nil {
		return m.PurgeUnlinkedWarningsFunc(ctx, recipientID)
	}
	return 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSuspensionService builds a suspension engine on the given mocks with
// a frozen clock.
func newTestSuspensionService(users *MockUserStore, vendors *MockVendorStore, loyalty *MockLoyaltyStore, notify *MockNotifier, now time.Time) *SuspensionService {
	svc := NewSuspensionService(users, vendors, loyalty, notify, nil, nil, DefaultSuspensionPolicy(), testLogger())
	svc.now = func() time.Time { return now }
	return svc
}
