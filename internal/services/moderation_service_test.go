package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/harvestlink/backend/internal/models"
)

func report(id, messageID, senderID string) *models.MessageReport {
	return &models.MessageReport{
		ID:        id,
		MessageID: messageID,
		SenderID:  senderID,
		Reason:    "offensive content",
	}
}

type moderationFixture struct {
	reports *MockReportStore
	users   *MockUserStore
	notify  *MockNotifier
	purger  *MockWarningPurger
	svc     *ModerationService
}

func newModerationFixture(t *testing.T, batch []*models.MessageReport, usersByID map[string]*models.User) *moderationFixture {
	t.Helper()

	reports := &MockReportStore{
		GetByIDsFunc: func(ctx context.Context, ids []string) ([]*models.MessageReport, error) {
			return batch, nil
		},
	}
	users := &MockUserStore{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if u, ok := usersByID[id]; ok {
				return u, nil
			}
			return nil, models.ErrNotFound
		},
	}
	notify := &MockNotifier{}
	purger := &MockWarningPurger{}

	suspension := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, notify, frozenNow)
	svc := NewModerationService(reports, users, notify, purger, suspension, nil, DefaultSuspensionPolicy().WarningThreshold, testLogger())

	return &moderationFixture{
		reports: reports,
		users:   users,
		notify:  notify,
		purger:  purger,
		svc:     svc,
	}
}

func TestResolveReports_EmptySelection(t *testing.T) {
	f := newModerationFixture(t, nil, nil)

	_, err := f.svc.ResolveReports(context.Background(), nil, ModerationActionWarn, "admin-1")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestResolveReports_UnknownAction(t *testing.T) {
	f := newModerationFixture(t, nil, nil)

	_, err := f.svc.ResolveReports(context.Background(), []string{"r1"}, ModerationAction("escalate"), "admin-1")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestResolveReports_ResolveWithoutAction(t *testing.T) {
	batch := []*models.MessageReport{
		report("r1", "m1", "sender-1"),
		report("r2", "m2", "sender-2"),
	}
	f := newModerationFixture(t, batch, nil)

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1", "r2"}, ModerationActionResolve, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ReportsResolved)
	assert.Zero(t, summary.UsersWarned)
	assert.Equal(t, models.ActionNone, f.reports.ResolvedActions["r1"])
	assert.Equal(t, "Resolved 2 report(s)", summary.Text())
}

func TestResolveReports_WarnDedupesSender(t *testing.T) {
	// Two reports against the same sender in one batch count as one warning.
	sender := consumerUser()
	sender.ID = "sender-1"
	batch := []*models.MessageReport{
		report("r1", "m1", "sender-1"),
		report("r2", "m2", "sender-1"),
	}
	f := newModerationFixture(t, batch, map[string]*models.User{"sender-1": sender})

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1", "r2"}, ModerationActionWarn, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 1, sender.WarningCount)
	assert.Equal(t, 1, summary.UsersWarned)
	assert.Zero(t, summary.UsersSuspended)
	assert.Equal(t, 2, summary.ReportsResolved, "both reports close even though only one warning lands")
	assert.Equal(t, models.ActionWarn, f.reports.ResolvedActions["r1"])
	assert.Equal(t, models.ActionWarn, f.reports.ResolvedActions["r2"])

	notices := f.notify.SentFor("sender-1")
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Message, "You have received a warning")
	assert.Contains(t, notices[0].Message, "1 warning(s); 1 more will result in account suspension")
}

func TestResolveReports_WarnAtThresholdSuspends(t *testing.T) {
	sender := consumerUser()
	sender.ID = "sender-1"
	sender.WarningCount = 1
	batch := []*models.MessageReport{report("r1", "m1", "sender-1")}
	f := newModerationFixture(t, batch, map[string]*models.User{"sender-1": sender})

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1"}, ModerationActionWarn, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 2, sender.WarningCount)
	assert.True(t, sender.IsSuspended)
	assert.Equal(t, 1, sender.SuspensionCount)
	assert.Equal(t, 1, summary.UsersSuspended)
	assert.Zero(t, summary.UsersWarned)

	var suspensionNotice bool
	for _, n := range f.notify.SentFor("sender-1") {
		if strings.Contains(n.Message, "SUSPENDED for 2 days") {
			suspensionNotice = true
		}
	}
	assert.True(t, suspensionNotice)
}

func TestResolveReports_BanAlwaysSuspends(t *testing.T) {
	// Ban escalates even a sender with zero warnings.
	sender := consumerUser()
	sender.ID = "sender-1"
	batch := []*models.MessageReport{report("r1", "m1", "sender-1")}
	f := newModerationFixture(t, batch, map[string]*models.User{"sender-1": sender})

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1"}, ModerationActionBan, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, DefaultSuspensionPolicy().WarningThreshold, sender.WarningCount)
	assert.True(t, sender.IsSuspended)
	assert.Equal(t, 1, summary.UsersSuspended)
	assert.Equal(t, models.ActionBan, f.reports.ResolvedActions["r1"])
}

func TestResolveReports_BanThirdTimePermanent(t *testing.T) {
	sender := consumerUser()
	sender.ID = "sender-1"
	sender.SuspensionCount = 2
	batch := []*models.MessageReport{report("r1", "m1", "sender-1")}
	f := newModerationFixture(t, batch, map[string]*models.User{"sender-1": sender})

	_, err := f.svc.ResolveReports(context.Background(), []string{"r1"}, ModerationActionBan, "admin-1")
	require.NoError(t, err)

	assert.True(t, sender.IsPermanentlyBanned)
	assert.Nil(t, sender.SuspensionEndDate)
}

func TestResolveReports_DeleteMessageNotifiesOncePerSender(t *testing.T) {
	batch := []*models.MessageReport{
		report("r1", "m1", "sender-1"),
		report("r2", "m2", "sender-1"),
		report("r3", "m3", "sender-2"),
	}
	f := newModerationFixture(t, batch, nil)

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1", "r2", "r3"}, ModerationActionDeleteMessage, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.MessagesDeleted)
	assert.Equal(t, 3, summary.ReportsResolved)
	assert.ElementsMatch(t, []string{"m1", "m2", "m3"}, f.reports.DeletedMessageIDs)

	assert.Len(t, f.notify.SentFor("sender-1"), 1, "sender told once however many messages got removed")
	assert.Len(t, f.notify.SentFor("sender-2"), 1)
}

func TestResolveReports_DeleteReportRemovesRows(t *testing.T) {
	batch := []*models.MessageReport{
		report("r1", "m1", "sender-1"),
		report("r2", "m2", "sender-2"),
	}
	f := newModerationFixture(t, batch, nil)

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1", "r2"}, ModerationActionDeleteReport, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ReportsDeleted)
	assert.ElementsMatch(t, []string{"r1", "r2"}, f.reports.DeletedReportIDs)
	assert.Empty(t, f.reports.ResolvedIDs, "delete_report leaves no resolution trail")
	assert.Empty(t, f.notify.Sent, "sender is not told about deleted reports")
}

func TestResolveReports_MissingReportsSkipped(t *testing.T) {
	// Only one of the two requested IDs still exists.
	batch := []*models.MessageReport{report("r1", "m1", "sender-1")}
	f := newModerationFixture(t, batch, nil)

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1", "gone"}, ModerationActionResolve, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ReportsResolved)
	assert.Equal(t, 1, summary.Skipped)
}

func TestResolveReports_MissingSenderSkipped(t *testing.T) {
	batch := []*models.MessageReport{report("r1", "m1", "ghost")}
	f := newModerationFixture(t, batch, map[string]*models.User{})

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1"}, ModerationActionWarn, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.UsersWarned)
}

func TestResolveReports_PurgesStaleWarnings(t *testing.T) {
	batch := []*models.MessageReport{
		report("r1", "m1", "sender-1"),
		report("r2", "m2", "sender-2"),
	}
	f := newModerationFixture(t, batch, nil)

	_, err := f.svc.ResolveReports(context.Background(), []string{"r1", "r2"}, ModerationActionResolve, "admin-1")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"sender-1", "sender-2"}, f.purger.PurgedRecipients)
}

func TestResolveReports_PurgeFailureDoesNotAbort(t *testing.T) {
	batch := []*models.MessageReport{report("r1", "m1", "sender-1")}
	f := newModerationFixture(t, batch, nil)
	f.purger.PurgeUnlinkedWarningsFunc = func(ctx context.Context, recipientID string) (int64, error) {
		return 0, models.ErrInternalServer
	}

	summary, err := f.svc.ResolveReports(context.Background(), []string{"r1"}, ModerationActionResolve, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ReportsResolved)
}

func TestModerationSummaryText(t *testing.T) {
	empty := &ModerationSummary{}
	assert.Equal(t, "No reports required action", empty.Text())

	mixed := &ModerationSummary{UsersWarned: 2, UsersSuspended: 1, ReportsResolved: 3}
	assert.Equal(t, "Warned 2 user(s) and Suspended 1 user(s) and Resolved 3 report(s)", mixed.Text())
}

func TestModerationAction_Valid(t *testing.T) {
	for _, a := range []ModerationAction{
		ModerationActionResolve,
		ModerationActionWarn,
		ModerationActionDeleteMessage,
		ModerationActionDeleteReport,
		ModerationActionBan,
	} {
		assert.True(t, a.Valid(), string(a))
	}
	assert.False(t, ModerationAction("").Valid())
	assert.False(t, ModerationAction("escalate").Valid())
}

func TestResolveReports_RecordsAudit(t *testing.T) {
	batch := []*models.MessageReport{report("r1", "m1", "sender-1")}
	reports := &MockReportStore{
		GetByIDsFunc: func(ctx context.Context, ids []string) ([]*models.MessageReport, error) {
			return batch, nil
		},
	}
	users := &MockUserStore{}
	notify := &MockNotifier{}
	audit := &MockAuditRecorder{}
	suspension := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, notify, frozenNow)
	svc := NewModerationService(reports, users, notify, &MockWarningPurger{}, suspension, audit, 2, testLogger())

	_, err := svc.ResolveReports(context.Background(), []string{"r1"}, ModerationActionResolve, "admin-1")
	require.NoError(t, err)

	require.Len(t, audit.Events, 1)
	assert.Equal(t, models.AuditEventTypeReportResolved, audit.Events[0].EventType)
	require.NotNil(t, audit.Events[0].ActorID)
	assert.Equal(t, "admin-1", *audit.Events[0].ActorID)
	assert.Equal(t, "resolve", audit.Events[0].Metadata["action"])
}
