package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/harvestlink/backend/internal/models"
)

var frozenNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func consumerUser() *models.User {
	return &models.User{
		ID:       "user-1",
		Email:    "consumer@example.com",
		Role:     models.RoleConsumer,
		IsActive: true,
	}
}

func vendorUser() *models.User {
	return &models.User{
		ID:       "vendor-1",
		Email:    "vendor@example.com",
		Role:     models.RoleVendor,
		IsActive: true,
	}
}

func TestApplySuspension_FirstLevel(t *testing.T) {
	users := &MockUserStore{}
	notify := &MockNotifier{}
	svc := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, notify, frozenNow)

	user := consumerUser()
	result, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Level)
	assert.Equal(t, "2 days", result.Duration)
	assert.True(t, result.CanBeLifted)

	assert.Equal(t, 1, user.SuspensionCount)
	assert.True(t, user.IsSuspended)
	assert.False(t, user.IsActive)
	assert.False(t, user.IsPermanentlyBanned)
	require.NotNil(t, user.SuspensionEndDate)
	assert.Equal(t, frozenNow.Add(48*time.Hour), *user.SuspensionEndDate)

	require.Len(t, users.UpdatedUsers, 1)

	notices := notify.SentFor(user.ID)
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[0].Message, "SUSPENDED for 2 days due to spam")
}

func TestApplySuspension_ThirdIsPermanent(t *testing.T) {
	users := &MockUserStore{}
	notify := &MockNotifier{}
	svc := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, notify, frozenNow)

	user := consumerUser()
	for i := 0; i < 2; i++ {
		_, err := svc.ApplySuspension(context.Background(), user, "spam")
		require.NoError(t, err)
	}

	result, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)

	assert.Equal(t, models.MaxSuspensionLevel, result.Level)
	assert.Equal(t, "Permanent", result.Duration)
	assert.False(t, result.CanBeLifted)

	assert.Equal(t, 3, user.SuspensionCount)
	assert.True(t, user.IsPermanentlyBanned)
	assert.False(t, user.IsSuspended)
	assert.Nil(t, user.SuspensionEndDate)

	var banned bool
	for _, n := range notify.SentFor(user.ID) {
		if strings.Contains(n.Message, "PERMANENTLY BANNED") {
			banned = true
		}
	}
	assert.True(t, banned, "user should be told about the permanent ban")
}

func TestApplySuspension_FourthCallStaysPermanent(t *testing.T) {
	users := &MockUserStore{}
	svc := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

	user := consumerUser()
	user.SuspensionCount = 5

	result, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)

	assert.Equal(t, "Permanent", result.Duration)
	assert.True(t, user.IsPermanentlyBanned)
	assert.Nil(t, user.SuspensionEndDate)
}

func TestApplySuspension_ConsumerPointDeductionClampsAtZero(t *testing.T) {
	loyalty := &MockLoyaltyStore{}
	profile := &models.LoyaltyProfile{UserID: "user-1", Points: 150, Rank: models.RankBronze}
	loyalty.GetOrCreateFunc = func(ctx context.Context, userID string) (*models.LoyaltyProfile, error) {
		return profile, nil
	}

	svc := newTestSuspensionService(&MockUserStore{}, &MockVendorStore{}, loyalty, &MockNotifier{}, frozenNow)

	user := consumerUser()

	_, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)
	assert.Equal(t, 50, profile.Points)

	_, err = svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Points, "deduction clamps at zero")

	require.Len(t, loyalty.Saved, 2)
}

func TestApplySuspension_SecondLevelVendorPenalty(t *testing.T) {
	users := &MockUserStore{}
	vendors := &MockVendorStore{
		UnverifyAndDeleteProductsFunc: func(ctx context.Context, userID string) (int64, error) {
			return 4, nil
		},
	}
	notify := &MockNotifier{}
	svc := newTestSuspensionService(users, vendors, &MockLoyaltyStore{}, notify, frozenNow)

	user := vendorUser()
	user.SuspensionCount = 1

	result, err := svc.ApplySuspension(context.Background(), user, "fraudulent listings")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Level)
	assert.Equal(t, "1 week", result.Duration)
	assert.Equal(t, []string{user.ID}, vendors.PenalizedUserIDs)
	assert.Equal(t, models.RoleConsumer, user.Role, "penalty transaction demotes the vendor")
	require.NotNil(t, user.SuspensionEndDate)
	assert.Equal(t, frozenNow.Add(7*24*time.Hour), *user.SuspensionEndDate)

	var reapply *SentNotice
	for _, n := range notify.SentFor(user.ID) {
		if strings.Contains(n.Message, "unverified") {
			notice := n
			reapply = &notice
		}
	}
	require.NotNil(t, reapply, "vendor should be told to reapply")
	require.NotNil(t, reapply.Link)
	assert.Equal(t, "/become-vendor/", *reapply.Link)
}

func TestApplySuspension_FirstLevelVendorKeepsProfile(t *testing.T) {
	vendors := &MockVendorStore{}
	svc := newTestSuspensionService(&MockUserStore{}, vendors, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

	user := vendorUser()
	_, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)

	assert.Empty(t, vendors.PenalizedUserIDs)
	assert.Equal(t, models.RoleVendor, user.Role)
}

func TestApplySuspension_VendorWithoutProfileStillSuspended(t *testing.T) {
	users := &MockUserStore{}
	vendors := &MockVendorStore{
		UnverifyAndDeleteProductsFunc: func(ctx context.Context, userID string) (int64, error) {
			return 0, models.ErrNotFound
		},
	}
	svc := newTestSuspensionService(users, vendors, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

	user := vendorUser()
	user.SuspensionCount = 1

	_, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)
	assert.True(t, user.IsSuspended)
	require.Len(t, users.UpdatedUsers, 1)
}

func TestApplySuspension_PersistFailureAborts(t *testing.T) {
	users := &MockUserStore{
		UpdateModerationStateFunc: func(ctx context.Context, user *models.User) error {
			return models.ErrInternalServer
		},
	}
	notify := &MockNotifier{}
	svc := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, notify, frozenNow)

	_, err := svc.ApplySuspension(context.Background(), consumerUser(), "spam")
	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.Empty(t, notify.Sent, "no notice goes out when the state change did not persist")
}

func TestApplySuspension_LoyaltyFailureDoesNotAbort(t *testing.T) {
	loyalty := &MockLoyaltyStore{
		GetOrCreateFunc: func(ctx context.Context, userID string) (*models.LoyaltyProfile, error) {
			return nil, models.ErrInternalServer
		},
	}
	svc := newTestSuspensionService(&MockUserStore{}, &MockVendorStore{}, loyalty, &MockNotifier{}, frozenNow)

	user := consumerUser()
	_, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)
	assert.True(t, user.IsSuspended)
}

func TestApplySuspension_EmptyReasonDefaults(t *testing.T) {
	notify := &MockNotifier{}
	svc := newTestSuspensionService(&MockUserStore{}, &MockVendorStore{}, &MockLoyaltyStore{}, notify, frozenNow)

	user := consumerUser()
	_, err := svc.ApplySuspension(context.Background(), user, "")
	require.NoError(t, err)

	notices := notify.SentFor(user.ID)
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[0].Message, "community guidelines violation")
}

func TestCheckAndLiftSuspension_Expired(t *testing.T) {
	users := &MockUserStore{}
	notify := &MockNotifier{}
	svc := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, notify, frozenNow)

	past := frozenNow.Add(-time.Hour)
	user := consumerUser()
	user.IsSuspended = true
	user.IsActive = false
	user.SuspensionCount = 1
	user.SuspensionEndDate = &past

	lifted, err := svc.CheckAndLiftSuspension(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, lifted)
	assert.False(t, user.IsSuspended)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.SuspensionEndDate)
	assert.Equal(t, 1, user.SuspensionCount, "count survives the lift")

	require.Len(t, users.UpdatedUsers, 1)
	require.NotEmpty(t, notify.SentFor(user.ID))
	assert.Contains(t, notify.SentFor(user.ID)[0].Message, "Welcome back")
}

func TestCheckAndLiftSuspension_StillActive(t *testing.T) {
	users := &MockUserStore{}
	svc := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

	future := frozenNow.Add(24 * time.Hour)
	user := consumerUser()
	user.IsSuspended = true
	user.SuspensionEndDate = &future

	lifted, err := svc.CheckAndLiftSuspension(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, lifted)
	assert.True(t, user.IsSuspended)
	assert.Empty(t, users.UpdatedUsers)
}

func TestCheckAndLiftSuspension_NeverLiftsBans(t *testing.T) {
	users := &MockUserStore{}
	svc := newTestSuspensionService(users, &MockVendorStore{}, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

	user := consumerUser()
	user.IsPermanentlyBanned = true

	lifted, err := svc.CheckAndLiftSuspension(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, lifted)
	assert.True(t, user.IsPermanentlyBanned)
	assert.Empty(t, users.UpdatedUsers)
}

func TestCanUserAddEditProducts(t *testing.T) {
	verified := &models.VendorProfile{UserID: "vendor-1", IsVerified: true}

	tests := []struct {
		name    string
		user    func() *models.User
		profile *models.VendorProfile
		want    bool
	}{
		{"verified vendor", vendorUser, verified, true},
		{"unverified vendor", vendorUser, &models.VendorProfile{UserID: "vendor-1"}, false},
		{"missing profile", vendorUser, nil, false},
		{"consumer", consumerUser, verified, false},
		{
			"suspended vendor",
			func() *models.User {
				u := vendorUser()
				u.IsSuspended = true
				return u
			},
			verified, false,
		},
		{
			"banned vendor",
			func() *models.User {
				u := vendorUser()
				u.IsPermanentlyBanned = true
				return u
			},
			verified, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendors := &MockVendorStore{
				GetByUserIDFunc: func(ctx context.Context, userID string) (*models.VendorProfile, error) {
					if tt.profile == nil {
						return nil, models.ErrNotFound
					}
					return tt.profile, nil
				},
			}
			svc := newTestSuspensionService(&MockUserStore{}, vendors, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

			got, err := svc.CanUserAddEditProducts(context.Background(), tt.user())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanUserCheckout(t *testing.T) {
	svc := newTestSuspensionService(&MockUserStore{}, &MockVendorStore{}, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

	first := consumerUser()
	first.IsSuspended = true
	first.SuspensionCount = 1
	assert.True(t, svc.CanUserCheckout(first), "first suspension does not block checkout")

	second := consumerUser()
	second.IsSuspended = true
	second.SuspensionCount = 2
	assert.False(t, svc.CanUserCheckout(second))

	banned := consumerUser()
	banned.IsPermanentlyBanned = true
	assert.False(t, svc.CanUserCheckout(banned))
}

func TestSuspensionStatusMessage(t *testing.T) {
	svc := newTestSuspensionService(&MockUserStore{}, &MockVendorStore{}, &MockLoyaltyStore{}, &MockNotifier{}, frozenNow)

	banned := consumerUser()
	banned.IsPermanentlyBanned = true
	assert.Equal(t, "Permanently Banned", svc.SuspensionStatusMessage(banned))

	inDays := frozenNow.Add(3*24*time.Hour + time.Hour)
	suspended := consumerUser()
	suspended.IsSuspended = true
	suspended.SuspensionEndDate = &inDays
	assert.Equal(t, "Suspended for 3 more day(s)", svc.SuspensionStatusMessage(suspended))

	inHours := frozenNow.Add(5 * time.Hour)
	suspended.SuspensionEndDate = &inHours
	assert.Equal(t, "Suspended for 5 more hour(s)", svc.SuspensionStatusMessage(suspended))

	soon := frozenNow.Add(20 * time.Minute)
	suspended.SuspensionEndDate = &soon
	assert.Equal(t, "Suspension ending soon", svc.SuspensionStatusMessage(suspended))

	active := consumerUser()
	active.SuspensionCount = 1
	assert.Equal(t, "Active (Suspensions: 1/3)", svc.SuspensionStatusMessage(active))
}

func TestApplySuspension_SecondLevelSendsEmail(t *testing.T) {
	email := &MockEmailSender{}
	svc := NewSuspensionService(&MockUserStore{}, &MockVendorStore{}, &MockLoyaltyStore{}, &MockNotifier{}, email, nil, DefaultSuspensionPolicy(), testLogger())
	svc.now = func() time.Time { return frozenNow }

	user := consumerUser()
	user.SuspensionCount = 1

	_, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)
	require.Len(t, email.SentSubjects, 1)
	assert.Equal(t, "Account suspended for 1 week", email.SentSubjects[0])
}

func TestApplySuspension_RecordsAudit(t *testing.T) {
	audit := &MockAuditRecorder{}
	svc := NewSuspensionService(&MockUserStore{}, &MockVendorStore{}, &MockLoyaltyStore{}, &MockNotifier{}, nil, audit, DefaultSuspensionPolicy(), testLogger())
	svc.now = func() time.Time { return frozenNow }

	user := consumerUser()
	_, err := svc.ApplySuspension(context.Background(), user, "spam")
	require.NoError(t, err)

	require.Len(t, audit.Events, 1)
	assert.Equal(t, models.AuditEventTypeSuspension, audit.Events[0].EventType)
	require.NotNil(t, audit.Events[0].TargetID)
	assert.Equal(t, user.ID, *audit.Events[0].TargetID)
	assert.Equal(t, 1, audit.Events[0].Metadata["level"])
}
