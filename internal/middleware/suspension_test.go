package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
)

type stubAccountStore struct {
	users map[string]*models.User
}

func (s *stubAccountStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

type stubChecker struct {
	now time.Time

	lifted []string
}

func (s *stubChecker) CheckAndLiftSuspension(ctx context.Context, user *models.User) (bool, error) {
	if user.SuspensionExpired(s.now) {
		user.IsSuspended = false
		user.SuspensionEndDate = nil
		user.IsActive = true
		s.lifted = append(s.lifted, user.ID)
		return true, nil
	}
	return false, nil
}

func (s *stubChecker) SuspensionStatusMessage(user *models.User) string {
	if user.IsPermanentlyBanned {
		return "Permanently Banned"
	}
	if user.IsSuspended {
		return "Suspended"
	}
	return "Active"
}

type stubRevoker struct {
	revoked []string
}

func (s *stubRevoker) RevokeAllUserTokens(ctx context.Context, userID, reason string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

type gateFixture struct {
	store   *stubAccountStore
	checker *stubChecker
	revoker *stubRevoker
	handler http.Handler
	called  bool
	account *models.User
}

func newGateFixture(users ...*models.User) *gateFixture {
	f := &gateFixture{
		store:   &stubAccountStore{users: make(map[string]*models.User)},
		checker: &stubChecker{now: time.Now()},
		revoker: &stubRevoker{},
	}
	for _, u := range users {
		f.store.users[u.ID] = u
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.called = true
		f.account = auth.GetAccountFromContext(r)
		w.WriteHeader(http.StatusOK)
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.handler = SuspensionGate(f.store, f.checker, f.revoker, logger)(inner)
	return f
}

func (f *gateFixture) do(userID, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		claims := &models.TokenClaims{UserID: userID}
		req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, claims))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestSuspensionGate_ActiveUserPasses(t *testing.T) {
	f := newGateFixture(&models.User{ID: "user-1", IsActive: true})

	rec := f.do("user-1", "/api/v1/products")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.called)
	require.NotNil(t, f.account, "gate stores the loaded account in context")
	assert.Equal(t, "user-1", f.account.ID)
}

func TestSuspensionGate_MissingClaims(t *testing.T) {
	f := newGateFixture()

	rec := f.do("", "/api/v1/products")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.called)
}

func TestSuspensionGate_SuspendedBlocked(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	f := newGateFixture(&models.User{
		ID:                "user-1",
		IsSuspended:       true,
		SuspensionEndDate: &end,
	})

	rec := f.do("user-1", "/api/v1/products")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, f.called)
	assert.Contains(t, rec.Body.String(), "account_suspended")
	assert.Empty(t, f.revoker.revoked, "timed suspensions do not revoke tokens")
}

func TestSuspensionGate_SuspendedCanLogout(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	f := newGateFixture(&models.User{
		ID:                "user-1",
		IsSuspended:       true,
		SuspensionEndDate: &end,
	})

	rec := f.do("user-1", "/api/v1/auth/logout")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do("user-1", "/api/v1/users/me/suspension-info")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSuspensionGate_ExpiredSuspensionLifted(t *testing.T) {
	end := time.Now().Add(-time.Hour)
	f := newGateFixture(&models.User{
		ID:                "user-1",
		IsSuspended:       true,
		SuspensionEndDate: &end,
	})

	rec := f.do("user-1", "/api/v1/products")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.called)
	assert.Equal(t, []string{"user-1"}, f.checker.lifted)
}

func TestSuspensionGate_BannedBlockedAndRevoked(t *testing.T) {
	f := newGateFixture(&models.User{ID: "user-1", IsPermanentlyBanned: true})

	rec := f.do("user-1", "/api/v1/products")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, f.called)
	assert.Equal(t, []string{"user-1"}, f.revoker.revoked, "banned accounts get force-logged-out")
	assert.Contains(t, rec.Body.String(), "permanently banned")
}

func TestSuspensionGate_BannedCanStillLogout(t *testing.T) {
	f := newGateFixture(&models.User{ID: "user-1", IsPermanentlyBanned: true})

	rec := f.do("user-1", "/api/v1/auth/logout")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.revoker.revoked)
}

func TestSuspensionGate_UnknownAccount(t *testing.T) {
	f := newGateFixture()

	rec := f.do("ghost", "/api/v1/products")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.called)
}

func TestPathAllowedWhileSuspended(t *testing.T) {
	assert.True(t, pathAllowedWhileSuspended("/api/v1/auth/logout"))
	assert.True(t, pathAllowedWhileSuspended("/api/v1/auth/logout/"))
	assert.True(t, pathAllowedWhileSuspended("/api/v1/users/me/suspension-info"))
	assert.False(t, pathAllowedWhileSuspended("/api/v1/products"))
	assert.False(t, pathAllowedWhileSuspended("/api/v1/auth/login"))
}
