package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlink/backend/internal/models"
)

type stubRevocation struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevocation) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[jti], nil
}

type stubUserRepo struct {
	users map[string]*models.User
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestMiddleware_ValidToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	token, err := tm.GenerateAccessToken("user-1", "u@example.com")
	require.NoError(t, err)

	handler, called := okHandler()
	mw := Middleware(tm, nil)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	handler, called := okHandler()
	mw := Middleware(tm, nil)(handler)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	handler, called := okHandler()
	mw := Middleware(tm, nil)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()

	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestMiddleware_RejectsRefreshTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	token, err := tm.GenerateRefreshToken("user-1", "u@example.com")
	require.NoError(t, err)

	handler, called := okHandler()
	mw := Middleware(tm, nil)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestMiddleware_RevokedToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	token, err := tm.GenerateAccessToken("user-1", "u@example.com")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)

	handler, called := okHandler()
	mw := Middleware(tm, &stubRevocation{revoked: map[string]bool{claims.ID: true}})(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestMiddleware_RevocationCheckFailureFailsClosed(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	token, err := tm.GenerateAccessToken("user-1", "u@example.com")
	require.NoError(t, err)

	handler, called := okHandler()
	mw := Middleware(tm, &stubRevocation{err: models.ErrInternalServer})(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, *called)
}

func TestMiddleware_TokenKeyRotationInvalidatesTokens(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", TokenKey: "key-v1"},
	}}

	tm := NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	tm.SetUserRepo(repo)

	token, err := tm.GenerateAccessToken("user-1", "u@example.com")
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	require.NoError(t, err)

	// Rotating the key, as RevokeAllUserTokens does, kills the token.
	repo.users["user-1"].TokenKey = "key-v2"

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func requestWithClaims(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims := &models.TokenClaims{UserID: userID}
	return req.WithContext(context.WithValue(req.Context(), UserContextKey, claims))
}

func TestRequireStaff(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{
		"staff-1": {ID: "staff-1", IsStaff: true},
		"user-1":  {ID: "user-1"},
	}}

	handler, _ := okHandler()
	mw := RequireStaff(repo)(handler)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, requestWithClaims("staff-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, requestWithClaims("user-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, requestWithClaims("missing"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*models.User{
		"vendor-1":   {ID: "vendor-1", Role: models.RoleVendor},
		"consumer-1": {ID: "consumer-1", Role: models.RoleConsumer},
	}}

	handler, _ := okHandler()
	mw := RequireRole(repo, models.RoleVendor)(handler)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, requestWithClaims("vendor-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, requestWithClaims("consumer-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireStaff_UsesAccountFromContext(t *testing.T) {
	// No repo lookup when the suspension gate already loaded the account.
	repo := &stubUserRepo{users: map[string]*models.User{}}

	handler, called := okHandler()
	mw := RequireStaff(repo)(handler)

	req := requestWithClaims("staff-1")
	req = req.WithContext(WithAccount(req.Context(), &models.User{ID: "staff-1", IsStaff: true}))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}
