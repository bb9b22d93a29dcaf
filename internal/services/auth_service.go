package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/pkg/auth"
	"github.com/harvestlink/backend/pkg/logger"
)

// AuthUserStore is the subset of UserRepository methods needed by AuthService.
type AuthUserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer generates and validates signed tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// TokenRevocationStore blacklists individual tokens and rotates user keys.
type TokenRevocationStore interface {
	RevokeToken(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeAllUserTokens(ctx context.Context, userID, reason string) error
}

// TokenPair is the response payload for login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles login, token refresh, and logout. Login is where
// expired suspensions get lifted for users who were away when their
// suspension ended.
type AuthService struct {
	users      AuthUserStore
	tokens     TokenIssuer
	revocation TokenRevocationStore
	suspension *SuspensionService
	audit      AuditRecorder
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users AuthUserStore,
	tokens TokenIssuer,
	revocation TokenRevocationStore,
	suspension *SuspensionService,
	audit AuditRecorder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		revocation: revocation,
		suspension: suspension,
		audit:      audit,
		logger:     logger,
	}
}

// Login authenticates a user by email and password and returns a token pair.
// Suspended and banned accounts are refused. An expired suspension is lifted
// before the standing check so a user whose suspension ran out while logged
// out can sign back in immediately.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Same error as a bad password so emails cannot be enumerated.
			return nil, nil, models.ErrUnauthorized
		}
		s.logger.Error("login: failed to load user",
			slog.String("email", logger.SanitizedEmail(email)), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordLogin(ctx, user.ID, false, "invalid credentials")
		return nil, nil, models.ErrUnauthorized
	}

	if !user.IsActive {
		s.recordLogin(ctx, user.ID, false, "account deactivated")
		return nil, nil, models.ErrForbidden
	}

	if _, err := s.suspension.CheckAndLiftSuspension(ctx, user); err != nil {
		s.logger.Error("login: failed to lift expired suspension",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if user.IsPermanentlyBanned {
		s.recordLogin(ctx, user.ID, false, "account banned")
		return nil, nil, fmt.Errorf("%w: %s", models.ErrAccountBanned, s.suspension.SuspensionStatusMessage(user))
	}

	if user.IsSuspended {
		s.recordLogin(ctx, user.ID, false, "account suspended")
		return nil, nil, fmt.Errorf("%w: %s", models.ErrAccountSuspended, s.suspension.SuspensionStatusMessage(user))
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		s.logger.Error("login: failed to issue tokens",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	s.recordLogin(ctx, user.ID, true, "")
	return pair, user, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair. The old
// refresh token is blacklisted so it cannot be replayed.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, models.ErrUnauthorized
	}
	if claims.Type != "refresh" {
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.revocation.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("refresh: revocation check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	if _, err := s.suspension.CheckAndLiftSuspension(ctx, user); err != nil {
		s.logger.Error("refresh: failed to lift expired suspension",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.IsPermanentlyBanned {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountBanned, s.suspension.SuspensionStatusMessage(user))
	}
	if user.IsSuspended {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountSuspended, s.suspension.SuspensionStatusMessage(user))
	}

	if err := s.revocation.RevokeToken(ctx, claims.ID, user.ID, "refresh", claims.ExpiresAt.Time, "rotated"); err != nil {
		s.logger.Warn("refresh: failed to blacklist old token",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		s.logger.Error("refresh: failed to issue tokens",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return pair, nil
}

// Logout blacklists the presented token. Suspended and banned users are
// always allowed to log out.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		// An invalid token has nothing to revoke.
		return nil
	}

	if err := s.revocation.RevokeToken(ctx, claims.ID, claims.UserID, claims.Type, claims.ExpiresAt.Time, "logout"); err != nil {
		s.logger.Warn("logout: failed to blacklist token",
			slog.String("user_id", claims.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if s.audit != nil {
		userID := claims.UserID
		s.audit.Record(ctx, models.AuditEventTypeLogout, &userID, &userID, nil)
	}
	return nil
}

// LogoutAll rotates the user's signing key, killing every outstanding token.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.revocation.RevokeAllUserTokens(ctx, userID, "logout all sessions"); err != nil {
		s.logger.Error("logout all: failed to rotate token key",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) recordLogin(ctx context.Context, userID string, success bool, reason string) {
	if s.audit == nil {
		return
	}
	var meta models.AuditMetadata
	if reason != "" {
		meta = models.AuditMetadata{"reason": reason}
	}
	id := userID
	s.audit.RecordOutcome(ctx, models.AuditEventTypeLogin, &id, &id, success, meta)
}
