package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/pkg/auth"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdateModerationState(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// TokenRevoker is the force-logout primitive used when an admin suspends an
// account directly.
type TokenRevoker interface {
	RevokeAllUserTokens(ctx context.Context, userID, reason string) error
}

// UserService handles user business logic
type UserService struct {
	repo       UserRepository
	suspension *SuspensionService
	revoker    TokenRevoker
	logger     *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, suspension *SuspensionService, revoker TokenRevoker, logger *slog.Logger) *UserService {
	return &UserService{
		repo:       repo,
		suspension: suspension,
		revoker:    revoker,
		logger:     logger,
	}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// ListUsers retrieves a list of users with pagination
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// CreateUser creates a new user account
func (s *UserService) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	existingUser, err := s.repo.GetByEmail(ctx, user.Email)
	if err == nil && existingUser != nil {
		s.logger.Info("user already exists")
		return nil, models.ErrConflict
	}

	if !user.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role %q", models.ErrBadRequest, user.Role)
	}

	if password != "" {
		if err := auth.ValidatePassword(password); err != nil {
			return nil, fmt.Errorf("invalid password: %w", err)
		}

		hashedPassword, err := auth.HashPassword(password)
		if err != nil {
			s.logger.Error("failed to hash password", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		user.PasswordHash = hashedPassword
	}

	createdUser, err := s.repo.Create(ctx, user)
	if err != nil {
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.String("user_id", createdUser.ID))
	return createdUser, nil
}

// SuspendUser is the direct admin path into the suspension engine, used by
// the user-management view. It escalates the account one level and force
// logs the user out everywhere.
func (s *UserService) SuspendUser(ctx context.Context, id, reason string) (*SuspensionResult, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.IsPermanentlyBanned {
		return nil, fmt.Errorf("%w: user is already permanently banned", models.ErrBadRequest)
	}

	result, err := s.suspension.ApplySuspension(ctx, user, reason)
	if err != nil {
		return nil, err
	}

	if err := s.revoker.RevokeAllUserTokens(ctx, id, "account suspended"); err != nil {
		// The gate still blocks the user on their next request.
		s.logger.Warn("failed to revoke tokens for suspended user",
			slog.String("user_id", id), slog.Any("error", err))
	}

	return result, nil
}

// ResetWarnings clears the accumulated warning count, the admin's way of
// pardoning an account short of a suspension.
func (s *UserService) ResetWarnings(ctx context.Context, id string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if user.WarningCount == 0 {
		return nil
	}

	user.WarningCount = 0

	if err := s.repo.UpdateModerationState(ctx, user); err != nil {
		s.logger.Error("failed to reset warnings", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("warnings reset", slog.String("user_id", id))
	return nil
}

// SuspensionStatus returns the human-readable standing for one account.
func (s *UserService) SuspensionStatus(user *models.User) string {
	return s.suspension.SuspensionStatusMessage(user)
}

// DeleteUser removes an account entirely. Dependent rows (profiles,
// products, notifications, reports) go with it via cascade.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	_, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", id))
	return nil
}
