package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// SuspensionAccountStore loads accounts for the gate.
type SuspensionAccountStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SuspensionChecker is the slice of the suspension engine the gate drives.
type SuspensionChecker interface {
	CheckAndLiftSuspension(ctx context.Context, user *models.User) (bool, error)
	SuspensionStatusMessage(user *models.User) string
}

// SessionRevoker force-logs-out accounts whose standing no longer permits a
// session.
type SessionRevoker interface {
	RevokeAllUserTokens(ctx context.Context, userID, reason string) error
}

// allowedWhileSuspended are path suffixes a suspended or banned user may
// still reach: they can always log out and always see why they are locked
// out.
var allowedWhileSuspended = []string{
	"/auth/logout",
	"/suspension-info",
}

// SuspensionGate enforces account standing on every authenticated request.
// Expired suspensions are lifted lazily here, so there is no background job
// and a suspension always carries exactly to its end date. The loaded
// account is stored in the request context for downstream handlers.
func SuspensionGate(users SuspensionAccountStore, checker SuspensionChecker, revoker SessionRevoker, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Account no longer exists")
					return
				}
				logger.Error("suspension gate: failed to load account",
					slog.String("user_id", claims.UserID), slog.Any("error", err))
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			if _, err := checker.CheckAndLiftSuspension(r.Context(), user); err != nil {
				logger.Error("suspension gate: failed to lift expired suspension",
					slog.String("user_id", user.ID), slog.Any("error", err))
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			if user.IsPermanentlyBanned {
				if !pathAllowedWhileSuspended(r.URL.Path) {
					// A banned account should hold no live session at all.
					if err := revoker.RevokeAllUserTokens(r.Context(), user.ID, "account banned"); err != nil {
						logger.Warn("suspension gate: failed to revoke tokens for banned account",
							slog.String("user_id", user.ID), slog.Any("error", err))
					}
					pkghttp.WriteForbidden(w, "Your account has been permanently banned.")
					return
				}
			} else if user.IsSuspended {
				if !pathAllowedWhileSuspended(r.URL.Path) {
					pkghttp.WriteErrorWithDetails(w, http.StatusForbidden, "account_suspended",
						"Your account is suspended.", checker.SuspensionStatusMessage(user))
					return
				}
			}

			ctx := auth.WithAccount(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func pathAllowedWhileSuspended(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, suffix := range allowedWhileSuspended {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
