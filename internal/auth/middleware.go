package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/harvestlink/backend/internal/models"
)

type contextKey string

const (
	// UserContextKey stores the token claims in the request context.
	UserContextKey contextKey = "user"
	// AccountContextKey stores the loaded user account, set by the
	// suspension gate once it has fetched and checked the account.
	AccountContextKey contextKey = "account"
)

// TokenRevocationChecker checks whether a token JTI has been blacklisted.
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// UserRepository fetches accounts for role checks.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Middleware validates bearer tokens and injects the claims into the request
// context. Refresh tokens are rejected here; they are only good for the
// refresh endpoint.
func Middleware(tm *TokenManager, revocation TokenRevocationChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			if claims.Type == "refresh" {
				http.Error(w, "refresh tokens cannot be used for API access", http.StatusUnauthorized)
				return
			}

			if revocation != nil && claims.ID != "" {
				revoked, err := revocation.IsTokenRevoked(r.Context(), claims.ID)
				if err != nil {
					http.Error(w, "unable to verify token status", http.StatusServiceUnavailable)
					return
				}
				if revoked {
					http.Error(w, "token has been revoked", http.StatusUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff restricts a route group to staff accounts. Must run after
// Middleware.
func RequireStaff(userRepo UserRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user := GetAccountFromContext(r)
			if user == nil {
				var err error
				user, err = userRepo.GetByID(r.Context(), claims.UserID)
				if err != nil {
					if errors.Is(err, models.ErrNotFound) {
						http.Error(w, "user not found", http.StatusUnauthorized)
						return
					}
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
			}

			if !user.IsStaff {
				http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole restricts a route group to one marketplace role. Must run
// after Middleware.
func RequireRole(userRepo UserRepository, role models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user := GetAccountFromContext(r)
			if user == nil {
				var err error
				user, err = userRepo.GetByID(r.Context(), claims.UserID)
				if err != nil {
					if errors.Is(err, models.ErrNotFound) {
						http.Error(w, "user not found", http.StatusUnauthorized)
						return
					}
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
			}

			if user.Role != role {
				http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts token claims from the request context.
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetAccountFromContext extracts the loaded account from the request
// context. Returns nil on routes that do not pass through the suspension
// gate.
func GetAccountFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(AccountContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// WithAccount returns a context carrying the loaded account.
func WithAccount(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, AccountContextKey, user)
}
