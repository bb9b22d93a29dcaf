package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/internal/services"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// AuthHandler handles login, token refresh, and logout.
type AuthHandler struct {
	service *services.AuthService
	users   *services.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.AuthService, users *services.UserService) *AuthHandler {
	return &AuthHandler{service: service, users: users}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=VENDOR CONSUMER"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Login authenticates a user. Suspended and banned accounts are refused
// with their standing in the error details.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
		case errors.Is(err, models.ErrAccountBanned), errors.Is(err, models.ErrAccountSuspended):
			pkghttp.WriteErrorWithDetails(w, http.StatusForbidden, "account_locked",
				"Your account is not in good standing.", standingDetail(err))
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Account is deactivated")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		Role:         string(user.Role),
	})
}

// Register creates a new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user := &models.User{
		Email: req.Email,
		Name:  req.Name,
		Role:  models.Role(req.Role),
	}
	if user.Role == "" {
		user.Role = models.RoleConsumer
	}

	created, err := h.users.CreateUser(r.Context(), user, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An account with this email already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			if strings.Contains(err.Error(), "invalid password") {
				pkghttp.WriteBadRequest(w, "Password does not meet requirements")
				return
			}
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, userToResponse(created, ""))
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid or expired refresh token")
		case errors.Is(err, models.ErrAccountBanned), errors.Is(err, models.ErrAccountSuspended):
			pkghttp.WriteErrorWithDetails(w, http.StatusForbidden, "account_locked",
				"Your account is not in good standing.", standingDetail(err))
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Logout blacklists the presented token. Always available, including to
// suspended and banned users.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		pkghttp.WriteUnauthorized(w, "Missing bearer token")
		return
	}

	if err := h.service.Logout(r.Context(), parts[1]); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// LogoutAll kills every session for the authenticated user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "All sessions revoked"})
}

// standingDetail strips the sentinel prefix off a wrapped standing error,
// leaving only the human-readable status message.
func standingDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
