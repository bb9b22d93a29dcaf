package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/internal/services"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// UserHandler handles the admin user-management endpoints and the
// current-user suspension-info endpoint.
type UserHandler struct {
	service    *services.UserService
	suspension *services.SuspensionService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, suspension *services.SuspensionService) *UserHandler {
	return &UserHandler{service: service, suspension: suspension}
}

type SuspendUserRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type SuspensionInfoResponse struct {
	Status          string  `json:"status"`
	IsSuspended     bool    `json:"is_suspended"`
	IsBanned        bool    `json:"is_banned"`
	SuspensionCount int     `json:"suspension_count"`
	WarningCount    int     `json:"warning_count"`
	EndsAt          *string `json:"ends_at,omitempty"`
	CanCheckout     bool    `json:"can_checkout"`
}

type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
	Total int             `json:"total"`
}

// SuspensionInfo returns the authenticated user's own account standing.
// Reachable while suspended or banned; this is how a locked-out user learns
// when their account comes back.
func (h *UserHandler) SuspensionInfo(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAccountFromContext(r)
	if user == nil {
		claims := auth.GetUserFromContext(r)
		if claims == nil {
			pkghttp.WriteUnauthorized(w, "Authentication required")
			return
		}
		var err error
		user, err = h.service.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
	}

	resp := SuspensionInfoResponse{
		Status:          h.service.SuspensionStatus(user),
		IsSuspended:     user.IsSuspended,
		IsBanned:        user.IsPermanentlyBanned,
		SuspensionCount: user.SuspensionCount,
		WarningCount:    user.WarningCount,
		CanCheckout:     h.suspension.CanUserCheckout(user),
	}
	if user.SuspensionEndDate != nil {
		endsAt := user.SuspensionEndDate.Format("2006-01-02T15:04:05Z07:00")
		resp.EndsAt = &endsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListUsers returns the admin user list with each account's standing.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := ListUsersResponse{
		Users: make([]*UserResponse, 0, len(users)),
		Total: len(users),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, userToResponse(u, h.service.SuspensionStatus(u)))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetUser returns one account with its standing.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(user, h.service.SuspensionStatus(user)))
}

// SuspendUser escalates an account one suspension level.
func (h *UserHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	var req SuspendUserRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
		if err := ValidateRequest(&req); err != nil {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
	}

	result, err := h.service.SuspendUser(r.Context(), userID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "User is already permanently banned")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ResetWarnings clears an account's accumulated warnings.
func (h *UserHandler) ResetWarnings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	if err := h.service.ResetWarnings(r.Context(), userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Warnings reset"})
}

// DeleteUser removes an account entirely.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
