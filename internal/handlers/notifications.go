package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/internal/services"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// NotificationHandler handles the user's in-app notification feed.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type ListNotificationsResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int                     `json:"total"`
}

// ListNotifications returns the authenticated user's notices, newest first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	notifications, err := h.service.ListNotifications(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := ListNotificationsResponse{
		Notifications: make([]*NotificationResponse, 0, len(notifications)),
		Total:         len(notifications),
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, notificationToResponse(n))
	}

	writeJSON(w, http.StatusOK, resp)
}

// MarkRead marks one of the authenticated user's notices as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	notificationID := chi.URLParam(r, "id")
	if notificationID == "" {
		pkghttp.WriteBadRequest(w, "Notification ID is required")
		return
	}

	if err := h.service.MarkRead(r.Context(), notificationID, claims.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Notification not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
