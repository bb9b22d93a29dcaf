package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/harvestlink/backend/internal/models"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// UserResponse is a user in HTTP responses. PasswordHash and TokenKey never
// leave the server.
type UserResponse struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Role              string     `json:"role"`
	IsStaff           bool       `json:"is_staff"`
	WarningCount      int        `json:"warning_count"`
	SuspensionCount   int        `json:"suspension_count"`
	IsSuspended       bool       `json:"is_suspended"`
	SuspensionEndDate *time.Time `json:"suspension_end_date,omitempty"`
	IsBanned          bool       `json:"is_banned"`
	Status            string     `json:"status,omitempty"`
	CreatedAt         string     `json:"created_at"`
}

func userToResponse(user *models.User, status string) *UserResponse {
	return &UserResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		Role:              string(user.Role),
		IsStaff:           user.IsStaff,
		WarningCount:      user.WarningCount,
		SuspensionCount:   user.SuspensionCount,
		IsSuspended:       user.IsSuspended,
		SuspensionEndDate: user.SuspensionEndDate,
		IsBanned:          user.IsPermanentlyBanned,
		Status:            status,
		CreatedAt:         user.CreatedAt.Format(time.RFC3339),
	}
}

// ProductResponse is a product listing in HTTP responses.
type ProductResponse struct {
	ID          string `json:"id"`
	VendorID    string `json:"vendor_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
	Unit        string `json:"unit"`
	Stock       int    `json:"stock"`
	CreatedAt   string `json:"created_at"`
}

func productToResponse(p *models.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		VendorID:    p.VendorID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		Unit:        p.Unit,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// ReportResponse is a message report in HTTP responses.
type ReportResponse struct {
	ID               string     `json:"id"`
	MessageID        string     `json:"message_id"`
	ReporterID       string     `json:"reporter_id"`
	SenderID         string     `json:"sender_id,omitempty"`
	Reason           string     `json:"reason"`
	ReportedAt       string     `json:"reported_at"`
	IsResolved       bool       `json:"is_resolved"`
	ModerationAction string     `json:"moderation_action,omitempty"`
	ResolutionNotes  string     `json:"resolution_notes,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

func reportToResponse(rep *models.MessageReport) *ReportResponse {
	return &ReportResponse{
		ID:               rep.ID,
		MessageID:        rep.MessageID,
		ReporterID:       rep.ReporterID,
		SenderID:         rep.SenderID,
		Reason:           rep.Reason,
		ReportedAt:       rep.ReportedAt.Format(time.RFC3339),
		IsResolved:       rep.IsResolved,
		ModerationAction: string(rep.ModerationAction),
		ResolutionNotes:  rep.ResolutionNotes,
		ResolvedAt:       rep.ResolvedAt,
	}
}

// NotificationResponse is an in-app notice in HTTP responses.
type NotificationResponse struct {
	ID        string  `json:"id"`
	Message   string  `json:"message"`
	Link      *string `json:"link,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

func notificationToResponse(n *models.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
