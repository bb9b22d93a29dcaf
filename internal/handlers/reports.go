package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/internal/services"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// ReportHandler handles user-facing report submission.
type ReportHandler struct {
	service *services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

type SubmitReportRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	Reason    string `json:"reason" validate:"required,min=3,max=500"`
}

// SubmitReport files a report against a message.
func (h *ReportHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req SubmitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	rep, err := h.service.SubmitReport(r.Context(), claims.UserID, req.MessageID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Message not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "You cannot report your own message")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "You have already reported this message")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, reportToResponse(rep))
}
