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

// ModerationHandler handles the moderator report queue and bulk actions.
type ModerationHandler struct {
	moderation *services.ModerationService
	reports    *services.ReportService
}

// NewModerationHandler creates a new ModerationHandler.
func NewModerationHandler(moderation *services.ModerationService, reports *services.ReportService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation, reports: reports}
}

type ResolveReportsRequest struct {
	ReportIDs []string `json:"report_ids" validate:"required,min=1,dive,required"`
	Action    string   `json:"action" validate:"required,oneof=resolve warn delete_message delete_report ban"`
}

type ResolveReportsResponse struct {
	Summary *services.ModerationSummary `json:"summary"`
	Message string                      `json:"message"`
}

type ListReportsResponse struct {
	Reports []*ReportResponse `json:"reports"`
	Total   int               `json:"total"`
}

// ListOpenReports returns the unresolved report queue.
func (h *ModerationHandler) ListOpenReports(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	reports, err := h.reports.ListOpenReports(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := ListReportsResponse{
		Reports: make([]*ReportResponse, 0, len(reports)),
		Total:   len(reports),
	}
	for _, rep := range reports {
		resp.Reports = append(resp.Reports, reportToResponse(rep))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResolveReports applies one bulk action to the selected reports.
func (h *ModerationHandler) ResolveReports(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ResolveReportsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	summary, err := h.moderation.ResolveReports(r.Context(), req.ReportIDs, services.ModerationAction(req.Action), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ResolveReportsResponse{
		Summary: summary,
		Message: summary.Text(),
	})
}
