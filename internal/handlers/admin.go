package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/internal/services"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// AdminHandler handles the moderation dashboard and vendor verification.
type AdminHandler struct {
	service *services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

type VendorProfileResponse struct {
	UserID               string `json:"user_id"`
	ShopName             string `json:"shop_name"`
	BusinessPermitNumber string `json:"business_permit_number"`
	City                 string `json:"city"`
	IsVerified           bool   `json:"is_verified"`
	CreatedAt            string `json:"created_at"`
}

type ListPendingVendorsResponse struct {
	Vendors []*VendorProfileResponse `json:"vendors"`
	Total   int                      `json:"total"`
}

// DashboardStats returns aggregate counts for the admin dashboard.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// RecentActivity returns the recent moderation event feeds.
func (h *AdminHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	activity, err := h.service.GetRecentActivity(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// ListPendingVendors returns vendor profiles awaiting verification.
func (h *AdminHandler) ListPendingVendors(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	profiles, err := h.service.ListPendingVendors(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := ListPendingVendorsResponse{
		Vendors: make([]*VendorProfileResponse, 0, len(profiles)),
		Total:   len(profiles),
	}
	for _, vp := range profiles {
		resp.Vendors = append(resp.Vendors, &VendorProfileResponse{
			UserID:               vp.UserID,
			ShopName:             vp.ShopName,
			BusinessPermitNumber: vp.BusinessPermitNumber,
			City:                 vp.City,
			IsVerified:           vp.IsVerified,
			CreatedAt:            vp.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// VerifyVendor approves a pending vendor.
func (h *AdminHandler) VerifyVendor(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	if err := h.service.VerifyVendor(r.Context(), userID, claims.UserID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Vendor not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "A banned account cannot be verified")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Vendor verified"})
}
