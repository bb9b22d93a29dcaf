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

// CheckoutHandler handles order creation, gated by the checkout eligibility
// predicate.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type CheckoutRequest struct {
	Items []services.CheckoutItem `json:"items" validate:"required,min=1,dive"`
}

type OrderResponse struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	TotalCents int64              `json:"total_cents"`
	Items      []models.OrderItem `json:"items,omitempty"`
	CreatedAt  string             `json:"created_at"`
}

type ListOrdersResponse struct {
	Orders []*OrderResponse `json:"orders"`
	Total  int              `json:"total"`
}

func orderToResponse(o *models.Order) *OrderResponse {
	return &OrderResponse{
		ID:         o.ID,
		Status:     string(o.Status),
		TotalCents: o.TotalCents,
		Items:      o.Items,
		CreatedAt:  o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Checkout creates an order from the submitted cart.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAccountFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	order, err := h.service.Checkout(r.Context(), user, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Your account standing does not permit checkout")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, orderToResponse(order))
}

// ListOrders returns the authenticated user's order history.
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	orders, err := h.service.ListOrders(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := ListOrdersResponse{
		Orders: make([]*OrderResponse, 0, len(orders)),
		Total:  len(orders),
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, orderToResponse(o))
	}

	writeJSON(w, http.StatusOK, resp)
}
