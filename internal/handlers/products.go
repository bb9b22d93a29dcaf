package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/internal/services"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

// ProductHandler handles product listings. Writes are gated by the posting
// eligibility predicate.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

type ProductRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Category    string `json:"category" validate:"required,min=1,max=100"`
	PriceCents  int64  `json:"price_cents" validate:"required,gte=1"`
	Unit        string `json:"unit" validate:"required,min=1,max=20"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

type ListProductsResponse struct {
	Products []*ProductResponse `json:"products"`
	Total    int                `json:"total"`
}

// ListProducts returns the public product catalog.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	products, err := h.service.ListProducts(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeListProducts(w, products)
}

// ListMyProducts returns the authenticated vendor's own listings.
func (h *ProductHandler) ListMyProducts(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	products, err := h.service.ListVendorProducts(r.Context(), claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeListProducts(w, products)
}

// GetProduct returns one product.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		pkghttp.WriteBadRequest(w, "Product ID is required")
		return
	}

	p, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Product not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, productToResponse(p))
}

// CreateProduct lists a new product for the authenticated vendor.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAccountFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	p := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Unit:        req.Unit,
		Stock:       req.Stock,
	}

	created, err := h.service.CreateProduct(r.Context(), user, p)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			pkghttp.WriteForbidden(w, "Your account is not eligible to list products")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, productToResponse(created))
}

// UpdateProduct edits one of the authenticated vendor's listings.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAccountFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	productID := chi.URLParam(r, "id")
	if productID == "" {
		pkghttp.WriteBadRequest(w, "Product ID is required")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	p := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Unit:        req.Unit,
		Stock:       req.Stock,
	}

	updated, err := h.service.UpdateProduct(r.Context(), user, productID, p)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Product not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You cannot edit this product")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, productToResponse(updated))
}

// DeleteProduct removes one of the authenticated vendor's listings.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAccountFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	productID := chi.URLParam(r, "id")
	if productID == "" {
		pkghttp.WriteBadRequest(w, "Product ID is required")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), user, productID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Product not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You cannot delete this product")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeListProducts(w http.ResponseWriter, products []*models.Product) {
	resp := ListProductsResponse{
		Products: make([]*ProductResponse, 0, len(products)),
		Total:    len(products),
	}
	for _, p := range products {
		resp.Products = append(resp.Products, productToResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}
