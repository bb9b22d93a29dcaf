package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/handlers"
	"github.com/harvestlink/backend/internal/middleware"
	"github.com/harvestlink/backend/internal/repositories"
	"github.com/harvestlink/backend/internal/services"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Products      *handlers.ProductHandler
	Checkout      *handlers.CheckoutHandler
	Reports       *handlers.ReportHandler
	Moderation    *handlers.ModerationHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
}

// RegisterRoutes mounts the API. Three tiers: public, authenticated (token
// check plus the suspension gate), and staff-only.
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
	revokeRepo *repositories.TokenRevocationRepository,
	suspension *services.SuspensionService,
	logger *slog.Logger,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", h.Auth.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", h.Auth.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/refresh", h.Auth.Refresh)
	router.Get("/products", h.Products.ListProducts)
	router.Get("/products/{id}", h.Products.GetProduct)

	// Authenticated. The suspension gate runs on every request here: it
	// lifts expired suspensions and blocks suspended or banned accounts
	// from everything except logout and suspension-info.
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager, revokeRepo))
		r.Use(middleware.SuspensionGate(userRepo, suspension, revokeRepo, logger))

		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/auth/logout-all", h.Auth.LogoutAll)

		r.Get("/users/me/suspension-info", h.Users.SuspensionInfo)

		r.Get("/notifications", h.Notifications.ListNotifications)
		r.Post("/notifications/{id}/read", h.Notifications.MarkRead)

		r.Post("/reports", h.Reports.SubmitReport)

		r.Post("/checkout", h.Checkout.Checkout)
		r.Get("/orders", h.Checkout.ListOrders)

		// Vendor listings
		r.Group(func(r chi.Router) {
			r.Get("/vendor/products", h.Products.ListMyProducts)
			r.Post("/vendor/products", h.Products.CreateProduct)
			r.Put("/vendor/products/{id}", h.Products.UpdateProduct)
			r.Delete("/vendor/products/{id}", h.Products.DeleteProduct)
		})

		// Staff-only
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireStaff(userRepo))

			r.Get("/admin/stats", h.Admin.DashboardStats)
			r.Get("/admin/activity", h.Admin.RecentActivity)

			r.Get("/admin/users", h.Users.ListUsers)
			r.Get("/admin/users/{id}", h.Users.GetUser)
			r.Post("/admin/users/{id}/suspend", h.Users.SuspendUser)
			r.Post("/admin/users/{id}/reset-warnings", h.Users.ResetWarnings)
			r.Delete("/admin/users/{id}", h.Users.DeleteUser)

			r.Get("/admin/vendors/pending", h.Admin.ListPendingVendors)
			r.Post("/admin/vendors/{id}/verify", h.Admin.VerifyVendor)

			r.Get("/admin/reports", h.Moderation.ListOpenReports)
			r.Post("/admin/reports/resolve", h.Moderation.ResolveReports)
		})
	})
}
