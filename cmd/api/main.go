package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/background"
	"github.com/harvestlink/backend/internal/config"
	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/handlers"
	middlewareCustom "github.com/harvestlink/backend/internal/middleware"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/internal/repositories"
	"github.com/harvestlink/backend/internal/routes"
	"github.com/harvestlink/backend/internal/services"
	pkgauth "github.com/harvestlink/backend/pkg/auth"
	pkghttp "github.com/harvestlink/backend/pkg/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	vendorRepo := repositories.NewVendorProfileRepository(db)
	productRepo := repositories.NewProductRepository(db)
	loyaltyRepo := repositories.NewLoyaltyRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	revokeRepo := repositories.NewTokenRevocationRepository(db)

	cleanupManager := background.NewCleanupManager(revokeRepo, notificationRepo, logger, cfg.Auth.CleanupInterval)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	// Enable composite signing with per-user TokenKey
	tokenManager.SetUserRepo(userRepo)

	// Services
	auditService := services.NewAuditService(auditRepo, logger)
	notificationService := services.NewNotificationService(notificationRepo, logger)

	// Email is optional; without it suspension notices stay in-app only.
	var emailSender services.SuspensionEmailSender
	if cfg.Email.Enabled {
		sesService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		emailSender = sesService
	}

	policy := services.SuspensionPolicy{
		FirstDuration:    cfg.Policy.FirstSuspensionDuration,
		SecondDuration:   cfg.Policy.SecondSuspensionDuration,
		WarningThreshold: cfg.Policy.WarningThreshold,
		PointPenalty:     cfg.Policy.LoyaltyPointPenalty,
	}

	suspensionService := services.NewSuspensionService(
		userRepo,
		vendorRepo,
		loyaltyRepo,
		notificationService,
		emailSender,
		auditService,
		policy,
		logger,
	)

	moderationService := services.NewModerationService(
		reportRepo,
		userRepo,
		notificationService,
		notificationRepo,
		suspensionService,
		auditService,
		cfg.Policy.WarningThreshold,
		logger,
	)

	authService := services.NewAuthService(userRepo, tokenManager, revokeRepo, suspensionService, auditService, logger)
	userService := services.NewUserService(userRepo, suspensionService, revokeRepo, logger)
	adminService := services.NewAdminService(userRepo, vendorRepo, reportRepo, auditRepo, notificationService, auditService, logger)
	productService := services.NewProductService(productRepo, suspensionService, logger)
	checkoutService := services.NewCheckoutService(orderRepo, productRepo, suspensionService, loyaltyRepo, logger)
	reportService := services.NewReportService(reportRepo, logger)

	// Handlers
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, userService),
		Users:         handlers.NewUserHandler(userService, suspensionService),
		Products:      handlers.NewProductHandler(productService),
		Checkout:      handlers.NewCheckoutHandler(checkoutService),
		Reports:       handlers.NewReportHandler(reportService),
		Moderation:    handlers.NewModerationHandler(moderationService, reportService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Admin:         handlers.NewAdminHandler(adminService),
	}

	// Bootstrap first staff user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureStaffUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure staff user", slog.Any("error", err))
	}
	cancel()

	// Router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(cfg.Server.AllowedOrigins))
	router.Use(middlewareCustom.SecureLogger(logger, &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, h, tokenManager, userRepo, revokeRepo, suspensionService, logger)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureStaffUser creates the first staff account if ADMIN_EMAIL and
// ADMIN_PASSWORD are set. Staff accounts go through the same login path as
// everyone else; only the is_staff flag differs.
func ensureStaffUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping staff user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("staff user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if staff user exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash staff password: %w", err)
	}

	staff := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Name:         "Moderator",
		Role:         models.RoleConsumer,
		IsStaff:      true,
		IsActive:     true,
	}

	if _, err := userRepo.Create(ctx, staff); err != nil {
		return fmt.Errorf("failed to create staff user: %w", err)
	}

	logger.Info("staff user created successfully")
	return nil
}
