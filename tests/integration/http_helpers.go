package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/harvestlink/backend/internal/auth"
	"github.com/harvestlink/backend/internal/config"
	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/handlers"
	middlewareCustom "github.com/harvestlink/backend/internal/middleware"
	"github.com/harvestlink/backend/internal/repositories"
	"github.com/harvestlink/backend/internal/routes"
	"github.com/harvestlink/backend/internal/services"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailService captures suspension notice emails for test assertions
type MockEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

func (m *MockEmailService) SendSuspensionNotice(ctx context.Context, email, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{To: email, Subject: subject, Body: body})
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *MockEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	EmailService *MockEmailService
	Config       *config.Config

	// Dependency references for inspection in tests
	TokenManager *auth.TokenManager
	Suspension   *services.SuspensionService
	logger       *slog.Logger
}

// NewTestServer initializes a complete HTTP server with real database + mocked email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long-for-testing",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
			CleanupInterval:    1 * time.Hour,
		},
		Policy: config.PolicyConfig{
			FirstSuspensionDuration:  48 * time.Hour,
			SecondSuspensionDuration: 7 * 24 * time.Hour,
			WarningThreshold:         2,
			LoyaltyPointPenalty:      100,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
		},
	}

	userRepo := repositories.NewUserRepository(db)
	vendorRepo := repositories.NewVendorProfileRepository(db)
	productRepo := repositories.NewProductRepository(db)
	loyaltyRepo := repositories.NewLoyaltyRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	revokeRepo := repositories.NewTokenRevocationRepository(db)

	mockEmail := &MockEmailService{}

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	tokenManager.SetUserRepo(userRepo)

	auditService := services.NewAuditService(auditRepo, logger)
	notificationService := services.NewNotificationService(notificationRepo, logger)

	policy := services.SuspensionPolicy{
		FirstDuration:    cfg.Policy.FirstSuspensionDuration,
		SecondDuration:   cfg.Policy.SecondSuspensionDuration,
		WarningThreshold: cfg.Policy.WarningThreshold,
		PointPenalty:     cfg.Policy.LoyaltyPointPenalty,
	}

	suspensionService := services.NewSuspensionService(
		userRepo, vendorRepo, loyaltyRepo, notificationService, mockEmail, auditService, policy, logger,
	)
	moderationService := services.NewModerationService(
		reportRepo, userRepo, notificationService, notificationRepo, suspensionService, auditService,
		cfg.Policy.WarningThreshold, logger,
	)

	authService := services.NewAuthService(userRepo, tokenManager, revokeRepo, suspensionService, auditService, logger)
	userService := services.NewUserService(userRepo, suspensionService, revokeRepo, logger)
	adminService := services.NewAdminService(userRepo, vendorRepo, reportRepo, auditRepo, notificationService, auditService, logger)
	productService := services.NewProductService(productRepo, suspensionService, logger)
	checkoutService := services.NewCheckoutService(orderRepo, productRepo, suspensionService, loyaltyRepo, logger)
	reportService := services.NewReportService(reportRepo, logger)

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

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, h, tokenManager, userRepo, revokeRepo, suspensionService, logger)

	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		DB:           db,
		EmailService: mockEmail,
		Config:       cfg,
		TokenManager: tokenManager,
		Suspension:   suspensionService,
		logger:       logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
	return ts.Request(method, path, body, headers)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractTokensFromResponse extracts access/refresh tokens from a login response
func ExtractTokensFromResponse(resp *http.Response) (accessToken, refreshToken string, err error) {
	defer resp.Body.Close()

	var authResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", "", err
	}

	if access, ok := authResp["access_token"].(string); ok {
		accessToken = access
	}
	if refresh, ok := authResp["refresh_token"].(string); ok {
		refreshToken = refresh
	}

	return accessToken, refreshToken, nil
}

// GetErrorMessage extracts the error message from an error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
