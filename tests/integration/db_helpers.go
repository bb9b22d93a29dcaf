package integration

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/models"
	"github.com/harvestlink/backend/pkg/auth"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("harvestlink"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbWrapper := &database.DB{
		Pool: pool,
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         dbWrapper,
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	// Suppress goose logs
	goose.SetLogger(log.New(nil, "", 0))

	// Goose needs a stdlib DB connection
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"audit_logs",
		"order_items",
		"orders",
		"notifications",
		"message_reports",
		"messages",
		"conversations",
		"loyalty_profiles",
		"products",
		"vendor_profiles",
		"revoked_tokens",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedUser inserts a test user with hashed password and a fresh token key
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email, password string, role models.Role, isStaff bool) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tokenKey, err := auth.GenerateTokenKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token key: %w", err)
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, token_key, role, is_staff, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())
		RETURNING id, email, role, is_staff, warning_count, suspension_count, is_suspended, is_active, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, uuid.New().String(), email, hashedPassword, "Test User", tokenKey, role, isStaff).Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.IsStaff,
		&user.WarningCount,
		&user.SuspensionCount,
		&user.IsSuspended,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedVendorProfile creates a shop profile for a vendor account
func SeedVendorProfile(ctx context.Context, pool *pgxpool.Pool, userID, shopName string, verified bool) error {
	query := `
		INSERT INTO vendor_profiles (user_id, shop_name, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	if _, err := pool.Exec(ctx, query, userID, shopName, verified); err != nil {
		return fmt.Errorf("failed to insert vendor profile: %w", err)
	}
	return nil
}

// SeedLoyaltyProfile creates a loyalty profile with the given point balance
func SeedLoyaltyProfile(ctx context.Context, pool *pgxpool.Pool, userID string, points int) error {
	query := `
		INSERT INTO loyalty_profiles (user_id, points, rank, created_at, updated_at)
		VALUES ($1, $2, 'BRONZE', NOW(), NOW())
	`
	if _, err := pool.Exec(ctx, query, userID, points); err != nil {
		return fmt.Errorf("failed to insert loyalty profile: %w", err)
	}
	return nil
}

// SeedProduct inserts a product listing for a vendor
func SeedProduct(ctx context.Context, pool *pgxpool.Pool, vendorID, name string, priceCents int64, stock int) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO products (id, vendor_id, name, price_cents, unit, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'kg', $5, NOW(), NOW())
	`
	if _, err := pool.Exec(ctx, query, id, vendorID, name, priceCents, stock); err != nil {
		return "", fmt.Errorf("failed to insert product: %w", err)
	}
	return id, nil
}

// SeedReportedMessage creates a conversation, a message from senderID, and a
// report against it from reporterID. Returns the report ID.
func SeedReportedMessage(ctx context.Context, pool *pgxpool.Pool, senderID, reporterID, reason string) (string, error) {
	conversationID := uuid.New().String()
	if _, err := pool.Exec(ctx,
		`INSERT INTO conversations (id, created_at) VALUES ($1, NOW())`, conversationID); err != nil {
		return "", fmt.Errorf("failed to insert conversation: %w", err)
	}

	messageID := uuid.New().String()
	if _, err := pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, text_content, created_at)
		 VALUES ($1, $2, $3, 'offensive message', NOW())`, messageID, conversationID, senderID); err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}

	reportID := uuid.New().String()
	if _, err := pool.Exec(ctx,
		`INSERT INTO message_reports (id, message_id, reporter_id, reason, reported_at)
		 VALUES ($1, $2, $3, $4, NOW())`, reportID, messageID, reporterID, reason); err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}

	return reportID, nil
}
