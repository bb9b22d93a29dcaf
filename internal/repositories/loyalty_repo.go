package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/models"
)

type LoyaltyRepository struct {
	pool *pgxpool.Pool
}

func NewLoyaltyRepository(db *database.DB) *LoyaltyRepository {
	return &LoyaltyRepository{pool: db.Pool}
}

func (r *LoyaltyRepository) GetByUserID(ctx context.Context, userID string) (*models.LoyaltyProfile, error) {
	query := `
		SELECT user_id, points, rank, created_at, updated_at
		FROM loyalty_profiles WHERE user_id = $1
	`

	var lp models.LoyaltyProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&lp.UserID, &lp.Points, &lp.Rank, &lp.CreatedAt, &lp.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &lp, nil
}

// GetOrCreate returns the user's loyalty profile, creating a zero-point
// baseline when none exists yet. The suspension engine relies on this so a
// missing profile never fails a point deduction.
func (r *LoyaltyRepository) GetOrCreate(ctx context.Context, userID string) (*models.LoyaltyProfile, error) {
	lp, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return lp, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	lp = &models.LoyaltyProfile{
		UserID:    userID,
		Points:    0,
		Rank:      models.RankBronze,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO loyalty_profiles (user_id, points, rank, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, lp.UserID, lp.Points, lp.Rank, lp.CreatedAt, lp.UpdatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}

	// Re-read in case a concurrent insert won the conflict.
	return r.GetByUserID(ctx, userID)
}

func (r *LoyaltyRepository) Save(ctx context.Context, lp *models.LoyaltyProfile) error {
	lp.UpdatedAt = time.Now()

	query := `UPDATE loyalty_profiles SET points = $1, rank = $2, updated_at = $3 WHERE user_id = $4`

	result, err := r.pool.Exec(ctx, query, lp.Points, lp.Rank, lp.UpdatedAt, lp.UserID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
