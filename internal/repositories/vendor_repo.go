package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/models"
)

const vendorProfileColumns = `user_id, shop_name, shop_description,
	business_permit_number, contact_number, pickup_address, city,
	is_verified, created_at, updated_at`

type VendorProfileRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewVendorProfileRepository(db *database.DB) *VendorProfileRepository {
	return &VendorProfileRepository{db: db, pool: db.Pool}
}

func scanVendorProfileRow(scanner rowScanner) (*models.VendorProfile, error) {
	var vp models.VendorProfile
	var description, permit, contact, address, city *string

	err := scanner.Scan(
		&vp.UserID, &vp.ShopName, &description, &permit, &contact,
		&address, &city, &vp.IsVerified, &vp.CreatedAt, &vp.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if description != nil {
		vp.ShopDescription = *description
	}
	if permit != nil {
		vp.BusinessPermitNumber = *permit
	}
	if contact != nil {
		vp.ContactNumber = *contact
	}
	if address != nil {
		vp.PickupAddress = *address
	}
	if city != nil {
		vp.City = *city
	}

	return &vp, nil
}

func (r *VendorProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.VendorProfile, error) {
	query := `SELECT ` + vendorProfileColumns + ` FROM vendor_profiles WHERE user_id = $1`

	return scanVendorProfileRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *VendorProfileRepository) Create(ctx context.Context, vp *models.VendorProfile) (*models.VendorProfile, error) {
	now := time.Now()
	vp.CreatedAt = now
	vp.UpdatedAt = now

	query := `
		INSERT INTO vendor_profiles (user_id, shop_name, shop_description,
			business_permit_number, contact_number, pickup_address, city,
			is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + vendorProfileColumns

	return scanVendorProfileRow(r.pool.QueryRow(ctx, query,
		vp.UserID, vp.ShopName, vp.ShopDescription, vp.BusinessPermitNumber,
		vp.ContactNumber, vp.PickupAddress, vp.City, vp.IsVerified,
		vp.CreatedAt, vp.UpdatedAt,
	))
}

// SetVerified flips the verification flag. Used by the admin verification
// workflow.
func (r *VendorProfileRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	query := `UPDATE vendor_profiles SET is_verified = $1, updated_at = $2 WHERE user_id = $3`

	result, err := r.pool.Exec(ctx, query, verified, time.Now(), userID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *VendorProfileRepository) ListPendingVerification(ctx context.Context, limit, offset int) ([]*models.VendorProfile, error) {
	query := `SELECT ` + vendorProfileColumns + `
		FROM vendor_profiles WHERE is_verified = FALSE
		ORDER BY created_at ASC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.VendorProfile, 0)
	for rows.Next() {
		vp, err := scanVendorProfileRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor profile: %w", err)
		}
		profiles = append(profiles, vp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return profiles, nil
}

func (r *VendorProfileRepository) CountPendingVerification(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vendor_profiles WHERE is_verified = FALSE`).Scan(&count)
	return count, database.MapPostgresError(err)
}

// UnverifyAndDeleteProducts is the vendor penalty unit: clear the verified
// flag, delete every product the vendor owns, and demote the account to
// consumer, all inside one transaction. Callers never observe a vendor that
// is unverified but still has products, or the reverse. Returns the number
// of products removed, or models.ErrNotFound when the user has no vendor
// profile.
func (r *VendorProfileRepository) UnverifyAndDeleteProducts(ctx context.Context, userID string) (int64, error) {
	var deleted int64

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`UPDATE vendor_profiles SET is_verified = FALSE, updated_at = $1 WHERE user_id = $2`,
			time.Now(), userID,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		result, err = tx.Exec(ctx, `DELETE FROM products WHERE vendor_id = $1`, userID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		deleted = result.RowsAffected()

		_, err = tx.Exec(ctx,
			`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
			models.RoleConsumer, time.Now(), userID,
		)
		return database.MapPostgresError(err)
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
