package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/models"
)

const productColumns = `id, vendor_id, name, description, category,
	price_cents, unit, stock, created_at, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{pool: db.Pool}
}

func scanProductRow(scanner rowScanner) (*models.Product, error) {
	var p models.Product
	var description *string

	err := scanner.Scan(
		&p.ID, &p.VendorID, &p.Name, &description, &p.Category,
		&p.PriceCents, &p.Unit, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if description != nil {
		p.Description = *description
	}

	return &p, nil
}

func scanProductRows(rows pgx.Rows) ([]*models.Product, error) {
	defer rows.Close()

	products := make([]*models.Product, 0)

	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	return scanProductRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return scanProductRows(rows)
}

func (r *ProductRepository) ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE vendor_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return scanProductRows(rows)
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.ID = uuid.New().String()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO products (id, vendor_id, name, description, category, price_cents, unit, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + productColumns

	return scanProductRow(r.pool.QueryRow(ctx, query,
		p.ID, p.VendorID, p.Name, p.Description, p.Category,
		p.PriceCents, p.Unit, p.Stock, p.CreatedAt, p.UpdatedAt,
	))
}

func (r *ProductRepository) Update(ctx context.Context, id string, p *models.Product) (*models.Product, error) {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE products SET name = $1, description = $2, category = $3,
			price_cents = $4, unit = $5, stock = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + productColumns

	return scanProductRow(r.pool.QueryRow(ctx, query,
		p.Name, p.Description, p.Category, p.PriceCents, p.Unit, p.Stock, p.UpdatedAt, id,
	))
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ProductRepository) CountByVendor(ctx context.Context, vendorID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE vendor_id = $1`, vendorID).Scan(&count)
	return count, database.MapPostgresError(err)
}
