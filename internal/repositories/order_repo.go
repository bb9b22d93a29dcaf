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

type OrderRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db, pool: db.Pool}
}

// Create inserts the order, its items, and the stock decrements in one
// transaction. A line whose product is missing or understocked fails the
// whole checkout with models.ErrConflict.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New().String()
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO orders (id, consumer_id, status, total_cents, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, order.ConsumerID, order.Status, order.TotalCents, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID

			result, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock - $1, updated_at = $2
				 WHERE id = $3 AND stock >= $1`,
				item.Quantity, now, item.ProductID,
			)
			if err != nil {
				return database.MapPostgresError(err)
			}
			if result.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %s unavailable", models.ErrConflict, item.ProductID)
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price_cents)
				 VALUES ($1, $2, $3, $4)`,
				item.OrderID, item.ProductID, item.Quantity, item.PriceCents,
			)
			if err != nil {
				return database.MapPostgresError(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, consumer_id, status, total_cents, created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.ConsumerID, &order.Status, &order.TotalCents,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, quantity, price_cents
		 FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Quantity, &item.PriceCents); err != nil {
			return nil, database.MapPostgresError(err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &order, nil
}

func (r *OrderRepository) ListByConsumer(ctx context.Context, consumerID string, limit, offset int) ([]*models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, consumer_id, status, total_cents, created_at, updated_at
		 FROM orders WHERE consumer_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		consumerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.ConsumerID, &order.Status, &order.TotalCents,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, database.MapPostgresError(err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}
