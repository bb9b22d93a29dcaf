package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/models"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{pool: db.Pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now()

	query := `
		INSERT INTO notifications (id, recipient_id, message, link, is_read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`

	_, err := r.pool.Exec(ctx, query, n.ID, n.RecipientID, n.Message, n.Link, n.CreatedAt)
	return database.MapPostgresError(err)
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, recipient_id, message, link, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`

	result, err := r.pool.Exec(ctx, query, id, recipientID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// PurgeUnlinkedWarnings removes stale warning notices previously sent to a
// user. Only link-less warning notifications qualify; everything else stays.
// The moderation engine calls this best-effort before processing a batch so
// dead warnings do not pile up when a report is resolved through another
// path.
func (r *NotificationRepository) PurgeUnlinkedWarnings(ctx context.Context, recipientID string) (int64, error) {
	query := `
		DELETE FROM notifications
		WHERE recipient_id = $1 AND link IS NULL AND message LIKE 'You have received a warning%'
	`

	result, err := r.pool.Exec(ctx, query, recipientID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

// DeleteReadOlderThan trims read notifications past the retention window.
// Called by the background cleanup manager.
func (r *NotificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
