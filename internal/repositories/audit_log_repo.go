package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harvestlink/backend/internal/database"
	"github.com/harvestlink/backend/internal/models"
)

// AuditLogRepository records moderation and auth events for the admin
// activity feed.
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{pool: db.Pool}
}

func scanAuditLogRow(row rowScanner) (*models.AuditLog, error) {
	var log models.AuditLog

	err := row.Scan(
		&log.ID, &log.EventType, &log.ActorID, &log.TargetID,
		&log.Success, &log.Metadata, &log.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &log, nil
}

func scanAuditLogRows(rows pgx.Rows) ([]*models.AuditLog, error) {
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)

	for rows.Next() {
		log, err := scanAuditLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}

func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	query := `
		INSERT INTO audit_logs (id, event_type, actor_id, target_id, success, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, event_type, actor_id, target_id, success, metadata, created_at
	`

	result, err := scanAuditLogRow(r.pool.QueryRow(
		ctx, query,
		uuid.New().String(), log.EventType, log.ActorID, log.TargetID, log.Success, log.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return result, nil
}

func (r *AuditLogRepository) GetRecentByEventType(ctx context.Context, eventType string, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, event_type, actor_id, target_id, success, metadata, created_at
		FROM audit_logs
		WHERE event_type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

func (r *AuditLogRepository) GetByTargetID(ctx context.Context, targetID string, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, event_type, actor_id, target_id, success, metadata, created_at
		FROM audit_logs
		WHERE target_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, targetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

func (r *AuditLogRepository) CountTodayByEventType(ctx context.Context, eventType string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM audit_logs
		WHERE event_type = $1 AND created_at >= date_trunc('day', NOW())
	`

	var count int64
	err := r.pool.QueryRow(ctx, query, eventType).Scan(&count)
	return count, database.MapPostgresError(err)
}
