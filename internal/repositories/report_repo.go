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

// reportColumns joins through to the reported message so every read carries
// the sender the moderation engine needs for warning accumulation.
const reportColumns = `r.id, r.message_id, r.reporter_id, r.reason, r.reported_at,
	r.is_resolved, r.moderation_action, r.moderator_id, r.resolution_notes,
	r.resolved_at, m.sender_id`

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{pool: db.Pool}
}

func scanReportRow(scanner rowScanner) (*models.MessageReport, error) {
	var rep models.MessageReport
	var notes *string

	err := scanner.Scan(
		&rep.ID, &rep.MessageID, &rep.ReporterID, &rep.Reason, &rep.ReportedAt,
		&rep.IsResolved, &rep.ModerationAction, &rep.ModeratorID, &notes,
		&rep.ResolvedAt, &rep.SenderID,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if notes != nil {
		rep.ResolutionNotes = *notes
	}

	return &rep, nil
}

func scanReportRows(rows pgx.Rows) ([]*models.MessageReport, error) {
	defer rows.Close()

	reports := make([]*models.MessageReport, 0)

	for rows.Next() {
		rep, err := scanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reports, nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.MessageReport, error) {
	query := `SELECT ` + reportColumns + `
		FROM message_reports r JOIN messages m ON m.id = r.message_id
		WHERE r.id = $1`

	return scanReportRow(r.pool.QueryRow(ctx, query, id))
}

// GetByIDs returns the reports that still exist for the given IDs. Missing
// IDs are silently absent from the result; the moderation engine treats them
// as already processed.
func (r *ReportRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.MessageReport, error) {
	query := `SELECT ` + reportColumns + `
		FROM message_reports r JOIN messages m ON m.id = r.message_id
		WHERE r.id = ANY($1)
		ORDER BY r.reported_at ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}

	return scanReportRows(rows)
}

func (r *ReportRepository) ListOpen(ctx context.Context, limit, offset int) ([]*models.MessageReport, error) {
	query := `SELECT ` + reportColumns + `
		FROM message_reports r JOIN messages m ON m.id = r.message_id
		WHERE r.is_resolved = FALSE
		ORDER BY r.reported_at ASC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}

	return scanReportRows(rows)
}

// Create inserts a new report. The (message, reporter) pair is unique;
// duplicates surface as models.ErrConflict.
func (r *ReportRepository) Create(ctx context.Context, rep *models.MessageReport) (*models.MessageReport, error) {
	rep.ID = uuid.New().String()
	rep.ReportedAt = time.Now()
	rep.ModerationAction = models.ActionNone

	query := `
		INSERT INTO message_reports (id, message_id, reporter_id, reason, reported_at, moderation_action)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		rep.ID, rep.MessageID, rep.ReporterID, rep.Reason, rep.ReportedAt, rep.ModerationAction,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, rep.ID)
}

// Resolve marks a report resolved with the action taken, the moderator, and
// the resolution notes.
func (r *ReportRepository) Resolve(ctx context.Context, id string, action models.ModerationAction, moderatorID, notes string) error {
	query := `
		UPDATE message_reports
		SET is_resolved = TRUE, moderation_action = $1, moderator_id = $2,
			resolution_notes = $3, resolved_at = $4
		WHERE id = $5
	`

	result, err := r.pool.Exec(ctx, query, action, moderatorID, notes, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes the report row entirely. Used by the delete_report action.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM message_reports WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ReportRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM message_reports WHERE is_resolved = FALSE`).Scan(&count)
	return count, database.MapPostgresError(err)
}

// SoftDeleteMessage flags the reported message as removed by a moderator.
// The row stays so the report trail keeps its evidence; conversation views
// hide it.
func (r *ReportRepository) SoftDeleteMessage(ctx context.Context, messageID string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE messages SET is_moderator_deleted = TRUE WHERE id = $1`, messageID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ReportRepository) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, text_content, is_read, is_moderator_deleted, created_at
		FROM messages WHERE id = $1
	`

	var m models.Message
	var text *string
	err := r.pool.QueryRow(ctx, query, messageID).Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &text, &m.IsRead,
		&m.IsModeratorDeleted, &m.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if text != nil {
		m.TextContent = *text
	}

	return &m, nil
}
