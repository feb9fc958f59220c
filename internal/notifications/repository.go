package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MohammedjaveedA/PG-Mate/internal/models"
)

// Repository persists email notification logs in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a queued email log entry and returns it.
func (r *Repository) Create(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error) {
	query := `
		INSERT INTO email_logs (issue_id, recipient, subject, body, status)
		VALUES ($1, $2, $3, $4, 'queued')
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		log.IssueID, log.Recipient, log.Subject, log.Body,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert email log: %w", err)
	}
	log.Status = "queued"
	return log, nil
}

// MarkSent marks an email log as sent.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = 'sent', sent_at = $2, error = '' WHERE id = $1`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// MarkFailed marks an email log as failed with the error message.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE email_logs SET status = 'failed', error = $2 WHERE id = $1`,
		id, cause)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// ListByIssue returns the notification emails recorded for an issue, newest first.
func (r *Repository) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]models.EmailLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, issue_id, recipient, subject, body, status, COALESCE(error,''), created_at, sent_at
		FROM email_logs
		WHERE issue_id = $1
		ORDER BY created_at DESC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.EmailLog, 0)
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.IssueID, &l.Recipient, &l.Subject, &l.Body,
			&l.Status, &l.Error, &l.CreatedAt, &l.SentAt); err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
