package issues

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MohammedjaveedA/PG-Mate/internal/models"
)

// ErrNotFound is returned when no issue matches the query.
var ErrNotFound = errors.New("issue not found")

const issueColumns = `i.id, i.title, i.description, i.room_number, i.category, i.priority, i.status,
	i.student_id, i.pg_hostel_id, i.assigned_to, i.images, COALESCE(i.resolution_notes,''),
	i.resolved_at, i.created_at, i.updated_at, p.name`

// Repository handles issue and issue comment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an issue repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanIssue(row pgx.Row) (*models.Issue, error) {
	var i models.Issue
	err := row.Scan(&i.ID, &i.Title, &i.Description, &i.RoomNumber, &i.Category, &i.Priority, &i.Status,
		&i.StudentID, &i.PGHostelID, &i.AssignedTo, &i.Images, &i.ResolutionNotes,
		&i.ResolvedAt, &i.CreatedAt, &i.UpdatedAt, &i.PGHostelName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

// Create inserts a new issue. StudentID and PGHostelID must already be set from
// the authenticated caller, never from client input.
func (r *Repository) Create(ctx context.Context, i *models.Issue) error {
	const q = `INSERT INTO issues (title, description, room_number, category, priority, status, student_id, pg_hostel_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, i.Title, i.Description, i.RoomNumber, string(i.Category),
		string(i.Priority), string(i.Status), i.StudentID, i.PGHostelID).
		Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
}

// GetByID returns an issue by ID, without its comments.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	const q = `SELECT ` + issueColumns + ` FROM issues i
		INNER JOIN pg_hostels p ON p.id = i.pg_hostel_id
		WHERE i.id = $1`
	return scanIssue(r.pool.QueryRow(ctx, q, id))
}

// GetWithComments returns an issue with its full comment log.
func (r *Repository) GetWithComments(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	issue, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := r.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Comments = comments
	return issue, nil
}

func (r *Repository) list(ctx context.Context, where string, args ...interface{}) ([]models.Issue, error) {
	q := `SELECT ` + issueColumns + ` FROM issues i
		INNER JOIN pg_hostels p ON p.id = i.pg_hostel_id
		WHERE ` + where + ` ORDER BY i.created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Issue
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.attachComments(ctx, list)
}

// attachComments loads comments for a batch of issues in one query and groups
// them onto their issues, preserving append order.
func (r *Repository) attachComments(ctx context.Context, list []models.Issue) ([]models.Issue, error) {
	if len(list) == 0 {
		return list, nil
	}
	ids := make([]uuid.UUID, 0, len(list))
	index := make(map[uuid.UUID]int, len(list))
	for i := range list {
		ids = append(ids, list[i].ID)
		index[list[i].ID] = i
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, issue_id, user_id, text, is_owner, created_at FROM issue_comments
		WHERE issue_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.IssueID, &cm.UserID, &cm.Text, &cm.IsOwner, &cm.CreatedAt); err != nil {
			return nil, err
		}
		i := index[cm.IssueID]
		list[i].Comments = append(list[i].Comments, cm)
	}
	return list, rows.Err()
}

// ListByStudent returns all issues filed by the student, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Issue, error) {
	return r.list(ctx, `i.student_id = $1`, studentID)
}

// ListByPG returns all issues for a PG, optionally filtered by one status, newest first.
func (r *Repository) ListByPG(ctx context.Context, pgHostelID uuid.UUID, status models.Status) ([]models.Issue, error) {
	if status != "" {
		return r.list(ctx, `i.pg_hostel_id = $1 AND i.status = $2`, pgHostelID, string(status))
	}
	return r.list(ctx, `i.pg_hostel_id = $1`, pgHostelID)
}

// UpdateStatus persists the workflow fields set by ApplyStatus.
func (r *Repository) UpdateStatus(ctx context.Context, i *models.Issue) error {
	const q = `UPDATE issues SET status = $1, resolution_notes = NULLIF($2,''), resolved_at = $3,
			assigned_to = $4, updated_at = $5
		WHERE id = $6`
	tag, err := r.pool.Exec(ctx, q, string(i.Status), i.ResolutionNotes, i.ResolvedAt, i.AssignedTo, i.UpdatedAt, i.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddComment appends a comment to the issue's comment log and refreshes the
// issue's updated_at. The bigserial key preserves append order.
func (r *Repository) AddComment(ctx context.Context, issueID, userID uuid.UUID, text string, isOwner bool) (*models.Comment, error) {
	var cm models.Comment
	err := r.pool.QueryRow(ctx,
		`INSERT INTO issue_comments (issue_id, user_id, text, is_owner)
		VALUES ($1, $2, $3, $4)
		RETURNING id, issue_id, user_id, text, is_owner, created_at`,
		issueID, userID, text, isOwner).
		Scan(&cm.ID, &cm.IssueID, &cm.UserID, &cm.Text, &cm.IsOwner, &cm.CreatedAt)
	if err != nil {
		return nil, err
	}
	_, err = r.pool.Exec(ctx, `UPDATE issues SET updated_at = NOW() WHERE id = $1`, issueID)
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// ListComments returns the issue's comments in append order.
func (r *Repository) ListComments(ctx context.Context, issueID uuid.UUID) ([]models.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, issue_id, user_id, text, is_owner, created_at FROM issue_comments
		WHERE issue_id = $1 ORDER BY id`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Comment
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.IssueID, &cm.UserID, &cm.Text, &cm.IsOwner, &cm.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cm)
	}
	return list, rows.Err()
}

// AppendImage records an uploaded image URL on the issue.
func (r *Repository) AppendImage(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE issues SET images = array_append(images, $1), updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
