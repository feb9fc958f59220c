package pghostel

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MohammedjaveedA/PG-Mate/internal/models"
)

// ErrNotFound is returned when no PG/hostel matches the query.
var ErrNotFound = errors.New("pg hostel not found")

const pgColumns = `id, owner_id, name,
	COALESCE(street,''), COALESCE(city,''), COALESCE(state,''), COALESCE(pincode,''), COALESCE(landmark,''),
	COALESCE(contact_phone,''), COALESCE(contact_email,''),
	facilities, total_rooms, occupied_rooms, COALESCE(description,''), images, is_active, created_at, updated_at`

// Repository handles PG/hostel persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PG/hostel repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPG(row pgx.Row) (*models.PGHostel, error) {
	var p models.PGHostel
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name,
		&p.Address.Street, &p.Address.City, &p.Address.State, &p.Address.Pincode, &p.Address.Landmark,
		&p.Contact.Phone, &p.Contact.Email,
		&p.Facilities, &p.TotalRooms, &p.OccupiedRooms, &p.Description, &p.Images, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanPGRows(rows pgx.Rows) ([]models.PGHostel, error) {
	defer rows.Close()
	var list []models.PGHostel
	for rows.Next() {
		p, err := scanPG(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Create inserts a new PG/hostel. OwnerID must already be set by the caller.
func (r *Repository) Create(ctx context.Context, p *models.PGHostel) error {
	const q = `INSERT INTO pg_hostels (owner_id, name, street, city, state, pincode, landmark,
			contact_phone, contact_email, facilities, total_rooms, occupied_rooms, description, images, is_active)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''),
			NULLIF($8,''), NULLIF($9,''), $10, $11, $12, NULLIF($13,''), $14, $15)
		RETURNING id, created_at, updated_at`
	facilities := p.Facilities
	if facilities == nil {
		facilities = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return r.pool.QueryRow(ctx, q, p.OwnerID, p.Name,
		p.Address.Street, p.Address.City, p.Address.State, p.Address.Pincode, p.Address.Landmark,
		p.Contact.Phone, p.Contact.Email, facilities, p.TotalRooms, p.OccupiedRooms, p.Description, images, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a PG/hostel by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.PGHostel, error) {
	return scanPG(r.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM pg_hostels WHERE id = $1`, id))
}

// ListActive returns active PG/hostels for the public listing.
func (r *Repository) ListActive(ctx context.Context) ([]models.PGHostel, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pgColumns+` FROM pg_hostels WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanPGRows(rows)
}

// ListByOwner returns all PG/hostels owned by the user, active or not, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PGHostel, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pgColumns+` FROM pg_hostels WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanPGRows(rows)
}

// Update persists mutable PG/hostel fields.
func (r *Repository) Update(ctx context.Context, p *models.PGHostel) error {
	const q = `UPDATE pg_hostels SET name = $1, street = NULLIF($2,''), city = NULLIF($3,''), state = NULLIF($4,''),
			pincode = NULLIF($5,''), landmark = NULLIF($6,''), contact_phone = NULLIF($7,''), contact_email = NULLIF($8,''),
			facilities = $9, total_rooms = $10, occupied_rooms = $11, description = NULLIF($12,''), images = $13,
			is_active = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING updated_at`
	facilities := p.Facilities
	if facilities == nil {
		facilities = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	err := r.pool.QueryRow(ctx, q, p.Name,
		p.Address.Street, p.Address.City, p.Address.State, p.Address.Pincode, p.Address.Landmark,
		p.Contact.Phone, p.Contact.Email, facilities, p.TotalRooms, p.OccupiedRooms, p.Description, images,
		p.IsActive, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// DeleteOwned deletes the PG/hostel only when it is owned by ownerID and has no
// issue left in a non-terminal state. The guard and the delete are a single
// conditional statement, so there is no check-then-delete window. Resolved and
// closed issues cascade with the row; joined students are detached in the same
// transaction. Returns the number of rows deleted (0 or 1).
func (r *Repository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (int64, error) {
	const q = `DELETE FROM pg_hostels
		WHERE id = $1 AND owner_id = $2
		AND NOT EXISTS (
			SELECT 1 FROM issues WHERE pg_hostel_id = $1 AND status IN ('pending', 'in-progress')
		)`
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, q, id, ownerID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET pg_hostel_id = NULL, updated_at = NOW() WHERE pg_hostel_id = $1`, id); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountActiveIssues returns the number of pending or in-progress issues for a PG.
func (r *Repository) CountActiveIssues(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM issues WHERE pg_hostel_id = $1 AND status IN ('pending', 'in-progress')`, id).Scan(&n)
	return n, err
}

// AppendImage records an uploaded image URL on the PG/hostel.
func (r *Repository) AppendImage(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pg_hostels SET images = array_append(images, $1), updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
