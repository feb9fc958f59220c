package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MohammedjaveedA/PG-Mate/internal/models"
)

// ErrNotFound is returned when no user matches the query.
var ErrNotFound = errors.New("user not found")

const userColumns = `id, name, email, COALESCE(phone,''), password_hash, role, pg_hostel_id, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.Role, &u.PGHostelID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user. Role may be empty; it is then fixed once via UpdateRole.
func (r *Repository) Create(ctx context.Context, name, email, phone, passwordHash string, role models.Role) (*models.User, error) {
	const q = `INSERT INTO users (name, email, phone, password_hash, role)
		VALUES ($1, $2, NULLIF($3,''), $4, $5)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, name, email, phone, passwordHash, string(role)))
}

// UpdateRole sets the user's role.
func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	const q = `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, string(role), id))
}

// SetPGHostel sets or clears (nil) the student's joined PG.
func (r *Repository) SetPGHostel(ctx context.Context, id uuid.UUID, pgHostelID *uuid.UUID) (*models.User, error) {
	const q = `UPDATE users SET pg_hostel_id = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, pgHostelID, id))
}
