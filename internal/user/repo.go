package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no matching user row exists.
var ErrNotFound = errors.New("user not found")

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, name, email, phone, address, role, password_hash,
	enrollments, expertise, time_slots, deleted, deleted_at, created_at, updated_at`

func scanUser(s interface{ Scan(...any) error }) (User, error) {
	var r Row
	err := s.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.Address, &r.Role, &r.PasswordHash,
		&r.Enrollments, &r.Expertise, &r.TimeSlots, &r.Deleted, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return ToDomain(r), nil
}

// ListActive returns users not in the trash, optionally filtered by role.
func (r *Repository) ListActive(ctx context.Context, role Role) ([]User, error) {
	return r.list(ctx, false, role)
}

// ListTrashed returns soft-deleted users.
func (r *Repository) ListTrashed(ctx context.Context) ([]User, error) {
	return r.list(ctx, true, "")
}

func (r *Repository) list(ctx context.Context, deleted bool, role Role) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted = $1`
	args := []any{deleted}
	if role != "" {
		query += ` AND role = $2`
		args = append(args, string(role))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Get returns a user by id regardless of deletion state.
func (r *Repository) Get(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetByEmail returns an active user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted = FALSE`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a new user and returns it with id and timestamps set.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	row := ToRow(u)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, phone, address, role, password_hash,
			enrollments, expertise, time_slots, deleted, deleted_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, row.ID, row.Name, row.Email, row.Phone, row.Address, row.Role, row.PasswordHash,
		row.Enrollments, row.Expertise, row.TimeSlots, row.Deleted, row.DeletedAt, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Update replaces the mutable profile fields.
func (r *Repository) Update(ctx context.Context, u User) error {
	row := ToRow(u)
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, phone = $4, address = $5, role = $6,
			enrollments = $7, expertise = $8, time_slots = $9, updated_at = NOW()
		WHERE id = $1
	`, row.ID, row.Name, row.Email, row.Phone, row.Address, row.Role,
		row.Enrollments, row.Expertise, row.TimeSlots)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetEnrollments replaces only the course enrollment list.
func (r *Repository) SetEnrollments(ctx context.Context, id string, courseIDs []string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET enrollments = $2, updated_at = NOW() WHERE id = $1`,
		id, encodeList(courseIDs))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDelete flags the user deleted and stamps the deletion time.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET deleted = TRUE, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted = FALSE`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Restore clears the deletion flag and timestamp.
func (r *Repository) Restore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET deleted = FALSE, deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted = TRUE`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// HardDelete removes the row permanently.
func (r *Repository) HardDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
