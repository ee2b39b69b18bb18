package course

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no matching course row exists.
var ErrNotFound = errors.New("course not found")

// Course is one offering of the academy (painting, dance, music...). The
// other content entities (events, notices, materials) follow the same
// list/get/create/update/soft-delete shape.
type Course struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Deleted     bool       `json:"deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Repository persists courses in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const courseColumns = `id, name, description, category, deleted, deleted_at, created_at, updated_at`

func scanCourse(s interface{ Scan(...any) error }) (Course, error) {
	var (
		c           Course
		description sql.NullString
		category    sql.NullString
		deletedAt   sql.NullTime
	)
	err := s.Scan(&c.ID, &c.Name, &description, &category, &c.Deleted, &deletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Course{}, err
	}
	c.Description = description.String
	c.Category = category.String
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	return c, nil
}

// ListActive returns courses not in the trash.
func (r *Repository) ListActive(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE deleted = FALSE ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Get returns one course by id.
func (r *Repository) Get(ctx context.Context, id string) (Course, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, ErrNotFound
	}
	return c, err
}

// Create inserts a new course.
func (r *Repository) Create(ctx context.Context, c Course) (Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (id, name, description, category, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,FALSE,$5,$6)
	`, c.ID, c.Name, c.Description, c.Category, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

// Update replaces the course's content fields.
func (r *Repository) Update(ctx context.Context, c Course) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses SET name = $2, description = $3, category = $4, updated_at = NOW() WHERE id = $1
	`, c.ID, c.Name, c.Description, c.Category)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDelete moves a course to the trash.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET deleted = TRUE, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted = FALSE`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Restore brings a trashed course back.
func (r *Repository) Restore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET deleted = FALSE, deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted = TRUE`, id)
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
