package batch

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no matching batch row exists.
var ErrNotFound = errors.New("batch not found")

// Repository persists batches in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const batchColumns = `id, course_id, teacher_id, capacity, mode, schedule, created_at, updated_at`

func scanBatch(s interface{ Scan(...any) error }) (Batch, error) {
	var r Row
	err := s.Scan(&r.ID, &r.CourseID, &r.TeacherID, &r.Capacity, &r.Mode, &r.Schedule, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Batch{}, err
	}
	return ToDomain(r), nil
}

// List returns all batches, optionally filtered by course.
func (r *Repository) List(ctx context.Context, courseID string) ([]Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches`
	args := []any{}
	if courseID != "" {
		query += ` WHERE course_id = $1`
		args = append(args, courseID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Get returns one batch by id.
func (r *Repository) Get(ctx context.Context, id string) (Batch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, ErrNotFound
	}
	return b, err
}

// Create inserts a new batch.
func (r *Repository) Create(ctx context.Context, b Batch) (Batch, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	row := ToRow(b)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO batches (id, course_id, teacher_id, capacity, mode, schedule, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, row.ID, row.CourseID, row.TeacherID, row.Capacity, row.Mode, row.Schedule, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return Batch{}, err
	}
	return b, nil
}

// Update replaces the batch, including its full schedule.
func (r *Repository) Update(ctx context.Context, b Batch) error {
	row := ToRow(b)
	res, err := r.db.ExecContext(ctx, `
		UPDATE batches
		SET course_id = $2, teacher_id = $3, capacity = $4, mode = $5, schedule = $6, updated_at = NOW()
		WHERE id = $1
	`, row.ID, row.CourseID, row.TeacherID, row.Capacity, row.Mode, row.Schedule)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a batch.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
