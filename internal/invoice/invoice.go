package invoice

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when no matching invoice row exists.
var ErrNotFound = errors.New("invoice not found")

// Status is the invoice lifecycle state.
type Status string

// Invoice statuses.
const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Invoice bills one student for one course fee. Read-mostly: generation and
// payment recording are not implemented yet. CourseID may be empty and DueAt
// nil for rows written without them.
type Invoice struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	CourseID    string     `json:"course_id,omitempty"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	Status      Status     `json:"status"`
	IssuedAt    time.Time  `json:"issued_at"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// Row mirrors the invoices table with its nullable columns.
type Row struct {
	ID          string
	StudentID   string
	CourseID    sql.NullString
	AmountMinor int64
	Currency    string
	Status      string
	IssuedAt    time.Time
	DueAt       sql.NullTime
}

// ToDomain converts a row, substituting zero values for NULL columns.
func ToDomain(r Row) Invoice {
	inv := Invoice{
		ID:          r.ID,
		StudentID:   r.StudentID,
		CourseID:    r.CourseID.String,
		AmountMinor: r.AmountMinor,
		Currency:    r.Currency,
		Status:      Status(r.Status),
		IssuedAt:    r.IssuedAt,
	}
	if r.DueAt.Valid {
		due := r.DueAt.Time
		inv.DueAt = &due
	}
	return inv
}

// Repository reads invoices from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const invoiceColumns = `id, student_id, course_id, amount_minor, currency, status, issued_at, due_at`

func scanInvoice(s interface{ Scan(...any) error }) (Invoice, error) {
	var r Row
	err := s.Scan(&r.ID, &r.StudentID, &r.CourseID, &r.AmountMinor, &r.Currency, &r.Status, &r.IssuedAt, &r.DueAt)
	if err != nil {
		return Invoice{}, err
	}
	return ToDomain(r), nil
}

// ListByStudent returns a student's invoices, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE student_id = $1 ORDER BY issued_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// Get returns one invoice by id.
func (r *Repository) Get(ctx context.Context, id string) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	return inv, err
}
