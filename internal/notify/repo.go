package notify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Repository persists notifications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertBatch writes all rows in one statement. Either every row lands or
// none does.
func (r *Repository) InsertBatch(ctx context.Context, rows []Notification) error {
	if len(rows) == 0 {
		return nil
	}
	var (
		values []string
		args   []any
	)
	for i, n := range rows {
		base := i * 7
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, n.ID, n.UserID, n.RecipientID, n.Title, n.Message, n.Link, n.CreatedAt)
	}
	query := `INSERT INTO notifications (id, user_id, recipient_id, title, message, link, created_at) VALUES ` +
		strings.Join(values, ",")
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByRecipient returns a recipient's notifications, newest first.
func (r *Repository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, recipient_id, title, message, link, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.RecipientID, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// UnreadCount returns the number of unread notifications for a recipient.
func (r *Repository) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE`,
		recipientID).Scan(&count)
	return count, err
}

// MarkRead flips the read flag on one notification.
func (r *Repository) MarkRead(ctx context.Context, id, recipientID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	return err
}

// MarkAllRead flips the read flag on everything the recipient has.
func (r *Repository) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE`, recipientID)
	return err
}
