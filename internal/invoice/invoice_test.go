package invoice

import (
	"database/sql"
	"testing"
	"time"
)

func TestToDomainNullableColumns(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// course_id and due_at are nullable in the schema; a NULL in either must
	// still yield a usable invoice.
	inv := ToDomain(Row{
		ID:          "inv-1",
		StudentID:   "stu-1",
		CourseID:    sql.NullString{},
		AmountMinor: 250000,
		Currency:    "INR",
		Status:      "pending",
		IssuedAt:    issued,
		DueAt:       sql.NullTime{},
	})

	if inv.ID != "inv-1" || inv.StudentID != "stu-1" {
		t.Fatalf("identifiers lost: %+v", inv)
	}
	if inv.CourseID != "" {
		t.Errorf("CourseID = %q, want empty for NULL column", inv.CourseID)
	}
	if inv.DueAt != nil {
		t.Errorf("DueAt = %v, want nil for NULL column", inv.DueAt)
	}
	if inv.AmountMinor != 250000 || inv.Status != StatusPending {
		t.Errorf("populated fields wrong: %+v", inv)
	}
}

func TestToDomainFullRow(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	due := issued.AddDate(0, 0, 14)

	inv := ToDomain(Row{
		ID:          "inv-2",
		StudentID:   "stu-1",
		CourseID:    sql.NullString{String: "course-violin", Valid: true},
		AmountMinor: 180000,
		Currency:    "INR",
		Status:      "paid",
		IssuedAt:    issued,
		DueAt:       sql.NullTime{Time: due, Valid: true},
	})

	if inv.CourseID != "course-violin" {
		t.Errorf("CourseID = %q, want course-violin", inv.CourseID)
	}
	if inv.DueAt == nil || !inv.DueAt.Equal(due) {
		t.Errorf("DueAt = %v, want %v", inv.DueAt, due)
	}
	if inv.Status != StatusPaid {
		t.Errorf("Status = %q, want paid", inv.Status)
	}
}
