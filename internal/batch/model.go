package batch

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Mode is how a batch meets.
type Mode string

// Batch modes.
const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
	ModeHybrid  Mode = "hybrid"
)

// Unassigned is the sentinel batch id meaning "no batch": moving a student to
// it removes them from their old batch without enrolling them anywhere.
const Unassigned = "unassigned"

// ScheduleEntry is a single timing slot within a batch holding the students
// enrolled in that slot.
type ScheduleEntry struct {
	Timing     string   `json:"timing"`
	StudentIDs []string `json:"student_ids"`
}

// HasStudent reports whether the entry holds the student.
func (e ScheduleEntry) HasStudent(id string) bool {
	for _, s := range e.StudentIDs {
		if s == id {
			return true
		}
	}
	return false
}

// Batch groups students of one course under an optional teacher, split into
// schedule entries. A student id appears in at most one entry per course
// enrollment intent; the reconciler enforces that procedurally.
type Batch struct {
	ID        string          `json:"id"`
	CourseID  string          `json:"course_id"`
	TeacherID string          `json:"teacher_id,omitempty"`
	Capacity  int             `json:"capacity"`
	Mode      Mode            `json:"mode"`
	Schedule  []ScheduleEntry `json:"schedule"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Row mirrors the batches table; the schedule is a JSON column.
type Row struct {
	ID        string
	CourseID  string
	TeacherID sql.NullString
	Capacity  int
	Mode      string
	Schedule  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToDomain converts a table row to a Batch. A missing or unparseable schedule
// column degrades to an empty schedule; entry student sets are never nil.
func ToDomain(r Row) Batch {
	b := Batch{
		ID:        r.ID,
		CourseID:  r.CourseID,
		TeacherID: r.TeacherID.String,
		Capacity:  r.Capacity,
		Mode:      Mode(r.Mode),
		Schedule:  []ScheduleEntry{},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Schedule) > 0 {
		var entries []ScheduleEntry
		if err := json.Unmarshal(r.Schedule, &entries); err == nil && entries != nil {
			b.Schedule = entries
		}
	}
	for i := range b.Schedule {
		if b.Schedule[i].StudentIDs == nil {
			b.Schedule[i].StudentIDs = []string{}
		}
	}
	return b
}

// ToRow converts a Batch back to its table shape.
func ToRow(b Batch) Row {
	r := Row{
		ID:        b.ID,
		CourseID:  b.CourseID,
		Capacity:  b.Capacity,
		Mode:      string(b.Mode),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.TeacherID != "" {
		r.TeacherID = sql.NullString{String: b.TeacherID, Valid: true}
	}
	if b.Schedule == nil {
		b.Schedule = []ScheduleEntry{}
	}
	raw, err := json.Marshal(b.Schedule)
	if err != nil {
		raw = []byte("[]")
	}
	r.Schedule = raw
	return r
}
