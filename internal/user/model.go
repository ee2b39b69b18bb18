package user

import "time"

// Role distinguishes the three portal dashboards.
type Role string

// Portal roles.
const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is an academy account: a student/guardian, a teacher, or an admin.
// Students carry course enrollments and preferred time slots; teachers carry
// the list of courses they can teach.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	Enrollments  []string   `json:"enrollments"`
	Expertise    []string   `json:"expertise"`
	TimeSlots    []string   `json:"time_slots"`
	Deleted      bool       `json:"deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive reports whether the account is usable (not in the trash).
func (u User) IsActive() bool { return !u.Deleted }
