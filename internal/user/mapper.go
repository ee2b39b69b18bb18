package user

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Row mirrors the users table. Collection-valued profile fields are stored as
// JSON arrays; the mapper keeps both directions total so a malformed column
// degrades to an empty collection instead of failing the whole read.
type Row struct {
	ID           string
	Name         string
	Email        string
	Phone        sql.NullString
	Address      sql.NullString
	Role         string
	PasswordHash string
	Enrollments  []byte
	Expertise    []byte
	TimeSlots    []byte
	Deleted      bool
	DeletedAt    sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ToDomain converts a table row to a User. Absent or unparseable collections
// resolve to empty slices, never nil. Unknown role values pass through as-is.
func ToDomain(r Row) User {
	u := User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone.String,
		Address:      r.Address.String,
		Role:         Role(r.Role),
		PasswordHash: r.PasswordHash,
		Enrollments:  decodeList(r.Enrollments),
		Expertise:    decodeList(r.Expertise),
		TimeSlots:    decodeList(r.TimeSlots),
		Deleted:      r.Deleted,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time
		u.DeletedAt = &t
	}
	return u
}

// ToRow converts a User back to its table shape.
func ToRow(u User) Row {
	r := Row{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		Enrollments:  encodeList(u.Enrollments),
		Expertise:    encodeList(u.Expertise),
		TimeSlots:    encodeList(u.TimeSlots),
		Deleted:      u.Deleted,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Phone != "" {
		r.Phone = sql.NullString{String: u.Phone, Valid: true}
	}
	if u.Address != "" {
		r.Address = sql.NullString{String: u.Address, Valid: true}
	}
	if u.DeletedAt != nil {
		r.DeletedAt = sql.NullTime{Time: *u.DeletedAt, Valid: true}
	}
	return r
}

func decodeList(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func encodeList(list []string) []byte {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return []byte("[]")
	}
	return raw
}
