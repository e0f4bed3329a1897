package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID             string    `db:"id" json:"id"`
	FullName       string    `db:"full_name" json:"full_name"`
	Email          string    `db:"email" json:"email"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	CommissionRate float64   `db:"commission_rate" json:"commission_rate"`
	Color          *string   `db:"color" json:"color,omitempty"`
	SortOrder      int       `db:"sort_order" json:"sort_order"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// RankedTeacher pairs a teacher with availability for a queried window,
// used by the assignment pickers.
type RankedTeacher struct {
	Teacher
	Available bool `json:"available"`
}
