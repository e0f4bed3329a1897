package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Lesson represents a scheduled teaching session. The primary key is the
// date-sortable business identifier YYYYMMDDNNN allocated at creation time.
type Lesson struct {
	ID              string         `db:"id" json:"id"`
	TeacherID       *string        `db:"teacher_id" json:"teacher_id,omitempty"`
	StudentIDs      pq.StringArray `db:"student_ids" json:"student_ids"`
	Date            time.Time      `db:"lesson_date" json:"date"`
	StartTime       string         `db:"start_time" json:"start_time"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Title           string         `db:"title" json:"title"`
	Price           int            `db:"price" json:"price"`
	Cost            int            `db:"cost" json:"cost"`
	Completed       bool           `db:"completed" json:"completed"`
	LessonPlan      string         `db:"lesson_plan" json:"lesson_plan"`
	StudentNotes    types.JSONText `db:"student_notes" json:"student_notes,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// LessonFilter describes query params for listing lessons.
type LessonFilter struct {
	TeacherID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Completed *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// LessonConflict describes the existing lesson a candidate collides with.
type LessonConflict struct {
	LessonID    string `json:"lesson_id"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// LessonConflictWarning is the non-fatal first response when a candidate
// double-books a teacher. Re-submitting the identical candidate with the
// returned session id confirms the override.
type LessonConflictWarning struct {
	SessionID string         `json:"session_id"`
	Message   string         `json:"message"`
	Conflict  LessonConflict `json:"conflict"`
}

// Error implements the error interface for conflict warnings.
func (w *LessonConflictWarning) Error() string {
	if w == nil {
		return "<nil>"
	}
	return w.Message
}
