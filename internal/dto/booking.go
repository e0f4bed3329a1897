package dto

// BoundSlot pins a single-lesson booking inside one availability window.
// The start-time check against it is inclusive on both ends.
type BoundSlot struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// CreateLessonRequest describes the payload for booking a single lesson.
// SessionID identifies the editing session for the two-phase conflict
// confirmation; leaving it empty starts a fresh session.
type CreateLessonRequest struct {
	SessionID       string            `json:"session_id"`
	Title           string            `json:"title" validate:"required"`
	TeacherID       string            `json:"teacher_id"`
	StudentIDs      []string          `json:"student_ids"`
	Date            string            `json:"date" validate:"required"`
	StartTime       string            `json:"start_time" validate:"required"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,gt=0"`
	Price           *int              `json:"price" validate:"required,gte=0"`
	Cost            *int              `json:"cost" validate:"omitempty,gte=0"`
	LessonPlan      string            `json:"lesson_plan"`
	StudentNotes    map[string]string `json:"student_notes"`
	BoundSlot       *BoundSlot        `json:"bound_slot"`
}

// UpdateLessonRequest mirrors CreateLessonRequest for edits. Changes to
// date/start/duration/teacher re-trigger conflict checking; progress fields
// (completed, lesson plan, student notes) do not.
type UpdateLessonRequest struct {
	SessionID       string            `json:"session_id"`
	Title           string            `json:"title" validate:"required"`
	TeacherID       string            `json:"teacher_id"`
	StudentIDs      []string          `json:"student_ids"`
	Date            string            `json:"date" validate:"required"`
	StartTime       string            `json:"start_time" validate:"required"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,gt=0"`
	Price           *int              `json:"price" validate:"required,gte=0"`
	Cost            *int              `json:"cost" validate:"omitempty,gte=0"`
	Completed       *bool             `json:"completed"`
	LessonPlan      string            `json:"lesson_plan"`
	StudentNotes    map[string]string `json:"student_notes"`
}

// GeneratePreviewRequest expands a lesson template into a weekly series.
type GeneratePreviewRequest struct {
	Title           string   `json:"title" validate:"required"`
	StudentIDs      []string `json:"student_ids"`
	StartDate       string   `json:"start_date" validate:"required"`
	StartTime       string   `json:"start_time" validate:"required"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,gt=0"`
	Price           *int     `json:"price" validate:"required,gte=0"`
	LessonPlan      string   `json:"lesson_plan"`
	HorizonMonths   int      `json:"horizon_months" validate:"required,gt=0"`
}

// PreviewOccurrence is one editable draft lesson inside a recurrence preview.
type PreviewOccurrence struct {
	Index           int      `json:"index"`
	PlaceholderID   string   `json:"placeholder_id"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Title           string   `json:"title"`
	StudentIDs      []string `json:"student_ids"`
	Price           int      `json:"price"`
	TeacherID       string   `json:"teacher_id"`
	Cost            int      `json:"cost"`
	LessonPlan      string   `json:"lesson_plan"`
}

// PreviewResponse returns the materialised series for per-occurrence editing.
type PreviewResponse struct {
	PreviewID   string              `json:"preview_id"`
	Occurrences []PreviewOccurrence `json:"occurrences"`
}

// AssignTeacherRequest sets the teacher for a single occurrence.
type AssignTeacherRequest struct {
	Index     *int   `json:"index" validate:"required,gte=0"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// BulkAssignTeacherRequest applies one teacher to every occurrence.
type BulkAssignTeacherRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
}

// UpdateOccurrencePriceRequest edits one occurrence's price before commit.
type UpdateOccurrencePriceRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
	Price *int `json:"price" validate:"required,gte=0"`
}

// RankTeachersQuery filters and ranks teachers for an assignment picker.
type RankTeachersQuery struct {
	Search          string `form:"search"`
	Date            string `form:"date" validate:"required"`
	StartTime       string `form:"start" validate:"required"`
	DurationMinutes int    `form:"duration" validate:"required,gt=0"`
}

// UpsertSlotRequest adds or edits one availability slot.
type UpsertSlotRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}
