package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

const availabilityColumns = "id, teacher_id, slot_date, slots, created_at, updated_at"

// AvailabilityRepository manages per-teacher-per-date availability records.
// The slot list lives in a JSONB column; the (teacher_id, slot_date) pair is
// unique.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// FindByTeacherAndDate fetches the single record for one teacher and day.
func (r *AvailabilityRepository) FindByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (*models.Availability, error) {
	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE teacher_id = $1 AND slot_date = $2", availabilityColumns)
	var availability models.Availability
	if err := r.db.GetContext(ctx, &availability, query, teacherID, date); err != nil {
		return nil, err
	}
	return &availability, nil
}

// ListByTeacherRange returns a teacher's records between two dates inclusive.
func (r *AvailabilityRepository) ListByTeacherRange(ctx context.Context, teacherID string, from, to time.Time) ([]models.Availability, error) {
	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE teacher_id = $1 AND slot_date BETWEEN $2 AND $3 ORDER BY slot_date ASC", availabilityColumns)
	var records []models.Availability
	if err := r.db.SelectContext(ctx, &records, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list availabilities: %w", err)
	}
	return records, nil
}

// Create inserts the day's record on first slot registration.
func (r *AvailabilityRepository) Create(ctx context.Context, availability *models.Availability) error {
	if availability.ID == "" {
		availability.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if availability.CreatedAt.IsZero() {
		availability.CreatedAt = now
	}
	availability.UpdatedAt = now

	const query = `INSERT INTO availabilities (id, teacher_id, slot_date, slots, created_at, updated_at)
		VALUES (:id, :teacher_id, :slot_date, :slots, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, availability); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Update rewrites the record's slot list.
func (r *AvailabilityRepository) Update(ctx context.Context, availability *models.Availability) error {
	availability.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availabilities SET slots = :slots, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, availability); err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}
