package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/timeslot"
)

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.Lesson, error)
	ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

type teacherDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// BookingService books single lessons: field validation, slot-bound checks,
// the two-phase conflict confirmation, id allocation and cost derivation.
type BookingService struct {
	lessons   lessonRepository
	teachers  teacherDirectory
	confirms  *confirmStore
	validator *validator.Validate
	logger    *zap.Logger
}

// BookingConfig governs booking session behaviour.
type BookingConfig struct {
	SessionTTL time.Duration
}

// NewBookingService constructs a BookingService.
func NewBookingService(lessons lessonRepository, teachers teacherDirectory, validate *validator.Validate, logger *zap.Logger, cfg BookingConfig) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &BookingService{
		lessons:   lessons,
		teachers:  teachers,
		confirms:  newConfirmStore(cfg.SessionTTL),
		validator: validate,
		logger:    logger,
	}
}

// List returns lessons with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	lessons, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return lessons, pagination, nil
}

// Get loads one lesson by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// CreateSingle books one lesson. A same-teacher same-date time overlap is
// answered with a LessonConflictWarning (wrapped in a CONFLICT error) the
// first time; re-submitting the identical candidate under the returned
// session id confirms the double-booking and persists it.
func (s *BookingService) CreateSingle(ctx context.Context, req dto.CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	startMin, err := timeslot.ToMinutes(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}

	if req.BoundSlot != nil {
		if err := s.checkBound(req.StartTime, startMin, *req.BoundSlot); err != nil {
			return nil, err
		}
	}

	if req.TeacherID != "" {
		if _, err := s.checkConflict(ctx, conflictCandidate{
			SessionID:       req.SessionID,
			TeacherID:       req.TeacherID,
			Date:            day,
			StartMin:        startMin,
			DurationMinutes: req.DurationMinutes,
		}, ""); err != nil {
			return nil, err
		}
	} else if req.SessionID != "" {
		s.confirms.Clear(req.SessionID)
	}

	sameDay, err := s.lessons.ListByDate(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan lessons for id allocation")
	}
	id, err := NextLessonID(sameDay, day, 0)
	if err != nil {
		return nil, err
	}

	lesson, err := s.buildLesson(ctx, id, day, req.Title, req.TeacherID, req.StudentIDs, req.StartTime, req.DurationMinutes, *req.Price, req.Cost, req.LessonPlan, req.StudentNotes)
	if err != nil {
		return nil, err
	}

	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	if req.SessionID != "" {
		s.confirms.Clear(req.SessionID)
	}
	return lesson, nil
}

// Update edits an existing lesson, keeping its identifier. Scheduling-field
// changes (teacher/date/start/duration) re-run conflict detection with the
// edited lesson excluded; progress-only edits skip it.
func (s *BookingService) Update(ctx context.Context, id string, req dto.UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	startMin, err := timeslot.ToMinutes(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}

	schedulingChanged := !existing.Date.Equal(day) ||
		existing.StartTime != req.StartTime ||
		existing.DurationMinutes != req.DurationMinutes ||
		teacherOf(existing) != req.TeacherID

	if schedulingChanged && req.TeacherID != "" {
		if _, err := s.checkConflict(ctx, conflictCandidate{
			SessionID:       req.SessionID,
			TeacherID:       req.TeacherID,
			Date:            day,
			StartMin:        startMin,
			DurationMinutes: req.DurationMinutes,
		}, id); err != nil {
			return nil, err
		}
	}

	lesson, err := s.buildLesson(ctx, existing.ID, day, req.Title, req.TeacherID, req.StudentIDs, req.StartTime, req.DurationMinutes, *req.Price, req.Cost, req.LessonPlan, req.StudentNotes)
	if err != nil {
		return nil, err
	}
	lesson.Completed = existing.Completed
	if req.Completed != nil {
		lesson.Completed = *req.Completed
	}
	lesson.CreatedAt = existing.CreatedAt

	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	if req.SessionID != "" {
		s.confirms.Clear(req.SessionID)
	}
	return lesson, nil
}

// Delete removes a lesson by id.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

type conflictCandidate struct {
	SessionID       string
	TeacherID       string
	Date            time.Time
	StartMin        int
	DurationMinutes int
}

// checkConflict runs the Clean/WarningIssued state machine. It returns true
// when the save proceeded through a confirmed override.
func (s *BookingService) checkConflict(ctx context.Context, cand conflictCandidate, excludeID string) (bool, error) {
	sameTeacher, err := s.lessons.ListByTeacherAndDate(ctx, cand.TeacherID, cand.Date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lesson conflicts")
	}

	candEnd := cand.StartMin + cand.DurationMinutes
	var colliding *models.Lesson
	for i := range sameTeacher {
		other := &sameTeacher[i]
		if other.ID == excludeID {
			continue
		}
		otherStart, convErr := timeslot.ToMinutes(other.StartTime)
		if convErr != nil {
			continue
		}
		if timeslot.Overlaps(cand.StartMin, candEnd, otherStart, otherStart+other.DurationMinutes) {
			colliding = other
			break
		}
	}

	fp := conflictFingerprint{
		TeacherID:       cand.TeacherID,
		Date:            cand.Date.Format("2006-01-02"),
		StartTime:       timeslot.FromMinutes(cand.StartMin),
		DurationMinutes: cand.DurationMinutes,
	}

	if colliding == nil {
		// Parameters changed away from the warned candidate: reset to Clean.
		if cand.SessionID != "" {
			s.confirms.Clear(cand.SessionID)
		}
		return false, nil
	}

	if cand.SessionID != "" && s.confirms.Confirmed(cand.SessionID, fp) {
		s.logger.Info("double-booking confirmed",
			zap.String("teacher_id", cand.TeacherID),
			zap.String("date", fp.Date),
			zap.String("colliding_lesson", colliding.ID))
		return true, nil
	}

	sessionID := cand.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.confirms.Save(sessionID, fp)

	teacherName := cand.TeacherID
	if teacher, lookupErr := s.teachers.FindByID(ctx, cand.TeacherID); lookupErr == nil {
		teacherName = teacher.FullName
	}

	otherStart, _ := timeslot.ToMinutes(colliding.StartTime)
	warning := &models.LessonConflictWarning{
		SessionID: sessionID,
		Message:   fmt.Sprintf("%s already has a lesson in this time range; submit again to book anyway", teacherName),
		Conflict: models.LessonConflict{
			LessonID:    colliding.ID,
			TeacherID:   cand.TeacherID,
			TeacherName: teacherName,
			Date:        fp.Date,
			StartTime:   colliding.StartTime,
			EndTime:     timeslot.FromMinutes(otherStart + colliding.DurationMinutes),
		},
	}
	return false, appErrors.Wrap(warning, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, warning.Message)
}

func (s *BookingService) checkBound(startTime string, startMin int, bound dto.BoundSlot) error {
	boundStart, err := timeslot.ToMinutes(bound.Start)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bound slot start")
	}
	boundEnd, err := timeslot.ToMinutes(bound.End)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bound slot end")
	}
	// Inclusive on both ends: starting exactly at the slot's end is allowed.
	if startMin < boundStart || startMin > boundEnd {
		return appErrors.Clone(appErrors.ErrOutOfSlot,
			fmt.Sprintf("start time %s must be between %s and %s", startTime, bound.Start, bound.End))
	}
	return nil
}

func (s *BookingService) buildLesson(ctx context.Context, id string, day time.Time, title, teacherID string, studentIDs []string, startTime string, durationMinutes, price int, costOverride *int, lessonPlan string, studentNotes map[string]string) (*models.Lesson, error) {
	lesson := &models.Lesson{
		ID:              id,
		StudentIDs:      pq.StringArray(studentIDs),
		Date:            day,
		StartTime:       startTime,
		DurationMinutes: durationMinutes,
		Title:           title,
		Price:           price,
		LessonPlan:      lessonPlan,
	}
	if teacherID != "" {
		lesson.TeacherID = &teacherID
	}

	switch {
	case costOverride != nil:
		lesson.Cost = *costOverride
	case teacherID != "":
		teacher, err := s.teachers.FindByID(ctx, teacherID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "assigned teacher not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		lesson.Cost = lessonCost(price, teacher.CommissionRate)
	}

	if len(studentNotes) > 0 {
		payload, err := json.Marshal(studentNotes)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode student notes")
		}
		lesson.StudentNotes = payload
	}
	return lesson, nil
}

func teacherOf(lesson *models.Lesson) string {
	if lesson.TeacherID == nil {
		return ""
	}
	return *lesson.TeacherID
}

// confirmStore keeps the Clean/WarningIssued conflict state per editing
// session. An entry exists only while a warning is pending; a candidate whose
// fingerprint differs from the stored one is treated as Clean again.
type conflictFingerprint struct {
	TeacherID       string
	Date            string
	StartTime       string
	DurationMinutes int
}

type confirmEntry struct {
	fingerprint conflictFingerprint
	warnedAt    time.Time
}

type confirmStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]confirmEntry
}

func newConfirmStore(ttl time.Duration) *confirmStore {
	return &confirmStore{ttl: ttl, items: make(map[string]confirmEntry)}
}

func (s *confirmStore) Save(sessionID string, fp conflictFingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sessionID] = confirmEntry{fingerprint: fp, warnedAt: time.Now()}
}

// Confirmed reports whether a warning was already issued for exactly this
// candidate in this session.
func (s *confirmStore) Confirmed(sessionID string, fp conflictFingerprint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[sessionID]
	if !ok {
		return false
	}
	if time.Since(entry.warnedAt) > s.ttl {
		delete(s.items, sessionID)
		return false
	}
	return entry.fingerprint == fp
}

func (s *confirmStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
}
