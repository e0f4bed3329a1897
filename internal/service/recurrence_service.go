package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
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

type teacherRoster interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type availabilityChecker interface {
	IsTeacherAvailable(ctx context.Context, teacherID string, date time.Time, startTime string, durationMinutes int) (bool, error)
}

// RecurrenceService expands a lesson template into a weekly series, lets the
// caller assign teachers per occurrence, and commits the finished series as
// independent lesson writes.
type RecurrenceService struct {
	lessons      lessonRepository
	teachers     teacherRoster
	availability availabilityChecker
	validator    *validator.Validate
	logger       *zap.Logger
	store        *previewStore
}

// RecurrenceConfig governs preview lifetime.
type RecurrenceConfig struct {
	PreviewTTL time.Duration
}

// NewRecurrenceService wires recurrence dependencies.
func NewRecurrenceService(lessons lessonRepository, teachers teacherRoster, availability availabilityChecker, validate *validator.Validate, logger *zap.Logger, cfg RecurrenceConfig) *RecurrenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = 30 * time.Minute
	}
	return &RecurrenceService{
		lessons:      lessons,
		teachers:     teachers,
		availability: availability,
		validator:    validate,
		logger:       logger,
		store:        newPreviewStore(cfg.PreviewTTL),
	}
}

// Generate materialises the weekly series: one occurrence every 7 days from
// the start date while the occurrence falls strictly before startDate plus
// the horizon in calendar months. Drafts copy the template, start with no
// teacher and zero cost, and carry placeholder ids until commit.
func (s *RecurrenceService) Generate(ctx context.Context, req dto.GeneratePreviewRequest) (*dto.PreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	if _, err := timeslot.ToMinutes(req.StartTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}

	end := start.AddDate(0, req.HorizonMonths, 0)
	var occurrences []dto.PreviewOccurrence
	for day, idx := start, 0; day.Before(end); day, idx = day.AddDate(0, 0, 7), idx+1 {
		occurrences = append(occurrences, dto.PreviewOccurrence{
			Index:           idx,
			PlaceholderID:   fmt.Sprintf("draft-%s-%02d", day.Format("20060102"), idx),
			Date:            day.Format("2006-01-02"),
			StartTime:       req.StartTime,
			DurationMinutes: req.DurationMinutes,
			Title:           req.Title,
			StudentIDs:      append([]string(nil), req.StudentIDs...),
			Price:           *req.Price,
			LessonPlan:      req.LessonPlan,
		})
	}
	if len(occurrences) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "horizon produces no occurrences")
	}

	preview := recurrencePreview{
		PreviewID:   uuid.NewString(),
		Occurrences: occurrences,
		GeneratedAt: time.Now().UTC(),
	}
	s.store.Save(preview)

	return &dto.PreviewResponse{PreviewID: preview.PreviewID, Occurrences: occurrences}, nil
}

// Get returns the current state of a preview.
func (s *RecurrenceService) Get(ctx context.Context, previewID string) (*dto.PreviewResponse, error) {
	preview, ok := s.store.Get(previewID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "preview not found or expired")
	}
	return &dto.PreviewResponse{PreviewID: preview.PreviewID, Occurrences: preview.Occurrences}, nil
}

// AssignTeacher sets the teacher on one occurrence and recomputes that
// occurrence's cost from its own price and the teacher's commission rate.
func (s *RecurrenceService) AssignTeacher(ctx context.Context, previewID string, req dto.AssignTeacherRequest) (*dto.PreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	teacher, err := s.lookupTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	return s.mutate(previewID, func(occurrences []dto.PreviewOccurrence) ([]dto.PreviewOccurrence, error) {
		idx := *req.Index
		if idx >= len(occurrences) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence index out of range")
		}
		occurrences[idx].TeacherID = teacher.ID
		occurrences[idx].Cost = lessonCost(occurrences[idx].Price, teacher.CommissionRate)
		return occurrences, nil
	})
}

// BulkAssignTeacher applies one teacher to every occurrence, recomputing each
// occurrence's cost independently against its own price.
func (s *RecurrenceService) BulkAssignTeacher(ctx context.Context, previewID string, req dto.BulkAssignTeacherRequest) (*dto.PreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	teacher, err := s.lookupTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	return s.mutate(previewID, func(occurrences []dto.PreviewOccurrence) ([]dto.PreviewOccurrence, error) {
		for i := range occurrences {
			occurrences[i].TeacherID = teacher.ID
			occurrences[i].Cost = lessonCost(occurrences[i].Price, teacher.CommissionRate)
		}
		return occurrences, nil
	})
}

// UpdateOccurrencePrice edits a single occurrence's price before commit and
// recomputes its cost when a teacher is already assigned.
func (s *RecurrenceService) UpdateOccurrencePrice(ctx context.Context, previewID string, req dto.UpdateOccurrencePriceRequest) (*dto.PreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid price payload")
	}
	return s.mutate(previewID, func(occurrences []dto.PreviewOccurrence) ([]dto.PreviewOccurrence, error) {
		idx := *req.Index
		if idx >= len(occurrences) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence index out of range")
		}
		occurrences[idx].Price = *req.Price
		if occurrences[idx].TeacherID != "" {
			teacher, err := s.lookupTeacher(ctx, occurrences[idx].TeacherID)
			if err != nil {
				return nil, err
			}
			occurrences[idx].Cost = lessonCost(occurrences[idx].Price, teacher.CommissionRate)
		}
		return occurrences, nil
	})
}

// RankTeachers filters teachers by a name/phone search term and stable-sorts
// them so that teachers available for the queried window come first. Teachers
// within the same bucket keep their original relative order.
func (s *RecurrenceService) RankTeachers(ctx context.Context, q dto.RankTeachersQuery) ([]models.RankedTeacher, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ranking query")
	}
	day, err := parseDate(q.Date)
	if err != nil {
		return nil, err
	}

	active := true
	teachers, _, err := s.teachers.List(ctx, models.TeacherFilter{Search: q.Search, Active: &active, PageSize: 200})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	ranked := make([]models.RankedTeacher, 0, len(teachers))
	for _, teacher := range teachers {
		available, availErr := s.availability.IsTeacherAvailable(ctx, teacher.ID, day, q.StartTime, q.DurationMinutes)
		if availErr != nil {
			return nil, availErr
		}
		ranked = append(ranked, models.RankedTeacher{Teacher: teacher, Available: available})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Available && !ranked[j].Available
	})
	return ranked, nil
}

// Commit persists every occurrence of the preview as an individual lesson.
// All occurrences must have a teacher. Ids are allocated with a per-date
// running offset so a batch sharing one date stays collision-free even though
// none of its lessons exist yet. Writes are independent adds; there is no
// cross-batch conflict detection and no rollback on partial failure.
func (s *RecurrenceService) Commit(ctx context.Context, previewID string) ([]models.Lesson, error) {
	preview, ok := s.store.Get(previewID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "preview not found or expired")
	}
	if len(preview.Occurrences) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preview has no occurrences")
	}
	for _, occ := range preview.Occurrences {
		if occ.TeacherID == "" {
			return nil, appErrors.Clone(appErrors.ErrIncompleteAssignment,
				fmt.Sprintf("occurrence %d (%s) has no teacher assigned", occ.Index, occ.Date))
		}
	}

	existingByDate := make(map[string][]models.Lesson)
	offsets := make(map[string]int)
	created := make([]models.Lesson, 0, len(preview.Occurrences))

	for _, occ := range preview.Occurrences {
		day, err := parseDate(occ.Date)
		if err != nil {
			return nil, err
		}
		dateKey := day.Format("20060102")
		existing, ok := existingByDate[dateKey]
		if !ok {
			existing, err = s.lessons.ListByDate(ctx, day)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan lessons for id allocation")
			}
			existingByDate[dateKey] = existing
		}

		id, err := NextLessonID(existing, day, offsets[dateKey])
		if err != nil {
			return nil, err
		}
		offsets[dateKey]++

		teacherID := occ.TeacherID
		lesson := models.Lesson{
			ID:              id,
			TeacherID:       &teacherID,
			StudentIDs:      pq.StringArray(occ.StudentIDs),
			Date:            day,
			StartTime:       occ.StartTime,
			DurationMinutes: occ.DurationMinutes,
			Title:           occ.Title,
			Price:           occ.Price,
			Cost:            occ.Cost,
			LessonPlan:      occ.LessonPlan,
		}

		if err := s.lessons.Create(ctx, &lesson); err != nil {
			// Independent adds: earlier occurrences are already persisted and
			// stay that way; the caller reconciles a partially applied batch.
			s.logger.Error("recurring commit failed partway",
				zap.String("preview_id", previewID),
				zap.Int("persisted", len(created)),
				zap.Error(err))
			return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist occurrence")
		}
		created = append(created, lesson)
	}

	s.store.Delete(previewID)
	return created, nil
}

func (s *RecurrenceService) lookupTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// mutate applies a functional update: the stored occurrence list is copied,
// transformed and saved back as a whole, so callers never alias store memory.
func (s *RecurrenceService) mutate(previewID string, fn func([]dto.PreviewOccurrence) ([]dto.PreviewOccurrence, error)) (*dto.PreviewResponse, error) {
	preview, ok := s.store.Get(previewID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "preview not found or expired")
	}
	next := make([]dto.PreviewOccurrence, len(preview.Occurrences))
	copy(next, preview.Occurrences)
	next, err := fn(next)
	if err != nil {
		return nil, err
	}
	updated := recurrencePreview{PreviewID: preview.PreviewID, Occurrences: next, GeneratedAt: preview.GeneratedAt}
	s.store.Save(updated)
	return &dto.PreviewResponse{PreviewID: updated.PreviewID, Occurrences: next}, nil
}

// recurrencePreview is the ephemeral series between generate and commit.
// Regenerating simply stores a new preview under a new id; previews expire
// after the configured TTL.
type recurrencePreview struct {
	PreviewID   string
	Occurrences []dto.PreviewOccurrence
	GeneratedAt time.Time
}

type previewStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]recurrencePreview
}

func newPreviewStore(ttl time.Duration) *previewStore {
	return &previewStore{ttl: ttl, items: make(map[string]recurrencePreview)}
}

func (s *previewStore) Save(preview recurrencePreview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[preview.PreviewID] = preview
}

func (s *previewStore) Get(id string) (recurrencePreview, bool) {
	s.mu.RLock()
	preview, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return recurrencePreview{}, false
	}
	if time.Since(preview.GeneratedAt) > s.ttl {
		s.Delete(id)
		return recurrencePreview{}, false
	}
	return preview, true
}

func (s *previewStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}
