package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/timeslot"
)

type availabilityRepository interface {
	FindByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (*models.Availability, error)
	ListByTeacherRange(ctx context.Context, teacherID string, from, to time.Time) ([]models.Availability, error)
	Create(ctx context.Context, availability *models.Availability) error
	Update(ctx context.Context, availability *models.Availability) error
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// AvailabilityService owns per-teacher-per-date slot lists. One record exists
// per (teacher, date); its slots stay sorted ascending by start and mutually
// non-overlapping.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     availabilityCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService. The cache and
// metrics are optional; pass nil to read through to the repository on every
// call without recording timings.
func NewAvailabilityService(repo availabilityRepository, cache availabilityCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AvailabilityService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// Get returns the slots a teacher declared for one date; an empty list when
// the teacher never registered anything for that day. The boolean reports
// whether the read was served from cache.
func (s *AvailabilityService) Get(ctx context.Context, teacherID, date string) ([]models.TimeSlot, bool, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, false, err
	}
	return s.slotsFor(ctx, teacherID, day)
}

// ListRange returns availability records for a teacher across a date range,
// used by the weekly calendar view.
func (s *AvailabilityService) ListRange(ctx context.Context, teacherID, from, to string) ([]models.Availability, error) {
	fromDay, err := parseDate(from)
	if err != nil {
		return nil, err
	}
	toDay, err := parseDate(to)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListByTeacherRange(ctx, teacherID, fromDay, toDay)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availabilities")
	}
	return records, nil
}

// AddSlot registers a new open window for a teacher on a date, lazily
// creating the day's record on first use.
func (s *AvailabilityService) AddSlot(ctx context.Context, teacherID, date string, req dto.UpsertSlotRequest) ([]models.TimeSlot, error) {
	return s.upsertSlot(ctx, teacherID, date, req, -1)
}

// EditSlot replaces the slot at index, re-validating overlap against every
// other slot in the record.
func (s *AvailabilityService) EditSlot(ctx context.Context, teacherID, date string, index int, req dto.UpsertSlotRequest) ([]models.TimeSlot, error) {
	if index < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot index must not be negative")
	}
	return s.upsertSlot(ctx, teacherID, date, req, index)
}

// RemoveSlot deletes the slot at index unconditionally.
func (s *AvailabilityService) RemoveSlot(ctx context.Context, teacherID, date string, index int) ([]models.TimeSlot, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByTeacherAndDate(ctx, teacherID, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no availability registered for this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	slots, err := record.DecodeSlots()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode availability slots")
	}
	if index < 0 || index >= len(slots) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot index out of range")
	}

	slots = append(slots[:index], slots[index+1:]...)
	if err := record.EncodeSlots(slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode availability slots")
	}
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	s.invalidate(ctx, teacherID)
	return slots, nil
}

// IsTeacherAvailable reports whether some declared slot fully contains the
// candidate lesson interval. The containment check is closed on both ends,
// unlike the half-open overlap used for lesson conflicts: a lesson may end
// exactly when the slot ends, but a lesson starting at the slot's end does
// not fit.
func (s *AvailabilityService) IsTeacherAvailable(ctx context.Context, teacherID string, date time.Time, startTime string, durationMinutes int) (bool, error) {
	startMin, err := timeslot.ToMinutes(startTime)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	if durationMinutes <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "duration must be positive")
	}
	slots, _, err := s.slotsFor(ctx, teacherID, date)
	if err != nil {
		return false, err
	}
	endMin := startMin + durationMinutes
	for _, slot := range slots {
		slotStart, err := timeslot.ToMinutes(slot.Start)
		if err != nil {
			continue
		}
		slotEnd, err := timeslot.ToMinutes(slot.End)
		if err != nil {
			continue
		}
		if timeslot.Contains(slotStart, slotEnd, startMin, endMin) {
			return true, nil
		}
	}
	return false, nil
}

func (s *AvailabilityService) upsertSlot(ctx context.Context, teacherID, date string, req dto.UpsertSlotRequest, editIndex int) ([]models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	startMin, err := timeslot.ToMinutes(req.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot start")
	}
	endMin, err := timeslot.ToMinutes(req.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot end")
	}
	if endMin <= startMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot end must be after slot start")
	}

	record, err := s.repo.FindByTeacherAndDate(ctx, teacherID, day)
	isNew := false
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
		}
		if editIndex >= 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no availability registered for this date")
		}
		record = &models.Availability{TeacherID: teacherID, Date: day}
		isNew = true
	}

	slots, err := record.DecodeSlots()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode availability slots")
	}
	if editIndex >= len(slots) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot index out of range")
	}

	for i, slot := range slots {
		if i == editIndex {
			continue
		}
		otherStart, convErr := timeslot.ToMinutes(slot.Start)
		if convErr != nil {
			continue
		}
		otherEnd, convErr := timeslot.ToMinutes(slot.End)
		if convErr != nil {
			continue
		}
		if timeslot.Overlaps(startMin, endMin, otherStart, otherEnd) {
			return nil, appErrors.Clone(appErrors.ErrSlotOverlap,
				fmt.Sprintf("slot %s-%s overlaps existing slot %s-%s", req.Start, req.End, slot.Start, slot.End))
		}
	}

	candidate := models.TimeSlot{Start: req.Start, End: req.End}
	if editIndex >= 0 {
		slots[editIndex] = candidate
	} else {
		slots = append(slots, candidate)
	}
	sort.SliceStable(slots, func(i, j int) bool {
		a, _ := timeslot.ToMinutes(slots[i].Start)
		b, _ := timeslot.ToMinutes(slots[j].Start)
		return a < b
	})

	if err := record.EncodeSlots(slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode availability slots")
	}

	if isNew {
		err = s.repo.Create(ctx, record)
	} else {
		err = s.repo.Update(ctx, record)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist availability")
	}
	s.invalidate(ctx, teacherID)
	return slots, nil
}

func (s *AvailabilityService) slotsFor(ctx context.Context, teacherID string, date time.Time) ([]models.TimeSlot, bool, error) {
	key := availabilityCacheKey(teacherID, date)
	if s.cache != nil {
		var cached []models.TimeSlot
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	queryStart := time.Now()
	record, err := s.repo.FindByTeacherAndDate(ctx, teacherID, date)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("availability_by_date", time.Since(queryStart))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	slots, err := record.DecodeSlots()
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode availability slots")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, slots, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache availability", zap.Error(err))
		}
	}
	return slots, false, nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, teacherID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("availability:%s:*", teacherID)); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.Error(err))
	}
}

func availabilityCacheKey(teacherID string, date time.Time) string {
	return fmt.Sprintf("availability:%s:%s", teacherID, date.Format("2006-01-02"))
}

func parseDate(raw string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date, expected YYYY-MM-DD")
	}
	return day, nil
}
