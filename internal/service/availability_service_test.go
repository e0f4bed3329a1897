package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type mockAvailabilityRepo struct {
	records map[string]*models.Availability
	updates int
	creates int
}

func availKey(teacherID string, date time.Time) string {
	return fmt.Sprintf("%s|%s", teacherID, date.Format("2006-01-02"))
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{records: make(map[string]*models.Availability)}
}

func (m *mockAvailabilityRepo) seed(t *testing.T, teacherID, date string, slots ...models.TimeSlot) {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	record := &models.Availability{TeacherID: teacherID, Date: day}
	require.NoError(t, record.EncodeSlots(slots))
	m.records[availKey(teacherID, day)] = record
}

func (m *mockAvailabilityRepo) FindByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (*models.Availability, error) {
	if record, ok := m.records[availKey(teacherID, date)]; ok {
		clone := *record
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAvailabilityRepo) ListByTeacherRange(ctx context.Context, teacherID string, from, to time.Time) ([]models.Availability, error) {
	var out []models.Availability
	for _, record := range m.records {
		if record.TeacherID == teacherID && !record.Date.Before(from) && !record.Date.After(to) {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (m *mockAvailabilityRepo) Create(ctx context.Context, availability *models.Availability) error {
	m.creates++
	clone := *availability
	m.records[availKey(availability.TeacherID, availability.Date)] = &clone
	return nil
}

func (m *mockAvailabilityRepo) Update(ctx context.Context, availability *models.Availability) error {
	m.updates++
	clone := *availability
	m.records[availKey(availability.TeacherID, availability.Date)] = &clone
	return nil
}

func testAvailabilityService(repo *mockAvailabilityRepo) *AvailabilityService {
	return NewAvailabilityService(repo, nil, time.Minute, nil, validator.New(), zap.NewNop())
}

func TestAvailabilityAddSlotCreatesRecordLazily(t *testing.T) {
	repo := newMockAvailabilityRepo()
	svc := testAvailabilityService(repo)

	slots, err := svc.AddSlot(context.Background(), "t1", "2025-01-06", dto.UpsertSlotRequest{Start: "09:00", End: "12:00"})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 1, repo.creates)

	slots, err = svc.AddSlot(context.Background(), "t1", "2025-01-06", dto.UpsertSlotRequest{Start: "14:00", End: "16:00"})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 1, repo.updates)
}

func TestAvailabilityAddSlotKeepsSortedOrder(t *testing.T) {
	repo := newMockAvailabilityRepo()
	repo.seed(t, "t1", "2025-01-06", models.TimeSlot{Start: "14:00", End: "16:00"})
	svc := testAvailabilityService(repo)

	slots, err := svc.AddSlot(context.Background(), "t1", "2025-01-06", dto.UpsertSlotRequest{Start: "09:00", End: "12:00"})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "14:00", slots[1].Start)
}

func TestAvailabilityAddSlotRejectsOverlap(t *testing.T) {
	repo := newMockAvailabilityRepo()
	repo.seed(t, "t1", "2025-01-06", models.TimeSlot{Start: "09:00", End: "12:00"})
	svc := testAvailabilityService(repo)

	_, err := svc.AddSlot(context.Background(), "t1", "2025-01-06", dto.UpsertSlotRequest{Start: "11:00", End: "13:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotOverlap.Code, appErrors.FromError(err).Code)

	// Touching slots do not overlap under the half-open rule.
	_, err = svc.AddSlot(context.Background(), "t1", "2025-01-06", dto.UpsertSlotRequest{Start: "12:00", End: "13:00"})
	require.NoError(t, err)
}

func TestAvailabilityAddSlotRejectsInvertedWindow(t *testing.T) {
	svc := testAvailabilityService(newMockAvailabilityRepo())

	_, err := svc.AddSlot(context.Background(), "t1", "2025-01-06", dto.UpsertSlotRequest{Start: "12:00", End: "12:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityEditSlotExcludesItself(t *testing.T) {
	repo := newMockAvailabilityRepo()
	repo.seed(t, "t1", "2025-01-06",
		models.TimeSlot{Start: "09:00", End: "12:00"},
		models.TimeSlot{Start: "14:00", End: "16:00"},
	)
	svc := testAvailabilityService(repo)

	// Widening a slot over its own old window is fine.
	slots, err := svc.EditSlot(context.Background(), "t1", "2025-01-06", 0, dto.UpsertSlotRequest{Start: "08:00", End: "12:30"})
	require.NoError(t, err)
	assert.Equal(t, "08:00", slots[0].Start)

	// But not over a sibling.
	_, err = svc.EditSlot(context.Background(), "t1", "2025-01-06", 0, dto.UpsertSlotRequest{Start: "08:00", End: "15:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotOverlap.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityRemoveSlotOutOfRange(t *testing.T) {
	repo := newMockAvailabilityRepo()
	repo.seed(t, "t1", "2025-01-06", models.TimeSlot{Start: "09:00", End: "12:00"})
	svc := testAvailabilityService(repo)

	_, err := svc.RemoveSlot(context.Background(), "t1", "2025-01-06", 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	slots, err := svc.RemoveSlot(context.Background(), "t1", "2025-01-06", 0)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityGetUnregisteredDateIsEmpty(t *testing.T) {
	svc := testAvailabilityService(newMockAvailabilityRepo())

	slots, cacheHit, err := svc.Get(context.Background(), "t1", "2025-01-06")
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.False(t, cacheHit)
}

func TestIsTeacherAvailableContainment(t *testing.T) {
	repo := newMockAvailabilityRepo()
	repo.seed(t, "t1", "2025-01-06", models.TimeSlot{Start: "09:00", End: "12:00"})
	svc := testAvailabilityService(repo)
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	// Exact fit counts as available: containment is closed on both ends.
	ok, err := svc.IsTeacherAvailable(context.Background(), "t1", day, "09:00", 180)
	require.NoError(t, err)
	assert.True(t, ok)

	// Running one minute past the slot end does not.
	ok, err = svc.IsTeacherAvailable(context.Background(), "t1", day, "09:00", 181)
	require.NoError(t, err)
	assert.False(t, ok)

	// Starting at the slot end never fits.
	ok, err = svc.IsTeacherAvailable(context.Background(), "t1", day, "12:00", 30)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityRejectsBadDate(t *testing.T) {
	svc := testAvailabilityService(newMockAvailabilityRepo())

	_, _, err := svc.Get(context.Background(), "t1", "06-01-2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

type memAvailabilityCache struct {
	entries map[string][]byte
	sets    int
}

func newMemAvailabilityCache() *memAvailabilityCache {
	return &memAvailabilityCache{entries: make(map[string][]byte)}
}

func (m *memAvailabilityCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memAvailabilityCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *memAvailabilityCache) Invalidate(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestAvailabilityGetUsesCache(t *testing.T) {
	repo := newMockAvailabilityRepo()
	repo.seed(t, "t1", "2025-01-06", models.TimeSlot{Start: "09:00", End: "12:00"})
	cache := newMemAvailabilityCache()
	svc := NewAvailabilityService(repo, cache, time.Minute, nil, validator.New(), zap.NewNop())

	slots, cacheHit, err := svc.Get(context.Background(), "t1", "2025-01-06")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, cache.sets)

	slots, cacheHit, err = svc.Get(context.Background(), "t1", "2025-01-06")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, cacheHit)
	assert.Equal(t, 1, cache.sets)

	// Any write drops the teacher's cached days.
	_, err = svc.AddSlot(context.Background(), "t1", "2025-01-06", dto.UpsertSlotRequest{Start: "13:00", End: "15:00"})
	require.NoError(t, err)
	assert.Empty(t, cache.entries)
}
