package service

import (
	"context"
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

type stubAvailability struct {
	available map[string]bool
}

func (s *stubAvailability) IsTeacherAvailable(ctx context.Context, teacherID string, date time.Time, startTime string, durationMinutes int) (bool, error) {
	return s.available[teacherID], nil
}

func testRecurrenceService(repo *mockLessonRepo, teachers *mockTeacherDir, avail *stubAvailability) *RecurrenceService {
	if avail == nil {
		avail = &stubAvailability{}
	}
	return NewRecurrenceService(repo, teachers, avail, validator.New(), zap.NewNop(), RecurrenceConfig{PreviewTTL: time.Minute})
}

func generateWeekly(t *testing.T, svc *RecurrenceService, startDate string, months int) *dto.PreviewResponse {
	t.Helper()
	preview, err := svc.Generate(context.Background(), dto.GeneratePreviewRequest{
		Title:           "Math",
		StartDate:       startDate,
		StartTime:       "10:00",
		DurationMinutes: 60,
		Price:           intPtr(1000),
		HorizonMonths:   months,
	})
	require.NoError(t, err)
	return preview
}

func TestRecurrenceGenerateOneMonthOfMondays(t *testing.T) {
	svc := testRecurrenceService(newMockLessonRepo(), &mockTeacherDir{}, nil)

	// 2025-01-06 is a Monday; the horizon boundary 2025-02-06 is exclusive, so
	// 2025-02-03 is in but the series stops before the boundary.
	preview := generateWeekly(t, svc, "2025-01-06", 1)
	var dates []string
	for _, occ := range preview.Occurrences {
		dates = append(dates, occ.Date)
	}
	assert.Equal(t, []string{"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27", "2025-02-03"}, dates)

	for i, occ := range preview.Occurrences {
		assert.Equal(t, i, occ.Index)
		assert.Empty(t, occ.TeacherID)
		assert.Zero(t, occ.Cost)
		assert.Equal(t, 1000, occ.Price)
	}
}

func TestRecurrenceAssignTeacherRecomputesCost(t *testing.T) {
	teachers := &mockTeacherDir{teachers: []models.Teacher{{ID: "t1", FullName: "Alice", CommissionRate: 50}}}
	svc := testRecurrenceService(newMockLessonRepo(), teachers, nil)
	preview := generateWeekly(t, svc, "2025-01-06", 1)

	updated, err := svc.AssignTeacher(context.Background(), preview.PreviewID, dto.AssignTeacherRequest{Index: intPtr(1), TeacherID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", updated.Occurrences[1].TeacherID)
	assert.Equal(t, 500, updated.Occurrences[1].Cost)
	// Untouched siblings keep their blank assignment.
	assert.Empty(t, updated.Occurrences[0].TeacherID)
	assert.Zero(t, updated.Occurrences[0].Cost)
}

func TestRecurrenceBulkAssignElementwiseCosts(t *testing.T) {
	teachers := &mockTeacherDir{teachers: []models.Teacher{{ID: "t1", CommissionRate: 50}}}
	svc := testRecurrenceService(newMockLessonRepo(), teachers, nil)
	preview := generateWeekly(t, svc, "2025-01-06", 1)

	// Diverge two occurrence prices first; bulk assignment must recompute each
	// cost from that occurrence's own price.
	_, err := svc.UpdateOccurrencePrice(context.Background(), preview.PreviewID, dto.UpdateOccurrencePriceRequest{Index: intPtr(2), Price: intPtr(1200)})
	require.NoError(t, err)
	_, err = svc.UpdateOccurrencePrice(context.Background(), preview.PreviewID, dto.UpdateOccurrencePriceRequest{Index: intPtr(3), Price: intPtr(1200)})
	require.NoError(t, err)

	updated, err := svc.BulkAssignTeacher(context.Background(), preview.PreviewID, dto.BulkAssignTeacherRequest{TeacherID: "t1"})
	require.NoError(t, err)

	var costs []int
	for _, occ := range updated.Occurrences {
		costs = append(costs, occ.Cost)
	}
	assert.Equal(t, []int{500, 500, 600, 600, 500}, costs)
}

func TestRecurrenceUpdatePriceRecomputesAssignedCost(t *testing.T) {
	teachers := &mockTeacherDir{teachers: []models.Teacher{{ID: "t1", CommissionRate: 25}}}
	svc := testRecurrenceService(newMockLessonRepo(), teachers, nil)
	preview := generateWeekly(t, svc, "2025-01-06", 1)

	_, err := svc.AssignTeacher(context.Background(), preview.PreviewID, dto.AssignTeacherRequest{Index: intPtr(0), TeacherID: "t1"})
	require.NoError(t, err)

	updated, err := svc.UpdateOccurrencePrice(context.Background(), preview.PreviewID, dto.UpdateOccurrencePriceRequest{Index: intPtr(0), Price: intPtr(2000)})
	require.NoError(t, err)
	assert.Equal(t, 2000, updated.Occurrences[0].Price)
	assert.Equal(t, 500, updated.Occurrences[0].Cost)
}

func TestRecurrenceRankTeachersAvailableFirstStable(t *testing.T) {
	teachers := &mockTeacherDir{teachers: []models.Teacher{
		{ID: "t1", FullName: "Alice"},
		{ID: "t2", FullName: "Bob"},
		{ID: "t3", FullName: "Cara"},
		{ID: "t4", FullName: "Dan"},
	}}
	avail := &stubAvailability{available: map[string]bool{"t2": true, "t4": true}}
	svc := testRecurrenceService(newMockLessonRepo(), teachers, avail)

	ranked, err := svc.RankTeachers(context.Background(), dto.RankTeachersQuery{
		Date: "2025-01-06", StartTime: "10:00", DurationMinutes: 60,
	})
	require.NoError(t, err)

	var ids []string
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	// Available teachers float to the front; relative order inside each bucket
	// is preserved.
	assert.Equal(t, []string{"t2", "t4", "t1", "t3"}, ids)
	assert.True(t, ranked[0].Available)
	assert.False(t, ranked[2].Available)
}

func TestRecurrenceCommitRequiresFullAssignment(t *testing.T) {
	teachers := &mockTeacherDir{teachers: []models.Teacher{{ID: "t1", CommissionRate: 50}}}
	svc := testRecurrenceService(newMockLessonRepo(), teachers, nil)
	preview := generateWeekly(t, svc, "2025-01-06", 1)

	_, err := svc.AssignTeacher(context.Background(), preview.PreviewID, dto.AssignTeacherRequest{Index: intPtr(0), TeacherID: "t1"})
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), preview.PreviewID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIncompleteAssignment.Code, appErrors.FromError(err).Code)
}

func TestRecurrenceCommitAllocatesBatchIDs(t *testing.T) {
	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	repo := newMockLessonRepo(
		models.Lesson{ID: "20250106001", Date: date},
		models.Lesson{ID: "20250106003", Date: date},
	)
	teachers := &mockTeacherDir{teachers: []models.Teacher{{ID: "t1", CommissionRate: 50}}}
	svc := testRecurrenceService(repo, teachers, nil)

	preview := generateWeekly(t, svc, "2025-01-06", 1)
	_, err := svc.BulkAssignTeacher(context.Background(), preview.PreviewID, dto.BulkAssignTeacherRequest{TeacherID: "t1"})
	require.NoError(t, err)

	created, err := svc.Commit(context.Background(), preview.PreviewID)
	require.NoError(t, err)
	require.Len(t, created, 5)

	// First occurrence lands on the crowded date and continues past the max
	// existing sequence; the remaining weeks each start their own day fresh.
	assert.Equal(t, "20250106004", created[0].ID)
	assert.Equal(t, "20250113001", created[1].ID)
	assert.Equal(t, "20250120001", created[2].ID)
	assert.Equal(t, "20250127001", created[3].ID)
	assert.Equal(t, "20250203001", created[4].ID)

	for _, lesson := range created {
		require.NotNil(t, lesson.TeacherID)
		assert.Equal(t, "t1", *lesson.TeacherID)
		assert.Equal(t, 500, lesson.Cost)
	}

	// Preview is consumed by a successful commit.
	_, err = svc.Get(context.Background(), preview.PreviewID)
	require.Error(t, err)
}

func TestRecurrenceCommitPartialFailureKeepsEarlierWrites(t *testing.T) {
	repo := newMockLessonRepo()
	teachers := &mockTeacherDir{teachers: []models.Teacher{{ID: "t1", CommissionRate: 50}}}
	svc := testRecurrenceService(repo, teachers, nil)

	preview := generateWeekly(t, svc, "2025-01-06", 1)
	_, err := svc.BulkAssignTeacher(context.Background(), preview.PreviewID, dto.BulkAssignTeacherRequest{TeacherID: "t1"})
	require.NoError(t, err)

	repo.createErr = assert.AnError
	created, err := svc.Commit(context.Background(), preview.PreviewID)
	require.Error(t, err)
	assert.Empty(t, created)

	// Preview survives a failed commit so the caller can retry.
	_, err = svc.Get(context.Background(), preview.PreviewID)
	require.NoError(t, err)
}

func TestRecurrencePreviewExpires(t *testing.T) {
	svc := NewRecurrenceService(newMockLessonRepo(), &mockTeacherDir{}, &stubAvailability{}, validator.New(), zap.NewNop(), RecurrenceConfig{PreviewTTL: time.Nanosecond})
	preview := generateWeekly(t, svc, "2025-01-06", 1)

	time.Sleep(time.Millisecond)
	_, err := svc.Get(context.Background(), preview.PreviewID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
