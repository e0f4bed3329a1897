package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

func lessonsWithIDs(ids ...string) []models.Lesson {
	lessons := make([]models.Lesson, 0, len(ids))
	for _, id := range ids {
		lessons = append(lessons, models.Lesson{ID: id})
	}
	return lessons
}

func TestNextLessonIDFirstOfDay(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	id, err := NextLessonID(nil, date, 0)
	require.NoError(t, err)
	assert.Equal(t, "20250115001", id)
}

func TestNextLessonIDContinuesPastGaps(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	existing := lessonsWithIDs("20250115001", "20250115003")

	id, err := NextLessonID(existing, date, 0)
	require.NoError(t, err)
	// The gap at 002 is never refilled; allocation continues past the max.
	assert.Equal(t, "20250115004", id)
}

func TestNextLessonIDBatchOffset(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	existing := lessonsWithIDs("20250115001", "20250115003")

	first, err := NextLessonID(existing, date, 0)
	require.NoError(t, err)
	second, err := NextLessonID(existing, date, 1)
	require.NoError(t, err)

	assert.Equal(t, "20250115004", first)
	assert.Equal(t, "20250115005", second)
}

func TestNextLessonIDIgnoresOtherDates(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	existing := lessonsWithIDs("20250114009", "20250116002")

	id, err := NextLessonID(existing, date, 0)
	require.NoError(t, err)
	assert.Equal(t, "20250115001", id)
}

func TestNextLessonIDSkipsMalformedIDs(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	existing := []models.Lesson{{ID: "20250115-abc"}, {ID: "20250115002"}}

	id, err := NextLessonID(existing, date, 0)
	require.NoError(t, err)
	assert.Equal(t, "20250115003", id)
}

func TestNextLessonIDSequenceExhausted(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	existing := lessonsWithIDs("20250115999")

	_, err := NextLessonID(existing, date, 0)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSequenceExhausted.Code, appErr.Code)
}

func TestLessonCostRoundsToNearest(t *testing.T) {
	assert.Equal(t, 500, lessonCost(1000, 50))
	assert.Equal(t, 600, lessonCost(1200, 50))
	// 333.5 rounds up.
	assert.Equal(t, 334, lessonCost(667, 50))
	assert.Equal(t, 0, lessonCost(0, 50))
	assert.Equal(t, 0, lessonCost(1000, 0))
}
