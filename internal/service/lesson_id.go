package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

// Lesson ids are YYYYMMDD followed by a zero-padded 3-digit per-day sequence,
// so they sort naturally by date for exports and reporting.
var lessonIDPattern = regexp.MustCompile(`^(\d{8})(\d{3})$`)

const maxDailySequence = 999

// NextLessonID allocates the next identifier for a lesson on the given date.
// The sequence continues past the maximum already present; gaps left by
// deletions are never refilled. The offset parameter supports batch
// allocation: callers creating several not-yet-persisted lessons for the same
// date keep a per-date counter, pass it as offset and increment it after each
// allocation, which keeps ids distinct within the batch.
func NextLessonID(existing []models.Lesson, date time.Time, offset int) (string, error) {
	prefix := date.Format("20060102")
	maxSeq := 0
	for _, lesson := range existing {
		if !strings.HasPrefix(lesson.ID, prefix) {
			continue
		}
		m := lessonIDPattern.FindStringSubmatch(lesson.ID)
		if m == nil || m[1] != prefix {
			continue
		}
		seq, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	seq := maxSeq + 1 + offset
	if seq > maxDailySequence {
		return "", appErrors.Clone(appErrors.ErrSequenceExhausted,
			fmt.Sprintf("no lesson ids left for %s (max %d per day)", date.Format("2006-01-02"), maxDailySequence))
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}
