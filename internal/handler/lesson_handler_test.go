package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
)

type lessonRepoStub struct {
	lessons map[string]models.Lesson
}

func newLessonRepoStub(lessons ...models.Lesson) *lessonRepoStub {
	stub := &lessonRepoStub{lessons: make(map[string]models.Lesson)}
	for _, l := range lessons {
		stub.lessons[l.ID] = l
	}
	return stub
}

func (s *lessonRepoStub) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	out := make([]models.Lesson, 0, len(s.lessons))
	for _, l := range s.lessons {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (s *lessonRepoStub) ListByDate(ctx context.Context, date time.Time) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range s.lessons {
		if l.Date.Equal(date) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *lessonRepoStub) ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range s.lessons {
		if l.TeacherID != nil && *l.TeacherID == teacherID && l.Date.Equal(date) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *lessonRepoStub) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if l, ok := s.lessons[id]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func (s *lessonRepoStub) Create(ctx context.Context, lesson *models.Lesson) error {
	s.lessons[lesson.ID] = *lesson
	return nil
}

func (s *lessonRepoStub) Update(ctx context.Context, lesson *models.Lesson) error {
	s.lessons[lesson.ID] = *lesson
	return nil
}

func (s *lessonRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.lessons, id)
	return nil
}

type teacherDirStub struct {
	teachers map[string]models.Teacher
}

func (s *teacherDirStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		return &teacher, nil
	}
	return nil, sql.ErrNoRows
}

func newLessonTestHandler(repo *lessonRepoStub, teachers *teacherDirStub) *LessonHandler {
	svc := service.NewBookingService(repo, teachers, nil, zap.NewNop(), service.BookingConfig{SessionTTL: time.Minute})
	return NewLessonHandler(svc)
}

func TestLessonHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLessonTestHandler(newLessonRepoStub(), &teacherDirStub{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", FullName: "Alice", CommissionRate: 50},
	}})

	body := `{"title":"Math","teacher_id":"t1","date":"2025-01-15","start_time":"10:00","duration_minutes":60,"price":1000}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/lessons", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.Lesson `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "20250115001", envelope.Data.ID)
	assert.Equal(t, 500, envelope.Data.Cost)
}

func TestLessonHandlerCreateConflictEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	teacherID := "t1"
	existing := models.Lesson{
		ID:              "20250115001",
		TeacherID:       &teacherID,
		Date:            time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		DurationMinutes: 60,
	}
	handler := newLessonTestHandler(newLessonRepoStub(existing), &teacherDirStub{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", FullName: "Alice", CommissionRate: 50},
	}})

	body := `{"title":"Math","teacher_id":"t1","date":"2025-01-15","start_time":"10:30","duration_minutes":60,"price":1000}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/lessons", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Data models.LessonConflictWarning `json:"data"`
		Meta map[string]interface{}       `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.SessionID)
	assert.Equal(t, "20250115001", envelope.Data.Conflict.LessonID)
	assert.Equal(t, "CONFLICT", envelope.Meta["error_code"])
}

func TestLessonHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLessonTestHandler(newLessonRepoStub(), &teacherDirStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/lessons", bytes.NewBufferString(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
