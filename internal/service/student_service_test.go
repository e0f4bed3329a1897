package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type mockStudentRepo struct {
	students    map[string]models.Student
	deactivated []string
}

func newMockStudentRepo(students ...models.Student) *mockStudentRepo {
	repo := &mockStudentRepo{students: make(map[string]models.Student)}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, student := range m.students {
		out = append(out, student)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return &student, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if student, ok := m.students[id]; ok {
		student.Active = false
		m.students[id] = student
	}
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), UpsertStudentRequest{FullName: "John Doe"})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.True(t, student.Active)
}

func TestStudentServiceCreateRequiresName(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), UpsertStudentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: "s1", FullName: "Old", Active: true})
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	phone := " 555-0101 "
	updated, err := svc.Update(context.Background(), "s1", UpsertStudentRequest{FullName: "New", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0101", *updated.Phone)
}

func TestStudentServiceDeactivate(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: "s1", FullName: "John", Active: true})
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Deactivate(context.Background(), "s1"))
	assert.False(t, repo.students["s1"].Active)

	err := svc.Deactivate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
