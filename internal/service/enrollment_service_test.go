package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

type fakeEnrollmentRepo struct {
	created         *models.Enrollment
	createdPrograms []string
	details         map[string]*models.EnrollmentDetail
	mine            []models.EnrollmentDetail
	all             []models.EnrollmentDetail
	lastEducatorID  string
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment, programIDs []string) error {
	if enrollment.ID == "" {
		enrollment.ID = "en1"
	}
	f.created = enrollment
	f.createdPrograms = programIDs
	if f.details == nil {
		f.details = make(map[string]*models.EnrollmentDetail)
	}
	f.details[enrollment.ID] = &models.EnrollmentDetail{Enrollment: *enrollment}
	return nil
}

func (f *fakeEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, ok := f.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (f *fakeEnrollmentRepo) ListForEducator(ctx context.Context, educatorID string) ([]models.EnrollmentDetail, error) {
	f.lastEducatorID = educatorID
	return f.mine, nil
}

func (f *fakeEnrollmentRepo) ListAll(ctx context.Context) ([]models.EnrollmentDetail, error) {
	return f.all, nil
}

type fakeStudentReader struct {
	students map[string]*models.Student
}

func (f *fakeStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

type fakeProgramResolver struct {
	programs map[string]models.Program
}

func (f *fakeProgramResolver) FindProgramsByIDs(ctx context.Context, ids []string) (map[string]models.Program, error) {
	found := make(map[string]models.Program)
	for _, id := range ids {
		if program, ok := f.programs[id]; ok {
			found[id] = program
		}
	}
	return found, nil
}

func newTestEnrollmentService(repo *fakeEnrollmentRepo) (*EnrollmentService, *fakeStudentReader, *fakeEmployeeReader, *fakeProgramResolver) {
	students := &fakeStudentReader{students: map[string]*models.Student{
		"s1": {ID: "s1", Status: models.PrincipalStatusActive},
	}}
	employees := &fakeEmployeeReader{employees: map[string]*models.Employee{
		"e1": {ID: "e1"},
		"e2": {ID: "e2"},
	}}
	programs := &fakeProgramResolver{programs: map[string]models.Program{
		"p1": {ID: "p1", Name: "Communication"},
		"p2": {ID: "p2", Name: "Motor Skills"},
	}}
	svc := NewEnrollmentService(repo, students, employees, programs, validator.New(), zap.NewNop())
	return svc, students, employees, programs
}

func TestEnrollCreatesWithOrderedPrograms(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	svc, _, _, _ := newTestEnrollmentService(repo)

	secondary := "e2"
	detail, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:           "s1",
		EducatorID:          "e1",
		SecondaryEducatorID: &secondary,
		ProgramIDs:          []string{"p2", "p1"},
		Level:               2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, repo.createdPrograms, "program order must be preserved")
	assert.Equal(t, models.EnrollmentStatusActive, repo.created.Status)
	assert.Equal(t, 2, repo.created.Level)
	assert.Equal(t, "s1", detail.StudentID)
}

func TestEnrollRejectsEmptyPrograms(t *testing.T) {
	svc, _, _, _ := newTestEnrollmentService(&fakeEnrollmentRepo{})

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "s1",
		EducatorID: "e1",
		ProgramIDs: nil,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollUnknownStudent(t *testing.T) {
	svc, _, _, _ := newTestEnrollmentService(&fakeEnrollmentRepo{})

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "missing",
		EducatorID: "e1",
		ProgramIDs: []string{"p1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollUnknownEducator(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	svc, _, employees, _ := newTestEnrollmentService(repo)
	delete(employees.employees, "e1")

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "s1",
		EducatorID: "e1",
		ProgramIDs: []string{"p1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created, "nothing may be written when a reference is broken")
}

func TestEnrollNamesMissingProgram(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	svc, _, _, _ := newTestEnrollmentService(repo)

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "s1",
		EducatorID: "e1",
		ProgramIDs: []string{"p1", "ghost"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "ghost")
	assert.Nil(t, repo.created)
}

func TestEnrollRejectsUnknownStatus(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	svc, _, _, _ := newTestEnrollmentService(repo)

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "s1",
		EducatorID: "e1",
		ProgramIDs: []string{"p1"},
		Status:     models.EnrollmentStatus("Paused"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollHonorsExplicitStatus(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	svc, _, _, _ := newTestEnrollmentService(repo)

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "s1",
		EducatorID: "e1",
		ProgramIDs: []string{"p1"},
		Status:     models.EnrollmentStatusInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusInactive, repo.created.Status)
}

func TestEnrollRejectsNegativeLevel(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	svc, _, _, _ := newTestEnrollmentService(repo)

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "s1",
		EducatorID: "e1",
		ProgramIDs: []string{"p1"},
		Level:      -1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollInactiveStudent(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	svc, students, _, _ := newTestEnrollmentService(repo)
	students.students["s1"].Status = models.PrincipalStatusInactive

	_, err := svc.Enroll(context.Background(), models.CreateEnrollmentRequest{
		StudentID:  "s1",
		EducatorID: "e1",
		ProgramIDs: []string{"p1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListMineScopesToCaller(t *testing.T) {
	repo := &fakeEnrollmentRepo{mine: []models.EnrollmentDetail{{Enrollment: models.Enrollment{ID: "en1"}}}}
	svc, _, _, _ := newTestEnrollmentService(repo)

	claims := &models.JWTClaims{PrincipalID: "e1", Role: models.RoleEmployee}
	mine, err := svc.ListMine(context.Background(), claims)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Equal(t, "e1", repo.lastEducatorID)
}
