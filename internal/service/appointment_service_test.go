package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	appointments  map[string]*models.Appointment
	scheduleCalls int
	updateCalls   int
	listFilter    models.AppointmentFilter
	listResult    []models.AppointmentDetail
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[string]*models.Appointment)}
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = "a1"
	}
	copied := *appointment
	f.appointments[appointment.ID] = &copied
	return nil
}

func (f *fakeAppointmentRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, ok := f.appointments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *appointment
	return &copied, nil
}

func (f *fakeAppointmentRepo) Schedule(ctx context.Context, id, employeeID string, date time.Time, timeHr, timeMin int) error {
	f.scheduleCalls++
	appointment := f.appointments[id]
	appointment.Status = models.AppointmentStatusScheduled
	appointment.EmployeeID = &employeeID
	appointment.Date = date
	appointment.TimeHr = timeHr
	appointment.TimeMin = timeMin
	return nil
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, id string, status *models.AppointmentStatus, verdict *models.Verdict, remarks *string) error {
	f.updateCalls++
	appointment := f.appointments[id]
	if status != nil {
		appointment.Status = *status
	}
	if verdict != nil {
		appointment.Verdict = verdict
	}
	if remarks != nil {
		appointment.Remarks = remarks
	}
	return nil
}

func (f *fakeAppointmentRepo) List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error) {
	f.listFilter = filter
	return f.listResult, nil
}

type fakeEmployeeReader struct {
	employees map[string]*models.Employee
}

func (f *fakeEmployeeReader) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	employee, ok := f.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return employee, nil
}

func intPtr(v int) *int { return &v }

func futureDate() string {
	return time.Now().UTC().Add(72 * time.Hour).Format(appointmentDateLayout)
}

func newTestAppointmentService(repo *fakeAppointmentRepo, employees *fakeEmployeeReader) *AppointmentService {
	if employees == nil {
		employees = &fakeEmployeeReader{employees: map[string]*models.Employee{"e1": {ID: "e1"}}}
	}
	return NewAppointmentService(repo, employees, validator.New(), zap.NewNop())
}

func TestAppointmentRequestCollectsEveryFieldError(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)

	_, err := svc.Request(context.Background(), models.CreateAppointmentRequest{})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	seen := make(map[string]bool)
	for _, field := range appErr.Fields {
		seen[field.Field] = true
	}
	for _, expected := range []string{"studentName", "parentName", "email", "phone", "date", "timeHr", "timeMin"} {
		assert.Truef(t, seen[expected], "missing field error for %s", expected)
	}
}

func TestAppointmentRequestRejectsPastDate(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)

	_, err := svc.Request(context.Background(), models.CreateAppointmentRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "meera@example.com",
		Phone:       "9876543210",
		Date:        "2000-01-01",
		TimeHr:      intPtr(10),
		TimeMin:     intPtr(30),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "date", appErr.Fields[0].Field)
}

func TestAppointmentRequestRejectsSameDayPastTime(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)

	now := time.Now().UTC()
	_, err := svc.Request(context.Background(), models.CreateAppointmentRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "meera@example.com",
		Phone:       "9876543210",
		Date:        now.Format(appointmentDateLayout),
		TimeHr:      intPtr(now.Hour()),
		TimeMin:     intPtr(now.Minute()),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "date", appErr.Fields[0].Field)
}

func TestAppointmentRequestRejectsMalformedPhone(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)

	for _, phone := range []string{"not-a-phone", "12345", "98765432101"} {
		_, err := svc.Request(context.Background(), models.CreateAppointmentRequest{
			StudentName: "Asha Rao",
			ParentName:  "Meera Rao",
			Email:       "meera@example.com",
			Phone:       phone,
			Date:        futureDate(),
			TimeHr:      intPtr(10),
			TimeMin:     intPtr(30),
		})
		require.Errorf(t, err, "phone %q must be rejected", phone)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		found := false
		for _, field := range appErr.Fields {
			if field.Field == "phone" {
				found = true
			}
		}
		assert.Truef(t, found, "expected a field error for phone %q", phone)
	}
}

func TestAppointmentRequestStartsPending(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	appointment, err := svc.Request(context.Background(), models.CreateAppointmentRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "meera@example.com",
		Phone:       "9876543210",
		Date:        futureDate(),
		TimeHr:      intPtr(10),
		TimeMin:     intPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusPending, appointment.Status)
	assert.Nil(t, appointment.EmployeeID)
}

func TestAppointmentScheduleIsIdempotent(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	created, err := svc.Request(context.Background(), models.CreateAppointmentRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "meera@example.com",
		Phone:       "9876543210",
		Date:        futureDate(),
		TimeHr:      intPtr(10),
		TimeMin:     intPtr(30),
	})
	require.NoError(t, err)

	req := models.ScheduleAppointmentRequest{EmployeeID: "e1", Date: futureDate(), TimeHr: intPtr(11), TimeMin: intPtr(0)}
	first, err := svc.Schedule(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusScheduled, first.Status)
	assert.Equal(t, 1, repo.scheduleCalls)

	second, err := svc.Schedule(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusScheduled, second.Status)
	assert.Equal(t, 1, repo.scheduleCalls, "identical re-submission must not write again")
}

func TestAppointmentScheduleNeverOverwrites(t *testing.T) {
	repo := newFakeAppointmentRepo()
	employees := &fakeEmployeeReader{employees: map[string]*models.Employee{"e1": {ID: "e1"}, "e2": {ID: "e2"}}}
	svc := newTestAppointmentService(repo, employees)

	created, err := svc.Request(context.Background(), models.CreateAppointmentRequest{
		StudentName: "Asha Rao",
		ParentName:  "Meera Rao",
		Email:       "meera@example.com",
		Phone:       "9876543210",
		Date:        futureDate(),
		TimeHr:      intPtr(10),
		TimeMin:     intPtr(30),
	})
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), created.ID, models.ScheduleAppointmentRequest{
		EmployeeID: "e1", Date: futureDate(), TimeHr: intPtr(11), TimeMin: intPtr(0),
	})
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), created.ID, models.ScheduleAppointmentRequest{
		EmployeeID: "e2", Date: futureDate(), TimeHr: intPtr(15), TimeMin: intPtr(30),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.scheduleCalls, "a differing re-submission must not write")

	current := repo.appointments[created.ID]
	require.NotNil(t, current.EmployeeID)
	assert.Equal(t, "e1", *current.EmployeeID)
	assert.Equal(t, 11, current.TimeHr)
	assert.Equal(t, 0, current.TimeMin)
}

func TestAppointmentScheduleCompletedConflicts(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusCompleted}
	svc := newTestAppointmentService(repo, nil)

	_, err := svc.Schedule(context.Background(), "a1", models.ScheduleAppointmentRequest{
		EmployeeID: "e1", Date: futureDate(), TimeHr: intPtr(11), TimeMin: intPtr(0),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAppointmentScheduleUnknownEmployee(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusPending}
	svc := newTestAppointmentService(repo, &fakeEmployeeReader{employees: map[string]*models.Employee{}})

	_, err := svc.Schedule(context.Background(), "a1", models.ScheduleAppointmentRequest{
		EmployeeID: "missing", Date: futureDate(), TimeHr: intPtr(11), TimeMin: intPtr(0),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAppointmentUpdateRejectsBackwardTransition(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusCompleted}
	svc := newTestAppointmentService(repo, nil)

	pending := models.AppointmentStatusPending
	_, err := svc.Update(context.Background(), "a1", models.UpdateAppointmentRequest{Status: &pending})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.updateCalls)
}

func TestAppointmentUpdateVerdictRequiresCompletion(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusScheduled}
	svc := newTestAppointmentService(repo, nil)

	verdict := models.VerdictJoined
	_, err := svc.Update(context.Background(), "a1", models.UpdateAppointmentRequest{Verdict: &verdict})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAppointmentUpdateCompletesWithVerdict(t *testing.T) {
	repo := newFakeAppointmentRepo()
	repo.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusScheduled}
	svc := newTestAppointmentService(repo, nil)

	completed := models.AppointmentStatusCompleted
	verdict := models.VerdictRecommendation
	remarks := "referred to partner centre"
	updated, err := svc.Update(context.Background(), "a1", models.UpdateAppointmentRequest{
		Status:  &completed,
		Verdict: &verdict,
		Remarks: &remarks,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusCompleted, updated.Status)
	require.NotNil(t, updated.Verdict)
	assert.Equal(t, models.VerdictRecommendation, *updated.Verdict)
}

func TestAppointmentListScopesEmployees(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	claims := &models.JWTClaims{PrincipalID: "e1", Role: models.RoleEmployee}
	_, err := svc.List(context.Background(), claims, "")
	require.NoError(t, err)
	assert.Equal(t, "e1", repo.listFilter.EmployeeID)

	admin := &models.JWTClaims{PrincipalID: "e2", Role: models.RoleAdmin}
	_, err = svc.List(context.Background(), admin, models.AppointmentStatusPending)
	require.NoError(t, err)
	assert.Empty(t, repo.listFilter.EmployeeID)
	assert.Equal(t, models.AppointmentStatusPending, repo.listFilter.Status)
}

func TestAppointmentListRejectsStudents(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)

	claims := &models.JWTClaims{PrincipalID: "s1", Role: models.RoleStudent}
	_, err := svc.List(context.Background(), claims, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
