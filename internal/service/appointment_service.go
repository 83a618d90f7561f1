package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

const appointmentDateLayout = "2006-01-02"

type appointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Schedule(ctx context.Context, id, employeeID string, date time.Time, timeHr, timeMin int) error
	Update(ctx context.Context, id string, status *models.AppointmentStatus, verdict *models.Verdict, remarks *string) error
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error)
}

type appointmentEmployeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

// AppointmentService drives the consultation lifecycle: a public request
// starts pending, an admin schedules it onto an employee, and the employee
// closes it with a verdict.
type AppointmentService struct {
	appointments appointmentRepository
	employees    appointmentEmployeeReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAppointmentService constructs an AppointmentService instance.
func NewAppointmentService(appointments appointmentRepository, employees appointmentEmployeeReader, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{appointments: appointments, employees: employees, validator: validate, logger: logger}
}

// Request accepts a public consultation request. Every offending field is
// reported, not just the first.
func (s *AppointmentService) Request(ctx context.Context, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	fields := collectFieldErrors(s.validator.Struct(req))

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(appointmentDateLayout, req.Date)
		if err != nil {
			fields = append(fields, appErrors.FieldError{Field: "date", Message: "must be formatted YYYY-MM-DD"})
		} else {
			date = parsed
			switch {
			case date.Before(todayUTC()):
				fields = append(fields, appErrors.FieldError{Field: "date", Message: "must not be in the past"})
			case date.Equal(todayUTC()) && slotPassed(req.TimeHr, req.TimeMin):
				fields = append(fields, appErrors.FieldError{Field: "date", Message: "time slot has already passed today"})
			}
		}
	}
	fields = append(fields, slotFieldErrors(req.TimeHr, req.TimeMin)...)
	if len(fields) > 0 {
		return nil, appErrors.Validation("invalid appointment request", fields)
	}

	appointment := &models.Appointment{
		StudentName: req.StudentName,
		ParentName:  req.ParentName,
		Email:       req.Email,
		Phone:       req.Phone,
		Date:        date,
		TimeHr:      *req.TimeHr,
		TimeMin:     *req.TimeMin,
		Message:     req.Message,
		Status:      models.AppointmentStatusPending,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, internalError(err, "failed to create appointment")
	}

	s.logger.Info("appointment requested",
		zap.String("appointment_id", appointment.ID),
		zap.String("student_name", appointment.StudentName))
	return appointment, nil
}

// Schedule assigns an employee and confirms the slot, moving the record to
// scheduled. Re-submitting identical details for an already-scheduled record
// is a no-op, so a retried confirmation never errors; differing details are a
// Conflict, never a silent overwrite.
func (s *AppointmentService) Schedule(ctx context.Context, id string, req models.ScheduleAppointmentRequest) (*models.Appointment, error) {
	fields := collectFieldErrors(s.validator.Struct(req))

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(appointmentDateLayout, req.Date)
		if err != nil {
			fields = append(fields, appErrors.FieldError{Field: "date", Message: "must be formatted YYYY-MM-DD"})
		} else {
			date = parsed
		}
	}
	fields = append(fields, slotFieldErrors(req.TimeHr, req.TimeMin)...)
	if len(fields) > 0 {
		return nil, appErrors.Validation("invalid schedule request", fields)
	}

	appointment, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appointment.Status {
	case models.AppointmentStatusCompleted:
		return nil, appErrors.Clone(appErrors.ErrConflict, "appointment has already been completed")
	case models.AppointmentStatusScheduled:
		if appointment.EmployeeID != nil && *appointment.EmployeeID == req.EmployeeID &&
			appointment.Date.Equal(date) && appointment.TimeHr == *req.TimeHr && appointment.TimeMin == *req.TimeMin {
			return appointment, nil
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "appointment is already scheduled with different details")
	}

	if _, err := s.employees.FindByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee does not exist")
		}
		return nil, internalError(err, "failed to verify employee")
	}

	if err := s.appointments.Schedule(ctx, id, req.EmployeeID, date, *req.TimeHr, *req.TimeMin); err != nil {
		return nil, internalError(err, "failed to schedule appointment")
	}

	s.logger.Info("appointment scheduled",
		zap.String("appointment_id", id),
		zap.String("employee_id", req.EmployeeID))
	return s.findAppointment(ctx, id)
}

// Update applies a partial post-session update. Status may only move forward
// through the lifecycle, and a verdict requires the record to be completed.
func (s *AppointmentService) Update(ctx context.Context, id string, req models.UpdateAppointmentRequest) (*models.Appointment, error) {
	appointment, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields []appErrors.FieldError
	targetStatus := appointment.Status
	if req.Status != nil {
		if !models.ValidAppointmentStatus(*req.Status) {
			fields = append(fields, appErrors.FieldError{Field: "status", Message: "must be pending, scheduled, or completed"})
		} else if statusRank(*req.Status) < statusRank(appointment.Status) {
			fields = append(fields, appErrors.FieldError{
				Field:   "status",
				Message: fmt.Sprintf("cannot move back from %s to %s", appointment.Status, *req.Status),
			})
		} else {
			targetStatus = *req.Status
		}
	}
	if req.Verdict != nil {
		if !models.ValidVerdict(*req.Verdict) {
			fields = append(fields, appErrors.FieldError{Field: "verdict", Message: "must be joined or recommendation"})
		} else if targetStatus != models.AppointmentStatusCompleted {
			fields = append(fields, appErrors.FieldError{Field: "verdict", Message: "requires a completed appointment"})
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation("invalid appointment update", fields)
	}

	if err := s.appointments.Update(ctx, id, req.Status, req.Verdict, req.Remarks); err != nil {
		return nil, internalError(err, "failed to update appointment")
	}

	s.logger.Info("appointment updated", zap.String("appointment_id", id), zap.String("status", string(targetStatus)))
	return s.findAppointment(ctx, id)
}

// Get returns one appointment by id.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.findAppointment(ctx, id)
}

// List returns appointments visible to the caller. Admins see everything;
// employees only their own assignments.
func (s *AppointmentService) List(ctx context.Context, claims *models.JWTClaims, status models.AppointmentStatus) ([]models.AppointmentDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if status != "" && !models.ValidAppointmentStatus(status) {
		return nil, appErrors.Validation("invalid appointment filter", []appErrors.FieldError{
			{Field: "status", Message: "must be pending, scheduled, or completed"},
		})
	}

	filter := models.AppointmentFilter{Status: status}
	switch claims.Role {
	case models.RoleAdmin:
	case models.RoleEmployee:
		filter.EmployeeID = claims.PrincipalID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appointments are staff-only")
	}

	appointments, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list appointments")
	}
	return appointments, nil
}

func (s *AppointmentService) findAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment does not exist")
		}
		return nil, internalError(err, "failed to fetch appointment")
	}
	return appointment, nil
}

func slotFieldErrors(timeHr, timeMin *int) []appErrors.FieldError {
	var fields []appErrors.FieldError
	if timeHr != nil && (*timeHr < 0 || *timeHr > 23) {
		fields = append(fields, appErrors.FieldError{Field: "timeHr", Message: "must be between 0 and 23"})
	}
	if timeMin != nil && (*timeMin < 0 || *timeMin > 59) {
		fields = append(fields, appErrors.FieldError{Field: "timeMin", Message: "must be between 0 and 59"})
	}
	return fields
}

// slotPassed reports whether the hr/min slot is at or before the current
// clock time. Only meaningful for same-day requests.
func slotPassed(timeHr, timeMin *int) bool {
	if timeHr == nil || timeMin == nil {
		return false
	}
	now := time.Now().UTC()
	if *timeHr != now.Hour() {
		return *timeHr < now.Hour()
	}
	return *timeMin <= now.Minute()
}

func statusRank(s models.AppointmentStatus) int {
	switch s {
	case models.AppointmentStatusPending:
		return 0
	case models.AppointmentStatusScheduled:
		return 1
	case models.AppointmentStatusCompleted:
		return 2
	}
	return -1
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
