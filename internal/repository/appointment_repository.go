package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparc-center/sparc-api/internal/models"
)

// AppointmentRepository handles persistence of consultation requests.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, student_name, parent_name, email, phone, date, time_hr, time_min, message,
        status, employee_id, verdict, remarks, created_at, updated_at`

// Create persists a new appointment request.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusPending
	}
	const query = `INSERT INTO appointments (id, student_name, parent_name, email, phone, date, time_hr,
        time_min, message, status, employee_id, verdict, remarks, created_at, updated_at)
        VALUES (:id, :student_name, :parent_name, :email, :phone, :date, :time_hr,
        :time_min, :message, :status, :employee_id, :verdict, :remarks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appointment); err != nil {
		return wrapPgError(err, "create appointment")
	}
	return nil
}

// FindByID returns an appointment by its ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appointment models.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Schedule binds the employee and confirms date/time, moving the record to
// scheduled. Last writer wins; there is no version guard.
func (r *AppointmentRepository) Schedule(ctx context.Context, id, employeeID string, date time.Time, timeHr, timeMin int) error {
	const query = `UPDATE appointments
        SET status = $2, employee_id = $3, date = $4, time_hr = $5, time_min = $6, updated_at = $7
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.AppointmentStatusScheduled, employeeID, date, timeHr, timeMin, time.Now().UTC()); err != nil {
		return wrapPgError(err, "schedule appointment")
	}
	return nil
}

// Update applies a partial update; nil fields are left untouched.
func (r *AppointmentRepository) Update(ctx context.Context, id string, status *models.AppointmentStatus, verdict *models.Verdict, remarks *string) error {
	const query = `UPDATE appointments
        SET status = COALESCE($2, status),
            verdict = COALESCE($3, verdict),
            remarks = COALESCE($4, remarks),
            updated_at = $5
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, verdict, remarks, time.Now().UTC()); err != nil {
		return wrapPgError(err, "update appointment")
	}
	return nil
}

// List returns appointments newest-first, optionally scoped to an employee.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error) {
	query := `SELECT a.id, a.student_name, a.parent_name, a.email, a.phone, a.date, a.time_hr, a.time_min,
        a.message, a.status, a.employee_id, a.verdict, a.remarks, a.created_at, a.updated_at,
        e.first_name || ' ' || e.last_name AS employee_name
        FROM appointments a
        LEFT JOIN employees e ON e.id = a.employee_id`
	var args []interface{}
	var conditions []string
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, "a.employee_id = $1")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		if len(args) == 1 {
			conditions = append(conditions, "a.status = $1")
		} else {
			conditions = append(conditions, "a.status = $2")
		}
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY a.created_at DESC"

	var appointments []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, wrapPgError(err, "list appointments")
	}
	return appointments, nil
}
