package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparc-center/sparc-api/internal/models"
)

// EmployeeRepository handles persistence of employee principals.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeDetailSelect = `SELECT e.id, e.employee_code, e.first_name, e.last_name, e.email, e.contact,
        e.photo, e.designation_id, e.department_id, e.password_hash, e.status, e.created_at, e.updated_at,
        des.title AS designation_title, dep.name AS department_name
        FROM employees e
        LEFT JOIN designations des ON des.id = e.designation_id
        LEFT JOIN departments dep ON dep.id = e.department_id`

// FindByID returns an employee by primary key.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	const query = `SELECT id, employee_code, first_name, last_name, email, contact, photo, designation_id,
        department_id, password_hash, status, created_at, updated_at FROM employees WHERE id = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByCode returns an employee by the human-readable employeeID.
func (r *EmployeeRepository) FindByCode(ctx context.Context, code string) (*models.Employee, error) {
	const query = `SELECT id, employee_code, first_name, last_name, email, contact, photo, designation_id,
        department_id, password_hash, status, created_at, updated_at FROM employees WHERE employee_code = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, code); err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindDetailByEmail resolves the login natural key together with the
// designation label the token denormalises.
func (r *EmployeeRepository) FindDetailByEmail(ctx context.Context, email string) (*models.EmployeeDetail, error) {
	query := employeeDetailSelect + ` WHERE lower(e.email) = lower($1)`
	var detail models.EmployeeDetail
	if err := r.db.GetContext(ctx, &detail, query, email); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindDetailByID returns an employee with resolved designation and department.
func (r *EmployeeRepository) FindDetailByID(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	query := employeeDetailSelect + ` WHERE e.id = $1`
	var detail models.EmployeeDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new employee record.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now
	if employee.Status == "" {
		employee.Status = models.PrincipalStatusActive
	}
	const query = `INSERT INTO employees (id, employee_code, first_name, last_name, email, contact, photo,
        designation_id, department_id, password_hash, status, created_at, updated_at)
        VALUES (:id, :employee_code, :first_name, :last_name, :email, :contact, :photo,
        :designation_id, :department_id, :password_hash, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return wrapPgError(err, "create employee")
	}
	return nil
}

// UpdatePassword replaces the stored credential hash.
func (r *EmployeeRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE employees SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return wrapPgError(err, "update employee password")
	}
	return nil
}

// CountCreatedInYear supports generating sequential employee codes.
func (r *EmployeeRepository) CountCreatedInYear(ctx context.Context, year int) (int, error) {
	const query = `SELECT COUNT(*) FROM employees WHERE date_part('year', created_at) = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, year); err != nil {
		return 0, wrapPgError(err, "count employees")
	}
	return count, nil
}
