package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparc-center/sparc-api/internal/models"
)

// StudentRepository handles persistence of student principals.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, student_code, first_name, last_name, gender, dob, phone, email, parent_email,
        photo, primary_diagnosis_id, comorbidity_id, password_hash, status, created_at, updated_at`

// FindByID returns a student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByCode returns a student by their human-readable studentID, the natural
// key used for login.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_code = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetailByID returns a student with resolved diagnosis names.
func (r *StudentRepository) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.student_code, s.first_name, s.last_name, s.gender, s.dob, s.phone, s.email,
        s.parent_email, s.photo, s.primary_diagnosis_id, s.comorbidity_id, s.password_hash, s.status,
        s.created_at, s.updated_at,
        pd.name AS primary_diagnosis, cd.name AS comorbidity
        FROM students s
        LEFT JOIN diagnoses pd ON pd.id = s.primary_diagnosis_id
        LEFT JOIN diagnoses cd ON cd.id = s.comorbidity_id
        WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Status == "" {
		student.Status = models.PrincipalStatusActive
	}
	const query = `INSERT INTO students (id, student_code, first_name, last_name, gender, dob, phone, email,
        parent_email, photo, primary_diagnosis_id, comorbidity_id, password_hash, status, created_at, updated_at)
        VALUES (:id, :student_code, :first_name, :last_name, :gender, :dob, :phone, :email,
        :parent_email, :photo, :primary_diagnosis_id, :comorbidity_id, :password_hash, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return wrapPgError(err, "create student")
	}
	return nil
}

// UpdatePassword replaces the stored credential hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE students SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return wrapPgError(err, "update student password")
	}
	return nil
}
