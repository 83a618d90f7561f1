package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparc-center/sparc-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments and their ordered
// program links.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailSelect = `SELECT en.id, en.student_id, en.educator_id, en.secondary_educator_id,
        en.level, en.status, en.created_at, en.updated_at,
        s.first_name || ' ' || s.last_name AS student_name,
        s.student_code AS student_code,
        COALESCE(s.photo, '') AS student_photo,
        d.name AS student_diagnosis,
        e.first_name || ' ' || e.last_name AS educator_name,
        COALESCE(e.photo, '') AS educator_photo,
        se.first_name || ' ' || se.last_name AS secondary_educator_name
        FROM enrollments en
        JOIN students s ON s.id = en.student_id
        LEFT JOIN diagnoses d ON d.id = s.primary_diagnosis_id
        JOIN employees e ON e.id = en.educator_id
        LEFT JOIN employees se ON se.id = en.secondary_educator_id`

// Create persists the enrollment and its program links in one transaction.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment, programIDs []string) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	if enrollment.Level <= 0 {
		enrollment.Level = 1
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapPgError(err, "begin enrollment tx")
	}
	defer tx.Rollback() //nolint:errcheck

	const insertEnrollment = `INSERT INTO enrollments (id, student_id, educator_id, secondary_educator_id,
        level, status, created_at, updated_at)
        VALUES (:id, :student_id, :educator_id, :secondary_educator_id, :level, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertEnrollment, enrollment); err != nil {
		return wrapPgError(err, "create enrollment")
	}

	const insertLink = `INSERT INTO enrollment_programs (enrollment_id, program_id, position) VALUES ($1, $2, $3)`
	for i, programID := range programIDs {
		if _, err := tx.ExecContext(ctx, insertLink, enrollment.ID, programID, i); err != nil {
			return wrapPgError(err, "link enrollment program")
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapPgError(err, "commit enrollment")
	}
	return nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, educator_id, secondary_educator_id, level, status, created_at, updated_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns one enrollment with display projections and programs.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE en.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	programs, err := r.programsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	detail.Programs = programs[id]
	return &detail, nil
}

// ListForEducator returns active enrollments where the educator is primary or
// secondary, most recently updated first.
func (r *EnrollmentRepository) ListForEducator(ctx context.Context, educatorID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + `
        WHERE (en.educator_id = $1 OR en.secondary_educator_id = $1) AND en.status = $2
        ORDER BY en.updated_at DESC`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, educatorID, models.EnrollmentStatusActive); err != nil {
		return nil, wrapPgError(err, "list educator enrollments")
	}
	return r.attachPrograms(ctx, details)
}

// ListAll returns every enrollment ordered by student, then descending level,
// then most recently updated.
func (r *EnrollmentRepository) ListAll(ctx context.Context) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` ORDER BY student_name ASC, en.level DESC, en.updated_at DESC`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, wrapPgError(err, "list enrollments")
	}
	return r.attachPrograms(ctx, details)
}

func (r *EnrollmentRepository) attachPrograms(ctx context.Context, details []models.EnrollmentDetail) ([]models.EnrollmentDetail, error) {
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]string, len(details))
	for i, d := range details {
		ids[i] = d.ID
	}
	programs, err := r.programsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range details {
		details[i].Programs = programs[details[i].ID]
	}
	return details, nil
}

type enrollmentProgramRow struct {
	EnrollmentID string `db:"enrollment_id"`
	ProgramID    string `db:"program_id"`
	ProgramName  string `db:"program_name"`
}

func (r *EnrollmentRepository) programsFor(ctx context.Context, enrollmentIDs []string) (map[string][]models.ProgramRef, error) {
	placeholders := make([]string, len(enrollmentIDs))
	args := make([]interface{}, len(enrollmentIDs))
	for i, id := range enrollmentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT ep.enrollment_id, p.id AS program_id, p.name AS program_name
        FROM enrollment_programs ep
        JOIN programs p ON p.id = ep.program_id
        WHERE ep.enrollment_id IN (%s)
        ORDER BY ep.enrollment_id, ep.position`, strings.Join(placeholders, ","))

	var rows []enrollmentProgramRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapPgError(err, "load enrollment programs")
	}

	result := make(map[string][]models.ProgramRef, len(enrollmentIDs))
	for _, row := range rows {
		result[row.EnrollmentID] = append(result[row.EnrollmentID], models.ProgramRef{ID: row.ProgramID, Name: row.ProgramName})
	}
	return result, nil
}

// ProgramNamesForStudent returns the distinct program names across every
// enrollment of one student, for report headers.
func (r *EnrollmentRepository) ProgramNamesForStudent(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT DISTINCT p.name
        FROM enrollment_programs ep
        JOIN enrollments en ON en.id = ep.enrollment_id
        JOIN programs p ON p.id = ep.program_id
        WHERE en.student_id = $1
        ORDER BY p.name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, studentID); err != nil {
		return nil, wrapPgError(err, "load student program names")
	}
	return names, nil
}

// ProgramIDsFor returns the ordered program ids linked to one enrollment.
func (r *EnrollmentRepository) ProgramIDsFor(ctx context.Context, enrollmentID string) ([]string, error) {
	const query = `SELECT program_id FROM enrollment_programs WHERE enrollment_id = $1 ORDER BY position`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, enrollmentID); err != nil {
		return nil, wrapPgError(err, "load enrollment program ids")
	}
	return ids, nil
}
