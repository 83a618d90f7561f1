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

// LookupRepository covers the small reference collections: programs, skill
// areas, sub-tasks, designations, departments, and diagnoses.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository constructs the repository.
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// FindProgramsByIDs resolves each given id, returning the found programs keyed
// by id so callers can name which references are missing.
func (r *LookupRepository) FindProgramsByIDs(ctx context.Context, ids []string) (map[string]models.Program, error) {
	if len(ids) == 0 {
		return map[string]models.Program{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, name, COALESCE(description, '') AS description, created_at
        FROM programs WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, args...); err != nil {
		return nil, wrapPgError(err, "find programs")
	}
	result := make(map[string]models.Program, len(programs))
	for _, p := range programs {
		result[p.ID] = p
	}
	return result, nil
}

// FindSkillAreaByID returns a skill area by id.
func (r *LookupRepository) FindSkillAreaByID(ctx context.Context, id string) (*models.SkillArea, error) {
	const query = `SELECT id, program_id, name, COALESCE(description, '') AS description, created_at
        FROM skill_areas WHERE id = $1`
	var area models.SkillArea
	if err := r.db.GetContext(ctx, &area, query, id); err != nil {
		return nil, err
	}
	return &area, nil
}

// FindSubTaskByID returns a sub-task by id.
func (r *LookupRepository) FindSubTaskByID(ctx context.Context, id string) (*models.SubTask, error) {
	const query = `SELECT id, skill_area_id, name, COALESCE(description, '') AS description, created_at
        FROM sub_tasks WHERE id = $1`
	var task models.SubTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// SkillAreasByPrograms returns every skill area under the given programs.
func (r *LookupRepository) SkillAreasByPrograms(ctx context.Context, programIDs []string) ([]models.SkillArea, error) {
	if len(programIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(programIDs))
	args := make([]interface{}, len(programIDs))
	for i, id := range programIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, program_id, name, COALESCE(description, '') AS description, created_at
        FROM skill_areas WHERE program_id IN (%s) ORDER BY name`, strings.Join(placeholders, ","))
	var areas []models.SkillArea
	if err := r.db.SelectContext(ctx, &areas, query, args...); err != nil {
		return nil, wrapPgError(err, "list skill areas")
	}
	return areas, nil
}

// SubTasksBySkillAreas returns every sub-task under the given skill areas.
func (r *LookupRepository) SubTasksBySkillAreas(ctx context.Context, skillAreaIDs []string) ([]models.SubTask, error) {
	if len(skillAreaIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(skillAreaIDs))
	args := make([]interface{}, len(skillAreaIDs))
	for i, id := range skillAreaIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, skill_area_id, name, COALESCE(description, '') AS description, created_at
        FROM sub_tasks WHERE skill_area_id IN (%s) ORDER BY name`, strings.Join(placeholders, ","))
	var tasks []models.SubTask
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, wrapPgError(err, "list sub tasks")
	}
	return tasks, nil
}

// FindDesignationByID returns a designation by id.
func (r *LookupRepository) FindDesignationByID(ctx context.Context, id string) (*models.Designation, error) {
	const query = `SELECT id, title, created_at FROM designations WHERE id = $1`
	var designation models.Designation
	if err := r.db.GetContext(ctx, &designation, query, id); err != nil {
		return nil, err
	}
	return &designation, nil
}

// ListPrograms returns all programs ordered by name.
func (r *LookupRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, name, COALESCE(description, '') AS description, created_at FROM programs ORDER BY name`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, wrapPgError(err, "list programs")
	}
	return programs, nil
}

// CreateProgram persists a new program.
func (r *LookupRepository) CreateProgram(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO programs (id, name, description, created_at) VALUES (:id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return wrapPgError(err, "create program")
	}
	return nil
}

// ListDesignations returns all designations ordered by title.
func (r *LookupRepository) ListDesignations(ctx context.Context) ([]models.Designation, error) {
	const query = `SELECT id, title, created_at FROM designations ORDER BY title`
	var designations []models.Designation
	if err := r.db.SelectContext(ctx, &designations, query); err != nil {
		return nil, wrapPgError(err, "list designations")
	}
	return designations, nil
}

// CreateDesignation persists a new designation.
func (r *LookupRepository) CreateDesignation(ctx context.Context, designation *models.Designation) error {
	if designation.ID == "" {
		designation.ID = uuid.NewString()
	}
	if designation.CreatedAt.IsZero() {
		designation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO designations (id, title, created_at) VALUES (:id, :title, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, designation); err != nil {
		return wrapPgError(err, "create designation")
	}
	return nil
}

// ListDepartments returns all departments ordered by name.
func (r *LookupRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, created_at FROM departments ORDER BY name`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, wrapPgError(err, "list departments")
	}
	return departments, nil
}

// CreateDepartment persists a new department.
func (r *LookupRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	if department.CreatedAt.IsZero() {
		department.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO departments (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return wrapPgError(err, "create department")
	}
	return nil
}

// ListDiagnoses returns all diagnoses ordered by name.
func (r *LookupRepository) ListDiagnoses(ctx context.Context) ([]models.Diagnosis, error) {
	const query = `SELECT id, name, created_at FROM diagnoses ORDER BY name`
	var diagnoses []models.Diagnosis
	if err := r.db.SelectContext(ctx, &diagnoses, query); err != nil {
		return nil, wrapPgError(err, "list diagnoses")
	}
	return diagnoses, nil
}

// CreateDiagnosis persists a new diagnosis.
func (r *LookupRepository) CreateDiagnosis(ctx context.Context, diagnosis *models.Diagnosis) error {
	if diagnosis.ID == "" {
		diagnosis.ID = uuid.NewString()
	}
	if diagnosis.CreatedAt.IsZero() {
		diagnosis.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO diagnoses (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, diagnosis); err != nil {
		return wrapPgError(err, "create diagnosis")
	}
	return nil
}
