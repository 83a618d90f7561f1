package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparc-center/sparc-api/internal/models"
)

// ScoreCardRepository handles persistence of periodic skill assessments.
// Scorecards are append-only; there is no update or delete.
type ScoreCardRepository struct {
	db *sqlx.DB
}

// NewScoreCardRepository constructs the repository.
func NewScoreCardRepository(db *sqlx.DB) *ScoreCardRepository {
	return &ScoreCardRepository{db: db}
}

// Create persists a new scorecard entry.
func (r *ScoreCardRepository) Create(ctx context.Context, card *models.ScoreCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO scorecards (id, enrollment_id, student_id, skill_area_id, sub_task_id,
        year, month, week, score, description, created_at)
        VALUES (:id, :enrollment_id, :student_id, :skill_area_id, :sub_task_id,
        :year, :month, :week, :score, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return wrapPgError(err, "create scorecard")
	}
	return nil
}

// ListByStudent returns a student's scorecards with resolved skill-area and
// sub-task names, oldest first, for report aggregation.
func (r *ScoreCardRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ScoreCardDetail, error) {
	const query = `SELECT sc.id, sc.enrollment_id, sc.student_id, sc.skill_area_id, sc.sub_task_id,
        sc.year, sc.month, sc.week, sc.score, sc.description, sc.created_at,
        sa.name AS skill_area_name, st.name AS sub_task_name
        FROM scorecards sc
        LEFT JOIN skill_areas sa ON sa.id = sc.skill_area_id
        LEFT JOIN sub_tasks st ON st.id = sc.sub_task_id
        WHERE sc.student_id = $1
        ORDER BY sc.year, sc.month, sc.week, sc.created_at`
	var cards []models.ScoreCardDetail
	if err := r.db.SelectContext(ctx, &cards, query, studentID); err != nil {
		return nil, wrapPgError(err, "list student scorecards")
	}
	return cards, nil
}

// ListByEnrollment returns scorecards recorded against one enrollment.
func (r *ScoreCardRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.ScoreCardDetail, error) {
	const query = `SELECT sc.id, sc.enrollment_id, sc.student_id, sc.skill_area_id, sc.sub_task_id,
        sc.year, sc.month, sc.week, sc.score, sc.description, sc.created_at,
        sa.name AS skill_area_name, st.name AS sub_task_name
        FROM scorecards sc
        LEFT JOIN skill_areas sa ON sa.id = sc.skill_area_id
        LEFT JOIN sub_tasks st ON st.id = sc.sub_task_id
        WHERE sc.enrollment_id = $1
        ORDER BY sc.created_at DESC`
	var cards []models.ScoreCardDetail
	if err := r.db.SelectContext(ctx, &cards, query, enrollmentID); err != nil {
		return nil, wrapPgError(err, "list enrollment scorecards")
	}
	return cards, nil
}
