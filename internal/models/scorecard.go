package models

import "time"

// Months enumerates the calendar-month names accepted on scorecards.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// ValidMonth reports whether m is a recognised calendar-month name.
func ValidMonth(m string) bool {
	for _, month := range Months {
		if month == m {
			return true
		}
	}
	return false
}

// ScoreCard is a single periodic skill assessment. Records are immutable once
// created; later aggregation consumes them read-only. The student reference is
// denormalised from the enrollment at creation for join-free lookups.
type ScoreCard struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SkillAreaID  *string   `db:"skill_area_id" json:"skill_area_id,omitempty"`
	SubTaskID    *string   `db:"sub_task_id" json:"sub_task_id,omitempty"`
	Year         int       `db:"year" json:"year"`
	Month        string    `db:"month" json:"month"`
	Week         int       `db:"week" json:"week"`
	Score        int       `db:"score" json:"score"`
	Description  string    `db:"description" json:"description,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ScoreCardDetail enriches a scorecard with resolved skill-area/sub-task names.
type ScoreCardDetail struct {
	ScoreCard
	SkillAreaName *string `db:"skill_area_name" json:"skillAreaName,omitempty"`
	SubTaskName   *string `db:"sub_task_name" json:"subTaskName,omitempty"`
}

// CreateScoreCardRequest records one assessment entry. Score is a pointer so
// a legitimate zero survives the required check; year defaults to the current
// year when omitted.
type CreateScoreCardRequest struct {
	EnrollmentID string  `json:"enrollmentId" validate:"required"`
	SkillAreaID  *string `json:"skillAreaId,omitempty"`
	SubTaskID    *string `json:"subTaskId,omitempty"`
	Year         int     `json:"year"`
	Month        string  `json:"month" validate:"required"`
	Week         int     `json:"week" validate:"required"`
	Score        *int    `json:"score" validate:"required"`
	Description  string  `json:"description"`
}

// EnrollmentContext is the read-side join used to render a scoring form: the
// enrollment's programs plus every skill area and sub-task under them.
type EnrollmentContext struct {
	EnrollmentID string       `json:"enrollmentId"`
	Programs     []ProgramRef `json:"programs"`
	SkillAreas   []SkillArea  `json:"skillAreas"`
	SubTasks     []SubTask    `json:"subTasks"`
}
