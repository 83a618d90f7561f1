package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

// Scores run 0 through 5 inclusive; zero is a real observation, not a gap.
const (
	minScore = 0
	maxScore = 5
	maxWeek  = 5
)

type scoreCardRepository interface {
	Create(ctx context.Context, card *models.ScoreCard) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.ScoreCardDetail, error)
}

type scoreEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ProgramIDsFor(ctx context.Context, enrollmentID string) ([]string, error)
}

type skillLookupReader interface {
	FindSkillAreaByID(ctx context.Context, id string) (*models.SkillArea, error)
	FindSubTaskByID(ctx context.Context, id string) (*models.SubTask, error)
	SkillAreasByPrograms(ctx context.Context, programIDs []string) ([]models.SkillArea, error)
	SubTasksBySkillAreas(ctx context.Context, skillAreaIDs []string) ([]models.SubTask, error)
}

// ScoreCardService records periodic skill assessments against enrollments.
// Out-of-range values are rejected, never clamped; what is stored is exactly
// what the educator observed.
type ScoreCardService struct {
	scorecards  scoreCardRepository
	enrollments scoreEnrollmentReader
	lookups     skillLookupReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScoreCardService constructs a ScoreCardService instance.
func NewScoreCardService(scorecards scoreCardRepository, enrollments scoreEnrollmentReader, lookups skillLookupReader, validate *validator.Validate, logger *zap.Logger) *ScoreCardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreCardService{
		scorecards:  scorecards,
		enrollments: enrollments,
		lookups:     lookups,
		validator:   validate,
		logger:      logger,
	}
}

// Record persists one assessment entry. The student reference is denormalised
// from the enrollment so later per-student aggregation needs no join through
// enrollments.
func (s *ScoreCardService) Record(ctx context.Context, req models.CreateScoreCardRequest) (*models.ScoreCard, error) {
	fields := collectFieldErrors(s.validator.Struct(req))
	if req.SkillAreaID == nil && req.SubTaskID == nil {
		fields = append(fields, appErrors.FieldError{Field: "skillAreaId", Message: "either a skill area or a sub-task reference is required"})
	}
	if req.Score != nil && (*req.Score < minScore || *req.Score > maxScore) {
		fields = append(fields, appErrors.FieldError{Field: "score", Message: "must be between 0 and 5"})
	}
	if req.Month != "" && !models.ValidMonth(req.Month) {
		fields = append(fields, appErrors.FieldError{Field: "month", Message: "must be a calendar month name"})
	}
	if req.Week != 0 && (req.Week < 1 || req.Week > maxWeek) {
		fields = append(fields, appErrors.FieldError{Field: "week", Message: "must be between 1 and 5"})
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation("invalid scorecard payload", fields)
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment does not exist")
		}
		return nil, internalError(err, "failed to verify enrollment")
	}

	if err := s.verifySkillRefs(ctx, enrollment.ID, req.SkillAreaID, req.SubTaskID); err != nil {
		return nil, err
	}

	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	card := &models.ScoreCard{
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		SkillAreaID:  req.SkillAreaID,
		SubTaskID:    req.SubTaskID,
		Year:         year,
		Month:        req.Month,
		Week:         req.Week,
		Score:        *req.Score,
		Description:  req.Description,
	}
	if err := s.scorecards.Create(ctx, card); err != nil {
		return nil, internalError(err, "failed to record score")
	}

	s.logger.Info("score recorded",
		zap.String("scorecard_id", card.ID),
		zap.String("enrollment_id", card.EnrollmentID),
		zap.Int("score", card.Score))
	return card, nil
}

// verifySkillRefs checks that the referenced skill area belongs to one of the
// enrollment's programs and that the sub-task sits under that skill area.
func (s *ScoreCardService) verifySkillRefs(ctx context.Context, enrollmentID string, skillAreaID, subTaskID *string) error {
	var area *models.SkillArea
	if skillAreaID != nil {
		found, err := s.lookups.FindSkillAreaByID(ctx, *skillAreaID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "skill area does not exist")
			}
			return internalError(err, "failed to verify skill area")
		}
		area = found

		programIDs, err := s.enrollments.ProgramIDsFor(ctx, enrollmentID)
		if err != nil {
			return internalError(err, "failed to load enrollment programs")
		}
		linked := false
		for _, id := range programIDs {
			if id == area.ProgramID {
				linked = true
				break
			}
		}
		if !linked {
			return appErrors.Validation("invalid scorecard payload", []appErrors.FieldError{
				{Field: "skillAreaId", Message: "is not part of the enrollment's programs"},
			})
		}
	}

	if subTaskID != nil {
		task, err := s.lookups.FindSubTaskByID(ctx, *subTaskID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "sub-task does not exist")
			}
			return internalError(err, "failed to verify sub-task")
		}
		if area != nil && task.SkillAreaID != area.ID {
			return appErrors.Validation("invalid scorecard payload", []appErrors.FieldError{
				{Field: "subTaskId", Message: "does not belong to the given skill area"},
			})
		}
	}
	return nil
}

// ListByEnrollment returns the entries recorded against one enrollment,
// newest first.
func (s *ScoreCardService) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.ScoreCardDetail, error) {
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment does not exist")
		}
		return nil, internalError(err, "failed to verify enrollment")
	}
	cards, err := s.scorecards.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, internalError(err, "failed to list scorecards")
	}
	return cards, nil
}

// Context assembles everything a scoring form needs: the enrollment's
// programs plus every skill area and sub-task beneath them.
func (s *ScoreCardService) Context(ctx context.Context, enrollmentID string) (*models.EnrollmentContext, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment does not exist")
		}
		return nil, internalError(err, "failed to fetch enrollment")
	}

	programIDs := make([]string, len(detail.Programs))
	for i, p := range detail.Programs {
		programIDs[i] = p.ID
	}
	areas, err := s.lookups.SkillAreasByPrograms(ctx, programIDs)
	if err != nil {
		return nil, internalError(err, "failed to load skill areas")
	}
	areaIDs := make([]string, len(areas))
	for i, a := range areas {
		areaIDs[i] = a.ID
	}
	tasks, err := s.lookups.SubTasksBySkillAreas(ctx, areaIDs)
	if err != nil {
		return nil, internalError(err, "failed to load sub-tasks")
	}

	return &models.EnrollmentContext{
		EnrollmentID: detail.ID,
		Programs:     detail.Programs,
		SkillAreas:   areas,
		SubTasks:     tasks,
	}, nil
}
