package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment, programIDs []string) error
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListForEducator(ctx context.Context, educatorID string) ([]models.EnrollmentDetail, error)
	ListAll(ctx context.Context) ([]models.EnrollmentDetail, error)
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentEmployeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type programResolver interface {
	FindProgramsByIDs(ctx context.Context, ids []string) (map[string]models.Program, error)
}

// EnrollmentService registers students into programs. Every reference is
// verified before anything is written: the student first, then the educators,
// then each program, so the first broken reference names itself and the
// database never holds a partial enrollment.
type EnrollmentService struct {
	enrollments enrollmentRepository
	students    enrollmentStudentReader
	employees   enrollmentEmployeeReader
	programs    programResolver
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(enrollments enrollmentRepository, students enrollmentStudentReader, employees enrollmentEmployeeReader, programs programResolver, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		students:    students,
		employees:   employees,
		programs:    programs,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll creates an enrollment after checking every reference it names.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}

	status := req.Status
	if status == "" {
		status = models.EnrollmentStatusActive
	} else if !models.ValidEnrollmentStatus(status) {
		return nil, appErrors.Validation("invalid enrollment payload", []appErrors.FieldError{
			{Field: "status", Message: "must be Active, Inactive, or Completed"},
		})
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student does not exist")
		}
		return nil, internalError(err, "failed to verify student")
	}
	if student.Status != models.PrincipalStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student account is inactive")
	}

	if _, err := s.employees.FindByID(ctx, req.EducatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "educator does not exist")
		}
		return nil, internalError(err, "failed to verify educator")
	}
	if req.SecondaryEducatorID != nil {
		if _, err := s.employees.FindByID(ctx, *req.SecondaryEducatorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "secondary educator does not exist")
			}
			return nil, internalError(err, "failed to verify secondary educator")
		}
	}

	found, err := s.programs.FindProgramsByIDs(ctx, req.ProgramIDs)
	if err != nil {
		return nil, internalError(err, "failed to verify programs")
	}
	for _, id := range req.ProgramIDs {
		if _, ok := found[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("program %s does not exist", id))
		}
	}

	enrollment := &models.Enrollment{
		StudentID:           req.StudentID,
		EducatorID:          req.EducatorID,
		SecondaryEducatorID: req.SecondaryEducatorID,
		Level:               req.Level,
		Status:              status,
	}
	if err := s.enrollments.Create(ctx, enrollment, req.ProgramIDs); err != nil {
		return nil, internalError(err, "failed to create enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", req.StudentID),
		zap.Int("programs", len(req.ProgramIDs)))
	return s.Get(ctx, enrollment.ID)
}

// Get returns one enrollment with display projections and ordered programs.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment does not exist")
		}
		return nil, internalError(err, "failed to fetch enrollment")
	}
	return detail, nil
}

// ListMine returns the caller's active enrollments, whether they are the
// primary or the secondary educator.
func (s *EnrollmentService) ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.EnrollmentDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	details, err := s.enrollments.ListForEducator(ctx, claims.PrincipalID)
	if err != nil {
		return nil, internalError(err, "failed to list enrollments")
	}
	return details, nil
}

// ListAll returns every enrollment for the admin roster view.
func (s *EnrollmentService) ListAll(ctx context.Context) ([]models.EnrollmentDetail, error) {
	details, err := s.enrollments.ListAll(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list enrollments")
	}
	return details, nil
}
