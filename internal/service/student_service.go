package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/repository"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

const dobLayout = "2006-01-02"

type studentWriteRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// StudentService onboards students and serves their profile view.
type StudentService struct {
	students  studentWriteRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(students studentWriteRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, validator: validate, logger: logger}
}

// Onboard creates a student account with the default credential. A duplicate
// studentID or email surfaces as a conflict.
func (s *StudentService) Onboard(ctx context.Context, req models.CreateStudentRequest) (*models.StudentDetail, error) {
	fields := collectFieldErrors(s.validator.Struct(req))

	var dob *time.Time
	if req.DOB != "" {
		parsed, err := time.Parse(dobLayout, req.DOB)
		if err != nil {
			fields = append(fields, appErrors.FieldError{Field: "dob", Message: "must be formatted YYYY-MM-DD"})
		} else {
			dob = &parsed
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation("invalid student payload", fields)
	}

	hash, err := hashPassword(defaultCredential)
	if err != nil {
		return nil, internalError(err, "failed to hash credential")
	}

	student := &models.Student{
		StudentCode:        req.StudentCode,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Gender:             req.Gender,
		DOB:                dob,
		Phone:              req.Phone,
		Email:              req.Email,
		ParentEmail:        req.ParentEmail,
		Photo:              req.Photo,
		PrimaryDiagnosisID: req.PrimaryDiagnosisID,
		ComorbidityID:      req.ComorbidityID,
		PasswordHash:       hash,
		Status:             models.PrincipalStatusActive,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this studentID or email already exists")
		}
		return nil, internalError(err, "failed to create student")
	}

	s.logger.Info("student onboarded",
		zap.String("student_id", student.ID),
		zap.String("student_code", student.StudentCode))
	return s.Get(ctx, student.ID)
}

// Get returns a student with resolved diagnosis names.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.students.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student does not exist")
		}
		return nil, internalError(err, "failed to fetch student")
	}
	return detail, nil
}

// Profile returns the calling student's own record.
func (s *StudentService) Profile(ctx context.Context, claims *models.JWTClaims) (*models.StudentDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.Get(ctx, claims.PrincipalID)
}
