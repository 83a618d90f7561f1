package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/repository"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

// defaultCredential seeds new accounts; users are expected to change it on
// first login.
const defaultCredential = "Welcome@123"

type employeeWriteRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	FindDetailByID(ctx context.Context, id string) (*models.EmployeeDetail, error)
	CountCreatedInYear(ctx context.Context, year int) (int, error)
}

type designationReader interface {
	FindDesignationByID(ctx context.Context, id string) (*models.Designation, error)
}

// EmployeeService onboards staff. The employeeID is generated from the year
// and an onboarding sequence, e.g. EMP-25-0042.
type EmployeeService struct {
	employees    employeeWriteRepository
	designations designationReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewEmployeeService constructs an EmployeeService instance.
func NewEmployeeService(employees employeeWriteRepository, designations designationReader, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{employees: employees, designations: designations, validator: validate, logger: logger}
}

// Onboard creates an employee account with a generated code and the default
// credential. A duplicate email surfaces as a conflict, not a 500.
func (s *EmployeeService) Onboard(ctx context.Context, req models.CreateEmployeeRequest) (*models.EmployeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}

	if req.DesignationID != nil {
		if _, err := s.designations.FindDesignationByID(ctx, *req.DesignationID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "designation does not exist")
			}
			return nil, internalError(err, "failed to verify designation")
		}
	}

	hash, err := hashPassword(defaultCredential)
	if err != nil {
		return nil, internalError(err, "failed to hash credential")
	}

	year := time.Now().UTC().Year()
	count, err := s.employees.CountCreatedInYear(ctx, year)
	if err != nil {
		return nil, internalError(err, "failed to allocate employee code")
	}

	employee := &models.Employee{
		EmployeeCode:  fmt.Sprintf("EMP-%02d-%04d", year%100, count+1),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Contact:       req.Contact,
		Photo:         req.Photo,
		DesignationID: req.DesignationID,
		DepartmentID:  req.DepartmentID,
		PasswordHash:  hash,
		Status:        models.PrincipalStatusActive,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an employee with this email already exists")
		}
		return nil, internalError(err, "failed to create employee")
	}

	s.logger.Info("employee onboarded",
		zap.String("employee_id", employee.ID),
		zap.String("employee_code", employee.EmployeeCode))
	return s.Get(ctx, employee.ID)
}

// Get returns an employee with resolved designation and department.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	detail, err := s.employees.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee does not exist")
		}
		return nil, internalError(err, "failed to fetch employee")
	}
	return detail, nil
}
