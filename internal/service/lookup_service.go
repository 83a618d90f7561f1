package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/repository"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

const lookupCacheTTL = 10 * time.Minute

type lookupRepository interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	CreateProgram(ctx context.Context, program *models.Program) error
	ListDesignations(ctx context.Context) ([]models.Designation, error)
	CreateDesignation(ctx context.Context, designation *models.Designation) error
	ListDepartments(ctx context.Context) ([]models.Department, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
	ListDiagnoses(ctx context.Context) ([]models.Diagnosis, error)
	CreateDiagnosis(ctx context.Context, diagnosis *models.Diagnosis) error
}

// CreateProgramRequest adds a therapy program.
type CreateProgramRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateNamedRequest covers the title-only reference collections.
type CreateNamedRequest struct {
	Name string `json:"name" validate:"required"`
}

// LookupService serves the reference collections, caching list reads in Redis
// since they change rarely and render on nearly every screen. Writes drop the
// cached entry; a nil cache client degrades to direct reads.
type LookupService struct {
	lookups   lookupRepository
	cache     *redis.Client
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLookupService constructs a LookupService instance.
func NewLookupService(lookups lookupRepository, cache *redis.Client, validate *validator.Validate, logger *zap.Logger) *LookupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{lookups: lookups, cache: cache, validator: validate, logger: logger}
}

// ListPrograms returns all programs, cache-first.
func (s *LookupService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if s.cachedList(ctx, "lookup:programs", &programs) {
		return programs, nil
	}
	programs, err := s.lookups.ListPrograms(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list programs")
	}
	s.storeList(ctx, "lookup:programs", programs)
	return programs, nil
}

// CreateProgram adds a program and invalidates the cached list.
func (s *LookupService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid program payload")
	}
	program := &models.Program{Name: req.Name, Description: req.Description}
	if err := s.lookups.CreateProgram(ctx, program); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a program with this name already exists")
		}
		return nil, internalError(err, "failed to create program")
	}
	s.dropList(ctx, "lookup:programs")
	return program, nil
}

// ListDesignations returns all designations, cache-first.
func (s *LookupService) ListDesignations(ctx context.Context) ([]models.Designation, error) {
	var designations []models.Designation
	if s.cachedList(ctx, "lookup:designations", &designations) {
		return designations, nil
	}
	designations, err := s.lookups.ListDesignations(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list designations")
	}
	s.storeList(ctx, "lookup:designations", designations)
	return designations, nil
}

// CreateDesignation adds a designation and invalidates the cached list.
func (s *LookupService) CreateDesignation(ctx context.Context, req CreateNamedRequest) (*models.Designation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid designation payload")
	}
	designation := &models.Designation{Title: req.Name}
	if err := s.lookups.CreateDesignation(ctx, designation); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a designation with this title already exists")
		}
		return nil, internalError(err, "failed to create designation")
	}
	s.dropList(ctx, "lookup:designations")
	return designation, nil
}

// ListDepartments returns all departments, cache-first.
func (s *LookupService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if s.cachedList(ctx, "lookup:departments", &departments) {
		return departments, nil
	}
	departments, err := s.lookups.ListDepartments(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list departments")
	}
	s.storeList(ctx, "lookup:departments", departments)
	return departments, nil
}

// CreateDepartment adds a department and invalidates the cached list.
func (s *LookupService) CreateDepartment(ctx context.Context, req CreateNamedRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	department := &models.Department{Name: req.Name}
	if err := s.lookups.CreateDepartment(ctx, department); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a department with this name already exists")
		}
		return nil, internalError(err, "failed to create department")
	}
	s.dropList(ctx, "lookup:departments")
	return department, nil
}

// ListDiagnoses returns all diagnoses, cache-first.
func (s *LookupService) ListDiagnoses(ctx context.Context) ([]models.Diagnosis, error) {
	var diagnoses []models.Diagnosis
	if s.cachedList(ctx, "lookup:diagnoses", &diagnoses) {
		return diagnoses, nil
	}
	diagnoses, err := s.lookups.ListDiagnoses(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list diagnoses")
	}
	s.storeList(ctx, "lookup:diagnoses", diagnoses)
	return diagnoses, nil
}

// CreateDiagnosis adds a diagnosis and invalidates the cached list.
func (s *LookupService) CreateDiagnosis(ctx context.Context, req CreateNamedRequest) (*models.Diagnosis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid diagnosis payload")
	}
	diagnosis := &models.Diagnosis{Name: req.Name}
	if err := s.lookups.CreateDiagnosis(ctx, diagnosis); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a diagnosis with this name already exists")
		}
		return nil, internalError(err, "failed to create diagnosis")
	}
	s.dropList(ctx, "lookup:diagnoses")
	return diagnosis, nil
}

func (s *LookupService) cachedList(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("lookup cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("lookup cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *LookupService) storeList(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, lookupCacheTTL).Err(); err != nil {
		s.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *LookupService) dropList(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("lookup cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
