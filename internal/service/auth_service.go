package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

// passwordHashCost is the fixed bcrypt work factor for every stored credential.
const passwordHashCost = 10

type studentAuthRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type employeeAuthRepository interface {
	FindDetailByEmail(ctx context.Context, email string) (*models.EmployeeDetail, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type sessionStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthConfig defines configuration for authentication flows, injected at
// construction rather than read from the environment at call sites.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService authenticates the three principal kinds and validates tokens.
// Students log in with their studentID, employees and admins with their email;
// admins are employees whose designation carries the admin title.
type AuthService struct {
	students  studentAuthRepository
	employees employeeAuthRepository
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(students studentAuthRepository, employees employeeAuthRepository, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{students: students, employees: employees, sessions: sessions, validator: validate, logger: logger, config: config}
}

// LoginStudent authenticates a student by studentID and password.
func (s *AuthService) LoginStudent(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	student, err := s.students.FindByCode(ctx, req.StudentCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if student.Status != models.PrincipalStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid student credentials")
	}

	info := models.PrincipalInfo{
		ID:    student.ID,
		Code:  student.StudentCode,
		Name:  student.FullName(),
		Email: student.Email,
		Role:  models.RoleStudent,
	}
	return s.issue(info)
}

// LoginEmployee authenticates an employee (or admin) by email and password.
// The resolved role is denormalised into the token from the designation label.
func (s *AuthService) LoginEmployee(ctx context.Context, req models.EmployeeLoginRequest) (*models.LoginResponse, error) {
	detail, err := s.lookupEmployee(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(employeeInfo(detail))
}

// LoginAdmin authenticates like LoginEmployee but additionally requires the
// admin designation.
func (s *AuthService) LoginAdmin(ctx context.Context, req models.EmployeeLoginRequest) (*models.LoginResponse, error) {
	detail, err := s.lookupEmployee(ctx, req)
	if err != nil {
		return nil, err
	}
	info := employeeInfo(detail)
	if info.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin designation required")
	}
	return s.issue(info)
}

func (s *AuthService) lookupEmployee(ctx context.Context, req models.EmployeeLoginRequest) (*models.EmployeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	detail, err := s.employees.FindDetailByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch employee")
	}
	if detail.Status != models.PrincipalStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(detail.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid employee credentials")
	}
	return detail, nil
}

func employeeInfo(detail *models.EmployeeDetail) models.PrincipalInfo {
	info := models.PrincipalInfo{
		ID:    detail.ID,
		Code:  detail.EmployeeCode,
		Name:  detail.FullName(),
		Email: detail.Email,
		Role:  models.RoleEmployee,
	}
	if detail.DesignationTitle != nil {
		info.Designation = *detail.DesignationTitle
		if *detail.DesignationTitle == models.AdminDesignationTitle {
			info.Role = models.RoleAdmin
		}
	}
	return info
}

// Logout denylists the token id until its natural expiry. Without the
// denylist a "logged out" stateless token would keep validating server-side.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	ttl := time.Duration(0)
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	return nil
}

// ChangePassword updates the caller's own credential, dispatching on the
// principal kind recorded in the token.
func (s *AuthService) ChangePassword(ctx context.Context, claims *models.JWTClaims, req models.ChangePasswordRequest) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}

	var currentHash string
	switch claims.Role {
	case models.RoleStudent:
		student, err := s.students.FindByID(ctx, claims.PrincipalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		currentHash = student.PasswordHash
	default:
		employee, err := s.employees.FindByID(ctx, claims.PrincipalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "employee not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
		}
		currentHash = employee.PasswordHash
	}

	if err := bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "old password does not match")
	}

	newHash, err := hashPassword(req.NewPassword)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := time.Now().UTC()
	if claims.Role == models.RoleStudent {
		err = s.students.UpdatePassword(ctx, claims.PrincipalID, newHash, now)
	} else {
		err = s.employees.UpdatePassword(ctx, claims.PrincipalID, newHash, now)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// ValidateToken parses an access token, verifies signature, expiry, and the
// revocation denylist, and returns the claims.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("session denylist check failed", zap.Error(err))
	} else if revoked {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session has been revoked")
	}

	return claims, nil
}

func (s *AuthService) issue(info models.PrincipalInfo) (*models.LoginResponse, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		PrincipalID: info.ID,
		Role:        info.Role,
		Name:        info.Name,
		Email:       info.Email,
		Designation: info.Designation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   info.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.Expiration.Seconds()),
		IssuedAt:    issuedAt,
		Principal:   info,
	}, nil
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
