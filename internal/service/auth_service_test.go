package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparc-center/sparc-api/internal/models"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

type fakeStudentAuthRepo struct {
	student     *models.Student
	findErr     error
	updatedHash string
}

func (f *fakeStudentAuthRepo) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.student, nil
}

func (f *fakeStudentAuthRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.student, nil
}

func (f *fakeStudentAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	f.updatedHash = passwordHash
	return nil
}

type fakeEmployeeAuthRepo struct {
	detail      *models.EmployeeDetail
	findErr     error
	updatedHash string
}

func (f *fakeEmployeeAuthRepo) FindDetailByEmail(ctx context.Context, email string) (*models.EmployeeDetail, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.detail, nil
}

func (f *fakeEmployeeAuthRepo) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return &f.detail.Employee, nil
}

func (f *fakeEmployeeAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	f.updatedHash = passwordHash
	return nil
}

type fakeSessionStore struct {
	revoked map[string]bool
	lastTTL time.Duration
}

func (f *fakeSessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if f.revoked == nil {
		f.revoked = make(map[string]bool)
	}
	f.revoked[tokenID] = true
	f.lastTTL = ttl
	return nil
}

func (f *fakeSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], nil
}

func hashFor(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(students *fakeStudentAuthRepo, employees *fakeEmployeeAuthRepo, sessions *fakeSessionStore) *AuthService {
	if students == nil {
		students = &fakeStudentAuthRepo{}
	}
	if employees == nil {
		employees = &fakeEmployeeAuthRepo{}
	}
	if sessions == nil {
		sessions = &fakeSessionStore{}
	}
	return NewAuthService(students, employees, sessions, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "secret",
		Expiration: time.Hour,
		Issuer:     "test",
	})
}

func TestStudentLoginSuccess(t *testing.T) {
	students := &fakeStudentAuthRepo{student: &models.Student{
		ID:           "s1",
		StudentCode:  "STU-0001",
		FirstName:    "Asha",
		LastName:     "Rao",
		PasswordHash: hashFor(t, "password"),
		Status:       models.PrincipalStatusActive,
	}}
	svc := newTestAuthService(students, nil, nil)

	res, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{StudentCode: "STU-0001", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleStudent, res.Principal.Role)
	assert.Equal(t, "Asha Rao", res.Principal.Name)

	claims, err := svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.PrincipalID)
	assert.NotEmpty(t, claims.ID)
}

func TestStudentLoginWrongPassword(t *testing.T) {
	students := &fakeStudentAuthRepo{student: &models.Student{
		ID:           "s1",
		StudentCode:  "STU-0001",
		PasswordHash: hashFor(t, "password"),
		Status:       models.PrincipalStatusActive,
	}}
	svc := newTestAuthService(students, nil, nil)

	_, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{StudentCode: "STU-0001", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestStudentLoginUnknownCode(t *testing.T) {
	students := &fakeStudentAuthRepo{findErr: sql.ErrNoRows}
	svc := newTestAuthService(students, nil, nil)

	_, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{StudentCode: "STU-9999", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentLoginInactive(t *testing.T) {
	students := &fakeStudentAuthRepo{student: &models.Student{
		ID:           "s1",
		StudentCode:  "STU-0001",
		PasswordHash: hashFor(t, "password"),
		Status:       models.PrincipalStatusInactive,
	}}
	svc := newTestAuthService(students, nil, nil)

	_, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{StudentCode: "STU-0001", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestEmployeeLoginResolvesAdminRole(t *testing.T) {
	adminTitle := models.AdminDesignationTitle
	employees := &fakeEmployeeAuthRepo{detail: &models.EmployeeDetail{
		Employee: models.Employee{
			ID:           "e1",
			EmployeeCode: "EMP-25-0001",
			Email:        "admin@example.com",
			PasswordHash: hashFor(t, "password"),
			Status:       models.PrincipalStatusActive,
		},
		DesignationTitle: &adminTitle,
	}}
	svc := newTestAuthService(nil, employees, nil)

	res, err := svc.LoginEmployee(context.Background(), models.EmployeeLoginRequest{Email: "admin@example.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Principal.Role)
	assert.Equal(t, adminTitle, res.Principal.Designation)
}

func TestAdminLoginRequiresAdminDesignation(t *testing.T) {
	title := "Special Educator"
	employees := &fakeEmployeeAuthRepo{detail: &models.EmployeeDetail{
		Employee: models.Employee{
			ID:           "e1",
			Email:        "educator@example.com",
			PasswordHash: hashFor(t, "password"),
			Status:       models.PrincipalStatusActive,
		},
		DesignationTitle: &title,
	}}
	svc := newTestAuthService(nil, employees, nil)

	_, err := svc.LoginAdmin(context.Background(), models.EmployeeLoginRequest{Email: "educator@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	res, err := svc.LoginEmployee(context.Background(), models.EmployeeLoginRequest{Email: "educator@example.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, res.Principal.Role)
}

func TestLogoutRevokesToken(t *testing.T) {
	students := &fakeStudentAuthRepo{student: &models.Student{
		ID:           "s1",
		StudentCode:  "STU-0001",
		PasswordHash: hashFor(t, "password"),
		Status:       models.PrincipalStatusActive,
	}}
	sessions := &fakeSessionStore{}
	svc := newTestAuthService(students, nil, sessions)

	res, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{StudentCode: "STU-0001", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))
	assert.True(t, sessions.revoked[claims.ID])
	assert.Greater(t, sessions.lastTTL, time.Duration(0))

	_, err = svc.ValidateToken(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := newTestAuthService(nil, nil, nil)
	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordWrongOld(t *testing.T) {
	title := "Special Educator"
	employees := &fakeEmployeeAuthRepo{detail: &models.EmployeeDetail{
		Employee: models.Employee{
			ID:           "e1",
			Email:        "educator@example.com",
			PasswordHash: hashFor(t, "password"),
			Status:       models.PrincipalStatusActive,
		},
		DesignationTitle: &title,
	}}
	svc := newTestAuthService(nil, employees, nil)

	claims := &models.JWTClaims{PrincipalID: "e1", Role: models.RoleEmployee}
	err := svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "next-secret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Empty(t, employees.updatedHash)
}

func TestChangePasswordUpdatesHash(t *testing.T) {
	students := &fakeStudentAuthRepo{student: &models.Student{
		ID:           "s1",
		PasswordHash: hashFor(t, "password"),
		Status:       models.PrincipalStatusActive,
	}}
	svc := newTestAuthService(students, nil, nil)

	claims := &models.JWTClaims{PrincipalID: "s1", Role: models.RoleStudent}
	err := svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{OldPassword: "password", NewPassword: "next-secret"})
	require.NoError(t, err)
	require.NotEmpty(t, students.updatedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(students.updatedHash), []byte("next-secret")))
}
