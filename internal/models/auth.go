package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EmployeeLoginRequest authenticates an employee or admin by email.
type EmployeeLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StudentLoginRequest authenticates a student by their studentID.
type StudentLoginRequest struct {
	StudentCode string `json:"studentId" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and principal info. The same token is
// also set as an http-only cookie.
type LoginResponse struct {
	AccessToken string        `json:"accessToken"`
	ExpiresIn   int64         `json:"expiresIn"`
	IssuedAt    time.Time     `json:"issuedAt"`
	Principal   PrincipalInfo `json:"principal"`
}

// PrincipalInfo describes the authenticated principal in responses.
type PrincipalInfo struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role"`
	Designation string `json:"designation,omitempty"`
}

// ChangePasswordRequest updates the caller's own credential.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// JWTClaims is the access-token payload. The designation label is denormalised
// so downstream authorization never re-reads the employee record. The
// RegisteredClaims ID (jti) keys the server-side revocation denylist.
type JWTClaims struct {
	PrincipalID string `json:"principal_id"`
	Role        Role   `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Designation string `json:"designation,omitempty"`
	jwt.RegisteredClaims
}
