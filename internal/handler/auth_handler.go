package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sparc-center/sparc-api/internal/middleware"
	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/service"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/response"
)

// CookieOptions controls the session cookie set alongside the token body.
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler exposes login and logout for the three principal kinds. The
// token is returned in the body and duplicated as an http-only cookie so both
// API clients and browsers work without special cases.
type AuthHandler struct {
	auth   *service.AuthService
	cookie CookieOptions
}

// NewAuthHandler constructs an AuthHandler instance.
func NewAuthHandler(auth *service.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// StudentLogin handles POST /students/login.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req models.StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.auth.LoginStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, result.AccessToken)
	response.JSON(c, http.StatusOK, result, "login successful")
}

// EmployeeLogin handles POST /employees/login.
func (h *AuthHandler) EmployeeLogin(c *gin.Context) {
	var req models.EmployeeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.auth.LoginEmployee(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, result.AccessToken)
	response.JSON(c, http.StatusOK, result, "login successful")
}

// AdminLogin handles POST /admin/login.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req models.EmployeeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.auth.LoginAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, result.AccessToken)
	response.JSON(c, http.StatusOK, result, "login successful")
}

// Logout handles POST /{students,employees,admin}/logout. The token is
// denylisted server-side and the cookie cleared.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.Claims(c)
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	h.clearSessionCookie(c)
	response.JSON(c, http.StatusOK, nil, "logged out")
}

// ChangePassword handles POST /auth/change-password for any principal.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), middleware.Claims(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nil, "password updated")
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	if h.cookie.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	if h.cookie.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
