package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparc-center/sparc-api/internal/middleware"
	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/service"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/response"
)

// EnrollmentHandler exposes enrollment creation and the two roster views.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	scorecards  *service.ScoreCardService
}

// NewEnrollmentHandler constructs an EnrollmentHandler instance.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, scorecards *service.ScoreCardService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, scorecards: scorecards}
}

// Create handles POST /enrollments.
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req models.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment, "student enrolled")
}

// ListMine handles GET /enrollments/mine for educators.
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	enrollments, err := h.enrollments.ListMine(c.Request.Context(), middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, "")
}

// ListAll handles GET /enrollments for the admin roster.
func (h *EnrollmentHandler) ListAll(c *gin.Context) {
	enrollments, err := h.enrollments.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, "")
}

// Get handles GET /enrollments/:id.
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, "")
}

// ScoreContext handles GET /enrollments/:id/context; it returns everything a
// scoring form needs to render.
func (h *EnrollmentHandler) ScoreContext(c *gin.Context) {
	context, err := h.scorecards.Context(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, context, "")
}

// Scores handles GET /enrollments/:id/scorecards.
func (h *EnrollmentHandler) Scores(c *gin.Context) {
	cards, err := h.scorecards.ListByEnrollment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards, "")
}
