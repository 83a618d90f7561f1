package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparc-center/sparc-api/internal/middleware"
	"github.com/sparc-center/sparc-api/internal/service"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/response"
)

// ReportHandler exposes the async progress-report pipeline: request, poll,
// download.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs a ReportHandler instance.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Request handles POST /students/:id/reports.
func (h *ReportHandler) Request(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.reports.Request(c.Request.Context(), c.Param("id"), claims.PrincipalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, "report generation queued")
}

// Status handles GET /reports/:id.
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.reports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, "")
}

// Download handles GET /reports/download?token=. The signed token is the only
// credential; the route carries no auth middleware.
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}
	file, filename, err := h.reports.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/pdf")
	c.File(file.Name())
}
