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

// AppointmentHandler exposes the consultation request lifecycle.
type AppointmentHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentHandler constructs an AppointmentHandler instance.
func NewAppointmentHandler(appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// Create handles POST /appointments. The endpoint is public; parents submit
// consultation requests without an account.
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	appointment, err := h.appointments.Request(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appointment, "appointment requested")
}

// List handles GET /appointments?status=. Admins see everything; employees
// only their own assignments.
func (h *AppointmentHandler) List(c *gin.Context) {
	status := models.AppointmentStatus(c.Query("status"))
	appointments, err := h.appointments.List(c.Request.Context(), middleware.Claims(c), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, "")
}

// Get handles GET /appointments/:id.
func (h *AppointmentHandler) Get(c *gin.Context) {
	appointment, err := h.appointments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, "")
}

// Schedule handles PATCH /appointments/:id/schedule.
func (h *AppointmentHandler) Schedule(c *gin.Context) {
	var req models.ScheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	appointment, err := h.appointments.Schedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, "appointment scheduled")
}

// Update handles PATCH /appointments/:id.
func (h *AppointmentHandler) Update(c *gin.Context) {
	var req models.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	appointment, err := h.appointments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, "appointment updated")
}
