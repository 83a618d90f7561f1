package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/service"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/response"
)

// EmployeeHandler exposes staff onboarding and lookup.
type EmployeeHandler struct {
	employees *service.EmployeeService
}

// NewEmployeeHandler constructs an EmployeeHandler instance.
func NewEmployeeHandler(employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// Create handles POST /employees.
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req models.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	employee, err := h.employees.Onboard(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee, "employee created")
}

// Get handles GET /employees/:id.
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, "")
}
