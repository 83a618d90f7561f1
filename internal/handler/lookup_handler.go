package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparc-center/sparc-api/internal/service"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/response"
)

// LookupHandler serves the reference collections.
type LookupHandler struct {
	lookups *service.LookupService
}

// NewLookupHandler constructs a LookupHandler instance.
func NewLookupHandler(lookups *service.LookupService) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

// ListPrograms handles GET /programs.
func (h *LookupHandler) ListPrograms(c *gin.Context) {
	programs, err := h.lookups.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, "")
}

// CreateProgram handles POST /programs.
func (h *LookupHandler) CreateProgram(c *gin.Context) {
	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	program, err := h.lookups.CreateProgram(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program, "program created")
}

// ListDesignations handles GET /designations.
func (h *LookupHandler) ListDesignations(c *gin.Context) {
	designations, err := h.lookups.ListDesignations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, designations, "")
}

// CreateDesignation handles POST /designations.
func (h *LookupHandler) CreateDesignation(c *gin.Context) {
	var req service.CreateNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	designation, err := h.lookups.CreateDesignation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, designation, "designation created")
}

// ListDepartments handles GET /departments.
func (h *LookupHandler) ListDepartments(c *gin.Context) {
	departments, err := h.lookups.ListDepartments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, "")
}

// CreateDepartment handles POST /departments.
func (h *LookupHandler) CreateDepartment(c *gin.Context) {
	var req service.CreateNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	department, err := h.lookups.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department, "department created")
}

// ListDiagnoses handles GET /diagnoses.
func (h *LookupHandler) ListDiagnoses(c *gin.Context) {
	diagnoses, err := h.lookups.ListDiagnoses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diagnoses, "")
}

// CreateDiagnosis handles POST /diagnoses.
func (h *LookupHandler) CreateDiagnosis(c *gin.Context) {
	var req service.CreateNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	diagnosis, err := h.lookups.CreateDiagnosis(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, diagnosis, "diagnosis created")
}
