package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sparc-center/sparc-api/internal/models"
	"github.com/sparc-center/sparc-api/internal/service"
	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
	"github.com/sparc-center/sparc-api/pkg/response"
)

// ScoreCardHandler records skill assessments.
type ScoreCardHandler struct {
	scorecards *service.ScoreCardService
}

// NewScoreCardHandler constructs a ScoreCardHandler instance.
func NewScoreCardHandler(scorecards *service.ScoreCardService) *ScoreCardHandler {
	return &ScoreCardHandler{scorecards: scorecards}
}

// Create handles POST /scorecards.
func (h *ScoreCardHandler) Create(c *gin.Context) {
	var req models.CreateScoreCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	card, err := h.scorecards.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, card, "score recorded")
}
