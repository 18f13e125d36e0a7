package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradehub/gradebook-api/internal/service"
	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
	"github.com/gradehub/gradebook-api/pkg/response"
)

// GradebookHandler exposes score entry and recompute endpoints.
type GradebookHandler struct {
	gradebooks *service.GradebookService
	recompute  *service.RecomputeService
}

// NewGradebookHandler constructs handler.
func NewGradebookHandler(gradebooks *service.GradebookService, recompute *service.RecomputeService) *GradebookHandler {
	return &GradebookHandler{gradebooks: gradebooks, recompute: recompute}
}

// EnterScores godoc
// @Summary Enter a batch of scores
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param payload body service.EnterScoresRequest true "Score batch"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/entries [post]
func (h *GradebookHandler) EnterScores(c *gin.Context) {
	var req service.EnterScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.gradebooks.EnterScores(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

type recomputeRequest struct {
	ClassID    string `json:"class_id"`
	SemesterID string `json:"semester_id"`
}

// Recompute godoc
// @Summary Schedule a full scope recomputation
// @Tags Gradebooks
// @Accept json
// @Produce json
// @Param payload body recomputeRequest true "Scope"
// @Success 202 {object} response.Envelope
// @Router /gradebooks/recompute [post]
func (h *GradebookHandler) Recompute(c *gin.Context) {
	var req recomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	jobID, err := h.recompute.Enqueue(req.ClassID, req.SemesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"job_id": jobID})
}
