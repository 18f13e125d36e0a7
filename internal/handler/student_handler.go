package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradehub/gradebook-api/internal/service"
	"github.com/gradehub/gradebook-api/pkg/response"
)

// StudentHandler exposes the student score sheet endpoint.
type StudentHandler struct {
	gradebooks *service.GradebookService
}

// NewStudentHandler constructs handler.
func NewStudentHandler(gradebooks *service.GradebookService) *StudentHandler {
	return &StudentHandler{gradebooks: gradebooks}
}

// Scores godoc
// @Summary Student score sheets, one per enrollment
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Param semesterId query string false "Limit sheets to one semester"
// @Param classId query string false "Limit sheets to one class"
// @Param subjectId query string false "Limit each sheet to one subject"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/scores [get]
func (h *StudentHandler) Scores(c *gin.Context) {
	sheets, err := h.gradebooks.StudentScores(c.Request.Context(), c.Param("studentId"), c.Query("classId"), c.Query("semesterId"), c.Query("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, map[string]interface{}{"count": len(sheets)})
}
