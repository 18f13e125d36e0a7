package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradehub/gradebook-api/internal/models"
	"github.com/gradehub/gradebook-api/internal/service"
	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
	"github.com/gradehub/gradebook-api/pkg/response"
)

// ReportService is the reporting surface the handler depends on.
type ReportService interface {
	ClassSemesterReport(ctx context.Context, semesterID, academicYearID, classID string) (*models.ClassSemesterReport, error)
	SubjectReport(ctx context.Context, subjectID, semesterID, academicYearID string) (*models.SubjectReport, error)
	ExportClassReport(ctx context.Context, semesterID, academicYearID, classID, format string) (*service.ExportedReport, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ClassSemester godoc
// @Summary Class pass rate report for a semester
// @Tags Reports
// @Produce json
// @Param semesterId query string true "Semester ID"
// @Param academicYearId query string true "Academic year ID"
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /reports/semester-class [get]
func (h *ReportHandler) ClassSemester(c *gin.Context) {
	semesterID := c.Query("semesterId")
	academicYearID := c.Query("academicYearId")
	classID := c.Query("classId")
	if semesterID == "" || academicYearID == "" || classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semesterId, academicYearId and classId required"))
		return
	}
	report, err := h.reports.ClassSemesterReport(c.Request.Context(), semesterID, academicYearID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Subject godoc
// @Summary Subject pass rate report across classes
// @Tags Reports
// @Produce json
// @Param subjectId query string true "Subject ID"
// @Param semesterId query string true "Semester ID"
// @Param academicYearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /reports/subject [get]
func (h *ReportHandler) Subject(c *gin.Context) {
	subjectID := c.Query("subjectId")
	semesterID := c.Query("semesterId")
	academicYearID := c.Query("academicYearId")
	if subjectID == "" || semesterID == "" || academicYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId, semesterId and academicYearId required"))
		return
	}
	report, err := h.reports.SubjectReport(c.Request.Context(), subjectID, semesterID, academicYearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// ExportClassSemester godoc
// @Summary Export a class semester report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param semesterId query string true "Semester ID"
// @Param academicYearId query string true "Academic year ID"
// @Param classId query string true "Class ID"
// @Param format query string true "Export format" Enums(csv, pdf)
// @Success 200 {file} binary
// @Router /reports/semester-class/export [get]
func (h *ReportHandler) ExportClassSemester(c *gin.Context) {
	semesterID := c.Query("semesterId")
	academicYearID := c.Query("academicYearId")
	classID := c.Query("classId")
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	if semesterID == "" || academicYearID == "" || classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semesterId, academicYearId and classId required"))
		return
	}
	exported, err := h.reports.ExportClassReport(c.Request.Context(), semesterID, academicYearID, classID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exported.Filename))
	c.Data(http.StatusOK, exported.ContentType, exported.Content)
}
