package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gradehub/gradebook-api/internal/models"
	"github.com/gradehub/gradebook-api/internal/service"
	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
)

type reportServiceMock struct {
	classResp  *models.ClassSemesterReport
	classErr   error
	subjResp   *models.SubjectReport
	subjErr    error
	exported   *service.ExportedReport
	exportErr  error
	lastFormat string
}

func (m *reportServiceMock) ClassSemesterReport(ctx context.Context, semesterID, academicYearID, classID string) (*models.ClassSemesterReport, error) {
	return m.classResp, m.classErr
}

func (m *reportServiceMock) SubjectReport(ctx context.Context, subjectID, semesterID, academicYearID string) (*models.SubjectReport, error) {
	return m.subjResp, m.subjErr
}

func (m *reportServiceMock) ExportClassReport(ctx context.Context, semesterID, academicYearID, classID, format string) (*service.ExportedReport, error) {
	m.lastFormat = format
	return m.exported, m.exportErr
}

func newGinContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, nil)
	c.Request = req
	return c, w
}

func TestReportHandlerClassSemester(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{
		classResp: &models.ClassSemesterReport{ClassID: "class-1", TotalStudents: 2, PassCount: 1, PassRate: 50.0},
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/semester-class?semesterId=sem-1&academicYearId=year-1&classId=class-1")
	handler.ClassSemester(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.ClassSemesterReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 50.0, envelope.Data.PassRate)
}

func TestReportHandlerClassSemesterMissingParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/semester-class?semesterId=sem-1")
	handler.ClassSemester(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerSubjectNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{subjErr: appErrors.Clone(appErrors.ErrNotFound, "subject not found")}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/subject?subjectId=sub-404&semesterId=sem-1&academicYearId=year-1")
	handler.Subject(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerExportDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{
		exported: &service.ExportedReport{Content: []byte("a,b\n"), ContentType: "text/csv", Filename: "report.csv"},
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/semester-class/export?semesterId=sem-1&academicYearId=year-1&classId=class-1")
	handler.ExportClassSemester(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, service.ExportFormatCSV, mockSvc.lastFormat)
	require.Contains(t, w.Header().Get("Content-Disposition"), "report.csv")
}
