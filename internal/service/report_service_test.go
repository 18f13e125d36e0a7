package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradehub/gradebook-api/internal/models"
	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
)

func (m *mockAverageRepo) SubjectAveragesByGradebook(ctx context.Context, gradebookID string) (map[string]*float64, error) {
	result := make(map[string]*float64)
	prefix := gradebookID + "|"
	for key, avg := range m.subject {
		if strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = avg
		}
	}
	return result, nil
}

type mockReportStore struct {
	rows []*models.ReportRow
}

func (m *mockReportStore) UpsertClassReport(ctx context.Context, row *models.ReportRow) error {
	m.rows = append(m.rows, row)
	return nil
}

func (m *mockReportStore) FindClassReport(ctx context.Context, semesterID, academicYearID, classID string) (*models.ReportRow, error) {
	for _, row := range m.rows {
		if row.SemesterID == semesterID && row.AcademicYearID == academicYearID && row.ClassID == classID {
			return row, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockReportRoster struct {
	rosters map[string][]models.EnrollmentDetail
}

func (m *mockReportRoster) ListDetailByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.EnrollmentDetail, error) {
	return m.rosters[classID+"|"+semesterID], nil
}

func (m *mockReportRoster) CountByClassAndSemester(ctx context.Context, classID, semesterID string) (int, error) {
	return len(m.rosters[classID+"|"+semesterID]), nil
}

type mockCatalog struct {
	classes   map[string]*models.Class
	semesters map[string]*models.Semester
	subjects  map[string]*models.Subject
	years     map[string]*models.AcademicYear
}

func (m *mockCatalog) FindClass(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalog) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalog) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalog) FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	if y, ok := m.years[id]; ok {
		return y, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalog) ListClassesByYear(ctx context.Context, academicYearID string) ([]models.Class, error) {
	var list []models.Class
	for _, c := range m.classes {
		if c.AcademicYearID == academicYearID {
			list = append(list, *c)
		}
	}
	return list, nil
}

type reportFixture struct {
	gradebooks *mockGradebookRepo
	averages   *mockAverageRepo
	store      *mockReportStore
	roster     *mockReportRoster
	catalog    *mockCatalog
	weights    *mockWeightReader
	svc        *ReportService
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		gradebooks: &mockGradebookRepo{gradebooks: []models.Gradebook{
			{ID: "gb-sub-math", ClassID: "class-1", SemesterID: "sem-1", SubjectID: "sub-math"},
		}},
		averages: &mockAverageRepo{
			subject: map[string]*float64{
				"gb-sub-math|stu-1": ptrFloat(7),
				"gb-sub-math|stu-2": ptrFloat(4),
				"gb-sub-math|stu-3": nil,
			},
			semester: map[string]*float64{
				"class-1|stu-1|sem-1": ptrFloat(6),
				"class-1|stu-2|sem-1": nil,
			},
		},
		store: &mockReportStore{},
		roster: &mockReportRoster{rosters: map[string][]models.EnrollmentDetail{
			"class-1|sem-1": {
				{Enrollment: models.Enrollment{ID: "enr-1", StudentID: "stu-1", ClassID: "class-1", SemesterID: "sem-1"}, StudentName: "An Nguyen"},
				{Enrollment: models.Enrollment{ID: "enr-2", StudentID: "stu-2", ClassID: "class-1", SemesterID: "sem-1"}, StudentName: "Binh Tran"},
			},
		}},
		catalog: &mockCatalog{
			classes: map[string]*models.Class{
				"class-1": {ID: "class-1", Name: "10A1", AcademicYearID: "year-1"},
				"class-2": {ID: "class-2", Name: "10A2", AcademicYearID: "year-1"},
				"class-3": {ID: "class-3", Name: "11C1", AcademicYearID: "year-2"},
			},
			semesters: map[string]*models.Semester{
				"sem-1": {ID: "sem-1", Name: "Semester 1", AcademicYearID: "year-1"},
			},
			subjects: map[string]*models.Subject{
				"sub-math": {ID: "sub-math", Name: "Mathematics"},
			},
			years: map[string]*models.AcademicYear{
				"year-1": {ID: "year-1", Name: "2025-2026"},
				"year-2": {ID: "year-2", Name: "2026-2027"},
			},
		},
		weights: &mockWeightReader{},
	}
	cacheSvc := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	f.svc = NewReportService(f.gradebooks, f.averages, f.store, f.roster, f.catalog, f.weights,
		cacheSvc, nil, zap.NewNop(), 0, 5, 45)
	return f
}

func TestClassSemesterReportPassRate(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.ClassSemesterReport(context.Background(), "sem-1", "year-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "10A1", report.ClassName)
	assert.Equal(t, 2, report.TotalStudents)
	assert.Equal(t, 1, report.PassCount)
	assert.Equal(t, 50.0, report.PassRate)

	require.Len(t, f.store.rows, 1)
	assert.Equal(t, 2, f.store.rows[0].TotalStudents)
	assert.Equal(t, 1, f.store.rows[0].PassCount)
}

func TestClassSemesterReportServesPersistedRow(t *testing.T) {
	f := newReportFixture()
	f.store.rows = []*models.ReportRow{{
		SemesterID:     "sem-1",
		AcademicYearID: "year-1",
		ClassID:        "class-1",
		TotalStudents:  30,
		PassCount:      27,
		PassRate:       90.0,
	}}

	report, err := f.svc.ClassSemesterReport(context.Background(), "sem-1", "year-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "10A1", report.ClassName)
	assert.Equal(t, 30, report.TotalStudents)
	assert.Equal(t, 27, report.PassCount)
	assert.Equal(t, 90.0, report.PassRate)

	// Served straight from the stored row, no recompute and no rewrite.
	assert.Len(t, f.store.rows, 1)
}

func TestClassSemesterReportEmptyClass(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.ClassSemesterReport(context.Background(), "sem-1", "year-1", "class-2")
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalStudents)
	assert.Equal(t, 0, report.PassCount)
	assert.Equal(t, 0.0, report.PassRate)
}

func TestClassSemesterReportRejectsForeignClass(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.ClassSemesterReport(context.Background(), "sem-1", "year-1", "class-3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectReportSkipsClassesWithoutGradebook(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.SubjectReport(context.Background(), "sub-math", "sem-1", "year-1")
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", report.SubjectName)
	require.Len(t, report.Classes, 1)
	assert.Equal(t, "class-1", report.Classes[0].ClassID)
	// stu-3 has no scores in the gradebook and stays out of the total.
	assert.Equal(t, 2, report.Classes[0].TotalStudents)
	assert.Equal(t, 1, report.Classes[0].PassCount)
	assert.Equal(t, 50.0, report.Classes[0].PassRate)
	assert.Equal(t, 50.0, report.PassRate)
}

func TestSubjectReportUnknownSubject(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.SubjectReport(context.Background(), "sub-404", "sem-1", "year-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportClassReportCSV(t *testing.T) {
	f := newReportFixture()

	exported, err := f.svc.ExportClassReport(context.Background(), "sem-1", "year-1", "class-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", exported.ContentType)
	assert.True(t, strings.HasSuffix(exported.Filename, ".csv"))

	body := string(exported.Content)
	assert.Contains(t, body, "An Nguyen")
	assert.Contains(t, body, "Binh Tran")
	assert.Contains(t, body, "6.00")
	assert.Contains(t, body, "unclassified")
	assert.Contains(t, body, "TOTAL")
}

func TestExportClassReportPDF(t *testing.T) {
	f := newReportFixture()

	exported, err := f.svc.ExportClassReport(context.Background(), "sem-1", "year-1", "class-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", exported.ContentType)
	assert.True(t, strings.HasPrefix(string(exported.Content), "%PDF"))
}

func TestExportClassReportRejectsUnknownFormat(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.ExportClassReport(context.Background(), "sem-1", "year-1", "class-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
