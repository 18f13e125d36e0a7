package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gradehub/gradebook-api/internal/models"
	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
	"github.com/gradehub/gradebook-api/pkg/export"
)

type gradebookFinder interface {
	FindByScope(ctx context.Context, classID, semesterID, subjectID string) (*models.Gradebook, error)
}

type averageReader interface {
	SubjectAveragesByGradebook(ctx context.Context, gradebookID string) (map[string]*float64, error)
	SemesterAveragesByClass(ctx context.Context, classID, semesterID string) (map[string]*float64, error)
}

type reportStore interface {
	UpsertClassReport(ctx context.Context, row *models.ReportRow) error
	FindClassReport(ctx context.Context, semesterID, academicYearID, classID string) (*models.ReportRow, error)
}

type reportRosterReader interface {
	ListDetailByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.EnrollmentDetail, error)
	CountByClassAndSemester(ctx context.Context, classID, semesterID string) (int, error)
}

type catalogReader interface {
	FindClass(ctx context.Context, id string) (*models.Class, error)
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
	FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error)
	ListClassesByYear(ctx context.Context, academicYearID string) ([]models.Class, error)
}

type paramsReader interface {
	ParametersByYear(ctx context.Context, academicYearID string) (*models.GradeParameters, error)
}

// ExportFormat identifies a supported report export encoding.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportedReport carries a rendered report document.
type ExportedReport struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ReportService builds semester and subject pass rate reports.
type ReportService struct {
	gradebooks gradebookFinder
	averages   averageReader
	reports    reportStore
	roster     reportRosterReader
	catalog    catalogReader
	params     paramsReader
	cache      *CacheService
	metrics    *MetricsService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
	cacheTTL   time.Duration

	defaultPassMark     float64
	defaultMaxClassSize int
}

// NewReportService constructs ReportService.
func NewReportService(gradebooks gradebookFinder, averages averageReader, reports reportStore, roster reportRosterReader, catalog catalogReader, params paramsReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration, defaultPassMark float64, defaultMaxClassSize int) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		gradebooks:          gradebooks,
		averages:            averages,
		reports:             reports,
		roster:              roster,
		catalog:             catalog,
		params:              params,
		cache:               cache,
		metrics:             metrics,
		csv:                 export.NewCSVExporter(),
		pdf:                 export.NewPDFExporter(),
		logger:              logger,
		cacheTTL:            cacheTTL,
		defaultPassMark:     defaultPassMark,
		defaultMaxClassSize: defaultMaxClassSize,
	}
}

// ClassSemesterReport returns the pass rate aggregate for one class in one
// semester. Students without a semester average count toward the total but
// never toward the pass count.
func (s *ReportService) ClassSemesterReport(ctx context.Context, semesterID, academicYearID, classID string) (*models.ClassSemesterReport, error) {
	class, err := s.resolveClassScope(ctx, semesterID, academicYearID, classID)
	if err != nil {
		return nil, err
	}

	cacheKey := ClassReportKey(semesterID, academicYearID, classID)
	var cached models.ClassSemesterReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		if s.metrics != nil {
			s.metrics.RecordReportServed("class")
		}
		return &cached, nil
	}

	// Persisted rows survive cache restarts; score entry deletes them for
	// the scope, so a surviving row is still current.
	if row, err := s.reports.FindClassReport(ctx, semesterID, academicYearID, classID); err == nil {
		report := &models.ClassSemesterReport{
			SemesterID:     row.SemesterID,
			AcademicYearID: row.AcademicYearID,
			ClassID:        row.ClassID,
			ClassName:      class.Name,
			TotalStudents:  row.TotalStudents,
			PassCount:      row.PassCount,
			PassRate:       row.PassRate,
		}
		_ = s.cache.Set(ctx, cacheKey, report, s.cacheTTL)
		if s.metrics != nil {
			s.metrics.RecordReportServed("class")
		}
		return report, nil
	} else if err != sql.ErrNoRows {
		s.logger.Warn("report row lookup failed",
			zap.String("class_id", classID),
			zap.String("semester_id", semesterID),
			zap.Error(err))
	}

	total, err := s.roster.CountByClassAndSemester(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count roster")
	}
	averages, err := s.averages.SemesterAveragesByClass(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester averages")
	}
	params, err := s.gradeParams(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	passCount := 0
	for _, average := range averages {
		if PassesSemester(average, params) {
			passCount++
		}
	}

	report := &models.ClassSemesterReport{
		SemesterID:     semesterID,
		AcademicYearID: academicYearID,
		ClassID:        classID,
		ClassName:      class.Name,
		TotalStudents:  total,
		PassCount:      passCount,
		PassRate:       PassRate(passCount, total),
	}

	// The DB row is a rebuildable snapshot; a write failure downgrades to a
	// warning rather than failing the read path.
	row := &models.ReportRow{
		SemesterID:     semesterID,
		AcademicYearID: academicYearID,
		ClassID:        classID,
		TotalStudents:  report.TotalStudents,
		PassCount:      report.PassCount,
		PassRate:       report.PassRate,
	}
	if err := s.reports.UpsertClassReport(ctx, row); err != nil {
		s.logger.Warn("report row persist failed",
			zap.String("class_id", classID),
			zap.String("semester_id", semesterID),
			zap.Error(err))
	}

	_ = s.cache.Set(ctx, cacheKey, report, s.cacheTTL)
	if s.metrics != nil {
		s.metrics.RecordReportServed("class")
	}
	return report, nil
}

// SubjectReport aggregates a subject's pass rates across every class of an
// academic year. Classes without a gradebook for the subject are omitted.
func (s *ReportService) SubjectReport(ctx context.Context, subjectID, semesterID, academicYearID string) (*models.SubjectReport, error) {
	if subjectID == "" || semesterID == "" || academicYearID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject, semester and academic year required")
	}
	subject, err := s.catalog.FindSubject(ctx, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	semester, err := s.catalog.FindSemester(ctx, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if semester.AcademicYearID != academicYearID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester not part of academic year")
	}

	cacheKey := SubjectReportKey(subjectID, semesterID, academicYearID)
	var cached models.SubjectReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		if s.metrics != nil {
			s.metrics.RecordReportServed("subject")
		}
		return &cached, nil
	}

	classes, err := s.catalog.ListClassesByYear(ctx, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	params, err := s.gradeParams(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	report := &models.SubjectReport{
		SubjectID:      subjectID,
		SubjectName:    subject.Name,
		SemesterID:     semesterID,
		AcademicYearID: academicYearID,
		Classes:        []models.SubjectClassBreakdown{},
	}
	for _, class := range classes {
		gradebook, err := s.gradebooks.FindByScope(ctx, class.ID, semesterID, subjectID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gradebook")
		}
		averages, err := s.averages.SubjectAveragesByGradebook(ctx, gradebook.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject averages")
		}
		// Students with no scores yet have a null average and do not count
		// toward the subject total, unlike the class semester report.
		total := 0
		passCount := 0
		for _, average := range averages {
			if average == nil {
				continue
			}
			total++
			if PassesSubject(average, params) {
				passCount++
			}
		}
		report.Classes = append(report.Classes, models.SubjectClassBreakdown{
			GradebookID:   gradebook.ID,
			ClassID:       class.ID,
			ClassName:     class.Name,
			TotalStudents: total,
			PassCount:     passCount,
			PassRate:      PassRate(passCount, total),
		})
		report.TotalStudents += total
		report.PassCount += passCount
	}
	report.PassRate = PassRate(report.PassCount, report.TotalStudents)

	_ = s.cache.Set(ctx, cacheKey, report, s.cacheTTL)
	if s.metrics != nil {
		s.metrics.RecordReportServed("subject")
	}
	return report, nil
}

// ExportClassReport renders a per-student class report as CSV or PDF.
func (s *ReportService) ExportClassReport(ctx context.Context, semesterID, academicYearID, classID, format string) (*ExportedReport, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	class, err := s.resolveClassScope(ctx, semesterID, academicYearID, classID)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.ListDetailByClassAndSemester(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	averages, err := s.averages.SemesterAveragesByClass(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester averages")
	}
	params, err := s.gradeParams(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Student ID", "Student", "Semester Average", "Band", "Passed"}
	rows := make([]map[string]string, 0, len(roster)+1)
	passCount := 0
	for _, enrollment := range roster {
		average := averages[enrollment.StudentID]
		passed := PassesSemester(average, params)
		if passed {
			passCount++
		}
		averageCell := ""
		if average != nil {
			averageCell = strconv.FormatFloat(*average, 'f', 2, 64)
		}
		rows = append(rows, map[string]string{
			"Student ID":       enrollment.StudentID,
			"Student":          enrollment.StudentName,
			"Semester Average": averageCell,
			"Band":             string(Classify(average, params)),
			"Passed":           strconv.FormatBool(passed),
		})
	}
	rows = append(rows, map[string]string{
		"Student ID": "TOTAL",
		"Student":    fmt.Sprintf("%d students", len(roster)),
		"Band":       fmt.Sprintf("pass rate %.2f%%", PassRate(passCount, len(roster))),
		"Passed":     strconv.Itoa(passCount),
	})

	dataset := export.Dataset{Headers: headers, Rows: rows}
	title := fmt.Sprintf("Semester report %s", class.Name)
	filename := fmt.Sprintf("class-report-%s-%s.%s", classID, semesterID, format)

	var content []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		content, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		content, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	if s.metrics != nil {
		s.metrics.RecordExport(format)
	}
	return &ExportedReport{Content: content, ContentType: contentType, Filename: filename}, nil
}

func (s *ReportService) resolveClassScope(ctx context.Context, semesterID, academicYearID, classID string) (*models.Class, error) {
	if semesterID == "" || academicYearID == "" || classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester, academic year and class required")
	}
	if _, err := s.catalog.FindAcademicYear(ctx, academicYearID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	semester, err := s.catalog.FindSemester(ctx, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	class, err := s.catalog.FindClass(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.AcademicYearID != academicYearID || semester.AcademicYearID != academicYearID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class or semester not part of academic year")
	}
	return class, nil
}

func (s *ReportService) gradeParams(ctx context.Context, academicYearID string) (models.GradeParameters, error) {
	params, err := s.params.ParametersByYear(ctx, academicYearID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DefaultGradeParameters(academicYearID, s.defaultPassMark, s.defaultMaxClassSize), nil
		}
		return models.GradeParameters{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade parameters")
	}
	return *params, nil
}
