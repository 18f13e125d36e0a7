package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/gradehub/gradebook-api/internal/models"
	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
)

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type gradebookRepo interface {
	GetOrCreate(ctx context.Context, classID, semesterID, subjectID string, teacherID *string) (*models.Gradebook, error)
	FindByScope(ctx context.Context, classID, semesterID, subjectID string) (*models.Gradebook, error)
	ListByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.Gradebook, error)
	ListDetailByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.GradebookDetail, error)
}

type scoreRepo interface {
	UpsertTx(ctx context.Context, tx *sqlx.Tx, scores []models.RawScore) error
	FetchByGradebookTx(ctx context.Context, tx *sqlx.Tx, gradebookID string, studentIDs []string) (map[string][]models.RawScore, error)
	FetchForStudent(ctx context.Context, gradebookIDs []string, studentID string) (map[string][]models.RawScoreDetail, error)
}

type averageRepo interface {
	UpsertSubjectTx(ctx context.Context, tx *sqlx.Tx, averages []models.SubjectAverage) error
	SubjectAveragesForStudentTx(ctx context.Context, tx *sqlx.Tx, gradebookIDs []string, studentID string) (map[string]*float64, error)
	UpsertSemesterTx(ctx context.Context, tx *sqlx.Tx, averages []models.SemesterAverage) error
	SubjectAveragesForStudent(ctx context.Context, gradebookIDs []string, studentID string) (map[string]*float64, error)
	SemesterAveragesByClass(ctx context.Context, classID, semesterID string) (map[string]*float64, error)
}

type weightReader interface {
	TestTypeWeights(ctx context.Context) (map[string]models.TestTypeWeight, error)
	SubjectCoefficients(ctx context.Context) (map[string]models.SubjectCoefficient, error)
	ParametersByYear(ctx context.Context, academicYearID string) (*models.GradeParameters, error)
}

type rosterReader interface {
	ListByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID, semesterID string) ([]models.Enrollment, error)
}

type schoolReader interface {
	FindStudent(ctx context.Context, id string) (*models.Student, error)
	FindClass(ctx context.Context, id string) (*models.Class, error)
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
}

type reportInvalidator interface {
	DeleteByScope(ctx context.Context, semesterID, classID string) error
}

// ScoreEntry is a single score slot within an entry batch. A nil Value
// records the slot without a score.
type ScoreEntry struct {
	StudentID  string   `json:"student_id" validate:"required"`
	TestTypeID string   `json:"test_type_id" validate:"required"`
	Occurrence int      `json:"occurrence" validate:"required,min=1"`
	Value      *float64 `json:"value" validate:"omitempty,min=0,max=10"`
}

// EnterScoresRequest is a batch of scores for one class/semester/subject.
type EnterScoresRequest struct {
	ClassID    string       `json:"class_id" validate:"required"`
	SemesterID string       `json:"semester_id" validate:"required"`
	SubjectID  string       `json:"subject_id" validate:"required"`
	TeacherID  *string      `json:"teacher_id"`
	Entries    []ScoreEntry `json:"entries" validate:"required,min=1,dive"`
}

// EnterScoresResult reports what an entry batch changed.
type EnterScoresResult struct {
	GradebookID      string                   `json:"gradebook_id"`
	EntriesApplied   int                      `json:"entries_applied"`
	SubjectAverages  []models.SubjectAverage  `json:"subject_averages"`
	SemesterAverages []models.SemesterAverage `json:"semester_averages"`
}

// StudentScoreSheet is a student's full score view for one class/semester.
type StudentScoreSheet struct {
	StudentID       string                        `json:"student_id"`
	StudentName     string                        `json:"student_name"`
	ClassID         string                        `json:"class_id"`
	SemesterID      string                        `json:"semester_id"`
	Subjects        []models.StudentSubjectScores `json:"subjects"`
	SemesterAverage *float64                      `json:"semester_average"`
	Band            models.GradeBand              `json:"band"`
}

// GradebookService orchestrates score entry and average recomputation.
type GradebookService struct {
	db         txBeginner
	gradebooks gradebookRepo
	scores     scoreRepo
	averages   averageRepo
	weights    weightReader
	roster     rosterReader
	school     schoolReader
	reports    reportInvalidator
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger

	defaultPassMark     float64
	defaultMaxClassSize int
}

// NewGradebookService constructs GradebookService.
func NewGradebookService(db txBeginner, gradebooks gradebookRepo, scores scoreRepo, averages averageRepo, weights weightReader, roster rosterReader, school schoolReader, reports reportInvalidator, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultPassMark float64, defaultMaxClassSize int) *GradebookService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{
		db:                  db,
		gradebooks:          gradebooks,
		scores:              scores,
		averages:            averages,
		weights:             weights,
		roster:              roster,
		school:              school,
		reports:             reports,
		cache:               cache,
		metrics:             metrics,
		validator:           validate,
		logger:              logger,
		defaultPassMark:     defaultPassMark,
		defaultMaxClassSize: defaultMaxClassSize,
	}
}

// EnterScores applies a score batch and recomputes the affected students'
// subject and semester averages in a single transaction. Resubmitting the
// same batch is idempotent.
func (s *GradebookService) EnterScores(ctx context.Context, req EnterScoresRequest) (*EnterScoresResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score batch")
	}
	class, err := s.school.FindClass(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	semester, err := s.school.FindSemester(ctx, req.SemesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if class.AcademicYearID != semester.AcademicYearID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class and semester belong to different academic years")
	}
	if _, err := s.school.FindSubject(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	roster, err := s.roster.ListByClassAndSemester(ctx, req.ClassID, req.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	enrolled := make(map[string]bool, len(roster))
	for _, enrollment := range roster {
		enrolled[enrollment.StudentID] = true
	}
	for _, entry := range req.Entries {
		if !enrolled[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s not enrolled in class", entry.StudentID))
		}
	}

	weights, err := s.weights.TestTypeWeights(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test type weights")
	}
	coefficients, err := s.weights.SubjectCoefficients(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject coefficients")
	}

	gradebook, err := s.gradebooks.GetOrCreate(ctx, req.ClassID, req.SemesterID, req.SubjectID, req.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve gradebook")
	}
	scopeGradebooks, err := s.gradebooks.ListByClassAndSemester(ctx, req.ClassID, req.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gradebooks")
	}
	gradebookIDs := make([]string, 0, len(scopeGradebooks))
	subjectByGradebook := make(map[string]string, len(scopeGradebooks))
	for _, gb := range scopeGradebooks {
		gradebookIDs = append(gradebookIDs, gb.ID)
		subjectByGradebook[gb.ID] = gb.SubjectID
	}

	rawScores := make([]models.RawScore, 0, len(req.Entries))
	affected := make([]string, 0, len(req.Entries))
	seen := make(map[string]bool, len(req.Entries))
	for _, entry := range req.Entries {
		rawScores = append(rawScores, models.RawScore{
			GradebookID: gradebook.ID,
			StudentID:   entry.StudentID,
			TestTypeID:  entry.TestTypeID,
			Occurrence:  entry.Occurrence,
			Value:       entry.Value,
		})
		if !seen[entry.StudentID] {
			affected = append(affected, entry.StudentID)
			seen[entry.StudentID] = true
		}
	}
	// Deterministic order keeps row lock acquisition consistent across
	// concurrent batches.
	sort.Strings(affected)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.scores.UpsertTx(ctx, tx, rawScores); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scores")
	}

	scoresByStudent, err := s.scores.FetchByGradebookTx(ctx, tx, gradebook.ID, affected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload scores")
	}

	subjectAverages := make([]models.SubjectAverage, 0, len(affected))
	for _, studentID := range affected {
		subjectAverages = append(subjectAverages, models.SubjectAverage{
			GradebookID: gradebook.ID,
			StudentID:   studentID,
			Average:     SubjectAverage(scoresByStudent[studentID], weights),
		})
	}
	if err := s.averages.UpsertSubjectTx(ctx, tx, subjectAverages); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store subject averages")
	}

	semesterAverages := make([]models.SemesterAverage, 0, len(affected))
	for _, studentID := range affected {
		studentAverages, err := s.averages.SubjectAveragesForStudentTx(ctx, tx, gradebookIDs, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock subject averages")
		}
		semesterAverages = append(semesterAverages, models.SemesterAverage{
			ClassID:    req.ClassID,
			StudentID:  studentID,
			SemesterID: req.SemesterID,
			Average:    SemesterAverage(studentAverages, subjectByGradebook, coefficients),
		})
	}
	if err := s.averages.UpsertSemesterTx(ctx, tx, semesterAverages); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store semester averages")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit score batch")
	}

	if s.metrics != nil {
		s.metrics.RecordScoreEntries(len(rawScores))
		s.metrics.RecordRecompute(len(affected))
	}
	s.invalidateReports(ctx, req.SemesterID, req.ClassID, []string{req.SubjectID})

	return &EnterScoresResult{
		GradebookID:      gradebook.ID,
		EntriesApplied:   len(rawScores),
		SubjectAverages:  subjectAverages,
		SemesterAverages: semesterAverages,
	}, nil
}

// RecalculateScope rebuilds every enrolled student's subject and semester
// averages for a class/semester from raw scores.
func (s *GradebookService) RecalculateScope(ctx context.Context, classID, semesterID string) error {
	if classID == "" || semesterID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "class and semester required")
	}
	if _, err := s.school.FindClass(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	roster, err := s.roster.ListByClassAndSemester(ctx, classID, semesterID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if len(roster) == 0 {
		return nil
	}
	studentIDs := make([]string, 0, len(roster))
	for _, enrollment := range roster {
		studentIDs = append(studentIDs, enrollment.StudentID)
	}
	sort.Strings(studentIDs)

	gradebooks, err := s.gradebooks.ListByClassAndSemester(ctx, classID, semesterID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gradebooks")
	}
	gradebookIDs := make([]string, 0, len(gradebooks))
	subjectByGradebook := make(map[string]string, len(gradebooks))
	subjectIDs := make([]string, 0, len(gradebooks))
	for _, gb := range gradebooks {
		gradebookIDs = append(gradebookIDs, gb.ID)
		subjectByGradebook[gb.ID] = gb.SubjectID
		subjectIDs = append(subjectIDs, gb.SubjectID)
	}

	weights, err := s.weights.TestTypeWeights(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test type weights")
	}
	coefficients, err := s.weights.SubjectCoefficients(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject coefficients")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, gb := range gradebooks {
		scoresByStudent, err := s.scores.FetchByGradebookTx(ctx, tx, gb.ID, studentIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
		}
		subjectAverages := make([]models.SubjectAverage, 0, len(studentIDs))
		for _, studentID := range studentIDs {
			subjectAverages = append(subjectAverages, models.SubjectAverage{
				GradebookID: gb.ID,
				StudentID:   studentID,
				Average:     SubjectAverage(scoresByStudent[studentID], weights),
			})
		}
		if err := s.averages.UpsertSubjectTx(ctx, tx, subjectAverages); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store subject averages")
		}
	}

	semesterAverages := make([]models.SemesterAverage, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		studentAverages, err := s.averages.SubjectAveragesForStudentTx(ctx, tx, gradebookIDs, studentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock subject averages")
		}
		semesterAverages = append(semesterAverages, models.SemesterAverage{
			ClassID:    classID,
			StudentID:  studentID,
			SemesterID: semesterID,
			Average:    SemesterAverage(studentAverages, subjectByGradebook, coefficients),
		})
	}
	if err := s.averages.UpsertSemesterTx(ctx, tx, semesterAverages); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store semester averages")
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit recompute")
	}

	if s.metrics != nil {
		s.metrics.RecordRecompute(len(studentIDs))
	}
	s.invalidateReports(ctx, semesterID, classID, subjectIDs)
	s.logger.Info("scope recomputed",
		zap.String("class_id", classID),
		zap.String("semester_id", semesterID),
		zap.Int("students", len(studentIDs)),
		zap.Int("gradebooks", len(gradebooks)))
	return nil
}

// StudentScores assembles a student's per-subject details, derived averages
// and band, one sheet per enrollment. Empty semesterID spans every semester
// the student is enrolled in; classID and subjectID optionally narrow the
// result.
func (s *GradebookService) StudentScores(ctx context.Context, studentID, classID, semesterID, subjectID string) ([]StudentScoreSheet, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student required")
	}
	student, err := s.school.FindStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrollments, err := s.roster.ListByStudent(ctx, studentID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if classID != "" {
		filtered := enrollments[:0]
		for _, enrollment := range enrollments {
			if enrollment.ClassID == classID {
				filtered = append(filtered, enrollment)
			}
		}
		enrollments = filtered
	}
	if len(enrollments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no matching enrollment")
	}

	sheets := make([]StudentScoreSheet, 0, len(enrollments))
	for _, enrollment := range enrollments {
		sheet, err := s.studentSheet(ctx, student, enrollment.ClassID, enrollment.SemesterID, subjectID)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, *sheet)
	}
	return sheets, nil
}

func (s *GradebookService) studentSheet(ctx context.Context, student *models.Student, classID, semesterID, subjectID string) (*StudentScoreSheet, error) {
	class, err := s.school.FindClass(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	gradebooks, err := s.gradebooks.ListDetailByClassAndSemester(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gradebooks")
	}
	if subjectID != "" {
		filtered := gradebooks[:0]
		for _, gb := range gradebooks {
			if gb.SubjectID == subjectID {
				filtered = append(filtered, gb)
			}
		}
		gradebooks = filtered
	}
	gradebookIDs := make([]string, 0, len(gradebooks))
	for _, gb := range gradebooks {
		gradebookIDs = append(gradebookIDs, gb.ID)
	}

	details, err := s.scores.FetchForStudent(ctx, gradebookIDs, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	averages, err := s.averages.SubjectAveragesForStudent(ctx, gradebookIDs, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject averages")
	}
	semesterAverages, err := s.averages.SemesterAveragesByClass(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester average")
	}

	params, err := s.gradeParams(ctx, class.AcademicYearID)
	if err != nil {
		return nil, err
	}

	subjects := make([]models.StudentSubjectScores, 0, len(gradebooks))
	for _, gb := range gradebooks {
		scoreDetails := make([]models.StudentScoreDetail, 0, len(details[gb.ID]))
		for _, detail := range details[gb.ID] {
			scoreDetails = append(scoreDetails, models.StudentScoreDetail{
				TestTypeID:   detail.TestTypeID,
				TestTypeName: detail.TestTypeName,
				Occurrence:   detail.Occurrence,
				Value:        detail.Value,
			})
		}
		subjects = append(subjects, models.StudentSubjectScores{
			GradebookID: gb.ID,
			SubjectID:   gb.SubjectID,
			SubjectName: gb.SubjectName,
			Average:     averages[gb.ID],
			Details:     scoreDetails,
		})
	}

	semesterAverage := semesterAverages[student.ID]
	return &StudentScoreSheet{
		StudentID:       student.ID,
		StudentName:     student.FullName,
		ClassID:         classID,
		SemesterID:      semesterID,
		Subjects:        subjects,
		SemesterAverage: semesterAverage,
		Band:            Classify(semesterAverage, params),
	}, nil
}

func (s *GradebookService) gradeParams(ctx context.Context, academicYearID string) (models.GradeParameters, error) {
	params, err := s.weights.ParametersByYear(ctx, academicYearID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DefaultGradeParameters(academicYearID, s.defaultPassMark, s.defaultMaxClassSize), nil
		}
		return models.GradeParameters{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade parameters")
	}
	return *params, nil
}

func (s *GradebookService) invalidateReports(ctx context.Context, semesterID, classID string, subjectIDs []string) {
	// Persisted report rows for the scope are stale once averages change.
	if s.reports != nil {
		if err := s.reports.DeleteByScope(ctx, semesterID, classID); err != nil {
			s.logger.Warn("report row invalidation failed",
				zap.String("class_id", classID),
				zap.String("semester_id", semesterID),
				zap.Error(err))
		}
	}
	if !s.cache.Enabled() {
		return
	}
	patterns := []string{ClassReportPattern(semesterID, classID)}
	for _, subjectID := range subjectIDs {
		patterns = append(patterns, SubjectReportPattern(subjectID, semesterID))
	}
	for _, pattern := range patterns {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("report cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
