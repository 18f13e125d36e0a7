package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gradehub/gradebook-api/internal/models"
	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
)

type enrollmentRepo interface {
	ListDetailByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.EnrollmentDetail, error)
	Exists(ctx context.Context, studentID, classID, semesterID string) (bool, error)
	CountByClassAndSemester(ctx context.Context, classID, semesterID string) (int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

// EnrollRequest places a student into a class for a semester.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	ClassID    string `json:"class_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
}

// EnrollmentService manages class rosters and enforces capacity.
type EnrollmentService struct {
	enrollments enrollmentRepo
	school      schoolReader
	params      paramsReader
	reports     reportInvalidator
	validator   *validator.Validate
	logger      *zap.Logger

	defaultPassMark     float64
	defaultMaxClassSize int
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepo, school schoolReader, params paramsReader, reports reportInvalidator, validate *validator.Validate, logger *zap.Logger, defaultPassMark float64, defaultMaxClassSize int) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments:         enrollments,
		school:              school,
		params:              params,
		reports:             reports,
		validator:           validate,
		logger:              logger,
		defaultPassMark:     defaultPassMark,
		defaultMaxClassSize: defaultMaxClassSize,
	}
}

// Enroll adds a student to a class roster. The class capacity limit for the
// academic year is enforced before the write.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.school.FindStudent(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
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

	exists, err := s.enrollments.Exists(ctx, req.StudentID, req.ClassID, req.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in class")
	}

	params, err := s.gradeParams(ctx, class.AcademicYearID)
	if err != nil {
		return nil, err
	}
	count, err := s.enrollments.CountByClassAndSemester(ctx, req.ClassID, req.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count roster")
	}
	if count >= params.MaxClassSize {
		return nil, appErrors.Clone(appErrors.ErrCapacity, "class is at capacity")
	}

	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		ClassID:    req.ClassID,
		SemesterID: req.SemesterID,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	// A bigger roster changes report totals, so persisted rows go stale.
	if s.reports != nil {
		if err := s.reports.DeleteByScope(ctx, req.SemesterID, req.ClassID); err != nil {
			s.logger.Warn("report row invalidation failed",
				zap.String("class_id", req.ClassID),
				zap.String("semester_id", req.SemesterID),
				zap.Error(err))
		}
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("class_id", req.ClassID),
		zap.String("semester_id", req.SemesterID))
	return enrollment, nil
}

// Roster returns the class roster with student names.
func (s *EnrollmentService) Roster(ctx context.Context, classID, semesterID string) ([]models.EnrollmentDetail, error) {
	if classID == "" || semesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class and semester required")
	}
	if _, err := s.school.FindClass(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	roster, err := s.enrollments.ListDetailByClassAndSemester(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

func (s *EnrollmentService) gradeParams(ctx context.Context, academicYearID string) (models.GradeParameters, error) {
	params, err := s.params.ParametersByYear(ctx, academicYearID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DefaultGradeParameters(academicYearID, s.defaultPassMark, s.defaultMaxClassSize), nil
		}
		return models.GradeParameters{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade parameters")
	}
	return *params, nil
}
