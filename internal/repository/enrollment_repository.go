package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gradehub/gradebook-api/internal/models"
)

// EnrollmentRepository handles persistence of class rosters.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByClassAndSemester returns the roster for a class/semester scope.
func (r *EnrollmentRepository) ListByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, semester_id, joined_at
        FROM enrollments WHERE class_id = $1 AND semester_id = $2`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListDetailByClassAndSemester returns the roster with student names.
func (r *EnrollmentRepository) ListDetailByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.class_id, e.semester_id, e.joined_at,
        s.full_name AS student_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.class_id = $1 AND e.semester_id = $2
        ORDER BY s.full_name`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns a student's enrollments, optionally scoped to one
// semester.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID, semesterID string) ([]models.Enrollment, error) {
	query := `SELECT id, student_id, class_id, semester_id, joined_at FROM enrollments WHERE student_id = $1`
	args := []interface{}{studentID}
	if semesterID != "" {
		query += " AND semester_id = $2"
		args = append(args, semesterID)
	}
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// Exists checks whether the student is already enrolled in the class for the
// semester.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, classID, semesterID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND semester_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// CountByClassAndSemester returns the current roster size.
func (r *EnrollmentRepository) CountByClassAndSemester(ctx context.Context, classID, semesterID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND semester_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, semesterID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, class_id, semester_id, joined_at)
        VALUES (:id, :student_id, :class_id, :semester_id, :joined_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}
