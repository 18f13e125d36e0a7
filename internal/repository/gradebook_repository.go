package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gradehub/gradebook-api/internal/models"
)

// GradebookRepository handles gradebook identity persistence.
type GradebookRepository struct {
	db *sqlx.DB
}

// NewGradebookRepository creates a new gradebook repository.
func NewGradebookRepository(db *sqlx.DB) *GradebookRepository {
	return &GradebookRepository{db: db}
}

// GetOrCreate returns the gradebook for (class, semester, subject), creating
// it on first use. The unique constraint serializes concurrent first-time
// creation; the conflicting insert is a no-op and the re-select wins either
// way.
func (r *GradebookRepository) GetOrCreate(ctx context.Context, classID, semesterID, subjectID string, teacherID *string) (*models.Gradebook, error) {
	gradebook := &models.Gradebook{
		ID:         uuid.NewString(),
		ClassID:    classID,
		SemesterID: semesterID,
		SubjectID:  subjectID,
		TeacherID:  teacherID,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	const insert = `INSERT INTO gradebooks (id, class_id, semester_id, subject_id, teacher_id, created_at, updated_at)
        VALUES (:id, :class_id, :semester_id, :subject_id, :teacher_id, :created_at, :updated_at)
        ON CONFLICT (class_id, semester_id, subject_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, insert, gradebook); err != nil {
		return nil, fmt.Errorf("create gradebook: %w", err)
	}
	const query = `SELECT id, class_id, semester_id, subject_id, teacher_id, created_at, updated_at
        FROM gradebooks WHERE class_id = $1 AND semester_id = $2 AND subject_id = $3`
	var found models.Gradebook
	if err := r.db.GetContext(ctx, &found, query, classID, semesterID, subjectID); err != nil {
		return nil, fmt.Errorf("load gradebook: %w", err)
	}
	return &found, nil
}

// FindByScope returns the gradebook for (class, semester, subject) or
// sql.ErrNoRows when no scores were ever entered for that combination.
func (r *GradebookRepository) FindByScope(ctx context.Context, classID, semesterID, subjectID string) (*models.Gradebook, error) {
	const query = `SELECT id, class_id, semester_id, subject_id, teacher_id, created_at, updated_at
        FROM gradebooks WHERE class_id = $1 AND semester_id = $2 AND subject_id = $3`
	var gradebook models.Gradebook
	if err := r.db.GetContext(ctx, &gradebook, query, classID, semesterID, subjectID); err != nil {
		return nil, err
	}
	return &gradebook, nil
}

// ListByClassAndSemester returns every gradebook for a class/semester scope.
func (r *GradebookRepository) ListByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.Gradebook, error) {
	const query = `SELECT id, class_id, semester_id, subject_id, teacher_id, created_at, updated_at
        FROM gradebooks WHERE class_id = $1 AND semester_id = $2`
	var gradebooks []models.Gradebook
	if err := r.db.SelectContext(ctx, &gradebooks, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list gradebooks: %w", err)
	}
	return gradebooks, nil
}

// ListDetailByClassAndSemester returns gradebooks with subject names for a
// class/semester scope.
func (r *GradebookRepository) ListDetailByClassAndSemester(ctx context.Context, classID, semesterID string) ([]models.GradebookDetail, error) {
	const query = `SELECT g.id, g.class_id, g.semester_id, g.subject_id, g.teacher_id, g.created_at, g.updated_at,
        s.name AS subject_name
        FROM gradebooks g
        JOIN subjects s ON s.id = g.subject_id
        WHERE g.class_id = $1 AND g.semester_id = $2
        ORDER BY s.name`
	var gradebooks []models.GradebookDetail
	if err := r.db.SelectContext(ctx, &gradebooks, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list gradebook details: %w", err)
	}
	return gradebooks, nil
}
