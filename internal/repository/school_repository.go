package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gradehub/gradebook-api/internal/models"
)

// SchoolRepository reads the externally managed academic metadata (students,
// classes, semesters, subjects, years). This service never writes these
// tables.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs the repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindStudent returns the student or sql.ErrNoRows.
func (r *SchoolRepository) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindClass returns the class or sql.ErrNoRows.
func (r *SchoolRepository) FindClass(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, academic_year_id FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindSemester returns the semester or sql.ErrNoRows.
func (r *SchoolRepository) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	const query = `SELECT id, name, academic_year_id FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindSubject returns the subject or sql.ErrNoRows.
func (r *SchoolRepository) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindAcademicYear returns the academic year or sql.ErrNoRows.
func (r *SchoolRepository) FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	const query = `SELECT id, name FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// ListClassesByYear returns every class of an academic year.
func (r *SchoolRepository) ListClassesByYear(ctx context.Context, academicYearID string) ([]models.Class, error) {
	const query = `SELECT id, name, academic_year_id FROM classes WHERE academic_year_id = $1 ORDER BY name`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, academicYearID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}
