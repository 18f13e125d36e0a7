package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gradehub/gradebook-api/internal/models"
)

// AverageRepository persists the derived subject and semester averages.
type AverageRepository struct {
	db *sqlx.DB
}

// NewAverageRepository creates a new average repository.
func NewAverageRepository(db *sqlx.DB) *AverageRepository {
	return &AverageRepository{db: db}
}

// UpsertSubjectTx writes subject averages inside the caller's transaction.
func (r *AverageRepository) UpsertSubjectTx(ctx context.Context, tx *sqlx.Tx, averages []models.SubjectAverage) error {
	const query = `INSERT INTO subject_averages (id, gradebook_id, student_id, average, updated_at)
        VALUES (:id, :gradebook_id, :student_id, :average, :updated_at)
        ON CONFLICT (gradebook_id, student_id)
        DO UPDATE SET average = EXCLUDED.average, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range averages {
		if averages[i].ID == "" {
			averages[i].ID = uuid.NewString()
		}
		averages[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, averages[i]); err != nil {
			return fmt.Errorf("upsert subject average: %w", err)
		}
	}
	return nil
}

// SubjectAveragesForStudentTx reads one student's subject averages across the
// given gradebooks within the transaction, locking the rows so concurrent
// batches targeting the same student serialize before the semester upsert.
func (r *AverageRepository) SubjectAveragesForStudentTx(ctx context.Context, tx *sqlx.Tx, gradebookIDs []string, studentID string) (map[string]*float64, error) {
	result := make(map[string]*float64, len(gradebookIDs))
	if len(gradebookIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(gradebookIDs))
	args := make([]interface{}, len(gradebookIDs)+1)
	for i, id := range gradebookIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	args[len(args)-1] = studentID
	query := fmt.Sprintf(`SELECT gradebook_id, average FROM subject_averages
        WHERE gradebook_id IN (%s) AND student_id = $%d FOR UPDATE`, strings.Join(placeholders, ","), len(args))
	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lock subject averages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gradebookID string
		var average *float64
		if err := rows.Scan(&gradebookID, &average); err != nil {
			return nil, fmt.Errorf("scan subject average: %w", err)
		}
		result[gradebookID] = average
	}
	return result, nil
}

// UpsertSemesterTx writes semester averages inside the caller's transaction.
func (r *AverageRepository) UpsertSemesterTx(ctx context.Context, tx *sqlx.Tx, averages []models.SemesterAverage) error {
	const query = `INSERT INTO semester_averages (id, class_id, student_id, semester_id, average, updated_at)
        VALUES (:id, :class_id, :student_id, :semester_id, :average, :updated_at)
        ON CONFLICT (class_id, student_id, semester_id)
        DO UPDATE SET average = EXCLUDED.average, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range averages {
		if averages[i].ID == "" {
			averages[i].ID = uuid.NewString()
		}
		averages[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, averages[i]); err != nil {
			return fmt.Errorf("upsert semester average: %w", err)
		}
	}
	return nil
}

// SubjectAveragesByGradebook returns every student's average in one
// gradebook, keyed by student ID.
func (r *AverageRepository) SubjectAveragesByGradebook(ctx context.Context, gradebookID string) (map[string]*float64, error) {
	const query = `SELECT student_id, average FROM subject_averages WHERE gradebook_id = $1`
	rows, err := r.db.QueryxContext(ctx, query, gradebookID)
	if err != nil {
		return nil, fmt.Errorf("fetch subject averages: %w", err)
	}
	defer rows.Close()
	result := make(map[string]*float64)
	for rows.Next() {
		var studentID string
		var average *float64
		if err := rows.Scan(&studentID, &average); err != nil {
			return nil, fmt.Errorf("scan subject average: %w", err)
		}
		result[studentID] = average
	}
	return result, nil
}

// SubjectAveragesForStudent returns one student's averages across the given
// gradebooks, keyed by gradebook ID, outside any transaction.
func (r *AverageRepository) SubjectAveragesForStudent(ctx context.Context, gradebookIDs []string, studentID string) (map[string]*float64, error) {
	result := make(map[string]*float64, len(gradebookIDs))
	if len(gradebookIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(gradebookIDs))
	args := make([]interface{}, len(gradebookIDs)+1)
	for i, id := range gradebookIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	args[len(args)-1] = studentID
	query := fmt.Sprintf(`SELECT gradebook_id, average FROM subject_averages
        WHERE gradebook_id IN (%s) AND student_id = $%d`, strings.Join(placeholders, ","), len(args))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch student averages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gradebookID string
		var average *float64
		if err := rows.Scan(&gradebookID, &average); err != nil {
			return nil, fmt.Errorf("scan student average: %w", err)
		}
		result[gradebookID] = average
	}
	return result, nil
}

// SemesterAveragesByClass returns every student's semester average for a
// class/semester scope, keyed by student ID.
func (r *AverageRepository) SemesterAveragesByClass(ctx context.Context, classID, semesterID string) (map[string]*float64, error) {
	const query = `SELECT student_id, average FROM semester_averages WHERE class_id = $1 AND semester_id = $2`
	rows, err := r.db.QueryxContext(ctx, query, classID, semesterID)
	if err != nil {
		return nil, fmt.Errorf("fetch semester averages: %w", err)
	}
	defer rows.Close()
	result := make(map[string]*float64)
	for rows.Next() {
		var studentID string
		var average *float64
		if err := rows.Scan(&studentID, &average); err != nil {
			return nil, fmt.Errorf("scan semester average: %w", err)
		}
		result[studentID] = average
	}
	return result, nil
}
