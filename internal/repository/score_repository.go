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

// ScoreRepository handles raw score persistence.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// UpsertTx inserts or updates raw scores inside the caller's transaction.
// The natural key (gradebook, student, test type, occurrence) makes repeated
// submission of the same batch idempotent.
func (r *ScoreRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, scores []models.RawScore) error {
	const query = `INSERT INTO raw_scores (id, gradebook_id, student_id, test_type_id, occurrence, value, created_at, updated_at)
        VALUES (:id, :gradebook_id, :student_id, :test_type_id, :occurrence, :value, :created_at, :updated_at)
        ON CONFLICT (gradebook_id, student_id, test_type_id, occurrence)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range scores {
		if scores[i].ID == "" {
			scores[i].ID = uuid.NewString()
		}
		if scores[i].CreatedAt.IsZero() {
			scores[i].CreatedAt = now
		}
		scores[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, scores[i]); err != nil {
			return fmt.Errorf("upsert raw score: %w", err)
		}
	}
	return nil
}

// FetchByGradebookTx returns all raw scores of the given students in one
// gradebook, keyed by student ID, reading through the caller's transaction so
// the just-upserted batch is visible.
func (r *ScoreRepository) FetchByGradebookTx(ctx context.Context, tx *sqlx.Tx, gradebookID string, studentIDs []string) (map[string][]models.RawScore, error) {
	result := make(map[string][]models.RawScore, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs)+1)
	args[0] = gradebookID
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args[i+1] = id
	}
	query := fmt.Sprintf(`SELECT id, gradebook_id, student_id, test_type_id, occurrence, value, created_at, updated_at
        FROM raw_scores WHERE gradebook_id = $1 AND student_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch raw scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var score models.RawScore
		if err := rows.StructScan(&score); err != nil {
			return nil, fmt.Errorf("scan raw score: %w", err)
		}
		result[score.StudentID] = append(result[score.StudentID], score)
	}
	return result, nil
}

// FetchForStudent returns a student's raw scores with test type names across
// the given gradebooks, keyed by gradebook ID.
func (r *ScoreRepository) FetchForStudent(ctx context.Context, gradebookIDs []string, studentID string) (map[string][]models.RawScoreDetail, error) {
	result := make(map[string][]models.RawScoreDetail, len(gradebookIDs))
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
	query := fmt.Sprintf(`SELECT rs.id, rs.gradebook_id, rs.student_id, rs.test_type_id, rs.occurrence, rs.value, rs.created_at, rs.updated_at,
        COALESCE(tt.name, rs.test_type_id) AS test_type_name
        FROM raw_scores rs
        LEFT JOIN test_type_weights tt ON tt.id = rs.test_type_id
        WHERE rs.gradebook_id IN (%s) AND rs.student_id = $%d
        ORDER BY tt.name, rs.occurrence`, strings.Join(placeholders, ","), len(args))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch student scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var score models.RawScoreDetail
		if err := rows.StructScan(&score); err != nil {
			return nil, fmt.Errorf("scan student score: %w", err)
		}
		result[score.GradebookID] = append(result[score.GradebookID], score)
	}
	return result, nil
}
