package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gradehub/gradebook-api/internal/models"
)

// WeightRepository reads the admin-managed weight and threshold tables. The
// computation pipeline never writes here.
type WeightRepository struct {
	db *sqlx.DB
}

// NewWeightRepository creates a new weight repository.
func NewWeightRepository(db *sqlx.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// TestTypeWeights returns the full weight table keyed by test type ID.
func (r *WeightRepository) TestTypeWeights(ctx context.Context) (map[string]models.TestTypeWeight, error) {
	const query = `SELECT id, name, weight FROM test_type_weights`
	var weights []models.TestTypeWeight
	if err := r.db.SelectContext(ctx, &weights, query); err != nil {
		return nil, fmt.Errorf("list test type weights: %w", err)
	}
	result := make(map[string]models.TestTypeWeight, len(weights))
	for _, w := range weights {
		result[w.ID] = w
	}
	return result, nil
}

// SubjectCoefficients returns the coefficient table keyed by subject ID.
func (r *WeightRepository) SubjectCoefficients(ctx context.Context) (map[string]models.SubjectCoefficient, error) {
	const query = `SELECT subject_id, name, coefficient FROM subject_coefficients`
	var coefficients []models.SubjectCoefficient
	if err := r.db.SelectContext(ctx, &coefficients, query); err != nil {
		return nil, fmt.Errorf("list subject coefficients: %w", err)
	}
	result := make(map[string]models.SubjectCoefficient, len(coefficients))
	for _, c := range coefficients {
		result[c.SubjectID] = c
	}
	return result, nil
}

// ParametersByYear returns the grading thresholds configured for an academic
// year, or sql.ErrNoRows when the year relies on defaults.
func (r *WeightRepository) ParametersByYear(ctx context.Context, academicYearID string) (*models.GradeParameters, error) {
	const query = `SELECT academic_year_id, min_pass_subject, min_pass_semester,
        excellent_cutoff, good_cutoff, average_cutoff, max_class_size
        FROM grade_parameters WHERE academic_year_id = $1`
	var params models.GradeParameters
	if err := r.db.GetContext(ctx, &params, query, academicYearID); err != nil {
		return nil, err
	}
	return &params, nil
}
