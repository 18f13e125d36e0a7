package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestWeightRepositoryTestTypeWeights(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "weight"}).
		AddRow("tt-final", "Final", 2.0).
		AddRow("tt-oral", "Oral", 1.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, weight FROM test_type_weights")).
		WillReturnRows(rows)

	weights, err := repo.TestTypeWeights(context.Background())
	require.NoError(t, err)
	require.Len(t, weights, 2)
	require.Equal(t, 2.0, weights["tt-final"].Weight)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightRepositoryParametersByYearMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_parameters WHERE academic_year_id = $1")).
		WithArgs("year-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ParametersByYear(context.Background(), "year-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightRepositoryParametersByYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	rows := sqlmock.NewRows([]string{"academic_year_id", "min_pass_subject", "min_pass_semester", "excellent_cutoff", "good_cutoff", "average_cutoff", "max_class_size"}).
		AddRow("year-1", 5.0, 5.0, 8.0, 6.5, 5.0, 40)
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_parameters WHERE academic_year_id = $1")).
		WithArgs("year-1").
		WillReturnRows(rows)

	params, err := repo.ParametersByYear(context.Background(), "year-1")
	require.NoError(t, err)
	require.Equal(t, 40, params.MaxClassSize)
	require.NoError(t, mock.ExpectationsWereMet())
}
