package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/gradehub/gradebook-api/internal/models"
)

func ptrFloat(v float64) *float64 {
	return &v
}

func TestScoreRepositoryUpsertTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO raw_scores")).
		WithArgs(sqlmock.AnyArg(), "gb-1", "stu-1", "tt-final", 1, 9.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	scores := []models.RawScore{
		{GradebookID: "gb-1", StudentID: "stu-1", TestTypeID: "tt-final", Occurrence: 1, Value: ptrFloat(9)},
	}
	require.NoError(t, repo.UpsertTx(context.Background(), tx, scores))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFetchByGradebookTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "gradebook_id", "student_id", "test_type_id", "occurrence", "value", "created_at", "updated_at"}).
		AddRow("rs-1", "gb-1", "stu-1", "tt-final", 1, 9.0, time.Now(), time.Now()).
		AddRow("rs-2", "gb-1", "stu-1", "tt-oral", 1, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM raw_scores WHERE gradebook_id = $1 AND student_id IN ($2)")).
		WithArgs("gb-1", "stu-1").
		WillReturnRows(rows)

	tx, err := db.Beginx()
	require.NoError(t, err)
	result, err := repo.FetchByGradebookTx(context.Background(), tx, "gb-1", []string{"stu-1"})
	require.NoError(t, err)
	require.Len(t, result["stu-1"], 2)
	require.Nil(t, result["stu-1"][1].Value)
}

func TestScoreRepositoryFetchForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "gradebook_id", "student_id", "test_type_id", "occurrence", "value", "created_at", "updated_at", "test_type_name"}).
		AddRow("rs-1", "gb-1", "stu-1", "tt-final", 1, 8.5, time.Now(), time.Now(), "Final")
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN test_type_weights tt ON tt.id = rs.test_type_id")).
		WithArgs("gb-1", "stu-1").
		WillReturnRows(rows)

	result, err := repo.FetchForStudent(context.Background(), []string{"gb-1"}, "stu-1")
	require.NoError(t, err)
	require.Len(t, result["gb-1"], 1)
	require.Equal(t, "Final", result["gb-1"][0].TestTypeName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFetchForStudentEmptyScope(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	result, err := repo.FetchForStudent(context.Background(), nil, "stu-1")
	require.NoError(t, err)
	require.Empty(t, result)
}
