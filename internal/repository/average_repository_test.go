package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/gradehub/gradebook-api/internal/models"
)

func TestAverageRepositoryUpsertSubjectTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAverageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_averages")).
		WithArgs(sqlmock.AnyArg(), "gb-1", "stu-1", 8.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_averages")).
		WithArgs(sqlmock.AnyArg(), "gb-1", "stu-2", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	averages := []models.SubjectAverage{
		{GradebookID: "gb-1", StudentID: "stu-1", Average: ptrFloat(8)},
		{GradebookID: "gb-1", StudentID: "stu-2", Average: nil},
	}
	require.NoError(t, repo.UpsertSubjectTx(context.Background(), tx, averages))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAverageRepositorySubjectAveragesForStudentTxLocksRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAverageRepository(db)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"gradebook_id", "average"}).
		AddRow("gb-1", 8.0).
		AddRow("gb-2", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE gradebook_id IN ($1,$2) AND student_id = $3 FOR UPDATE")).
		WithArgs("gb-1", "gb-2", "stu-1").
		WillReturnRows(rows)

	tx, err := db.Beginx()
	require.NoError(t, err)
	result, err := repo.SubjectAveragesForStudentTx(context.Background(), tx, []string{"gb-1", "gb-2"}, "stu-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.NotNil(t, result["gb-1"])
	require.Equal(t, 8.0, *result["gb-1"])
	require.Nil(t, result["gb-2"])
}

func TestAverageRepositorySemesterAveragesByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAverageRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "average"}).
		AddRow("stu-1", 6.0).
		AddRow("stu-2", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, average FROM semester_averages WHERE class_id = $1 AND semester_id = $2")).
		WithArgs("class-1", "sem-1").
		WillReturnRows(rows)

	result, err := repo.SemesterAveragesByClass(context.Background(), "class-1", "sem-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, 6.0, *result["stu-1"])
	require.Nil(t, result["stu-2"])
	require.NoError(t, mock.ExpectationsWereMet())
}
