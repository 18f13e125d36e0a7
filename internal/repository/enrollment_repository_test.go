package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/gradehub/gradebook-api/internal/models"
)

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND semester_id = $3 LIMIT 1")).
		WithArgs("stu-1", "class-1", "sem-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1", "class-1", "sem-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsNoRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("stu-1", "class-1", "sem-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.Exists(context.Background(), "stu-1", "class-1", "sem-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND semester_id = $2")).
		WithArgs("class-1", "sem-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(28))

	count, err := repo.CountByClassAndSemester(context.Background(), "class-1", "sem-1")
	require.NoError(t, err)
	require.Equal(t, 28, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "class-1", "sem-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{StudentID: "stu-1", ClassID: "class-1", SemesterID: "sem-1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.False(t, enrollment.JoinedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByStudentScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "semester_id", "joined_at"}).
		AddRow("enr-1", "stu-1", "class-1", "sem-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND semester_id = $2")).
		WithArgs("stu-1", "sem-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListByStudent(context.Background(), "stu-1", "sem-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, "class-1", enrollments[0].ClassID)
	require.NoError(t, mock.ExpectationsWereMet())
}
