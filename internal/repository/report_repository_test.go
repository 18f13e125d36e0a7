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

func TestReportRepositoryUpsertClassReport(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_rows")).
		WithArgs(sqlmock.AnyArg(), "sem-1", "year-1", "class-1", 30, 24, 80.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	row := &models.ReportRow{
		SemesterID:     "sem-1",
		AcademicYearID: "year-1",
		ClassID:        "class-1",
		TotalStudents:  30,
		PassCount:      24,
		PassRate:       80.0,
	}
	require.NoError(t, repo.UpsertClassReport(context.Background(), row))
	require.NotEmpty(t, row.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDeleteByScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM report_rows WHERE semester_id = $1 AND class_id = $2")).
		WithArgs("sem-1", "class-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByScope(context.Background(), "sem-1", "class-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindClassReport(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "semester_id", "academic_year_id", "class_id", "total_students", "pass_count", "pass_rate", "generated_at"}).
		AddRow("rep-1", "sem-1", "year-1", "class-1", 30, 24, 80.0, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_rows WHERE semester_id = $1 AND academic_year_id = $2 AND class_id = $3")).
		WithArgs("sem-1", "year-1", "class-1").
		WillReturnRows(rows)

	report, err := repo.FindClassReport(context.Background(), "sem-1", "year-1", "class-1")
	require.NoError(t, err)
	require.Equal(t, 80.0, report.PassRate)
	require.NoError(t, mock.ExpectationsWereMet())
}
