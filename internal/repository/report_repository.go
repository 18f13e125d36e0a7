package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gradehub/gradebook-api/internal/models"
)

// ReportRepository persists the rebuildable report cache rows.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// UpsertClassReport writes the cache row for a class/semester report.
func (r *ReportRepository) UpsertClassReport(ctx context.Context, row *models.ReportRow) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.GeneratedAt.IsZero() {
		row.GeneratedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_rows (id, semester_id, academic_year_id, class_id, total_students, pass_count, pass_rate, generated_at)
        VALUES (:id, :semester_id, :academic_year_id, :class_id, :total_students, :pass_count, :pass_rate, :generated_at)
        ON CONFLICT (semester_id, academic_year_id, class_id)
        DO UPDATE SET total_students = EXCLUDED.total_students, pass_count = EXCLUDED.pass_count,
            pass_rate = EXCLUDED.pass_rate, generated_at = EXCLUDED.generated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert report row: %w", err)
	}
	return nil
}

// DeleteByScope drops persisted report rows for a class/semester after the
// underlying averages change.
func (r *ReportRepository) DeleteByScope(ctx context.Context, semesterID, classID string) error {
	const query = `DELETE FROM report_rows WHERE semester_id = $1 AND class_id = $2`
	if _, err := r.db.ExecContext(ctx, query, semesterID, classID); err != nil {
		return fmt.Errorf("delete report rows: %w", err)
	}
	return nil
}

// FindClassReport returns the cached row for a scope, or sql.ErrNoRows.
func (r *ReportRepository) FindClassReport(ctx context.Context, semesterID, academicYearID, classID string) (*models.ReportRow, error) {
	const query = `SELECT id, semester_id, academic_year_id, class_id, total_students, pass_count, pass_rate, generated_at
        FROM report_rows WHERE semester_id = $1 AND academic_year_id = $2 AND class_id = $3`
	var row models.ReportRow
	if err := r.db.GetContext(ctx, &row, query, semesterID, academicYearID, classID); err != nil {
		return nil, err
	}
	return &row, nil
}
