package models

import "time"

// ReportRow is the persisted cache record for a class/semester report. It is
// purely derived and safely rebuildable from raw scores.
type ReportRow struct {
	ID             string    `db:"id" json:"id"`
	SemesterID     string    `db:"semester_id" json:"semester_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	TotalStudents  int       `db:"total_students" json:"total_students"`
	PassCount      int       `db:"pass_count" json:"pass_count"`
	PassRate       float64   `db:"pass_rate" json:"pass_rate"`
	GeneratedAt    time.Time `db:"generated_at" json:"generated_at"`
}

// ClassSemesterReport is the aggregate returned for a class/semester scope.
// Students with a nil semester average count toward TotalStudents but never
// toward PassCount.
type ClassSemesterReport struct {
	SemesterID     string  `json:"semester_id"`
	AcademicYearID string  `json:"academic_year_id"`
	ClassID        string  `json:"class_id"`
	ClassName      string  `json:"class_name"`
	TotalStudents  int     `json:"total_students"`
	PassCount      int     `json:"pass_count"`
	PassRate       float64 `json:"pass_rate"`
}

// SubjectClassBreakdown is the per-class slice of a subject report.
// TotalStudents counts only students with a computed subject average.
type SubjectClassBreakdown struct {
	GradebookID   string  `json:"gradebook_id"`
	ClassID       string  `json:"class_id"`
	ClassName     string  `json:"class_name"`
	TotalStudents int     `json:"total_students"`
	PassCount     int     `json:"pass_count"`
	PassRate      float64 `json:"pass_rate"`
}

// SubjectReport aggregates subject performance across every class of an
// academic year. Classes without a gradebook for the subject are omitted.
type SubjectReport struct {
	SubjectID      string                  `json:"subject_id"`
	SubjectName    string                  `json:"subject_name"`
	SemesterID     string                  `json:"semester_id"`
	AcademicYearID string                  `json:"academic_year_id"`
	Classes        []SubjectClassBreakdown `json:"classes"`
	TotalStudents  int                     `json:"total_students"`
	PassCount      int                     `json:"pass_count"`
	PassRate       float64                 `json:"pass_rate"`
}

// StudentScoreDetail is one raw score slot in a student's score sheet.
type StudentScoreDetail struct {
	TestTypeID   string   `json:"test_type_id"`
	TestTypeName string   `json:"test_type_name"`
	Occurrence   int      `json:"occurrence"`
	Value        *float64 `json:"value"`
}

// StudentSubjectScores is a student's per-subject view: the derived average
// plus the raw details behind it.
type StudentSubjectScores struct {
	GradebookID string               `json:"gradebook_id"`
	SubjectID   string               `json:"subject_id"`
	SubjectName string               `json:"subject_name"`
	Average     *float64             `json:"average"`
	Details     []StudentScoreDetail `json:"details"`
}
