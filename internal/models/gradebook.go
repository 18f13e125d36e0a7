package models

import "time"

// Gradebook is the record of one subject's scores for one class in one
// semester. There is at most one per (class, semester, subject); it is created
// lazily on first score entry.
type Gradebook struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	TeacherID  *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// GradebookDetail carries a gradebook with its subject display name.
type GradebookDetail struct {
	Gradebook
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// RawScore is a single recorded score for one occurrence of a test type.
// A nil Value means the score slot exists but has not been entered yet; such
// rows never contribute to an average.
type RawScore struct {
	ID          string    `db:"id" json:"id"`
	GradebookID string    `db:"gradebook_id" json:"gradebook_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	TestTypeID  string    `db:"test_type_id" json:"test_type_id"`
	Occurrence  int       `db:"occurrence" json:"occurrence"`
	Value       *float64  `db:"value" json:"value"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RawScoreDetail joins a raw score with its test type display name.
type RawScoreDetail struct {
	RawScore
	TestTypeName string `db:"test_type_name" json:"test_type_name"`
}
