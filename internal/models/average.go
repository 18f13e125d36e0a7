package models

import "time"

// SubjectAverage is the derived weighted average of one student's scores in
// one gradebook. Average is nil until the student has at least one entered
// score. Rows are owned by the computation pipeline and never hand-edited.
type SubjectAverage struct {
	ID          string    `db:"id" json:"id"`
	GradebookID string    `db:"gradebook_id" json:"gradebook_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Average     *float64  `db:"average" json:"average"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterAverage combines a student's subject averages for one class and
// semester, weighted by subject coefficient. Nil until any subject
// contributes.
type SemesterAverage struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	Average    *float64  `db:"average" json:"average"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
