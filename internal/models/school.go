package models

import "time"

// Student is the roster identity referenced by scores and averages.
type Student struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
}

// Class groups students within one academic year.
type Class struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	AcademicYearID string `db:"academic_year_id" json:"academic_year_id"`
}

// Semester is one grading period of an academic year.
type Semester struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	AcademicYearID string `db:"academic_year_id" json:"academic_year_id"`
}

// Subject is a taught discipline.
type Subject struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// AcademicYear scopes classes, semesters and grade parameters.
type AcademicYear struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Enrollment places a student in a class for a semester.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	JoinedAt   time.Time `db:"joined_at" json:"joined_at"`
}

// EnrollmentDetail joins an enrollment with the student's display name.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
}
