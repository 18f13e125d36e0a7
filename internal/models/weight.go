package models

// TestTypeWeight maps an assessment category (oral quiz, 1-period test,
// midterm, final) to its weight in the subject average. Admin-managed,
// read-only to the computation pipeline.
type TestTypeWeight struct {
	ID     string  `db:"id" json:"id"`
	Name   string  `db:"name" json:"name"`
	Weight float64 `db:"weight" json:"weight"`
}

// SubjectCoefficient weights a subject average when combining subject
// averages into the semester average.
type SubjectCoefficient struct {
	SubjectID   string  `db:"subject_id" json:"subject_id"`
	Name        string  `db:"name" json:"name"`
	Coefficient float64 `db:"coefficient" json:"coefficient"`
}

// GradeParameters holds the per-academic-year grading thresholds and the
// enrollment capacity limit.
type GradeParameters struct {
	AcademicYearID  string  `db:"academic_year_id" json:"academic_year_id"`
	MinPassSubject  float64 `db:"min_pass_subject" json:"min_pass_subject"`
	MinPassSemester float64 `db:"min_pass_semester" json:"min_pass_semester"`
	ExcellentCutoff float64 `db:"excellent_cutoff" json:"excellent_cutoff"`
	GoodCutoff      float64 `db:"good_cutoff" json:"good_cutoff"`
	AverageCutoff   float64 `db:"average_cutoff" json:"average_cutoff"`
	MaxClassSize    int     `db:"max_class_size" json:"max_class_size"`
}

// DefaultGradeParameters returns the conventional thresholds used when an
// academic year has no configured row.
func DefaultGradeParameters(academicYearID string, passMark float64, maxClassSize int) GradeParameters {
	if passMark <= 0 {
		passMark = 5
	}
	if maxClassSize <= 0 {
		maxClassSize = 45
	}
	return GradeParameters{
		AcademicYearID:  academicYearID,
		MinPassSubject:  passMark,
		MinPassSemester: passMark,
		ExcellentCutoff: 8,
		GoodCutoff:      6.5,
		AverageCutoff:   5,
		MaxClassSize:    maxClassSize,
	}
}

// GradeBand is the qualitative bucket for an average score.
type GradeBand string

const (
	BandExcellent    GradeBand = "excellent"
	BandGood         GradeBand = "good"
	BandAverage      GradeBand = "average"
	BandWeak         GradeBand = "weak"
	BandUnclassified GradeBand = "unclassified"
)
