package service

import (
	"github.com/gradehub/gradebook-api/internal/models"
)

// Classify buckets a semester average into its qualitative band. A nil
// average is unclassified, never weak.
func Classify(average *float64, params models.GradeParameters) models.GradeBand {
	if average == nil {
		return models.BandUnclassified
	}
	switch {
	case *average >= params.ExcellentCutoff:
		return models.BandExcellent
	case *average >= params.GoodCutoff:
		return models.BandGood
	case *average >= params.AverageCutoff:
		return models.BandAverage
	default:
		return models.BandWeak
	}
}

// PassesSubject reports whether a subject average meets the pass mark. Nil
// never passes.
func PassesSubject(average *float64, params models.GradeParameters) bool {
	return average != nil && *average >= params.MinPassSubject
}

// PassesSemester reports whether a semester average meets the pass mark. Nil
// never passes.
func PassesSemester(average *float64, params models.GradeParameters) bool {
	return average != nil && *average >= params.MinPassSemester
}
