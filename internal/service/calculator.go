package service

import (
	"math"

	"github.com/gradehub/gradebook-api/internal/models"
)

// Round2 rounds to two decimals using banker's rounding so repeated
// recomputation of the same inputs is stable.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// SubjectAverage computes one student's weighted subject average from raw
// scores. Scores without a value are skipped entirely; every occurrence of a
// test type carries the type's full weight; an unknown test type weighs 1.
// Returns nil when no entered score contributes.
func SubjectAverage(scores []models.RawScore, weights map[string]models.TestTypeWeight) *float64 {
	var sum, totalWeight float64
	for _, score := range scores {
		if score.Value == nil {
			continue
		}
		weight := 1.0
		if w, ok := weights[score.TestTypeID]; ok {
			weight = w.Weight
		}
		sum += *score.Value * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return nil
	}
	avg := Round2(sum / totalWeight)
	return &avg
}

// SemesterAverage combines a student's subject averages, weighted by subject
// coefficient, into the semester average. Subjects with a nil average are
// skipped; a subject without a coefficient row weighs 1. Returns nil when no
// subject contributes.
func SemesterAverage(averages map[string]*float64, subjectByGradebook map[string]string, coefficients map[string]models.SubjectCoefficient) *float64 {
	var sum, totalCoeff float64
	for gradebookID, avg := range averages {
		if avg == nil {
			continue
		}
		coeff := 1.0
		if c, ok := coefficients[subjectByGradebook[gradebookID]]; ok {
			coeff = c.Coefficient
		}
		sum += *avg * coeff
		totalCoeff += coeff
	}
	if totalCoeff == 0 {
		return nil
	}
	avg := Round2(sum / totalCoeff)
	return &avg
}

// PassRate returns the pass percentage rounded to two decimals; 0 when the
// cohort is empty.
func PassRate(passCount, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(passCount) / float64(total) * 100)
}
