package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gradehub/gradebook-api/internal/models"
)

func TestClassifyBands(t *testing.T) {
	params := models.DefaultGradeParameters("year-1", 5, 45)

	assert.Equal(t, models.BandExcellent, Classify(ptrFloat(8.0), params))
	assert.Equal(t, models.BandExcellent, Classify(ptrFloat(9.5), params))
	assert.Equal(t, models.BandGood, Classify(ptrFloat(7.99), params))
	assert.Equal(t, models.BandGood, Classify(ptrFloat(6.5), params))
	assert.Equal(t, models.BandAverage, Classify(ptrFloat(6.49), params))
	assert.Equal(t, models.BandAverage, Classify(ptrFloat(5.0), params))
	assert.Equal(t, models.BandWeak, Classify(ptrFloat(4.99), params))
	assert.Equal(t, models.BandWeak, Classify(ptrFloat(0), params))
	assert.Equal(t, models.BandUnclassified, Classify(nil, params))
}

func TestPassChecks(t *testing.T) {
	params := models.DefaultGradeParameters("year-1", 5, 45)

	assert.True(t, PassesSubject(ptrFloat(5.0), params))
	assert.False(t, PassesSubject(ptrFloat(4.99), params))
	assert.False(t, PassesSubject(nil, params))

	assert.True(t, PassesSemester(ptrFloat(5.0), params))
	assert.False(t, PassesSemester(ptrFloat(4.99), params))
	assert.False(t, PassesSemester(nil, params))
}
