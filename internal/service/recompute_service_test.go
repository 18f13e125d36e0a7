package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
	"github.com/gradehub/gradebook-api/pkg/jobs"
)

type recordingRecalc struct {
	scopes chan RecomputeScope
}

func (r *recordingRecalc) RecalculateScope(ctx context.Context, classID, semesterID string) error {
	r.scopes <- RecomputeScope{ClassID: classID, SemesterID: semesterID}
	return nil
}

func TestRecomputeServiceRunsScope(t *testing.T) {
	recalc := &recordingRecalc{scopes: make(chan RecomputeScope, 1)}
	svc := NewRecomputeService(recalc, jobs.QueueConfig{Workers: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	jobID, err := svc.Enqueue("class-1", "sem-1")
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	select {
	case scope := <-recalc.scopes:
		assert.Equal(t, "class-1", scope.ClassID)
		assert.Equal(t, "sem-1", scope.SemesterID)
	case <-time.After(2 * time.Second):
		t.Fatal("recompute job was not processed")
	}
}

func TestRecomputeServiceValidatesScope(t *testing.T) {
	recalc := &recordingRecalc{scopes: make(chan RecomputeScope, 1)}
	svc := NewRecomputeService(recalc, jobs.QueueConfig{Workers: 1}, zap.NewNop())

	_, err := svc.Enqueue("", "sem-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecomputeServiceRequiresStart(t *testing.T) {
	recalc := &recordingRecalc{scopes: make(chan RecomputeScope, 1)}
	svc := NewRecomputeService(recalc, jobs.QueueConfig{Workers: 1}, zap.NewNop())

	_, err := svc.Enqueue("class-1", "sem-1")
	require.Error(t, err)
}
