package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/gradehub/gradebook-api/pkg/errors"
	"github.com/gradehub/gradebook-api/pkg/jobs"
)

const jobTypeRecomputeScope = "recompute_scope"

type scopeRecalculator interface {
	RecalculateScope(ctx context.Context, classID, semesterID string) error
}

// RecomputeScope identifies one class/semester recompute unit.
type RecomputeScope struct {
	ClassID    string `json:"class_id"`
	SemesterID string `json:"semester_id"`
}

// RecomputeService runs full scope recomputations on a background worker
// pool so large classes do not block the request path.
type RecomputeService struct {
	queue  *jobs.Queue
	recalc scopeRecalculator
	logger *zap.Logger
}

// NewRecomputeService constructs RecomputeService with its own queue.
func NewRecomputeService(recalc scopeRecalculator, cfg jobs.QueueConfig, logger *zap.Logger) *RecomputeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RecomputeService{recalc: recalc, logger: logger}
	s.queue = jobs.NewQueue("recompute", s.handle, cfg)
	return s
}

// Start launches the worker pool.
func (s *RecomputeService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *RecomputeService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a scope recompute and returns the job ID.
func (s *RecomputeService) Enqueue(classID, semesterID string) (string, error) {
	if classID == "" || semesterID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "class and semester required")
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeRecomputeScope,
		Payload: RecomputeScope{ClassID: classID, SemesterID: semesterID},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue recompute")
	}
	return job.ID, nil
}

func (s *RecomputeService) handle(ctx context.Context, job jobs.Job) error {
	scope, ok := job.Payload.(RecomputeScope)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}
	s.logger.Info("recompute started",
		zap.String("job_id", job.ID),
		zap.String("class_id", scope.ClassID),
		zap.String("semester_id", scope.SemesterID))
	return s.recalc.RecalculateScope(ctx, scope.ClassID, scope.SemesterID)
}
