package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"variants-service/internal/models"
)

// ExecutionStore persists job executions
type ExecutionStore interface {
	Create(ctx context.Context, execution *models.JobExecution) error
	Update(ctx context.Context, execution *models.JobExecution) error
}

// ErrRunnerStopped is returned by Launch once Shutdown was called
var ErrRunnerStopped = errors.New("job runner is shutting down")

// Runner executes jobs and records their executions
type Runner struct {
	store  ExecutionStore
	logger *logrus.Entry

	mu       sync.Mutex
	stopping bool
	running  sync.WaitGroup
}

func NewRunner(store ExecutionStore, logger *logrus.Entry) *Runner {
	return &Runner{store: store, logger: logger.WithField("component", "job-runner")}
}

// Run executes the job synchronously and returns its finished execution.
// The returned error is the job failure, the execution is still returned.
func (r *Runner) Run(ctx context.Context, job Job) (*models.JobExecution, error) {
	execution, err := r.start(ctx, job)
	if err != nil {
		return nil, err
	}
	return execution, r.execute(ctx, job, execution)
}

// Launch records the execution and runs the job in the background
func (r *Runner) Launch(ctx context.Context, job Job) (*models.JobExecution, error) {
	r.mu.Lock()
	if r.stopping {
		r.mu.Unlock()
		return nil, ErrRunnerStopped
	}
	r.running.Add(1)
	r.mu.Unlock()

	execution, err := r.start(ctx, job)
	if err != nil {
		r.running.Done()
		return nil, err
	}
	snapshot := *execution
	go func() {
		defer r.running.Done()
		_ = r.execute(context.WithoutCancel(ctx), job, execution)
	}()
	return &snapshot, nil
}

// Shutdown refuses new launches and waits for the launched jobs to finish,
// or for ctx to be done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopping = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) start(ctx context.Context, job Job) (*models.JobExecution, error) {
	execution := &models.JobExecution{
		JobName:    job.Name(),
		Status:     models.JobStatusStarting,
		Parameters: datatypes.JSONMap(job.Parameters()),
		Summary:    datatypes.JSONMap{},
		StartedAt:  time.Now(),
	}
	if err := r.store.Create(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

func (r *Runner) execute(ctx context.Context, job Job, execution *models.JobExecution) error {
	log := r.logger.WithFields(logrus.Fields{"job": job.Name(), "executionId": execution.ID})
	log.Info("Job started")

	step := NewStepExecution(job.Name())
	runErr := job.Execute(ctx, step)

	ended := time.Now()
	execution.EndedAt = &ended
	execution.Summary = datatypes.JSONMap(step.Summary())
	if runErr != nil {
		failure := runErr.Error()
		execution.Status = models.JobStatusFailed
		execution.Failure = &failure
		log.WithError(runErr).Error("Job failed")
	} else {
		execution.Status = models.JobStatusCompleted
		log.WithFields(logrus.Fields{
			"process":  step.SummaryCount(models.SummaryProcess),
			"skip":     step.SummaryCount(models.SummarySkip),
			"duration": ended.Sub(execution.StartedAt).String(),
		}).Info("Job completed")
	}
	executionsTotal.WithLabelValues(job.Name(), string(execution.Status)).Inc()

	if err := r.store.Update(context.WithoutCancel(ctx), execution); err != nil {
		log.WithError(err).Error("Failed to record job execution")
	}
	return runErr
}
