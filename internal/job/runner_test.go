package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"variants-service/internal/models"
)

// fakeJob runs fn as its Execute
type fakeJob struct {
	fn func(ctx context.Context, step *StepExecution) error
}

func (j *fakeJob) Name() string { return "fake_job" }

func (j *fakeJob) Parameters() map[string]interface{} {
	return map[string]interface{}{"familyCodes": []string{"outerwear"}}
}

func (j *fakeJob) Execute(ctx context.Context, step *StepExecution) error {
	return j.fn(ctx, step)
}

func TestRunner_RunCompleted(t *testing.T) {
	store := new(MockExecutionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("Update", mock.Anything, mock.Anything).Return(nil)

	runner := NewRunner(store, quietLogger())
	execution, err := runner.Run(context.Background(), &fakeJob{fn: func(ctx context.Context, step *StepExecution) error {
		step.IncrementSummaryInfo(models.SummaryProcess, 7)
		step.IncrementSummaryInfo(models.SummarySkip, 2)
		return nil
	}})
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusCompleted, execution.Status)
	assert.Equal(t, "fake_job", execution.JobName)
	assert.Equal(t, 7, execution.SummaryCount(models.SummaryProcess))
	assert.Equal(t, 2, execution.SummaryCount(models.SummarySkip))
	assert.NotNil(t, execution.EndedAt)
	assert.Nil(t, execution.Failure)
	store.AssertNumberOfCalls(t, "Update", 1)
}

func TestRunner_RunFailed(t *testing.T) {
	store := new(MockExecutionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("Update", mock.Anything, mock.Anything).Return(nil)

	runner := NewRunner(store, quietLogger())
	execution, err := runner.Run(context.Background(), &fakeJob{fn: func(ctx context.Context, step *StepExecution) error {
		step.IncrementSummaryInfo(models.SummaryProcess, 100)
		return errors.New("failed to save 100 product models")
	}})
	require.Error(t, err)

	assert.Equal(t, models.JobStatusFailed, execution.Status)
	require.NotNil(t, execution.Failure)
	assert.Contains(t, *execution.Failure, "failed to save")
	assert.Equal(t, 100, execution.SummaryCount(models.SummaryProcess))
}

func TestRunner_CreateError(t *testing.T) {
	store := new(MockExecutionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("database is down"))

	executed := false
	runner := NewRunner(store, quietLogger())
	_, err := runner.Run(context.Background(), &fakeJob{fn: func(ctx context.Context, step *StepExecution) error {
		executed = true
		return nil
	}})

	assert.Error(t, err)
	assert.False(t, executed)
}

func TestRunner_LaunchRunsInBackground(t *testing.T) {
	store := new(MockExecutionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	finished := make(chan models.JobStatus, 1)
	store.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		finished <- args.Get(1).(*models.JobExecution).Status
	}).Return(nil)

	release := make(chan struct{})
	runner := NewRunner(store, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	execution, err := runner.Launch(ctx, &fakeJob{fn: func(ctx context.Context, step *StepExecution) error {
		<-release
		return ctx.Err()
	}})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusStarting, execution.Status)

	// the run outlives the request that launched it
	cancel()
	close(release)

	select {
	case status := <-finished:
		assert.Equal(t, models.JobStatusCompleted, status)
	case <-time.After(5 * time.Second):
		t.Fatal("launched job did not finish")
	}
}

func TestLauncher_LaunchFamilyVariantStructure(t *testing.T) {
	deps, m := newJobDeps()
	m.families.On("FindVariantsByCode", mock.Anything, []string{"ghost"}).Return([]*models.FamilyVariant{}, nil)

	store := new(MockExecutionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	finished := make(chan int, 1)
	store.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		finished <- args.Get(1).(*models.JobExecution).SummaryCount(models.SummarySkip)
	}).Return(nil)

	launcher := NewLauncher(NewRunner(store, quietLogger()), deps)
	execution, err := launcher.LaunchFamilyVariantStructure(context.Background(), []string{"ghost"})
	require.NoError(t, err)
	assert.Equal(t, FamilyVariantStructureChangesName, execution.JobName)

	select {
	case skipped := <-finished:
		assert.Equal(t, 1, skipped)
	case <-time.After(5 * time.Second):
		t.Fatal("launched job did not finish")
	}
}

func TestRunner_ShutdownWaitsForLaunchedJobs(t *testing.T) {
	store := new(MockExecutionStore)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("Update", mock.Anything, mock.Anything).Return(nil)

	release := make(chan struct{})
	runner := NewRunner(store, quietLogger())
	_, err := runner.Launch(context.Background(), &fakeJob{fn: func(ctx context.Context, step *StepExecution) error {
		<-release
		return nil
	}})
	require.NoError(t, err)

	// still running, the deadline expires first
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, runner.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, runner.Shutdown(context.Background()))
	store.AssertNumberOfCalls(t, "Update", 1)
}

func TestRunner_LaunchAfterShutdown(t *testing.T) {
	store := new(MockExecutionStore)
	runner := NewRunner(store, quietLogger())
	require.NoError(t, runner.Shutdown(context.Background()))

	executed := false
	_, err := runner.Launch(context.Background(), &fakeJob{fn: func(ctx context.Context, step *StepExecution) error {
		executed = true
		return nil
	}})
	assert.ErrorIs(t, err, ErrRunnerStopped)
	assert.False(t, executed)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
