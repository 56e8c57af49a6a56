package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func testConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       2,
		QueueSize:     4,
		JobTimeout:    time.Second,
		RetryAttempts: 2,
		RetryDelay:    5 * time.Millisecond,
	}
}

func stop(t *testing.T, s interface{ Stop(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(JobKindReminderSweep, 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	job.Fail("boom")
	assert.Equal(t, "boom", job.Error)
	assert.True(t, job.ShouldRetry())

	job.RetryCount = 1
	assert.False(t, job.ShouldRetry())

	job.Start()
	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.Empty(t, job.Error)
	assert.GreaterOrEqual(t, job.Duration(), time.Duration(0))
}

func TestScheduler_RunsSubmittedJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(testConfig(), zap.NewNop())
	ran := make(chan struct{}, 1)
	s.Register(JobKindReminderSweep, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})

	var observed atomic.Int32
	s.SetObserver(func(kind JobKind, status JobStatus, _ time.Duration) {
		if kind == JobKindReminderSweep && status == JobStatusSuccess {
			observed.Add(1)
		}
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Submit(JobKindReminderSweep))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	require.Eventually(t, func() bool { return observed.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, JobStatusSuccess, s.LastRuns()[JobKindReminderSweep].Status)

	stop(t, s)
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(testConfig(), zap.NewNop())
	var calls atomic.Int32
	s.Register(JobKindContractSweep, func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("database unavailable")
		}
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Submit(JobKindContractSweep))

	require.Eventually(t, func() bool {
		return s.LastRuns()[JobKindContractSweep].Status == JobStatusSuccess
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, s.LastRuns()[JobKindContractSweep].RetryCount)

	stop(t, s)
}

func TestScheduler_GivesUpAfterRetryAttempts(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.RetryAttempts = 1
	s := NewScheduler(cfg, zap.NewNop())
	var calls atomic.Int32
	s.Register(JobKindContractSweep, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("still broken")
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Submit(JobKindContractSweep))

	require.Eventually(t, func() bool {
		run := s.LastRuns()[JobKindContractSweep]
		return run.Status == JobStatusFailed && run.RetryCount == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())

	stop(t, s)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.RetryAttempts = 0
	s := NewScheduler(cfg, zap.NewNop())
	s.Register(JobKindReminderSweep, func(ctx context.Context) error {
		panic("nil map")
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Submit(JobKindReminderSweep))

	require.Eventually(t, func() bool {
		return s.LastRuns()[JobKindReminderSweep].Status == JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, s.LastRuns()[JobKindReminderSweep].Error, "panicked")

	stop(t, s)
}

func TestScheduler_SubmitErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(testConfig(), zap.NewNop())
	s.Register(JobKindReminderSweep, func(context.Context) error { return nil })

	assert.ErrorIs(t, s.Submit(JobKindReminderSweep), ErrSchedulerNotRunning)
	assert.ErrorIs(t, s.Submit("UNKNOWN"), ErrUnknownJobKind)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "start is idempotent")
	stop(t, s)
	stop(t, s)
	assert.ErrorIs(t, s.Submit(JobKindReminderSweep), ErrSchedulerNotRunning)
}

func TestScheduler_QueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	s := NewScheduler(cfg, zap.NewNop())

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	s.Register(JobKindReminderSweep, func(ctx context.Context) error {
		once.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Submit(JobKindReminderSweep))
	<-started
	require.NoError(t, s.Submit(JobKindReminderSweep))
	assert.ErrorIs(t, s.Submit(JobKindReminderSweep), ErrJobQueueFull)

	close(release)
	stop(t, s)
}
