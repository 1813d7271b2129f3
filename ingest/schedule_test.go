package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	mu      sync.Mutex
	locked  map[string]bool
	denyAll bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{locked: map[string]bool{}} }

func (l *fakeLocker) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denyAll || l.locked[name] {
		return false, nil
	}
	l.locked[name] = true
	return true, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locked, name)
	return nil
}

func TestCronMatchesWildcardEveryMinute(t *testing.T) {
	assert.True(t, cronMatches("* * * * *", time.Now()))
}

func TestCronMatchesSpecificMinute(t *testing.T) {
	at := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	assert.True(t, cronMatches("30 9 * * *", at))
	assert.False(t, cronMatches("31 9 * * *", at))
}

func TestValidateRejectsWrongFieldCount(t *testing.T) {
	assert.Error(t, Validate("* * *"))
	assert.NoError(t, Validate("0 * * * *"))
}

func TestSchedulerRunsJobOnMatchingTick(t *testing.T) {
	var ran int32
	locker := newFakeLocker()
	job := ScheduledJob{
		Name:     "test-job",
		Schedule: "* * * * *",
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		},
	}

	s := NewScheduler([]ScheduledJob{job}, locker)
	ctx := context.Background()
	s.tick(ctx, time.Now())

	require.Eventually(t, func() bool { return atomic.LoadInt32(&ran) == 1 }, time.Second, time.Millisecond)
}

func TestSchedulerSkipsJobAlreadyLocked(t *testing.T) {
	var ran int32
	locker := newFakeLocker()
	locker.locked["schedule:locked-job"] = true

	job := ScheduledJob{
		Name:     "locked-job",
		Schedule: "* * * * *",
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		},
	}

	s := NewScheduler([]ScheduledJob{job}, locker)
	s.runJob(context.Background(), job)

	assert.EqualValues(t, 0, atomic.LoadInt32(&ran))
}

func TestRegisterJobRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(nil, nil)
	err := s.RegisterJob(ScheduledJob{Name: "bad", Schedule: "* * *"})
	assert.Error(t, err)
}

func TestRegisterJobAddsToActiveSchedules(t *testing.T) {
	s := NewScheduler(nil, nil)
	require.NoError(t, s.RegisterJob(ScheduledJob{Name: "arxiv-daily", Schedule: "0 6 * * *", Run: func(ctx context.Context) error { return nil }}))

	status := s.GetStatus(context.Background())
	assert.Equal(t, []string{"arxiv-daily"}, status.ActiveSchedules)
	assert.False(t, status.NextScheduledRun["arxiv-daily"].IsZero())
}

func TestRemoveJobDropsItFromActiveSchedules(t *testing.T) {
	s := NewScheduler([]ScheduledJob{{Name: "job-a", Schedule: "* * * * *", Run: func(ctx context.Context) error { return nil }}}, nil)
	s.RemoveJob("job-a")

	status := s.GetStatus(context.Background())
	assert.Empty(t, status.ActiveSchedules)
}

func TestGetStatusReportsLastResultAfterRunJob(t *testing.T) {
	job := ScheduledJob{Name: "job-a", Schedule: "* * * * *", Run: func(ctx context.Context) error { return nil }}
	s := NewScheduler([]ScheduledJob{job}, nil)
	s.runJob(context.Background(), job)

	status := s.GetStatus(context.Background())
	require.Contains(t, status.LastResult, "job-a")
	assert.True(t, status.LastResult["job-a"].Success)
}

func TestStartStopTogglesIsRunning(t *testing.T) {
	s := NewScheduler(nil, nil)
	s.Start(context.Background())
	require.Eventually(t, func() bool { return s.GetStatus(context.Background()).IsRunning }, time.Second, time.Millisecond)

	s.Stop()
	require.Eventually(t, func() bool { return !s.GetStatus(context.Background()).IsRunning }, time.Second, time.Millisecond)
}

func TestGetStatusReadsQueueDepthFromWiredFunc(t *testing.T) {
	s := NewScheduler(nil, nil).WithQueueDepthFunc(func(ctx context.Context) (int64, error) { return 7, nil })
	status := s.GetStatus(context.Background())
	assert.EqualValues(t, 7, status.QueueDepth)
}
