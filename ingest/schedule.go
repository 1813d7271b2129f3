package ingest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opencite/litgraph/common"
)

// Locker is the distributed mutual-exclusion primitive the schedule runner
// uses to guarantee a named job never runs concurrently with itself across
// processes sharing one store.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

// ScheduledJob is one named, recurring ingestion task.
type ScheduledJob struct {
	Name     string
	Schedule string // five-field cron expression: minute hour day-of-month month day-of-week
	Run      func(ctx context.Context) error
	LockTTL  time.Duration
}

// JobStatus is the outcome of a ScheduledJob's most recent run.
type JobStatus struct {
	RanAt   time.Time
	Success bool
	Err     error
}

// QueueDepthFunc reports how many items are pending per-paper processing
// within the active ingestion batch; wired from a RedisQueue's QueueDepth.
type QueueDepthFunc func(ctx context.Context) (int64, error)

// SchedulerStatus is the runtime snapshot GetStatus returns.
type SchedulerStatus struct {
	IsRunning        bool
	LastResult       map[string]JobStatus
	NextScheduledRun map[string]time.Time
	ActiveSchedules  []string
	QueueDepth       int64
}

// Scheduler evaluates a registered set of ScheduledJob entries once a
// minute and runs any whose cron expression matches, serializing each named
// job across processes via Locker so the same job is never run twice
// concurrently. Jobs may be registered and removed at runtime.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[string]ScheduledJob
	locker Locker
	logger *common.ContextLogger
	now    func() time.Time

	running bool
	cancel  context.CancelFunc

	lastResult   map[string]JobStatus
	queueDepthFn QueueDepthFunc
}

// NewScheduler builds a Scheduler over jobs, using locker for cross-process
// serialization.
func NewScheduler(jobs []ScheduledJob, locker Locker) *Scheduler {
	s := &Scheduler{
		jobs:       make(map[string]ScheduledJob, len(jobs)),
		locker:     locker,
		logger:     common.ServiceLogger("ingest", "scheduler"),
		now:        time.Now,
		lastResult: make(map[string]JobStatus),
	}
	for _, job := range jobs {
		s.jobs[job.Name] = job
	}
	return s
}

// WithQueueDepthFunc wires fn as the source GetStatus reads queueDepth from,
// typically a RedisQueue's QueueDepth bound to the active ingestion queue.
func (s *Scheduler) WithQueueDepthFunc(fn QueueDepthFunc) *Scheduler {
	s.queueDepthFn = fn
	return s
}

// RegisterJob adds job to the schedule, replacing any existing job with the
// same name, after validating its cron expression. This is scheduleIngestion
// for a job whose Run closure already captures its ingestion options.
func (s *Scheduler) RegisterJob(job ScheduledJob) error {
	if err := Validate(job.Schedule); err != nil {
		return fmt.Errorf("ingest: registering job %q: %w", job.Name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = job
	return nil
}

// RemoveJob unregisters name; it is a no-op if name was never registered.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, name)
	delete(s.lastResult, name)
}

// Start launches the schedule loop in the background and returns
// immediately; it is a no-op if the scheduler is already running. Stop
// cancels the loop started this way.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	go func() {
		s.Run(runCtx)
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()
}

// Stop cancels a loop started by Start. It is a no-op if the scheduler is
// not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetStatus reports whether the schedule loop is running, the last outcome
// and next matching tick for every registered job, and the current queue
// depth from the wired QueueDepthFunc, if any.
func (s *Scheduler) GetStatus(ctx context.Context) SchedulerStatus {
	s.mu.Lock()
	status := SchedulerStatus{
		IsRunning:        s.running,
		LastResult:       make(map[string]JobStatus, len(s.lastResult)),
		NextScheduledRun: make(map[string]time.Time, len(s.jobs)),
		ActiveSchedules:  make([]string, 0, len(s.jobs)),
	}
	for name, result := range s.lastResult {
		status.LastResult[name] = result
	}
	now := s.now()
	for name, job := range s.jobs {
		status.ActiveSchedules = append(status.ActiveSchedules, name)
		status.NextScheduledRun[name] = nextMatch(job.Schedule, now)
	}
	queueDepthFn := s.queueDepthFn
	s.mu.Unlock()

	sort.Strings(status.ActiveSchedules)

	if queueDepthFn != nil {
		depth, err := queueDepthFn(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("failed to read queue depth")
		} else {
			status.QueueDepth = depth
		}
	}
	return status
}

// Run blocks, evaluating the schedule once a minute until ctx is cancelled.
// Most callers should use Start/Stop instead; Run is exposed directly for
// tests and for callers embedding the scheduler in their own run loop.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.tick(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, at time.Time) {
	s.mu.Lock()
	jobs := make([]ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	for _, job := range jobs {
		if !cronMatches(job.Schedule, at) {
			continue
		}
		go s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job ScheduledJob) {
	logger := s.logger.WithField("job", job.Name)

	ttl := job.LockTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, "schedule:"+job.Name, ttl)
		if err != nil {
			logger.WithError(err).Warn("failed to acquire schedule lock")
			return
		}
		if !acquired {
			logger.Info("skipping run: job already in progress elsewhere")
			return
		}
		defer func() { _ = s.locker.ReleaseLock(ctx, "schedule:"+job.Name) }()
	}

	logger.Info("running scheduled job")
	err := job.Run(ctx)
	s.recordResult(job.Name, err)
	if err != nil {
		logger.WithError(err).Error("scheduled job failed")
		return
	}
	logger.Info("scheduled job completed")
}

func (s *Scheduler) recordResult(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult[name] = JobStatus{RanAt: s.now(), Success: err == nil, Err: err}
}

// cronMatches evaluates a standard five-field cron expression
// (minute hour day-of-month month day-of-week) against at. Each field may
// be "*" or a literal integer; the feature set is deliberately small since
// the scheduler only drives a handful of fixed ingestion cadences.
func cronMatches(expr string, at time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	values := []int{at.Minute(), at.Hour(), at.Day(), int(at.Month()), int(at.Weekday())}
	for i, field := range fields {
		if field == "*" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n != values[i] {
			return false
		}
	}
	return true
}

// nextMatch scans forward minute-by-minute from after and returns the first
// time expr matches, bounded to one week out; it returns the zero Time if
// expr has no match within that window, which happens for a malformed
// expression and also for one whose literal day-of-month or month field
// next matches more than a week ahead.
func nextMatch(expr string, after time.Time) time.Time {
	t := after.Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 7*24*60; i++ {
		if cronMatches(expr, t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

// Validate checks that expr is a well-formed five-field cron expression.
func Validate(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("ingest: cron expression must have 5 fields, got %d", len(fields))
	}
	for _, field := range fields {
		if field == "*" {
			continue
		}
		if _, err := strconv.Atoi(field); err != nil {
			return fmt.Errorf("ingest: invalid cron field %q", field)
		}
	}
	return nil
}
