package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencite/litgraph/ingest"
	"github.com/opencite/litgraph/model"
)

var (
	scheduleJobs        []string
	scheduleArxivCron   string
	scheduleS2Cron      string
	scheduleStatusEvery time.Duration
	scheduleWorkers     int
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run recurring ingestion jobs on a cron schedule, queued through a worker pool",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Register the configured jobs, start the scheduler and worker pool, and block until interrupted",
	RunE:  runScheduleRun,
}

func init() {
	scheduleCmd.PersistentFlags().StringSliceVar(&scheduleJobs, "jobs", []string{"arxiv", "semantic-scholar"}, "which sources to schedule (arxiv, semantic-scholar)")
	scheduleCmd.PersistentFlags().StringVar(&scheduleArxivCron, "arxiv-cron", "0 6 * * *", "cron expression for the arxiv job")
	scheduleCmd.PersistentFlags().StringVar(&scheduleS2Cron, "semantic-scholar-cron", "30 6 * * *", "cron expression for the semantic-scholar job")
	scheduleCmd.PersistentFlags().DurationVar(&scheduleStatusEvery, "status-interval", time.Minute, "how often to log scheduler status")
	scheduleCmd.PersistentFlags().IntVar(&scheduleWorkers, "workers", 5, "worker pool size per queue")

	scheduleCmd.AddCommand(scheduleRunCmd)
	ingestCmd.AddCommand(scheduleCmd)
}

// runScheduleRun wires a Scheduler and a worker Pool over a shared
// ingest.Service: each scheduled job's Run closure fetches the source's
// recent-paper list and enqueues one ingest.Job per paper onto a
// Redis-backed queue, while the pool's workers drain that queue concurrently
// by fetching and ingesting one paper at a time. The queue and the
// queue-depth reporting always use Redis: redis-url when set, otherwise
// redis://localhost:6379/0. Cross-process job locking uses the store's
// Redis cache, which exists only when redis-url is configured; without it
// the scheduler locks within this process only.
func runScheduleRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	svc, err := buildIngestionService(store.Repository)
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}

	redisURL := viperGetStringDefault("redis.url", s.Redis.URL)
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	queue, err := ingest.NewRedisQueue(ctx, ingest.QueueConfig{RedisURL: redisURL})
	if err != nil {
		return fmt.Errorf("cli: scheduling ingestion: %w", err)
	}
	defer queue.Close()

	sources := map[string]ingest.SourceFetcher{}
	enabled := map[string]bool{}
	for _, j := range scheduleJobs {
		enabled[strings.TrimSpace(j)] = true
	}

	arxivClient := ingest.NewBibliographicClient(s.Sources.ArxivBaseURL, sharedLimiter())
	sources["arxiv"] = arxivClient
	s2Client := ingest.NewSemanticScholarClient(s.Sources.SemanticScholarBaseURL, sharedLimiter())
	sources["semantic-scholar"] = s2Client

	pool := ingest.NewPool(queue, ingest.NewJobProcessor(svc, sources), ingest.PoolConfig{
		Queues: map[string]int{"arxiv": scheduleWorkers, "semantic-scholar": scheduleWorkers},
	})
	pool.Start(ctx)
	defer pool.Stop()

	jobs := []ingest.ScheduledJob{
		{
			Name:     "arxiv-daily",
			Schedule: scheduleArxivCron,
			Run:      enqueueFetchJob(queue, "arxiv", ingestQuery, ingestMaxResults, arxivClient.FetchRecent),
		},
		{
			Name:     "semantic-scholar-daily",
			Schedule: scheduleS2Cron,
			Run:      enqueueFetchJob(queue, "semantic-scholar", ingestQuery, ingestMaxResults, s2Client.FetchRecent),
		},
	}

	var locker ingest.Locker
	if store.Cache != nil {
		locker = store.Cache
	}
	// Every known job is registered up front, then disabled sources are
	// unregistered immediately via RemoveJob: --jobs is a live toggle, not a
	// filter applied at registration time, so removing a source at runtime
	// (once this command grows a companion admin surface) follows the same
	// path as disabling one from the flag.
	scheduler := ingest.NewScheduler(nil, locker)
	for _, job := range jobs {
		if err := scheduler.RegisterJob(job); err != nil {
			return fmt.Errorf("cli: scheduling ingestion: %w", err)
		}
	}
	for _, job := range jobs {
		name := strings.TrimSuffix(job.Name, "-daily")
		if !enabled[name] {
			scheduler.RemoveJob(job.Name)
		}
	}
	scheduler.WithQueueDepthFunc(func(ctx context.Context) (int64, error) {
		var total int64
		for _, queueName := range []string{"arxiv", "semantic-scholar"} {
			depth, err := queue.QueueDepth(ctx, queueName)
			if err != nil {
				return 0, err
			}
			total += depth
		}
		return total, nil
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(runCtx)

	ticker := time.NewTicker(scheduleStatusEvery)
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			scheduler.Stop()
			return nil
		case <-ticker.C:
			_ = printJSON(scheduler.GetStatus(runCtx))
		}
	}
}

// enqueueFetchJob builds a ScheduledJob.Run closure that fetches the
// source's recent papers and enqueues one job per paper, keeping the
// scheduler tick itself cheap: the actual fetch+dedupe+enrich+sink work
// happens in the worker pool, independent of the schedule loop.
func enqueueFetchJob(queue *ingest.RedisQueue, queueName, query string, maxResults int, fetch func(ctx context.Context, query string, maxResults int) ([]model.Paper, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		papers, err := fetch(ctx, query, maxResults)
		if err != nil {
			return fmt.Errorf("fetching recent papers: %w", err)
		}
		for _, p := range papers {
			if p.ExternalID == "" {
				continue
			}
			job := ingest.Job{PaperID: p.ExternalID, Source: queueName, QueueName: queueName, EnqueuedAt: time.Now()}
			if err := queue.Enqueue(ctx, job); err != nil {
				return fmt.Errorf("enqueuing %s: %w", p.ExternalID, err)
			}
		}
		return nil
	}
}
