// Package temporal implements trend-metrics recording, hot-topic
// detection, and multi-method numeric forecasting over the stored
// per-entity daily citation time series.
package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/opencite/litgraph/common"
	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/model"
)

// Service records daily citation metrics, classifies adoption phase, and
// answers hot-topic and timeline queries against a graphstore.GraphRepository.
type Service struct {
	repo   graphstore.GraphRepository
	clock  func() time.Time
	logger *common.ContextLogger
}

// NewService wraps repo. clock defaults to time.Now and stamps each
// snapshot's CapturedAt; tests override it for a deterministic timestamp.
func NewService(repo graphstore.GraphRepository) *Service {
	return &Service{repo: repo, clock: time.Now, logger: common.ServiceLogger("temporal", "metrics")}
}

// RecordOptions is the per-entity observation fed into RecordMetrics.
type RecordOptions struct {
	EntityID      string
	Date          time.Time
	CitationCount int
	PublishedDate time.Time
}

// RecordMetrics computes velocity and momentum against the entity's most
// recent prior observation, classifies the adoption phase, and persists
// the resulting DailyMetrics.
func (s *Service) RecordMetrics(ctx context.Context, opts RecordOptions) (model.DailyMetrics, error) {
	previous, err := s.repo.GetLatestMetrics(ctx, opts.EntityID, opts.Date)
	if err != nil {
		return model.DailyMetrics{}, fmt.Errorf("temporal: loading previous metrics for %s: %w", opts.EntityID, err)
	}

	velocity, momentum := computeVelocityMomentum(opts.CitationCount, previous)
	monthsSincePublication := monthsBetween(opts.PublishedDate, opts.Date)
	phase := ClassifyPhase(momentum, velocity, opts.CitationCount, monthsSincePublication)

	metrics := model.DailyMetrics{
		EntityID:      opts.EntityID,
		Date:          opts.Date,
		CitationCount: opts.CitationCount,
		Velocity:      velocity,
		Momentum:      momentum,
		AdoptionPhase: phase,
	}

	if err := s.repo.RecordDailyMetrics(ctx, metrics); err != nil {
		return model.DailyMetrics{}, fmt.Errorf("temporal: recording metrics for %s: %w", opts.EntityID, err)
	}
	return metrics, nil
}

// BatchResult summarizes a RecordMetricsBatch call.
type BatchResult struct {
	Recorded int
	Failed   int
	Errors   []error
}

// RecordMetricsBatch computes velocity/momentum/phase for each observation
// independently (each depends on its own entity's prior metrics), then
// flushes every successfully computed item in a single store-side batch via
// RecordDailyMetricsBatch, rather than one round-trip per item.
func (s *Service) RecordMetricsBatch(ctx context.Context, items []RecordOptions) BatchResult {
	result := BatchResult{}
	metrics := make([]model.DailyMetrics, 0, len(items))

	for _, item := range items {
		previous, err := s.repo.GetLatestMetrics(ctx, item.EntityID, item.Date)
		if err != nil {
			result.Failed++
			wrapped := fmt.Errorf("temporal: loading previous metrics for %s: %w", item.EntityID, err)
			result.Errors = append(result.Errors, wrapped)
			s.logger.WithError(wrapped).WithField("entityId", item.EntityID).Warn("recording daily metrics failed")
			continue
		}

		velocity, momentum := computeVelocityMomentum(item.CitationCount, previous)
		monthsSincePublication := monthsBetween(item.PublishedDate, item.Date)
		phase := ClassifyPhase(momentum, velocity, item.CitationCount, monthsSincePublication)

		metrics = append(metrics, model.DailyMetrics{
			EntityID:      item.EntityID,
			Date:          item.Date,
			CitationCount: item.CitationCount,
			Velocity:      velocity,
			Momentum:      momentum,
			AdoptionPhase: phase,
		})
	}

	if len(metrics) == 0 {
		return result
	}
	if err := s.repo.RecordDailyMetricsBatch(ctx, metrics); err != nil {
		wrapped := fmt.Errorf("temporal: recording metrics batch: %w", err)
		result.Failed += len(metrics)
		result.Errors = append(result.Errors, wrapped)
		s.logger.WithError(wrapped).WithField("count", len(metrics)).Warn("recording daily metrics batch failed")
		return result
	}
	result.Recorded += len(metrics)
	return result
}

// computeVelocityMomentum applies the day-over-day velocity and percentage
// momentum formulas; momentum is 0 when there is no prior observation or
// its citation count was 0, since a percentage change is undefined there.
func computeVelocityMomentum(citationCount int, previous *model.DailyMetrics) (velocity, momentum float64) {
	if previous == nil {
		return float64(citationCount), 0
	}
	velocity = float64(citationCount - previous.CitationCount)
	if previous.CitationCount > 0 {
		momentum = (float64(citationCount-previous.CitationCount) / float64(previous.CitationCount)) * 100
	}
	return velocity, momentum
}

func monthsBetween(from, to time.Time) float64 {
	if from.IsZero() {
		return 0
	}
	days := to.Sub(from).Hours() / 24
	return days / 30.44
}

// ClassifyPhase deterministically maps (momentum, velocity, citationCount,
// monthsSincePublication) onto an AdoptionPhase. An entity with little or
// no citation history is emerging regardless of momentum; beyond that,
// phase follows momentum direction and magnitude, tempered by age.
func ClassifyPhase(momentum, velocity float64, citationCount int, monthsSincePublication float64) model.AdoptionPhase {
	switch {
	case citationCount < 5 && monthsSincePublication < 6:
		return model.PhaseEmerging
	case momentum < -5:
		return model.PhaseDeclining
	case momentum > 15 || (velocity > 0 && monthsSincePublication < 12):
		return model.PhaseGrowing
	default:
		return model.PhaseMature
	}
}

// HotTopicsResult bundles the hot-topic list with the aggregate stats
// reported alongside it.
type HotTopicsResult struct {
	Topics        []model.DailyMetrics
	TotalEmerging int
	AvgMomentum   float64
}

// GetHotTopics fetches the top entities by recent momentum exceeding
// minMomentum, along with a count of how many qualify as newly emerging
// (momentum > 1.5x the threshold) and the average momentum across the set.
func (s *Service) GetHotTopics(ctx context.Context, limit int, minMomentum float64) (HotTopicsResult, error) {
	topics, err := s.repo.GetHotTopics(ctx, limit, minMomentum)
	if err != nil {
		return HotTopicsResult{}, fmt.Errorf("temporal: fetching hot topics: %w", err)
	}

	var emerging int
	var momentumSum float64
	for _, t := range topics {
		if t.Momentum > 1.5*minMomentum {
			emerging++
		}
		momentumSum += t.Momentum
	}

	avg := 0.0
	if len(topics) > 0 {
		avg = momentumSum / float64(len(topics))
	}
	return HotTopicsResult{Topics: topics, TotalEmerging: emerging, AvgMomentum: avg}, nil
}

// CaptureSnapshot materializes the current trend state: the adoption-phase
// distribution across all tracked entities plus the hot-topic list for the
// given limit and momentum threshold. The snapshot is persisted before it
// is returned, so a read of the latest snapshot always reflects the most
// recent capture.
func (s *Service) CaptureSnapshot(ctx context.Context, limit int, minMomentum float64) (model.TrendSnapshot, error) {
	dist, err := s.repo.GetPhaseDistribution(ctx)
	if err != nil {
		return model.TrendSnapshot{}, fmt.Errorf("temporal: aggregating phase distribution: %w", err)
	}

	hot, err := s.GetHotTopics(ctx, limit, minMomentum)
	if err != nil {
		return model.TrendSnapshot{}, err
	}
	topics := make([]string, 0, len(hot.Topics))
	for _, t := range hot.Topics {
		topics = append(topics, t.EntityID)
	}

	snapshot := model.TrendSnapshot{
		CapturedAt:        s.clock(),
		PhaseDistribution: dist,
		HotTopics:         topics,
	}
	if err := s.repo.SaveTrendSnapshot(ctx, snapshot); err != nil {
		return model.TrendSnapshot{}, fmt.Errorf("temporal: saving trend snapshot: %w", err)
	}
	s.logger.WithFields(map[string]any{
		"hotTopics": len(topics),
		"phases":    len(dist),
	}).Info("trend snapshot captured")
	return snapshot, nil
}

// GetLatestSnapshot returns the most recently materialized snapshot, nil
// when none exists.
func (s *Service) GetLatestSnapshot(ctx context.Context) (*model.TrendSnapshot, error) {
	snap, err := s.repo.GetLatestTrendSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("temporal: fetching latest trend snapshot: %w", err)
	}
	return snap, nil
}

// GetTimeline returns an entity's DailyMetrics series between from and to
// at the requested granularity, delegating aggregation to the repository.
func (s *Service) GetTimeline(ctx context.Context, entityID string, from, to time.Time, granularity string) ([]model.DailyMetrics, error) {
	series, err := s.repo.GetTimeline(ctx, entityID, from, to, granularity)
	if err != nil {
		return nil, fmt.Errorf("temporal: fetching timeline for %s: %w", entityID, err)
	}
	return series, nil
}
