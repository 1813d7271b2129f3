package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencite/litgraph/model"
)

func TestComputeVelocityMomentumWithNoPriorObservation(t *testing.T) {
	velocity, momentum := computeVelocityMomentum(10, nil)
	assert.Equal(t, 10.0, velocity)
	assert.Equal(t, 0.0, momentum)
}

func TestComputeVelocityMomentumAgainstPriorObservation(t *testing.T) {
	previous := &model.DailyMetrics{CitationCount: 20}
	velocity, momentum := computeVelocityMomentum(25, previous)
	assert.Equal(t, 5.0, velocity)
	assert.Equal(t, 25.0, momentum)
}

func TestComputeVelocityMomentumWithZeroPriorCitations(t *testing.T) {
	previous := &model.DailyMetrics{CitationCount: 0}
	_, momentum := computeVelocityMomentum(3, previous)
	assert.Equal(t, 0.0, momentum)
}

func TestClassifyPhaseEmergingForYoungLowCitationEntity(t *testing.T) {
	assert.Equal(t, model.PhaseEmerging, ClassifyPhase(0, 1, 2, 1))
}

func TestClassifyPhaseDecliningOnNegativeMomentum(t *testing.T) {
	assert.Equal(t, model.PhaseDeclining, ClassifyPhase(-10, -2, 50, 24))
}

func TestClassifyPhaseGrowingOnStrongMomentum(t *testing.T) {
	assert.Equal(t, model.PhaseGrowing, ClassifyPhase(20, 5, 30, 8))
}

func TestRecordMetricsPersistsComputedValues(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	day1, err := svc.RecordMetrics(ctx, RecordOptions{EntityID: "e1", Date: fixedDate(0), CitationCount: 10, PublishedDate: fixedDate(-30)})
	require.NoError(t, err)
	assert.Equal(t, 10.0, day1.Velocity)

	day2, err := svc.RecordMetrics(ctx, RecordOptions{EntityID: "e1", Date: fixedDate(1), CitationCount: 15, PublishedDate: fixedDate(-30)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, day2.Velocity)
	assert.InDelta(t, 50.0, day2.Momentum, 0.001)
	assert.Len(t, repo.recorded, 2)
}

func TestRecordMetricsBatchRecordsEveryItem(t *testing.T) {
	repo := newFakeRepo()
	repo.recordErr = nil
	svc := NewService(repo)

	result := svc.RecordMetricsBatch(context.Background(), []RecordOptions{
		{EntityID: "e1", Date: fixedDate(0), CitationCount: 5, PublishedDate: fixedDate(-10)},
		{EntityID: "e2", Date: fixedDate(0), CitationCount: 8, PublishedDate: fixedDate(-10)},
	})
	assert.Equal(t, 2, result.Recorded)
	assert.Equal(t, 0, result.Failed)
}

func TestGetHotTopicsComputesEmergingCountAndAverage(t *testing.T) {
	repo := newFakeRepo()
	repo.hotTopics = []model.DailyMetrics{
		{EntityID: "a", Momentum: 10},
		{EntityID: "b", Momentum: 2},
		{EntityID: "c", Momentum: 1},
	}
	svc := NewService(repo)

	result, err := svc.GetHotTopics(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalEmerging) // only momentum 10 > 1.5*5=7.5
	assert.InDelta(t, 13.0/3.0, result.AvgMomentum, 0.001)
}

func fixedDate(offsetDays int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offsetDays)
}

func TestCaptureSnapshotPersistsDistributionAndHotTopics(t *testing.T) {
	repo := newFakeRepo()
	repo.recorded = []model.DailyMetrics{
		{EntityID: "transformers", Date: day(1), AdoptionPhase: model.PhaseGrowing},
		{EntityID: "transformers", Date: day(2), AdoptionPhase: model.PhaseMature},
		{EntityID: "diffusion", Date: day(2), AdoptionPhase: model.PhaseGrowing},
	}
	repo.hotTopics = []model.DailyMetrics{
		{EntityID: "diffusion", Momentum: 40},
		{EntityID: "transformers", Momentum: 22},
	}

	svc := NewService(repo)
	captured := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return captured }

	snap, err := svc.CaptureSnapshot(context.Background(), 10, 10)
	require.NoError(t, err)

	assert.Equal(t, captured, snap.CapturedAt)
	// Only each entity's latest observation counts toward the distribution.
	assert.Equal(t, 1, snap.PhaseDistribution[model.PhaseMature])
	assert.Equal(t, 1, snap.PhaseDistribution[model.PhaseGrowing])
	assert.Equal(t, []string{"diffusion", "transformers"}, snap.HotTopics)

	latest, err := svc.GetLatestSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, snap.CapturedAt, latest.CapturedAt)
}

func day(n int) time.Time {
	return time.Date(2025, 6, n, 0, 0, 0, 0, time.UTC)
}
