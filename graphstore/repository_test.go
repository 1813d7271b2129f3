package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencite/litgraph/model"
)

func TestNormalizeAliasKeyLowercasesAndTrims(t *testing.T) {
	assert.Equal(t, "gpt-4", normalizeAliasKey("  GPT-4  "))
	assert.Equal(t, "bert", normalizeAliasKey("BERT"))
}

func TestPropsToMapConvertsAllValueKinds(t *testing.T) {
	props := model.Properties{
		"name":   model.String("GPT-4"),
		"count":  model.Number(42),
		"public": model.Bool(true),
		"tags":   model.List(model.String("llm"), model.String("transformer")),
	}

	out := propsToMap(props)
	assert.Equal(t, "GPT-4", out["name"])
	assert.Equal(t, float64(42), out["count"])
	assert.Equal(t, true, out["public"])
	assert.Equal(t, []any{"llm", "transformer"}, out["tags"])
}

func TestUpsertEntityGeneratesIDWhenAbsent(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)
	entity, err := repo.UpsertEntity(context.Background(), model.GraphEntity{
		Type: model.EntityAIModel,
		Name: "GPT-4",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, entity.ID)
}

func TestGetEntityReturnsNilOnNotFound(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)

	entity, err := repo.GetEntity(context.Background(), model.EntityAIModel, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, entity)
}

func TestUpsertAliasBatchSkipsEmptyBatch(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)

	require.NoError(t, repo.UpsertAliasBatch(context.Background(), nil))
	assert.Empty(t, *fc.tx.calls)
}

func TestRecordDailyMetricsBatchSkipsEmptyBatch(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)

	require.NoError(t, repo.RecordDailyMetricsBatch(context.Background(), nil))
	assert.Empty(t, *fc.tx.calls)
}

func TestRecordDailyMetricsBatchRunsASingleUnwindStatement(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)

	batch := []model.DailyMetrics{
		{EntityID: "e1", CitationCount: 10},
		{EntityID: "e2", CitationCount: 20},
	}
	require.NoError(t, repo.RecordDailyMetricsBatch(context.Background(), batch))
	require.Len(t, *fc.tx.calls, 1)
	assert.Contains(t, (*fc.tx.calls)[0].Cypher, "UNWIND")
}

func TestRecordDailyMetricsDelegatesToBatch(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)

	require.NoError(t, repo.RecordDailyMetrics(context.Background(), model.DailyMetrics{EntityID: "e1"}))
	require.Len(t, *fc.tx.calls, 1)
}

func TestSaveTrendSnapshotStoresParallelPhaseArrays(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)

	snap := model.TrendSnapshot{
		PhaseDistribution: map[model.AdoptionPhase]int{model.PhaseGrowing: 3},
		HotTopics:         []string{"diffusion"},
	}
	require.NoError(t, repo.SaveTrendSnapshot(context.Background(), snap))

	require.Len(t, *fc.tx.calls, 1)
	call := (*fc.tx.calls)[0]
	assert.Contains(t, call.Cypher, "TrendSnapshot")
	assert.Equal(t, []string{"growing"}, call.Params["phases"])
	assert.Equal(t, []int{3}, call.Params["counts"])
	assert.Equal(t, []string{"diffusion"}, call.Params["hotTopics"])
}

func TestGetLatestTrendSnapshotReturnsNilWhenNoneStored(t *testing.T) {
	fc := newFakeConnection()
	repo := NewRepository(fc)

	snap, err := repo.GetLatestTrendSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}
