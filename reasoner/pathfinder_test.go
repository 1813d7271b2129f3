package reasoner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencite/litgraph/model"
)

func weight(w float64) *float64 { return &w }

func buildChainRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.addEntity("a", model.EntityAIModel, "GPT-4")
	repo.addEntity("b", model.EntityTechnique, "RLHF")
	repo.addEntity("c", model.EntityOrganization, "OpenAI")

	repo.addRelation(model.GraphRelation{ID: "r1", Type: model.RelUses, SourceID: "a", TargetID: "b", Weight: weight(0.9)})
	repo.addRelation(model.GraphRelation{ID: "r2", Type: model.RelDevelopedBy, SourceID: "a", TargetID: "c", Weight: weight(0.8)})
	return repo
}

func TestFindPathsDirectHop(t *testing.T) {
	repo := buildChainRepo()
	finder := NewPathFinder(repo, nil)

	paths, err := finder.FindPaths(context.Background(), "a", "b", 2)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"a", "b"}, paths[0].NodeIDs())
}

func TestFindPathsRespectsMaxHops(t *testing.T) {
	repo := newFakeRepo()
	repo.addEntity("a", model.EntityAIModel, "A")
	repo.addEntity("b", model.EntityAIModel, "B")
	repo.addEntity("c", model.EntityAIModel, "C")
	repo.addRelation(model.GraphRelation{ID: "r1", Type: model.RelUses, SourceID: "a", TargetID: "b"})
	repo.addRelation(model.GraphRelation{ID: "r2", Type: model.RelUses, SourceID: "b", TargetID: "c"})

	finder := NewPathFinder(repo, nil)

	paths, err := finder.FindPaths(context.Background(), "a", "c", 1)
	require.NoError(t, err)
	assert.Empty(t, paths, "c is two hops away, must not be reachable within maxHops=1")

	paths, err = finder.FindPaths(context.Background(), "a", "c", 2)
	require.NoError(t, err)
	require.Len(t, paths, 1)
}

func TestFindPathsRejectsCycles(t *testing.T) {
	repo := newFakeRepo()
	repo.addEntity("a", model.EntityAIModel, "A")
	repo.addEntity("b", model.EntityAIModel, "B")
	repo.addRelation(model.GraphRelation{ID: "r1", Type: model.RelUses, SourceID: "a", TargetID: "b"})
	repo.addRelation(model.GraphRelation{ID: "r2", Type: model.RelUses, SourceID: "b", TargetID: "a"})

	finder := NewPathFinder(repo, nil)

	paths, err := finder.FindPaths(context.Background(), "a", "a", 3)
	require.NoError(t, err)
	for _, p := range paths {
		assert.True(t, p.IsAcyclic())
	}
}

func TestFindPathsRanksByConfidenceDescending(t *testing.T) {
	repo := newFakeRepo()
	repo.addEntity("a", model.EntityAIModel, "A")
	repo.addEntity("b", model.EntityAIModel, "B")
	repo.addEntity("c", model.EntityAIModel, "C")
	repo.addRelation(model.GraphRelation{ID: "weak", Type: model.RelUses, SourceID: "a", TargetID: "b", Weight: weight(0.1)})
	repo.addRelation(model.GraphRelation{ID: "strong", Type: model.RelUses, SourceID: "a", TargetID: "c", Weight: weight(0.9)})

	finder := NewPathFinder(repo, nil)

	var allPaths []model.Path
	for _, target := range []string{"b", "c"} {
		p, err := finder.FindPaths(context.Background(), "a", target, 1)
		require.NoError(t, err)
		allPaths = append(allPaths, p...)
	}
	rankPaths(allPaths)
	require.Len(t, allPaths, 2)
	assert.Greater(t, *allPaths[0].Score, *allPaths[1].Score)
}

func TestFindPathsBatchRunsConcurrentlyAndPreservesOrder(t *testing.T) {
	repo := buildChainRepo()
	finder := NewPathFinder(repo, nil)

	requests := []PathRequest{
		{FromID: "a", ToID: "b", MaxHops: 1},
		{FromID: "a", ToID: "c", MaxHops: 1},
		{FromID: "a", ToID: "does-not-exist", MaxHops: 1},
	}

	results, err := finder.FindPathsBatch(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "b", results[0].Request.ToID)
	assert.Equal(t, "c", results[1].Request.ToID)
	assert.Empty(t, results[2].Paths)
}

func TestFindWeightedPathsDirect(t *testing.T) {
	repo := newFakeRepo()
	repo.addEntity("a", model.EntityAIModel, "A")
	repo.addEntity("b", model.EntityAIModel, "B")
	repo.addRelation(model.GraphRelation{ID: "r1", Type: model.RelUses, SourceID: "a", TargetID: "b", Weight: weight(0.7)})

	finder := NewPathFinder(repo, nil)
	paths, err := finder.FindWeightedPaths(context.Background(), "a", "b", 1, nil)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.NotNil(t, paths[0].TotalWeight)
	assert.InDelta(t, 0.7, *paths[0].TotalWeight, 0.0001)
}

func TestFindPathsByQueryResolvesByTypeAndName(t *testing.T) {
	repo := buildChainRepo()
	finder := NewPathFinder(repo, nil)

	result, err := finder.FindPathsByQuery(context.Background(), PathQuery{
		StartEntityType: model.EntityAIModel,
		StartEntityName: "GPT-4",
		EndEntityType:   model.EntityTechnique,
		EndEntityName:   "RLHF",
		MaxHops:         2,
	})
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Equal(t, 1, result.Statistics.Total)
	assert.Equal(t, 1, result.Statistics.MinHops)
	assert.Equal(t, 1, result.Statistics.MaxHops)
	assert.Equal(t, 1.0, result.Statistics.AvgHops)
}

func TestFindPathsByQueryWildcardEndNameMatchesAnyOfType(t *testing.T) {
	repo := buildChainRepo()
	finder := NewPathFinder(repo, nil)

	result, err := finder.FindPathsByQuery(context.Background(), PathQuery{
		StartEntityType: model.EntityAIModel,
		StartEntityName: "GPT-4",
		EndEntityType:   model.EntityTechnique,
		MaxHops:         2,
	})
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
}

func TestFindPathsByQueryRelationTypeFilterExcludesNonMatching(t *testing.T) {
	repo := buildChainRepo()
	finder := NewPathFinder(repo, nil)

	result, err := finder.FindPathsByQuery(context.Background(), PathQuery{
		StartEntityType:  model.EntityAIModel,
		StartEntityName:  "GPT-4",
		EndEntityType:    model.EntityTechnique,
		EndEntityName:    "RLHF",
		MaxHops:          2,
		ExcludeRelations: []model.RelationType{model.RelUses},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Paths)
}

func TestFindPathsUsesCache(t *testing.T) {
	repo := buildChainRepo()
	cache := NewPathCache(16, 0)
	finder := NewPathFinder(repo, cache)

	_, err := finder.FindPaths(context.Background(), "a", "b", 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cache.HitRate())

	_, err = finder.FindPaths(context.Background(), "a", "b", 1)
	require.NoError(t, err)
	assert.Greater(t, cache.HitRate(), 0.0)
}

func TestFindPathsByQuerySurfacesCacheProvenanceOnHit(t *testing.T) {
	repo := buildChainRepo()
	cache := NewPathCache(16, time.Hour)
	finder := NewPathFinder(repo, cache)
	query := PathQuery{StartEntityType: model.EntityAIModel, StartEntityName: "GPT-4", EndEntityType: model.EntityTechnique, EndEntityName: "RLHF", MaxHops: 1}

	first, err := finder.FindPathsByQuery(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := finder.FindPathsByQuery(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.False(t, second.CachedAt.IsZero())
}
