package normalize

import (
	"context"
	"strings"
	"time"

	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/model"
)

// fakeRepository is an in-memory graphstore.GraphRepository sufficient to
// exercise the alias manager and cascade without a real store; every
// non-alias method is unused by this package's tests.
type fakeRepository struct {
	aliases map[string]model.Alias
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{aliases: make(map[string]model.Alias)}
}

func (r *fakeRepository) UpsertEntity(ctx context.Context, e model.GraphEntity) (model.GraphEntity, error) {
	return e, nil
}
func (r *fakeRepository) GetEntity(ctx context.Context, t model.EntityType, name string) (*model.GraphEntity, error) {
	return nil, nil
}
func (r *fakeRepository) DeleteEntity(ctx context.Context, id string) error { return nil }

func (r *fakeRepository) UpsertRelation(ctx context.Context, rel model.GraphRelation) (model.GraphRelation, error) {
	return rel, nil
}
func (r *fakeRepository) DeleteRelation(ctx context.Context, id string) error { return nil }

func (r *fakeRepository) UpsertAlias(ctx context.Context, a model.Alias) error {
	r.aliases[strings.ToLower(strings.TrimSpace(a.Alias))] = a
	return nil
}

func (r *fakeRepository) UpsertAliasBatch(ctx context.Context, batch []model.Alias) error {
	for _, a := range batch {
		r.aliases[strings.ToLower(strings.TrimSpace(a.Alias))] = a
	}
	return nil
}

func (r *fakeRepository) GetAlias(ctx context.Context, alias string) (*model.Alias, error) {
	a, ok := r.aliases[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *fakeRepository) DeleteAlias(ctx context.Context, alias string) error {
	delete(r.aliases, strings.ToLower(strings.TrimSpace(alias)))
	return nil
}

func (r *fakeRepository) LoadAliases(ctx context.Context, limit int) ([]model.Alias, error) {
	out := make([]model.Alias, 0, len(r.aliases))
	for _, a := range r.aliases {
		out = append(out, a)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepository) RecordDailyMetrics(ctx context.Context, m model.DailyMetrics) error { return nil }
func (r *fakeRepository) RecordDailyMetricsBatch(ctx context.Context, batch []model.DailyMetrics) error {
	return nil
}
func (r *fakeRepository) GetLatestMetrics(ctx context.Context, entityID string, before time.Time) (*model.DailyMetrics, error) {
	return nil, nil
}
func (r *fakeRepository) GetHotTopics(ctx context.Context, limit int, minMomentum float64) ([]model.DailyMetrics, error) {
	return nil, nil
}
func (r *fakeRepository) GetTimeline(ctx context.Context, entityID string, from, to time.Time, granularity string) ([]model.DailyMetrics, error) {
	return nil, nil
}

func (r *fakeRepository) GetPhaseDistribution(ctx context.Context) (map[model.AdoptionPhase]int, error) {
	return nil, nil
}
func (r *fakeRepository) SaveTrendSnapshot(ctx context.Context, s model.TrendSnapshot) error {
	return nil
}
func (r *fakeRepository) GetLatestTrendSnapshot(ctx context.Context) (*model.TrendSnapshot, error) {
	return nil, nil
}
func (r *fakeRepository) FindExistingPapers(ctx context.Context, limit int) ([]graphstore.PaperRecord, error) {
	return nil, nil
}
func (r *fakeRepository) SavePaper(ctx context.Context, p graphstore.PaperRecord) error { return nil }

func (r *fakeRepository) RelationsFrom(ctx context.Context, entityID string) ([]model.GraphRelation, error) {
	return nil, nil
}
func (r *fakeRepository) GetEntityByID(ctx context.Context, id string) (*model.GraphEntity, error) {
	return nil, nil
}
func (r *fakeRepository) ListEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]model.GraphEntity, error) {
	return nil, nil
}

var _ graphstore.GraphRepository = (*fakeRepository)(nil)
