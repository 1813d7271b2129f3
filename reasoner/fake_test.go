package reasoner

import (
	"context"
	"time"

	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/model"
)

// fakeRepo is a minimal in-memory GraphRepository: only the adjacency
// methods the path finder actually calls are backed by real data, every
// other method is an unused stub to satisfy the interface.
type fakeRepo struct {
	entities  map[string]model.GraphEntity
	relations map[string][]model.GraphRelation // keyed by either endpoint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entities: map[string]model.GraphEntity{}, relations: map[string][]model.GraphRelation{}}
}

func (f *fakeRepo) addEntity(id string, t model.EntityType, name string) {
	f.entities[id] = model.GraphEntity{ID: id, Type: t, Name: name}
}

func (f *fakeRepo) addRelation(rel model.GraphRelation) {
	f.relations[rel.SourceID] = append(f.relations[rel.SourceID], rel)
	f.relations[rel.TargetID] = append(f.relations[rel.TargetID], rel)
}

func (f *fakeRepo) RelationsFrom(ctx context.Context, entityID string) ([]model.GraphRelation, error) {
	return f.relations[entityID], nil
}

func (f *fakeRepo) GetEntityByID(ctx context.Context, id string) (*model.GraphEntity, error) {
	e, ok := f.entities[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeRepo) ListEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]model.GraphEntity, error) {
	var out []model.GraphEntity
	for _, e := range f.entities {
		if e.Type != entityType {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertEntity(ctx context.Context, e model.GraphEntity) (model.GraphEntity, error) {
	return e, nil
}
func (f *fakeRepo) GetEntity(ctx context.Context, entityType model.EntityType, name string) (*model.GraphEntity, error) {
	for _, e := range f.entities {
		if e.Type == entityType && e.Name == name {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}
func (f *fakeRepo) DeleteEntity(ctx context.Context, id string) error { return nil }
func (f *fakeRepo) UpsertRelation(ctx context.Context, r model.GraphRelation) (model.GraphRelation, error) {
	return r, nil
}
func (f *fakeRepo) DeleteRelation(ctx context.Context, id string) error                { return nil }
func (f *fakeRepo) UpsertAlias(ctx context.Context, a model.Alias) error                { return nil }
func (f *fakeRepo) UpsertAliasBatch(ctx context.Context, batch []model.Alias) error     { return nil }
func (f *fakeRepo) GetAlias(ctx context.Context, alias string) (*model.Alias, error)    { return nil, nil }
func (f *fakeRepo) DeleteAlias(ctx context.Context, alias string) error                 { return nil }
func (f *fakeRepo) LoadAliases(ctx context.Context, limit int) ([]model.Alias, error)   { return nil, nil }
func (f *fakeRepo) RecordDailyMetrics(ctx context.Context, m model.DailyMetrics) error  { return nil }
func (f *fakeRepo) RecordDailyMetricsBatch(ctx context.Context, batch []model.DailyMetrics) error {
	return nil
}
func (f *fakeRepo) GetLatestMetrics(ctx context.Context, entityID string, before time.Time) (*model.DailyMetrics, error) {
	return nil, nil
}
func (f *fakeRepo) GetHotTopics(ctx context.Context, limit int, minMomentum float64) ([]model.DailyMetrics, error) {
	return nil, nil
}
func (f *fakeRepo) GetTimeline(ctx context.Context, entityID string, from, to time.Time, granularity string) ([]model.DailyMetrics, error) {
	return nil, nil
}
func (f *fakeRepo) GetPhaseDistribution(ctx context.Context) (map[model.AdoptionPhase]int, error) {
	return nil, nil
}
func (f *fakeRepo) SaveTrendSnapshot(ctx context.Context, s model.TrendSnapshot) error { return nil }
func (f *fakeRepo) GetLatestTrendSnapshot(ctx context.Context) (*model.TrendSnapshot, error) {
	return nil, nil
}
func (f *fakeRepo) FindExistingPapers(ctx context.Context, limit int) ([]model.Paper, error) {
	return nil, nil
}
func (f *fakeRepo) SavePaper(ctx context.Context, p model.Paper) error { return nil }

var _ graphstore.GraphRepository = (*fakeRepo)(nil)
