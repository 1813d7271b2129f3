package temporal

import (
	"context"
	"time"

	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/model"
)

// fakeRepo is a minimal in-memory graphstore.GraphRepository exercising
// only the metrics-related methods this package's tests need.
type fakeRepo struct {
	recorded  []model.DailyMetrics
	hotTopics []model.DailyMetrics
	snapshots []model.TrendSnapshot
	recordErr error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{} }

func (r *fakeRepo) UpsertEntity(ctx context.Context, e model.GraphEntity) (model.GraphEntity, error) {
	return e, nil
}
func (r *fakeRepo) GetEntity(ctx context.Context, t model.EntityType, name string) (*model.GraphEntity, error) {
	return nil, nil
}
func (r *fakeRepo) DeleteEntity(ctx context.Context, id string) error { return nil }

func (r *fakeRepo) UpsertRelation(ctx context.Context, rel model.GraphRelation) (model.GraphRelation, error) {
	return rel, nil
}
func (r *fakeRepo) DeleteRelation(ctx context.Context, id string) error { return nil }

func (r *fakeRepo) UpsertAlias(ctx context.Context, a model.Alias) error         { return nil }
func (r *fakeRepo) UpsertAliasBatch(ctx context.Context, batch []model.Alias) error { return nil }
func (r *fakeRepo) GetAlias(ctx context.Context, alias string) (*model.Alias, error) {
	return nil, nil
}
func (r *fakeRepo) DeleteAlias(ctx context.Context, alias string) error { return nil }
func (r *fakeRepo) LoadAliases(ctx context.Context, limit int) ([]model.Alias, error) {
	return nil, nil
}

func (r *fakeRepo) RecordDailyMetrics(ctx context.Context, m model.DailyMetrics) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.recorded = append(r.recorded, m)
	return nil
}

func (r *fakeRepo) RecordDailyMetricsBatch(ctx context.Context, batch []model.DailyMetrics) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.recorded = append(r.recorded, batch...)
	return nil
}

func (r *fakeRepo) GetLatestMetrics(ctx context.Context, entityID string, before time.Time) (*model.DailyMetrics, error) {
	var latest *model.DailyMetrics
	for i := range r.recorded {
		m := r.recorded[i]
		if m.EntityID != entityID || !m.Date.Before(before) {
			continue
		}
		if latest == nil || m.Date.After(latest.Date) {
			latest = &m
		}
	}
	return latest, nil
}

func (r *fakeRepo) GetHotTopics(ctx context.Context, limit int, minMomentum float64) ([]model.DailyMetrics, error) {
	return r.hotTopics, nil
}

func (r *fakeRepo) GetTimeline(ctx context.Context, entityID string, from, to time.Time, granularity string) ([]model.DailyMetrics, error) {
	var out []model.DailyMetrics
	for _, m := range r.recorded {
		if m.EntityID == entityID && !m.Date.Before(from) && !m.Date.After(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetPhaseDistribution(ctx context.Context) (map[model.AdoptionPhase]int, error) {
	dist := make(map[model.AdoptionPhase]int)
	latest := make(map[string]model.DailyMetrics)
	for _, m := range r.recorded {
		if cur, ok := latest[m.EntityID]; !ok || m.Date.After(cur.Date) {
			latest[m.EntityID] = m
		}
	}
	for _, m := range latest {
		dist[m.AdoptionPhase]++
	}
	return dist, nil
}

func (r *fakeRepo) SaveTrendSnapshot(ctx context.Context, s model.TrendSnapshot) error {
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *fakeRepo) GetLatestTrendSnapshot(ctx context.Context) (*model.TrendSnapshot, error) {
	if len(r.snapshots) == 0 {
		return nil, nil
	}
	return &r.snapshots[len(r.snapshots)-1], nil
}

func (r *fakeRepo) FindExistingPapers(ctx context.Context, limit int) ([]graphstore.PaperRecord, error) {
	return nil, nil
}
func (r *fakeRepo) SavePaper(ctx context.Context, p graphstore.PaperRecord) error { return nil }

func (r *fakeRepo) RelationsFrom(ctx context.Context, entityID string) ([]model.GraphRelation, error) {
	return nil, nil
}
func (r *fakeRepo) GetEntityByID(ctx context.Context, id string) (*model.GraphEntity, error) {
	return nil, nil
}
func (r *fakeRepo) ListEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]model.GraphEntity, error) {
	return nil, nil
}

var _ graphstore.GraphRepository = (*fakeRepo)(nil)
