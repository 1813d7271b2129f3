package reasoner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/model"
)

const (
	defaultMaxConcurrency = 5
	maxRawPaths           = 100
	defaultWildcardLimit  = 25
)

// PathFinder runs bounded breadth-first search over the knowledge graph,
// ranking discovered paths by aggregate relation confidence.
type PathFinder struct {
	repo           graphstore.GraphRepository
	cache          *PathCache
	maxConcurrency int
}

// NewPathFinder wraps repo with BFS path finding. A nil cache disables
// caching.
func NewPathFinder(repo graphstore.GraphRepository, cache *PathCache) *PathFinder {
	return &PathFinder{repo: repo, cache: cache, maxConcurrency: defaultMaxConcurrency}
}

// PathQuery describes a multi-hop search in terms of entity types/names
// rather than raw store IDs: either endpoint's name may be left blank to
// mean "any entity of that type".
type PathQuery struct {
	StartEntityType  model.EntityType
	StartEntityName  string
	EndEntityType    model.EntityType
	EndEntityName    string
	MaxHops          int
	RelationTypes    []model.RelationType
	ExcludeRelations []model.RelationType
}

// PathStatistics summarizes a result set's hop distribution.
type PathStatistics struct {
	Total     int
	MinHops   int
	MaxHops   int
	AvgHops   float64
	PathsByHops map[int]int
}

// WeightFunc computes a relation's contribution to a path's total weight.
// The default is the relation's confidence, falling back to 0.5 when unset.
type WeightFunc func(model.GraphRelation) float64

func defaultWeightFunc(r model.GraphRelation) float64 { return r.Confidence(0.5) }

// FindPaths runs BFS from fromID to toID bounded by maxHops, rejects cyclic
// walks, sorts survivors by ascending hop count, and caps the result at 100
// raw paths.
func (f *PathFinder) FindPaths(ctx context.Context, fromID, toID string, maxHops int) ([]model.Path, error) {
	key := canonicalPathKey(fromID, toID, maxHops)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			return cached.Paths, nil
		}
	}

	paths, err := f.bfs(ctx, fromID, toID, maxHops, nil, nil)
	if err != nil {
		return nil, err
	}

	paths = rejectCycles(paths)
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].Hops() < paths[j].Hops() })
	paths = capPaths(paths)

	if f.cache != nil {
		f.cache.Put(key, paths)
	}
	return paths, nil
}

// FindWeightedPaths is FindPaths's weighted sibling: each relation
// contributes weightFn(rel) (defaulting to confidence, 0.5 when absent) to
// the path's TotalWeight, and results sort by descending total weight.
func (f *PathFinder) FindWeightedPaths(ctx context.Context, fromID, toID string, maxHops int, weightFn WeightFunc) ([]model.Path, error) {
	if weightFn == nil {
		weightFn = defaultWeightFunc
	}

	paths, err := f.bfs(ctx, fromID, toID, maxHops, nil, nil)
	if err != nil {
		return nil, err
	}
	paths = rejectCycles(paths)

	for i := range paths {
		var total float64
		for _, rel := range paths[i].Relations {
			total += weightFn(rel)
		}
		paths[i].TotalWeight = floatPtr(total)
	}
	sort.SliceStable(paths, func(i, j int) bool { return *paths[i].TotalWeight > *paths[j].TotalWeight })
	return capPaths(paths), nil
}

// FindPathsByQuery resolves a PathQuery's start/end entity types+names
// (enumerating every matching entity when a name is left blank) and runs
// BFS between every resolved pair, merging, deduplicating-by-ID, sorting by
// ascending hop count, capping at 100, and computing PathStatistics.
func (f *PathFinder) FindPathsByQuery(ctx context.Context, q PathQuery) (PathQueryResult, error) {
	key := canonicalQueryKey(q)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			return PathQueryResult{Paths: cached.Paths, Statistics: computeStatistics(cached.Paths), FromCache: true, CachedAt: cached.CachedAt}, nil
		}
	}

	startIDs, err := f.resolveEndpoints(ctx, q.StartEntityType, q.StartEntityName)
	if err != nil {
		return PathQueryResult{}, err
	}
	endIDs, err := f.resolveEndpoints(ctx, q.EndEntityType, q.EndEntityName)
	if err != nil {
		return PathQueryResult{}, err
	}
	endSet := make(map[string]struct{}, len(endIDs))
	for _, id := range endIDs {
		endSet[id] = struct{}{}
	}

	include := relationSet(q.RelationTypes)
	exclude := relationSet(q.ExcludeRelations)

	seen := make(map[string]struct{})
	var all []model.Path
	for _, startID := range startIDs {
		paths, err := f.bfsMulti(ctx, startID, endSet, q.MaxHops, include, exclude)
		if err != nil {
			return PathQueryResult{}, err
		}
		for _, p := range paths {
			k := pathDedupeKey(p)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			all = append(all, p)
		}
	}

	all = rejectCycles(all)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Hops() < all[j].Hops() })
	all = capPaths(all)

	if f.cache != nil {
		f.cache.Put(key, all)
	}
	return PathQueryResult{Paths: all, Statistics: computeStatistics(all)}, nil
}

// PathQueryResult pairs the ranked paths found for a PathQuery with summary
// statistics over their hop counts and cache provenance.
type PathQueryResult struct {
	Paths      []model.Path
	Statistics PathStatistics
	FromCache  bool
	CachedAt   time.Time
}

func computeStatistics(paths []model.Path) PathStatistics {
	stats := PathStatistics{PathsByHops: map[int]int{}}
	if len(paths) == 0 {
		return stats
	}
	stats.Total = len(paths)
	sum := 0
	stats.MinHops = paths[0].Hops()
	stats.MaxHops = paths[0].Hops()
	for _, p := range paths {
		h := p.Hops()
		if h < stats.MinHops {
			stats.MinHops = h
		}
		if h > stats.MaxHops {
			stats.MaxHops = h
		}
		sum += h
		stats.PathsByHops[h]++
	}
	stats.AvgHops = float64(sum) / float64(len(paths))
	return stats
}

func (f *PathFinder) resolveEndpoints(ctx context.Context, entityType model.EntityType, name string) ([]string, error) {
	if name != "" {
		e, err := f.repo.GetEntity(ctx, entityType, name)
		if err != nil {
			return nil, fmt.Errorf("reasoner: resolving %s %q: %w", entityType, name, err)
		}
		if e == nil {
			return nil, nil
		}
		return []string{e.ID}, nil
	}
	entities, err := f.repo.ListEntitiesByType(ctx, entityType, defaultWildcardLimit)
	if err != nil {
		return nil, fmt.Errorf("reasoner: listing %s entities: %w", entityType, err)
	}
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids, nil
}

func relationSet(types []model.RelationType) map[model.RelationType]struct{} {
	if len(types) == 0 {
		return nil
	}
	out := make(map[model.RelationType]struct{}, len(types))
	for _, t := range types {
		out[t] = struct{}{}
	}
	return out
}

func pathDedupeKey(p model.Path) string {
	s := ""
	for _, id := range p.NodeIDs() {
		s += id + ">"
	}
	return s
}

// FindPathsBatch runs FindPaths for every request concurrently, bounded by
// maxConcurrency (default 5), preserving the input order in the result
// slice.
func (f *PathFinder) FindPathsBatch(ctx context.Context, requests []PathRequest) ([]PathResult, error) {
	results := make([]PathResult, len(requests))

	for start := 0; start < len(requests); start += f.concurrency() {
		end := start + f.concurrency()
		if end > len(requests) {
			end = len(requests)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			req := requests[i]
			wg.Add(1)
			go func(i int, req PathRequest) {
				defer wg.Done()
				paths, err := f.FindPaths(ctx, req.FromID, req.ToID, req.MaxHops)
				results[i] = PathResult{Request: req, Paths: paths, Err: err}
			}(i, req)
		}
		wg.Wait()
	}

	return results, nil
}

func (f *PathFinder) concurrency() int {
	if f.maxConcurrency <= 0 {
		return defaultMaxConcurrency
	}
	return f.maxConcurrency
}

// PathRequest is one batched path-finding query.
type PathRequest struct {
	FromID  string
	ToID    string
	MaxHops int
}

// PathResult pairs a PathRequest with its outcome.
type PathResult struct {
	Request PathRequest
	Paths   []model.Path
	Err     error
}

type frontierEntry struct {
	nodeIDs []string
	nodes   []model.GraphEntity
	rels    []model.GraphRelation
}

// bfs explores the graph outward from fromID up to maxHops edges,
// collecting every walk that reaches toID. relation filters are applied
// when non-nil: include restricts expansion to listed types, exclude drops
// listed types.
func (f *PathFinder) bfs(ctx context.Context, fromID, toID string, maxHops int, include, exclude map[model.RelationType]struct{}) ([]model.Path, error) {
	endSet := map[string]struct{}{toID: {}}
	return f.bfsMulti(ctx, fromID, endSet, maxHops, include, exclude)
}

// bfsMulti is bfs generalized to a set of acceptable terminal node IDs,
// the primitive FindPathsByQuery uses when an endpoint name is a wildcard
// matching several entities of the same type.
func (f *PathFinder) bfsMulti(ctx context.Context, fromID string, toIDs map[string]struct{}, maxHops int, include, exclude map[model.RelationType]struct{}) ([]model.Path, error) {
	start, err := f.repo.GetEntityByID(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("reasoner: loading start node: %w", err)
	}
	if start == nil {
		return nil, fmt.Errorf("reasoner: start node %q not found", fromID)
	}

	frontier := []frontierEntry{{nodeIDs: []string{fromID}, nodes: []model.GraphEntity{*start}}}
	var found []model.Path

	for hop := 0; hop < maxHops; hop++ {
		var next []frontierEntry

		for _, entry := range frontier {
			current := entry.nodeIDs[len(entry.nodeIDs)-1]
			rels, err := f.repo.RelationsFrom(ctx, current)
			if err != nil {
				return nil, fmt.Errorf("reasoner: expanding %q: %w", current, err)
			}

			for _, rel := range rels {
				if include != nil {
					if _, ok := include[rel.Type]; !ok {
						continue
					}
				}
				if exclude != nil {
					if _, ok := exclude[rel.Type]; ok {
						continue
					}
				}

				neighborID := rel.TargetID
				if neighborID == current {
					neighborID = rel.SourceID
				}

				neighbor, err := f.repo.GetEntityByID(ctx, neighborID)
				if err != nil || neighbor == nil {
					continue
				}

				nodeIDs := append(append([]string{}, entry.nodeIDs...), neighborID)
				nodes := append(append([]model.GraphEntity{}, entry.nodes...), *neighbor)
				relations := append(append([]model.GraphRelation{}, entry.rels...), rel)

				if _, ok := toIDs[neighborID]; ok {
					found = append(found, model.Path{Nodes: nodes, Relations: relations})
					continue
				}

				next = append(next, frontierEntry{nodeIDs: nodeIDs, nodes: nodes, rels: relations})
			}
		}

		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	return found, nil
}

func capPaths(paths []model.Path) []model.Path {
	if len(paths) > maxRawPaths {
		return paths[:maxRawPaths]
	}
	return paths
}

// rankPaths scores each path by its mean relation confidence, weighted down
// by hop count, and sorts descending.
func rankPaths(paths []model.Path) {
	for i := range paths {
		paths[i].Score = floatPtr(scorePath(paths[i]))
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return *paths[i].Score > *paths[j].Score
	})
}

func scorePath(p model.Path) float64 {
	if len(p.Relations) == 0 {
		return 0
	}
	var sum float64
	for _, rel := range p.Relations {
		r := rel
		sum += r.Confidence(0.5)
	}
	mean := sum / float64(len(p.Relations))
	hopPenalty := 1.0 / float64(len(p.Relations))
	return mean * hopPenalty
}

func floatPtr(v float64) *float64 { return &v }
