package reasoner

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opencite/litgraph/model"
)

const defaultPathCacheSize = 1024

// PathCache caches FindPaths results keyed by the canonical (unordered)
// endpoint pair and hop bound, with a TTL on top of LRU eviction, and
// tracks hit-rate for observability.
type PathCache struct {
	mu        sync.Mutex
	entries   *lru.Cache[string, pathCacheEntry]
	ttl       time.Duration
	hits      uint64
	misses    uint64
}

type pathCacheEntry struct {
	paths     []model.Path
	cachedAt  time.Time
}

// CacheResult is what PathCache.Get returns on a hit: the cached paths
// alongside whether they were served from cache and when they were stored,
// so callers can report cache provenance to API consumers.
type CacheResult struct {
	Paths     []model.Path
	FromCache bool
	CachedAt  time.Time
}

// NewPathCache builds a cache holding up to size entries (default 1024),
// each valid for ttl.
func NewPathCache(size int, ttl time.Duration) *PathCache {
	if size <= 0 {
		size = defaultPathCacheSize
	}
	cache, _ := lru.New[string, pathCacheEntry](size)
	return &PathCache{entries: cache, ttl: ttl}
}

// canonicalPathKey derives a cache key that is identical for (a, b) and
// (b, a) endpoint pairs under the same hop bound, since path finding between
// two nodes is direction-agnostic for the BFS walk this cache fronts.
func canonicalPathKey(fromID, toID string, maxHops int) string {
	ids := []string{fromID, toID}
	sort.Strings(ids)
	return fmt.Sprintf("%s|%s|%d", ids[0], ids[1], maxHops)
}

// canonicalQueryKey derives a PathQuery's cache key over
// (startType, startName|*, endType, endName|*, sortedRelationTypes, maxHops),
// matching the canonical form InvalidateByEntity/InvalidateByEntityType
// pattern-match against.
func canonicalQueryKey(q PathQuery) string {
	startName := q.StartEntityName
	if startName == "" {
		startName = "*"
	}
	endName := q.EndEntityName
	if endName == "" {
		endName = "*"
	}

	include := relationTypeStrings(q.RelationTypes)
	sort.Strings(include)
	exclude := relationTypeStrings(q.ExcludeRelations)
	sort.Strings(exclude)

	return fmt.Sprintf("%s:%s>%s:%s|rel=%s|excl=%s|hops=%d",
		q.StartEntityType, startName, q.EndEntityType, endName,
		strings.Join(include, ","), strings.Join(exclude, ","), q.MaxHops)
}

func relationTypeStrings(types []model.RelationType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// Get returns the cached paths for key if present and not expired, along
// with FromCache/CachedAt provenance so callers can surface where the
// result came from.
func (c *PathCache) Get(key string) (CacheResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(key)
	if !ok {
		c.misses++
		return CacheResult{}, false
	}
	if c.ttl > 0 && time.Since(entry.cachedAt) > c.ttl {
		c.entries.Remove(key)
		c.misses++
		return CacheResult{}, false
	}
	c.hits++
	return CacheResult{Paths: entry.paths, FromCache: true, CachedAt: entry.cachedAt}, true
}

// Put stores paths under key.
func (c *PathCache) Put(key string, paths []model.Path) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, pathCacheEntry{paths: paths, cachedAt: time.Now()})
}

// Invalidate removes a single cached entry by its fromID/toID/maxHops, if
// present.
func (c *PathCache) Invalidate(fromID, toID string, maxHops int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(canonicalPathKey(fromID, toID, maxHops))
}

// InvalidatePattern removes every cached entry whose canonical key
// contains substr; InvalidateByEntity and InvalidateByEntityType are
// thin wrappers over it.
func (c *PathCache) InvalidatePattern(substr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.entries.Keys() {
		if strings.Contains(key, substr) {
			c.entries.Remove(key)
		}
	}
}

// InvalidateByEntity removes every cached entry whose canonical key
// references name as a start or end entity name.
func (c *PathCache) InvalidateByEntity(name string) {
	c.InvalidatePattern(":" + name + ">")
	c.InvalidatePattern(":" + name + "|")
}

// InvalidateByEntityType removes every cached entry whose canonical key
// names entityType as the start or end entity type.
func (c *PathCache) InvalidateByEntityType(entityType model.EntityType) {
	c.InvalidatePattern(string(entityType) + ":")
	c.InvalidatePattern(">" + string(entityType) + ":")
}

// Purge clears every cached entry, used when underlying graph mutations
// make the whole cache untrustworthy.
func (c *PathCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.hits, c.misses = 0, 0
}

// HitRate returns the fraction of Get calls that were served from cache.
func (c *PathCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// WarmUp populates the cache with a precomputed result, bypassing the
// finder, useful for seeding frequently requested pairs ahead of traffic.
func (c *PathCache) WarmUp(fromID, toID string, maxHops int, paths []model.Path) {
	c.Put(canonicalPathKey(fromID, toID, maxHops), paths)
}

// WarmUpQueries populates the cache for a batch of PathQuery values using
// fetcher to compute any not already cached; already-cached keys are
// skipped and individual fetcher errors are collected by query index
// without aborting the remaining warm-up.
func (c *PathCache) WarmUpQueries(queries []PathQuery, fetcher func(PathQuery) ([]model.Path, error)) map[int]error {
	errs := make(map[int]error)
	for i, q := range queries {
		key := canonicalQueryKey(q)
		if _, ok := c.Get(key); ok {
			continue
		}
		paths, err := fetcher(q)
		if err != nil {
			errs[i] = err
			continue
		}
		c.Put(key, paths)
	}
	return errs
}
