package normalize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opencite/litgraph/common"
	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/model"
)

const defaultAliasCacheSize = 2048

type aliasCacheEntry struct {
	alias     model.Alias
	cachedAt  time.Time
}

// AliasManager owns the alias↔canonical mapping: an LRU/TTL cache in front
// of the store's alias table. It is the exclusive writer of both; callers
// never touch the store's alias rows directly.
type AliasManager struct {
	repo     graphstore.GraphRepository
	cache    *lru.Cache[string, aliasCacheEntry]
	maxSize  int
	ttl      time.Duration

	mu     sync.Mutex
	logger *common.ContextLogger
}

// AliasManagerConfig bounds the in-memory cache.
type AliasManagerConfig struct {
	MaxCacheSize int
	CacheTTL     time.Duration
}

// DefaultAliasManagerConfig mirrors the documented defaults: 2048 entries,
// one-hour freshness.
func DefaultAliasManagerConfig() AliasManagerConfig {
	return AliasManagerConfig{MaxCacheSize: defaultAliasCacheSize, CacheTTL: time.Hour}
}

// NewAliasManager wraps repo with a bounded alias cache.
func NewAliasManager(repo graphstore.GraphRepository, cfg AliasManagerConfig) *AliasManager {
	size := cfg.MaxCacheSize
	if size <= 0 {
		size = defaultAliasCacheSize
	}
	cache, _ := lru.New[string, aliasCacheEntry](size)
	return &AliasManager{
		repo:    repo,
		cache:   cache,
		maxSize: size,
		ttl:     cfg.CacheTTL,
		logger:  common.ServiceLogger("normalize", "alias"),
	}
}

func normalizeKey(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// ResolveAlias returns the canonical name for alias, checking the cache
// before falling back to the store. Lookup is case-insensitive on the
// trimmed alias.
func (m *AliasManager) ResolveAlias(ctx context.Context, alias string) (string, bool, error) {
	key := normalizeKey(alias)

	m.mu.Lock()
	entry, ok := m.cache.Get(key)
	expired := ok && m.ttl > 0 && time.Since(entry.cachedAt) > m.ttl
	if ok && !expired {
		m.mu.Unlock()
		return entry.alias.Canonical, true, nil
	}
	m.mu.Unlock()

	stored, err := m.repo.GetAlias(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("normalize: resolving alias %q: %w", alias, err)
	}
	if stored == nil {
		return "", false, nil
	}

	m.mu.Lock()
	m.cache.Add(key, aliasCacheEntry{alias: *stored, cachedAt: time.Now()})
	m.mu.Unlock()
	return stored.Canonical, true, nil
}

// RegisterAlias upserts one alias mapping, refreshing UpdatedAt, and
// places it in cache.
func (m *AliasManager) RegisterAlias(ctx context.Context, alias, canonical string, confidence float64, source model.AliasSource) error {
	key := normalizeKey(alias)
	now := time.Now()

	existing, err := m.repo.GetAlias(ctx, key)
	if err != nil {
		return fmt.Errorf("normalize: checking existing alias %q: %w", alias, err)
	}

	record := model.Alias{
		Alias:      key,
		Canonical:  canonical,
		Confidence: confidence,
		Source:     source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if existing != nil {
		record.CreatedAt = existing.CreatedAt
	}

	if err := m.repo.UpsertAlias(ctx, record); err != nil {
		return fmt.Errorf("normalize: registering alias %q: %w", alias, err)
	}

	m.mu.Lock()
	m.cache.Add(key, aliasCacheEntry{alias: record, cachedAt: now})
	m.mu.Unlock()
	return nil
}

// RegisterAliases upserts a batch in a single store round-trip.
func (m *AliasManager) RegisterAliases(ctx context.Context, batch []model.Alias) error {
	now := time.Now()
	normalized := make([]model.Alias, len(batch))
	for i, a := range batch {
		a.Alias = normalizeKey(a.Alias)
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		normalized[i] = a
	}

	if err := m.repo.UpsertAliasBatch(ctx, normalized); err != nil {
		return fmt.Errorf("normalize: registering alias batch: %w", err)
	}

	m.mu.Lock()
	for _, a := range normalized {
		m.cache.Add(a.Alias, aliasCacheEntry{alias: a, cachedAt: now})
	}
	m.mu.Unlock()
	return nil
}

// DeleteAlias removes alias from both cache and store.
func (m *AliasManager) DeleteAlias(ctx context.Context, alias string) error {
	key := normalizeKey(alias)
	if err := m.repo.DeleteAlias(ctx, key); err != nil {
		return fmt.Errorf("normalize: deleting alias %q: %w", alias, err)
	}
	m.mu.Lock()
	m.cache.Remove(key)
	m.mu.Unlock()
	return nil
}

// LoadCache bulk-loads up to the cache's capacity, ordered by recency, so
// a freshly started process doesn't take a store round-trip for every
// commonly-seen alias.
func (m *AliasManager) LoadCache(ctx context.Context) (int, error) {
	aliases, err := m.repo.LoadAliases(ctx, m.maxSize)
	if err != nil {
		return 0, fmt.Errorf("normalize: loading alias cache: %w", err)
	}
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range aliases {
		m.cache.Add(normalizeKey(a.Alias), aliasCacheEntry{alias: a, cachedAt: now})
	}
	return len(aliases), nil
}
