// Package graphstore provides the knowledge-graph persistence layer: scoped
// session acquisition, a transaction manager with read/write/batch scopes, a
// Unit-of-Work with ordered flush, a transient-error retry wrapper, and a
// cached schema provider, all backed by Neo4j.
package graphstore

import (
	"context"
	"time"

	"github.com/opencite/litgraph/model"
)

// Session is a scoped handle over a single read or write transaction mode.
// Implementations must guarantee release of any underlying driver resource
// on every exit path from ExecuteRead/ExecuteWrite.
type Session interface {
	ExecuteRead(ctx context.Context, work func(tx Transaction) (any, error)) (any, error)
	ExecuteWrite(ctx context.Context, work func(tx Transaction) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// Transaction is the minimal surface the core needs from a running
// transaction: running parameterized Cypher and getting records back.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (ResultCursor, error)
}

// ResultCursor iterates the records produced by a Run call.
type ResultCursor interface {
	Next(ctx context.Context) bool
	Record() Record
	Err() error
}

// Record is one row of a Cypher result, keyed by return-clause alias.
type Record map[string]any

// Connection is the top-level store handle: it verifies connectivity and
// hands out scoped sessions.
type Connection interface {
	VerifyConnectivity(ctx context.Context) error
	GetReadSession(ctx context.Context) Session
	GetWriteSession(ctx context.Context) Session
	SchemaIntrospector
	Close(ctx context.Context) error
}

// SchemaIntrospector exposes the store's schema-discovery primitives.
type SchemaIntrospector interface {
	Labels(ctx context.Context) ([]string, error)
	RelationshipTypes(ctx context.Context) ([]string, error)
	PropertyKeysForLabel(ctx context.Context, label string) ([]string, error)
}

// GraphRepository is the domain-level persistence surface the rest of the
// core depends on: entities, relations, aliases, and the temporal-analytics
// series all live in the graph store under their own labels.
type GraphRepository interface {
	UpsertEntity(ctx context.Context, e model.GraphEntity) (model.GraphEntity, error)
	GetEntity(ctx context.Context, entityType model.EntityType, name string) (*model.GraphEntity, error)
	DeleteEntity(ctx context.Context, id string) error

	UpsertRelation(ctx context.Context, r model.GraphRelation) (model.GraphRelation, error)
	DeleteRelation(ctx context.Context, id string) error

	UpsertAlias(ctx context.Context, a model.Alias) error
	UpsertAliasBatch(ctx context.Context, batch []model.Alias) error
	GetAlias(ctx context.Context, alias string) (*model.Alias, error)
	DeleteAlias(ctx context.Context, alias string) error
	LoadAliases(ctx context.Context, limit int) ([]model.Alias, error)

	RecordDailyMetrics(ctx context.Context, m model.DailyMetrics) error
	// RecordDailyMetricsBatch writes every item in batch in a single
	// store round-trip, the bulk-insert primitive RecordMetricsBatch uses
	// so all successful items flush together.
	RecordDailyMetricsBatch(ctx context.Context, batch []model.DailyMetrics) error
	GetLatestMetrics(ctx context.Context, entityID string, before time.Time) (*model.DailyMetrics, error)
	GetHotTopics(ctx context.Context, limit int, minMomentum float64) ([]model.DailyMetrics, error)
	GetTimeline(ctx context.Context, entityID string, from, to time.Time, granularity string) ([]model.DailyMetrics, error)
	// GetPhaseDistribution aggregates, store-side, how many entities
	// currently sit in each adoption phase, taking each entity's most
	// recent observation as its current phase.
	GetPhaseDistribution(ctx context.Context) (map[model.AdoptionPhase]int, error)
	SaveTrendSnapshot(ctx context.Context, s model.TrendSnapshot) error
	GetLatestTrendSnapshot(ctx context.Context) (*model.TrendSnapshot, error)

	// FindExistingPapers returns a snapshot of existing papers used by the
	// deduplicator; implementations may scope this by source or category.
	FindExistingPapers(ctx context.Context, limit int) ([]PaperRecord, error)
	SavePaper(ctx context.Context, p PaperRecord) error

	// RelationsFrom returns every relation with entityID as its source,
	// target, or either, the adjacency primitive the multi-hop reasoner
	// walks during path finding.
	RelationsFrom(ctx context.Context, entityID string) ([]model.GraphRelation, error)
	// GetEntityByID looks up a single entity by its store ID, the
	// complement to GetEntity's (type, name) lookup, used to hydrate the
	// nodes along a discovered path.
	GetEntityByID(ctx context.Context, id string) (*model.GraphEntity, error)
	// ListEntitiesByType returns up to limit entities of the given type,
	// the primitive the multi-hop reasoner uses to resolve a PathQuery
	// whose start or end name is left as a type-only wildcard.
	ListEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]model.GraphEntity, error)
}

// PaperRecord is the store-facing projection of model.Paper; kept distinct
// from model.Paper so the store package does not need to import the full
// ingestion-facing type if the two ever diverge.
type PaperRecord = model.Paper
