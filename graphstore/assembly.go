package graphstore

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Config holds configuration for the graph store's backends. Use
// ConfigFromEnv to populate it from environment variables.
type Config struct {
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// RedisURL is optional; when empty, locking and queue-depth tracking
	// fall back to in-process state and multi-process deployments lose
	// their cross-process guarantees.
	RedisURL string

	SchemaCacheTTLSeconds int
}

// ConfigFromEnv builds a Config from environment variables, with sensible
// defaults for local development.
func ConfigFromEnv() Config {
	return Config{
		Neo4jURL:              getEnv("LITGRAPH_NEO4J_URL", "bolt://localhost:7687"),
		Neo4jUser:             getEnv("LITGRAPH_NEO4J_USER", "neo4j"),
		Neo4jPassword:         getEnv("LITGRAPH_NEO4J_PASSWORD", "password"),
		Neo4jDatabase:         getEnv("LITGRAPH_NEO4J_DATABASE", "neo4j"),
		RedisURL:              getEnv("LITGRAPH_REDIS_URL", ""),
		SchemaCacheTTLSeconds: 300,
	}
}

// Store bundles the pieces the rest of the pipeline needs from the graph
// backend: the repository, the transaction manager, the cached schema
// provider, and (when configured) the distributed cache/lock.
type Store struct {
	Conn       *Neo4jConnection
	Repository GraphRepository
	TxManager  *TransactionManager
	Schema     *SchemaProvider
	Cache      *RedisCache
}

// NewStore dials Neo4j (and, if configured, Redis) and assembles a Store.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := NewNeo4jConnection(ctx, cfg.Neo4jURL, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return nil, fmt.Errorf("graphstore: assembling store: %w", err)
	}

	schema := NewSchemaProvider(conn)
	if cfg.SchemaCacheTTLSeconds > 0 {
		schema = schema.WithTTL(time.Duration(cfg.SchemaCacheTTLSeconds) * time.Second)
	}

	store := &Store{
		Conn:       conn,
		Repository: NewRepository(conn),
		TxManager:  NewTransactionManager(conn),
		Schema:     schema,
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(cfg.RedisURL)
		if err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("graphstore: assembling store: %w", err)
		}
		store.Cache = cache
	}

	return store, nil
}

// Close releases every backend connection the Store owns.
func (s *Store) Close(ctx context.Context) error {
	var firstErr error
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.Conn.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

