package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"github.com/opencite/litgraph/config"
	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/llm"
	"github.com/opencite/litgraph/ratelimit"
)

var (
	settingsOnce sync.Once
	settings     *config.Settings
	settingsErr  error
)

// loadSettings reads the environment-derived settings once per process.
// Viper-bound flags override individual values; these provide the
// defaults and everything not exposed as a flag (thresholds, source
// endpoints, the limiter's refill interval).
func loadSettings() (*config.Settings, error) {
	settingsOnce.Do(func() {
		settings, settingsErr = config.Load("LITGRAPH")
	})
	return settings, settingsErr
}

// openStore assembles a graphstore.Store from flags layered over the
// environment settings.
func openStore(ctx context.Context) (*graphstore.Store, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}

	cfg := graphstore.Config{
		Neo4jURL:              viperGetStringDefault("neo4j.url", s.GraphStore.URL),
		Neo4jUser:             viperGetStringDefault("neo4j.user", s.GraphStore.Username),
		Neo4jPassword:         viperGetStringDefault("neo4j.password", s.GraphStore.Password),
		Neo4jDatabase:         viperGetStringDefault("neo4j.database", s.GraphStore.Database),
		RedisURL:              viperGetStringDefault("redis.url", s.Redis.URL),
		SchemaCacheTTLSeconds: 300,
	}
	store, err := graphstore.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cli: opening graph store: %w", err)
	}
	return store, nil
}

// openLLMProvider builds an OpenAI-compatible provider from flags layered
// over the environment settings, or returns nil when no endpoint is
// configured. Callers must handle a nil provider by skipping
// LLM-dependent stages.
func openLLMProvider() llm.Provider {
	s, err := loadSettings()
	if err != nil {
		return nil
	}

	baseURL := viperGetStringDefault("llm.base_url", s.LLM.BaseURL)
	if baseURL == "" {
		return nil
	}
	model := viperGetStringDefault("llm.model", s.LLM.Model)
	apiKey := viperGetStringDefault("llm.api_key", s.LLM.APIKey)
	return llm.NewOpenAICompatibleProvider(baseURL, apiKey, model, model, 1536)
}

var (
	limiterOnce sync.Once
	limiter     *ratelimit.Limiter
)

// sharedLimiter returns the one process-wide token bucket every source
// client draws from, built from the configured request interval and
// burst.
func sharedLimiter() *ratelimit.Limiter {
	limiterOnce.Do(func() {
		s, err := loadSettings()
		if err != nil || s.Sources.RequestInterval <= 0 {
			limiter = ratelimit.NewBibliographicLimiter()
			return
		}
		limiter = ratelimit.New(ratelimit.Config{
			MaxTokens:  float64(s.Sources.Burst),
			RefillRate: 1.0 / s.Sources.RequestInterval.Seconds(),
		})
	})
	return limiter
}

func viperGetStringDefault(key, def string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}
