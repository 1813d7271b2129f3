// Package config loads the pipeline's settings from the environment and
// validates them. The CLI layers viper-bound flags on top of these
// values; everything that runs without the CLI (scheduled jobs, tests,
// a future daemon mode) reads its settings from here directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig reads typed values from environment variables under a common
// prefix, falling back to a default when the variable is unset or does
// not parse.
type EnvConfig struct {
	prefix string
}

// NewEnvConfig returns a reader for variables named <prefix>_<KEY>.
func NewEnvConfig(prefix string) *EnvConfig {
	return &EnvConfig{prefix: prefix}
}

func (ec *EnvConfig) key(name string) string {
	if ec.prefix == "" {
		return name
	}
	return ec.prefix + "_" + name
}

// GetString returns the variable's value, or defaultValue when unset.
func (ec *EnvConfig) GetString(name, defaultValue string) string {
	if v := os.Getenv(ec.key(name)); v != "" {
		return v
	}
	return defaultValue
}

// GetInt returns the variable parsed as an int, or defaultValue when
// unset or malformed.
func (ec *EnvConfig) GetInt(name string, defaultValue int) int {
	if v := os.Getenv(ec.key(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetFloat returns the variable parsed as a float64, or defaultValue
// when unset or malformed.
func (ec *EnvConfig) GetFloat(name string, defaultValue float64) float64 {
	if v := os.Getenv(ec.key(name)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetBool returns the variable parsed as a bool, or defaultValue when
// unset or malformed.
func (ec *EnvConfig) GetBool(name string, defaultValue bool) bool {
	if v := os.Getenv(ec.key(name)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetDuration returns the variable parsed with time.ParseDuration, or
// defaultValue when unset or malformed.
func (ec *EnvConfig) GetDuration(name string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(ec.key(name)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// GraphStoreSettings configures the Neo4j connection.
type GraphStoreSettings struct {
	URL      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// RedisSettings configures the optional Redis instance backing the
// scheduled-ingestion job queue and cross-process job locks. An empty URL
// disables the locks; the job queue then uses redis://localhost:6379/0.
type RedisSettings struct {
	URL string
}

// LLMSettings configures the OpenAI-compatible completion endpoint used
// by the normalization confirmer and the NLQ engine. An empty BaseURL
// disables LLM-dependent stages.
type LLMSettings struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SourceSettings configures the literature sources the ingestion
// pipeline fetches from. RequestInterval and Burst parameterize the
// shared token-bucket limiter; the defaults approximate arXiv's
// published one-request-per-three-seconds guidance.
type SourceSettings struct {
	ArxivBaseURL           string
	SemanticScholarBaseURL string
	OpenAccessBaseURL      string
	Contact                string
	RequestInterval        time.Duration
	Burst                  int
}

// DedupSettings carries the duplicate-detection thresholds.
type DedupSettings struct {
	ExactTitleThreshold     float64
	CandidateTitleThreshold float64
	MinAuthorMatches        int
}

// Settings is the full environment-derived configuration.
type Settings struct {
	GraphStore GraphStoreSettings
	Redis      RedisSettings
	LLM        LLMSettings
	Sources    SourceSettings
	Dedup      DedupSettings
}

// Load reads every section from <prefix>_-prefixed environment variables
// and validates the result.
func Load(prefix string) (*Settings, error) {
	env := NewEnvConfig(prefix)

	s := &Settings{
		GraphStore: GraphStoreSettings{
			URL:      env.GetString("NEO4J_URL", "bolt://localhost:7687"),
			Username: env.GetString("NEO4J_USER", "neo4j"),
			Password: env.GetString("NEO4J_PASSWORD", "password"),
			Database: env.GetString("NEO4J_DATABASE", "neo4j"),
			Timeout:  env.GetDuration("NEO4J_TIMEOUT", 30*time.Second),
		},
		Redis: RedisSettings{
			URL: env.GetString("REDIS_URL", ""),
		},
		LLM: LLMSettings{
			BaseURL: env.GetString("LLM_BASE_URL", ""),
			APIKey:  env.GetString("LLM_API_KEY", ""),
			Model:   env.GetString("LLM_MODEL", "gpt-4o-mini"),
			Timeout: env.GetDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Sources: SourceSettings{
			ArxivBaseURL:           env.GetString("ARXIV_URL", "http://export.arxiv.org/api/query"),
			SemanticScholarBaseURL: env.GetString("S2_URL", "https://api.semanticscholar.org/graph/v1/paper/search"),
			OpenAccessBaseURL:      env.GetString("OPENACCESS_URL", "https://api.unpaywall.org/v2"),
			Contact:                env.GetString("CONTACT", ""),
			RequestInterval:        env.GetDuration("SOURCE_REQUEST_INTERVAL", 3*time.Second),
			Burst:                  env.GetInt("SOURCE_BURST", 1),
		},
		Dedup: DedupSettings{
			ExactTitleThreshold:     env.GetFloat("DEDUP_EXACT_THRESHOLD", 0.95),
			CandidateTitleThreshold: env.GetFloat("DEDUP_CANDIDATE_THRESHOLD", 0.80),
			MinAuthorMatches:        env.GetInt("DEDUP_MIN_AUTHOR_MATCHES", 3),
		},
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks cross-field constraints; it is also run by Load.
func (s *Settings) Validate() error {
	v := NewValidator()

	v.RequireString("GraphStore.URL", s.GraphStore.URL)
	v.RequireString("GraphStore.Username", s.GraphStore.Username)
	v.RequireURL("Sources.ArxivBaseURL", s.Sources.ArxivBaseURL)
	v.RequireURL("Sources.SemanticScholarBaseURL", s.Sources.SemanticScholarBaseURL)
	v.RequireURL("Sources.OpenAccessBaseURL", s.Sources.OpenAccessBaseURL)
	v.RequirePositiveInt("Sources.Burst", s.Sources.Burst)
	v.RequireUnitInterval("Dedup.ExactTitleThreshold", s.Dedup.ExactTitleThreshold)
	v.RequireUnitInterval("Dedup.CandidateTitleThreshold", s.Dedup.CandidateTitleThreshold)
	v.RequirePositiveInt("Dedup.MinAuthorMatches", s.Dedup.MinAuthorMatches)
	if s.Dedup.CandidateTitleThreshold > s.Dedup.ExactTitleThreshold {
		v.add("Dedup.CandidateTitleThreshold must not exceed Dedup.ExactTitleThreshold")
	}

	return v.Validate()
}

// Validator accumulates field-level configuration errors so a bad
// environment reports everything wrong at once rather than one variable
// per process start.
type Validator struct {
	errors []string
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) add(msg string) {
	v.errors = append(v.errors, msg)
}

// RequireString records an error when value is empty.
func (v *Validator) RequireString(field, value string) {
	if value == "" {
		v.add(fmt.Sprintf("%s is required", field))
	}
}

// RequireURL records an error when value is not an http(s) URL.
func (v *Validator) RequireURL(field, value string) {
	if value == "" {
		v.add(fmt.Sprintf("%s is required", field))
		return
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		v.add(fmt.Sprintf("%s must be an http:// or https:// URL", field))
	}
}

// RequirePositiveInt records an error when value is not positive.
func (v *Validator) RequirePositiveInt(field string, value int) {
	if value <= 0 {
		v.add(fmt.Sprintf("%s must be positive", field))
	}
}

// RequireUnitInterval records an error when value is outside [0,1].
func (v *Validator) RequireUnitInterval(field string, value float64) {
	if value < 0 || value > 1 {
		v.add(fmt.Sprintf("%s must be within [0,1]", field))
	}
}

// IsValid reports whether no errors were recorded.
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns the recorded errors.
func (v *Validator) Errors() []string {
	return v.errors
}

// Validate folds the recorded errors into a single error, nil when none.
func (v *Validator) Validate() error {
	if v.IsValid() {
		return nil
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(v.errors, "; "))
}
