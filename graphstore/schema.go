package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Schema is a cached snapshot of the store's labels, relationship types, and
// per-label property keys.
type Schema struct {
	NodeLabels    []string
	RelationTypes []string
	PropertyKeys  map[string][]string
	FetchedAt     time.Time
}

// SchemaProvider caches Schema for TTL, serving concurrent callers the same
// snapshot within one window and refreshing only on expiry or explicit
// invalidation.
type SchemaProvider struct {
	conn SchemaIntrospector
	ttl  time.Duration

	mu     sync.RWMutex
	cached *Schema
}

// NewSchemaProvider wraps conn with a 5-minute-default TTL cache.
func NewSchemaProvider(conn SchemaIntrospector) *SchemaProvider {
	return &SchemaProvider{conn: conn, ttl: 5 * time.Minute}
}

// WithTTL overrides the default cache TTL.
func (p *SchemaProvider) WithTTL(ttl time.Duration) *SchemaProvider {
	p.ttl = ttl
	return p
}

// GetSchema returns the cached snapshot if still valid, else fetches fresh
// labels, relationship types, and per-label property keys.
func (p *SchemaProvider) GetSchema(ctx context.Context) (*Schema, error) {
	p.mu.RLock()
	if p.cached != nil && time.Since(p.cached.FetchedAt) < p.ttl {
		cached := p.cached
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-check under the write lock: another goroutine may have refreshed
	// while we waited.
	if p.cached != nil && time.Since(p.cached.FetchedAt) < p.ttl {
		return p.cached, nil
	}

	labels, err := p.conn.Labels(ctx)
	if err != nil {
		return nil, err
	}
	relTypes, err := p.conn.RelationshipTypes(ctx)
	if err != nil {
		return nil, err
	}

	propertyKeys := make(map[string][]string, len(labels))
	for _, label := range labels {
		keys, err := p.conn.PropertyKeysForLabel(ctx, label)
		if err != nil {
			return nil, err
		}
		propertyKeys[label] = keys
	}

	schema := &Schema{
		NodeLabels:    labels,
		RelationTypes: relTypes,
		PropertyKeys:  propertyKeys,
		FetchedAt:     time.Now(),
	}
	p.cached = schema
	return schema, nil
}

// InvalidateCache forces the next GetSchema call to refetch.
func (p *SchemaProvider) InvalidateCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
}

// Describe renders a compact human-readable summary of the schema, suitable
// for embedding in an LLM prompt.
func (s *Schema) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Labels: %s\n", strings.Join(s.NodeLabels, ", "))
	fmt.Fprintf(&b, "Relationship types: %s\n", strings.Join(s.RelationTypes, ", "))
	for _, label := range s.NodeLabels {
		fmt.Fprintf(&b, "%s properties: %s\n", label, strings.Join(s.PropertyKeys[label], ", "))
	}
	return b.String()
}

// JSON renders the schema as a JSON document for prompt injection.
func (s *Schema) JSON() (string, error) {
	out, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
