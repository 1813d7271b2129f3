package nlq

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/llm"
)

// failingSchemaSource always fails to fetch the schema, simulating an
// unreachable store.
type failingSchemaSource struct{}

func (failingSchemaSource) GetSchema(ctx context.Context) (*graphstore.Schema, error) {
	return nil, errors.New("connection refused")
}

// mockProvider returns canned completions in order and records every
// prompt it was called with.
type mockProvider struct {
	responses []string
	calls     []string
}

func (m *mockProvider) ProviderName() string { return "mock" }
func (m *mockProvider) ModelName() string    { return "mock-model" }

func (m *mockProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	m.calls = append(m.calls, prompt)
	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockProvider) Chat(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (llm.Message, error) {
	return llm.Message{}, nil
}

func (m *mockProvider) ChatStream(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

// mockExecutor scripts a fixed sequence of validation outcomes, returning
// the last one for any call beyond the scripted sequence's length.
type mockExecutor struct {
	outcomes []mockOutcome
	calls    int
}

type mockOutcome struct {
	valid bool
	msg   string
}

func (e *mockExecutor) Validate(ctx context.Context, cypher string) (bool, string, error) {
	idx := e.calls
	e.calls++
	if idx >= len(e.outcomes) {
		idx = len(e.outcomes) - 1
	}
	o := e.outcomes[idx]
	return o.valid, o.msg, nil
}

func (e *mockExecutor) Execute(ctx context.Context, cypher string) ([]map[string]any, error) {
	return nil, nil
}

// TestGeneratorRetriesUntilValidationSucceeds drives the retry loop end
// to end: a mock executor's Validate returns invalid twice, citing a
// syntax error, then valid on the third attempt.
func TestGeneratorRetriesUntilValidationSucceeds(t *testing.T) {
	provider := &mockProvider{responses: []string{
		"```cypher\nMATCH (p:Paper) RETURN p LIMIT 1\n```",
		"```cypher\nMATCH (p:Paper) RETURN p LIMIT 1\n```",
		"```cypher\nMATCH (p:Paper) RETURN p LIMIT 1\n```",
	}}
	executor := &mockExecutor{outcomes: []mockOutcome{
		{valid: false, msg: "syntax error near RETURN"},
		{valid: false, msg: "syntax error near RETURN"},
		{valid: true},
	}}

	gen := NewGenerator(provider, nil, executor, DefaultGeneratorConfig())
	result := gen.Generate(context.Background(), "How many papers are there?", Intent{Type: IntentAggregation})

	require.True(t, result.Success)
	require.NotNil(t, result.Query)
	assert.True(t, result.Query.IsValid)
	assert.Equal(t, 3, len(provider.calls))
	assert.Contains(t, provider.calls[2], "syntax error near RETURN")
}

func TestGeneratorFailsAfterExhaustingRetries(t *testing.T) {
	provider := &mockProvider{responses: []string{
		"```cypher\nMATCH (p:Paper) RETURN p\n```",
	}}
	executor := &mockExecutor{outcomes: []mockOutcome{
		{valid: false, msg: "unknown label"},
	}}

	cfg := GeneratorConfig{MaxRetries: 2, Language: LanguageEnglish}
	gen := NewGenerator(provider, nil, executor, cfg)
	result := gen.Generate(context.Background(), "Which papers cite BERT?", Intent{Type: IntentRelationshipQuery})

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, ErrGeneration, result.Error.Code)
	assert.Equal(t, 2, len(provider.calls))
}

// TestGeneratorFailsWithSchemaUnreachableError covers the failure path
// when the schema source cannot be reached: generation stops before ever
// calling the LLM, and the returned error points the user at store
// connectivity.
func TestGeneratorFailsWithSchemaUnreachableError(t *testing.T) {
	provider := &mockProvider{responses: []string{"```cypher\nMATCH (n) RETURN n\n```"}}
	executor := &mockExecutor{outcomes: []mockOutcome{{valid: true}}}

	gen := NewGenerator(provider, failingSchemaSource{}, executor, DefaultGeneratorConfig())
	result := gen.Generate(context.Background(), "How many papers are there?", Intent{Type: IntentAggregation})

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, ErrGeneration, result.Error.Code)
	assert.Contains(t, result.Error.Suggestions, "Check store connectivity")
	assert.Empty(t, provider.calls)
}

func TestExtractCypherPrefersFencedBlock(t *testing.T) {
	text := "Here is the query:\n```cypher\nMATCH (n) RETURN n\n```\nLet me know if you need changes."
	assert.Equal(t, "MATCH (n) RETURN n", extractCypher(text))
}

func TestExtractCypherFallsBackToBareMatch(t *testing.T) {
	text := "Sure — MATCH (n:Paper) RETURN n.title"
	assert.True(t, strings.HasPrefix(extractCypher(text), "MATCH"))
}
