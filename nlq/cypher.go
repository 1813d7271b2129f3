package nlq

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/opencite/litgraph/common"
	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/llm"
)

const defaultMaxRetries = 3

var cypherFence = regexp.MustCompile("(?s)```(?:cypher)?\\s*(.*?)```")

// SchemaSource supplies the generator's schema-aware prompt context,
// re-fetched on every Generate call so a stale or unreachable store is
// surfaced as a generation failure rather than silently prompting blind.
// graphstore.SchemaProvider satisfies this directly.
type SchemaSource interface {
	GetSchema(ctx context.Context) (*graphstore.Schema, error)
}

// Generator turns a classified natural-language question into a validated
// Cypher query, retrying generation with the prior attempt's validation
// error fed back into the prompt up to maxRetries times.
type Generator struct {
	provider   llm.Provider
	schema     SchemaSource
	executor   Executor
	language   Language
	maxRetries int
	logger     *common.ContextLogger
}

// GeneratorConfig tunes the generator's retry budget and records its
// language; the prompt is written in English for either language.
type GeneratorConfig struct {
	MaxRetries int
	Language   Language
}

// DefaultGeneratorConfig returns the documented defaults: 3 retries,
// English prompts.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{MaxRetries: defaultMaxRetries, Language: LanguageEnglish}
}

// NewGenerator wires an LLM provider, a schema source, and the executor
// used to validate each candidate.
func NewGenerator(provider llm.Provider, schema SchemaSource, executor Executor, cfg GeneratorConfig) *Generator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Language == "" {
		cfg.Language = LanguageEnglish
	}
	return &Generator{
		provider:   provider,
		schema:     schema,
		executor:   executor,
		language:   cfg.Language,
		maxRetries: cfg.MaxRetries,
		logger:     common.ServiceLogger("nlq", "cypher"),
	}
}

// Generate produces a Cypher query satisfying intent for the original
// natural-language query, validating each candidate against g.executor and
// retrying with the validator's error folded back into the prompt until
// either a valid query is produced or maxRetries is exhausted.
func (g *Generator) Generate(ctx context.Context, query string, intent Intent) GenerateResult {
	if g.provider == nil {
		return failure(ErrLLMUnavailable, "no LLM provider configured for Cypher generation")
	}

	var schemaDescription string
	if g.schema != nil {
		schema, err := g.schema.GetSchema(ctx)
		if err != nil {
			return GenerateResult{
				Success: false,
				Error: &Error{
					Code:        ErrGeneration,
					Message:     fmt.Sprintf("fetching graph schema: %v", err),
					Suggestions: []string{"Check store connectivity"},
				},
			}
		}
		schemaDescription = schema.Describe()
	}

	var lastErr string
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		prompt := g.buildPrompt(query, intent, schemaDescription, lastErr)

		response, err := g.provider.Complete(ctx, prompt, llm.CompletionOptions{Temperature: 0, MaxTokens: 600})
		if err != nil {
			return failure(ErrLLMUnavailable, fmt.Sprintf("Cypher generation call failed: %v", err))
		}

		cypher := extractCypher(response)
		if cypher == "" {
			lastErr = "no Cypher statement found in the response"
			continue
		}

		if g.executor == nil {
			return GenerateResult{Success: true, Query: &CypherQuery{Cypher: cypher, IsValid: true}}
		}

		valid, msg, err := g.executor.Validate(ctx, cypher)
		if err != nil {
			return failure(ErrValidation, fmt.Sprintf("validating generated Cypher: %v", err))
		}
		if valid {
			return GenerateResult{Success: true, Query: &CypherQuery{Cypher: cypher, IsValid: true}}
		}

		g.logger.WithField("attempt", attempt).WithField("error", msg).Debug("generated Cypher failed validation, retrying")
		lastErr = msg
	}

	return GenerateResult{
		Success: false,
		Error: &Error{
			Code:        ErrGeneration,
			Message:     fmt.Sprintf("could not produce a valid Cypher query after %d attempts: %s", g.maxRetries, lastErr),
			Suggestions: []string{"Try rephrasing the question with more specific entity names."},
		},
	}
}

func (g *Generator) buildPrompt(query string, intent Intent, schemaDescription, priorError string) string {
	var b strings.Builder
	b.WriteString("You translate natural-language questions about an academic AI/ML knowledge graph into Cypher queries for Neo4j.\n")
	if schemaDescription != "" {
		fmt.Fprintf(&b, "Graph schema:\n%s\n", schemaDescription)
	}
	fmt.Fprintf(&b, "Question: %q\n", query)
	fmt.Fprintf(&b, "Classified intent: %s (entities: %s, relations: %s)\n", intent.Type, strings.Join(intent.Entities, ", "), strings.Join(intent.Relations, ", "))
	if priorError != "" {
		fmt.Fprintf(&b, "The previous attempt was rejected for this reason, fix it: %s\n", priorError)
	}
	b.WriteString("Respond with a single fenced Cypher code block and nothing else.\n")
	return b.String()
}

func extractCypher(response string) string {
	if m := cypherFence.FindStringSubmatch(response); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	if idx := strings.Index(strings.ToUpper(response), "MATCH"); idx >= 0 {
		return strings.TrimSpace(response[idx:])
	}
	return ""
}

func failure(code ErrorCode, msg string) GenerateResult {
	return GenerateResult{Success: false, Error: &Error{Code: code, Message: msg}}
}
