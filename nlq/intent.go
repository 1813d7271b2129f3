package nlq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opencite/litgraph/llm"
)

type intentPayload struct {
	Type                string   `json:"type"`
	Confidence          float64  `json:"confidence"`
	Entities            []string `json:"entities"`
	Relations           []string `json:"relations"`
	IsAmbiguous         bool     `json:"isAmbiguous"`
	ClarificationNeeded string   `json:"clarificationNeeded"`
}

var validIntentTypes = map[string]IntentType{
	"ENTITY_LOOKUP":      IntentEntityLookup,
	"RELATIONSHIP_QUERY": IntentRelationshipQuery,
	"PATH_FINDING":       IntentPathFinding,
	"AGGREGATION":        IntentAggregation,
	"GLOBAL_SUMMARY":     IntentGlobalSummary,
	"COMPARISON":         IntentComparison,
}

// Classifier turns a free-text question into a structured Intent using an
// LLM, falling back to IsAmbiguous when the model's answer can't be parsed
// or names a type outside the closed set.
type Classifier struct {
	provider llm.Provider
}

// NewClassifier wraps provider.
func NewClassifier(provider llm.Provider) *Classifier {
	return &Classifier{provider: provider}
}

// Classify asks the model to categorize query and extract the entities and
// relations it mentions.
func (c *Classifier) Classify(ctx context.Context, query string) (Intent, error) {
	if c.provider == nil {
		return Intent{}, fmt.Errorf("nlq: intent classification requested but no LLM provider configured")
	}

	response, err := c.provider.Complete(ctx, buildIntentPrompt(query), llm.CompletionOptions{Temperature: 0, MaxTokens: 400})
	if err != nil {
		return Intent{}, &Error{Code: ErrLLMUnavailable, Message: fmt.Sprintf("intent classification call failed: %v", err)}
	}

	fragment := extractJSONFragment(response)
	if fragment == "" {
		return Intent{IsAmbiguous: true, ClarificationNeeded: "Could not determine the intent of this query; please rephrase."},
			&Error{Code: ErrParse, Message: "model response contained no JSON object"}
	}

	var parsed intentPayload
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return Intent{IsAmbiguous: true, ClarificationNeeded: "Could not determine the intent of this query; please rephrase."},
			&Error{Code: ErrParse, Message: fmt.Sprintf("parsing intent JSON: %v", err)}
	}

	intentType, known := validIntentTypes[strings.ToUpper(strings.TrimSpace(parsed.Type))]
	if !known {
		return Intent{IsAmbiguous: true, ClarificationNeeded: "Could not determine the intent of this query; please rephrase."},
			&Error{Code: ErrParse, Message: fmt.Sprintf("unrecognized intent type %q", parsed.Type)}
	}

	return Intent{
		Type:                intentType,
		Confidence:          parsed.Confidence,
		Entities:            parsed.Entities,
		Relations:           parsed.Relations,
		IsAmbiguous:         parsed.IsAmbiguous,
		ClarificationNeeded: parsed.ClarificationNeeded,
	}, nil
}

func buildIntentPrompt(query string) string {
	var b strings.Builder
	b.WriteString("Classify the following natural-language question about an academic AI/ML research knowledge graph.\n")
	fmt.Fprintf(&b, "Question: %q\n", query)
	b.WriteString("Choose exactly one type from: ENTITY_LOOKUP, RELATIONSHIP_QUERY, PATH_FINDING, AGGREGATION, GLOBAL_SUMMARY, COMPARISON.\n")
	b.WriteString("Respond with a single JSON object and nothing else: ")
	b.WriteString(`{"type": string, "confidence": number, "entities": [string], "relations": [string], "isAmbiguous": bool, "clarificationNeeded": string}`)
	return b.String()
}
