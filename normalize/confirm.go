package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opencite/litgraph/llm"
)

// ConfirmationResult is the parsed shape of the model-confirmation stage's
// response. Confirmed is false and Confidence is 0 whenever the response
// could not be parsed as the requested JSON fragment.
type ConfirmationResult struct {
	Confirmed   bool
	Suggestion  string
	Confidence  float64
	Explanation string
}

type confirmationPayload struct {
	Confirmed   bool    `json:"confirmed"`
	Suggestion  string  `json:"suggestion"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// ModelConfirmer asks an LLM to confirm or refine a candidate canonical
// name for a surface form, the cascade's last-resort stage when rule and
// similarity matching leave confidence below the configured threshold.
type ModelConfirmer struct {
	provider llm.Provider
}

// NewModelConfirmer wraps provider. A nil provider makes every Confirm
// call a no-op failure, letting callers unconditionally construct a
// ModelConfirmer and gate usage on whether an LLM is actually configured.
func NewModelConfirmer(provider llm.Provider) *ModelConfirmer {
	return &ModelConfirmer{provider: provider}
}

// Confirm asks the model whether candidate is the right canonical form
// for input, given knownCanonicals as context, and parses its JSON
// response.
func (c *ModelConfirmer) Confirm(ctx context.Context, input, candidate string, knownCanonicals []string) (ConfirmationResult, error) {
	if c.provider == nil {
		return ConfirmationResult{}, fmt.Errorf("normalize: model confirmation requested but no LLM provider configured")
	}

	prompt := buildConfirmationPrompt(input, candidate, knownCanonicals)
	response, err := c.provider.Complete(ctx, prompt, llm.CompletionOptions{Temperature: 0, MaxTokens: 300})
	if err != nil {
		return ConfirmationResult{}, fmt.Errorf("normalize: model confirmation call: %w", err)
	}

	fragment := extractJSONFragment(response)
	if fragment == "" {
		return ConfirmationResult{Confirmed: false, Confidence: 0}, nil
	}

	var parsed confirmationPayload
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return ConfirmationResult{Confirmed: false, Confidence: 0}, nil
	}

	return ConfirmationResult{
		Confirmed:   parsed.Confirmed,
		Suggestion:  parsed.Suggestion,
		Confidence:  parsed.Confidence,
		Explanation: parsed.Explanation,
	}, nil
}

func buildConfirmationPrompt(input, candidate string, knownCanonicals []string) string {
	var b strings.Builder
	b.WriteString("You are confirming an entity-name canonicalization decision for a knowledge graph of AI/ML research.\n")
	fmt.Fprintf(&b, "Surface form: %q\n", input)
	fmt.Fprintf(&b, "Proposed canonical name: %q\n", candidate)
	if len(knownCanonicals) > 0 {
		fmt.Fprintf(&b, "Known canonical names: %s\n", strings.Join(knownCanonicals, ", "))
	}
	b.WriteString("Respond with a single JSON object and nothing else: ")
	b.WriteString(`{"confirmed": bool, "suggestion": string, "confidence": number, "explanation": string}`)
	return b.String()
}

// extractJSONFragment scans free-text model output for the first balanced
// {...} span, since chat models frequently wrap JSON in prose or code
// fences despite instructions not to.
func extractJSONFragment(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
