// Package nlq implements the natural-language query engine: an intent
// classifier, a schema-aware Cypher generator with validation-driven
// retries, and the executor surface the generator validates candidates
// against.
package nlq

import "strings"

// IntentType is the closed set of query shapes the classifier recognizes.
type IntentType string

const (
	IntentEntityLookup      IntentType = "ENTITY_LOOKUP"
	IntentRelationshipQuery IntentType = "RELATIONSHIP_QUERY"
	IntentPathFinding       IntentType = "PATH_FINDING"
	IntentAggregation       IntentType = "AGGREGATION"
	IntentGlobalSummary     IntentType = "GLOBAL_SUMMARY"
	IntentComparison        IntentType = "COMPARISON"
)

// Intent is the classifier's structured read on one natural-language query.
type Intent struct {
	Type                 IntentType
	Confidence           float64
	Entities             []string
	Relations            []string
	IsAmbiguous          bool
	ClarificationNeeded  string
}

// Language names the language configured on a Generator. The generator
// stores it; its prompt is the same English text for either value.
type Language string

const (
	LanguageJapanese Language = "ja"
	LanguageEnglish  Language = "en"
)

// ErrorCode is the closed set of NLQ failure codes surfaced to callers.
type ErrorCode string

const (
	ErrParse      ErrorCode = "E-NLQ-001"
	ErrGeneration ErrorCode = "E-NLQ-002"
	ErrValidation ErrorCode = "E-NLQ-003"
	ErrExecution  ErrorCode = "E-NLQ-004"
	ErrLLMUnavailable ErrorCode = "E-NLQ-005"
)

// Error is the structured, user-visible NLQ failure.
type Error struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

// CypherQuery is a generated, (optionally) validated Cypher statement.
type CypherQuery struct {
	Cypher  string
	IsValid bool
}

// GenerateResult is the Cypher generator's outcome: either a valid query
// or a structured error with remediation suggestions.
type GenerateResult struct {
	Success bool
	Query   *CypherQuery
	Error   *Error
}

// extractJSONFragment scans free-text model output for the first balanced
// {...} span.
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
