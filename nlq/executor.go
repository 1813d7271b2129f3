package nlq

import "context"

// Executor is the capability the Cypher generator validates candidate
// queries against and, once a query is accepted, runs for real. A thin
// wrapper over graphstore lives in graphstore-aware callers; tests supply
// a mock that scripts a sequence of validation outcomes.
type Executor interface {
	// Validate reports whether cypher is syntactically and semantically
	// acceptable against the current schema. When valid is false, msg
	// explains why, in a form suitable for feeding back into the next
	// generation attempt.
	Validate(ctx context.Context, cypher string) (valid bool, msg string, err error)

	// Execute runs cypher and returns its result rows as loosely-typed
	// records.
	Execute(ctx context.Context, cypher string) ([]map[string]any, error)
}
