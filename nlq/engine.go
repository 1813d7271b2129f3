package nlq

import (
	"context"

	"github.com/opencite/litgraph/common"
)

// AnswerResult is the full outcome of answering one natural-language
// question: the classified intent, the generated query, and (if execution
// was requested) its result rows.
type AnswerResult struct {
	Intent Intent
	Query  *CypherQuery
	Rows   []map[string]any
	Error  *Error
}

// Engine ties intent classification, Cypher generation, and execution
// together into the single entry point callers (the CLI, an API handler)
// use to answer a natural-language question.
type Engine struct {
	classifier *Classifier
	generator  *Generator
	executor   Executor
	logger     *common.ContextLogger
}

// NewEngine wires the three stages. executor may be nil to generate
// without running the result, useful for dry-run tooling; validation
// uses the generator's own executor either way.
func NewEngine(classifier *Classifier, generator *Generator, executor Executor) *Engine {
	return &Engine{classifier: classifier, generator: generator, executor: executor, logger: common.ServiceLogger("nlq", "engine")}
}

// Answer classifies query, generates a validated Cypher query for it, and
// (when an executor is configured) runs it. An ambiguous classification
// short-circuits before generation, surfacing ClarificationNeeded to the
// caller instead of guessing.
func (e *Engine) Answer(ctx context.Context, query string) AnswerResult {
	intent, err := e.classifier.Classify(ctx, query)
	if err != nil {
		nlqErr, ok := err.(*Error)
		if !ok {
			nlqErr = &Error{Code: ErrParse, Message: err.Error()}
		}
		return AnswerResult{Intent: intent, Error: nlqErr}
	}
	if intent.IsAmbiguous {
		return AnswerResult{Intent: intent, Error: &Error{Code: ErrParse, Message: intent.ClarificationNeeded}}
	}

	generated := e.generator.Generate(ctx, query, intent)
	if !generated.Success {
		return AnswerResult{Intent: intent, Error: generated.Error}
	}

	result := AnswerResult{Intent: intent, Query: generated.Query}
	if e.executor == nil {
		return result
	}

	rows, err := e.executor.Execute(ctx, generated.Query.Cypher)
	if err != nil {
		result.Error = &Error{Code: ErrExecution, Message: err.Error()}
		return result
	}
	result.Rows = rows
	return result
}
