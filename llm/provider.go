// Package llm defines the provider-agnostic surface the normalization
// cascade and NLQ engine use for text completion and embeddings. Per-
// provider implementations share only the request-building and response-
// parsing helpers; there is no base-client inheritance chain.
package llm

import "context"

// Message is one turn in a chat-style completion request.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// CompletionOptions configures a single Chat or Complete call.
type CompletionOptions struct {
	Temperature   float64
	MaxTokens     int
	StopSequences []string
}

// FinishReason is the closed set of terminal states a streaming chat
// response can end on.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishToolCalls FinishReason = "tool_calls"
	FinishError     FinishReason = "error"
)

// StreamChoice is one delta within a StreamChunk.
type StreamChoice struct {
	Index        int
	Delta        string
	FinishReason FinishReason // empty until the final chunk
}

// StreamChunk is one push value from a ChatStream call. The consumer reads
// until a chunk carries a non-empty FinishReason on any choice.
type StreamChunk struct {
	ID      string
	Model   string
	Choices []StreamChoice
}

// Provider is the minimal method set every LLM backend implements:
// completion, streaming completion, and (optionally) embeddings. Per-
// provider packages (e.g. an OpenAI-compatible HTTP client) implement this
// independently rather than subclassing a shared base.
type Provider interface {
	// ProviderName identifies the backend, e.g. "openai-compatible".
	ProviderName() string
	// ModelName is the default model this Provider instance targets.
	ModelName() string

	// Complete returns a single free-text completion for prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	// Chat runs a multi-turn completion and returns the assistant message.
	Chat(ctx context.Context, messages []Message, opts CompletionOptions) (Message, error)
	// ChatStream streams the assistant response as a sequence of
	// StreamChunk values on the returned channel, closing it once a
	// terminal FinishReason is observed or ctx is cancelled.
	ChatStream(ctx context.Context, messages []Message, opts CompletionOptions) (<-chan StreamChunk, error)
}

// Embedder is implemented by providers that additionally expose an
// embedding capability; not every Provider need support it.
type Embedder interface {
	// Embed returns the fixed-dimension embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedMany batches Embed over texts, preserving input order.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	// EmbeddingDimension reports the fixed vector width this provider
	// produces.
	EmbeddingDimension() int
}
