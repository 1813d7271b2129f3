package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opencite/litgraph/httpclient"
)

// OpenAICompatibleProvider talks to any chat-completions/embeddings API
// that follows the OpenAI request/response shape (OpenAI itself, and the
// many self-hosted gateways that mirror it). It reuses the shared
// httpclient.Client rather than rolling its own retry/timeout handling.
type OpenAICompatibleProvider struct {
	http       *httpclient.Client
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	embedDim   int
}

// NewOpenAICompatibleProvider builds a provider against baseURL (e.g.
// "https://api.openai.com/v1"), unrated since LLM providers are not behind
// the ingestion source's shared token bucket.
func NewOpenAICompatibleProvider(baseURL, apiKey, model, embedModel string, embedDim int) *OpenAICompatibleProvider {
	return &OpenAICompatibleProvider{
		http:       httpclient.New(nil, "litgraph-llm/1.0"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		embedModel: embedModel,
		embedDim:   embedDim,
	}
}

func (p *OpenAICompatibleProvider) ProviderName() string { return "openai-compatible" }
func (p *OpenAICompatibleProvider) ModelName() string    { return p.model }
func (p *OpenAICompatibleProvider) EmbeddingDimension() int {
	return p.embedDim
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		Delta        chatMessage `json:"delta"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Complete wraps Chat with a single user-role message.
func (p *OpenAICompatibleProvider) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	msg, err := p.Chat(ctx, []Message{{Role: "user", Content: prompt}}, opts)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// Chat performs one non-streaming chat-completions call.
func (p *OpenAICompatibleProvider) Chat(ctx context.Context, messages []Message, opts CompletionOptions) (Message, error) {
	body := chatCompletionRequest{
		Model:       p.model,
		Messages:    toChatMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stop:        opts.StopSequences,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("llm: marshaling chat request: %w", err)
	}

	req := httpclient.NewRequest("POST", p.baseURL+"/chat/completions")
	req.JSONBody = string(payload)
	req.Headers["Authorization"] = "Bearer " + p.apiKey

	resp, err := p.http.Do(ctx, req)
	if err != nil {
		return Message{}, fmt.Errorf("llm: chat completion request: %w", err)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return Message{}, fmt.Errorf("llm: parsing chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Message{}, fmt.Errorf("llm: chat completion response carried no choices")
	}
	return Message{Role: "assistant", Content: parsed.Choices[0].Message.Content}, nil
}

// ChatStream performs a streaming chat-completions call over server-sent
// events, pushing one StreamChunk per "data: " line until "[DONE]" or a
// non-empty finish_reason is observed. The response body is read in full
// before the first chunk is pushed, so chunks are replayed from memory
// rather than read off the connection as they arrive. Cancelling ctx
// stops delivery and closes the returned channel.
func (p *OpenAICompatibleProvider) ChatStream(ctx context.Context, messages []Message, opts CompletionOptions) (<-chan StreamChunk, error) {
	body := chatCompletionRequest{
		Model:       p.model,
		Messages:    toChatMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stop:        opts.StopSequences,
		Stream:      true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm: marshaling chat stream request: %w", err)
	}

	req := httpclient.NewRequest("POST", p.baseURL+"/chat/completions")
	req.JSONBody = string(payload)
	req.Headers["Authorization"] = "Bearer " + p.apiKey
	req.Headers["Accept"] = "text/event-stream"

	resp, err := p.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm: chat stream request: %w", err)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(bytes.NewReader(resp.Body))
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var chunk chatCompletionResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			streamChunk := StreamChunk{ID: chunk.ID, Model: chunk.Model}
			done := false
			for _, c := range chunk.Choices {
				choice := StreamChoice{Index: c.Index, Delta: c.Delta.Content}
				if c.FinishReason != "" {
					choice.FinishReason = FinishReason(c.FinishReason)
					done = true
				}
				streamChunk.Choices = append(streamChunk.Choices, choice)
			}
			select {
			case out <- streamChunk:
			case <-ctx.Done():
				return
			}
			if done {
				return
			}
		}
	}()
	return out, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns the embedding vector for a single text.
func (p *OpenAICompatibleProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("llm: embedding response carried no vectors")
	}
	return vectors[0], nil
}

// EmbedMany batches an embeddings call over texts, returning vectors in
// input order.
func (p *OpenAICompatibleProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embeddingRequest{Model: p.embedModel, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("llm: marshaling embedding request: %w", err)
	}

	req := httpclient.NewRequest("POST", p.baseURL+"/embeddings")
	req.JSONBody = string(payload)
	req.Headers["Authorization"] = "Bearer " + p.apiKey

	resp, err := p.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm: embedding request: %w", err)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("llm: parsing embedding response: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}

func toChatMessages(messages []Message) []chatMessage {
	out := make([]chatMessage, len(messages))
	for i, m := range messages {
		out[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
