package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures an OpenAI or OpenAI-compatible endpoint
type OpenAIOptions struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	EmbeddingModel  string
	Dimension       int
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// OpenAIClient implements Embedder and Completer on top of go-openai.
// Any service speaking the OpenAI wire format can be targeted via BaseURL.
type OpenAIClient struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	apiKey := opts.APIKey
	if opts.BaseURL == "" && apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	// Some self-hosted services don't require authentication
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		base := strings.TrimRight(opts.BaseURL, "/")
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		clientConfig.BaseURL = base
	}
	if opts.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	if opts.ChatModel == "" {
		opts.ChatModel = openai.GPT4oMini
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = string(openai.SmallEmbedding3)
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		opts:   opts,
	}, nil
}

// Dimension returns the configured embedding dimension
func (c *OpenAIClient) Dimension() int {
	return c.opts.Dimension
}

// Embed returns the embedding of text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.opts.EmbeddingModel),
	}
	if c.opts.Dimension > 0 {
		req.Dimensions = c.opts.Dimension
	}

	var out []float32
	err := withRetry(ctx, c.opts.RetryMaxElapsed, func() error {
		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return wrapOpenAIError("embeddings", err)
		}
		if len(resp.Data) == 0 {
			return &statusError{Service: "openai embeddings", Status: http.StatusBadGateway, Body: "no data"}
		}
		out = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.opts.Dimension > 0 && len(out) != c.opts.Dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(out), c.opts.Dimension)
	}
	return out, nil
}

// Complete sends a system + user prompt and returns the assistant content
func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:       c.opts.ChatModel,
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	var content string
	err := withRetry(ctx, c.opts.RetryMaxElapsed, func() error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return wrapOpenAIError("chat completion", err)
		}
		if len(resp.Choices) == 0 {
			return &statusError{Service: "openai chat completion", Status: http.StatusBadGateway, Body: "no choices returned"}
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// wrapOpenAIError maps go-openai errors onto statusError so retry
// decisions are made on the HTTP status
func wrapOpenAIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai %s: %w", op, &statusError{Service: "openai", Status: apiErr.HTTPStatusCode, Body: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai %s: %w", op, &statusError{Service: "openai", Status: reqErr.HTTPStatusCode, Body: reqErr.Error()})
	}
	return fmt.Errorf("openai %s failed: %w", op, err)
}
