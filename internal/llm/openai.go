package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 1000

	maxRetries     = 2
	retryBaseDelay = 200 * time.Millisecond
)

// OpenAIClient implements Client against the OpenAI Chat Completions API.
type OpenAIClient struct {
	client  openai.Client
	apiKey  string
	baseURL string
}

// NewOpenAIClient creates a client with a default credential and an
// optional base URL override.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	c := &OpenAIClient{apiKey: apiKey, baseURL: baseURL}
	c.client = openai.NewClient(c.options(apiKey)...)
	return c
}

func (c *OpenAIClient) options(apiKey string) []option.RequestOption {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	return opts
}

// clientFor returns the shared client, or a per-request one when the
// request carries its own bearer credential.
func (c *OpenAIClient) clientFor(req Request) openai.Client {
	if req.APIKey == "" || req.APIKey == c.apiKey {
		return c.client
	}
	return openai.NewClient(c.options(req.APIKey)...)
}

func buildParams(req Request) openai.ChatCompletionNewParams {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	messages = append(messages, openai.UserMessage(req.Input))

	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               req.Model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	client := c.clientFor(req)
	params := buildParams(req)

	var text string
	err := withRetry(ctx, maxRetries, retryBaseDelay, func() error {
		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return fmt.Errorf("llm: completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("llm: completion returned no choices")
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	return text, err
}

// Stream implements Client. Deltas are forwarded in order; the assembled
// text is returned once the stream finishes. Streams are not retried after
// the first delta has been delivered.
func (c *OpenAIClient) Stream(ctx context.Context, req Request, onDelta func(delta string)) (string, error) {
	client := c.clientFor(req)
	params := buildParams(req)

	var buf strings.Builder
	delay := retryBaseDelay
	for attempt := 0; ; attempt++ {
		stream := client.Chat.Completions.NewStreaming(ctx, params)
		for stream.Next() {
			chunk := stream.Current()
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				buf.WriteString(choice.Delta.Content)
				if onDelta != nil {
					onDelta(choice.Delta.Content)
				}
			}
		}
		err := stream.Err()
		if err == nil {
			return buf.String(), nil
		}
		// Once partial output has reached the caller a replay would
		// duplicate it, so only connection-level failures retry.
		if buf.Len() > 0 || attempt == maxRetries || !isRetriable(err) {
			return "", fmt.Errorf("llm: stream: %w", err)
		}
		jitter := time.Duration(rand.Int64N(int64(delay))) //nolint:gosec // jitter doesn't need crypto-strength randomness
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay + jitter):
		}
		delay *= 2
	}
}
