// ABOUTME: OpenAI client for LLM-based sentiment classification
// ABOUTME: Uses gpt-4o-mini (configurable) with JSON responses and backoff retries
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harper/review-insights/internal/models"
	"github.com/harper/review-insights/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
)

const systemPrompt = `You are a sentiment classifier for mobile banking app reviews.
Classify the review as POSITIVE or NEGATIVE. Mixed or neutral reviews go to the
closer of the two. Return ONLY a JSON object: {"label": "POSITIVE"|"NEGATIVE", "score": <confidence 0.0-1.0>}.`

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:     apiKey,
		ChatModel:  DefaultChatModel,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second * 2,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client    *openai.Client
	chatModel string
	timeout   time.Duration
	retry     util.RetryConfig
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}
	model := config.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(oc),
		chatModel: model,
		timeout:   timeout,
		retry:     util.RetryConfig{MaxRetries: config.MaxRetries, BaseDelay: config.RetryDelay},
	}, nil
}

type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify asks the model for a label and confidence for one review
func (c *OpenAIClient) Classify(ctx context.Context, text string) (models.Sentiment, float64, error) {
	result, err := util.RetryValue(ctx, c.retry, func() (classification, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
			Temperature:    0,
		})
		if err != nil {
			return classification{}, classifyAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return classification{}, fmt.Errorf("no completion choices returned")
		}

		var out classification
		if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
			return classification{}, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return models.Unlabeled, 0, fmt.Errorf("failed to classify sentiment after %d attempts: %w", c.retry.MaxRetries+1, err)
	}

	label, err := models.ParseSentiment(result.Label)
	if err != nil || label == models.Unlabeled {
		return models.Unlabeled, 0, fmt.Errorf("model returned label %q", result.Label)
	}
	if result.Score < 0 || result.Score > 1 {
		return models.Unlabeled, 0, fmt.Errorf("model returned score %v outside [0,1]", result.Score)
	}
	return label, result.Score, nil
}

// classifyAPIError stops retries on client errors other than rate limiting
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != 429 {
			return util.Permanent(err)
		}
		return err
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 && reqErr.HTTPStatusCode != 429 {
		return util.Permanent(err)
	}
	if errors.Is(err, context.Canceled) {
		return util.Permanent(err)
	}
	return err
}
