// Package generator talks to the hosted language model that writes the
// final answer.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Generator turns a prompt into a completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ServiceError is returned for any failure reaching or using the model
// service: network, authentication, quota, or an empty completion.
type ServiceError struct {
	Model string
	Err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation with %s failed: %v", e.Model, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ErrEmptyCompletion is returned when the service answers without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// Config configures an OpenAIGenerator.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIGenerator uses an OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAIGenerator creates a generator. An empty BaseURL uses the OpenAI
// default; Gemini and other compatible endpoints work through BaseURL.
func NewOpenAIGenerator(cfg Config) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generator: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("generator: model is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Generate sends prompt as a single user message and returns the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", &ServiceError{Model: g.cfg.Model, Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ServiceError{Model: g.cfg.Model, Err: ErrEmptyCompletion}
	}

	return resp.Choices[0].Message.Content, nil
}
