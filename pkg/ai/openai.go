package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Logger    zerolog.Logger
}

// OpenAIClient implements Generator against the OpenAI chat completion API.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a new generator using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-assess-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_client").Logger(),
	}, nil
}

// Name identifies the provider in metrics and persisted records.
func (e *OpenAIClient) Name() string {
	return providerOpenAI
}

// Generate sends the prompt as a single chat completion.
func (e *OpenAIClient) Generate(parent context.Context, req Request) (string, error) {
	ctx, span := e.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
	))
	defer span.End()

	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = e.cfg.MaxTokens
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an educational assessment assistant. Respond with a single JSON object.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
	})
	aiDuration.WithLabelValues(providerOpenAI).Observe(time.Since(start).Seconds())
	if err != nil {
		mapped := e.classify(ctx, err)
		recordFailure(providerOpenAI, mapped)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, mapped.Error())
		return "", mapped
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		recordFailure(providerOpenAI, ErrNoContent)
		span.RecordError(ErrNoContent)
		span.SetStatus(codes.Error, ErrNoContent.Error())
		return "", ErrNoContent
	}

	return resp.Choices[0].Message.Content, nil
}

func (e *OpenAIClient) classify(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusServiceUnavailable {
			return &TransientError{Provider: providerOpenAI, StatusCode: apiErr.HTTPStatusCode, Err: err}
		}
		return &UpstreamError{Provider: providerOpenAI, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusServiceUnavailable || reqErr.HTTPStatusCode == 0 {
			return &TransientError{Provider: providerOpenAI, StatusCode: reqErr.HTTPStatusCode, Err: err}
		}
		return &UpstreamError{Provider: providerOpenAI, StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("openai generate: %w", ctx.Err())
	}

	return &TransientError{Provider: providerOpenAI, Err: err}
}
