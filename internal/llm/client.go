// Package llm talks to the chat-completion model and turns its output into an
// AnalysisResult.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/venturelens/internal/apperr"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Request is one completion call.
type Request struct {
	Prompt string
	// JSON asks the model for a JSON object response when the backend supports it.
	JSON bool
}

// Completer returns the model's text for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures the OpenAI-compatible client.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float32
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
	JSONMode          bool
}

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 90 * time.Second
)

// Client is a Completer backed by go-openai.
type Client struct {
	api     *openai.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a client. A missing API key is a configuration error.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.New(apperr.KindConfiguration, "llm.NewClient", "OpenAI API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	c := &Client{api: openai.NewClientWithConfig(oc), cfg: cfg, logger: logger}
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.RequestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends one chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	const op = "llm.Complete"
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", c.classify(ctx, op, err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	creq := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if isReasoningModel(c.cfg.Model) {
		// Reasoning models reject max_tokens and any non-default temperature.
		creq.MaxCompletionTokens = c.cfg.MaxTokens
	} else {
		creq.MaxTokens = c.cfg.MaxTokens
		creq.Temperature = c.cfg.Temperature
	}
	if req.JSON && c.cfg.JSONMode {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", c.classify(ctx, op, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindUpstream, op, "model returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", apperr.New(apperr.KindUpstream, op, "model returned empty content")
	}
	c.logger.Debug("completion finished",
		zap.String("model", c.cfg.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return content, nil
}

func (c *Client) classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, op, fmt.Errorf("model call timed out: %w", err))
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		c.logger.Warn("model API error",
			zap.Int("status", apiErr.HTTPStatusCode),
			zap.String("message", apiErr.Message))
	} else {
		c.logger.Warn("model call failed", zap.Error(err))
	}
	return apperr.Wrap(apperr.KindUpstream, op, err)
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, p) {
			return true
		}
	}
	return false
}
