package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/genai"

	"content-pipeline/cmd/internal/logger"
	"content-pipeline/cmd/internal/quota"
	"content-pipeline/config"
	"content-pipeline/models"
)

// Client is the language-model capability: one prompt in, best-effort text out.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrEmptyResponse = errors.New("empty response from language model")

type callInfoKey struct{}

type callInfo struct {
	purpose string
	topic   string
}

// WithCallInfo tags the calls made with ctx for the call log.
func WithCallInfo(ctx context.Context, purpose, topic string) context.Context {
	return context.WithValue(ctx, callInfoKey{}, callInfo{purpose: purpose, topic: topic})
}

func callInfoFrom(ctx context.Context) callInfo {
	v, _ := ctx.Value(callInfoKey{}).(callInfo)
	return v
}

// LogStore persists call logs. repositories.LLMLogRepository satisfies it.
type LogStore interface {
	Insert(ctx context.Context, log models.LLMCallLog) (*mongo.InsertOneResult, error)
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiClient calls Gemini through google.golang.org/genai.
type GeminiClient struct {
	model    string
	timeout  time.Duration
	limiter  *quota.Limiter
	logs     LogStore
	generate generateFunc
}

var _ Client = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration, limiter *quota.Limiter, logs LogStore) (*GeminiClient, error) {
	if cfg.Provider != "google" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		model:    cfg.ModelName,
		timeout:  timeout,
		limiter:  limiter,
		logs:     logs,
		generate: client.Models.GenerateContent,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.generate(ctx, c.model, genai.Text(prompt), nil)

	var text string
	if err == nil {
		if result == nil {
			err = ErrEmptyResponse
		} else if text = result.Text(); text == "" {
			err = ErrEmptyResponse
		}
	}

	c.record(ctx, prompt, text, result, start, err)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return text, nil
}

func (c *GeminiClient) record(ctx context.Context, prompt, text string, result *genai.GenerateContentResponse, start time.Time, callErr error) {
	info := callInfoFrom(ctx)
	entry := models.LLMCallLog{
		Purpose:        info.purpose,
		Topic:          info.topic,
		ModelName:      c.model,
		DurationMs:     time.Since(start).Milliseconds(),
		PromptChars:    len(prompt),
		OutputResponse: text,
		RequestedAt:    start,
		CompletedAt:    time.Now(),
	}
	if result != nil {
		entry.ModelVersion = result.ModelVersion
		if u := result.UsageMetadata; u != nil {
			entry.InputTokens = int64(u.PromptTokenCount)
			entry.OutputTokens = int64(u.CandidatesTokenCount)
			entry.TotalTokens = int64(u.TotalTokenCount)
		}
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.ErrorMessage = &msg
	}

	logger.Log.Debugf("llm call purpose=%s model=%s duration_ms=%d input=%d output=%d",
		entry.Purpose, entry.ModelName, entry.DurationMs, entry.InputTokens, entry.OutputTokens)

	if c.logs == nil {
		return
	}
	// the call context may already be past its deadline
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := c.logs.Insert(logCtx, entry); err != nil {
		logger.Log.Warnf("failed to store llm call log: %v", err)
	}
}
