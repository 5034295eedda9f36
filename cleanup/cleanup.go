package cleanup

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/llm"
	"github.com/kbukum/dictation/llm/openai"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/observability"
)

// SystemPrompt instructs the model how to rewrite a raw transcript.
const SystemPrompt = `You clean up raw speech-to-text transcripts.
Remove filler words (um, uh, you know, like) and stutters or repeated words.
Fix punctuation and capitalization.
Split the text into paragraphs where the topic changes.
Preserve the speaker's meaning and wording otherwise; do not summarize or add content.
Reply with the cleaned text only, as plain text with no markdown, quotes or commentary.`

// Credentials supplies the stored API key, or "" when none is stored.
type Credentials interface {
	Credential(ctx context.Context) (string, error)
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client rewrites transcripts through a chat-completion endpoint.
type Client struct {
	cfg   Config
	creds Credentials
	log   *logger.Logger
}

// New creates a cleanup client.
func New(cfg Config, creds Credentials, opts ...Option) *Client {
	cfg.ApplyDefaults()
	c := &Client{cfg: cfg, creds: creds}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get(logger.ComponentCleanup)
	}
	return c
}

// MaxTokens is the completion budget for text: one and a half tokens per
// character plus 500.
func MaxTokens(text string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(text))*1.5)) + 500
}

// Cleanup returns the model's rewrite of text. An empty model uses the
// configured default.
func (c *Client) Cleanup(ctx context.Context, text, model string) (cleaned string, err error) {
	key, err := c.creds.Credential(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.MissingAPIKey()
	}
	if model == "" {
		model = c.cfg.Model
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanCleanup,
		attribute.String(observability.AttrModel, model))
	defer func() { observability.EndSpan(span, err) }()

	adapter, err := llm.New(llm.Config{
		Name:    "cleanup",
		Dialect: openai.DialectName,
		BaseURL: c.cfg.BaseURL,
		Model:   model,
		Timeout: c.cfg.Timeout,
		APIKey:  key,
	})
	if err != nil {
		return "", errors.Internal(err)
	}

	resp, err := adapter.Execute(ctx, llm.CompletionRequest{
		SystemPrompt: SystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: text}},
		Temperature:  c.cfg.Temperature,
		MaxTokens:    MaxTokens(text),
	})
	if err != nil {
		c.log.Warn("Cleanup request failed", logger.Fields(logger.FieldModel, model, logger.FieldError, err.Error()))
		return "", toAppError(err)
	}

	c.log.Debug("Cleanup completed", logger.Fields(
		logger.FieldModel, model, "tokens", resp.Usage.TotalTokens))
	return resp.Content, nil
}

func toAppError(err error) error {
	if apiErr, ok := llm.AsAPIError(err); ok {
		return errors.CleanupFailed(apiErr.Message, apiErr.StatusCode).WithCause(err)
	}
	return errors.CleanupFailed(fmt.Sprintf("Cleanup request failed: %v", err), 0).WithCause(err)
}
