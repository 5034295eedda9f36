package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/observability"
	"github.com/kbukum/dictation/provider"
)

// ProgressFunc receives "Transcribing chunk i/n" before each chunk upload.
type ProgressFunc func(message string)

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithCeiling overrides MaxUploadBytes.
func WithCeiling(n int) ClientOption {
	return func(c *Client) { c.ceiling = n }
}

// WithMetrics records call counts and latency.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the component logger.
func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// Client transcribes audio of any size through a registered provider,
// splitting payloads over the upload ceiling into sequential chunks.
type Client struct {
	registry *provider.Registry[Provider]
	ceiling  int
	metrics  *observability.Metrics
	log      *logger.Logger
}

// NewClient creates a client over the given provider factories.
func NewClient(registry *provider.Registry[Provider], opts ...ClientOption) *Client {
	c := &Client{registry: registry, ceiling: MaxUploadBytes}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get(logger.ComponentTranscription)
	}
	return c
}

// Transcribe returns the transcript of audio. Payloads up to the ceiling are
// sent in one request; larger ones are split, uploaded in order and joined
// with single spaces. The first failing chunk fails the whole call.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string, s Settings, progress ProgressFunc) (text string, err error) {
	p, err := c.providerFor(s)
	if err != nil {
		return "", err
	}
	if p.RequiresCredential() && s.APIKey == "" {
		return "", errors.MissingAPIKey()
	}

	chunks := SplitChunks(audio, c.ceiling)
	if len(chunks) == 0 {
		chunks = [][]byte{audio}
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe,
		attribute.String(observability.AttrProvider, p.Name()),
		attribute.String(observability.AttrMimeType, mimeType),
		attribute.Int(observability.AttrBytes, len(audio)),
		attribute.Int(observability.AttrChunks, len(chunks)),
	)
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordTranscription(ctx, p.Name(), status, len(chunks), time.Since(start))
		observability.EndSpan(span, err)
	}()

	req := Request{
		FileName: "audio." + ExtensionFor(mimeType),
		MimeType: mimeType,
		Language: s.Language,
	}

	if len(chunks) == 1 {
		req.Audio = audio
		return c.single(ctx, p, req)
	}

	c.log.Info("Audio exceeds upload ceiling, transcribing in chunks", logger.Fields(
		logger.FieldBytes, len(audio), logger.FieldChunks, len(chunks)))

	texts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if progress != nil {
			progress(fmt.Sprintf("Transcribing chunk %d/%d", i+1, len(chunks)))
		}
		req.Audio = chunk
		text, err := c.chunk(ctx, p, req, i+1, len(chunks))
		if err != nil {
			return "", err
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, " "), nil
}

func (c *Client) chunk(ctx context.Context, p Provider, req Request, n, total int) (text string, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanChunk,
		attribute.Int(observability.AttrChunk, n),
		attribute.Int(observability.AttrChunks, total),
		attribute.Int(observability.AttrBytes, len(req.Audio)),
	)
	defer func() { observability.EndSpan(span, err) }()

	text, err = c.single(ctx, p, req)
	if err != nil {
		c.log.Warn("Chunk transcription failed", logger.Fields(
			logger.FieldChunk, n, logger.FieldChunks, total, logger.FieldError, err.Error()))
	}
	return text, err
}

func (c *Client) single(ctx context.Context, p Provider, req Request) (string, error) {
	resp, err := p.Transcribe(ctx, req)
	if err != nil {
		return "", err
	}
	c.log.Debug("Transcription received", logger.Fields(
		logger.FieldProvider, p.Name(), logger.FieldBytes, len(req.Audio)))
	return resp.Text, nil
}

// providerFor builds the provider named by s from its registered factory.
func (c *Client) providerFor(s Settings) (Provider, error) {
	name := s.Provider
	if name == "" {
		name = ProviderRemote
	}
	p, err := c.registry.Create(name, map[string]any{
		OptionURL:    s.SelfHostedURL,
		OptionAPIKey: s.APIKey,
	})
	if err != nil {
		return nil, errors.InvalidInput("provider", err.Error())
	}
	return p, nil
}
