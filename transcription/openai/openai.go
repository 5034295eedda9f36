package openai

import (
	"context"
	"fmt"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/httpclient"
	"github.com/kbukum/dictation/httpclient/rest"
	"github.com/kbukum/dictation/provider"
	"github.com/kbukum/dictation/transcription"
)

// Endpoint describes one upload target.
type Endpoint struct {
	Name  string
	URL   string
	Model string
	// APIKey is sent as a bearer token when RequireAuth is set.
	APIKey      string
	RequireAuth bool
	Config      httpclient.Config
}

// Provider implements transcription.Provider for OpenAI-compatible
// /audio/transcriptions endpoints.
type Provider struct {
	endpoint Endpoint
	client   *rest.Client
}

// NewProvider creates a provider for endpoint.
func NewProvider(endpoint Endpoint) (*Provider, error) {
	if endpoint.URL == "" {
		return nil, fmt.Errorf("openai: endpoint URL is required")
	}
	if endpoint.Model == "" {
		endpoint.Model = DefaultModel
	}
	client, err := rest.New(endpoint.Config)
	if err != nil {
		return nil, fmt.Errorf("openai: create rest client: %w", err)
	}
	return &Provider{endpoint: endpoint, client: client}, nil
}

// Register adds the remote and self-hosted factories to reg.
func Register(reg *provider.Registry[transcription.Provider], cfg Config) {
	cfg.ApplyDefaults()
	reg.RegisterFactory(transcription.ProviderRemote, RemoteFactory(cfg))
	reg.RegisterFactory(transcription.ProviderSelfHosted, SelfHostedFactory(cfg))
}

// RemoteFactory builds the hosted provider, authenticated with the
// "api_key" option.
func RemoteFactory(cfg Config) provider.Factory[transcription.Provider] {
	return func(opts map[string]any) (transcription.Provider, error) {
		return NewProvider(Endpoint{
			Name:        transcription.ProviderRemote,
			URL:         cfg.RemoteURL,
			Model:       modelOption(opts, cfg.Model),
			APIKey:      provider.String(opts, transcription.OptionAPIKey),
			RequireAuth: true,
			Config:      httpclient.Config{Timeout: cfg.Timeout},
		})
	}
}

// SelfHostedFactory builds the unauthenticated provider for the "url"
// option, falling back to cfg.SelfHostedURL.
func SelfHostedFactory(cfg Config) provider.Factory[transcription.Provider] {
	return func(opts map[string]any) (transcription.Provider, error) {
		url := provider.String(opts, transcription.OptionURL)
		if url == "" {
			url = cfg.SelfHostedURL
		}
		return NewProvider(Endpoint{
			Name:   transcription.ProviderSelfHosted,
			URL:    url,
			Model:  modelOption(opts, cfg.Model),
			Config: httpclient.Config{Timeout: cfg.Timeout},
		})
	}
}

func modelOption(opts map[string]any, fallback string) string {
	if m := provider.String(opts, transcription.OptionModel); m != "" {
		return m
	}
	return fallback
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.endpoint.Name }

// IsAvailable reports whether the provider has what it needs to upload.
func (p *Provider) IsAvailable(_ context.Context) bool {
	return !p.endpoint.RequireAuth || p.endpoint.APIKey != ""
}

// RequiresCredential reports whether an API key must be stored.
func (p *Provider) RequiresCredential() bool { return p.endpoint.RequireAuth }

// Transcribe uploads req.Audio as multipart field "file" and returns the
// "text" field of the response.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if p.endpoint.RequireAuth && p.endpoint.APIKey == "" {
		return nil, errors.MissingAPIKey()
	}

	model := p.endpoint.Model
	if req.Model != "" {
		model = req.Model
	}
	body := (&httpclient.MultipartBody{}).
		AddFile("file", req.FileName, req.MimeType, req.Audio).
		AddField("model", model)
	if req.Language != "" {
		body.AddField("language", req.Language)
	}

	auth := httpclient.NoAuth()
	if p.endpoint.RequireAuth {
		auth = httpclient.BearerAuth(p.endpoint.APIKey)
	}

	resp, err := rest.Post[transcriptionResponse](ctx, p.client, p.endpoint.URL, body, rest.WithAuth(auth))
	if err != nil {
		return nil, toAppError(resp, err)
	}
	return &transcription.Response{Text: resp.Data.Text}, nil
}

type transcriptionResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

func toAppError(resp *rest.Response[transcriptionResponse], err error) error {
	httpErr, ok := httpclient.AsError(err)
	if !ok || httpErr.StatusCode == 0 {
		return errors.TranscriptionFailed(fmt.Sprintf("Transcription request failed: %v", err), 0).WithCause(err)
	}
	var message string
	if resp != nil && resp.Data.Error != nil {
		message = resp.Data.Error.Message
	}
	return errors.TranscriptionFailed(message, httpErr.StatusCode).WithCause(err)
}
