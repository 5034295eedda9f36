package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kbukum/dictation/httpclient"
	"github.com/kbukum/dictation/httpclient/rest"
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	// Message is the provider's error message, or "" when the body had none.
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("llm: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: HTTP %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	ok := errors.As(err, &e)
	return e, ok
}

// Adapter is a config-driven chat-completion client that works with any
// provider via the Dialect pattern.
//
// It implements provider.Provider.
type Adapter struct {
	name      string
	rest      *rest.Client
	dialect   Dialect
	model     string
	temp      *float64
	maxTokens int
}

// New creates an adapter from config using the global dialect registry.
func New(cfg Config) (*Adapter, error) {
	cfg.applyDefaults()

	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	restCfg := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: cfg.Headers,
	}
	if cfg.APIKey != "" {
		restCfg.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	client, err := rest.New(restCfg)
	if err != nil {
		return nil, fmt.Errorf("llm: create rest client: %w", err)
	}

	return &Adapter{
		name:      cfg.Name,
		rest:      client,
		dialect:   dialect,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// --- provider.Provider interface ---

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// IsAvailable reports whether the adapter has a base URL to call.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	return a.rest.HTTP().Config().BaseURL != ""
}

// Execute sends a completion request and returns the full response.
// Non-2xx responses are returned as *APIError.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: build request: %w", err)
	}

	resp, err := a.rest.HTTP().Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   a.dialect.ChatPath(),
		Body:   body,
	})
	if err != nil {
		if httpErr, ok := httpclient.AsError(err); ok && httpErr.StatusCode > 0 {
			return CompletionResponse{}, &APIError{
				StatusCode: httpErr.StatusCode,
				Message:    a.dialect.ParseError(httpErr.Body),
				Err:        err,
			}
		}
		return CompletionResponse{}, fmt.Errorf("llm: execute: %w", err)
	}

	result, err := a.dialect.ParseResponse(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: parse response: %w", err)
	}
	return *result, nil
}

// Dialect returns the dialect used by this adapter.
func (a *Adapter) Dialect() Dialect { return a.dialect }

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == nil {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
