package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kbukum/dictation/httpclient"
)

// Client is a JSON-focused REST client that wraps the base HTTP client.
type Client struct {
	http *httpclient.Client
}

// New creates a REST client. Accept: application/json is added to the
// default headers.
func New(cfg httpclient.Config) (*Client, error) {
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	if _, ok := cfg.Headers["Accept"]; !ok {
		cfg.Headers["Accept"] = "application/json"
	}
	c, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// HTTP returns the underlying HTTP client.
func (c *Client) HTTP() *httpclient.Client {
	return c.http
}

// RequestOption configures a single REST request.
type RequestOption func(*httpclient.Request)

// WithAuth overrides authentication for the request.
func WithAuth(auth *httpclient.AuthConfig) RequestOption {
	return func(r *httpclient.Request) {
		r.Auth = auth
	}
}

// Response wraps a typed REST response.
type Response[T any] struct {
	StatusCode int
	Headers    map[string]string
	Data       T
}

// Post sends body as JSON (or multipart when body is *httpclient.MultipartBody)
// and decodes the JSON response into type T.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodPost, path, body, opts...)
}

// do executes the request. On a non-2xx status the error body is decoded
// into T when possible and returned together with the error, so callers can
// read upstream error payloads.
func do[T any](ctx context.Context, c *Client, method, path string, body any, opts ...RequestOption) (*Response[T], error) {
	req := httpclient.Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if resp != nil {
			var data T
			if jsonErr := json.Unmarshal(resp.Body, &data); jsonErr == nil {
				return &Response[T]{StatusCode: resp.StatusCode, Headers: resp.Headers, Data: data}, err
			}
		}
		return nil, err
	}

	var data T
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return nil, fmt.Errorf("httpclient/rest: decode response: %w", err)
		}
	}
	return &Response[T]{StatusCode: resp.StatusCode, Headers: resp.Headers, Data: data}, nil
}
