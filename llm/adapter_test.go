package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
)

// --- mock dialect for testing ---

type mockDialect struct {
	name string
}

func (d *mockDialect) Name() string {
	if d.name != "" {
		return d.name
	}
	return "mock"
}

func (d *mockDialect) ChatPath() string { return "/chat" }

func (d *mockDialect) BuildRequest(req CompletionRequest) (any, error) {
	return map[string]any{
		"model":       req.Model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
	}, nil
}

func (d *mockDialect) ParseResponse(body []byte) (*CompletionResponse, error) {
	var raw struct {
		Content string `json:"content"`
		Model   string `json:"model"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return &CompletionResponse{Content: raw.Content, Model: raw.Model, Usage: Usage{TotalTokens: 10}}, nil
}

func (d *mockDialect) ParseError(body []byte) string {
	var raw struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &raw)
	return raw.Message
}

func float(v float64) *float64 { return &v }

func newMockAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	RegisterDialect("mock", &mockDialect{})
	cfg.Dialect = "mock"
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return a
}

func TestAdapterExecute(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, `{"content":"hi there","model":"m-1"}`)
	}))
	defer srv.Close()

	a := newMockAdapter(t, Config{
		BaseURL: srv.URL + "/v1", Model: "m-1", Temperature: float(0.3), MaxTokens: 64, APIKey: "sk-test",
	})
	if a.Name() != "mock-llm" {
		t.Errorf("Name() = %q", a.Name())
	}

	resp, err := a.Execute(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Content != "hi there" || resp.Model != "m-1" {
		t.Errorf("unexpected response %+v", resp)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("unexpected auth %q", auth)
	}
	if got["model"] != "m-1" || got["temperature"] != 0.3 || got["max_tokens"] != float64(64) {
		t.Errorf("defaults not applied: %v", got)
	}
}

func TestAdapterRequestOverridesDefaults(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"content":"ok"}`)
	}))
	defer srv.Close()

	a := newMockAdapter(t, Config{BaseURL: srv.URL, Model: "default", Temperature: float(0.9)})
	if _, err := a.Execute(context.Background(), CompletionRequest{Model: "override", Temperature: float(0.1)}); err != nil {
		t.Fatal(err)
	}
	if got["model"] != "override" || got["temperature"] != 0.1 {
		t.Errorf("request values must win: %v", got)
	}
}

func TestAdapterZeroTemperature(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"content":"ok"}`)
	}))
	defer srv.Close()

	a := newMockAdapter(t, Config{BaseURL: srv.URL, Model: "m", Temperature: float(0.9)})
	if _, err := a.Execute(context.Background(), CompletionRequest{Temperature: float(0)}); err != nil {
		t.Fatal(err)
	}
	if got["temperature"] != float64(0) {
		t.Errorf("temperature 0 must be sent as is, got %v", got["temperature"])
	}

	a = newMockAdapter(t, Config{BaseURL: srv.URL, Model: "m"})
	if _, err := a.Execute(context.Background(), CompletionRequest{}); err != nil {
		t.Fatal(err)
	}
	if got["temperature"] != nil {
		t.Errorf("unset temperature must stay unset, got %v", got["temperature"])
	}
}

func TestAdapterAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"with message", http.StatusTooManyRequests, `{"message":"Rate limit reached"}`, "Rate limit reached"},
		{"without message", http.StatusInternalServerError, `oops`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			a := newMockAdapter(t, Config{BaseURL: srv.URL, Model: "m"})
			_, err := a.Execute(context.Background(), CompletionRequest{})
			apiErr, ok := AsAPIError(err)
			if !ok {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tc.status || apiErr.Message != tc.message {
				t.Errorf("got %d %q", apiErr.StatusCode, apiErr.Message)
			}
		})
	}
}

func TestAdapterConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := newMockAdapter(t, Config{BaseURL: url, Model: "m"})
	_, err := a.Execute(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := AsAPIError(err); ok {
		t.Error("connection failures are not API errors")
	}
}

func TestNewValidation(t *testing.T) {
	RegisterDialect("mock", &mockDialect{})
	if _, err := New(Config{Dialect: "mock"}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := New(Config{Dialect: "nonexistent-dialect-xyz", BaseURL: "http://x"}); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestDialectRegistry(t *testing.T) {
	dialectsMu.Lock()
	original := dialects
	dialects = map[string]Dialect{}
	dialectsMu.Unlock()
	defer func() {
		dialectsMu.Lock()
		dialects = original
		dialectsMu.Unlock()
	}()

	RegisterDialect("b", &mockDialect{name: "b"})
	RegisterDialect("a", &mockDialect{name: "a"})

	got, err := GetDialect("a")
	if err != nil || got.Name() != "a" {
		t.Fatalf("GetDialect(a) = %v, %v", got, err)
	}
	names := Dialects()
	if !sort.StringsAreSorted(names) || len(names) != 2 {
		t.Errorf("Dialects() = %v", names)
	}

	a, err := New(Config{Dialect: "a", BaseURL: "http://localhost"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "a-llm" || !a.IsAvailable(context.Background()) {
		t.Errorf("unexpected adapter %q", a.Name())
	}
}
