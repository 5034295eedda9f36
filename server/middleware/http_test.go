package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/server/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)
	handler := middleware.Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/upload", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(middleware.HeaderRequestID)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if seen == "" || rr.Header().Get(middleware.HeaderRequestID) != seen {
		t.Errorf("generated id not propagated: request=%q response=%q", seen, rr.Header().Get(middleware.HeaderRequestID))
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "fixed-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get(middleware.HeaderRequestID) != "fixed-id" {
		t.Errorf("existing id not preserved")
	}
}

func TestCORSPermissive(t *testing.T) {
	handler := middleware.CORS(middleware.PermissiveCORS())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/upload", http.NoBody)
	req.Header.Set("Origin", "null")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected literal *, got %q", got)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("handler not reached")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := middleware.CORS(middleware.PermissiveCORS())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("preflight must not reach the handler")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/upload", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("missing allowed methods")
	}
}

func TestCORSSpecificOrigins(t *testing.T) {
	cfg := &middleware.CORSConfig{AllowedOrigins: []string{"http://127.0.0.1:5000"}}
	handler := middleware.CORS(cfg)(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"http://127.0.0.1:5000", "http://127.0.0.1:5000"},
		{"http://evil.example", ""},
		{"", ""},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
			t.Errorf("origin %q: got %q, want %q", tc.origin, got, tc.want)
		}
	}
}

func TestBodySizeLimit(t *testing.T) {
	handler := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		}
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 2048))))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"256MB", 256 << 20},
		{"512kb", 512 << 10},
		{"1GB", 1 << 30},
		{"100", 100},
		{"64B", 64},
		{"", 7},
		{"lots", 7},
		{"-5MB", 7},
	}
	for _, tc := range tests {
		if got := middleware.ParseSize(tc.in, 7); got != tc.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)
	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "rid-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["level"] != "warn" {
		t.Errorf("expected warn level for 4xx, got %v", entry["level"])
	}
	if entry["status"] != float64(400) || entry["path"] != "/upload" || entry["request_id"] != "rid-1" {
		t.Errorf("unexpected fields: %v", entry)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := middleware.Chain(mk("outer"), mk("middle"), mk("inner"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	want := "outer,middle,inner,handler"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
