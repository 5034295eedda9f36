package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
)

func startTestServer(t *testing.T, register func(*gin.Engine)) *Server {
	t.Helper()
	srv := New(Config{}, logger.Nop())
	register(srv.GinEngine())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv
}

func TestServerEphemeralPort(t *testing.T) {
	srv := startTestServer(t, func(e *gin.Engine) {
		e.GET("/", func(c *gin.Context) { RespondSuccess(c) })
	})

	if strings.HasSuffix(srv.Addr(), ":0") {
		t.Fatalf("expected a bound port, got %s", srv.Addr())
	}
	if !strings.HasPrefix(srv.URL(), "http://127.0.0.1:") {
		t.Errorf("unexpected URL %s", srv.URL())
	}

	resp, err := http.Get(srv.URL())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body SuccessResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if !body.Success {
		t.Error("expected success body")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected permissive CORS by default")
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected request id header")
	}
}

func TestRespondWithError(t *testing.T) {
	srv := startTestServer(t, func(e *gin.Engine) {
		e.POST("/app", func(c *gin.Context) { RespondWithError(c, errors.UploadInvalid("missing audio")) })
		e.POST("/plain", func(c *gin.Context) { RespondWithError(c, context.DeadlineExceeded) })
	})

	tests := []struct {
		path   string
		status int
	}{
		{"app", http.StatusBadRequest},
		{"plain", http.StatusInternalServerError},
	}
	for _, tc := range tests {
		resp, err := http.Post(srv.URL()+tc.path, "application/json", nil)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		var body errors.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Errorf("%s: status %d, want %d", tc.path, resp.StatusCode, tc.status)
		}
		if body.Error == "" {
			t.Errorf("%s: expected error message", tc.path)
		}
	}
}

func TestServerStopReleasesPort(t *testing.T) {
	srv := New(Config{}, logger.Nop())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	url := srv.URL()
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := http.Get(url); err == nil {
		t.Error("expected connection failure after Stop")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{Port: 70000}).Validate(); err == nil {
		t.Error("expected port range error")
	}
	if err := (&Config{ReadTimeout: -1}).Validate(); err == nil {
		t.Error("expected timeout error")
	}
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Host != "127.0.0.1" || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
