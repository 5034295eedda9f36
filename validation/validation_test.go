package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/dictation/errors"
)

type relayConfig struct {
	Host string `mapstructure:"host" validate:"required,ip"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
}

type appConfig struct {
	Relay   relayConfig `mapstructure:"relay"`
	BaseURL string      `mapstructure:"base_url" validate:"required,url"`
	Mode    string      `mapstructure:"mode" validate:"oneof=remote self-hosted"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := appConfig{
		Relay:   relayConfig{Host: "127.0.0.1"},
		BaseURL: "https://api.openai.com/v1",
		Mode:    "remote",
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	cfg := appConfig{
		Relay:   relayConfig{Host: "localhost", Port: 70000},
		BaseURL: "not a url",
		Mode:    "cloud",
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}

	msg := errors.Message(err)
	for _, want := range []string{
		"relay.host: must be an IP address",
		"relay.port: must be at most 65535",
		"base_url: must be a valid URL",
		"mode: must be one of: remote self-hosted",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	appErr, _ := errors.AsAppError(err)
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", appErr.Details["fields"])
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"remote", "self-hosted"}
	if err := New().OneOf("provider", "remote", allowed).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := New().OneOf("provider", "azure", allowed).Validate()
	if err == nil {
		t.Fatal("expected error for value outside the allowed set")
	}
	if !strings.Contains(err.Error(), "provider: must be one of: remote, self-hosted") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New().
		Required("model", "").
		Bool("cleanup", "maybe").
		Custom(false, "url", "must not be empty when self-hosted")

	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(v.Errors()), v.Errors())
	}
	if v.Validate() == nil {
		t.Error("expected Validate to return an error")
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := New().Required("model", "gpt-4o-mini").Bool("cleanup", "true")
	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
	if err := v.Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
