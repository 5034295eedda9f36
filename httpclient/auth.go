package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthBearer
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type  AuthType
	Token string
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// NoAuth disables a client-level default for a single request.
func NoAuth() *AuthConfig {
	return &AuthConfig{Type: AuthNone}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	if a.Type == AuthBearer && a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}
