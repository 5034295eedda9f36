package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// selfSigned writes a self-signed certificate and its key as PEM files.
func selfSigned(t *testing.T) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "broker.local"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		DNSNames:              []string{"broker.local"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	writePEM(t, certFile, "CERTIFICATE", der)
	writePEM(t, keyFile, "EC PRIVATE KEY", keyDER)
	return certFile, keyFile
}

func writePEM(t *testing.T, path, typ string, der []byte) {
	t.Helper()
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestBuildDisabled(t *testing.T) {
	cfg, err := TLSConfig{}.Build()
	if err != nil || cfg != nil {
		t.Errorf("zero config should build nothing, got %v, %v", cfg, err)
	}
}

func TestBuild(t *testing.T) {
	certFile, keyFile := selfSigned(t)

	cfg, err := TLSConfig{
		CAFile:     certFile,
		CertFile:   certFile,
		KeyFile:    keyFile,
		ServerName: "broker.local",
	}.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if cfg.RootCAs == nil {
		t.Error("expected a CA pool")
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("expected a client certificate, got %d", len(cfg.Certificates))
	}
	if cfg.ServerName != "broker.local" || cfg.MinVersion != tls.VersionTLS12 || cfg.InsecureSkipVerify {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestBuildSkipVerify(t *testing.T) {
	cfg, err := TLSConfig{SkipVerify: true}.Build()
	if err != nil || cfg == nil || !cfg.InsecureSkipVerify {
		t.Errorf("expected skip verify config, got %+v, %v", cfg, err)
	}
}

func TestBuildErrors(t *testing.T) {
	certFile, _ := selfSigned(t)
	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     TLSConfig
		wantErr string
	}{
		{"missing CA", TLSConfig{CAFile: "/nonexistent/ca.pem"}, "read CA file"},
		{"garbage CA", TLSConfig{CAFile: garbage}, "no certificates"},
		{"cert without key", TLSConfig{CertFile: certFile}, "must be set together"},
		{"unreadable key", TLSConfig{CertFile: certFile, KeyFile: garbage}, "load client certificate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Build()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected %q, got %v", tc.wantErr, err)
			}
		})
	}
}
