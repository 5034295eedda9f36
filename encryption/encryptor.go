package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryptor seals and opens string secrets.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Algorithm names a supported AEAD cipher.
type Algorithm string

const (
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
)

// Option configures New.
type Option func(*options)

type options struct {
	algorithm Algorithm
}

// WithAlgorithm selects the cipher (default: ChaCha20-Poly1305).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// New creates an Encryptor keyed by the SHA-256 digest of secret.
func New(secret string, opts ...Option) (Encryptor, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption: empty secret")
	}
	o := &options{algorithm: AlgorithmChaCha20}
	for _, opt := range opts {
		opt(o)
	}

	key := sha256.Sum256([]byte(secret))

	var (
		aead cipher.AEAD
		err  error
	)
	switch o.algorithm {
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(key[:])
	case AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key[:]); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	default:
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", o.algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", o.algorithm, err)
	}
	return &aeadService{aead: aead}, nil
}

type aeadService struct {
	aead cipher.AEAD
}

func (s *aeadService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *aeadService) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("ciphertext too short")
	}
	plaintext, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// LoadOrCreateKey reads a hex secret from path, generating and persisting a
// random 32-byte one (mode 0600) when the file does not exist yet.
func LoadOrCreateKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", fmt.Errorf("key file %s is empty", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read key file: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	key := hex.EncodeToString(buf)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}
