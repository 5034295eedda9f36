package encryption

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmChaCha20, AlgorithmAESGCM} {
		t.Run(string(alg), func(t *testing.T) {
			enc, err := New("passphrase", WithAlgorithm(alg))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			for _, plaintext := range []string{"sk-test-123", "", "こんにちは"} {
				sealed, err := enc.Encrypt(plaintext)
				if err != nil {
					t.Fatalf("Encrypt failed: %v", err)
				}
				if plaintext != "" && sealed == plaintext {
					t.Error("ciphertext must differ from plaintext")
				}
				got, err := enc.Decrypt(sealed)
				if err != nil {
					t.Fatalf("Decrypt failed: %v", err)
				}
				if got != plaintext {
					t.Errorf("expected %q, got %q", plaintext, got)
				}
			}
		})
	}
}

func TestRandomNonce(t *testing.T) {
	enc, _ := New("k")
	a, _ := enc.Encrypt("same")
	b, _ := enc.Encrypt("same")
	if a == b {
		t.Error("expected different ciphertexts for the same input")
	}
}

func TestDecryptFailures(t *testing.T) {
	one, _ := New("key-one")
	two, _ := New("key-two")
	sealed, _ := one.Encrypt("secret")

	if _, err := two.Decrypt(sealed); err == nil {
		t.Error("expected failure with wrong key")
	}
	if _, err := one.Decrypt("not-base64!!!"); err == nil {
		t.Error("expected failure for invalid base64")
	}
	if _, err := one.Decrypt("YQ=="); err == nil {
		t.Error("expected failure for short ciphertext")
	}
}

func TestAlgorithmsAreNotInterchangeable(t *testing.T) {
	cc, _ := New("k", WithAlgorithm(AlgorithmChaCha20))
	gcm, _ := New("k", WithAlgorithm(AlgorithmAESGCM))
	sealed, _ := cc.Encrypt("secret")
	if _, err := gcm.Decrypt(sealed); err == nil {
		t.Error("AES-GCM must not open a ChaCha20 ciphertext")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := New("k", WithAlgorithm("rot13")); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secret.key")

	first, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600, got %v", st.Mode().Perm())
	}

	second, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first != second {
		t.Error("expected the persisted key to be reused")
	}
}
