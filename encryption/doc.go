// Package encryption seals small secrets, such as the transcription API
// key, before they are written to the settings store.
//
// Two AEAD ciphers are available. ChaCha20-Poly1305 is the default; AES-256-GCM
// can be selected with WithAlgorithm. Keys are derived from an arbitrary
// passphrase with SHA-256, and ciphertexts are base64 strings carrying the
// nonce as a prefix.
//
//	enc, err := encryption.New(secret)
//	sealed, err := enc.Encrypt("sk-...")
//	plain, err := enc.Decrypt(sealed)
package encryption
