package sqlite

import "path/filepath"

// Config configures the SQLite store.
type Config struct {
	// Path is the database file.
	Path string `mapstructure:"path" validate:"required"`
	// BlobDir holds recovery audio. Defaults to "blobs" next to Path.
	BlobDir string `mapstructure:"blob_dir"`
	// SecretKey encrypts the stored credential. When empty a key is read
	// from (or generated into) KeyFile.
	SecretKey string `mapstructure:"secret_key"`
	// KeyFile defaults to "secret.key" next to Path.
	KeyFile string `mapstructure:"key_file"`
}

// ApplyDefaults fills paths derived from Path.
func (c *Config) ApplyDefaults() {
	dir := filepath.Dir(c.Path)
	if c.BlobDir == "" {
		c.BlobDir = filepath.Join(dir, "blobs")
	}
	if c.KeyFile == "" {
		c.KeyFile = filepath.Join(dir, "secret.key")
	}
}
