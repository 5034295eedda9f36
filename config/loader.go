package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver handles finding config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise searches the
// working directory and then the per-user config directory.
func (cr *Resolver) ResolveFiles(appName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	dirs := cr.searchDirs(appName)

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.first(dirs, "config.yml", "config.yaml")
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.first(dirs, ".env."+appName, ".env")
	}
	return resolved
}

func (cr *Resolver) searchDirs(appName string) []string {
	dirs := []string{".", filepath.Join("cmd", appName)}
	if base, err := cr.FileSystem.UserConfigDir(); err == nil && base != "" {
		dirs = append(dirs, filepath.Join(base, appName))
	}
	return dirs
}

func (cr *Resolver) first(dirs []string, names ...string) string {
	for _, name := range names {
		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			if cr.FileSystem.Exists(path) {
				return path
			}
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
	Defaults   map[string]any
	Flags      *pflag.FlagSet
	FlagKeys   map[string]string // flag name -> config key
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix restricts environment binding to variables carrying prefix.
// Defaults to the upper-cased app name.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// WithDefaults registers default values keyed by dotted config keys.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = defaults }
}

// WithFlags binds command-line flags to config keys. Flags only win when
// they were set explicitly.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.Flags = fs
		lc.FlagKeys = keys
	}
}

// LoadConfig loads configuration for an app into cfg.
// Precedence, highest first: explicit flags, environment (.env included), config file, defaults.
func LoadConfig(appName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.EnvPrefix == "" {
		lc.EnvPrefix = strings.ToUpper(strings.ReplaceAll(appName, "-", "_"))
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(appName, lc)

	v := viper.New()
	for k, val := range lc.Defaults {
		v.SetDefault(k, val)
	}

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	}
	if err := bindEnvVars(v, lc.EnvPrefix); err != nil {
		return err
	}

	if lc.Flags != nil {
		for name, key := range lc.FlagKeys {
			if f := lc.Flags.Lookup(name); f != nil && f.Changed {
				v.Set(key, f.Value.String())
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for %s: %w", appName, err)
	}
	return nil
}

// bindEnvVars binds every PREFIX_* environment variable to the nested key
// variants it may represent, so that DICTATION_STORE_SECRET_KEY reaches
// store.secret_key.
func bindEnvVars(v *viper.Viper, prefix string) error {
	p := prefix + "_"
	for _, env := range os.Environ() {
		name, _, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, p) {
			continue
		}
		for _, variant := range generateEnvKeyVariants(strings.TrimPrefix(name, p)) {
			if err := v.BindEnv(variant, name); err != nil {
				return fmt.Errorf("bind env %s: %w", name, err)
			}
		}
	}
	return nil
}

// generateEnvKeyVariants creates the possible nested keys for an env var suffix.
//
//	STORE_SECRET_KEY -> [store_secret_key, store.secret.key, store.secret_key, store_secret.key]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")

	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
		variants = append(variants, strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "."))
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
