package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/kbukum/dictation/cleanup"
	"github.com/kbukum/dictation/config"
	"github.com/kbukum/dictation/observability"
	"github.com/kbukum/dictation/publish/mqtt"
	"github.com/kbukum/dictation/recorder"
	"github.com/kbukum/dictation/relay"
	"github.com/kbukum/dictation/store/sqlite"
	"github.com/kbukum/dictation/transcription/openai"
	"github.com/kbukum/dictation/validation"
	"github.com/kbukum/dictation/version"
)

const appName = "dictation"

// AppConfig is the full configuration of the dictation binary.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Transcription openai.Config        `yaml:"transcription" mapstructure:"transcription"`
	Cleanup       cleanup.Config       `yaml:"cleanup" mapstructure:"cleanup"`
	Recorder      recorder.Config      `yaml:"recorder" mapstructure:"recorder"`
	Relay         relay.Config         `yaml:"relay" mapstructure:"relay"`
	Store         sqlite.Config        `yaml:"store" mapstructure:"store"`
	MQTT          mqtt.Config          `yaml:"mqtt" mapstructure:"mqtt"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section. The store lives in the user config
// directory unless configured.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = appName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	if c.Logging.Level == "" && !c.Debug {
		c.Logging.Level = "warn"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Cleanup.ApplyDefaults()
	c.Recorder.ApplyDefaults()
	c.Relay.ApplyDefaults()
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath()
	}
	c.Store.ApplyDefaults()
	c.MQTT.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags first, then the section rules tags cannot express.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Relay.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	if c.MQTT.Enabled {
		return c.MQTT.Validate()
	}
	return nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, appName, appName+".db")
}

// globalFlags are accepted before the subcommand.
type globalFlags struct {
	fs         *pflag.FlagSet
	configFile string
	envFile    string
}

func newGlobalFlags() *globalFlags {
	g := &globalFlags{fs: pflag.NewFlagSet(appName, pflag.ContinueOnError)}
	g.fs.SetInterspersed(false)
	g.fs.StringVarP(&g.configFile, "config", "c", "", "config file (default: ./config.yml or the user config directory)")
	g.fs.StringVar(&g.envFile, "env-file", "", ".env file to load")
	g.fs.String("log-level", "", "log level: trace, debug, info, warn, error, disabled")
	g.fs.String("store", "", "database file")
	g.fs.Bool("debug", false, "enable debug logging")
	return g
}

// loadConfig resolves the configuration from defaults, config file,
// DICTATION_* environment and explicit flags.
func loadConfig(g *globalFlags) (*AppConfig, error) {
	var cfg AppConfig
	err := config.LoadConfig(appName, &cfg,
		config.WithConfigFile(g.configFile),
		config.WithEnvFile(g.envFile),
		config.WithDefaults(map[string]any{
			"name": appName,
		}),
		config.WithFlags(g.fs, map[string]string{
			"log-level": "logging.level",
			"store":     "store.path",
			"debug":     "debug",
		}),
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
