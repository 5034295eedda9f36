// Package config loads dictation configuration with Viper.
//
// Sources, highest precedence first: explicitly set command-line flags,
// DICTATION_* environment variables (a .env file is loaded into the
// environment first), config.yml, and registered defaults. Config files are
// searched in the working directory, ./cmd/<app>, and the user config
// directory (for example ~/.config/dictation).
//
//	var cfg AppConfig
//	err := config.LoadConfig("dictation", &cfg, config.WithConfigFile(path))
package config
