package bootstrap

import (
	"github.com/kbukum/dictation/config"
)

// Config is satisfied by any config struct embedding config.ServiceConfig
// that also implements ApplyDefaults and Validate:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Store sqlite.Config  `yaml:"store" mapstructure:"store"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
