// Package validation validates configuration structs through struct tags and
// command-line input through a small error-collecting builder.
//
//	type RelayConfig struct {
//	    Host string `mapstructure:"host" validate:"required,ip"`
//	}
//	err := validation.Validate(cfg)
//
//	err := validation.New().OneOf("provider", p, []string{"remote", "self-hosted"}).Validate()
package validation
