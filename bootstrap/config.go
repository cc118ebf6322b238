package bootstrap

import (
	"github.com/kbukum/httputils/config"
)

// Config is the constraint for application config types. A pointer to any
// struct embedding config.ServiceConfig satisfies it through promoted
// methods, as long as the struct does not shadow them.
//
//	type CLIConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    HTTPClient httpclient.Config `yaml:"httpclient" mapstructure:"httpclient"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
