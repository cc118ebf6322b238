package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/httputils/config"
	"github.com/kbukum/httputils/httpclient"
	"github.com/kbukum/httputils/observability"
	"github.com/kbukum/httputils/server"
)

const serviceName = "httputils"

// cliConfig is the file layout read by every command.
type cliConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	HTTPClient httpclient.Config    `yaml:"httpclient" mapstructure:"httpclient"`
	Server     server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry  observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults keeps the CLI quiet on stdout: logs go to stderr at warn
// unless configured otherwise.
func (c *cliConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	c.ServiceConfig.ApplyDefaults()
	c.HTTPClient.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *cliConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.HTTPClient.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}

// loadConfig reads the configuration selected by the global flags. The
// result has no defaults applied; bootstrap.NewApp applies them.
func loadConfig(g *globals) (*cliConfig, error) {
	var opts []config.LoaderOption
	if g.configFile != "" {
		opts = append(opts, config.WithConfigFile(g.configFile))
	}
	if g.envFile != "" {
		opts = append(opts, config.WithEnvFile(g.envFile))
	}

	cfg := &cliConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// redacted returns a copy of cfg safe to print.
func (c *cliConfig) redacted() cliConfig {
	out := *c
	if len(c.HTTPClient.Headers) > 0 {
		out.HTTPClient.Headers = make(map[string]string, len(c.HTTPClient.Headers))
		for name, value := range c.HTTPClient.Headers {
			if isSecretHeader(name) {
				value = "***"
			}
			out.HTTPClient.Headers[name] = value
		}
	}
	return out
}

func isSecretHeader(name string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Authorization", "Proxy-Authorization", "Cookie":
		return true
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "token") || strings.Contains(lower, "secret") || strings.Contains(lower, "api-key")
}

func newConfigCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		Long: `Loads the configuration file and environment exactly as the other commands
do, applies defaults and prints the result. Secret headers are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(g, cmd.OutOrStdout())
		},
	}
}

func runConfig(g *globals, out io.Writer) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	shown := cfg.redacted()
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("format config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
