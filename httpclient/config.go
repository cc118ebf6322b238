package httpclient

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/kbukum/httputils/config"
	"github.com/kbukum/httputils/resilience"
	"github.com/kbukum/httputils/security"
	"github.com/kbukum/httputils/validation"
	"github.com/kbukum/httputils/version"
)

const defaultName = "httpclient"

// Config configures the HTTP client.
type Config struct {
	// Name identifies the client in logs, spans and metrics.
	Name string `yaml:"name" mapstructure:"name"`

	// Timeout bounds connecting and waiting for response headers on each
	// attempt when a request sets none. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is sent when a request sets none. Defaults to httputils/<version>.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are sent with every request, before request headers.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Workers bounds the async worker pool. Zero means unbounded.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`

	// RequestIDHeader, when set, carries a per-execution UUID that stays the
	// same across retries.
	RequestIDHeader string `yaml:"request_id_header" mapstructure:"request_id_header"`

	// EncodeFormValues percent-encodes names and values written by
	// Request.Form. Off by default: form pairs are joined verbatim.
	EncodeFormValues bool `yaml:"encode_form_values" mapstructure:"encode_form_values"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Proxy configures the client-wide proxy. Nil reads HTTP_PROXY,
	// HTTPS_PROXY and NO_PROXY from the environment.
	Proxy *ProxyConfig `yaml:"proxy" mapstructure:"proxy"`

	// RateLimiter throttles every attempt. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limiter" mapstructure:"rate_limiter"`

	// CircuitBreaker guards every attempt. Transport errors and 5xx
	// responses count as failures. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`

	// Bulkhead caps concurrent executions, sync and async alike. Nil
	// disables it.
	Bulkhead *resilience.BulkheadConfig `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// ProxyConfig holds environment-style proxy settings.
type ProxyConfig struct {
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	// NoProxy is a comma-separated list of hosts that bypass the proxy.
	NoProxy string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// proxyFunc returns the proxy selector for this configuration.
func (p *ProxyConfig) proxyFunc() func(*url.URL) (*url.URL, error) {
	if p == nil {
		return httpproxy.FromEnvironment().ProxyFunc()
	}
	cfg := httpproxy.Config{
		HTTPProxy:  p.HTTPProxy,
		HTTPSProxy: p.HTTPSProxy,
		NoProxy:    p.NoProxy,
	}
	return cfg.ProxyFunc()
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	if c.RateLimiter != nil && c.RateLimiter.Name == "" {
		c.RateLimiter.Name = c.Name
	}
	if c.CircuitBreaker != nil && c.CircuitBreaker.Name == "" {
		c.CircuitBreaker.Name = c.Name
	}
	if c.Bulkhead != nil && c.Bulkhead.Name == "" {
		c.Bulkhead.Name = c.Name
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	if c.Proxy != nil {
		for _, raw := range []string{c.Proxy.HTTPProxy, c.Proxy.HTTPSProxy} {
			if raw == "" {
				continue
			}
			if _, err := url.Parse(raw); err != nil {
				return fmt.Errorf("httpclient: invalid proxy %q: %w", raw, err)
			}
		}
	}
	return nil
}

// sortedHeaders returns the default headers in a stable order.
func (c *Config) sortedHeaders() []entry {
	names := make([]string, 0, len(c.Headers))
	for name := range c.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]entry, 0, len(names))
	for _, name := range names {
		out = append(out, entry{name: name, values: []string{c.Headers[name]}})
	}
	return out
}

// LoadConfig reads the "httpclient" section of a service configuration
// (config.yml, environment, .env) and returns it with defaults applied.
func LoadConfig(serviceName string, opts ...config.LoaderOption) (Config, error) {
	var file struct {
		HTTPClient Config `yaml:"httpclient" mapstructure:"httpclient"`
	}
	if err := config.LoadConfig(serviceName, &file, opts...); err != nil {
		return Config{}, err
	}

	cfg := file.HTTPClient
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
