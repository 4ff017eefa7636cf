// Package config loads rake.json, the server's on-disk configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rakeweb/rake/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "rake.json"

	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:7878"

	// DefaultSessionTTLSeconds is the default session idle timeout.
	DefaultSessionTTLSeconds = 1800

	// DefaultStaticPrefix is the URL prefix static files are mounted
	// under when a static directory is configured.
	DefaultStaticPrefix = "/static"
)

// Config represents the complete rake.json configuration.
type Config struct {
	// Name is the project name, used in log output.
	Name string `json:"name,omitempty"`

	// Addr is the listen address, host:port.
	Addr string `json:"addr,omitempty"`

	// Static configures static file serving.
	Static StaticConfig `json:"static,omitempty"`

	// Session configures the session store.
	Session SessionConfig `json:"session,omitempty"`

	// Limits bounds per-request resource usage.
	Limits LimitsConfig `json:"limits,omitempty"`

	// Metrics configures the Prometheus exposition side listener.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	configPath string
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the filesystem root to expose. Empty disables static
	// serving.
	Dir string `json:"dir,omitempty"`

	// Prefix is the URL prefix the directory is mounted under.
	Prefix string `json:"prefix,omitempty"`
}

// SessionConfig configures the session store.
type SessionConfig struct {
	// TTLSeconds is the idle timeout after which a session expires.
	TTLSeconds int `json:"ttl_seconds,omitempty"`

	// CookieName carries the session identifier. Default: SESSIONID.
	CookieName string `json:"cookie_name,omitempty"`
}

// LimitsConfig bounds per-request resource usage.
type LimitsConfig struct {
	// MaxHeaderBytes bounds the request line plus headers.
	MaxHeaderBytes int `json:"max_header_bytes,omitempty"`

	// MaxBodyBytes bounds the request body.
	MaxBodyBytes int64 `json:"max_body_bytes,omitempty"`

	// MaxConns bounds concurrently served connections. 0 = unbounded.
	MaxConns int `json:"max_conns,omitempty"`
}

// MetricsConfig configures metrics exposition.
type MetricsConfig struct {
	// Addr is the side listener address for /metrics. Empty disables
	// exposition.
	Addr string `json:"addr,omitempty"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr: DefaultAddr,
		Session: SessionConfig{
			TTLSeconds: DefaultSessionTTLSeconds,
			CookieName: "SESSIONID",
		},
	}
}

// Load reads configuration from dir/rake.json.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass --config")
		}
		return nil, errors.New("E100").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail(err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path, pretty-printed.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Newf(errors.CategoryConfig, "writing %s: %v", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("E102").WithDetail("addr must not be empty")
	}
	if c.Session.TTLSeconds < 0 {
		return errors.New("E102").WithDetail("session.ttl_seconds must not be negative")
	}
	if c.Limits.MaxHeaderBytes < 0 || c.Limits.MaxBodyBytes < 0 || c.Limits.MaxConns < 0 {
		return errors.New("E102").WithDetail("limits must not be negative")
	}
	if c.Static.Dir != "" {
		info, err := os.Stat(c.Static.Dir)
		if err != nil || !info.IsDir() {
			return errors.New("E121").WithDetail("static.dir: " + c.Static.Dir)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = DefaultSessionTTLSeconds
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "SESSIONID"
	}
	if c.Static.Dir != "" && c.Static.Prefix == "" {
		c.Static.Prefix = DefaultStaticPrefix
	}
}
