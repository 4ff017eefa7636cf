package rake

import (
	"log/slog"
	"time"

	"github.com/rakeweb/rake/internal/config"
	"github.com/rakeweb/rake/pkg/protocol"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:7878".
	// Default: config.DefaultAddr.
	Addr string

	// Session configures the session store and cookie.
	Session SessionConfig

	// Static configures static file serving. Mounting via
	// App.Static or App.StaticSource overrides this.
	Static StaticConfig

	// Limits bounds request sizes and concurrency.
	Limits LimitsConfig

	// ReadTimeout bounds reading one request off the wire.
	// Zero means no deadline.
	ReadTimeout time.Duration

	// IdleTimeout bounds how long a kept-alive connection may sit
	// between requests. Default: 30 seconds.
	IdleTimeout time.Duration

	// DisableKeepAlive forces Connection: close on every response.
	DisableKeepAlive bool

	// Logger receives one structured event per completed request.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// SessionConfig configures session behavior.
type SessionConfig struct {
	// TTL is the idle lifetime of a session. A session not seen for
	// longer than TTL is treated as absent. Default: 30 minutes.
	TTL time.Duration

	// CookieName carries the session identifier. Default: "SESSIONID".
	CookieName string
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files.
	Dir string

	// Prefix is the URL path prefix files are served under,
	// e.g. "/static". Default: config.DefaultStaticPrefix.
	Prefix string
}

// LimitsConfig bounds per-request and per-server resource use.
type LimitsConfig struct {
	// MaxHeaderBytes bounds the request line plus headers.
	// Zero means protocol.DefaultMaxHeaderBytes.
	MaxHeaderBytes int

	// MaxBodyBytes bounds the request body.
	// Zero means protocol.DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// MaxConns caps concurrently handled connections. Zero means
	// unbounded.
	MaxConns int
}

const defaultIdleTimeout = 30 * time.Second

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = config.DefaultAddr
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = time.Duration(config.DefaultSessionTTLSeconds) * time.Second
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "SESSIONID"
	}
	if c.Static.Dir != "" && c.Static.Prefix == "" {
		c.Static.Prefix = config.DefaultStaticPrefix
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func (c *Config) protocolLimits() protocol.Limits {
	return protocol.Limits{
		MaxHeaderBytes: c.Limits.MaxHeaderBytes,
		MaxBodyBytes:   c.Limits.MaxBodyBytes,
	}
}

// FromFile builds a Config from a rake.json project file.
func FromFile(path string) (Config, error) {
	fc, err := config.LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return fromProject(fc), nil
}

func fromProject(fc *config.Config) Config {
	return Config{
		Addr: fc.Addr,
		Session: SessionConfig{
			TTL:        time.Duration(fc.Session.TTLSeconds) * time.Second,
			CookieName: fc.Session.CookieName,
		},
		Static: StaticConfig{
			Dir:    fc.Static.Dir,
			Prefix: fc.Static.Prefix,
		},
		Limits: LimitsConfig{
			MaxHeaderBytes: fc.Limits.MaxHeaderBytes,
			MaxBodyBytes:   fc.Limits.MaxBodyBytes,
			MaxConns:       fc.Limits.MaxConns,
		},
	}
}
