package rake

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rakeweb/rake/internal/config"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.Addr != config.DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, config.DefaultAddr)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want 30m", cfg.Session.TTL)
	}
	if cfg.Session.CookieName != "SESSIONID" {
		t.Errorf("Session.CookieName = %q, want SESSIONID", cfg.Session.CookieName)
	}
	if cfg.IdleTimeout != defaultIdleTimeout {
		t.Errorf("IdleTimeout = %v, want %v", cfg.IdleTimeout, defaultIdleTimeout)
	}
	if cfg.Logger == nil {
		t.Error("Logger is nil after defaults")
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	staticDir := filepath.Join(dir, "public")
	if err := os.MkdirAll(staticDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := `{
  "addr": "127.0.0.1:9000",
  "static": {"dir": "` + staticDir + `", "prefix": "/assets"},
  "session": {"ttl_seconds": 60, "cookie_name": "SID"},
  "limits": {"max_body_bytes": 2048, "max_conns": 4}
}`
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Static.Dir != staticDir || cfg.Static.Prefix != "/assets" {
		t.Errorf("Static = %+v", cfg.Static)
	}
	if cfg.Session.TTL != time.Minute || cfg.Session.CookieName != "SID" {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Limits.MaxBodyBytes != 2048 || cfg.Limits.MaxConns != 4 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
}
