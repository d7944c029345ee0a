package config

import "time"

// Config holds runtime settings for the skylog CLI.
//
// Fields:
//   - StoreBaseURL: base URL of the store server, e.g. "http://127.0.0.1:8080".
//   - DatabasePath: SQLite file backing the local cache and identity.
//   - RequestTimeout: per-request bound on store calls.
type Config struct {
	StoreBaseURL   string
	DatabasePath   string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "skylog.db"
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
