package config

// Config holds runtime settings for the skylog store server.
//
// Fields:
//   - Address: host:port the HTTP API listens on.
//   - DatabaseDSN: postgres connection string; empty selects the in-memory
//     repository (dev/test only, nothing survives a restart).
type Config struct {
	Address     string
	DatabaseDSN string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Address = ":8080"
	c.DatabaseDSN = ""
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
