package config

import "time"

// Config holds runtime settings for the Exersio CLI.
type Config struct {
	// ServerEndpointAddr is the base URL of the REST API.
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	// DatabasePath is the SQLite file holding the offline store.
	DatabasePath   string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "exersio.db"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "info"
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
