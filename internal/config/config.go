package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds a single upstream detection call.
const DefaultTimeout = 10 * time.Second

// Config is read once at process start. Missing upstream settings are not a
// load error: the proxy reports them per request instead.
type Config struct {
	Addr        string `yaml:"addr"`
	UpstreamURL string `yaml:"upstream_url"`
	APIKey      string `yaml:"api_key"`
	TimeoutMS   int64  `yaml:"timeout_ms"`
	AuditDB     string `yaml:"audit_db"`
}

// Proxy is the part of the configuration the detection proxy needs.
type Proxy struct {
	UpstreamURL string
	APIKey      string
	Timeout     time.Duration
}

// Complete reports whether requests can be forwarded.
func (p Proxy) Complete() bool {
	return p.UpstreamURL != "" && p.APIKey != ""
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:      ":8080",
		TimeoutMS: DefaultTimeout.Milliseconds(),
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	cfg.UpstreamURL = getEnv("FACE_API_URL", cfg.UpstreamURL)
	cfg.APIKey = getEnv("FACE_API_KEY", cfg.APIKey)
	cfg.AuditDB = getEnv("FACEMASK_AUDIT_DB", cfg.AuditDB)
	if v := os.Getenv("FACE_API_TIMEOUT_MS"); v != "" {
		// Unparsable values fall back to the default below
		ms, _ := strconv.ParseInt(v, 10, 64)
		cfg.TimeoutMS = ms
	}
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = DefaultTimeout.Milliseconds()
	}

	return cfg, nil
}

// Proxy extracts the proxy settings.
func (c *Config) Proxy() Proxy {
	return Proxy{
		UpstreamURL: c.UpstreamURL,
		APIKey:      c.APIKey,
		Timeout:     time.Duration(c.TimeoutMS) * time.Millisecond,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
