package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (PERK_ prefix), flags, or YAML config files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"API server listen address"`
	NthOrder int    `default:"5" usage:"Issue a loyalty coupon on every Nth order per customer" flag:"nth-order"`
	SeedFile string `default:"" usage:"Optional catalog/customer seed file (.json, or gzipped .json.gz)" flag:"seed-file"`

	Notify    NotifyConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// NotifyConfig controls the coupon notification dispatcher.
type NotifyConfig struct {
	QueueSize int           `default:"128" usage:"Pending notification queue capacity" flag:"notify-queue"`
	Timeout   time.Duration `default:"5s"  usage:"Per-notification delivery timeout" flag:"notify-timeout"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PERK",
		Files:     []string{"config.yaml", "/etc/perkcart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.NthOrder < 1 {
		return nil, errors.Errorf("nth-order must be at least 1, got %d", cfg.NthOrder)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like PORT to the
// application's PERK_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
