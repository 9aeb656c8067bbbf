package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete agent configuration, loadable from environment
// variables (EASYREST_ prefix), flags, or YAML config files.
type Config struct {
	BackendURL  string `default:"https://api.easycorest.com:5555" usage:"Aggregation backend base URL" flag:"backend-url"`
	Token       string `usage:"Backend bearer token (EASYREST_TOKEN); persisted session token is used when empty" flag:"token"`
	ControlAddr string `default:"127.0.0.1:8090" usage:"Local control server listen address" flag:"control-addr"`
	PrinterPort int    `default:"41411" usage:"Local receipt printer bridge port" flag:"printer-port"`
	DataDir     string `usage:"Directory for session state and the order archive" flag:"data-dir"`
	Pollers     PollerConfig
	Graceful    GracefulConfig
}

// PollerConfig carries the background poller timings.
type PollerConfig struct {
	RefreshInterval           time.Duration `default:"10s" usage:"Order refresh interval" flag:"refresh-interval"`
	SyncInterval              time.Duration `default:"11s" usage:"Trendyol package sync interval" flag:"sync-interval"`
	SyncTimeout               time.Duration `default:"30s" usage:"Trendyol sync watchdog timeout" flag:"sync-timeout"`
	TrendyolRefundInterval    time.Duration `default:"1h"  usage:"Trendyol refund report interval" flag:"trendyol-refund-interval"`
	YemekSepetiRefundInterval time.Duration `default:"3h"  usage:"YemekSepeti refund report interval" flag:"yemeksepeti-refund-interval"`
	MinFetchSpacing           time.Duration `default:"2s"  usage:"Minimum spacing between order fetches" flag:"min-fetch-spacing"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies defaults that depend on the host environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "EASYREST",
		Files:     []string{"config.yaml", "/etc/easyrest/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults resolves the data directory from the user config
// directory when it is not set explicitly.
func (c *Config) applyPlatformDefaults() {
	if c.DataDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.DataDir = filepath.Join(dir, "easyrest-agent")
		} else {
			c.DataDir = "easyrest-data"
		}
	}
}
