package config

import (
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the Aligned CLI.
type Config struct {
	BackendURL          string        `mapstructure:"backend_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	OnlineCheckInterval time.Duration `mapstructure:"online_check_interval"`
	RefreshInterval     time.Duration `mapstructure:"refresh_interval"`
	ChatTriggerMin      time.Duration `mapstructure:"chat_trigger_min"`
	ChatTriggerMax      time.Duration `mapstructure:"chat_trigger_max"`
	ProfileConcurrency  int           `mapstructure:"profile_concurrency"`
	CachePath           string        `mapstructure:"cache_path"`

	S3Bucket    string        `mapstructure:"s3_bucket"`
	S3Region    string        `mapstructure:"s3_region"`
	S3Endpoint  string        `mapstructure:"s3_endpoint"`
	S3AccessKey string        `mapstructure:"s3_access_key"`
	S3SecretKey string        `mapstructure:"s3_secret_key"`
	PresignTTL  time.Duration `mapstructure:"presign_ttl"`

	MessagingURL string `mapstructure:"messaging_url"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "https://lovebhagya.com"
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 5 * time.Second
	c.RefreshInterval = time.Minute
	c.ChatTriggerMin = 30 * time.Second
	c.ChatTriggerMax = 2 * time.Minute
	c.ProfileConcurrency = 4
	c.CachePath = "aligned_cache.db"
	c.S3Region = "us-east-1"
	c.PresignTTL = 15 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config from os.Args. See Load.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

// Load constructs a Config, applies defaults, then overlays the optional
// config file, ALIGNED_* environment variables and command-line flags. Later
// sources take precedence over earlier ones. Invalid input panics.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, args)
	parseFlags(cfg, args)
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.ChatTriggerMax < c.ChatTriggerMin {
		c.ChatTriggerMin, c.ChatTriggerMax = c.ChatTriggerMax, c.ChatTriggerMin
	}
	if c.ProfileConcurrency < 1 {
		c.ProfileConcurrency = 1
	}
}

// MessagingEndpoint returns MessagingURL, or the websocket endpoint of the
// backend when none is configured.
func (c *Config) MessagingEndpoint() string {
	if c.MessagingURL != "" {
		return c.MessagingURL
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/e2echat:ws"
	return u.String()
}
