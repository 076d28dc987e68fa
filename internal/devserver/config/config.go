// Package config handles configuration of the development backend:
// defaults overlaid by command-line flags.
package config

import (
	"flag"
	"io"
	"time"

	"github.com/aligned-app/aligned/internal/flagx"
)

// Config holds runtime settings of the development backend.
//
// Fields:
//   - Addr: HTTP bind address.
//   - SecretKey: HMAC secret for session and chat tokens. Empty means a
//     random key per process.
//   - SessionTokenTTL / ChatTokenTTL: token lifetimes.
//   - Seed: load the demo users on start.
type Config struct {
	Addr            string
	SecretKey       string
	SessionTokenTTL time.Duration
	ChatTokenTTL    time.Duration
	Seed            bool
	LogLevel        string
	LogFormat       string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SessionTokenTTL = 24 * time.Hour
	c.ChatTokenTTL = 10 * time.Minute
	c.Seed = true
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load builds a Config from defaults and args. Invalid flags panic.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg, args)
	return cfg
}

// parseFlags populates Config from command-line flags.
//
//	-a string           bind address (e.g., ":8080")
//	-s string           token secret
//	-t int              session token validity, minutes
//	-ct int             chat token validity, minutes
//	-seed bool          load demo users
//	-log-level string   debug|info|warn|error
//	-log-format string  text|json
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-ct", "-seed", "-log-level", "-log-format"})

	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "token secret")
	sessionTTL := fs.Int("t", int(cfg.SessionTokenTTL.Minutes()), "session token validity (in minutes)")
	chatTTL := fs.Int("ct", int(cfg.ChatTokenTTL.Minutes()), "chat token validity (in minutes)")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "load demo users")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionTokenTTL = time.Duration(*sessionTTL) * time.Minute
	cfg.ChatTokenTTL = time.Duration(*chatTTL) * time.Minute
}
