package config

import (
	"flag"
	"io"
	"time"

	"github.com/aligned-app/aligned/internal/flagx"
)

var knownFlags = []string{
	"-a", "-t", "-i", "-r", "-p", "-db",
	"-log-level", "-log-format",
	"-s3-bucket", "-s3-region", "-s3-endpoint",
	"-messaging",
}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string          backend base URL
//	-t int             request timeout (seconds)
//	-i int             online check interval (seconds)
//	-r int             refresh interval (seconds)
//	-p int             concurrent profile fetches
//	-db string         local cache path
//	-log-level string  debug|info|warn|error
//	-log-format string text|json
//	-s3-bucket, -s3-region, -s3-endpoint string
//	-messaging string  messaging websocket URL
//
// Only flags listed above are considered; everything else in args is ignored.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("aligned", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BackendURL, "a", cfg.BackendURL, "backend base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	onlineCheck := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	refresh := fs.Int("r", int(cfg.RefreshInterval.Seconds()), "refresh interval (in seconds)")
	fs.IntVar(&cfg.ProfileConcurrency, "p", cfg.ProfileConcurrency, "concurrent profile fetches")
	fs.StringVar(&cfg.CachePath, "db", cfg.CachePath, "local cache path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "image bucket")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "image bucket region")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "custom S3 endpoint")
	fs.StringVar(&cfg.MessagingURL, "messaging", cfg.MessagingURL, "messaging websocket URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*onlineCheck) * time.Second
	cfg.RefreshInterval = time.Duration(*refresh) * time.Second
}
