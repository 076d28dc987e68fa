// Package config loads runtime configuration for the Aligned CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. JSON, YAML and TOML
//     are accepted; durations may be written as "30s" or "2m".
//  3. ALIGNED_* environment variables, e.g. ALIGNED_BACKEND_URL.
//  4. Command-line flags (see parseFlags), which override everything else.
//
// Example YAML:
//
//	backend_url: http://localhost:8080
//	refresh_interval: 1m
//	chat_trigger_min: 30s
//	chat_trigger_max: 2m
//	s3_bucket: aligned-profile-images
//	log_level: debug
package config
