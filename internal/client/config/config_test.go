package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "https://lovebhagya.com", c.BackendURL)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, 30*time.Second, c.ChatTriggerMin)
	assert.Equal(t, 2*time.Minute, c.ChatTriggerMax)
	assert.Equal(t, 4, c.ProfileConcurrency)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad_NoSourcesKeepsDefaults(t *testing.T) {
	cfg := Load(nil)

	require.NotNil(t, cfg)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "aligned.yaml", `
backend_url: http://localhost:8080
refresh_interval: 45s
chat_trigger_min: 5s
chat_trigger_max: 10s
s3_bucket: images
log_format: json
`)

	cfg := Load([]string{"-c", path})

	assert.Equal(t, "http://localhost:8080", cfg.BackendURL)
	assert.Equal(t, 45*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.ChatTriggerMin)
	assert.Equal(t, 10*time.Second, cfg.ChatTriggerMax)
	assert.Equal(t, "images", cfg.S3Bucket)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout, "untouched keys keep defaults")
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "aligned.json", `{"backend_url":"http://json:1","profile_concurrency":8}`)

	cfg := Load([]string{"-config", path})

	assert.Equal(t, "http://json:1", cfg.BackendURL)
	assert.Equal(t, 8, cfg.ProfileConcurrency)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "aligned.yaml", "backend_url: http://file\nlog_level: warn\n")
	t.Setenv("ALIGNED_BACKEND_URL", "http://env")

	cfg := Load([]string{"-c", path})

	assert.Equal(t, "http://env", cfg.BackendURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	path := writeFile(t, "aligned.yaml", "backend_url: http://file\n")
	t.Setenv("ALIGNED_BACKEND_URL", "http://env")

	cfg := Load([]string{"-c", path, "-a", "http://flag", "-unrelated", "x"})

	assert.Equal(t, "http://flag", cfg.BackendURL)
}

func TestLoad_SwapsInvertedTriggerRange(t *testing.T) {
	path := writeFile(t, "aligned.yaml", "chat_trigger_min: 3m\nchat_trigger_max: 1m\n")

	cfg := Load([]string{"-c", path})

	assert.Equal(t, time.Minute, cfg.ChatTriggerMin)
	assert.Equal(t, 3*time.Minute, cfg.ChatTriggerMax)
}

func TestLoad_PanicsOnBrokenFile(t *testing.T) {
	bad := writeFile(t, "bad.json", `{ this is not valid json`)
	require.Panics(t, func() { Load([]string{"-c", bad}) })

	require.Panics(t, func() { Load([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}) })
}

func TestMessagingEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{BackendURL: "https://a.example", MessagingURL: "ws://chat:9/ws"}, "ws://chat:9/ws"},
		{"https backend", Config{BackendURL: "https://lovebhagya.com"}, "wss://lovebhagya.com/e2echat:ws"},
		{"http backend with path", Config{BackendURL: "http://localhost:8080/api/"}, "ws://localhost:8080/api/e2echat:ws"},
		{"unusable backend", Config{BackendURL: "::nonsense"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.MessagingEndpoint())
		})
	}
}
