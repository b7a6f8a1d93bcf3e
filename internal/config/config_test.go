package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 15*time.Minute, cfg.Database.MaxIdleTime.Duration)
	assert.True(t, cfg.Limiter.Enabled)
	assert.Equal(t, 2.0, cfg.Limiter.RPS)
	assert.Equal(t, 4, cfg.Limiter.Burst)
	assert.Equal(t, "memory", cfg.Blob.Driver)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `[server]
port = 8080
trusted_origins = ["https://dashboard.example.com"]

[database]
max_idle_time = "5m"

[blob]
driver = "s3"
bucket = "lesson-audio"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, []string{"https://dashboard.example.com"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Database.MaxIdleTime.Duration)
	assert.Equal(t, 25, cfg.Database.MaxIdleConns)
	assert.Equal(t, "s3", cfg.Blob.Driver)
	assert.Equal(t, "lesson-audio", cfg.Blob.Bucket)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[database]\nmax_idle_time = \"soon\"\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LESSONS_DB_DSN":               "postgres://prod/lessons",
		"LESSONS_PORT":                 "9000",
		"LESSONS_CORS_TRUSTED_ORIGINS": "https://a.example https://b.example",
		"LESSONS_BLOB_PATH_STYLE":      "TRUE",
		"AWS_ACCESS_KEY_ID":            "AKIA",
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "postgres://prod/lessons", cfg.Database.DSN)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
	assert.True(t, cfg.Blob.PathStyle)
	assert.Equal(t, "AKIA", cfg.Blob.AccessKeyID)

	env["LESSONS_SMTP_PORT"] = "twenty-five"
	assert.Error(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
}
