package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Limiter  LimiterConfig  `toml:"limiter"`
	SMTP     SMTPConfig     `toml:"smtp"`
	Blob     BlobConfig     `toml:"blob"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	Env            string   `toml:"env"`
	TrustedOrigins []string `toml:"trusted_origins"`
}

type DatabaseConfig struct {
	DSN          string   `toml:"dsn"`
	MaxOpenConns int      `toml:"max_open_conns"`
	MaxIdleConns int      `toml:"max_idle_conns"`
	MaxIdleTime  Duration `toml:"max_idle_time"`
}

type LimiterConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Sender   string `toml:"sender"`
}

type BlobConfig struct {
	Driver          string `toml:"driver"`
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PathStyle       bool   `toml:"path_style"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration decodes TOML strings such as "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the embedded example configuration.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Load overlays the TOML file at path on the defaults. Keys absent from the file keep their default.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from LESSONS_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("LESSONS_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := getenv("LESSONS_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := getenv("LESSONS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LESSONS_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LESSONS_CORS_TRUSTED_ORIGINS"); v != "" {
		c.Server.TrustedOrigins = strings.Fields(v)
	}
	if v := getenv("LESSONS_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := getenv("LESSONS_SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LESSONS_SMTP_PORT: %w", err)
		}
		c.SMTP.Port = port
	}
	if v := getenv("LESSONS_SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := getenv("LESSONS_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := getenv("LESSONS_SMTP_SENDER"); v != "" {
		c.SMTP.Sender = v
	}
	if v := getenv("LESSONS_BLOB_DRIVER"); v != "" {
		c.Blob.Driver = v
	}
	if v := getenv("LESSONS_BLOB_BUCKET"); v != "" {
		c.Blob.Bucket = v
	}
	if v := getenv("LESSONS_BLOB_REGION"); v != "" {
		c.Blob.Region = v
	}
	if v := getenv("LESSONS_BLOB_ENDPOINT"); v != "" {
		c.Blob.Endpoint = v
	}
	if v := getenv("LESSONS_BLOB_PATH_STYLE"); v != "" {
		c.Blob.PathStyle = strings.EqualFold(v, "true")
	}
	if v := getenv("AWS_ACCESS_KEY_ID"); v != "" {
		c.Blob.AccessKeyID = v
	}
	if v := getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		c.Blob.SecretAccessKey = v
	}
	return nil
}
