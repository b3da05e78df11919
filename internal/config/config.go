package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"

	defaultDBFilePermissions = 0666
	defaultEnvFile           = ".env"
)

type Config struct {
	DataDir            string        `env:"DATA_DIR"            envDefault:"."`
	StoreBackend       string        `env:"STORE_BACKEND"       envDefault:"bolt"`
	StoreLockTimeout   time.Duration `env:"STORE_LOCK_TIMEOUT"  envDefault:"2s"`
	TraktAPIKey        string        `env:"TRAKT_API_KEY,required,notEmpty"`
	TraktClientSecret  string        `env:"TRAKT_CLIENT_SECRET"`
	ServerPort         string        `env:"SERVER_PORT"         envDefault:"0.0.0.0:3000"`
	APIKey             string        `env:"API_KEY"`
	TaskInterval       time.Duration `env:"TASK_INTERVAL"       envDefault:"6h"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT"        envDefault:"30s"`
	RetryCount         int           `env:"RETRY_COUNT"         envDefault:"3"`
	RetryDelay         time.Duration `env:"RETRY_DELAY"         envDefault:"2s"`
	RelatedPageSize    int           `env:"RELATED_PAGE_SIZE"   envDefault:"10"`
	RefreshConcurrency int           `env:"REFRESH_CONCURRENCY" envDefault:"0"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB"            envDefault:"0"`
	LogLevel           string        `env:"LOG_LEVEL"           envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT"          envDefault:"text"`
	DBFilePermissions  os.FileMode   `env:"-"`
}

// Load reads the optional env files (".env" when none are given) and then
// parses the process environment. Variables already set win over file values.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.DBFilePermissions = defaultDBFilePermissions

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	explicit := len(files) > 0
	if !explicit {
		files = []string{defaultEnvFile}
	}

	for _, file := range files {
		err := godotenv.Load(file)
		if err == nil {
			continue
		}
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("loading env file %s: %w", file, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendBolt, BackendSQLite:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RedisAddr != "" && c.StoreBackend != BackendSQLite {
		return fmt.Errorf("REDIS_ADDR requires STORE_BACKEND=%s: a bolt store cannot be opened by two processes", BackendSQLite)
	}
	if c.StoreLockTimeout <= 0 {
		return fmt.Errorf("STORE_LOCK_TIMEOUT must be positive, got %s", c.StoreLockTimeout)
	}
	if c.RelatedPageSize <= 0 {
		return fmt.Errorf("RELATED_PAGE_SIZE must be positive, got %d", c.RelatedPageSize)
	}
	if c.RetryCount < 1 {
		return fmt.Errorf("RETRY_COUNT must be at least 1, got %d", c.RetryCount)
	}
	if c.RefreshConcurrency < 0 {
		return fmt.Errorf("REFRESH_CONCURRENCY must not be negative, got %d", c.RefreshConcurrency)
	}
	if c.TaskInterval <= 0 {
		return fmt.Errorf("TASK_INTERVAL must be positive, got %s", c.TaskInterval)
	}
	return nil
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "data.db")
}

func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "data.sqlite")
}

func (c *Config) TokenPath() string {
	return filepath.Join(c.DataDir, "token.json")
}
