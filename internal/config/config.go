// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the collection jobs.
type Config struct {
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DBURL       string `mapstructure:"DB_URL"`
	GithubToken string `mapstructure:"GITHUB_TOKEN"`

	// Collection bounds.
	LookbackDays      int   `mapstructure:"LOOKBACK_DAYS"`
	MaxCommitsPerRepo int   `mapstructure:"MAX_COMMITS_PER_REPO"`
	Workers           int   `mapstructure:"WORKERS"`
	MaxBlobBytes      int64 `mapstructure:"MAX_BLOB_BYTES"`

	// Object store.
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3Prefix    string `mapstructure:"S3_PREFIX"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`

	// Read API.
	APIListenAddr string `mapstructure:"API_LISTEN_ADDR"`

	// Catalog discovery.
	TopicsFile string `mapstructure:"TOPICS_FILE"`
}

// WindowStart returns the lower bound of the lookback window for a run
// starting at now.
func (c *Config) WindowStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.LookbackDays)
}

// LoadConfig reads configuration from an optional .env file and the
// environment.
func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOOKBACK_DAYS", 1)
	viper.SetDefault("MAX_COMMITS_PER_REPO", 100)
	viper.SetDefault("WORKERS", 4)
	viper.SetDefault("MAX_BLOB_BYTES", 50*1024*1024)
	viper.SetDefault("S3_ENDPOINT", "localhost:9000")
	viper.SetDefault("S3_ACCESS_KEY", "minioadmin")
	viper.SetDefault("S3_SECRET_KEY", "minioadmin")
	viper.SetDefault("S3_BUCKET", "commit-data")
	viper.SetDefault("S3_PREFIX", "blobs")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("API_LISTEN_ADDR", ":8080")
	viper.SetDefault("TOPICS_FILE", "topics.yml")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.LookbackDays <= 0 {
		return nil, errors.New("LOOKBACK_DAYS must be positive")
	}
	if cfg.MaxCommitsPerRepo <= 0 {
		return nil, errors.New("MAX_COMMITS_PER_REPO must be positive")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("WORKERS must be positive")
	}
	if cfg.MaxBlobBytes <= 0 {
		return nil, errors.New("MAX_BLOB_BYTES must be positive")
	}

	return &cfg, nil
}
