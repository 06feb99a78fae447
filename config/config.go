package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Ratesflow RatesflowConfig `yaml:"ratesflow"`
	Reader    ReaderConfig    `yaml:"reader"`
	Browser   BrowserConfig   `yaml:"browser"`
	Source    SourceConfig    `yaml:"source"`
	Metric    MetricConfig    `yaml:"metric"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type RatesflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ReaderConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier int           `yaml:"backoff_multiplier"`
}

type BrowserConfig struct {
	Headless     bool          `yaml:"headless"`
	WindowWidth  int           `yaml:"window_width"`
	WindowHeight int           `yaml:"window_height"`
	UserAgent    string        `yaml:"user_agent"`
	WaitTimeout  time.Duration `yaml:"wait_timeout"`
}

type SourceConfig struct {
	CME  CMESourceConfig  `yaml:"cme"`
	CNBC CNBCSourceConfig `yaml:"cnbc"`
}

type CMESourceConfig struct {
	URL string `yaml:"url"`
}

type CNBCSourceConfig struct {
	URL                string `yaml:"url"`
	OperationName      string `yaml:"operation_name"`
	PersistedQueryHash string `yaml:"persisted_query_hash"`
	Referer            string `yaml:"referer"`
	Origin             string `yaml:"origin"`
	Symbol             string `yaml:"symbol"`
	TimeRange          string `yaml:"time_range"`
}

type MetricConfig struct {
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
	Unit   string `yaml:"unit"`
}

type StorageConfig struct {
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	S3       S3Config       `yaml:"s3"`
}

type DynamoDBConfig struct {
	Table           string `yaml:"table"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// S3Config controls the optional raw-payload archive.
type S3Config struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

const defaultConfigPath = "config/config.yml"

var envConfigPaths = map[string]string{
	environmentProduction: "config/config.production.yml",
	environmentStaging:    "config/config.staging.yml",
}

// ChartMetricID assembles the metric identifier for the chart pipeline,
// e.g. CNBC_US10YTIP_1D_Close. The components are fixed at process start.
func (c *Config) ChartMetricID() string {
	return fmt.Sprintf("%s_%s_%s_%s",
		c.Metric.Prefix, c.Source.CNBC.Symbol, c.Source.CNBC.TimeRange, c.Metric.Suffix)
}

// LoadConfig reads the yaml configuration file, applies environment variable
// overrides and validates the result. An environment specific file is
// preferred when APP_ENV selects one.
func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, defaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	config.Storage.DynamoDB.Table = strings.TrimSpace(config.Storage.DynamoDB.Table)
	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides maps the environment variables recognized by the
// deployed tasks onto the loaded configuration. Environment always wins
// over file values.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		config.Storage.DynamoDB.Table = strings.TrimSpace(v)
	}
	if v := os.Getenv("SYMBOL_TO_FETCH"); v != "" {
		config.Source.CNBC.Symbol = strings.TrimSpace(v)
	}
	if v := os.Getenv("TIME_RANGE_TO_FETCH"); v != "" {
		config.Source.CNBC.TimeRange = strings.TrimSpace(v)
	}
	if v := os.Getenv("METRIC_ID_PREFIX"); v != "" {
		config.Metric.Prefix = strings.TrimSpace(v)
	}
	if v := os.Getenv("METRIC_NAME_SUFFIX"); v != "" {
		config.Metric.Suffix = strings.TrimSpace(v)
	}
	if v := os.Getenv("UNIT_FOR_METRIC"); v != "" {
		config.Metric.Unit = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		region := strings.TrimSpace(v)
		config.Storage.DynamoDB.Region = region
		if config.Storage.S3.Region == "" {
			config.Storage.S3.Region = region
		}
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		config.Storage.DynamoDB.AccessKeyID = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		config.Storage.DynamoDB.SecretAccessKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		config.Storage.S3.Bucket = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Ratesflow.Name == "" {
		return fmt.Errorf("ratesflow.name is required")
	}

	if cfg.Ratesflow.Version == "" {
		return fmt.Errorf("ratesflow.version is required")
	}

	if cfg.Reader.Timeout <= 0 {
		return fmt.Errorf("reader.timeout must be greater than 0")
	}
	if cfg.Reader.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("reader.retry.max_attempts must be greater than 0")
	}
	if cfg.Reader.Retry.BaseDelay < 0 {
		return fmt.Errorf("reader.retry.base_delay must not be negative")
	}

	if cfg.Browser.WaitTimeout <= 0 {
		return fmt.Errorf("browser.wait_timeout must be greater than 0")
	}
	if cfg.Browser.WindowWidth <= 0 || cfg.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be greater than 0")
	}

	if cfg.Storage.DynamoDB.Table == "" {
		return fmt.Errorf("storage.dynamodb.table is required")
	}
	if IsProductionLike(AppEnvironment()) && cfg.Storage.DynamoDB.Region == "" {
		return fmt.Errorf("storage.dynamodb.region is required in %s", AppEnvironment())
	}

	if cfg.Storage.S3.Enabled && cfg.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required when the raw archive is enabled")
	}

	return nil
}
