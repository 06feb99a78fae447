package config

import (
	"os"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `ratesflow:
  name: "TestApp"
  version: "1.0"
reader:
  timeout: 30s
  retry:
    max_attempts: 3
    base_delay: 5s
browser:
  headless: true
  window_width: 1920
  window_height: 1080
  wait_timeout: 20s
source:
  cnbc:
    symbol: "US10YTIP"
    time_range: "1D"
metric:
  prefix: "CNBC"
  suffix: "Close"
  unit: "%"
storage:
  dynamodb:
    table: "RealTimeChartData"
  s3:
    enabled: false
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func clearPipelineEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DYNAMODB_TABLE", "SYMBOL_TO_FETCH", "TIME_RANGE_TO_FETCH",
		"METRIC_ID_PREFIX", "METRIC_NAME_SUFFIX", "UNIT_FOR_METRIC",
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "S3_BUCKET",
		"APP_ENV",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearPipelineEnv(t)
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Ratesflow.Name != "TestApp" {
		t.Fatalf("unexpected name %q", cfg.Ratesflow.Name)
	}
	if cfg.Storage.DynamoDB.Table != "RealTimeChartData" {
		t.Fatalf("unexpected table %q", cfg.Storage.DynamoDB.Table)
	}
	if got := cfg.ChartMetricID(); got != "CNBC_US10YTIP_1D_Close" {
		t.Fatalf("unexpected metric id %q", got)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearPipelineEnv(t)
	path := writeTempConfig(t)
	defer os.Remove(path)

	t.Setenv("DYNAMODB_TABLE", "OtherTable")
	t.Setenv("SYMBOL_TO_FETCH", "US10Y")
	t.Setenv("TIME_RANGE_TO_FETCH", "5Y")
	t.Setenv("METRIC_NAME_SUFFIX", "Rate")
	t.Setenv("UNIT_FOR_METRIC", "basis_points")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.DynamoDB.Table != "OtherTable" {
		t.Fatalf("env override not applied: %q", cfg.Storage.DynamoDB.Table)
	}
	if got := cfg.ChartMetricID(); got != "CNBC_US10Y_5Y_Rate" {
		t.Fatalf("unexpected metric id %q", got)
	}
	if cfg.Metric.Unit != "basis_points" {
		t.Fatalf("unexpected unit %q", cfg.Metric.Unit)
	}
}

func TestLoadConfigMissingTable(t *testing.T) {
	clearPipelineEnv(t)
	path := writeTempConfig(t)
	defer os.Remove(path)

	// A whitespace-only override blanks the table after trimming.
	t.Setenv("DYNAMODB_TABLE", " ")

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for blank table")
	}
}

func TestIsProductionLike(t *testing.T) {
	if !IsProductionLike(EnvironmentProduction) || !IsProductionLike(EnvironmentStaging) {
		t.Fatalf("production and staging must be production-like")
	}
	if IsProductionLike(EnvironmentDevelopment) {
		t.Fatalf("development must not be production-like")
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	if got := AppEnvironment(); got != EnvironmentProduction {
		t.Fatalf("alias not resolved: %q", got)
	}
	t.Setenv("APP_ENV", "")
	if got := AppEnvironment(); got != EnvironmentDevelopment {
		t.Fatalf("default environment wrong: %q", got)
	}
}
