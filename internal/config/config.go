// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/reliability"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration read from strings such as "200ms" or "1m"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds application configuration
type Config struct {
	DataDir  string `toml:"data_dir"` // Base directory for all databases, always absolute after Load
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
	DevMode  bool   `toml:"dev_mode"`

	Upstream  UpstreamConfig `toml:"upstream"`
	Sync      SyncConfig     `toml:"sync"`
	Strategy  StrategyConfig `toml:"strategy"`
	Schedules ScheduleConfig `toml:"schedules"`
	Backup    BackupConfig   `toml:"backup"`
	Market    MarketConfig   `toml:"market"`
}

// UpstreamConfig holds the eastmoney endpoints and paging behaviour
type UpstreamConfig struct {
	RealtimeBaseURL   string   `toml:"realtime_base_url"`
	HistoryBaseURL    string   `toml:"history_base_url"`
	HTTPTimeout       Duration `toml:"http_timeout"`
	HistoryPageSize   int      `toml:"history_page_size"`
	HistoryPageDelay  Duration `toml:"history_page_delay"`
	HistoryMaxRetries int      `toml:"history_max_retries"`
	EstimateCacheTTL  Duration `toml:"estimate_cache_ttl"`
}

// SyncConfig controls the sync orchestrator
type SyncConfig struct {
	Concurrency int `toml:"concurrency"` // 0 = unbounded
	// EstimatesDuringMarketHours restricts scheduled estimate syncs to trading sessions
	EstimatesDuringMarketHours bool `toml:"estimates_during_market_hours"`
}

// StrategyConfig points at the external strategy signal service
type StrategyConfig struct {
	APIURL          string   `toml:"api_url"` // empty disables strategy runs
	Timeout         Duration `toml:"timeout"`
	SignalRetention Duration `toml:"signal_retention"`
}

// ScheduleConfig holds cron expressions (with seconds). Empty disables a job.
type ScheduleConfig struct {
	Estimates   string `toml:"estimates"`
	History     string `toml:"history"`
	Strategies  string `toml:"strategies"`
	Cleanup     string `toml:"cleanup"`
	Maintenance string `toml:"maintenance"`
	Backup      string `toml:"backup"`
}

// BackupConfig holds the S3 compatible bucket used for backups
type BackupConfig struct {
	Bucket          string `toml:"bucket"`
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
	RetentionDays   int    `toml:"retention_days"`
}

// MarketConfig lists exchange holidays (YYYY-MM-DD)
type MarketConfig struct {
	Holidays []string `toml:"holidays"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DataDir:  "./data",
		Port:     8080,
		LogLevel: "info",
		Upstream: UpstreamConfig{
			RealtimeBaseURL:   eastmoney.DefaultRealtimeBaseURL,
			HistoryBaseURL:    eastmoney.DefaultHistoryBaseURL,
			HTTPTimeout:       Duration{eastmoney.DefaultTimeout},
			HistoryPageSize:   50,
			HistoryPageDelay:  Duration{200 * time.Millisecond},
			HistoryMaxRetries: 2,
			EstimateCacheTTL:  Duration{time.Minute},
		},
		Sync: SyncConfig{
			Concurrency:                8,
			EstimatesDuringMarketHours: true,
		},
		Strategy: StrategyConfig{
			Timeout:         Duration{30 * time.Second},
			SignalRetention: Duration{90 * 24 * time.Hour},
		},
		Schedules: ScheduleConfig{
			Estimates:   "0 */5 * * * MON-FRI",
			History:     "0 30 21 * * MON-FRI",
			Strategies:  "0 0 22 * * MON-FRI",
			Cleanup:     "0 0 3 * * *",
			Maintenance: "0 30 3 * * *",
			Backup:      "0 0 4 * * *",
		},
		Backup: BackupConfig{
			Region:        "auto",
			RetentionDays: 30,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file named by
// FUNDWATCH_CONFIG (if any), then environment variables. A .env file in the
// working directory is loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := getEnv("FUNDWATCH_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("FUNDWATCH_DATA_DIR", c.DataDir)
	c.Port = getEnvAsInt("FUNDWATCH_PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DevMode = getEnvAsBool("DEV_MODE", c.DevMode)

	c.Upstream.RealtimeBaseURL = getEnv("EASTMONEY_REALTIME_URL", c.Upstream.RealtimeBaseURL)
	c.Upstream.HistoryBaseURL = getEnv("EASTMONEY_HISTORY_URL", c.Upstream.HistoryBaseURL)
	c.Upstream.HTTPTimeout.Duration = getEnvAsDuration("HTTP_TIMEOUT", c.Upstream.HTTPTimeout.Duration)
	c.Upstream.HistoryPageSize = getEnvAsInt("HISTORY_PAGE_SIZE", c.Upstream.HistoryPageSize)
	c.Upstream.HistoryPageDelay.Duration = getEnvAsDuration("HISTORY_PAGE_DELAY", c.Upstream.HistoryPageDelay.Duration)
	c.Upstream.HistoryMaxRetries = getEnvAsInt("HISTORY_MAX_RETRIES", c.Upstream.HistoryMaxRetries)
	c.Upstream.EstimateCacheTTL.Duration = getEnvAsDuration("ESTIMATE_CACHE_TTL", c.Upstream.EstimateCacheTTL.Duration)

	c.Sync.Concurrency = getEnvAsInt("SYNC_CONCURRENCY", c.Sync.Concurrency)
	c.Sync.EstimatesDuringMarketHours = getEnvAsBool("ESTIMATES_DURING_MARKET_HOURS", c.Sync.EstimatesDuringMarketHours)

	c.Strategy.APIURL = getEnv("STRATEGY_API_URL", c.Strategy.APIURL)
	c.Strategy.Timeout.Duration = getEnvAsDuration("STRATEGY_TIMEOUT", c.Strategy.Timeout.Duration)
	c.Strategy.SignalRetention.Duration = getEnvAsDuration("SIGNAL_RETENTION", c.Strategy.SignalRetention.Duration)

	c.Schedules.Estimates = getEnv("SCHEDULE_ESTIMATES", c.Schedules.Estimates)
	c.Schedules.History = getEnv("SCHEDULE_HISTORY", c.Schedules.History)
	c.Schedules.Strategies = getEnv("SCHEDULE_STRATEGIES", c.Schedules.Strategies)
	c.Schedules.Cleanup = getEnv("SCHEDULE_CLEANUP", c.Schedules.Cleanup)
	c.Schedules.Maintenance = getEnv("SCHEDULE_MAINTENANCE", c.Schedules.Maintenance)
	c.Schedules.Backup = getEnv("SCHEDULE_BACKUP", c.Schedules.Backup)

	c.Backup.Bucket = getEnv("BACKUP_S3_BUCKET", c.Backup.Bucket)
	c.Backup.Endpoint = getEnv("BACKUP_S3_ENDPOINT", c.Backup.Endpoint)
	c.Backup.Region = getEnv("BACKUP_S3_REGION", c.Backup.Region)
	c.Backup.AccessKeyID = getEnv("BACKUP_S3_ACCESS_KEY_ID", c.Backup.AccessKeyID)
	c.Backup.SecretAccessKey = getEnv("BACKUP_S3_SECRET_ACCESS_KEY", c.Backup.SecretAccessKey)
	c.Backup.UsePathStyle = getEnvAsBool("BACKUP_S3_PATH_STYLE", c.Backup.UsePathStyle)
	c.Backup.RetentionDays = getEnvAsInt("BACKUP_RETENTION_DAYS", c.Backup.RetentionDays)

	if holidays := getEnv("MARKET_HOLIDAYS", ""); holidays != "" {
		c.Market.Holidays = splitList(holidays)
	}
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Upstream.HistoryPageSize <= 0 {
		return fmt.Errorf("history page size must be positive, got %d", c.Upstream.HistoryPageSize)
	}
	if c.Upstream.HistoryPageDelay.Duration < eastmoney.MinPageDelay {
		return fmt.Errorf("history page delay must be at least %s, got %s", eastmoney.MinPageDelay, c.Upstream.HistoryPageDelay.Duration)
	}
	if c.Upstream.HistoryMaxRetries < 0 {
		return fmt.Errorf("history max retries must not be negative, got %d", c.Upstream.HistoryMaxRetries)
	}
	if c.Upstream.HTTPTimeout.Duration <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.Sync.Concurrency < 0 {
		return fmt.Errorf("sync concurrency must not be negative, got %d", c.Sync.Concurrency)
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup retention days must not be negative, got %d", c.Backup.RetentionDays)
	}
	for _, day := range c.Market.Holidays {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return fmt.Errorf("invalid market holiday %q: expected YYYY-MM-DD", day)
		}
	}
	return nil
}

// EastmoneyConfig returns the upstream client settings
func (c *Config) EastmoneyConfig() eastmoney.Config {
	policy := eastmoney.DefaultPagePolicy()
	policy.PageSize = c.Upstream.HistoryPageSize
	policy.Delay = c.Upstream.HistoryPageDelay.Duration
	policy.MaxRetries = uint64(c.Upstream.HistoryMaxRetries)

	return eastmoney.Config{
		RealtimeBaseURL: c.Upstream.RealtimeBaseURL,
		HistoryBaseURL:  c.Upstream.HistoryBaseURL,
		Timeout:         c.Upstream.HTTPTimeout.Duration,
		Policy:          policy,
		EstimateTTL:     c.Upstream.EstimateCacheTTL.Duration,
	}
}

// S3Config returns the backup bucket settings
func (c *Config) S3Config() reliability.S3Config {
	return reliability.S3Config{
		Bucket:          c.Backup.Bucket,
		Endpoint:        c.Backup.Endpoint,
		Region:          c.Backup.Region,
		AccessKeyID:     c.Backup.AccessKeyID,
		SecretAccessKey: c.Backup.SecretAccessKey,
		UsePathStyle:    c.Backup.UsePathStyle,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
