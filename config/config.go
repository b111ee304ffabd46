package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Derivflow DerivflowConfig `yaml:"derivflow"`
	Provider  ProviderConfig  `yaml:"provider"`
	Sources   []SourceConfig  `yaml:"sources"`
	Window    WindowConfig    `yaml:"window"`
	Poll      PollConfig      `yaml:"poll"`
	Expiry    ExpiryConfig    `yaml:"expiry"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Table     TableConfig     `yaml:"table"`
	Reset     ResetConfig     `yaml:"reset"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type DerivflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ProviderConfig describes the upstream quote provider. The header values
// mimic a standard browser client; the provider rejects generic signatures.
type ProviderConfig struct {
	BaseURL           string               `yaml:"base_url"`
	UserAgent         string               `yaml:"user_agent"`
	AcceptLanguage    string               `yaml:"accept_language"`
	AcceptEncoding    string               `yaml:"accept_encoding"`
	Timeout           time.Duration        `yaml:"timeout"`
	RequestsPerSecond float64              `yaml:"requests_per_second"`
	Burst             int                  `yaml:"burst"`
	ConnectionPool    ConnectionPoolConfig `yaml:"connection_pool"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// SourceConfig names one provider endpoint. Shape selects the payload
// decoder; TickerRule selects how the output ticker is resolved for
// quote-derivative items.
type SourceConfig struct {
	Key        string `yaml:"key"`
	Symbol     string `yaml:"symbol"`
	URL        string `yaml:"url"`
	Shape      string `yaml:"shape"`
	TickerRule string `yaml:"ticker_rule"`
	ExpiryMode string `yaml:"expiry_mode"`
}

const (
	ShapeOptionChain     = "option-chain"
	ShapeQuoteDerivative = "quote-derivative"

	TickerRuleFixed      = "fixed"
	TickerRuleIdentifier = "identifier"

	ExpiryModeNearest  = "nearest"
	ExpiryModeEarliest = "earliest"
)

// WindowConfig bounds the trading session. Both endpoints are inclusive and
// the weekday set is deliberately configurable; observed deployments differ
// on whether Friday is eligible.
type WindowConfig struct {
	Open     string   `yaml:"open"`
	Close    string   `yaml:"close"`
	Weekdays []string `yaml:"weekdays"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ExpiryConfig struct {
	Weekday string `yaml:"weekday"`
}

type SnapshotConfig struct {
	Dir     string        `yaml:"dir"`
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
}

type TableConfig struct {
	Enabled      bool          `yaml:"enabled"`
	DSN          string        `yaml:"dsn"`
	Name         string        `yaml:"name"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

type ResetConfig struct {
	Enabled bool   `yaml:"enabled"`
	Weekday string `yaml:"weekday"`
	At      string `yaml:"at"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	DashboardName string `yaml:"dashboard_name"`
}

// LoadConfig reads and validates the configuration file. Selected values can
// be overridden from the environment so credentials stay out of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Provider: ProviderConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Poll:   PollConfig{Interval: 60 * time.Second},
		Expiry: ExpiryConfig{Weekday: "Thursday"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Table.Enabled {
		if v := os.Getenv("PG_DSN"); v != "" {
			config.Table.DSN = strings.TrimSpace(v)
		}
	}

	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Derivflow.Name == "" {
		return fmt.Errorf("derivflow.name is required")
	}
	if cfg.Derivflow.Version == "" {
		return fmt.Errorf("derivflow.version is required")
	}

	if cfg.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if cfg.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be greater than 0")
	}

	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]struct{}, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.Key == "" {
			return fmt.Errorf("sources[%d].key is required", i)
		}
		if _, dup := seen[src.Key]; dup {
			return fmt.Errorf("sources[%d].key %q is duplicated", i, src.Key)
		}
		seen[src.Key] = struct{}{}
		if src.URL == "" {
			return fmt.Errorf("source %s: url is required", src.Key)
		}
		switch src.Shape {
		case ShapeOptionChain, ShapeQuoteDerivative:
		default:
			return fmt.Errorf("source %s: invalid shape %q", src.Key, src.Shape)
		}
		switch src.TickerRule {
		case "", TickerRuleFixed, TickerRuleIdentifier:
		default:
			return fmt.Errorf("source %s: invalid ticker_rule %q", src.Key, src.TickerRule)
		}
		if src.TickerRule == TickerRuleFixed && src.Symbol == "" {
			return fmt.Errorf("source %s: symbol is required for fixed ticker rule", src.Key)
		}
		switch src.ExpiryMode {
		case "", ExpiryModeNearest, ExpiryModeEarliest:
		default:
			return fmt.Errorf("source %s: invalid expiry_mode %q", src.Key, src.ExpiryMode)
		}
	}

	if _, err := ParseClock(cfg.Window.Open); err != nil {
		return fmt.Errorf("window.open: %w", err)
	}
	if _, err := ParseClock(cfg.Window.Close); err != nil {
		return fmt.Errorf("window.close: %w", err)
	}
	if len(cfg.Window.Weekdays) == 0 {
		return fmt.Errorf("window.weekdays must name at least one day")
	}
	for _, d := range cfg.Window.Weekdays {
		if _, ok := ParseWeekday(d); !ok {
			return fmt.Errorf("window.weekdays: unknown weekday %q", d)
		}
	}

	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be greater than 0")
	}

	if _, ok := ParseWeekday(cfg.Expiry.Weekday); !ok {
		return fmt.Errorf("expiry.weekday: unknown weekday %q", cfg.Expiry.Weekday)
	}

	if cfg.Snapshot.Dir == "" {
		return fmt.Errorf("snapshot.dir is required")
	}

	if cfg.Table.Enabled {
		if cfg.Table.DSN == "" {
			return fmt.Errorf("table.dsn is required when the table sink is enabled")
		}
		if cfg.Table.Name == "" {
			return fmt.Errorf("table.name is required when the table sink is enabled")
		}
	}

	if cfg.Reset.Enabled {
		if _, ok := ParseWeekday(cfg.Reset.Weekday); !ok {
			return fmt.Errorf("reset.weekday: unknown weekday %q", cfg.Reset.Weekday)
		}
		if _, err := ParseClock(cfg.Reset.At); err != nil {
			return fmt.Errorf("reset.at: %w", err)
		}
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday resolves a weekday by its English name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
