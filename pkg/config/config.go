package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv
const EnvPrefix = "IMAGEGRAB_"

// Filename formats accepted by Download.FilenameFormat
const (
	FormatBasename = "basename"
	FormatSHA256   = "sha256"
	FormatBlake2b  = "blake2b"
)

// Config holds all configuration options for imagegrab
type Config struct {
	// Search endpoint and default query terms
	Search SearchConfig `yaml:"search" json:"search"`

	// Download pipeline settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// HTTP transport settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// SearchConfig holds the search endpoint and default keywords
type SearchConfig struct {
	BaseURL   string   `yaml:"base_url" json:"base_url"`
	Keywords  []string `yaml:"keywords" json:"keywords"`
	Modifiers []string `yaml:"modifiers" json:"modifiers"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDirectory string        `yaml:"output_directory" json:"output_directory"`
	Limit           int           `yaml:"limit" json:"limit"`
	RequestsDelay   time.Duration `yaml:"requests_delay" json:"requests_delay"`
	NoClobber       bool          `yaml:"no_clobber" json:"no_clobber"`
	FilenameFormat  string        `yaml:"filename_format" json:"filename_format"`
	Workers         int           `yaml:"workers" json:"workers"`
	Manifest        string        `yaml:"manifest" json:"manifest"`
}

// HTTPConfig holds transport settings shared by page and image fetches
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds the Prometheus textfile destination
type MetricsConfig struct {
	File string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL: "https://www.google.com/search",
		},
		Download: DownloadConfig{
			OutputDirectory: "./downloads",
			Limit:           0, // 0 means no limit
			RequestsDelay:   0,
			NoClobber:       false,
			FilenameFormat:  FormatBasename,
			Workers:         1,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.Search.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "MODIFIERS"); v != "" {
		c.Search.Modifiers = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		c.Download.OutputDirectory = v
	}
	if v := os.Getenv(EnvPrefix + "LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLIMIT: %w", EnvPrefix, err))
		} else {
			c.Download.Limit = n
		}
	}
	if v := os.Getenv(EnvPrefix + "DELAY"); v != "" {
		d, err := ParseDelay(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDELAY: %w", EnvPrefix, err))
		} else {
			c.Download.RequestsDelay = d
		}
	}
	if v := os.Getenv(EnvPrefix + "NO_CLOBBER"); v != "" {
		c.Download.NoClobber = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv(EnvPrefix + "FILENAME_FORMAT"); v != "" {
		c.Download.FilenameFormat = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWORKERS: %w", EnvPrefix, err))
		} else {
			c.Download.Workers = n
		}
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvPrefix + "METRICS_FILE"); v != "" {
		c.Metrics.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// SearchPaths lists the config file locations in order of precedence
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		"imagegrab.yaml",
		".imagegrab.yaml",
		".imagegrab.yml",
		filepath.Join(home, ".config", "imagegrab", "config.yaml"),
		filepath.Join(home, ".config", "imagegrab", "config.yml"),
		filepath.Join(home, ".imagegrab.yaml"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Search.BaseURL == "" {
		errs = append(errs, errors.New("search base URL is required"))
	} else if u, err := url.Parse(c.Search.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid search base URL %q", c.Search.BaseURL))
	}

	if c.Download.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.Limit < 0 {
		errs = append(errs, errors.New("download limit cannot be negative"))
	}
	if c.Download.RequestsDelay < 0 {
		errs = append(errs, errors.New("requests delay cannot be negative"))
	}
	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.Workers > 16 {
		errs = append(errs, errors.New("workers should not exceed 16"))
	}

	validFormats := map[string]bool{
		FormatBasename: true, FormatSHA256: true, FormatBlake2b: true,
	}
	if !validFormats[strings.ToLower(c.Download.FilenameFormat)] {
		errs = append(errs, fmt.Errorf("invalid filename format %q", c.Download.FilenameFormat))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Search.BaseURL = v
	}
	if v, ok := flags["modifiers"].([]string); ok && len(v) > 0 {
		c.Search.Modifiers = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Download.OutputDirectory = v
	}
	if v, ok := flags["limit"].(int); ok {
		c.Download.Limit = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Download.RequestsDelay = v
	}
	if v, ok := flags["no-clobber"].(bool); ok {
		c.Download.NoClobber = v
	}
	if v, ok := flags["filename-format"].(string); ok && v != "" {
		c.Download.FilenameFormat = strings.ToLower(v)
	}
	if v, ok := flags["workers"].(int); ok {
		c.Download.Workers = v
	}
	if v, ok := flags["manifest"].(string); ok && v != "" {
		c.Download.Manifest = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok {
		c.HTTP.Timeout = v
	}
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.HTTP.UserAgent = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["metrics-file"].(string); ok && v != "" {
		c.Metrics.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files never override variables already set in the environment
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imagegrab.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// maxDelaySeconds is the largest delay a time.Duration can hold
const maxDelaySeconds = float64(math.MaxInt64 / int64(time.Second))

// ParseDelay accepts either a Go duration ("1.5s", "200ms") or a plain number
// of seconds ("2", "0.5").
func ParseDelay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("invalid delay %q", s)
		}
		if math.Abs(secs) > maxDelaySeconds {
			return 0, fmt.Errorf("delay %q is out of range", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
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
