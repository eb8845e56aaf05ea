package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"smugmirror/pkg/logger"
	"smugmirror/pkg/mirror"
	"smugmirror/pkg/ratelimit"
	"smugmirror/pkg/retry"
	"smugmirror/pkg/smugmug"
	"smugmirror/pkg/storage"
)

// AppName names the config directory and dotfiles
const AppName = "smugmirror"

// Config holds all configuration options for smugmirror
type Config struct {
	// Gallery API access
	SmugMug SmugMugConfig `yaml:"smugmug" json:"smugmug"`

	// What to mirror
	Mirror MirrorConfig `yaml:"mirror" json:"mirror"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retry policy for API fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SmugMugConfig holds gallery API configuration
type SmugMugConfig struct {
	Endpoint  string        `yaml:"endpoint" json:"endpoint"`
	Session   string        `yaml:"session,omitempty" json:"session,omitempty"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// MirrorConfig selects what a run mirrors
type MirrorConfig struct {
	User       string   `yaml:"user,omitempty" json:"user,omitempty"`
	Albums     []string `yaml:"albums,omitempty" json:"albums,omitempty"`
	Pagination string   `yaml:"pagination" json:"pagination"`
	DryRun     bool     `yaml:"dry_run" json:"dry_run"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	DirPermissions  string `yaml:"dir_permissions" json:"dir_permissions"`
	FilePermissions string `yaml:"file_permissions" json:"file_permissions"`
	ReportFile      string `yaml:"report_file,omitempty" json:"report_file,omitempty"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	ChunkSize   int           `yaml:"chunk_size" json:"chunk_size"`
}

// RetryConfig holds the API retry policy
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff      string        `yaml:"backoff" json:"backoff"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerMinute of zero disables throttling
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Strategy          string `yaml:"strategy" json:"strategy"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SmugMug: SmugMugConfig{
			Endpoint:  smugmug.DefaultEndpoint,
			UserAgent: smugmug.DefaultUserAgent,
			Timeout:   30 * time.Second,
		},
		Mirror: MirrorConfig{
			Pagination: string(mirror.PaginationTruncate),
		},
		Output: OutputConfig{
			BaseDirectory:   "./",
			DirPermissions:  "0755",
			FilePermissions: "0644",
		},
		Download: DownloadConfig{
			Concurrency: 1,
			Timeout:     0,
			ChunkSize:   storage.DefaultChunkSize,
		},
		Retry: RetryConfig{
			MaxAttempts:  retry.DefaultMaxAttempts,
			Backoff:      retry.BackoffNone,
			BaseDelay:    time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			Strategy:          ratelimit.StrategyTokenBucket,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// envOverrides lists every SMUGMIRROR_* variable. Nil means unset.
type envOverrides struct {
	Endpoint          *string        `envconfig:"SMUGMIRROR_ENDPOINT"`
	Session           *string        `envconfig:"SMUGMIRROR_SESSION"`
	UserAgent         *string        `envconfig:"SMUGMIRROR_USER_AGENT"`
	Timeout           *time.Duration `envconfig:"SMUGMIRROR_TIMEOUT"`
	User              *string        `envconfig:"SMUGMIRROR_USER"`
	Albums            *string        `envconfig:"SMUGMIRROR_ALBUMS"`
	Pagination        *string        `envconfig:"SMUGMIRROR_PAGINATION"`
	OutputDir         *string        `envconfig:"SMUGMIRROR_OUTPUT_DIR"`
	ReportFile        *string        `envconfig:"SMUGMIRROR_REPORT_FILE"`
	Concurrency       *int           `envconfig:"SMUGMIRROR_CONCURRENCY"`
	DownloadTimeout   *time.Duration `envconfig:"SMUGMIRROR_DOWNLOAD_TIMEOUT"`
	ChunkSize         *int           `envconfig:"SMUGMIRROR_CHUNK_SIZE"`
	MaxAttempts       *int           `envconfig:"SMUGMIRROR_MAX_ATTEMPTS"`
	Backoff           *string        `envconfig:"SMUGMIRROR_BACKOFF"`
	RequestsPerMinute *int           `envconfig:"SMUGMIRROR_REQUESTS_PER_MINUTE"`
	LogLevel          *string        `envconfig:"SMUGMIRROR_LOG_LEVEL"`
	LogFile           *string        `envconfig:"SMUGMIRROR_LOG_FILE"`
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to parse environment variables: %w", err)
	}

	setString(&c.SmugMug.Endpoint, env.Endpoint)
	setString(&c.SmugMug.Session, env.Session)
	setString(&c.SmugMug.UserAgent, env.UserAgent)
	if env.Timeout != nil {
		c.SmugMug.Timeout = *env.Timeout
	}
	setString(&c.Mirror.User, env.User)
	if env.Albums != nil {
		c.Mirror.Albums = mirror.ParseAlbumList(*env.Albums)
	}
	setString(&c.Mirror.Pagination, env.Pagination)
	setString(&c.Output.BaseDirectory, env.OutputDir)
	setString(&c.Output.ReportFile, env.ReportFile)
	setInt(&c.Download.Concurrency, env.Concurrency)
	if env.DownloadTimeout != nil {
		c.Download.Timeout = *env.DownloadTimeout
	}
	setInt(&c.Download.ChunkSize, env.ChunkSize)
	setInt(&c.Retry.MaxAttempts, env.MaxAttempts)
	setString(&c.Retry.Backoff, env.Backoff)
	setInt(&c.RateLimit.RequestsPerMinute, env.RequestsPerMinute)
	setString(&c.Logging.Level, env.LogLevel)
	setString(&c.Logging.File, env.LogFile)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
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

// DefaultPath is where `config init` writes when no path is given
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", AppName, "config.yaml")
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"." + AppName + ".yaml",
		"." + AppName + ".yml",
		filepath.Join(home, ".config", AppName, "config.yaml"),
		filepath.Join(home, ".config", AppName, "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.SmugMug.Endpoint == "" {
		errs = append(errs, errors.New("smugmug endpoint is required"))
	} else if !smugmug.IsAbsolute(c.SmugMug.Endpoint) {
		errs = append(errs, fmt.Errorf("smugmug endpoint must be an http(s) URL, got %q", c.SmugMug.Endpoint))
	}
	if c.SmugMug.Timeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}

	if !mirror.ValidPagination(mirror.PaginationPolicy(c.Mirror.Pagination)) {
		errs = append(errs, fmt.Errorf("pagination must be %q or %q", mirror.PaginationTruncate, mirror.PaginationAbort))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if _, err := parsePerm(c.Output.DirPermissions); err != nil {
		errs = append(errs, fmt.Errorf("invalid dir permissions: %w", err))
	}
	if _, err := parsePerm(c.Output.FilePermissions); err != nil {
		errs = append(errs, fmt.Errorf("invalid file permissions: %w", err))
	}
	if ext := strings.ToLower(filepath.Ext(c.Output.ReportFile)); c.Output.ReportFile != "" &&
		ext != ".json" && ext != ".yaml" && ext != ".yml" {
		errs = append(errs, errors.New("report file must end in .json, .yaml or .yml"))
	}

	if c.Download.Concurrency <= 0 {
		errs = append(errs, errors.New("download concurrency must be positive"))
	}
	if c.Download.Concurrency > 16 {
		errs = append(errs, errors.New("download concurrency should not exceed 16"))
	}
	if c.Download.Timeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if _, err := c.backoff(); err != nil {
		errs = append(errs, err)
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if s := c.RateLimit.Strategy; s != "" && s != ratelimit.StrategyTokenBucket && s != ratelimit.StrategySlidingWindow {
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", s))
	}

	if !logger.ValidLevel(c.Logging.Level) {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

	// 0600 because the file may hold a session token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["endpoint"].(string); ok && v != "" {
		c.SmugMug.Endpoint = v
	}
	if v, ok := flags["session"].(string); ok && v != "" {
		c.SmugMug.Session = v
	}
	if v, ok := flags["user"].(string); ok && v != "" {
		c.Mirror.User = v
	}
	if v, ok := flags["albums"].([]string); ok && len(v) > 0 {
		c.Mirror.Albums = v
	}
	if v, ok := flags["pagination"].(string); ok && v != "" {
		c.Mirror.Pagination = v
	}
	if v, ok := flags["dry-run"].(bool); ok {
		c.Mirror.DryRun = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["report"].(string); ok && v != "" {
		c.Output.ReportFile = v
	}
	if v, ok := flags["concurrency"].(int); ok && v > 0 {
		c.Download.Concurrency = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["backoff"].(string); ok && v != "" {
		c.Retry.Backoff = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files never override variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), "."+AppName+".env"))

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

// MirrorOptions derives the immutable run options
func (c *Config) MirrorOptions(runID string) mirror.Options {
	albums := make([]string, len(c.Mirror.Albums))
	copy(albums, c.Mirror.Albums)

	return mirror.Options{
		User:        c.Mirror.User,
		OutputRoot:  mirror.NormalizeRoot(c.Output.BaseDirectory),
		AlbumFilter: albums,
		Concurrency: c.Download.Concurrency,
		Pagination:  mirror.PaginationPolicy(c.Mirror.Pagination),
		DryRun:      c.Mirror.DryRun,
		RunID:       runID,
	}
}

// ClientConfig derives the API client settings
func (c *Config) ClientConfig() smugmug.ClientConfig {
	return smugmug.ClientConfig{
		Endpoint:        c.SmugMug.Endpoint,
		Session:         c.SmugMug.Session,
		UserAgent:       c.SmugMug.UserAgent,
		Timeout:         c.SmugMug.Timeout,
		DownloadTimeout: c.Download.Timeout,
	}
}

// StorageOptions derives the output tree settings
func (c *Config) StorageOptions() (storage.Options, error) {
	dirPerm, err := parsePerm(c.Output.DirPermissions)
	if err != nil {
		return storage.Options{}, fmt.Errorf("invalid dir permissions: %w", err)
	}
	filePerm, err := parsePerm(c.Output.FilePermissions)
	if err != nil {
		return storage.Options{}, fmt.Errorf("invalid file permissions: %w", err)
	}
	return storage.Options{
		Root:      mirror.NormalizeRoot(c.Output.BaseDirectory),
		DirPerm:   dirPerm,
		FilePerm:  filePerm,
		ChunkSize: c.Download.ChunkSize,
	}, nil
}

// RetryPolicy derives the fetch retry policy
func (c *Config) RetryPolicy(log logger.Logger) (*retry.Config, error) {
	backoff, err := c.backoff()
	if err != nil {
		return nil, err
	}
	policy := retry.DefaultConfig()
	policy.MaxAttempts = c.Retry.MaxAttempts
	policy.Backoff = backoff
	policy.Logger = log
	return policy, nil
}

// Limiter returns the API throttle, or nil when throttling is off
func (c *Config) Limiter() (ratelimit.Limiter, error) {
	if c.RateLimit.RequestsPerMinute <= 0 {
		return nil, nil
	}
	return ratelimit.New(c.RateLimit.Strategy, c.RateLimit.RequestsPerMinute)
}

// LoggerConfig derives the logger settings
func (c *Config) LoggerConfig(runID string, noColor bool) *logger.Config {
	return &logger.Config{
		Level:   c.Logging.Level,
		File:    c.Logging.File,
		NoColor: noColor,
		RunID:   runID,
	}
}

func (c *Config) backoff() (retry.BackoffStrategy, error) {
	return retry.NewBackoff(c.Retry.Backoff, c.Retry.BaseDelay, c.Retry.MaxDelay, c.Retry.Multiplier, c.Retry.JitterFactor)
}

func parsePerm(s string) (os.FileMode, error) {
	if s == "" {
		return 0, errors.New("empty permission string")
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not an octal mode", s)
	}
	if v > 0777 {
		return 0, fmt.Errorf("%q has bits outside 0777", s)
	}
	return os.FileMode(v), nil
}
