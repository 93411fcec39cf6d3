package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Queue       QueueConfig      `toml:"queue"`
	Storage     StorageConfig    `toml:"storage"`
	Cache       CacheConfig      `toml:"cache"`
	Sentiment   SentimentConfig  `toml:"sentiment"`
	Oracle      OracleConfig     `toml:"oracle"`
	Classifier  ClassifierConfig `toml:"classifier"`
	Logging     LoggingConfig    `toml:"logging"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type QueueConfig struct {
	Name           string `toml:"name"`            // Queue name prefix in Badger
	PollInterval   string `toml:"poll_interval"`   // e.g., "100ms" - how often workers and waiters poll
	Concurrency    int    `toml:"concurrency"`     // Number of concurrent workers
	DequeueTimeout string `toml:"dequeue_timeout"` // e.g., "5s" - worker blocking dequeue window
	WaitTimeout    string `toml:"wait_timeout"`    // e.g., "30s" - correlation wait upper bound per job
	ResultTTL      string `toml:"result_ttl"`      // e.g., "5m" - unclaimed results older than this are swept
	SweepSchedule  string `toml:"sweep_schedule"`  // Cron schedule for the result sweep
	StaggerWorkers bool   `toml:"stagger_workers"` // Spread worker starts across the poll interval
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type CacheConfig struct {
	MaxSize int    `toml:"max_size"` // Maximum number of cached classification results
	TTL     string `toml:"ttl"`      // e.g., "1h" - entry expiry measured from last access
}

// SentimentConfig points at the external sentiment inference service
type SentimentConfig struct {
	URL          string `toml:"url"`           // POST endpoint returning {predicted_label, scores}
	Timeout      string `toml:"timeout"`       // Per-call timeout
	MaxRetries   int    `toml:"max_retries"`   // Retry attempts on transport failure
	RetryBackoff string `toml:"retry_backoff"` // Fixed wait between attempts
}

// OracleConfig configures the topic-targeting oracle providers
type OracleConfig struct {
	Provider     string       `toml:"provider"`      // "gemini" or "claude" (default: "gemini")
	MaxRetries   int          `toml:"max_retries"`   // Retry attempts on transport failure
	RetryBackoff string       `toml:"retry_backoff"` // Fixed wait between attempts
	Gemini       GeminiConfig `toml:"gemini"`
	Claude       ClaudeConfig `toml:"claude"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model name (default: "gemini-2.0-flash")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "30s")
	RateLimit   string  `toml:"rate_limit"`  // Minimum spacing between calls (default: "4s" for 15 RPM)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model name (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2048)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "30s")
	RateLimit   string  `toml:"rate_limit"`  // Minimum spacing between calls (default: "1s")
}

// ClassifierConfig allows overriding the content-type taxonomy and escalation
// threshold. Empty lists fall back to the built-in taxonomy in models.
type ClassifierConfig struct {
	CommentTypes         []string `toml:"comment_types"`
	PostTypes            []string `toml:"post_types"`
	InteractionThreshold int      `toml:"interaction_threshold"` // Tier-3 escalation floor (default: 100)
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type WebSocketConfig struct {
	MaxBatchSize    int `toml:"max_batch_size"`    // Maximum items per predict event (default: 100)
	ReadBufferSize  int `toml:"read_buffer_size"`  // WebSocket read buffer (default: 1024)
	WriteBufferSize int `toml:"write_buffer_size"` // WebSocket write buffer (default: 1024)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in buzzmon.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 5001,
			Host: "localhost",
		},
		Queue: QueueConfig{
			Name:           "classify",
			PollInterval:   "100ms",
			Concurrency:    4,
			DequeueTimeout: "5s",
			WaitTimeout:    "30s",
			ResultTTL:      "5m",
			SweepSchedule:  "0 * * * * *", // Every minute
			StaggerWorkers: true,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/buzzmon",
				ResetOnStartup: false,
			},
		},
		Cache: CacheConfig{
			MaxSize: 1000,
			TTL:     "1h",
		},
		Sentiment: SentimentConfig{
			URL:          "http://localhost:8989/predict",
			Timeout:      "5s",
			MaxRetries:   3,
			RetryBackoff: "2s",
		},
		Oracle: OracleConfig{
			Provider:     "gemini",
			MaxRetries:   3,
			RetryBackoff: "2s",
			Gemini: GeminiConfig{
				APIKey:      "", // User must provide API key (no fallback)
				Model:       "gemini-2.0-flash",
				Temperature: 0.2,
				Timeout:     "30s",
				RateLimit:   "4s",
			},
			Claude: ClaudeConfig{
				APIKey:      "",
				Model:       "claude-haiku-3-5-20241022",
				MaxTokens:   2048,
				Temperature: 0.2,
				Timeout:     "30s",
				RateLimit:   "1s",
			},
		},
		Classifier: ClassifierConfig{
			InteractionThreshold: 100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		WebSocket: WebSocketConfig{
			MaxBatchSize:    100,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// LoadFromFile loads configuration from a single TOML file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration by merging defaults with the given TOML
// files in order (later files override earlier ones), then applies environment
// variable overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BUZZMON_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("BUZZMON_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("BUZZMON_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if pollInterval := os.Getenv("BUZZMON_QUEUE_POLL_INTERVAL"); pollInterval != "" {
		config.Queue.PollInterval = pollInterval
	}
	if concurrency := os.Getenv("BUZZMON_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}
	if queueName := os.Getenv("BUZZMON_QUEUE_NAME"); queueName != "" {
		config.Queue.Name = queueName
	}

	if badgerPath := os.Getenv("BUZZMON_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("BUZZMON_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("BUZZMON_SENTIMENT_URL"); url != "" {
		config.Sentiment.URL = url
	}

	if key := os.Getenv("BUZZMON_GEMINI_API_KEY"); key != "" {
		config.Oracle.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Oracle.Gemini.APIKey = key
	}
	if key := os.Getenv("BUZZMON_CLAUDE_API_KEY"); key != "" {
		config.Oracle.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Oracle.Claude.APIKey = key
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Queue.Concurrency <= 0 {
		return fmt.Errorf("queue concurrency must be positive, got %d", c.Queue.Concurrency)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max_size must be positive, got %d", c.Cache.MaxSize)
	}
	if _, err := c.Queue.PollIntervalDuration(); err != nil {
		return fmt.Errorf("invalid queue poll_interval: %w", err)
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return fmt.Errorf("invalid cache ttl: %w", err)
	}
	return nil
}

// PollIntervalDuration parses the poll interval, defaulting to 100ms
func (q *QueueConfig) PollIntervalDuration() (time.Duration, error) {
	return parseDurationDefault(q.PollInterval, 100*time.Millisecond)
}

// DequeueTimeoutDuration parses the dequeue timeout, defaulting to 5s
func (q *QueueConfig) DequeueTimeoutDuration() (time.Duration, error) {
	return parseDurationDefault(q.DequeueTimeout, 5*time.Second)
}

// WaitTimeoutDuration parses the correlation wait timeout, defaulting to 30s
func (q *QueueConfig) WaitTimeoutDuration() (time.Duration, error) {
	return parseDurationDefault(q.WaitTimeout, 30*time.Second)
}

// ResultTTLDuration parses the unclaimed-result TTL, defaulting to 5m
func (q *QueueConfig) ResultTTLDuration() (time.Duration, error) {
	return parseDurationDefault(q.ResultTTL, 5*time.Minute)
}

// TTLDuration parses the cache TTL, defaulting to 1h
func (c *CacheConfig) TTLDuration() (time.Duration, error) {
	return parseDurationDefault(c.TTL, time.Hour)
}

func parseDurationDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
