package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port              string        `mapstructure:"port"`
	Env               string        `mapstructure:"env"`
	LogJSON           bool          `mapstructure:"log_json"`
	LogDebug          bool          `mapstructure:"log_debug"`
	CORSAllowOrigins  string        `mapstructure:"cors_allow_origins"`
	ObjectStoreType   string        `mapstructure:"object_store"`
	LocalStoreDir     string        `mapstructure:"local_store_dir"`
	AWSRegion         string        `mapstructure:"aws_region"`
	S3Endpoint        string        `mapstructure:"s3_endpoint"`
	StorageEndpoint   string        `mapstructure:"storage_endpoint"`
	DefaultBucket     string        `mapstructure:"default_bucket"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	FetchMaxBytes     int64         `mapstructure:"fetch_max_bytes"`
	LLMProvider       string        `mapstructure:"llm_provider"`
	LLMModel          string        `mapstructure:"llm_model"`
	LLMBaseURL        string        `mapstructure:"llm_base_url"`
	LLMTimeout        time.Duration `mapstructure:"llm_timeout"`
	OpenAIAPIKey      string        `mapstructure:"openai_api_key"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	DatabaseURL       string        `mapstructure:"database_url"`
	DBMaxOpenConns    int           `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int           `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `mapstructure:"db_conn_max_lifetime"`
	DBConnMaxIdleTime time.Duration `mapstructure:"db_conn_max_idle_time"`
	DBPingTimeout     time.Duration `mapstructure:"db_ping_timeout"`
	QueueURL          string        `mapstructure:"ra_sqs_queue_url"`
	WorkerConcurrency int           `mapstructure:"worker_concurrency"`
	RateLimitRPS      float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst    int           `mapstructure:"rate_limit_burst"`
}

var defaults = map[string]any{
	"port":                  "8080",
	"env":                   "dev",
	"log_json":              true,
	"log_debug":             false,
	"cors_allow_origins":    "*",
	"object_store":          "s3",
	"local_store_dir":       "./data",
	"aws_region":            "",
	"s3_endpoint":           "",
	"storage_endpoint":      "",
	"default_bucket":        "resumes",
	"fetch_timeout":         "30s",
	"fetch_max_bytes":       int64(10 << 20),
	"llm_provider":          "openai",
	"llm_model":             "",
	"llm_base_url":          "",
	"llm_timeout":           "120s",
	"openai_api_key":        "",
	"gemini_api_key":        "",
	"database_url":          "",
	"db_max_open_conns":     0,
	"db_max_idle_conns":     0,
	"db_conn_max_lifetime":  "0s",
	"db_conn_max_idle_time": "0s",
	"db_ping_timeout":       "0s",
	"ra_sqs_queue_url":      "",
	"worker_concurrency":    4,
	"rate_limit_rps":        5.0,
	"rate_limit_burst":      10,
}

// Load reads configuration from the environment, an optional .env file and an
// optional config file named by CONFIG_FILE.
func Load() (Config, error) {
	if err := loadDotEnv(dotEnvFiles...); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.LLMProvider = normalizeProvider(cfg.LLMProvider)
	if strings.TrimSpace(cfg.DefaultBucket) == "" {
		cfg.DefaultBucket = "resumes"
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}
	return cfg, nil
}

// dotEnvFiles are read in order; values already in the environment win.
var dotEnvFiles = []string{".env", "cmd/.env"}

// loadDotEnv loads each file on its own so a missing one does not hide the
// rest.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// AllowOrigins returns the configured CORS origins.
func (c Config) AllowOrigins() []string {
	return splitAndTrim(c.CORSAllowOrigins)
}

// DevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) DevLike() bool {
	switch c.Env {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local":
		return "local"
	default:
		return "s3"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	default:
		return "openai"
	}
}
