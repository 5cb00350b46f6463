// Package config loads the service configuration from an optional TOML file,
// a .env file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"recipe-planner/internal/pagination"
)

// Config holds the configuration for the application.
type Config struct {
	LogLevel    string            `toml:"log_level"`
	HTTP        HTTPConfig        `toml:"http"`
	Database    DatabaseConfig    `toml:"database"`
	Auth        AuthConfig        `toml:"auth"`
	LLM         LLMConfig         `toml:"llm"`
	Spoonacular SpoonacularConfig `toml:"spoonacular"`
	Cache       CacheConfig       `toml:"cache"`
	Video       VideoConfig       `toml:"video"`
	Storage     StorageConfig     `toml:"storage"`
	Telegram    TelegramConfig    `toml:"telegram"`
	Pagination  pagination.Config `toml:"pagination"`
}

type HTTPConfig struct {
	Addr            string   `toml:"addr"`
	CORSOrigins     []string `toml:"cors_origins"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
}

// ShutdownTimeoutDuration returns the graceful shutdown budget.
func (c HTTPConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	URL    string `toml:"url"`
}

// AuthConfig describes how bearer tokens issued by the identity provider are verified.
type AuthConfig struct {
	JWTSecret        string   `toml:"jwt_secret"`
	JWTPublicKeyFile string   `toml:"jwt_public_key_file"`
	Issuer           string   `toml:"issuer"`
	Audience         string   `toml:"audience"`
	AdminUserIDs     []string `toml:"admin_user_ids"`
}

type LLMConfig struct {
	GroqAPIKey   string `toml:"groq_api_key"`
	GroqModel    string `toml:"groq_model"`
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`
}

type SpoonacularConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type CacheConfig struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTL           string `toml:"ttl"`
}

// TTLDuration returns how long external responses stay cached.
func (c CacheConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

type VideoConfig struct {
	Workers     int    `toml:"workers"`
	QueueSize   int    `toml:"queue_size"`
	JobTimeout  string `toml:"job_timeout"`
	MaxAttempts int    `toml:"max_attempts"`
}

// JobTimeoutDuration returns the time budget of a single processing attempt.
func (c VideoConfig) JobTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.JobTimeout)
	return d
}

type StorageConfig struct {
	ImagePath     string `toml:"image_path"`
	MaxUploadSize string `toml:"max_upload_size"`
}

// MaxUploadBytes returns the upload limit in bytes (e.g. "10MB" -> 10485760).
func (c StorageConfig) MaxUploadBytes() int64 {
	n, _ := units.RAMInBytes(c.MaxUploadSize)
	return n
}

type TelegramConfig struct {
	BotToken       string  `toml:"bot_token"`
	WebhookURL     string  `toml:"webhook_url"`
	WebhookSecret  string  `toml:"webhook_secret"`
	AllowedUserIDs []int64 `toml:"allowed_user_ids"`
}

// Enabled reports whether the Telegram front end should start.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != ""
}

// NewFromEnv creates a new Config object from environment variables only.
func NewFromEnv() (*Config, error) {
	return Load("")
}

// Load reads the optional TOML file at path, then applies .env and environment
// overrides, defaults and validation.
func Load(path string) (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	cfg.loadDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pagination.Finalize(); err != nil {
		return nil, fmt.Errorf("pagination: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadEnv() error {
	envString("LOG_LEVEL", &c.LogLevel)

	envString("HTTP_ADDR", &c.HTTP.Addr)
	envList("CORS_ORIGINS", &c.HTTP.CORSOrigins)
	envString("SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout)

	envString("DATABASE_DRIVER", &c.Database.Driver)
	envString("DATABASE_PATH", &c.Database.Path)
	envString("DATABASE_URL", &c.Database.URL)

	envString("AUTH_JWT_SECRET", &c.Auth.JWTSecret)
	envString("AUTH_JWT_PUBLIC_KEY_FILE", &c.Auth.JWTPublicKeyFile)
	envString("AUTH_ISSUER", &c.Auth.Issuer)
	envString("AUTH_AUDIENCE", &c.Auth.Audience)
	envList("ADMIN_USER_IDS", &c.Auth.AdminUserIDs)

	envString("GROQ_API_KEY", &c.LLM.GroqAPIKey)
	envString("GROQ_MODEL", &c.LLM.GroqModel)
	envString("GEMINI_API_KEY", &c.LLM.GeminiAPIKey)
	envString("GEMINI_MODEL", &c.LLM.GeminiModel)

	envString("SPOONACULAR_API_KEY", &c.Spoonacular.APIKey)
	envString("SPOONACULAR_BASE_URL", &c.Spoonacular.BaseURL)
	if v := os.Getenv("SPOONACULAR_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SPOONACULAR_RPS: %w", err)
		}
		c.Spoonacular.RequestsPerSecond = rps
	}

	envString("REDIS_ADDR", &c.Cache.RedisAddr)
	envString("REDIS_PASSWORD", &c.Cache.RedisPassword)
	if err := envInt("REDIS_DB", &c.Cache.RedisDB); err != nil {
		return err
	}
	envString("CACHE_TTL", &c.Cache.TTL)

	if err := envInt("VIDEO_WORKERS", &c.Video.Workers); err != nil {
		return err
	}
	if err := envInt("VIDEO_QUEUE_SIZE", &c.Video.QueueSize); err != nil {
		return err
	}
	envString("VIDEO_JOB_TIMEOUT", &c.Video.JobTimeout)
	if err := envInt("VIDEO_MAX_ATTEMPTS", &c.Video.MaxAttempts); err != nil {
		return err
	}

	envString("IMAGE_STORAGE_PATH", &c.Storage.ImagePath)
	envString("MAX_UPLOAD_SIZE", &c.Storage.MaxUploadSize)

	envString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	envString("TELEGRAM_WEBHOOK_URL", &c.Telegram.WebhookURL)
	envString("TELEGRAM_WEBHOOK_SECRET", &c.Telegram.WebhookSecret)
	if v := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); v != "" {
		var ids []int64
		for _, part := range splitList(v) {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS: invalid id %q", part)
			}
			ids = append(ids, id)
		}
		c.Telegram.AllowedUserIDs = ids
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownTimeout == "" {
		c.HTTP.ShutdownTimeout = "15s"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/recipes.db"
	}
	if c.LLM.GroqModel == "" {
		c.LLM.GroqModel = "llama-3.3-70b-versatile"
	}
	if c.LLM.GeminiModel == "" {
		c.LLM.GeminiModel = "gemini-1.5-flash"
	}
	if c.Spoonacular.BaseURL == "" {
		c.Spoonacular.BaseURL = "https://api.spoonacular.com"
	}
	if c.Spoonacular.RequestsPerSecond <= 0 {
		c.Spoonacular.RequestsPerSecond = 1
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "6h"
	}
	if c.Video.Workers <= 0 {
		c.Video.Workers = 2
	}
	if c.Video.QueueSize <= 0 {
		c.Video.QueueSize = 32
	}
	if c.Video.JobTimeout == "" {
		c.Video.JobTimeout = "2m"
	}
	if c.Video.MaxAttempts <= 0 {
		c.Video.MaxAttempts = 3
	}
	if c.Storage.ImagePath == "" {
		c.Storage.ImagePath = "data/images"
	}
	if c.Storage.MaxUploadSize == "" {
		c.Storage.MaxUploadSize = "10MB"
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKeyFile == "" {
		return fmt.Errorf("AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY_FILE environment variable not set")
	}

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	durations := map[string]string{
		"shutdown_timeout":  c.HTTP.ShutdownTimeout,
		"cache ttl":         c.Cache.TTL,
		"video job_timeout": c.Video.JobTimeout,
	}
	for name, v := range durations {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if _, err := units.RAMInBytes(c.Storage.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if c.Telegram.Enabled() && c.Telegram.WebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if c.Telegram.Enabled() && c.Telegram.WebhookSecret == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_SECRET environment variable not set")
	}
	return nil
}

// IsAdmin reports whether the user id is listed in ADMIN_USER_IDS.
func (c AuthConfig) IsAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envList(key string, dst *[]string) {
	if v := os.Getenv(key); v != "" {
		*dst = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
