package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Recommend RecommendConfig `yaml:"recommend"`
	Weather   WeatherConfig   `yaml:"weather"`
	Generator GeneratorConfig `yaml:"generator"`
	Storage   StorageConfig   `yaml:"storage"`
	Store     StoreConfig     `yaml:"store"`
	Replenish ReplenishConfig `yaml:"replenish"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
	AllowedOrigins  []string        `yaml:"allowedOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// AuthConfig holds the token secret shared with the identity issuer.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// RecommendConfig tunes the matching engine.
type RecommendConfig struct {
	PrimaryCollection   string `yaml:"primaryCollection"`
	PublicURLBase       string `yaml:"publicUrlBase"`
	DefaultImageCount   int    `yaml:"defaultImageCount"`
	MaxImageCount       int    `yaml:"maxImageCount"`
	CandidateMultiplier int    `yaml:"candidateMultiplier"`
	MinCandidates       int    `yaml:"minCandidates"`
	GeneratedLimit      int    `yaml:"generatedLimit"`
}

// WeatherConfig contains weatherapi.com settings.
type WeatherConfig struct {
	APIKey        string        `yaml:"apiKey"`
	BaseURL       string        `yaml:"baseUrl"`
	DefaultCity   string        `yaml:"defaultCity"`
	LookupTimeout time.Duration `yaml:"lookupTimeout"`
	Breaker       BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker around the weather provider.
type BreakerConfig struct {
	FailureThreshold uint32        `yaml:"failureThreshold"`
	OpenTimeout      time.Duration `yaml:"openTimeout"`
	Interval         time.Duration `yaml:"interval"`
}

// GeneratorConfig contains image generation settings.
type GeneratorConfig struct {
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	Size           string        `yaml:"size"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout"`
	DefaultCount   int           `yaml:"defaultCount"`
	MaxCount       int           `yaml:"maxCount"`
}

// StorageConfig contains the R2 bucket used for generated images.
type StorageConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	PublicBase string `yaml:"publicBase"`
}

// StoreConfig contains DSN and pooling settings for the image store.
type StoreConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ReplenishConfig controls background generation.
type ReplenishConfig struct {
	Enabled   bool   `yaml:"enabled"`
	PerBucket int    `yaml:"perBucket"`
	Workers   int    `yaml:"workers"`
	Backlog   int    `yaml:"backlog"`
	Queue     string `yaml:"queue"`
	ValkeyURL string `yaml:"valkeyUrl"`
	QueueKey  string `yaml:"queueKey"`
}

// recommendImageCap is the hard upper bound on outfits per response.
const recommendImageCap = 20

const (
	QueueMemory = "memory"
	QueueValkey = "valkey"
)

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")

	setString(&cfg.Auth.Secret, "JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "JWT_TTL")

	setString(&cfg.Recommend.PrimaryCollection, "RECOMMEND_PRIMARY_COLLECTION")
	setString(&cfg.Recommend.PublicURLBase, "PUBLIC_URL_BASE")
	setInt(&cfg.Recommend.MaxImageCount, "RECOMMEND_MAX_IMAGE_COUNT")

	setString(&cfg.Weather.APIKey, "WEATHER_API_KEY")
	setString(&cfg.Weather.BaseURL, "WEATHER_BASE_URL")
	setString(&cfg.Weather.DefaultCity, "WEATHER_DEFAULT_CITY")
	setDuration(&cfg.Weather.LookupTimeout, "WEATHER_TIMEOUT")

	setString(&cfg.Generator.APIKey, "IMAGE_API_KEY")
	setString(&cfg.Generator.BaseURL, "IMAGE_BASE_URL")
	setString(&cfg.Generator.Model, "IMAGE_MODEL")
	setString(&cfg.Generator.Size, "IMAGE_SIZE")
	setDuration(&cfg.Generator.AttemptTimeout, "IMAGE_ATTEMPT_TIMEOUT")

	setString(&cfg.Storage.Endpoint, "R2_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "R2_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretKey, "R2_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.Bucket, "R2_BUCKET")
	setString(&cfg.Storage.Region, "R2_REGION")
	setString(&cfg.Storage.PublicBase, "R2_PUBLIC_BASE")

	setString(&cfg.Store.DSN, "STORE_POSTGRES_DSN")
	if v := os.Getenv("STORE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.MaxConns = int32(parsed)
		}
	}

	setBool(&cfg.Replenish.Enabled, "REPLENISH_ENABLED")
	setInt(&cfg.Replenish.Workers, "REPLENISH_WORKERS")
	setInt(&cfg.Replenish.Backlog, "REPLENISH_BACKLOG")
	setString(&cfg.Replenish.Queue, "REPLENISH_QUEUE")
	setString(&cfg.Replenish.ValkeyURL, "REPLENISH_VALKEY_URL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Recommend: RecommendConfig{
			PrimaryCollection:   "images",
			DefaultImageCount:   4,
			MaxImageCount:       20,
			CandidateMultiplier: 4,
			MinCandidates:       32,
			GeneratedLimit:      20,
		},
		Weather: WeatherConfig{
			BaseURL:       "https://api.weatherapi.com/v1",
			DefaultCity:   "Sydney",
			LookupTimeout: 5 * time.Second,
			Breaker: BreakerConfig{
				FailureThreshold: 3,
				OpenTimeout:      30 * time.Second,
				Interval:         time.Minute,
			},
		},
		Generator: GeneratorConfig{
			Model:          "dall-e-3",
			Size:           "1024x1024",
			AttemptTimeout: 90 * time.Second,
			DefaultCount:   4,
			MaxCount:       8,
		},
		Storage: StorageConfig{
			Region: "auto",
		},
		Store: StoreConfig{
			MaxConns: 8,
		},
		Replenish: ReplenishConfig{
			Enabled:   true,
			PerBucket: 2,
			Workers:   2,
			Backlog:   32,
			Queue:     QueueMemory,
			QueueKey:  "outfits:replenish",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Recommend.PrimaryCollection) == "" {
		return errors.New("recommend.primaryCollection cannot be empty")
	}
	if c.Recommend.DefaultImageCount <= 0 || c.Recommend.MaxImageCount <= 0 {
		return errors.New("recommend image counts must be positive")
	}
	if c.Recommend.MaxImageCount > recommendImageCap {
		return fmt.Errorf("recommend.maxImageCount cannot exceed %d", recommendImageCap)
	}
	if c.Recommend.DefaultImageCount > c.Recommend.MaxImageCount {
		return errors.New("recommend.defaultImageCount cannot exceed recommend.maxImageCount")
	}
	if c.Weather.LookupTimeout <= 0 {
		return errors.New("weather.lookupTimeout must be positive")
	}
	if c.Generator.AttemptTimeout <= 0 {
		return errors.New("generator.attemptTimeout must be positive")
	}
	if c.Generator.MaxCount <= 0 {
		return errors.New("generator.maxCount must be positive")
	}
	if c.Replenish.Enabled {
		if c.Replenish.Workers <= 0 {
			return errors.New("replenish.workers must be positive")
		}
		if c.Replenish.Backlog < 0 {
			return errors.New("replenish.backlog cannot be negative")
		}
		if c.Replenish.PerBucket <= 0 {
			return errors.New("replenish.perBucket must be positive")
		}
	}
	switch c.Replenish.Queue {
	case QueueMemory:
	case QueueValkey:
		if strings.TrimSpace(c.Replenish.ValkeyURL) == "" {
			return errors.New("replenish.valkeyUrl cannot be empty when the valkey queue is selected")
		}
	default:
		return fmt.Errorf("replenish.queue must be %q or %q", QueueMemory, QueueValkey)
	}
	return nil
}
