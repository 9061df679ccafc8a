// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

type AppConfig struct {
	Provider ProviderEnvConfig
	Server   ServerEnvConfig
	Redis    RedisEnvConfig
	Store    StoreEnvConfig
	Detector DetectorEnvConfig
}

const (
	ProviderSidecar = "sidecar"
	ProviderOpenAI  = "openai"
)

// ProviderEnvConfig selects and configures the log-probability backend.
type ProviderEnvConfig struct {
	Kind          string        `env:"PROVIDER, default=sidecar"`
	SidecarURL    string        `env:"SIDECAR_URL, default=http://127.0.0.1:5005"`
	OpenAIURL     string        `env:"OPENAI_BASE_URL, default=https://api.openai.com/v1"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	Model         string        `env:"MODEL_NAME, default=davinci-002"`
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT, default=30s"`
	RetryMax      int           `env:"CLIENT_RETRY_MAX, default=3"`
}

// ServerEnvConfig configures the server.
type ServerEnvConfig struct {
	Address       string `env:"SERVER_HOST, default=127.0.0.1"`
	Port          int    `env:"SERVER_PORT, default=8080"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT, default=4194304"`
	APIKey        string `env:"SERVER_API_KEY"`
}

// RedisEnvConfig configures Redis connection.
type RedisEnvConfig struct {
	Enabled       bool          `env:"REDIS_ENABLED, default=false"`
	RedisHost     string        `env:"REDIS_HOST, default=127.0.0.1"`
	RedisPort     int           `env:"REDIS_PORT, default=6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisUsername string        `env:"REDIS_USERNAME"`
	RedisDB       int           `env:"REDIS_DB, default=0"`
	TTL           time.Duration `env:"REDIS_CACHE_TTL, default=24h"`
}

// StoreEnvConfig configures the evaluation run store.
type StoreEnvConfig struct {
	Path string `env:"STORE_PATH, default=cognisight.db"`
}

// DetectorEnvConfig holds scoring parameters and runtime settings.
type DetectorEnvConfig struct {
	Method           string  `env:"SCORING_METHOD"`
	ZThresh          float64 `env:"SCORING_Z_THRESH, default=1.0"`
	Alpha            float64 `env:"SCORING_IQR_ALPHA, default=1.0"`
	KPercent         float64 `env:"SCORING_K_PERCENT, default=0.5"`
	ChunkSize        int     `env:"CHUNK_SIZE, default=50"`
	ChunkConcurrency int     `env:"CHUNK_CONCURRENCY, default=4"`
	TargetFPR        float64 `env:"TARGET_FPR, default=0.05"`
	Workers          int     `env:"EVAL_WORKERS, default=4"`
	Environment      string  `env:"ENVIRONMENT, default=prod"`
	LogLevel         string  `env:"LOG_LEVEL"`
}

// MethodParam returns the parameter matching the configured method.
func (d DetectorEnvConfig) MethodParam() float64 {
	if strings.EqualFold(strings.TrimSpace(d.Method), "iqr") {
		return d.Alpha
	}
	return d.ZThresh
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

func LoadConfigWith(ctx context.Context, lookuper envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch strings.ToLower(c.Provider.Kind) {
	case ProviderSidecar, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Kind)
	}
	if c.Detector.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Detector.ChunkSize)
	}
	if !(c.Detector.TargetFPR > 0 && c.Detector.TargetFPR < 1) {
		return fmt.Errorf("target fpr must be in (0, 1), got %v", c.Detector.TargetFPR)
	}
	return nil
}

// RedisAddress is host:port for the configured redis.
func (r RedisEnvConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", r.RedisHost, r.RedisPort)
}

// ListenAddress is host:port for the HTTP server.
func (s ServerEnvConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}
