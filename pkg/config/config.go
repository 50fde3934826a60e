package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Gemini's OpenAI-compatible endpoint; serves both chat and embeddings.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// ErrMissingAPIKey is the fatal startup error for a missing credential.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY is not set")

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

type AppConfig struct {
	Env      Environment
	LogLevel string
	HTTPAddr string
}

type ModelConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration
}

type KnowledgeConfig struct {
	DataPath  string // empty: use the embedded knowledge source
	IndexPath string
	Threshold float64
}

type Config struct {
	App       AppConfig
	Model     ModelConfig
	Knowledge KnowledgeConfig
}

// Load reads .env (if present) and the environment. A variable that is set
// but cannot be parsed is an error rather than a silent default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := parseEnvironment(getEnv("ADVISOR_ENV", string(Development)))
	p := &envParser{}

	cfg := &Config{
		App: AppConfig{
			Env:      env,
			LogLevel: getLogLevel(env),
			HTTPAddr: getEnv("ADVISOR_HTTP_ADDR", ":8080"),
		},
		Model: ModelConfig{
			APIKey:         getEnv("GOOGLE_API_KEY", ""),
			BaseURL:        getEnv("ADVISOR_BASE_URL", defaultBaseURL),
			ChatModel:      getEnv("ADVISOR_CHAT_MODEL", "gemini-1.5-flash-latest"),
			EmbeddingModel: getEnv("ADVISOR_EMBEDDING_MODEL", "text-embedding-004"),
			Temperature:    p.getFloat("ADVISOR_TEMPERATURE", 0.7),
			MaxTokens:      p.getInt("ADVISOR_MAX_TOKENS", 0),
			RequestTimeout: p.getDuration("ADVISOR_REQUEST_TIMEOUT", 30*time.Second),
		},
		Knowledge: KnowledgeConfig{
			DataPath:  getEnv("ADVISOR_DATA_PATH", ""),
			IndexPath: getEnv("ADVISOR_INDEX_PATH", "embeddings/index.gob"),
			Threshold: p.getFloat("ADVISOR_THRESHOLD", 0.5),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that must stop the process before serving.
func (c *Config) Validate() error {
	if c.Model.APIKey == "" {
		return ErrMissingAPIKey
	}
	if !(c.Knowledge.Threshold >= -1 && c.Knowledge.Threshold <= 1) {
		return fmt.Errorf("ADVISOR_THRESHOLD must be between -1 and 1, got %g", c.Knowledge.Threshold)
	}
	if c.Model.RequestTimeout < 0 {
		return fmt.Errorf("ADVISOR_REQUEST_TIMEOUT must not be negative, got %s", c.Model.RequestTimeout)
	}
	return nil
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func getLogLevel(env Environment) string {
	if env == Production {
		return getEnv("ADVISOR_LOG_LEVEL", "info")
	}

	return getEnv("ADVISOR_LOG_LEVEL", "debug")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envParser reads typed variables and collects every malformed value.
type envParser struct {
	errs []error
}

func (p *envParser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("invalid %s=%q: %w", key, value, err))
}

func (p *envParser) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return intValue
}

func (p *envParser) getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return floatVal
}

func (p *envParser) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return d
}
