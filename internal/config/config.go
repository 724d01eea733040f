package config

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// EnvPrefix is prepended to every environment variable, e.g. HOPEBOT_AI_PROVIDER.
const EnvPrefix = "HOPEBOT"

// Supported chat model providers.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Supported store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
)

// Config aggregates the whole service configuration.
type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Log       LogConfig       `envconfig:"LOG"`
	AI        AIConfig        `envconfig:"AI"`
	Store     StoreConfig     `envconfig:"STORE"`
	Activity  ActivityConfig  `envconfig:"ACTIVITY"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	AllowedOrigins    []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

// AIConfig describes the hosted model used for replies, moods and recommendations.
type AIConfig struct {
	Provider     string        `envconfig:"PROVIDER" default:"ark"`
	APIKey       string        `envconfig:"API_KEY"`
	AccessKey    string        `envconfig:"ACCESS_KEY"`
	SecretKey    string        `envconfig:"SECRET_KEY"`
	Model        string        `envconfig:"MODEL"`
	BaseURL      string        `envconfig:"BASE_URL"`
	Region       string        `envconfig:"REGION" default:"cn-beijing"`
	Temperature  *float32      `envconfig:"TEMPERATURE"`
	TopP         *float32      `envconfig:"TOP_P"`
	MaxTokens    *int          `envconfig:"MAX_TOKENS"`
	CallTimeout  time.Duration `envconfig:"CALL_TIMEOUT" default:"20s"`
	HistoryLimit int           `envconfig:"HISTORY_LIMIT" default:"10"`
}

// StoreConfig selects and configures the persistence driver.
type StoreConfig struct {
	Driver        string `envconfig:"DRIVER" default:"memory"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"hopebot.db"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"hopebot"`
	RedisURL      string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// ActivityConfig controls the daily activity calendar.
type ActivityConfig struct {
	Timezone   string `envconfig:"TIMEZONE" default:"UTC"`
	WindowDays int    `envconfig:"WINDOW_DAYS" default:"365"`
}

// RateLimitConfig bounds chat requests per user.
type RateLimitConfig struct {
	RequestsPerMinute int `envconfig:"REQUESTS_PER_MINUTE" default:"30"`
	Burst             int `envconfig:"BURST" default:"5"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment variables")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalises enumerations and rejects values the service cannot run with.
func (c *Config) Validate() error {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case ProviderArk, ProviderOpenAI, ProviderGemini, ProviderOllama:
	default:
		return errors.Errorf("unsupported AI provider %q", c.AI.Provider)
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverMongo, DriverRedis:
	default:
		return errors.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	port := strings.TrimSpace(c.Server.Port)
	if port == "" || strings.Contains(port, " ") {
		return errors.Errorf("invalid server port %q", c.Server.Port)
	}

	if c.AI.CallTimeout <= 0 {
		c.AI.CallTimeout = 20 * time.Second
	}
	if c.AI.HistoryLimit < 0 {
		c.AI.HistoryLimit = 0
	}
	if c.Activity.WindowDays < 1 {
		c.Activity.WindowDays = 365
	}
	if c.RateLimit.Burst < 1 {
		c.RateLimit.Burst = 1
	}

	if _, err := c.Activity.Location(); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address, accepting "8080", ":8080" and "127.0.0.1:8080".
func (c ServerConfig) Addr() string {
	port := strings.TrimSpace(c.Port)
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Location resolves the configured timezone.
func (c ActivityConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid activity timezone %q", c.Timezone)
	}
	return loc, nil
}

// Enabled reports whether enough credentials are present for the selected provider.
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	switch c.Provider {
	case ProviderArk:
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	case ProviderOpenAI, ProviderGemini:
		return c.APIKey != ""
	case ProviderOllama:
		return c.BaseURL != ""
	default:
		return false
	}
}

// NewChatModel builds the chat model for the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, errors.Errorf("%s credentials or model missing", c.Provider)
	}

	switch c.Provider {
	case ProviderArk:
		timeout := c.CallTimeout
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
			TopP:        c.TopP,
			Timeout:     &timeout,
		})
	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: c.BaseURL,
			APIKey:  c.APIKey,
			Model:   c.Model,
		})
	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Gemini client")
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  c.Model,
		})
	case ProviderOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: c.BaseURL,
			Model:   c.Model,
		})
	default:
		return nil, errors.Errorf("unsupported AI provider %q", c.Provider)
	}
}
