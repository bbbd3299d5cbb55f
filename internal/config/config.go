// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database path, provider selection and
// credentials, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS" envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"go-voice-chat"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"`
}

// CompletionConfig selects and configures the text-completion provider.
type CompletionConfig struct {
	Provider      string        `env:"COMPLETION_PROVIDER" envDefault:"openai"` // openai|ollama|gemini
	Model         string        `env:"COMPLETION_MODEL"`                        // provider default when empty
	Timeout       time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	OllamaBaseURL string        `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
}

// TranslateConfig selects and configures the translation provider.
type TranslateConfig struct {
	Provider      string        `env:"TRANSLATE_PROVIDER" envDefault:"google"` // google|libretranslate|none
	Timeout       time.Duration `env:"TRANSLATE_TIMEOUT" envDefault:"20s"`
	GoogleAPIKey  string        `env:"GOOGLE_TRANSLATE_API_KEY"`
	GoogleBaseURL string        `env:"GOOGLE_TRANSLATE_BASE_URL"`
	LibreURL      string        `env:"LIBRETRANSLATE_URL" envDefault:"http://localhost:5000"`
	LibreAPIKey   string        `env:"LIBRETRANSLATE_API_KEY"`
}

// SpeechConfig configures microphone capture and transcription.
type SpeechConfig struct {
	// RecordCommand is split on whitespace; the token {out} is replaced by the
	// path of the WAV file the command must write.
	RecordCommand string        `env:"SPEECH_RECORD_COMMAND" envDefault:"sox -q -d -c 1 -r 16000 {out} silence 1 0.1 1% 1 1.5 1%"`
	Model         string        `env:"SPEECH_MODEL" envDefault:"whisper-1"`
	Language      string        `env:"SPEECH_LANGUAGE"`
	Timeout       time.Duration `env:"SPEECH_TIMEOUT" envDefault:"30s"`
	MicWait       time.Duration `env:"MIC_WAIT" envDefault:"0s"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"150s"` // must outlive speech + completion + translation
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	GinMode           string        `env:"GIN_MODE" envDefault:"release"` // debug|release|test

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`

	// App
	DBPath             string `env:"DB_PATH" envDefault:"chat_history.db"`
	DefaultLanguage    string `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	MaxMessageRunes    int    `env:"MAX_MESSAGE_RUNES" envDefault:"4000"`
	SessionLogCapacity int    `env:"SESSION_LOG_CAPACITY" envDefault:"1000"` // 0 = unbounded

	// Collaborators
	Completion CompletionConfig
	Translate  TranslateConfig
	Speech     SpeechConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Observability
	OTEL OTELConfig
}

// LoadDotEnv seeds the process environment from the given .env files (".env"
// when none are given). Variables already set in the environment win. A
// missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	// --- normalization ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.Completion.Provider = strings.ToLower(strings.TrimSpace(cfg.Completion.Provider))
	cfg.Translate.Provider = strings.ToLower(strings.TrimSpace(cfg.Translate.Provider))
	cfg.DefaultLanguage = strings.TrimSpace(cfg.DefaultLanguage)
	cfg.CORS.AllowedOrigins = trimCSV(cfg.CORS.AllowedOrigins)

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.DefaultLanguage == "" {
		return cfg, errors.New("DEFAULT_LANGUAGE must not be empty")
	}
	if cfg.MaxMessageRunes < 1 {
		return cfg, errors.New("MAX_MESSAGE_RUNES must be >= 1")
	}
	if cfg.SessionLogCapacity < 0 {
		return cfg, errors.New("SESSION_LOG_CAPACITY must be >= 0")
	}
	switch cfg.Completion.Provider {
	case "openai", "ollama", "gemini":
	default:
		return cfg, errors.New("COMPLETION_PROVIDER must be one of: openai, ollama, gemini")
	}
	switch cfg.Translate.Provider {
	case "google", "libretranslate", "none":
	default:
		return cfg, errors.New("TRANSLATE_PROVIDER must be one of: google, libretranslate, none")
	}
	if cfg.Completion.Timeout <= 0 || cfg.Translate.Timeout <= 0 || cfg.Speech.Timeout <= 0 {
		return cfg, errors.New("provider timeouts must be positive durations")
	}
	if cfg.Speech.MicWait < 0 {
		return cfg, errors.New("MIC_WAIT must be >= 0")
	}
	if !strings.Contains(cfg.Speech.RecordCommand, "{out}") {
		return cfg, errors.New("SPEECH_RECORD_COMMAND must contain the {out} placeholder")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// trimCSV drops blank entries and surrounding whitespace from a split list.
func trimCSV(parts []string) []string {
	if len(parts) == 0 {
		return nil
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
