package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	LLMProvider   string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	AnalysisModel string
	InsightModel  string

	DatabaseURL string
	HTTPPort    string
	LogLevel    string
	JWTSecret   string

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	AnalysisMaxAttempts  int
	AnalysisRetryDelay   time.Duration

	FreeDailyQuota    int
	PremiumDailyQuota int

	CORSAllowedOrigins []string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))
	analysisModel := getEnv("ANALYSIS_MODEL", defaultModelFor(provider))

	AppConfig = Config{
		LLMProvider:   provider,
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		AnalysisModel: analysisModel,
		InsightModel:  getEnv("INSIGHT_MODEL", analysisModel),

		DatabaseURL: getEnv("DATABASE_URL", "stamind.db"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 10),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		AnalysisMaxAttempts:  getEnvAsInt("ANALYSIS_MAX_ATTEMPTS", 3),
		AnalysisRetryDelay:   getEnvAsDuration("ANALYSIS_RETRY_DELAY", 3*time.Second),

		FreeDailyQuota:    getEnvAsInt("FREE_DAILY_QUOTA", 1),
		PremiumDailyQuota: getEnvAsInt("PREMIUM_DAILY_QUOTA", 10),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

// ValidateModel checks only what talking to the model provider needs.
func (c Config) ValidateModel() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY environment variable is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY environment variable is required")
		}
	default:
		return errors.New("LLM_PROVIDER must be one of: gemini, openai")
	}
	if c.AnalysisModel == "" {
		return errors.New("ANALYSIS_MODEL must not be empty")
	}
	if c.RateLimitMaxRequests <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("rate limit settings must be positive")
	}
	if c.AnalysisMaxAttempts <= 0 {
		return errors.New("ANALYSIS_MAX_ATTEMPTS must be positive")
	}
	if c.AnalysisRetryDelay < 0 {
		return errors.New("ANALYSIS_RETRY_DELAY must be >= 0")
	}
	return nil
}

// Validate checks everything the HTTP server needs.
func (c Config) Validate() error {
	if err := c.ValidateModel(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.FreeDailyQuota < 0 || c.PremiumDailyQuota < 0 {
		return errors.New("daily quotas must be >= 0")
	}
	return nil
}

func defaultModelFor(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-5-mini"
	}
	return "gemini-2.5-flash"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
