package config

import (
	"os"
	"strings"
	"time"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // SupabaseURL + /auth/v1/.well-known/jwks.json
	// SupabaseServiceKey is only needed by the seed command.
	SupabaseServiceKey string
	CORSOrigins        string
	TablePrefix        string
	// Classification
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ClassifyModel string
	// LogDir enables a timestamped log file next to stdout logging.
	LogDir string
	Debug  bool
}

// Load reads the configuration. Call godotenv.Load first to pick up .env.
func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	apiKey := getEnv("OPENAI_API_KEY", "")
	baseURL := getEnv("OPENAI_BASE_URL", "")
	// An OpenRouter key alone selects the OpenRouter endpoint.
	if apiKey == "" {
		if key := getEnv("OPENROUTER_API_KEY", ""); key != "" {
			apiKey = key
			if baseURL == "" {
				baseURL = "https://openrouter.ai/api/v1"
			}
		}
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        env,
		SupabaseURL:        supabaseURL,
		SupabaseDBURL:      getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:    supabaseURL + "/auth/v1/.well-known/jwks.json",
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:        getTablePrefix(env),
		OpenAIAPIKey:       apiKey,
		OpenAIBaseURL:      baseURL,
		ClassifyModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LogDir:             getEnv("LOG_DIR", ""),
		Debug:              getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// ClientConfig configures the CLI session client.
type ClientConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

// LoadClient reads PROBLEMBOX_API_URL and PROBLEMBOX_TOKEN.
func LoadClient() *ClientConfig {
	timeout, err := time.ParseDuration(getEnv("PROBLEMBOX_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &ClientConfig{
		APIURL:  strings.TrimRight(getEnv("PROBLEMBOX_API_URL", "http://localhost:8080"), "/"),
		Token:   getEnv("PROBLEMBOX_TOKEN", ""),
		Timeout: timeout,
	}
}

func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix honours TABLE_PREFIX, else derives the prefix from env.
func getTablePrefix(env string) string {
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return ""
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
