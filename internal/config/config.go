package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort     string
	GinMode        string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	// Per-IP request allowance per minute on the generation endpoint.
	GenerateRateLimit int

	// Ollama endpoint.
	OllamaBaseURL string
	OllamaModel   string
	OllamaTimeout time.Duration

	// Sampling parameters forwarded to the generation endpoint.
	LLMTemperature float64
	LLMTopP        float64
	LLMTopK        int
	LLMMaxTokens   int

	// Cache store.
	RedisURL string
	CacheTTL time.Duration

	// Question archive (optional; empty URL disables it).
	DatabaseURL string
	MaxDBConns  int32

	// Chunking defaults.
	ChunkSizeWords    int
	ChunkOverlapWords int

	// Quality gate.
	MinQualityScore float64
}

// Load reads configuration from environment variables with sensible defaults.
// It loads a .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8000"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),

		GenerateRateLimit: getEnvInt("GENERATE_RATE_LIMIT", 10),

		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "mistral:latest"),
		OllamaTimeout: time.Duration(getEnvInt("OLLAMA_TIMEOUT_SECONDS", 120)) * time.Second,

		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTopP:        getEnvFloat("LLM_TOP_P", 0.9),
		LLMTopK:        getEnvInt("LLM_TOP_K", 40),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 500),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/2"),
		CacheTTL: time.Duration(getEnvInt("CACHE_TTL_DAYS", 30)) * 24 * time.Hour,

		DatabaseURL: getEnv("DATABASE_URL", ""),
		MaxDBConns:  int32(getEnvInt("MAX_DB_CONNS", 8)),

		ChunkSizeWords:    getEnvInt("CHUNK_SIZE_WORDS", 800),
		ChunkOverlapWords: getEnvInt("CHUNK_OVERLAP_WORDS", 200),

		MinQualityScore: getEnvFloat("MIN_QUALITY_SCORE", 0.4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
