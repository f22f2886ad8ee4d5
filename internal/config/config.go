package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Search   SearchConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	GoogleGeminiKey   string
	LLMProvider       string
	LLMModel          string
	EmbedJobTopic     string
}

type SearchConfig struct {
	CacheBackend        string // "memory" or "redis"
	CacheTTL            time.Duration
	SimilarityThreshold float64
	MMRLambda           float64
	AdapterTimeout      time.Duration
	RequestTimeout      time.Duration
	DefaultMaxResults   int
	MaxResultsCap       int
	RealtimeEnabled     bool
	RealtimeEndpoint    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GoogleGeminiKey:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			EmbedJobTopic:     getEnv("EMBED_CONTENT_TOPIC_NAME", "EMBED_CONTENT"),
		},
		Search: SearchConfig{
			CacheBackend:        getEnv("SEARCH_CACHE_BACKEND", "memory"),
			CacheTTL:            getEnvAsDuration("SEARCH_CACHE_TTL", 10*time.Minute),
			SimilarityThreshold: getEnvAsFloat("SEARCH_SIMILARITY_THRESHOLD", 0.7),
			MMRLambda:           getEnvAsFloat("SEARCH_MMR_LAMBDA", 0.7),
			AdapterTimeout:      getEnvAsDuration("SEARCH_ADAPTER_TIMEOUT", 3*time.Second),
			RequestTimeout:      getEnvAsDuration("SEARCH_REQUEST_TIMEOUT", 8*time.Second),
			DefaultMaxResults:   getEnvAsInt("SEARCH_DEFAULT_MAX_RESULTS", 10),
			MaxResultsCap:       getEnvAsInt("SEARCH_MAX_RESULTS_CAP", 50),
			RealtimeEnabled:     getEnvAsBool("SEARCH_REALTIME_ENABLED", false),
			RealtimeEndpoint:    getEnv("SEARCH_REALTIME_ENDPOINT", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
