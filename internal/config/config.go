package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	Geoapify        string
	Binderbyte      string
	GoogleGemini    string
	Jina            string
	HuggingFace     string
	GraphBuildTopic string // Graph ingestion topic
	Ai              AIConfig
}

// RetrievalConfig bounds the graph walk behind each chat answer.
type RetrievalConfig struct {
	MaxHops       int // hard ceiling on orchestrator hops
	MaxConcepts   int // candidate concepts per lookup
	MaxFacts      int // atomic facts per lookup
	MaxChunks     int // chunks per vector fallback lookup
	MaxNeighbours int // neighbour concepts per expansion
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "openai", etc
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "NoteFiber"),
		},
		Keys: APIKeys{
			Geoapify:        getEnv("GEOAPIFY_API_KEY", ""),
			Binderbyte:      getEnv("BINDERBYTE_API_KEY", ""),
			GoogleGemini:    getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:            getEnv("JINA_API_KEY", ""),
			HuggingFace:     getEnv("HUGGINGFACE_API_KEY", ""),
			GraphBuildTopic: getEnv("GRAPH_BUILD_TOPIC_NAME", "GRAPH_BUILD_NOTE"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Retrieval: RetrievalConfig{
			MaxHops:       getEnvAsInt("TRAVERSAL_MAX_HOPS", 20),
			MaxConcepts:   getEnvAsInt("TRAVERSAL_MAX_CONCEPTS", 30),
			MaxFacts:      getEnvAsInt("TRAVERSAL_MAX_FACTS", 200),
			MaxChunks:     getEnvAsInt("TRAVERSAL_MAX_CHUNKS", 5),
			MaxNeighbours: getEnvAsInt("TRAVERSAL_MAX_NEIGHBOURS", 30),
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
