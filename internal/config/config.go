package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	APIKey      string
	CORSOrigins []string

	// Ingestion
	MaxFileSize   int64
	UploadDir     string
	ChunkSize     int
	ChunkOverlap  int
	TextEncodings []string

	// Embeddings configuration
	EmbeddingsProvider    string // "openai" (default), "google"
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIEmbeddingsModel string
	GeminiAPIKey          string
	GoogleEmbeddingsModel string // e.g., "text-embedding-004"

	// Chat completion (formatting)
	DeepSeekAPIKey  string
	ChatBaseURL     string
	ChatModel       string
	ChatTemperature *float64 // nil leaves the provider default

	// Vector store
	VectorStore         string // "chromem" (default), "qdrant"
	VectorStoreDir      string
	VectorStoreCompress bool
	QdrantHost          string
	QdrantPort          int
	QdrantAPIKey        string
	QdrantUseTLS        bool

	// Retrieval
	MMRFetchK int
	MMRLambda float64

	// OpenTelemetry
	OTelEnabled         bool
	OTelEndpoint        string
	OTelSamplingRatio   float64
	OTelMetricsInterval time.Duration
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		APIKey:      getEnv("API_KEY", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		MaxFileSize:   getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		ChunkSize:     getEnvInt("CHUNK_SIZE", 4000),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 0),
		TextEncodings: splitList(getEnv("TEXT_ENCODINGS", "utf-8,utf-16,windows-1252")),

		// Embeddings
		EmbeddingsProvider:    strings.ToLower(getEnv("EMBEDDINGS_PROVIDER", "openai")),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OpenAIEmbeddingsModel: getEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		// Chat
		DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
		ChatBaseURL:     getEnv("CHAT_BASE_URL", "https://api.deepseek.com"),
		ChatModel:       getEnv("CHAT_MODEL", "deepseek-chat"),
		ChatTemperature: getEnvOptionalFloat64("CHAT_TEMPERATURE"),

		// Vector store
		VectorStore:         strings.ToLower(getEnv("VECTOR_STORE", "chromem")),
		VectorStoreDir:      getEnv("VECTOR_STORE_DIR", "./chromadb"),
		VectorStoreCompress: getEnvBool("VECTOR_STORE_COMPRESS", false),
		QdrantHost:          getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:          getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:        getEnv("QDRANT_API_KEY", ""),
		QdrantUseTLS:        getEnvBool("QDRANT_USE_TLS", false),

		// Retrieval
		MMRFetchK: getEnvInt("MMR_FETCH_K", 10),
		MMRLambda: getEnvFloat64("MMR_LAMBDA", 0.25),

		// OpenTelemetry
		OTelEnabled:         getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSamplingRatio:   getEnvFloat64("OTEL_SAMPLING_RATIO", 0.1),
		OTelMetricsInterval: time.Duration(getEnvInt("OTEL_METRICS_INTERVAL_SECONDS", 30)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and enumerated values.
func (c *Config) Validate() error {
	switch c.EmbeddingsProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required - set it in .env file")
		}
	case "google":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when EMBEDDINGS_PROVIDER=google")
		}
	default:
		return fmt.Errorf("unknown EMBEDDINGS_PROVIDER: %s", c.EmbeddingsProvider)
	}

	if c.DeepSeekAPIKey == "" {
		return fmt.Errorf("DEEPSEEK_API_KEY is required - set it in .env file")
	}

	switch c.VectorStore {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("unknown VECTOR_STORE: %s", c.VectorStore)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		return fmt.Errorf("MMR_LAMBDA must be in [0, 1], got %v", c.MMRLambda)
	}
	if c.ChatTemperature != nil && (*c.ChatTemperature < 0 || *c.ChatTemperature > 2) {
		return fmt.Errorf("CHAT_TEMPERATURE must be in [0, 2], got %v", *c.ChatTemperature)
	}
	if c.OTelEnabled && c.OTelMetricsInterval <= 0 {
		return fmt.Errorf("OTEL_METRICS_INTERVAL_SECONDS must be positive, got %v", c.OTelMetricsInterval)
	}
	if len(c.TextEncodings) == 0 {
		return fmt.Errorf("TEXT_ENCODINGS must list at least one encoding")
	}

	return nil
}

// AuthEnabled reports whether requests must carry X-API-Key.
func (c *Config) AuthEnabled() bool {
	return c.APIKey != ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvOptionalFloat64 returns nil when key is unset or unparsable.
func getEnvOptionalFloat64(key string) *float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return &floatValue
		}
	}
	return nil
}
