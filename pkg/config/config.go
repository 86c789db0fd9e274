package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	AI        AIConfig
	Assembly  AssemblyAIConfig
	Notion    NotionConfig
	Crawler   CrawlerConfig
	JWT       JWTConfig
	Ingestion IngestionConfig
	Query     QueryConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	AuthEnabled     bool     `envconfig:"AUTH_ENABLED" default:"true"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver      string `envconfig:"DRIVER" default:"postgres"` // "postgres" or "sqlite"
	Host        string `envconfig:"HOST" default:"localhost"`
	Port        string `envconfig:"PORT" default:"5432"`
	User        string `envconfig:"USER" default:"postgres"`
	Password    string `envconfig:"PASSWORD" default:"postgres"`
	Name        string `envconfig:"NAME" default:"meeting_knowledge"`
	SSLMode     string `envconfig:"SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"MIN_CONNS" default:"5"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"meeting_knowledge.db"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool          `envconfig:"ENABLED" default:"false"`
	Host         string        `envconfig:"HOST" default:"localhost"`
	Port         string        `envconfig:"PORT" default:"6379"`
	Password     string        `envconfig:"PASSWORD"`
	DB           int           `envconfig:"DB" default:"0"`
	EmbeddingTTL time.Duration `envconfig:"EMBEDDING_TTL" default:"168h"`
}

// StorageConfig holds MinIO configuration for the raw document archive
type StorageConfig struct {
	Enabled         bool   `envconfig:"ENABLED" default:"false"`
	Endpoint        string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"BUCKET" default:"meeting-knowledge"`
	UseSSL          bool   `envconfig:"USE_SSL" default:"false"`
	PublicURL       string `envconfig:"PUBLIC_URL"`
}

// AIConfig holds embedding, extraction and LLM collaborator settings
type AIConfig struct {
	EmbeddingProvider string        `envconfig:"EMBEDDING_PROVIDER" default:"openai"` // openai, gemini, none
	EmbeddingModel    string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDim      int           `envconfig:"EMBEDDING_DIM" default:"768"`
	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL     string        `envconfig:"OPENAI_BASE_URL"`
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	LLMModel          string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	LLMAPIKey         string        `envconfig:"LLM_API_KEY"`
	LLMBaseURL        string        `envconfig:"LLM_BASE_URL"`
	LLMTemperature    float32       `envconfig:"LLM_TEMPERATURE" default:"0.3"`
	LLMMaxTokens      int           `envconfig:"LLM_MAX_TOKENS" default:"1024"`
	Extractor         string        `envconfig:"EXTRACTOR" default:"gliner"` // gliner, llm, none
	GLiNERURL         string        `envconfig:"GLINER_URL" default:"http://localhost:8000"`
	GLiNERAPIKey      string        `envconfig:"GLINER_API_KEY"`
	GLiNERThreshold   float64       `envconfig:"GLINER_THRESHOLD" default:"0.5"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	RetryMaxElapsed   time.Duration `envconfig:"RETRY_MAX_ELAPSED" default:"20s"`
	Breaker           BreakerConfig `envconfig:"BREAKER"`
}

// BreakerConfig tunes the circuit breaker around the LLM
type BreakerConfig struct {
	MaxRequests uint32        `envconfig:"MAX_REQUESTS" default:"1"`
	Interval    time.Duration `envconfig:"INTERVAL" default:"60s"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	TripRatio   float64       `envconfig:"TRIP_RATIO" default:"0.6"`
}

// AssemblyAIConfig holds AssemblyAI configuration (speaker diarization)
type AssemblyAIConfig struct {
	APIKey string `envconfig:"API_KEY"`
}

// NotionConfig holds the Notion integration token
type NotionConfig struct {
	APIKey string `envconfig:"API_KEY"`
}

// CrawlerConfig controls fetching web pages for ingestion
type CrawlerConfig struct {
	Enabled         bool          `envconfig:"ENABLED" default:"true"`
	UserAgent       string        `envconfig:"USER_AGENT"`
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"30s"`
	RetryMaxElapsed time.Duration `envconfig:"RETRY_MAX_ELAPSED" default:"10s"`
}

// JWTConfig holds API token configuration
type JWTConfig struct {
	Secret string        `envconfig:"SECRET" default:"your-api-secret-change-in-production"`
	Issuer string        `envconfig:"ISSUER" default:"meeting-knowledge"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"720h"`
}

// IngestionConfig bounds the work done per ingested unit
type IngestionConfig struct {
	ChunkSize             int           `envconfig:"CHUNK_SIZE" default:"1000"`
	SampleParagraphs      int           `envconfig:"SAMPLE_PARAGRAPHS" default:"20"`
	MinParagraphChars     int           `envconfig:"MIN_PARAGRAPH_CHARS" default:"50"`
	MinRelationConfidence float64       `envconfig:"MIN_RELATION_CONFIDENCE" default:"0.5"`
	StaleMeetingAge       time.Duration `envconfig:"STALE_MEETING_AGE" default:"12h"`
	SweepInterval         time.Duration `envconfig:"SWEEP_INTERVAL" default:"30m"`
}

// QueryConfig caps the Graph-RAG context sections
type QueryConfig struct {
	MeetingLimit    int `envconfig:"MEETING_LIMIT" default:"5"`
	SegmentPreviews int `envconfig:"SEGMENT_PREVIEWS" default:"5"`
	RelatedLimit    int `envconfig:"RELATED_LIMIT" default:"5"`
	ActionLimit     int `envconfig:"ACTION_LIMIT" default:"10"`
	DecisionLimit   int `envconfig:"DECISION_LIMIT" default:"10"`
	VectorTopK      int `envconfig:"VECTOR_TOP_K" default:"5"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv populates a Config from the process environment only
func FromEnv() (*Config, error) {
	cfg := &Config{}
	sections := []struct {
		prefix string
		target interface{}
	}{
		{"", &cfg.Server},
		{"DB", &cfg.Database},
		{"REDIS", &cfg.Redis},
		{"STORAGE", &cfg.Storage},
		{"AI", &cfg.AI},
		{"ASSEMBLYAI", &cfg.Assembly},
		{"NOTION", &cfg.Notion},
		{"CRAWLER", &cfg.Crawler},
		{"JWT", &cfg.JWT},
		{"INGEST", &cfg.Ingestion},
		{"QUERY", &cfg.Query},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return nil, fmt.Errorf("failed to read %s configuration: %w", sectionName(s.prefix), err)
		}
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.AI.EmbeddingProvider {
	case "openai", "gemini", "none":
	default:
		return fmt.Errorf("AI_EMBEDDING_PROVIDER must be openai, gemini or none, got %q", c.AI.EmbeddingProvider)
	}
	switch c.AI.Extractor {
	case "gliner", "llm", "none":
	default:
		return fmt.Errorf("AI_EXTRACTOR must be gliner, llm or none, got %q", c.AI.Extractor)
	}
	if c.AI.EmbeddingDim <= 0 {
		return fmt.Errorf("AI_EMBEDDING_DIM must be positive")
	}
	if c.AI.EmbeddingProvider == "gemini" && c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("AI_GEMINI_API_KEY is required when AI_EMBEDDING_PROVIDER=gemini")
	}
	if c.Ingestion.ChunkSize <= 0 {
		return fmt.Errorf("INGEST_CHUNK_SIZE must be positive")
	}
	if c.IsProduction() && c.Server.AuthEnabled && c.JWT.Secret == "your-api-secret-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func sectionName(prefix string) string {
	if prefix == "" {
		return "server"
	}
	return prefix
}
