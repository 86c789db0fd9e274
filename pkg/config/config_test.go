package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 768, cfg.AI.EmbeddingDim)
	assert.Equal(t, 1000, cfg.Ingestion.ChunkSize)
	assert.Equal(t, 20, cfg.Ingestion.SampleParagraphs)
	assert.Equal(t, 50, cfg.Ingestion.MinParagraphChars)
	assert.Equal(t, 0.5, cfg.Ingestion.MinRelationConfidence)
	assert.Equal(t, 5, cfg.Query.MeetingLimit)
	assert.Equal(t, 60*time.Second, cfg.AI.Breaker.Interval)
	assert.True(t, cfg.Crawler.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Crawler.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/kb.db")
	t.Setenv("AI_BREAKER_TRIP_RATIO", "0.8")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("QUERY_VECTOR_TOP_K", "8")
	t.Setenv("CRAWLER_ENABLED", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/kb.db", cfg.GetDatabaseDSN())
	assert.Equal(t, 0.8, cfg.AI.Breaker.TripRatio)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 8, cfg.Query.VectorTopK)
	assert.False(t, cfg.Crawler.Enabled)
}

func TestValidate(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "sqlite"
	cfg.AI.EmbeddingProvider = "gemini"
	assert.Error(t, cfg.Validate(), "gemini without key")

	cfg.AI.GeminiAPIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Environment = "production"
	assert.Error(t, cfg.Validate(), "default jwt secret in production")
}

func TestGetDatabaseDSN_Postgres(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "kb", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=kb sslmode=disable", cfg.GetDatabaseDSN())
}
