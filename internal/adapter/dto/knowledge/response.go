package knowledge

import (
	"time"
)

// SourceResponse represents a knowledge source
type SourceResponse struct {
	ID          string                 `json:"id"`
	URL         string                 `json:"url"`
	Title       string                 `json:"title"`
	SourceType  string                 `json:"source_type"`
	Tags        []string               `json:"tags"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	ChunkCount  *int64                 `json:"chunk_count,omitempty"`
	ArchiveURL  string                 `json:"archive_url,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	LastUpdated time.Time              `json:"last_updated"`
}

// StepResponse reports a best-effort ingestion step
type StepResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// IngestResponse reports what an ingestion stored
type IngestResponse struct {
	Source         *SourceResponse `json:"source"`
	Replaced       bool            `json:"replaced"`
	ChunkCount     int             `json:"chunk_count"`
	SkippedChunks  int             `json:"skipped_chunks"`
	Archive        StepResponse    `json:"archive"`
	EntityCount    int             `json:"entity_count"`
	RelationsAdded int             `json:"relations_added"`
	SkippedSamples int             `json:"skipped_samples"`
}
