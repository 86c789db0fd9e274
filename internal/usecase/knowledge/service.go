package knowledge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

// Service defines the interface for knowledge base reads and maintenance
type Service interface {
	// SearchKnowledge ranks document chunks, and transcript segments when
	// no tag filter is given, by similarity to query
	SearchKnowledge(ctx context.Context, query string, limit int, tags []string) ([]SearchHit, error)

	// SearchSimilarSegments ranks transcript segments only
	SearchSimilarSegments(ctx context.Context, query string, limit int) ([]SearchHit, error)

	GetKnowledgeSources(ctx context.Context, tags []string) ([]*entities.KnowledgeSource, error)
	GetKnowledgeSource(ctx context.Context, id uuid.UUID) (*SourceDetail, error)
	DeleteKnowledgeSource(ctx context.Context, id uuid.UUID) error
	UpdateSourceTags(ctx context.Context, id uuid.UUID, tags []string) error
	GetSourceChunkCount(ctx context.Context, id uuid.UUID) (int64, error)

	// CleanupOrphanedChunks deletes chunks whose source no longer exists
	CleanupOrphanedChunks(ctx context.Context) (int64, error)

	// LinkKnowledgeToMeeting attaches a source to a meeting
	LinkKnowledgeToMeeting(ctx context.Context, input LinkInput) error

	// GetEntityRelationships lists relations touching name, strongest first
	GetEntityRelationships(ctx context.Context, name string, limit int) ([]*entities.EntityRelation, error)
}

// Archive reads and removes archived document bodies
type Archive interface {
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// HitKind tells documents from transcripts in search results
type HitKind string

const (
	HitDocument   HitKind = "document"
	HitTranscript HitKind = "transcript"
)

// SearchHit is one ranked search result. For transcript hits SourceID is
// the meeting and SourceTitle its title.
type SearchHit struct {
	Kind        HitKind `json:"kind"`
	ID          string  `json:"id"`
	SourceID    string  `json:"source_id"`
	SourceTitle string  `json:"source_title"`
	SourceURL   string  `json:"source_url,omitempty"`
	Text        string  `json:"text"`
	ChunkIndex  int     `json:"chunk_index"`
	Speaker     string  `json:"speaker,omitempty"`
	StartMs     int64   `json:"start_ms,omitempty"`
	Similarity  float64 `json:"similarity"`
}

// SourceDetail is a source with its chunk count and archive link
type SourceDetail struct {
	Source     *entities.KnowledgeSource `json:"source"`
	ChunkCount int64                     `json:"chunk_count"`
	ArchiveURL string                    `json:"archive_url,omitempty"`
}

// LinkInput represents input for linking a source to a meeting
type LinkInput struct {
	MeetingID      uuid.UUID
	SourceID       uuid.UUID
	RelevanceScore float64
	AssignedBy     string
}

// Ensure KnowledgeService implements Service interface
var _ Service = (*KnowledgeService)(nil)
