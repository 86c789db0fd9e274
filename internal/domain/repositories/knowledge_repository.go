package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

// KnowledgeRepository defines persistence for knowledge sources and chunks
type KnowledgeRepository interface {
	// Save inserts the source and its chunks, or replaces an existing
	// source with the same URL: old chunks and relations are removed
	Save(ctx context.Context, source *entities.KnowledgeSource, chunks []*entities.KnowledgeChunk) (replaced bool, err error)

	FindByID(ctx context.Context, id uuid.UUID) (*entities.KnowledgeSource, error)
	FindByURL(ctx context.Context, url string) (*entities.KnowledgeSource, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*entities.KnowledgeSource, error)
	List(ctx context.Context, tags []string) ([]*entities.KnowledgeSource, error)

	// Delete removes the source, its chunks, relations and meeting links
	Delete(ctx context.Context, id uuid.UUID) error

	UpdateTags(ctx context.Context, id uuid.UUID, tags []string) error
	UpdateArchiveKey(ctx context.Context, id uuid.UUID, key string) error
	CountChunks(ctx context.Context, sourceID uuid.UUID) (int64, error)

	// CleanupOrphanedChunks deletes chunks whose source no longer exists
	CleanupOrphanedChunks(ctx context.Context) (int64, error)

	LinkToMeeting(ctx context.Context, link *entities.MeetingKnowledge) error
	ListMeetingKnowledge(ctx context.Context, meetingID uuid.UUID) ([]*entities.LinkedKnowledge, error)
}

// VectorRepository ranks stored embeddings against a query vector
type VectorRepository interface {
	// SearchChunks ranks knowledge chunks; tags restrict to sources carrying any tag
	SearchChunks(ctx context.Context, query []float32, limit int, tags []string) ([]*entities.ChunkHit, error)

	// SearchSegments ranks transcript segments
	SearchSegments(ctx context.Context, query []float32, limit int) ([]*entities.SegmentHit, error)
}
