package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
)

const (
	defaultSearchLimit = 5
	archiveURLExpiry   = time.Hour
)

// KnowledgeService handles knowledge base business logic
type KnowledgeService struct {
	knowledge repositories.KnowledgeRepository
	vectors   repositories.VectorRepository
	graph     repositories.GraphRepository
	meetings  repositories.MeetingRepository
	embedder  ai.Embedder
	archive   Archive
	logger    *zap.Logger
}

// NewKnowledgeService creates a new knowledge service. archive may be nil.
func NewKnowledgeService(
	knowledge repositories.KnowledgeRepository,
	vectors repositories.VectorRepository,
	graph repositories.GraphRepository,
	meetings repositories.MeetingRepository,
	embedder ai.Embedder,
	archive Archive,
	logger *zap.Logger,
) *KnowledgeService {
	return &KnowledgeService{
		knowledge: knowledge,
		vectors:   vectors,
		graph:     graph,
		meetings:  meetings,
		embedder:  embedder,
		archive:   archive,
		logger:    logger,
	}
}

// SearchKnowledge ranks chunks, plus segments when tags is empty
func (s *KnowledgeService) SearchKnowledge(ctx context.Context, query string, limit int, tags []string) ([]SearchHit, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	emb, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := s.vectors.SearchChunks(ctx, emb, limit, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	hits := make([]SearchHit, 0, len(chunks))
	for _, c := range chunks {
		hits = append(hits, chunkHit(c))
	}

	if len(tags) == 0 {
		segments, err := s.vectors.SearchSegments(ctx, emb, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search segments: %w", err)
		}
		for _, seg := range segments {
			hits = append(hits, segmentHit(seg))
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// SearchSimilarSegments ranks transcript segments by similarity
func (s *KnowledgeService) SearchSimilarSegments(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	emb, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	segments, err := s.vectors.SearchSegments(ctx, emb, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search segments: %w", err)
	}
	hits := make([]SearchHit, 0, len(segments))
	for _, seg := range segments {
		hits = append(hits, segmentHit(seg))
	}
	return hits, nil
}

func (s *KnowledgeService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, usecaseErrors.ErrEmptyQuery
	}
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrEmbeddingFailed, err)
	}
	return emb, nil
}

func chunkHit(c *entities.ChunkHit) SearchHit {
	hit := SearchHit{
		Kind:       HitDocument,
		ID:         c.Chunk.ID.String(),
		SourceID:   entities.NormalizeSourceRef(c.Chunk.SourceID),
		Text:       c.Chunk.Text,
		ChunkIndex: c.Chunk.ChunkIndex,
		Similarity: c.Similarity,
	}
	if c.Source != nil {
		hit.SourceTitle = c.Source.Title
		hit.SourceURL = c.Source.URL
	} else {
		hit.SourceTitle = "Source " + hit.SourceID
	}
	return hit
}

func segmentHit(h *entities.SegmentHit) SearchHit {
	title := h.MeetingTitle
	if title == "" {
		title = "Meeting " + h.Segment.MeetingID.String()
	}
	return SearchHit{
		Kind:        HitTranscript,
		ID:          h.Segment.ID.String(),
		SourceID:    h.Segment.MeetingID.String(),
		SourceTitle: title,
		Text:        h.Segment.Text,
		Speaker:     h.Segment.Speaker,
		StartMs:     h.Segment.StartMs,
		Similarity:  h.Similarity,
	}
}

// GetKnowledgeSources lists sources carrying any of tags
func (s *KnowledgeService) GetKnowledgeSources(ctx context.Context, tags []string) ([]*entities.KnowledgeSource, error) {
	sources, err := s.knowledge.List(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge sources: %w", err)
	}
	return sources, nil
}

// GetKnowledgeSource retrieves a source with its chunk count
func (s *KnowledgeService) GetKnowledgeSource(ctx context.Context, id uuid.UUID) (*SourceDetail, error) {
	source, err := s.knowledge.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge source: %w", err)
	}
	if source == nil {
		return nil, entities.ErrKnowledgeSourceNotFound
	}
	count, err := s.knowledge.CountChunks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	detail := &SourceDetail{Source: source, ChunkCount: count}
	if s.archive != nil && source.ArchiveKey != nil {
		url, err := s.archive.URL(ctx, *source.ArchiveKey, archiveURLExpiry)
		if err != nil {
			s.warn("Failed to sign archive URL", err, zap.String("source_id", id.String()))
		} else {
			detail.ArchiveURL = url
		}
	}
	return detail, nil
}

// DeleteKnowledgeSource removes a source, its chunks, relations, links
// and archived body
func (s *KnowledgeService) DeleteKnowledgeSource(ctx context.Context, id uuid.UUID) error {
	source, err := s.knowledge.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get knowledge source: %w", err)
	}
	if source == nil {
		return entities.ErrKnowledgeSourceNotFound
	}
	if err := s.knowledge.Delete(ctx, id); err != nil {
		return err
	}
	if s.archive != nil && source.ArchiveKey != nil {
		if err := s.archive.Delete(ctx, *source.ArchiveKey); err != nil {
			s.warn("Failed to delete archived body", err, zap.String("key", *source.ArchiveKey))
		}
	}
	return nil
}

// UpdateSourceTags replaces the tags of a source
func (s *KnowledgeService) UpdateSourceTags(ctx context.Context, id uuid.UUID, tags []string) error {
	return s.knowledge.UpdateTags(ctx, id, tags)
}

// GetSourceChunkCount counts the chunks of a source
func (s *KnowledgeService) GetSourceChunkCount(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.knowledge.CountChunks(ctx, id)
}

// CleanupOrphanedChunks deletes chunks of missing sources
func (s *KnowledgeService) CleanupOrphanedChunks(ctx context.Context) (int64, error) {
	n, err := s.knowledge.CleanupOrphanedChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up chunks: %w", err)
	}
	if n > 0 && s.logger != nil {
		s.logger.Info("Deleted orphaned chunks", zap.Int64("count", n))
	}
	return n, nil
}

// LinkKnowledgeToMeeting attaches a source to a meeting
func (s *KnowledgeService) LinkKnowledgeToMeeting(ctx context.Context, input LinkInput) error {
	meeting, err := s.meetings.FindByID(ctx, input.MeetingID)
	if err != nil {
		return fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return entities.ErrMeetingNotFound
	}
	source, err := s.knowledge.FindByID(ctx, input.SourceID)
	if err != nil {
		return fmt.Errorf("failed to get knowledge source: %w", err)
	}
	if source == nil {
		return entities.ErrKnowledgeSourceNotFound
	}

	by := input.AssignedBy
	switch by {
	case "":
		by = entities.AssignedByUser
	case entities.AssignedByUser, entities.AssignedByAuto:
	default:
		return usecaseErrors.ErrInvalidInput
	}
	return s.knowledge.LinkToMeeting(ctx, &entities.MeetingKnowledge{
		MeetingID:      input.MeetingID,
		SourceID:       input.SourceID,
		RelevanceScore: input.RelevanceScore,
		AssignedBy:     by,
	})
}

// GetEntityRelationships lists relations touching name
func (s *KnowledgeService) GetEntityRelationships(ctx context.Context, name string, limit int) ([]*entities.EntityRelation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, usecaseErrors.ErrInvalidInput
	}
	return s.graph.RelationsForEntity(ctx, name, limit)
}

func (s *KnowledgeService) warn(msg string, err error, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Warn(msg, append(fields, zap.Error(err))...)
	}
}
