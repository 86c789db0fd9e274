package repository

import (
	"context"
	"sort"
	"strconv"

	"github.com/liliang-cn/sqvect/v2/pkg/index"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	"github.com/johnquangdev/meeting-knowledge/pkg/vector"
)

// vectorRepository ranks stored embeddings with an exact cosine index.
// Rows whose embedding cannot be decoded or has another dimension are left
// out of the ranking.
type vectorRepository struct {
	db        *gorm.DB
	knowledge repositories.KnowledgeRepository
	logger    *zap.Logger
}

// NewVectorRepository creates a new vector repository
func NewVectorRepository(db *gorm.DB, knowledge repositories.KnowledgeRepository, logger *zap.Logger) repositories.VectorRepository {
	return &vectorRepository{db: db, knowledge: knowledge, logger: logger}
}

// SearchChunks ranks knowledge chunks against query
func (r *vectorRepository) SearchChunks(ctx context.Context, query []float32, limit int, tags []string) ([]*entities.ChunkHit, error) {
	var chunks []*entities.KnowledgeChunk
	if err := r.db.WithContext(ctx).Where("embedding IS NOT NULL").Find(&chunks).Error; err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []*entities.ChunkHit{}, nil
	}

	var allowed map[string]bool
	if len(tags) > 0 {
		sources, err := r.knowledge.List(ctx, tags)
		if err != nil {
			return nil, err
		}
		allowed = make(map[string]bool, len(sources))
		for _, s := range sources {
			allowed[s.ID.String()] = true
		}
	}

	candidates := make([][]byte, len(chunks))
	for i, c := range chunks {
		if allowed != nil && !allowed[entities.NormalizeSourceRef(c.SourceID)] {
			continue
		}
		candidates[i] = c.Embedding
	}
	top := r.rank(query, candidates, defaultLimit(limit, 5), "knowledge_chunks", func(i int) string { return chunks[i].ID.String() })

	refs := make([]string, 0, len(top))
	for _, s := range top {
		refs = append(refs, chunks[s.index].SourceID)
	}
	sources, err := r.knowledge.FindByIDs(ctx, refs)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("Failed to resolve chunk sources", zap.Error(err))
		}
		sources = map[string]*entities.KnowledgeSource{}
	}

	hits := make([]*entities.ChunkHit, 0, len(top))
	for _, s := range top {
		c := chunks[s.index]
		hits = append(hits, &entities.ChunkHit{
			Chunk:      c,
			Source:     sources[c.SourceID],
			Similarity: s.similarity,
		})
	}
	return hits, nil
}

// SearchSegments ranks transcript segments against query
func (r *vectorRepository) SearchSegments(ctx context.Context, query []float32, limit int) ([]*entities.SegmentHit, error) {
	var segments []*entities.Segment
	if err := r.db.WithContext(ctx).Where("embedding IS NOT NULL").Find(&segments).Error; err != nil {
		return nil, err
	}

	candidates := make([][]byte, len(segments))
	for i, seg := range segments {
		candidates[i] = seg.Embedding
	}
	top := r.rank(query, candidates, defaultLimit(limit, 5), "segments", func(i int) string { return segments[i].ID.String() })

	titles := make(map[string]string)
	if len(top) > 0 {
		ids := make([]string, 0, len(top))
		for _, s := range top {
			ids = append(ids, segments[s.index].MeetingID.String())
		}
		var meetings []*entities.Meeting
		if err := r.db.WithContext(ctx).Select("id", "title").Where("id IN ?", ids).Find(&meetings).Error; err != nil {
			if r.logger != nil {
				r.logger.Warn("Failed to resolve segment meetings", zap.Error(err))
			}
		}
		for _, m := range meetings {
			titles[m.ID.String()] = m.Title
		}
	}

	hits := make([]*entities.SegmentHit, 0, len(top))
	for _, s := range top {
		seg := segments[s.index]
		hits = append(hits, &entities.SegmentHit{
			Segment:      seg,
			MeetingTitle: titles[seg.MeetingID.String()],
			Similarity:   s.similarity,
		})
	}
	return hits, nil
}

type ranked struct {
	index      int
	similarity float64
}

// rank loads the decodable candidates into a flat cosine index and returns
// the k nearest, best first. Equal scores keep candidate order.
func (r *vectorRepository) rank(query []float32, candidates [][]byte, k int, table string, idOf func(int) string) []ranked {
	if len(query) == 0 || k <= 0 {
		return nil
	}

	flat := index.NewFlatIndexCosine(len(query))
	for i, blob := range candidates {
		if len(blob) == 0 {
			continue
		}
		emb, err := vector.Decode(blob)
		if err == nil {
			err = flat.Insert(strconv.Itoa(i), emb)
		}
		if err != nil && r.logger != nil {
			r.logger.Warn("Skipping malformed embedding",
				zap.String("table", table),
				zap.String("id", idOf(i)),
				zap.Error(err),
			)
		}
	}
	if flat.Size() == 0 {
		return nil
	}

	keys, distances := flat.Search(query, k)
	out := make([]ranked, 0, len(keys))
	for j, key := range keys {
		i, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out = append(out, ranked{index: i, similarity: clampSimilarity(1 - float64(distances[j]))})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].similarity != out[b].similarity {
			return out[a].similarity > out[b].similarity
		}
		return out[a].index < out[b].index
	})
	return out
}

// clampSimilarity maps cosine similarity to [0, 1]. Opposed vectors count
// as unrelated.
func clampSimilarity(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
