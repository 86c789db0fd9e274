package presenter

import (
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/knowledge"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/ingest"
	knowledgeUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
)

// ToSourceResponse converts a KnowledgeSource entity to SourceResponse DTO
func ToSourceResponse(s *entities.KnowledgeSource) *knowledge.SourceResponse {
	if s == nil {
		return nil
	}

	tags := []string(s.Tags)
	if tags == nil {
		tags = []string{}
	}

	return &knowledge.SourceResponse{
		ID:          s.ID.String(),
		URL:         s.URL,
		Title:       s.Title,
		SourceType:  string(s.SourceType),
		Tags:        tags,
		Metadata:    s.Metadata,
		CreatedAt:   s.CreatedAt,
		LastUpdated: s.LastUpdated,
	}
}

// ToSourceListResponse converts a slice of KnowledgeSource entities
func ToSourceListResponse(sources []*entities.KnowledgeSource) []*knowledge.SourceResponse {
	out := make([]*knowledge.SourceResponse, len(sources))
	for i, s := range sources {
		out[i] = ToSourceResponse(s)
	}
	return out
}

// ToSourceDetailResponse adds the chunk count and archive link
func ToSourceDetailResponse(d *knowledgeUsecase.SourceDetail) *knowledge.SourceResponse {
	if d == nil {
		return nil
	}
	resp := ToSourceResponse(d.Source)
	if resp == nil {
		return nil
	}
	count := d.ChunkCount
	resp.ChunkCount = &count
	resp.ArchiveURL = d.ArchiveURL
	return resp
}

// ToIngestResponse converts an ingestion result
func ToIngestResponse(r *ingest.SourceResult) *knowledge.IngestResponse {
	if r == nil {
		return nil
	}

	skipped := 0
	for _, s := range r.Samples {
		if !s.IsOk() {
			skipped++
		}
	}

	resp := &knowledge.IngestResponse{
		Source:         ToSourceResponse(r.Source),
		Replaced:       r.Replaced,
		ChunkCount:     r.ChunkCount,
		SkippedChunks:  r.SkippedChunks,
		Archive:        knowledge.StepResponse{Status: string(r.Archive.Status), Reason: r.Archive.Reason},
		EntityCount:    r.EntityCount,
		RelationsAdded: r.RelationsAdded,
		SkippedSamples: skipped,
	}
	if resp.Source != nil {
		count := int64(r.ChunkCount)
		resp.Source.ChunkCount = &count
	}
	return resp
}
