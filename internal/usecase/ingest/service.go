package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/external/notion"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/external/web"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
)

// Service defines the interface for the ingestion use case
type Service interface {
	// AddSegment stores a transcript segment and enriches the graph with
	// the people, topics and relations mentioned in it
	AddSegment(ctx context.Context, input SegmentInput) (*SegmentResult, error)

	// AddKnowledgeSource chunks, embeds and stores a document, replacing
	// any earlier version with the same URL
	AddKnowledgeSource(ctx context.Context, input SourceInput) (*SourceResult, error)

	// ImportNotionPage loads a Notion page and ingests it as a source
	ImportNotionPage(ctx context.Context, pageID string, tags []string) (*SourceResult, error)

	// CrawlURL fetches a web page and ingests its readable content
	CrawlURL(ctx context.Context, url string, tags []string) (*SourceResult, error)
}

// Archive stores raw document bodies
type Archive interface {
	Put(ctx context.Context, key, body string) error
}

// PageLoader loads Notion pages
type PageLoader interface {
	LoadPage(ctx context.Context, pageID string) (*notion.Page, error)
}

// Fetcher downloads web pages as markdown
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*web.Page, error)
}

// SegmentInput represents input for adding a transcript segment
type SegmentInput struct {
	MeetingID uuid.UUID
	Speaker   string
	Text      string
	StartMs   int64
	EndMs     int64
}

// SegmentResult reports what was stored for a segment
type SegmentResult struct {
	Segment          *entities.Segment `json:"segment"`
	Enrichment       Outcome           `json:"enrichment"`
	Entities         []ai.Entity       `json:"entities"`
	PeopleCreated    int               `json:"people_created"`
	TopicsCreated    int               `json:"topics_created"`
	RelationsAdded   int               `json:"relations_added"`
	ActionItemsAdded int               `json:"action_items_added"`
	DecisionsAdded   int               `json:"decisions_added"`
}

// SourceInput represents input for adding a knowledge source
type SourceInput struct {
	URL        string
	Title      string
	Content    string
	SourceType string
	Tags       []string
	Metadata   map[string]interface{}
}

// SourceResult reports what was stored for a knowledge source
type SourceResult struct {
	Source         *entities.KnowledgeSource `json:"source"`
	Replaced       bool                      `json:"replaced"`
	ChunkCount     int                       `json:"chunk_count"`
	SkippedChunks  int                       `json:"skipped_chunks"`
	Archive        Outcome                   `json:"archive"`
	Samples        []Outcome                 `json:"samples"`
	EntityCount    int                       `json:"entity_count"`
	RelationsAdded int                       `json:"relations_added"`
}

// Ensure Coordinator implements Service interface
var _ Service = (*Coordinator)(nil)
