package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/external/web"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/storage"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	"github.com/johnquangdev/meeting-knowledge/pkg/chunker"
	"github.com/johnquangdev/meeting-knowledge/pkg/config"
	"github.com/johnquangdev/meeting-knowledge/pkg/vector"
)

// Options bounds the work done per ingested unit
type Options struct {
	ChunkSize             int
	SampleParagraphs      int
	MinParagraphChars     int
	MinRelationConfidence float64
}

// DefaultOptions returns the stock ingestion limits
func DefaultOptions() Options {
	return Options{
		ChunkSize:             chunker.DefaultMaxChars,
		SampleParagraphs:      20,
		MinParagraphChars:     50,
		MinRelationConfidence: 0.5,
	}
}

// OptionsFromConfig maps ingestion settings to Options
func OptionsFromConfig(cfg *config.IngestionConfig) Options {
	return Options{
		ChunkSize:             cfg.ChunkSize,
		SampleParagraphs:      cfg.SampleParagraphs,
		MinParagraphChars:     cfg.MinParagraphChars,
		MinRelationConfidence: cfg.MinRelationConfidence,
	}
}

// Coordinator turns segments and documents into store writes. Embedding
// and extraction run before any graph write so collaborator latency
// never holds the store.
type Coordinator struct {
	meetings  repositories.MeetingRepository
	graph     repositories.GraphRepository
	knowledge repositories.KnowledgeRepository
	embedder  ai.Embedder
	extractor ai.Extractor
	archive   Archive
	pages     PageLoader
	fetcher   Fetcher
	splitter  *chunker.Splitter
	opts      Options
	logger    *zap.Logger
}

// NewCoordinator creates a new ingestion coordinator
func NewCoordinator(
	meetings repositories.MeetingRepository,
	graph repositories.GraphRepository,
	knowledge repositories.KnowledgeRepository,
	embedder ai.Embedder,
	extractor ai.Extractor,
	opts Options,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		meetings:  meetings,
		graph:     graph,
		knowledge: knowledge,
		embedder:  embedder,
		extractor: extractor,
		splitter:  chunker.New(opts.ChunkSize),
		opts:      opts,
		logger:    logger,
	}
}

// WithArchive enables archiving raw document bodies
func (c *Coordinator) WithArchive(a Archive) *Coordinator {
	c.archive = a
	return c
}

// WithPageLoader enables Notion imports
func (c *Coordinator) WithPageLoader(l PageLoader) *Coordinator {
	c.pages = l
	return c
}

// WithFetcher enables crawling web pages
func (c *Coordinator) WithFetcher(f Fetcher) *Coordinator {
	c.fetcher = f
	return c
}

// AddSegment stores a transcript segment and enriches the graph
func (c *Coordinator) AddSegment(ctx context.Context, input SegmentInput) (*SegmentResult, error) {
	meeting, err := c.meetings.FindByID(ctx, input.MeetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, usecaseErrors.ErrEmptyContent
	}
	segment, err := entities.NewSegment(input.MeetingID, input.Speaker, input.Text, input.StartMs, input.EndMs)
	if err != nil {
		return nil, err
	}
	result := &SegmentResult{Segment: segment, Entities: []ai.Entity{}}

	emb, err := c.embedder.Embed(ctx, segment.Text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.warn("Segment embedding failed, storing without enrichment", err, zap.String("meeting_id", meeting.ID.String()))
		if err := c.meetings.CreateSegment(ctx, segment); err != nil {
			return nil, fmt.Errorf("failed to store segment: %w", err)
		}
		result.Enrichment = Skipped("embedding failed: " + err.Error())
		return result, nil
	}
	blob, err := vector.Encode(emb)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding: %w", err)
	}
	segment.Embedding = blob

	extraction, extractErr := c.extractor.Extract(ctx, segment.Text, ai.MeetingLabels)
	if extractErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err := c.meetings.CreateSegment(ctx, segment); err != nil {
		return nil, fmt.Errorf("failed to store segment: %w", err)
	}

	if extractErr != nil {
		c.warn("Segment extraction failed", extractErr, zap.String("segment_id", segment.ID.String()))
		result.Enrichment = Skipped("extraction failed: " + extractErr.Error())
		return result, nil
	}

	seen := meeting.StartTime.Add(time.Duration(segment.StartMs) * time.Millisecond)
	write := c.graphWrite(entities.FromMeeting(meeting.ID), seen, extraction, blob, false)
	applied, err := c.graph.Apply(ctx, write)
	if err != nil {
		if fatal(ctx, err) {
			return nil, fmt.Errorf("failed to write graph: %w", err)
		}
		c.warn("Graph write failed, segment kept without enrichment", err, zap.String("segment_id", segment.ID.String()))
		result.Enrichment = Skipped("graph write failed: " + err.Error())
		return result, nil
	}

	result.Enrichment = Ok()
	result.Entities = extraction.Entities
	result.PeopleCreated = applied.PeopleCreated
	result.TopicsCreated = applied.TopicsCreated
	result.RelationsAdded = applied.RelationsAdded
	result.ActionItemsAdded = applied.ActionItemsAdded
	result.DecisionsAdded = applied.DecisionsAdded
	return result, nil
}

// AddKnowledgeSource chunks, embeds and stores a document
func (c *Coordinator) AddKnowledgeSource(ctx context.Context, input SourceInput) (*SourceResult, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, usecaseErrors.ErrMissingURL
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, usecaseErrors.ErrEmptyContent
	}
	sourceType, err := entities.ParseSourceType(input.SourceType)
	if err != nil {
		return nil, err
	}

	source := entities.NewKnowledgeSource(url, input.Title, sourceType, input.Content, input.Tags)
	if len(input.Metadata) > 0 {
		source.Metadata = datatypes.JSONMap(input.Metadata)
	}

	texts := c.splitter.Split(input.Content)
	chunks := make([]*entities.KnowledgeChunk, 0, len(texts))
	skipped := 0
	var firstErr error
	for i, text := range texts {
		var blob []byte
		emb, err := c.embedder.Embed(ctx, text)
		if err == nil {
			blob, err = vector.Encode(emb)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if firstErr == nil {
				firstErr = err
			}
			skipped++
		}
		chunks = append(chunks, entities.NewKnowledgeChunk(source.ID, i, text, blob))
	}
	if skipped > 0 {
		c.warn("Chunks stored without embedding", firstErr,
			zap.String("url", url),
			zap.Int("skipped", skipped),
			zap.Int("total", len(chunks)),
		)
	}

	replaced, err := c.knowledge.Save(ctx, source, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to store knowledge source: %w", err)
	}

	result := &SourceResult{
		Source:        source,
		Replaced:      replaced,
		ChunkCount:    len(chunks),
		SkippedChunks: skipped,
		Archive:       Skipped("archive not configured"),
		Samples:       []Outcome{},
	}
	if c.archive != nil {
		result.Archive = c.archiveBody(ctx, source)
	}

	for _, para := range c.samples(input.Content) {
		extraction, err := c.extractor.Extract(ctx, para, ai.DocumentLabels)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if c.logger != nil {
				c.logger.Debug("Sample extraction failed", zap.String("source_id", source.ID.String()), zap.Error(err))
			}
			result.Samples = append(result.Samples, Skipped("extraction failed: "+err.Error()))
			continue
		}

		write := c.graphWrite(entities.FromKnowledgeSource(source.ID), time.Now().UTC(), extraction, nil, true)
		applied, err := c.graph.Apply(ctx, write)
		if err != nil {
			if fatal(ctx, err) {
				return nil, fmt.Errorf("failed to write graph: %w", err)
			}
			c.warn("Sample graph write failed", err, zap.String("source_id", source.ID.String()))
			result.Samples = append(result.Samples, Skipped("graph write failed: "+err.Error()))
			continue
		}
		result.EntityCount += len(extraction.Entities)
		result.RelationsAdded += applied.RelationsAdded
		result.Samples = append(result.Samples, Ok())
	}

	if c.logger != nil {
		c.logger.Info("Knowledge source ingested",
			zap.String("source_id", source.ID.String()),
			zap.String("url", url),
			zap.Bool("replaced", replaced),
			zap.Int("chunks", result.ChunkCount),
			zap.Int("skipped_chunks", skipped),
			zap.Int("samples", len(result.Samples)),
		)
	}
	return result, nil
}

// ImportNotionPage loads a Notion page and ingests it as markdown
func (c *Coordinator) ImportNotionPage(ctx context.Context, pageID string, tags []string) (*SourceResult, error) {
	if c.pages == nil {
		return nil, usecaseErrors.ErrNotionDisabled
	}
	if strings.TrimSpace(pageID) == "" {
		return nil, usecaseErrors.ErrInvalidInput
	}

	page, err := c.pages.LoadPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrPageLoadFailed, err)
	}
	if strings.TrimSpace(page.Markdown) == "" {
		return nil, usecaseErrors.ErrEmptyNotionPage
	}

	return c.AddKnowledgeSource(ctx, SourceInput{
		URL:        page.URL,
		Title:      page.Title,
		Content:    page.Markdown,
		SourceType: string(entities.SourceTypeNotion),
		Tags:       tags,
		Metadata: map[string]interface{}{
			"notion_page_id": page.ID,
			"last_edited":    page.LastEdited.UTC().Format(time.RFC3339),
		},
	})
}

// CrawlURL fetches a web page and ingests its readable content
func (c *Coordinator) CrawlURL(ctx context.Context, url string, tags []string) (*SourceResult, error) {
	if c.fetcher == nil {
		return nil, usecaseErrors.ErrCrawlerDisabled
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, usecaseErrors.ErrMissingURL
	}

	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, web.ErrUnsupportedURL) {
			return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrFetchFailed, err)
	}
	if strings.TrimSpace(page.Markdown) == "" {
		return nil, usecaseErrors.ErrEmptyWebPage
	}

	return c.AddKnowledgeSource(ctx, SourceInput{
		URL:        page.URL,
		Title:      page.Title,
		Content:    page.Markdown,
		SourceType: string(entities.SourceTypeWeb),
		Tags:       tags,
		Metadata: map[string]interface{}{
			"fetched_at": page.FetchedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (c *Coordinator) archiveBody(ctx context.Context, source *entities.KnowledgeSource) Outcome {
	key := storage.ObjectKey(source.ID, string(source.SourceType))
	if err := c.archive.Put(ctx, key, source.RawContent); err != nil {
		c.warn("Failed to archive document body", err, zap.String("source_id", source.ID.String()))
		return Skipped("archive failed: " + err.Error())
	}
	if err := c.knowledge.UpdateArchiveKey(ctx, source.ID, key); err != nil {
		c.warn("Failed to record archive key", err, zap.String("source_id", source.ID.String()))
		return Skipped("archive key not recorded: " + err.Error())
	}
	source.ArchiveKey = &key
	return Ok()
}

// samples picks the paragraphs worth running extraction on
func (c *Coordinator) samples(content string) []string {
	out := make([]string, 0, c.opts.SampleParagraphs)
	for _, para := range chunker.Paragraphs(content) {
		if len(out) >= c.opts.SampleParagraphs {
			break
		}
		if utf8.RuneCountInString(para) < c.opts.MinParagraphChars {
			continue
		}
		out = append(out, para)
	}
	return out
}

// graphWrite maps an extraction onto people, topics and relations.
// Segments additionally turn action item and decision spans into rows.
func (c *Coordinator) graphWrite(prov entities.Provenance, seen time.Time, ext *ai.Extraction, embedding []byte, document bool) *entities.GraphWrite {
	write := &entities.GraphWrite{Provenance: prov, SeenAt: seen}
	if ext == nil {
		return write
	}

	var actions, decisions []string
	var deadline *string
	for _, e := range ext.Entities {
		switch {
		case ai.IsPersonLabel(e.Label):
			write.People = append(write.People, e.Text)
		case ai.IsTopicLabel(e.Label, document):
			write.Topics = append(write.Topics, entities.TopicMention{Name: e.Text, Embedding: embedding})
		case strings.EqualFold(e.Label, ai.LabelActionItem):
			actions = append(actions, e.Text)
		case strings.EqualFold(e.Label, ai.LabelDecision):
			decisions = append(decisions, e.Text)
		case strings.EqualFold(e.Label, ai.LabelDeadline) && deadline == nil:
			d := e.Text
			deadline = &d
		}
	}

	if prov.MeetingID != nil && !document {
		for _, text := range actions {
			item := entities.NewActionItem(*prov.MeetingID, text, c.assignee(ext, text), deadline)
			write.ActionItems = append(write.ActionItems, item)
		}
		for _, text := range decisions {
			write.Decisions = append(write.Decisions, entities.NewDecision(*prov.MeetingID, text, uniqueNames(write.People)))
		}
	}

	for _, r := range ext.Relations {
		if r.Confidence < c.opts.MinRelationConfidence {
			continue
		}
		rel, err := entities.NewEntityRelation(r.Source, r.SourceType, r.Relation, r.Target, r.TargetType, r.Confidence, prov)
		if err != nil {
			if !errors.Is(err, entities.ErrEmptyEntityName) {
				c.warn("Dropping relation", err)
			}
			continue
		}
		write.Relations = append(write.Relations, rel)
	}
	return write
}

// assignee finds the person an action item was assigned to
func (c *Coordinator) assignee(ext *ai.Extraction, action string) *string {
	key := entities.NormalizeName(action)
	for _, r := range ext.Relations {
		if r.Relation != ai.RelationAssignedTo || r.Confidence < c.opts.MinRelationConfidence {
			continue
		}
		switch {
		case entities.NormalizeName(r.Source) == key && ai.IsPersonLabel(r.TargetType):
			name := r.Target
			return &name
		case entities.NormalizeName(r.Target) == key && ai.IsPersonLabel(r.SourceType):
			name := r.Source
			return &name
		}
	}
	return nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := entities.NormalizeName(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entities.DisplayName(n))
	}
	return out
}

// fatal reports whether a graph write failure must fail the whole
// request rather than only skip enrichment
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || database.IsUnavailable(err)
}

func (c *Coordinator) warn(msg string, err error, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.Warn(msg, append(fields, zap.Error(err))...)
	}
}
