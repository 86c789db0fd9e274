package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/external/notion"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/external/web"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/testutil"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
)

type memArchive struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func (a *memArchive) Put(_ context.Context, key, body string) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.files == nil {
		a.files = map[string]string{}
	}
	a.files[key] = body
	return nil
}

type stubPages struct {
	page *notion.Page
	err  error
}

func (s stubPages) LoadPage(context.Context, string) (*notion.Page, error) {
	return s.page, s.err
}

type stubFetcher struct {
	page *web.Page
	err  error
}

func (s stubFetcher) Fetch(context.Context, string) (*web.Page, error) {
	return s.page, s.err
}

// failingGraph rejects every write but serves reads from the real store
type failingGraph struct {
	repositories.GraphRepository
	err error
}

func (g failingGraph) Apply(context.Context, *entities.GraphWrite) (*entities.GraphWriteResult, error) {
	return nil, g.err
}

func budgetExtractor() *testutil.Extractor {
	return &testutil.Extractor{
		Known: map[string]string{"John": ai.LabelPerson, "budget": ai.LabelTopic},
		Relations: []ai.Relation{
			{Source: "John", SourceType: "person", Relation: ai.RelationWorksOn, Target: "budget", TargetType: "topic", Confidence: 0.8},
			{Source: "John", SourceType: "person", Relation: ai.RelationMentioned, Target: "budget", TargetType: "topic", Confidence: 0.3},
		},
	}
}

func newCoordinator(t *testing.T, store *testutil.Store, emb ai.Embedder, ext ai.Extractor) *Coordinator {
	t.Helper()
	return NewCoordinator(store.Meetings, store.Graph, store.Knowledge, emb, ext, DefaultOptions(), zap.NewNop())
}

func startMeeting(t *testing.T, store *testutil.Store) *entities.Meeting {
	t.Helper()
	m := entities.NewMeeting("Budget sync", []string{"John"})
	require.NoError(t, store.Meetings.Create(context.Background(), m))
	return m
}

func TestAddSegment_EnrichesGraph(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	c := newCoordinator(t, store, testutil.NewEmbedder(), budgetExtractor())
	m := startMeeting(t, store)

	res, err := c.AddSegment(ctx, SegmentInput{
		MeetingID: m.ID, Speaker: "John", Text: "John will review the budget by Friday", StartMs: 0, EndMs: 4000,
	})
	require.NoError(t, err)
	assert.True(t, res.Enrichment.IsOk())
	assert.Len(t, res.Entities, 2)
	assert.Equal(t, 1, res.PeopleCreated)
	assert.Equal(t, 1, res.TopicsCreated)
	assert.Equal(t, 1, res.RelationsAdded, "low-confidence relation is dropped")

	segs, err := store.Meetings.ListSegments(ctx, m.ID, 0)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "John will review the budget by Friday", segs[0].Text)
	assert.Equal(t, "John", segs[0].Speaker)
	assert.Equal(t, int64(4000), segs[0].EndMs)
	assert.NotEmpty(t, segs[0].Embedding)

	people, err := store.Graph.ListMeetingPeople(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "john", people[0].Name)

	topics, err := store.Graph.ListMeetingTopics(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.NotEmpty(t, topics[0].Embedding, "topic takes the segment embedding")

	rels, err := store.Graph.RelationsForEntity(ctx, "John", 10)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, m.ID, *rels[0].MeetingID)
	assert.Nil(t, rels[0].KnowledgeSourceID)
}

func TestAddSegment_EmbeddingFailureStillStores(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	emb := testutil.NewEmbedder()
	emb.Err = errors.New("503 from embedder")
	ext := budgetExtractor()
	c := newCoordinator(t, store, emb, ext)
	m := startMeeting(t, store)

	res, err := c.AddSegment(ctx, SegmentInput{MeetingID: m.ID, Speaker: "John", Text: "John on budget", StartMs: 0, EndMs: 10})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Enrichment.Status)
	assert.Contains(t, res.Enrichment.Reason, "embedding failed")
	assert.Zero(t, ext.Calls(), "enrichment is skipped")

	segs, err := store.Meetings.ListSegments(ctx, m.ID, 0)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Empty(t, segs[0].Embedding)

	people, err := store.Graph.ListMeetingPeople(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestAddSegment_ExtractionFailureIsContained(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	ext := &testutil.Extractor{Err: errors.New("ner timeout")}
	c := newCoordinator(t, store, testutil.NewEmbedder(), ext)
	m := startMeeting(t, store)

	res, err := c.AddSegment(ctx, SegmentInput{MeetingID: m.ID, Text: "anything", StartMs: 0, EndMs: 10})
	require.NoError(t, err)
	assert.Equal(t, Skipped("extraction failed: ner timeout"), res.Enrichment)

	segs, err := store.Meetings.ListSegments(ctx, m.ID, 0)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.NotEmpty(t, segs[0].Embedding)
}

func TestAddSegment_Validation(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	c := newCoordinator(t, store, testutil.NewEmbedder(), &testutil.Extractor{})
	m := startMeeting(t, store)

	_, err := c.AddSegment(ctx, SegmentInput{MeetingID: uuid.New(), Text: "x"})
	assert.ErrorIs(t, err, entities.ErrMeetingNotFound)

	_, err = c.AddSegment(ctx, SegmentInput{MeetingID: m.ID, Text: "x", StartMs: 10, EndMs: 5})
	assert.ErrorIs(t, err, entities.ErrInvalidTimeRange)

	_, err = c.AddSegment(ctx, SegmentInput{MeetingID: m.ID, Text: "  "})
	assert.ErrorIs(t, err, usecaseErrors.ErrEmptyContent)

	res, err := c.AddSegment(ctx, SegmentInput{MeetingID: m.ID, Text: "nothing to see", StartMs: 0, EndMs: 0})
	require.NoError(t, err)
	assert.True(t, res.Enrichment.IsOk(), "zero entities is ok")
	assert.Empty(t, res.Entities)
}

func TestAddSegment_ConcurrentSamePerson(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	c := newCoordinator(t, store, testutil.NewEmbedder(), budgetExtractor())
	m := startMeeting(t, store)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.AddSegment(ctx, SegmentInput{
				MeetingID: m.ID, Speaker: "Guest", Text: fmt.Sprintf("John said budget item %d", i),
				StartMs: int64(i * 1000), EndMs: int64(i*1000 + 900),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	people, err := store.Graph.FindPeopleByNames(ctx, []string{"john"})
	require.NoError(t, err)
	assert.Len(t, people, 1)

	topics, err := store.Graph.FindTopicsByNames(ctx, []string{"budget"})
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, n, topics[0].MentionCount)
}

func longDoc(paragraphs int) string {
	var sb strings.Builder
	sb.WriteString("# Handbook\n\n")
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&sb, "Paragraph %d explains how Acme plans the budget for the Atlas project in detail.\n\n", i)
	}
	return sb.String()
}

func TestAddKnowledgeSource_ChunksEmbedsAndSamples(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	ext := &testutil.Extractor{
		Known: map[string]string{"Acme": ai.LabelOrganization, "Atlas": ai.LabelProject},
		Relations: []ai.Relation{
			{Source: "Acme", SourceType: "organization", Relation: ai.RelationWorksOn, Target: "Atlas", TargetType: "project", Confidence: 0.9},
		},
	}
	archive := &memArchive{}
	c := newCoordinator(t, store, testutil.NewEmbedder(), ext).WithArchive(archive)

	res, err := c.AddKnowledgeSource(ctx, SourceInput{
		URL: "https://wiki.test/handbook", Content: longDoc(40), SourceType: "markdown", Tags: []string{"Eng"},
	})
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Greater(t, res.ChunkCount, 1)
	assert.Zero(t, res.SkippedChunks)
	assert.Len(t, res.Samples, 20)
	assert.Equal(t, 20, ext.Calls())
	assert.True(t, res.Archive.IsOk())
	require.NotNil(t, res.Source.ArchiveKey)
	assert.Contains(t, archive.files, *res.Source.ArchiveKey)
	assert.Equal(t, "https://wiki.test/handbook", res.Source.Title)
	assert.Equal(t, entities.StringList{"eng"}, res.Source.Tags)

	n, err := store.Knowledge.CountChunks(ctx, res.Source.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(res.ChunkCount), n)

	topics, err := store.Graph.FindTopicsByNames(ctx, []string{"acme", "atlas"})
	require.NoError(t, err)
	assert.Len(t, topics, 2, "organizations count as topics for documents")

	rels, err := store.Graph.RelationsForEntity(ctx, "atlas", 50)
	require.NoError(t, err)
	require.NotEmpty(t, rels)
	assert.Equal(t, res.Source.ID, *rels[0].KnowledgeSourceID)
}

func TestAddKnowledgeSource_ReplaceAndPartialFailures(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	emb := testutil.NewEmbedder()
	emb.FailOn = "poison"
	archive := &memArchive{err: errors.New("bucket gone")}
	c := newCoordinator(t, store, emb, &testutil.Extractor{Err: errors.New("ner down")}).WithArchive(archive)

	first, err := c.AddKnowledgeSource(ctx, SourceInput{URL: "https://a.test", Content: "short v1"})
	require.NoError(t, err)

	content := strings.Repeat("a", 900) + "\n\n" + "poison " + strings.Repeat("b", 900)
	second, err := c.AddKnowledgeSource(ctx, SourceInput{URL: "https://a.test", Content: content})
	require.NoError(t, err)
	assert.True(t, second.Replaced)
	assert.Equal(t, first.Source.ID, second.Source.ID)
	assert.Equal(t, 2, second.ChunkCount)
	assert.Equal(t, 1, second.SkippedChunks)
	assert.False(t, second.Archive.IsOk())
	require.Len(t, second.Samples, 2)
	assert.False(t, second.Samples[0].IsOk())

	n, err := store.Knowledge.CountChunks(ctx, first.Source.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAddKnowledgeSource_Validation(t *testing.T) {
	ctx := context.Background()
	c := newCoordinator(t, testutil.NewStore(t), testutil.NewEmbedder(), &testutil.Extractor{})

	_, err := c.AddKnowledgeSource(ctx, SourceInput{Content: "x"})
	assert.ErrorIs(t, err, usecaseErrors.ErrMissingURL)
	_, err = c.AddKnowledgeSource(ctx, SourceInput{URL: "u", Content: " \n"})
	assert.ErrorIs(t, err, usecaseErrors.ErrEmptyContent)
	_, err = c.AddKnowledgeSource(ctx, SourceInput{URL: "u", Content: "x", SourceType: "video"})
	assert.ErrorIs(t, err, entities.ErrInvalidSourceType)
}

func TestImportNotionPage(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	c := newCoordinator(t, store, testutil.NewEmbedder(), &testutil.Extractor{})

	_, err := c.ImportNotionPage(ctx, "abc", nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrNotionDisabled)

	c.WithPageLoader(stubPages{page: &notion.Page{
		ID: "abc", Title: "Runbook", URL: "https://www.notion.so/abc", Markdown: "# Runbook\n\nRestart the worker.",
		LastEdited: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}})
	res, err := c.ImportNotionPage(ctx, "abc", []string{"ops"})
	require.NoError(t, err)
	assert.Equal(t, entities.SourceTypeNotion, res.Source.SourceType)
	assert.Equal(t, "Runbook", res.Source.Title)
	assert.Equal(t, "abc", res.Source.Metadata["notion_page_id"])

	c.WithPageLoader(stubPages{page: &notion.Page{ID: "empty", URL: "https://www.notion.so/empty"}})
	_, err = c.ImportNotionPage(ctx, "empty", nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrEmptyNotionPage)
}

func TestAddSegment_GraphFailureKeepsSegment(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	graph := failingGraph{GraphRepository: store.Graph, err: errors.New("UNIQUE constraint failed: people.name")}
	c := NewCoordinator(store.Meetings, graph, store.Knowledge, testutil.NewEmbedder(), budgetExtractor(), DefaultOptions(), zap.NewNop())
	m := startMeeting(t, store)

	res, err := c.AddSegment(ctx, SegmentInput{MeetingID: m.ID, Speaker: "John", Text: "John owns the budget", EndMs: 1000})
	require.NoError(t, err)
	assert.False(t, res.Enrichment.IsOk())
	assert.Contains(t, res.Enrichment.Reason, "graph write failed")
	assert.Empty(t, res.Entities)

	segs, err := store.Meetings.ListSegments(ctx, m.ID, 0)
	require.NoError(t, err)
	assert.Len(t, segs, 1)
}

func TestAddSegment_UnavailableGraphFails(t *testing.T) {
	store := testutil.NewStore(t)
	graph := failingGraph{GraphRepository: store.Graph, err: errors.New("database is locked")}
	c := NewCoordinator(store.Meetings, graph, store.Knowledge, testutil.NewEmbedder(), budgetExtractor(), DefaultOptions(), zap.NewNop())
	m := startMeeting(t, store)

	_, err := c.AddSegment(context.Background(), SegmentInput{MeetingID: m.ID, Speaker: "John", Text: "John owns the budget", EndMs: 1000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write graph")
}

func TestAddKnowledgeSource_GraphFailureSkipsSample(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	graph := failingGraph{GraphRepository: store.Graph, err: errors.New("FOREIGN KEY constraint failed")}
	c := NewCoordinator(store.Meetings, graph, store.Knowledge, testutil.NewEmbedder(), budgetExtractor(), DefaultOptions(), zap.NewNop())

	content := "John presented the budget for the coming quarter to the whole team.\n\n" +
		"The budget review with John is scheduled again for the first week of May."
	res, err := c.AddKnowledgeSource(ctx, SourceInput{URL: "https://docs.test/budget", Title: "Budget", Content: content})
	require.NoError(t, err)
	require.Len(t, res.Samples, 2)
	for _, o := range res.Samples {
		assert.Equal(t, StatusSkipped, o.Status)
		assert.Contains(t, o.Reason, "graph write failed")
	}
	assert.Zero(t, res.EntityCount)

	src, err := store.Knowledge.FindByURL(ctx, "https://docs.test/budget")
	require.NoError(t, err)
	require.NotNil(t, src)
}

func TestAddSegment_StoresActionItemsAndDecisions(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	ext := &testutil.Extractor{
		Known: map[string]string{
			"John":              ai.LabelPerson,
			"review the budget": ai.LabelActionItem,
			"Friday":            ai.LabelDeadline,
			"freeze hiring":     ai.LabelDecision,
		},
		Relations: []ai.Relation{
			{Source: "review the budget", SourceType: ai.LabelActionItem, Relation: ai.RelationAssignedTo, Target: "John", TargetType: ai.LabelPerson, Confidence: 0.9},
		},
	}
	c := newCoordinator(t, store, testutil.NewEmbedder(), ext)
	m := startMeeting(t, store)

	res, err := c.AddSegment(ctx, SegmentInput{
		MeetingID: m.ID, Speaker: "Mary", Text: "John will review the budget by Friday, and we agreed to freeze hiring", EndMs: 5000,
	})
	require.NoError(t, err)
	assert.True(t, res.Enrichment.IsOk())
	assert.Equal(t, 1, res.ActionItemsAdded)
	assert.Equal(t, 1, res.DecisionsAdded)

	items, err := store.Meetings.ListActionItems(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "review the budget", items[0].Text)
	require.NotNil(t, items[0].Assignee)
	assert.Equal(t, "John", *items[0].Assignee)
	require.NotNil(t, items[0].Deadline)
	assert.Equal(t, "Friday", *items[0].Deadline)
	assert.Equal(t, entities.ActionItemStatusOpen, items[0].Status)

	decisions, err := store.Meetings.ListDecisions(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "freeze hiring", decisions[0].Text)
	assert.Equal(t, []string{"John"}, []string(decisions[0].Participants))
}

func TestCrawlURL(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	c := newCoordinator(t, store, testutil.NewEmbedder(), &testutil.Extractor{})

	_, err := c.CrawlURL(ctx, "https://atlas.test/notes", nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrCrawlerDisabled)

	fetched := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	c.WithFetcher(stubFetcher{page: &web.Page{
		URL: "https://atlas.test/notes", Title: "Release notes", Markdown: "# Atlas 2.0\n\nFaster sync.", FetchedAt: fetched,
	}})
	res, err := c.CrawlURL(ctx, " https://atlas.test/notes ", []string{"release"})
	require.NoError(t, err)
	assert.Equal(t, entities.SourceTypeWeb, res.Source.SourceType)
	assert.Equal(t, "Release notes", res.Source.Title)
	assert.Equal(t, "2024-06-01T09:00:00Z", res.Source.Metadata["fetched_at"])
	assert.Equal(t, 1, res.ChunkCount)

	_, err = c.CrawlURL(ctx, "  ", nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrMissingURL)

	c.WithFetcher(stubFetcher{page: &web.Page{URL: "https://atlas.test/blank"}})
	_, err = c.CrawlURL(ctx, "https://atlas.test/blank", nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrEmptyWebPage)

	c.WithFetcher(stubFetcher{err: fmt.Errorf("wrapped: %w", web.ErrUnsupportedURL)})
	_, err = c.CrawlURL(ctx, "ftp://files.test", nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrInvalidInput)

	c.WithFetcher(stubFetcher{err: errors.New("connection reset")})
	_, err = c.CrawlURL(ctx, "https://atlas.test/down", nil)
	assert.ErrorIs(t, err, usecaseErrors.ErrFetchFailed)
}
