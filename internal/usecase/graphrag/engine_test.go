package graphrag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/testutil"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	"github.com/johnquangdev/meeting-knowledge/pkg/vector"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type failingSearcher struct{ err error }

func (f failingSearcher) SearchKnowledge(context.Context, string, int, []string) ([]knowledge.SearchHit, error) {
	return nil, f.err
}

func newEngine(t *testing.T, store *testutil.Store, ext ai.Extractor, searcher Searcher) *Engine {
	t.Helper()
	if searcher == nil {
		searcher = knowledge.NewKnowledgeService(store.Knowledge, store.Vectors, store.Graph, store.Meetings,
			testutil.NewEmbedder(), nil, zap.NewNop())
	}
	return NewEngine(ext, store.Meetings, store.Graph, searcher, DefaultOptions(), zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })
}

func budgetExtractor() *testutil.Extractor {
	return &testutil.Extractor{Known: map[string]string{"John": ai.LabelPerson, "budget": ai.LabelTopic}}
}

// seedBudgetMeeting stores a meeting three days before fixedNow in which
// John takes on the budget review
func seedBudgetMeeting(t *testing.T, store *testutil.Store) *entities.Meeting {
	t.Helper()
	ctx := context.Background()

	m := entities.NewMeeting("Budget sync", []string{"John"})
	m.StartTime = fixedNow.Add(-72 * time.Hour)
	require.NoError(t, store.Meetings.Create(ctx, m))

	seg, err := entities.NewSegment(m.ID, "John", "John will review the budget by Friday", 0, 4000)
	require.NoError(t, err)
	require.NoError(t, store.Meetings.CreateSegment(ctx, seg))

	rel, err := entities.NewEntityRelation("John", ai.LabelPerson, ai.RelationWorksOn, "budget", ai.LabelTopic, 0.8, entities.FromMeeting(m.ID))
	require.NoError(t, err)
	_, err = store.Graph.Apply(ctx, &entities.GraphWrite{
		Provenance: entities.FromMeeting(m.ID),
		SeenAt:     m.StartTime,
		People:     []string{"John"},
		Topics:     []entities.TopicMention{{Name: "budget"}},
		Relations:  []*entities.EntityRelation{rel},
	})
	require.NoError(t, err)

	john, friday := "John", "Friday"
	require.NoError(t, store.Meetings.CreateActionItem(ctx, entities.NewActionItem(m.ID, "Review the budget", &john, &friday)))
	require.NoError(t, store.Meetings.CreateDecision(ctx, entities.NewDecision(m.ID, "Freeze hiring until Q3", nil)))
	return m
}

func addDocument(t *testing.T, store *testutil.Store, title, text string) {
	t.Helper()
	v, err := testutil.NewEmbedder().Embed(context.Background(), text)
	require.NoError(t, err)
	blob, err := vector.Encode(v)
	require.NoError(t, err)
	src := entities.NewKnowledgeSource("https://docs.test/"+strings.ReplaceAll(title, " ", "-"), title, entities.SourceTypeText, text, nil)
	_, err = store.Knowledge.Save(context.Background(), src, []*entities.KnowledgeChunk{entities.NewKnowledgeChunk(src.ID, 0, text, blob)})
	require.NoError(t, err)
}

func TestQuery_EmptyStoreYieldsEmptyBundle(t *testing.T) {
	store := testutil.NewStore(t)
	engine := newEngine(t, store, &testutil.Extractor{}, nil)

	b, err := engine.Query(context.Background(), "How are things going?")
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
	assert.Empty(t, b.Render())
	assert.Empty(t, b.Failures)
}

func TestQuery_NoEntitiesNoWindowLeavesGraphSectionsEmpty(t *testing.T) {
	store := testutil.NewStore(t)
	seedBudgetMeeting(t, store)
	engine := newEngine(t, store, &testutil.Extractor{}, nil)

	b, err := engine.Query(context.Background(), "How are things going?")
	require.NoError(t, err)
	assert.Nil(t, b.Window)
	assert.Empty(t, b.Entities)
	assert.Empty(t, b.Meetings)
	assert.Empty(t, b.People)
	assert.Empty(t, b.Topics)
	assert.False(t, b.HasGraphContext())

	// unscoped sections still report global state
	assert.Len(t, b.OpenActions, 1)
	assert.Len(t, b.Decisions, 1)
}

func TestQuery_WalksGraphFromEntities(t *testing.T) {
	store := testutil.NewStore(t)
	m := seedBudgetMeeting(t, store)
	addDocument(t, store, "Budget policy", "budget approval needs two signatures")

	engine := newEngine(t, store, budgetExtractor(), nil)
	b, err := engine.Query(context.Background(), "What did John say about the budget?")
	require.NoError(t, err)
	assert.Empty(t, b.Failures)

	assert.ElementsMatch(t, []ai.Entity{
		{Text: "John", Label: ai.LabelPerson, Score: 0.9},
		{Text: "budget", Label: ai.LabelTopic, Score: 0.9},
	}, b.Entities)

	require.Len(t, b.Meetings, 1)
	assert.Equal(t, m.ID, b.Meetings[0].Meeting.ID)
	assert.Equal(t, 3, b.Meetings[0].DaysAgo)
	require.Len(t, b.Meetings[0].Segments, 1)

	require.Len(t, b.People, 1)
	assert.Equal(t, "John", b.People[0].Person.DisplayName)
	assert.Equal(t, []string{"budget"}, b.People[0].Topics)
	assert.Equal(t, 3, b.People[0].DaysAgo)

	require.Len(t, b.Topics, 1)
	assert.Equal(t, "budget", b.Topics[0].Topic.Name)
	assert.Equal(t, []string{"John"}, b.Topics[0].People)

	require.Len(t, b.OpenActions, 1)
	assert.Equal(t, "Budget sync", b.OpenActions[0].MeetingTitle)
	require.Len(t, b.Decisions, 1)
	require.NotEmpty(t, b.Documents)
	assert.Equal(t, "Budget policy", b.Documents[0].SourceTitle)

	text := b.Render()
	order := []string{
		"## Entities Mentioned in Query",
		"## Related Meetings\n**Budget sync** (3 days ago)\n  - John: \"John will review the budget by Friday\"",
		"## Related People\n- **John** (last seen 3 days ago): discusses budget",
		"## Related Topics\n- **budget**: mentioned 1 times, last 3 days ago (discussed by: John)",
		"## Open Action Items\n- Review the budget (assigned to: John)",
		"## Recent Decisions\n- Freeze hiring until Q3",
		"## Potentially Relevant Documents",
	}
	last := -1
	for _, section := range order {
		idx := strings.Index(text, section)
		require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", section, text)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
	assert.NotContains(t, text, "## Temporal Reference Detected")
}

func TestQuery_PeopleLinkedThroughRelations(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	src := entities.NewKnowledgeSource("https://docs.test/plan", "Plan", entities.SourceTypeMarkdown, "x", nil)
	_, err := store.Knowledge.Save(ctx, src, nil)
	require.NoError(t, err)
	prov := entities.FromKnowledgeSource(src.ID)
	rel, err := entities.NewEntityRelation("John Smith", ai.LabelPerson, ai.RelationWorksOn, "Q3 Budget", ai.LabelTopic, 0.9, prov)
	require.NoError(t, err)
	_, err = store.Graph.Apply(ctx, &entities.GraphWrite{
		Provenance: prov,
		SeenAt:     fixedNow.Add(-48 * time.Hour),
		People:     []string{"John Smith"},
		Topics:     []entities.TopicMention{{Name: "Q3 Budget"}},
		Relations:  []*entities.EntityRelation{rel},
	})
	require.NoError(t, err)

	ext := &testutil.Extractor{Known: map[string]string{"Q3 Budget": ai.LabelTopic}}
	b, err := newEngine(t, store, ext, nil).Query(ctx, "Who owns the Q3 budget?")
	require.NoError(t, err)
	assert.Empty(t, b.Failures)
	assert.Empty(t, b.Meetings)

	require.Len(t, b.People, 1)
	assert.Equal(t, "John Smith", b.People[0].Person.DisplayName)
	assert.Equal(t, []string{"Q3 Budget"}, b.People[0].Topics)
	assert.Equal(t, 2, b.People[0].DaysAgo)

	require.Len(t, b.Topics, 1)
	assert.Equal(t, []string{"John Smith"}, b.Topics[0].People)
	assert.Contains(t, b.Render(), "- **John Smith** (last seen 2 days ago): discusses Q3 Budget")
}

func TestWithDisplayNames(t *testing.T) {
	got := withDisplayNames([]string{"john", "ghost"}, map[string]string{"john": "John"})
	assert.Equal(t, []string{"John", "ghost"}, got)
}

func TestQuery_WindowWithoutEntitiesSelectsMeetingsInWindow(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	recent := entities.NewMeeting("Standup", nil)
	recent.StartTime = fixedNow.Add(-36 * time.Hour)
	require.NoError(t, store.Meetings.Create(ctx, recent))
	old := entities.NewMeeting("Kickoff", nil)
	old.StartTime = fixedNow.Add(-5 * 24 * time.Hour)
	require.NoError(t, store.Meetings.Create(ctx, old))

	engine := newEngine(t, store, &testutil.Extractor{}, nil)
	b, err := engine.Query(ctx, "what happened yesterday")
	require.NoError(t, err)

	require.NotNil(t, b.Window)
	assert.Equal(t, "yesterday", b.Window.Reference)
	require.Len(t, b.Meetings, 1)
	assert.Equal(t, "Standup", b.Meetings[0].Meeting.Title)
	assert.False(t, b.IsEmpty())
	assert.True(t, strings.HasPrefix(b.Render(), "## Temporal Reference Detected\nTime reference: yesterday\n"))
}

func TestQuery_WindowFiltersEntityMatches(t *testing.T) {
	store := testutil.NewStore(t)
	seedBudgetMeeting(t, store)

	engine := newEngine(t, store, budgetExtractor(), nil)
	b, err := engine.Query(context.Background(), "what did John decide about the budget last month")
	require.NoError(t, err)
	require.Len(t, b.Meetings, 1)

	b, err = engine.Query(context.Background(), "what did John decide about the budget 2 weeks ago")
	require.NoError(t, err)
	assert.Empty(t, b.Meetings)
	// with no related meetings the actions fall back to global
	assert.Len(t, b.OpenActions, 1)
}

func TestQuery_SectionFailuresAreContained(t *testing.T) {
	store := testutil.NewStore(t)
	seedBudgetMeeting(t, store)

	engine := newEngine(t, store, budgetExtractor(), failingSearcher{err: errors.New("embedder down")})
	b, err := engine.Query(context.Background(), "What about the budget?")
	require.NoError(t, err)
	assert.Equal(t, "embedder down", b.Failures[SectionDocuments])
	assert.Empty(t, b.Documents)
	assert.Len(t, b.Meetings, 1)
	assert.Len(t, b.Topics, 1)
}

func TestQuery_ExtractorFailureKeepsGoing(t *testing.T) {
	store := testutil.NewStore(t)
	seedBudgetMeeting(t, store)

	engine := newEngine(t, store, &testutil.Extractor{Err: errors.New("ner offline")}, nil)
	b, err := engine.Query(context.Background(), "What about the budget?")
	require.NoError(t, err)
	assert.Contains(t, b.Failures[SectionEntities], "ner offline")
	assert.Empty(t, b.Entities)
	assert.Empty(t, b.Meetings)
	assert.Len(t, b.Decisions, 1)
}

func TestQuery_Cancelled(t *testing.T) {
	store := testutil.NewStore(t)
	engine := newEngine(t, store, &testutil.Extractor{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Query(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuery_EmptyQuestion(t *testing.T) {
	store := testutil.NewStore(t)
	engine := newEngine(t, store, &testutil.Extractor{}, nil)

	_, err := engine.Query(context.Background(), "  ")
	assert.ErrorIs(t, err, usecaseErrors.ErrEmptyQuestion)
}

func TestOptionsFromConfig_KeepsDefaults(t *testing.T) {
	opts := OptionsFromConfig(nil)
	assert.Equal(t, DefaultOptions(), opts)
}
