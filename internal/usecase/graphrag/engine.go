// Package graphrag assembles the context bundle for a question by walking
// the entity graph and ranking similar text.
package graphrag

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	"github.com/johnquangdev/meeting-knowledge/pkg/temporal"
)

var (
	personSourceTypes = []string{ai.LabelPerson}
	topicTargetTypes  = []string{ai.LabelTopic, ai.LabelProject}
)

// Searcher ranks knowledge chunks and transcript segments for a query
type Searcher interface {
	SearchKnowledge(ctx context.Context, query string, limit int, tags []string) ([]knowledge.SearchHit, error)
}

// Engine answers questions with a Bundle of graph and vector context
type Engine struct {
	extractor ai.Extractor
	meetings  repositories.MeetingRepository
	graph     repositories.GraphRepository
	searcher  Searcher
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// NewEngine creates a query engine
func NewEngine(
	extractor ai.Extractor,
	meetings repositories.MeetingRepository,
	graph repositories.GraphRepository,
	searcher Searcher,
	opts Options,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		extractor: extractor,
		meetings:  meetings,
		graph:     graph,
		searcher:  searcher,
		opts:      opts,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the clock used for temporal phrases and day counts
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Query builds the context bundle for question. Sections fail
// independently; only cancellation of ctx is returned as an error.
func (e *Engine) Query(ctx context.Context, question string) (*Bundle, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, usecaseErrors.ErrEmptyQuestion
	}
	started := time.Now()
	now := e.now().UTC()
	b := newBundle(question, now)
	r := &sectionRunner{bundle: b, logger: e.logger}

	extraction, err := e.extractor.Extract(ctx, question, ai.MeetingLabels)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.fail(SectionEntities, err)
	} else if extraction != nil {
		b.Entities = uniqueEntities(extraction.Entities)
	}

	if w, ok := temporal.Parse(question, now); ok {
		b.Window = &w
	}

	// Meetings scope people, actions and decisions, so they run first
	r.run(SectionMeetings, func() error {
		meetings, err := e.relatedMeetings(ctx, b.Entities, b.Window, now)
		if err == nil {
			b.Meetings = meetings
		}
		return err
	})
	r.run(SectionTopics, func() error {
		topics, err := e.relatedTopics(ctx, b.Entities, now)
		if err == nil {
			b.Topics = topics
		}
		return err
	})
	r.run(SectionDocuments, func() error {
		hits, err := e.searcher.SearchKnowledge(ctx, question, e.opts.VectorTopK, nil)
		if err == nil {
			b.Documents = hits
		}
		return err
	})
	r.wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meetingIDs := make([]uuid.UUID, 0, len(b.Meetings))
	for _, m := range b.Meetings {
		meetingIDs = append(meetingIDs, m.Meeting.ID)
	}

	r.run(SectionPeople, func() error {
		people, err := e.relatedPeople(ctx, b.Entities, meetingIDs, now)
		if err == nil {
			b.People = people
		}
		return err
	})
	r.run(SectionActions, func() error {
		actions, err := e.meetings.ListOpenActionItems(ctx, meetingIDs, e.opts.ActionLimit)
		if err == nil && actions != nil {
			b.OpenActions = actions
		}
		return err
	})
	r.run(SectionDecisions, func() error {
		decisions, err := e.meetings.ListRecentDecisions(ctx, meetingIDs, e.opts.DecisionLimit)
		if err == nil && decisions != nil {
			b.Decisions = decisions
		}
		return err
	})
	r.wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.logger != nil {
		e.logger.Debug("Context bundle assembled",
			zap.Int("entities", len(b.Entities)),
			zap.Int("meetings", len(b.Meetings)),
			zap.Int("people", len(b.People)),
			zap.Int("topics", len(b.Topics)),
			zap.Int("documents", len(b.Documents)),
			zap.Int("failures", len(b.Failures)),
			zap.Duration("elapsed", time.Since(started)))
	}
	return b, nil
}

// relatedMeetings finds meetings whose title or transcript mentions an
// entity, inside the window when one was given. Without entities the
// window alone selects meetings.
func (e *Engine) relatedMeetings(ctx context.Context, ents []ai.Entity, window *temporal.Window, now time.Time) ([]MeetingContext, error) {
	terms := make([]string, 0, len(ents))
	for _, ent := range ents {
		terms = append(terms, ent.Text)
	}

	var (
		meetings []*entities.Meeting
		err      error
	)
	switch {
	case len(terms) > 0:
		var from, to *time.Time
		if window != nil {
			from, to = &window.Start, &window.End
		}
		meetings, err = e.meetings.FindRelated(ctx, terms, from, to, e.opts.MeetingLimit)
	case window != nil:
		meetings, err = e.meetings.FindInRange(ctx, window.Start, window.End, e.opts.MeetingLimit)
	default:
		return []MeetingContext{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]MeetingContext, 0, len(meetings))
	for _, m := range meetings {
		segments, err := e.meetings.ListSegments(ctx, m.ID, e.opts.SegmentPreviews)
		if err != nil {
			return nil, err
		}
		out = append(out, MeetingContext{
			Meeting:  m,
			DaysAgo:  daysAgo(now, m.StartTime),
			Segments: segments,
		})
	}
	return out, nil
}

// relatedPeople returns the people named in the question, then the people
// linked by a relation to another entity of the question, then the people
// mentioned in the related meetings
func (e *Engine) relatedPeople(ctx context.Context, ents []ai.Entity, meetingIDs []uuid.UUID, now time.Time) ([]PersonContext, error) {
	var names, sources []string
	for _, ent := range ents {
		if ai.IsPersonLabel(ent.Label) {
			names = append(names, ent.Text)
			continue
		}
		related, err := e.graph.RelatedSources(ctx, ent.Text, personSourceTypes, e.opts.RelatedLimit)
		if err != nil {
			return nil, err
		}
		sources = append(sources, related...)
	}

	named, err := e.graph.FindPeopleByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	viaRelations, err := e.graph.FindPeopleByNames(ctx, sources)
	if err != nil {
		return nil, err
	}
	linked, err := e.graph.FindPeopleByMeetings(ctx, meetingIDs, e.opts.RelatedLimit)
	if err != nil {
		return nil, err
	}

	candidates := make([]*entities.Person, 0, len(named)+len(viaRelations)+len(linked))
	candidates = append(candidates, named...)
	candidates = append(candidates, viaRelations...)
	candidates = append(candidates, linked...)

	seen := make(map[uuid.UUID]bool)
	out := make([]PersonContext, 0, len(candidates))
	for _, p := range candidates {
		if seen[p.ID] || len(out) >= e.opts.RelatedLimit {
			continue
		}
		seen[p.ID] = true

		topics, err := e.graph.RelatedTargets(ctx, p.Name, personSourceTypes, topicTargetTypes, e.opts.RelatedLimit)
		if err != nil {
			return nil, err
		}
		if topics, err = e.topicDisplayNames(ctx, topics); err != nil {
			return nil, err
		}
		out = append(out, PersonContext{
			Person:  p,
			DaysAgo: daysAgo(now, p.LastSeen),
			Topics:  nonNil(topics),
		})
	}
	return out, nil
}

// relatedTopics returns the topics named in the question with the people
// who discussed them
func (e *Engine) relatedTopics(ctx context.Context, ents []ai.Entity, now time.Time) ([]TopicContext, error) {
	var names []string
	for _, ent := range ents {
		if ai.IsTopicLabel(ent.Label, false) {
			names = append(names, ent.Text)
		}
	}
	if len(names) == 0 {
		return []TopicContext{}, nil
	}

	topics, err := e.graph.FindTopicsByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	out := make([]TopicContext, 0, len(topics))
	for _, t := range topics {
		people, err := e.graph.RelatedSources(ctx, t.Name, personSourceTypes, e.opts.RelatedLimit)
		if err != nil {
			return nil, err
		}
		if people, err = e.personDisplayNames(ctx, people); err != nil {
			return nil, err
		}
		out = append(out, TopicContext{
			Topic:   t,
			DaysAgo: daysAgo(now, t.LastMentioned),
			People:  nonNil(people),
		})
	}
	return out, nil
}

// personDisplayNames maps normalized relation endpoints to the display
// names of their person nodes. Names without a node are kept as stored.
func (e *Engine) personDisplayNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return names, nil
	}
	people, err := e.graph.FindPeopleByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	display := make(map[string]string, len(people))
	for _, p := range people {
		display[p.Name] = p.DisplayName
	}
	return withDisplayNames(names, display), nil
}

// topicDisplayNames is personDisplayNames for topic nodes
func (e *Engine) topicDisplayNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return names, nil
	}
	topics, err := e.graph.FindTopicsByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	display := make(map[string]string, len(topics))
	for _, t := range topics {
		display[t.Name] = t.DisplayName
	}
	return withDisplayNames(names, display), nil
}

func withDisplayNames(names []string, display map[string]string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if d := display[n]; d != "" {
			out[i] = d
		} else {
			out[i] = n
		}
	}
	return out
}

// uniqueEntities drops blank entities and repeats of the same name and label
func uniqueEntities(in []ai.Entity) []ai.Entity {
	seen := make(map[string]bool, len(in))
	out := make([]ai.Entity, 0, len(in))
	for _, ent := range in {
		ent.Text = entities.DisplayName(ent.Text)
		ent.Label = strings.ToLower(strings.TrimSpace(ent.Label))
		if ent.Text == "" {
			continue
		}
		key := entities.NormalizeName(ent.Text) + "|" + ent.Label
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ent)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// sectionRunner runs sections concurrently and records their failures
type sectionRunner struct {
	bundle *Bundle
	logger *zap.Logger
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func (r *sectionRunner) run(section string, fn func() error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := fn(); err != nil {
			r.fail(section, err)
		}
	}()
}

func (r *sectionRunner) wait() {
	r.wg.Wait()
}

func (r *sectionRunner) fail(section string, err error) {
	r.mu.Lock()
	r.bundle.Failures[section] = err.Error()
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Warn("Context section failed", zap.String("section", section), zap.Error(err))
	}
}
