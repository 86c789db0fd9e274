// Package testutil wires an in-memory store and scripted collaborators
// for use case and handler tests.
package testutil

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-knowledge/internal/adapter/repository"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
)

// Store bundles repositories over one in-memory SQLite database
type Store struct {
	DB        *gorm.DB
	Meetings  repositories.MeetingRepository
	Graph     repositories.GraphRepository
	Knowledge repositories.KnowledgeRepository
	Vectors   repositories.VectorRepository
}

// NewStore opens a migrated in-memory database private to t
func NewStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()[:8]
	db, err := database.NewSQLiteDB("file:"+name+"?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.CloseDB(db) })

	knowledge := repository.NewKnowledgeRepository(db)
	return &Store{
		DB:        db,
		Meetings:  repository.NewMeetingRepository(db),
		Graph:     repository.NewGraphRepository(db),
		Knowledge: knowledge,
		Vectors:   repository.NewVectorRepository(db, knowledge, zap.NewNop()),
	}
}

// Embedder hashes words into a small bag-of-words vector so texts that
// share words score as similar
type Embedder struct {
	Dim    int
	Err    error
	FailOn string
	calls  atomic.Int64
}

// NewEmbedder returns a working 16-dimensional embedder
func NewEmbedder() *Embedder {
	return &Embedder{Dim: 16}
}

// Embed implements ai.Embedder
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	if e.FailOn != "" && strings.Contains(text, e.FailOn) {
		return nil, ai.ErrDisabled
	}
	v := make([]float32, e.Dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(e.Dim)]++
	}
	return v, nil
}

// Dimension implements ai.Embedder
func (e *Embedder) Dimension() int { return e.Dim }

// Calls returns how often Embed ran
func (e *Embedder) Calls() int { return int(e.calls.Load()) }

// Extractor returns the known entities that occur in the text and the
// relations whose both ends occur in it
type Extractor struct {
	Known     map[string]string
	Relations []ai.Relation
	Err       error
	calls     atomic.Int64
}

// Extract implements ai.Extractor
func (x *Extractor) Extract(ctx context.Context, text string, labels []string) (*ai.Extraction, error) {
	x.calls.Add(1)
	if x.Err != nil {
		return nil, x.Err
	}
	lower := strings.ToLower(text)
	out := &ai.Extraction{Entities: []ai.Entity{}, Relations: []ai.Relation{}}
	for name, label := range x.Known {
		if strings.Contains(lower, strings.ToLower(name)) && allowed(labels, label) {
			out.Entities = append(out.Entities, ai.Entity{Text: name, Label: label, Score: 0.9})
		}
	}
	for _, r := range x.Relations {
		if strings.Contains(lower, strings.ToLower(r.Source)) && strings.Contains(lower, strings.ToLower(r.Target)) {
			out.Relations = append(out.Relations, r)
		}
	}
	return out, nil
}

// Calls returns how often Extract ran
func (x *Extractor) Calls() int { return int(x.calls.Load()) }

func allowed(labels []string, label string) bool {
	if len(labels) == 0 {
		return true
	}
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// Completer records prompts and returns a canned reply
type Completer struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

// Complete implements ai.Completer
func (c *Completer) Complete(_ context.Context, _ string, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

// Prompts returns the prompts seen so far
func (c *Completer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Diarizer returns fixed speaker turns
type Diarizer struct {
	Turns []ai.SpeakerTurn
	Err   error
}

// Diarize implements ai.Diarizer
func (d *Diarizer) Diarize(context.Context, string) ([]ai.SpeakerTurn, error) {
	return d.Turns, d.Err
}
