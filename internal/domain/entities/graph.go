package entities

import (
	"time"

	"github.com/google/uuid"
)

// TopicMention is a topic seen in one ingested unit
type TopicMention struct {
	Name      string
	Embedding []byte
}

// GraphWrite is everything one ingested unit adds to the entity graph.
// It is applied atomically. ActionItems and Decisions are only stored
// for meeting provenance.
type GraphWrite struct {
	Provenance  Provenance
	SeenAt      time.Time
	People      []string
	Topics      []TopicMention
	Relations   []*EntityRelation
	ActionItems []*ActionItem
	Decisions   []*Decision
}

// IsEmpty reports whether the write has nothing to apply
func (w *GraphWrite) IsEmpty() bool {
	return len(w.People) == 0 && len(w.Topics) == 0 && len(w.Relations) == 0 &&
		len(w.ActionItems) == 0 && len(w.Decisions) == 0
}

// GraphWriteResult reports the nodes touched by a GraphWrite
type GraphWriteResult struct {
	PeopleCreated    int
	TopicsCreated    int
	PersonIDs        []uuid.UUID
	TopicIDs         []uuid.UUID
	RelationsAdded   int
	ActionItemsAdded int
	DecisionsAdded   int
}

// ChunkHit is a knowledge chunk ranked against a query vector.
// Source is nil when the owning source could not be resolved.
type ChunkHit struct {
	Chunk      *KnowledgeChunk
	Source     *KnowledgeSource
	Similarity float64
}

// SegmentHit is a transcript segment ranked against a query vector
type SegmentHit struct {
	Segment      *Segment
	MeetingTitle string
	Similarity   float64
}

// LinkedKnowledge is a knowledge source attached to a meeting
type LinkedKnowledge struct {
	Source         *KnowledgeSource `json:"source"`
	RelevanceScore float64          `json:"relevance_score"`
	AssignedBy     string           `json:"assigned_by"`
}
