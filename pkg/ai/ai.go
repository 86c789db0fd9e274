package ai

import (
	"context"
	"errors"
	"strings"
)

// ErrDisabled is returned by collaborators that were not configured
var ErrDisabled = errors.New("ai collaborator disabled")

// Entity labels understood by the extractors
const (
	LabelPerson       = "person"
	LabelOrganization = "organization"
	LabelProject      = "project"
	LabelProduct      = "product"
	LabelTechnology   = "technology"
	LabelTopic        = "topic"
	LabelDecision     = "decision"
	LabelDeadline     = "deadline"
	LabelLocation     = "location"
	LabelActionItem   = "action_item"
)

// Relation types extracted between entities
const (
	RelationDiscussed  = "discussed"
	RelationAssignedTo = "assigned_to"
	RelationDecided    = "decided"
	RelationMentioned  = "mentioned"
	RelationWorksOn    = "works_on"
	RelationRelatedTo  = "related_to"
)

// MeetingLabels is the label set used for transcript segments
var MeetingLabels = []string{
	LabelPerson, LabelOrganization, LabelProject, LabelProduct,
	LabelTechnology, LabelTopic, LabelDecision, LabelDeadline, LabelLocation,
	LabelActionItem,
}

// DocumentLabels is the label set used for knowledge source samples
var DocumentLabels = []string{
	LabelPerson, LabelOrganization, LabelProject, LabelProduct, LabelTechnology, LabelTopic,
}

// RelationTypes is the relation schema handed to extractors that support it
var RelationTypes = []string{
	RelationDiscussed, RelationAssignedTo, RelationDecided,
	RelationMentioned, RelationWorksOn, RelationRelatedTo,
}

// Entity is a labeled span found in a text
type Entity struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Relation links two extracted entities
type Relation struct {
	Source     string  `json:"source"`
	SourceType string  `json:"source_type"`
	Relation   string  `json:"relation"`
	Target     string  `json:"target"`
	TargetType string  `json:"target_type"`
	Confidence float64 `json:"confidence"`
}

// Extraction is the result of one extractor call
type Extraction struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// SpeakerTurn is a diarized range of audio attributed to one speaker
type SpeakerTurn struct {
	Speaker string
	StartMs int64
	EndMs   int64
}

// Embedder turns text into a fixed-dimension vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Extractor finds entities and relations in text for the given labels
type Extractor interface {
	Extract(ctx context.Context, text string, labels []string) (*Extraction, error)
}

// Diarizer attributes ranges of an audio recording to speakers
type Diarizer interface {
	Diarize(ctx context.Context, audioURL string) ([]SpeakerTurn, error)
}

// Completer answers a prompt with a language model
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// IsPersonLabel reports whether label denotes a person node
func IsPersonLabel(label string) bool {
	return strings.EqualFold(label, LabelPerson)
}

// IsTopicLabel reports whether label becomes a topic node.
// Documents additionally promote organizations to topics.
func IsTopicLabel(label string, document bool) bool {
	switch strings.ToLower(label) {
	case LabelTopic, LabelProject, LabelProduct:
		return true
	case LabelOrganization:
		return document
	}
	return false
}

type disabledEmbedder struct{ dim int }

// NewDisabledEmbedder returns an Embedder that always fails with ErrDisabled
func NewDisabledEmbedder(dim int) Embedder { return disabledEmbedder{dim: dim} }

func (d disabledEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, ErrDisabled }
func (d disabledEmbedder) Dimension() int                                   { return d.dim }

type disabledExtractor struct{}

// NewDisabledExtractor returns an Extractor that always fails with ErrDisabled
func NewDisabledExtractor() Extractor { return disabledExtractor{} }

func (disabledExtractor) Extract(context.Context, string, []string) (*Extraction, error) {
	return nil, ErrDisabled
}
