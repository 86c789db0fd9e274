package entities

import (
	"time"

	"github.com/google/uuid"
)

// Graph edge names between meetings and entity nodes
const (
	EdgeMentionedIn = "mentioned_in"
	EdgeDiscussedIn = "discussed_in"
)

// EntityRelation is an extracted (source, relation, target) triple.
// It belongs to exactly one meeting or one knowledge source.
type EntityRelation struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SourceEntity      string     `gorm:"type:varchar(255);not null;index" json:"source_entity"`
	SourceType        string     `gorm:"type:varchar(50);not null" json:"source_type"`
	Relation          string     `gorm:"type:varchar(50);not null;index" json:"relation"`
	TargetEntity      string     `gorm:"type:varchar(255);not null;index" json:"target_entity"`
	TargetType        string     `gorm:"type:varchar(50);not null" json:"target_type"`
	Confidence        float64    `gorm:"not null;default:0" json:"confidence"`
	MeetingID         *uuid.UUID `gorm:"type:uuid;index" json:"meeting_id,omitempty"`
	KnowledgeSourceID *uuid.UUID `gorm:"type:uuid;index" json:"knowledge_source_id,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for EntityRelation
func (EntityRelation) TableName() string {
	return "entity_relations"
}

// Provenance identifies what a relation was extracted from
type Provenance struct {
	MeetingID         *uuid.UUID
	KnowledgeSourceID *uuid.UUID
}

// FromMeeting is the provenance of a transcript segment
func FromMeeting(id uuid.UUID) Provenance {
	return Provenance{MeetingID: &id}
}

// FromKnowledgeSource is the provenance of a document sample
func FromKnowledgeSource(id uuid.UUID) Provenance {
	return Provenance{KnowledgeSourceID: &id}
}

// Valid reports whether exactly one owner is set
func (p Provenance) Valid() bool {
	return (p.MeetingID == nil) != (p.KnowledgeSourceID == nil)
}

// NewEntityRelation creates a relation with normalized entity names
func NewEntityRelation(source, sourceType, relation, target, targetType string, confidence float64, prov Provenance) (*EntityRelation, error) {
	if !prov.Valid() {
		return nil, ErrInvalidProvenance
	}
	src, tgt := NormalizeName(source), NormalizeName(target)
	if src == "" || tgt == "" {
		return nil, ErrEmptyEntityName
	}
	return &EntityRelation{
		ID:                uuid.New(),
		SourceEntity:      src,
		SourceType:        NormalizeName(sourceType),
		Relation:          NormalizeName(relation),
		TargetEntity:      tgt,
		TargetType:        NormalizeName(targetType),
		Confidence:        confidence,
		MeetingID:         prov.MeetingID,
		KnowledgeSourceID: prov.KnowledgeSourceID,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// MeetingPerson is the mentioned_in edge from a person to a meeting
type MeetingPerson struct {
	MeetingID uuid.UUID `gorm:"type:uuid;primary_key" json:"meeting_id"`
	PersonID  uuid.UUID `gorm:"type:uuid;primary_key;index" json:"person_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for MeetingPerson
func (MeetingPerson) TableName() string {
	return "meeting_people"
}

// MeetingTopic is the discussed_in edge from a topic to a meeting
type MeetingTopic struct {
	MeetingID uuid.UUID `gorm:"type:uuid;primary_key" json:"meeting_id"`
	TopicID   uuid.UUID `gorm:"type:uuid;primary_key;index" json:"topic_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for MeetingTopic
func (MeetingTopic) TableName() string {
	return "meeting_topics"
}
