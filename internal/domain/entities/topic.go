package entities

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a graph node for a subject, project or product
type Topic struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	DisplayName   string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Embedding     []byte    `json:"-"`
	MentionCount  int       `gorm:"not null;default:0" json:"mention_count"`
	LastMentioned time.Time `gorm:"not null;index" json:"last_mentioned"`
}

// TableName specifies the table name for Topic
func (Topic) TableName() string {
	return "topics"
}

// NewTopic creates a topic node with one mention
func NewTopic(name string, embedding []byte, seen time.Time) *Topic {
	return &Topic{
		ID:            uuid.New(),
		Name:          NormalizeName(name),
		DisplayName:   DisplayName(name),
		Embedding:     embedding,
		MentionCount:  1,
		LastMentioned: seen.UTC(),
	}
}

// Mention counts another mention at seen
func (t *Topic) Mention(seen time.Time) {
	t.MentionCount++
	if seen.After(t.LastMentioned) {
		t.LastMentioned = seen.UTC()
	}
}
