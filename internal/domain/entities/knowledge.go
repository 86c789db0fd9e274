package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SourceType is the kind of document a knowledge source was loaded from
type SourceType string

const (
	SourceTypeWeb      SourceType = "web"
	SourceTypePDF      SourceType = "pdf"
	SourceTypeMarkdown SourceType = "markdown"
	SourceTypeText     SourceType = "text"
	SourceTypeNotion   SourceType = "notion"
	SourceTypeFile     SourceType = "file"
)

// ParseSourceType validates a source type, defaulting to text
func ParseSourceType(s string) (SourceType, error) {
	if s == "" {
		return SourceTypeText, nil
	}
	switch st := SourceType(strings.ToLower(s)); st {
	case SourceTypeWeb, SourceTypePDF, SourceTypeMarkdown, SourceTypeText, SourceTypeNotion, SourceTypeFile:
		return st, nil
	}
	return "", ErrInvalidSourceType
}

// KnowledgeSource is an ingested document
type KnowledgeSource struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	URL         string            `gorm:"type:varchar(2048);not null;uniqueIndex" json:"url"`
	Title       string            `gorm:"type:varchar(512);not null" json:"title"`
	SourceType  SourceType        `gorm:"type:varchar(20);not null;default:'text'" json:"source_type"`
	RawContent  string            `gorm:"type:text" json:"-"`
	Tags        StringList        `json:"tags"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	ArchiveKey  *string           `gorm:"type:varchar(512)" json:"archive_key,omitempty"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	LastUpdated time.Time         `gorm:"not null" json:"last_updated"`
}

// TableName specifies the table name for KnowledgeSource
func (KnowledgeSource) TableName() string {
	return "knowledge_sources"
}

// NewKnowledgeSource creates a source; the title falls back to the URL
func NewKnowledgeSource(url, title string, sourceType SourceType, content string, tags []string) *KnowledgeSource {
	now := time.Now().UTC()
	if strings.TrimSpace(title) == "" {
		title = url
	}
	return &KnowledgeSource{
		ID:          uuid.New(),
		URL:         url,
		Title:       title,
		SourceType:  sourceType,
		RawContent:  content,
		Tags:        NormalizeTags(tags),
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// HasAnyTag reports whether the source carries at least one of tags.
// An empty filter matches every source.
func (s *KnowledgeSource) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range NormalizeTags(tags) {
		if s.Tags.Contains(t) {
			return true
		}
	}
	return false
}

// NormalizeTags trims, lower-cases and de-duplicates tags
func NormalizeTags(tags []string) StringList {
	out := StringList{}
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// KnowledgeChunk is an embedded slice of a knowledge source.
// SourceID is free text so chunks of deleted sources can be detected.
type KnowledgeChunk struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SourceID   string    `gorm:"type:varchar(255);not null;index" json:"source_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	Embedding  []byte    `json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for KnowledgeChunk
func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}

// NewKnowledgeChunk creates a chunk of source
func NewKnowledgeChunk(sourceID uuid.UUID, index int, text string, embedding []byte) *KnowledgeChunk {
	return &KnowledgeChunk{
		ID:         uuid.New(),
		SourceID:   sourceID.String(),
		Text:       text,
		ChunkIndex: index,
		Embedding:  embedding,
		CreatedAt:  time.Now().UTC(),
	}
}

const sourceRefPrefix = "knowledge_source:"

// NormalizeSourceRef strips the table qualifier and quoting some
// stores put around record ids, e.g. "knowledge_source:⟨id⟩"
func NormalizeSourceRef(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, sourceRefPrefix)
	ref = strings.TrimPrefix(ref, "⟨")
	ref = strings.TrimSuffix(ref, "⟩")
	return strings.Trim(ref, "`")
}

// Assignment origin of a meeting/knowledge link
const (
	AssignedByUser = "user"
	AssignedByAuto = "auto"
)

// MeetingKnowledge links a knowledge source to a meeting
type MeetingKnowledge struct {
	MeetingID      uuid.UUID `gorm:"type:uuid;primary_key" json:"meeting_id"`
	SourceID       uuid.UUID `gorm:"type:uuid;primary_key;index" json:"source_id"`
	RelevanceScore float64   `gorm:"not null;default:0" json:"relevance_score"`
	AssignedBy     string    `gorm:"type:varchar(10);not null;default:'user'" json:"assigned_by"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for MeetingKnowledge
func (MeetingKnowledge) TableName() string {
	return "meeting_knowledge"
}
