package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// genericSpeakers are placeholder labels that diarization may overwrite
var genericSpeakers = map[string]bool{
	"":        true,
	"guest":   true,
	"you":     true,
	"unknown": true,
	"speaker": true,
}

// Segment is one attributed utterance of a meeting transcript
type Segment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Speaker   string    `json:"speaker" gorm:"type:varchar(100);not null;default:''"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	StartMs   int64     `json:"start_ms" gorm:"not null;index"`
	EndMs     int64     `json:"end_ms" gorm:"not null"`
	Embedding []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Segment) TableName() string {
	return "segments"
}

// NewSegment creates a segment, rejecting end < start
func NewSegment(meetingID uuid.UUID, speaker, text string, startMs, endMs int64) (*Segment, error) {
	if endMs < startMs {
		return nil, ErrInvalidTimeRange
	}
	return &Segment{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Speaker:   strings.TrimSpace(speaker),
		Text:      text,
		StartMs:   startMs,
		EndMs:     endMs,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Midpoint is the instant used to match the segment against speaker ranges
func (s *Segment) Midpoint() int64 {
	return (s.StartMs + s.EndMs) / 2
}

// HasGenericSpeaker reports whether the speaker label is a placeholder
func (s *Segment) HasGenericSpeaker() bool {
	return IsGenericSpeaker(s.Speaker)
}

// IsGenericSpeaker reports whether label is a placeholder speaker name
func IsGenericSpeaker(label string) bool {
	return genericSpeakers[strings.ToLower(strings.TrimSpace(label))]
}

// SpeakerRange attributes [StartMs, EndMs] to a speaker
type SpeakerRange struct {
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
	SpeakerID string `json:"speaker_id"`
	Label     string `json:"label"`
}

// Contains reports whether ms falls in the range, bounds inclusive
func (r SpeakerRange) Contains(ms int64) bool {
	return ms >= r.StartMs && ms <= r.EndMs
}

// Name is the label written onto segments
func (r SpeakerRange) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return r.SpeakerID
}
