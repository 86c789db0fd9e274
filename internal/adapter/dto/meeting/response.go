package meeting

import (
	"time"
)

// MeetingResponse represents a meeting in API responses
type MeetingResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	IsActive        bool       `json:"is_active"`
	DurationSeconds int64      `json:"duration_seconds"`
	Participants    []string   `json:"participants"`
	Summary         *string    `json:"summary,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SegmentResponse represents a transcript segment
type SegmentResponse struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	StartMs   int64     `json:"start_ms"`
	EndMs     int64     `json:"end_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// RelabelResponse reports how many segments got a new speaker
type RelabelResponse struct {
	Relabeled int `json:"relabeled"`
}
