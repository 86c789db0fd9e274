package entities

import (
	"time"

	"github.com/google/uuid"
)

// Decision records something a meeting agreed on
type Decision struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	MeetingID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"meeting_id"`
	Text         string     `gorm:"type:text;not null" json:"text"`
	Participants StringList `json:"participants"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for Decision
func (Decision) TableName() string {
	return "decisions"
}

// NewDecision creates a decision for a meeting
func NewDecision(meetingID uuid.UUID, text string, participants []string) *Decision {
	if participants == nil {
		participants = []string{}
	}
	return &Decision{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		Text:         text,
		Participants: participants,
		CreatedAt:    time.Now().UTC(),
	}
}
