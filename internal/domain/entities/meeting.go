package entities

import (
	"time"

	"github.com/google/uuid"
)

// Meeting represents a recorded conversation
type Meeting struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	StartTime    time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime      *time.Time `gorm:"index" json:"end_time,omitempty"`
	Participants StringList `json:"participants"`
	Summary      *string    `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a meeting starting now
func NewMeeting(title string, participants []string) *Meeting {
	now := time.Now().UTC()
	if participants == nil {
		participants = []string{}
	}
	return &Meeting{
		ID:           uuid.New(),
		Title:        title,
		StartTime:    now,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsActive reports whether the meeting has not been ended
func (m *Meeting) IsActive() bool {
	return m.EndTime == nil
}

// End closes the meeting at t
func (m *Meeting) End(t time.Time, summary *string) {
	t = t.UTC()
	m.EndTime = &t
	if summary != nil {
		m.Summary = summary
	}
}

// Duration returns the meeting length, or the time elapsed so far
func (m *Meeting) Duration(now time.Time) time.Duration {
	if m.EndTime != nil {
		return m.EndTime.Sub(m.StartTime)
	}
	return now.Sub(m.StartTime)
}
