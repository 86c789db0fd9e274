package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionItemStatus represents the lifecycle of an action item
type ActionItemStatus string

const (
	ActionItemStatusOpen       ActionItemStatus = "open"
	ActionItemStatusInProgress ActionItemStatus = "in_progress"
	ActionItemStatusDone       ActionItemStatus = "done"
	ActionItemStatusCompleted  ActionItemStatus = "completed"
	ActionItemStatusCancelled  ActionItemStatus = "cancelled"
)

// ClosedActionStatuses are the statuses excluded from open action queries
var ClosedActionStatuses = []ActionItemStatus{
	ActionItemStatusDone,
	ActionItemStatusCompleted,
	ActionItemStatusCancelled,
}

// ParseActionItemStatus validates a status string
func ParseActionItemStatus(s string) (ActionItemStatus, error) {
	switch st := ActionItemStatus(s); st {
	case ActionItemStatusOpen, ActionItemStatusInProgress, ActionItemStatusDone,
		ActionItemStatusCompleted, ActionItemStatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// IsOpen reports whether work on the item is still pending
func (s ActionItemStatus) IsOpen() bool {
	for _, c := range ClosedActionStatuses {
		if s == c {
			return false
		}
	}
	return true
}

// ActionItem is a task that came out of a meeting
type ActionItem struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	MeetingID uuid.UUID        `gorm:"type:uuid;not null;index" json:"meeting_id"`
	Text      string           `gorm:"type:text;not null" json:"text"`
	Assignee  *string          `gorm:"type:varchar(255)" json:"assignee,omitempty"`
	Deadline  *string          `gorm:"type:varchar(255)" json:"deadline,omitempty"`
	Status    ActionItemStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for ActionItem
func (ActionItem) TableName() string {
	return "action_items"
}

// NewActionItem creates an open action item
func NewActionItem(meetingID uuid.UUID, text string, assignee, deadline *string) *ActionItem {
	return &ActionItem{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Text:      text,
		Assignee:  blankToNil(assignee),
		Deadline:  blankToNil(deadline),
		Status:    ActionItemStatusOpen,
		CreatedAt: time.Now().UTC(),
	}
}

func blankToNil(s *string) *string {
	if s == nil || DisplayName(*s) == "" {
		return nil
	}
	v := DisplayName(*s)
	return &v
}
