package meeting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

// Service defines the interface for meeting use case
type Service interface {
	// CreateMeeting starts a new meeting now
	CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error)

	// GetMeeting retrieves a meeting by ID, nil when it does not exist
	GetMeeting(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// GetMeetings retrieves the most recent meetings
	GetMeetings(ctx context.Context, limit int) ([]*entities.Meeting, error)

	// EndMeeting closes an active meeting
	EndMeeting(ctx context.Context, id uuid.UUID, summary *string) (*entities.Meeting, error)

	// UpdateMeetingSummary replaces the summary of a meeting
	UpdateMeetingSummary(ctx context.Context, id uuid.UUID, summary string) (*entities.Meeting, error)

	// DeleteMeeting removes a meeting and everything it owns
	DeleteMeeting(ctx context.Context, id uuid.UUID) error

	// AutoEndStaleMeetings closes meetings left open longer than maxAge
	AutoEndStaleMeetings(ctx context.Context, maxAge time.Duration) (int, error)

	GetMeetingSegments(ctx context.Context, id uuid.UUID, limit int) ([]*entities.Segment, error)
	GetMeetingActionItems(ctx context.Context, id uuid.UUID) ([]*entities.ActionItem, error)
	GetMeetingDecisions(ctx context.Context, id uuid.UUID) ([]*entities.Decision, error)
	GetMeetingTopics(ctx context.Context, id uuid.UUID) ([]*entities.Topic, error)
	GetMeetingPeople(ctx context.Context, id uuid.UUID) ([]*entities.Person, error)
	GetMeetingKnowledge(ctx context.Context, id uuid.UUID) ([]*entities.LinkedKnowledge, error)
	GetMeetingStats(ctx context.Context, id uuid.UUID) (*entities.MeetingStats, error)

	// AddActionItem records an open action item
	AddActionItem(ctx context.Context, input ActionItemInput) (*entities.ActionItem, error)

	// AddDecision records a decision
	AddDecision(ctx context.Context, input DecisionInput) (*entities.Decision, error)

	// UpdateActionItemStatus validates and sets an action item status
	UpdateActionItemStatus(ctx context.Context, id uuid.UUID, status string) error

	GetOpenActions(ctx context.Context, limit int) ([]*entities.ActionItemWithMeeting, error)
	GetAllActionItems(ctx context.Context, limit int) ([]*entities.ActionItemWithMeeting, error)
	GetRecentDecisions(ctx context.Context, limit int) ([]*entities.DecisionWithMeeting, error)
	GetAllDecisions(ctx context.Context, limit int) ([]*entities.DecisionWithMeeting, error)
	GetGlobalStats(ctx context.Context) (*entities.GlobalStats, error)

	// SearchText finds segments containing query, case-insensitive
	SearchText(ctx context.Context, query string, limit int) ([]*entities.Segment, error)

	// RelabelSpeakers rewrites generic speaker labels from diarized ranges
	RelabelSpeakers(ctx context.Context, id uuid.UUID, ranges []entities.SpeakerRange) (int, error)

	// RelabelAllSpeakers rewrites every speaker label covered by ranges
	RelabelAllSpeakers(ctx context.Context, id uuid.UUID, ranges []entities.SpeakerRange) (int, error)

	// DiarizeAndRelabel diarizes the recording and relabels generic speakers
	DiarizeAndRelabel(ctx context.Context, id uuid.UUID, audioURL string) (*DiarizeOutput, error)
}

// CreateMeetingInput represents input for starting a meeting
type CreateMeetingInput struct {
	Title        string
	Participants []string
}

// ActionItemInput represents input for adding an action item
type ActionItemInput struct {
	MeetingID uuid.UUID
	Text      string
	Assignee  *string
	Deadline  *string
}

// DecisionInput represents input for adding a decision
type DecisionInput struct {
	MeetingID    uuid.UUID
	Text         string
	Participants []string
}

// DiarizeOutput reports what a diarization pass changed
type DiarizeOutput struct {
	Turns     int                     `json:"turns"`
	Relabeled int                     `json:"relabeled"`
	Ranges    []entities.SpeakerRange `json:"ranges"`
}

// Ensure MeetingService implements Service interface
var _ Service = (*MeetingService)(nil)
