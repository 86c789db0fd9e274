package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

// MeetingRepository defines persistence for meetings and their transcript,
// action items and decisions. Reads for unknown ids return nil or empty.
type MeetingRepository interface {
	// Create creates a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting by ID, nil when missing
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// List retrieves meetings newest first
	List(ctx context.Context, limit int) ([]*entities.Meeting, error)

	// Update saves title, end time and summary
	Update(ctx context.Context, meeting *entities.Meeting) error

	// Delete removes the meeting and everything owned by it in one transaction
	Delete(ctx context.Context, id uuid.UUID) error

	// FindOpenStartedBefore retrieves meetings without end time started before t
	FindOpenStartedBefore(ctx context.Context, t time.Time) ([]*entities.Meeting, error)

	// FindRelated retrieves meetings whose title or transcript contains any
	// term (case-insensitive), optionally within [from, to), newest first
	FindRelated(ctx context.Context, terms []string, from, to *time.Time, limit int) ([]*entities.Meeting, error)

	// FindInRange retrieves meetings started within [from, to), newest first
	FindInRange(ctx context.Context, from, to time.Time, limit int) ([]*entities.Meeting, error)

	// Segments
	CreateSegment(ctx context.Context, segment *entities.Segment) error
	ListSegments(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.Segment, error)
	SearchSegmentText(ctx context.Context, query string, limit int) ([]*entities.Segment, error)
	RelabelSpeakers(ctx context.Context, meetingID uuid.UUID, ranges []entities.SpeakerRange, onlyGeneric bool) (int, error)

	// Action items
	CreateActionItem(ctx context.Context, item *entities.ActionItem) error
	ListActionItems(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error)
	UpdateActionItemStatus(ctx context.Context, id uuid.UUID, status entities.ActionItemStatus) error
	ListOpenActionItems(ctx context.Context, meetingIDs []uuid.UUID, limit int) ([]*entities.ActionItemWithMeeting, error)
	ListAllActionItems(ctx context.Context, limit int) ([]*entities.ActionItemWithMeeting, error)

	// Decisions
	CreateDecision(ctx context.Context, decision *entities.Decision) error
	ListDecisions(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error)
	ListRecentDecisions(ctx context.Context, meetingIDs []uuid.UUID, limit int) ([]*entities.DecisionWithMeeting, error)

	// Stats
	Stats(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingStats, error)
	GlobalStats(ctx context.Context) (*entities.GlobalStats, error)
}
