package meeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
)

const (
	recentDecisionLimit = 10
	allDecisionLimit    = 100

	// Meetings closed by the sweeper are given this length
	assumedMeetingLength = time.Hour
)

// MeetingService handles meeting business logic
type MeetingService struct {
	meetings  repositories.MeetingRepository
	graph     repositories.GraphRepository
	knowledge repositories.KnowledgeRepository
	diarizer  ai.Diarizer
	now       func() time.Time
	logger    *zap.Logger
}

// NewMeetingService creates a new meeting service. diarizer may be nil.
func NewMeetingService(
	meetings repositories.MeetingRepository,
	graph repositories.GraphRepository,
	knowledge repositories.KnowledgeRepository,
	diarizer ai.Diarizer,
	logger *zap.Logger,
) *MeetingService {
	return &MeetingService{
		meetings:  meetings,
		graph:     graph,
		knowledge: knowledge,
		diarizer:  diarizer,
		now:       time.Now,
		logger:    logger,
	}
}

// CreateMeeting starts a new meeting
func (s *MeetingService) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, usecaseErrors.ErrInvalidInput
	}

	participants := make([]string, 0, len(input.Participants))
	for _, p := range input.Participants {
		if d := entities.DisplayName(p); d != "" {
			participants = append(participants, d)
		}
	}

	meeting := entities.NewMeeting(title, participants)
	meeting.StartTime = s.now().UTC()
	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Meeting started",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("title", meeting.Title))
	}
	return meeting, nil
}

// GetMeeting retrieves a meeting by ID
func (s *MeetingService) GetMeeting(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return meeting, nil
}

// GetMeetings retrieves the most recent meetings
func (s *MeetingService) GetMeetings(ctx context.Context, limit int) ([]*entities.Meeting, error) {
	return s.meetings.List(ctx, limit)
}

// EndMeeting closes an active meeting
func (s *MeetingService) EndMeeting(ctx context.Context, id uuid.UUID, summary *string) (*entities.Meeting, error) {
	meeting, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}
	if !meeting.IsActive() {
		return nil, entities.ErrMeetingAlreadyEnded
	}

	meeting.End(s.now(), summary)
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to end meeting: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Meeting ended",
			zap.String("meeting_id", id.String()),
			zap.Duration("duration", meeting.Duration(s.now())))
	}
	return meeting, nil
}

// UpdateMeetingSummary replaces the summary of a meeting
func (s *MeetingService) UpdateMeetingSummary(ctx context.Context, id uuid.UUID, summary string) (*entities.Meeting, error) {
	meeting, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}
	meeting.Summary = &summary
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to update summary: %w", err)
	}
	return meeting, nil
}

// DeleteMeeting removes a meeting and everything it owns
func (s *MeetingService) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	if err := s.meetings.Delete(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("Meeting deleted", zap.String("meeting_id", id.String()))
	}
	return nil
}

// AutoEndStaleMeetings closes meetings left open longer than maxAge.
// They get an end time one hour after their start.
func (s *MeetingService) AutoEndStaleMeetings(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.meetings.FindOpenStartedBefore(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to find stale meetings: %w", err)
	}

	ended := 0
	for _, m := range stale {
		if err := ctx.Err(); err != nil {
			return ended, err
		}
		m.End(m.StartTime.Add(assumedMeetingLength), nil)
		if err := s.meetings.Update(ctx, m); err != nil {
			return ended, fmt.Errorf("failed to end meeting %s: %w", m.ID, err)
		}
		ended++
	}

	if ended > 0 && s.logger != nil {
		s.logger.Info("Auto-ended stale meetings", zap.Int("count", ended), zap.Duration("max_age", maxAge))
	}
	return ended, nil
}

// GetMeetingSegments retrieves a meeting's transcript in time order
func (s *MeetingService) GetMeetingSegments(ctx context.Context, id uuid.UUID, limit int) ([]*entities.Segment, error) {
	return s.meetings.ListSegments(ctx, id, limit)
}

// GetMeetingActionItems retrieves a meeting's action items
func (s *MeetingService) GetMeetingActionItems(ctx context.Context, id uuid.UUID) ([]*entities.ActionItem, error) {
	return s.meetings.ListActionItems(ctx, id)
}

// GetMeetingDecisions retrieves a meeting's decisions
func (s *MeetingService) GetMeetingDecisions(ctx context.Context, id uuid.UUID) ([]*entities.Decision, error) {
	return s.meetings.ListDecisions(ctx, id)
}

// GetMeetingTopics retrieves the topics discussed in a meeting
func (s *MeetingService) GetMeetingTopics(ctx context.Context, id uuid.UUID) ([]*entities.Topic, error) {
	return s.graph.ListMeetingTopics(ctx, id)
}

// GetMeetingPeople retrieves the people mentioned in a meeting
func (s *MeetingService) GetMeetingPeople(ctx context.Context, id uuid.UUID) ([]*entities.Person, error) {
	return s.graph.ListMeetingPeople(ctx, id)
}

// GetMeetingKnowledge retrieves the knowledge sources linked to a meeting
func (s *MeetingService) GetMeetingKnowledge(ctx context.Context, id uuid.UUID) ([]*entities.LinkedKnowledge, error) {
	return s.knowledge.ListMeetingKnowledge(ctx, id)
}

// GetMeetingStats retrieves counters for a meeting, nil when it does not exist
func (s *MeetingService) GetMeetingStats(ctx context.Context, id uuid.UUID) (*entities.MeetingStats, error) {
	return s.meetings.Stats(ctx, id)
}

func (s *MeetingService) mustFind(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}
	return meeting, nil
}
