package meeting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
)

// AddActionItem records an open action item
func (s *MeetingService) AddActionItem(ctx context.Context, input ActionItemInput) (*entities.ActionItem, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, usecaseErrors.ErrEmptyContent
	}
	if _, err := s.mustFind(ctx, input.MeetingID); err != nil {
		return nil, err
	}

	item := entities.NewActionItem(input.MeetingID, text, input.Assignee, input.Deadline)
	if err := s.meetings.CreateActionItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create action item: %w", err)
	}
	return item, nil
}

// AddDecision records a decision
func (s *MeetingService) AddDecision(ctx context.Context, input DecisionInput) (*entities.Decision, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, usecaseErrors.ErrEmptyContent
	}
	if _, err := s.mustFind(ctx, input.MeetingID); err != nil {
		return nil, err
	}

	decision := entities.NewDecision(input.MeetingID, text, input.Participants)
	if err := s.meetings.CreateDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to create decision: %w", err)
	}
	return decision, nil
}

// UpdateActionItemStatus validates and sets an action item status
func (s *MeetingService) UpdateActionItemStatus(ctx context.Context, id uuid.UUID, status string) error {
	st, err := entities.ParseActionItemStatus(status)
	if err != nil {
		return err
	}
	if err := s.meetings.UpdateActionItemStatus(ctx, id, st); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Debug("Action item status updated",
			zap.String("action_item_id", id.String()),
			zap.String("status", string(st)))
	}
	return nil
}

// GetOpenActions retrieves unfinished action items across meetings
func (s *MeetingService) GetOpenActions(ctx context.Context, limit int) ([]*entities.ActionItemWithMeeting, error) {
	return s.meetings.ListOpenActionItems(ctx, nil, limit)
}

// GetAllActionItems retrieves action items of every status
func (s *MeetingService) GetAllActionItems(ctx context.Context, limit int) ([]*entities.ActionItemWithMeeting, error) {
	return s.meetings.ListAllActionItems(ctx, limit)
}

// GetRecentDecisions retrieves the latest decisions across meetings
func (s *MeetingService) GetRecentDecisions(ctx context.Context, limit int) ([]*entities.DecisionWithMeeting, error) {
	if limit <= 0 {
		limit = recentDecisionLimit
	}
	return s.meetings.ListRecentDecisions(ctx, nil, limit)
}

// GetAllDecisions retrieves decisions across meetings with a larger default cap
func (s *MeetingService) GetAllDecisions(ctx context.Context, limit int) ([]*entities.DecisionWithMeeting, error) {
	if limit <= 0 {
		limit = allDecisionLimit
	}
	return s.meetings.ListRecentDecisions(ctx, nil, limit)
}

// GetGlobalStats retrieves store-wide counters
func (s *MeetingService) GetGlobalStats(ctx context.Context) (*entities.GlobalStats, error) {
	return s.meetings.GlobalStats(ctx)
}

// SearchText finds segments containing query
func (s *MeetingService) SearchText(ctx context.Context, query string, limit int) ([]*entities.Segment, error) {
	if strings.TrimSpace(query) == "" {
		return nil, usecaseErrors.ErrEmptyQuery
	}
	return s.meetings.SearchSegmentText(ctx, query, limit)
}
