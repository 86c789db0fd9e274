package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
)

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// Create creates a new meeting
func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindByID retrieves a meeting by its ID
func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// List retrieves the most recent meetings
func (r *meetingRepository) List(ctx context.Context, limit int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	err := r.db.WithContext(ctx).
		Order("start_time DESC").
		Limit(defaultLimit(limit, 50)).
		Find(&meetings).Error
	return meetings, err
}

// Update updates an existing meeting
func (r *meetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	return r.db.WithContext(ctx).Save(meeting).Error
}

// Delete removes a meeting with its segments, action items, decisions,
// relations, graph edges and knowledge links
func (r *meetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Meeting{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return entities.ErrMeetingNotFound
		}

		owned := []interface{}{
			&entities.Segment{},
			&entities.ActionItem{},
			&entities.Decision{},
			&entities.EntityRelation{},
			&entities.MeetingPerson{},
			&entities.MeetingTopic{},
			&entities.MeetingKnowledge{},
		}
		for _, model := range owned {
			if err := tx.Where("meeting_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete %T rows: %w", model, err)
			}
		}
		return tx.Where("id = ?", id).Delete(&entities.Meeting{}).Error
	})
}

// FindOpenStartedBefore retrieves meetings that were never ended
func (r *meetingRepository) FindOpenStartedBefore(ctx context.Context, t time.Time) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	err := r.db.WithContext(ctx).
		Where("end_time IS NULL AND start_time < ?", t.UTC()).
		Order("start_time ASC").
		Find(&meetings).Error
	return meetings, err
}

// FindRelated retrieves meetings mentioning any of terms in the title or transcript
func (r *meetingRepository) FindRelated(ctx context.Context, terms []string, from, to *time.Time, limit int) ([]*entities.Meeting, error) {
	titleCond, titleArgs := orContains([]string{"LOWER(title)"}, terms)
	if titleCond == "" {
		return []*entities.Meeting{}, nil
	}
	textCond, textArgs := orContains([]string{"LOWER(text)"}, terms)

	query := r.db.WithContext(ctx).Model(&entities.Meeting{}).
		Where("("+titleCond+" OR id IN (SELECT meeting_id FROM segments WHERE "+textCond+"))",
			append(titleArgs, textArgs...)...)
	if from != nil {
		query = query.Where("start_time >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("start_time < ?", to.UTC())
	}

	var meetings []*entities.Meeting
	err := query.Order("start_time DESC").Limit(defaultLimit(limit, 5)).Find(&meetings).Error
	return meetings, err
}

// FindInRange retrieves meetings started within [from, to)
func (r *meetingRepository) FindInRange(ctx context.Context, from, to time.Time, limit int) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	err := r.db.WithContext(ctx).
		Where("start_time >= ? AND start_time < ?", from.UTC(), to.UTC()).
		Order("start_time DESC").
		Limit(defaultLimit(limit, 5)).
		Find(&meetings).Error
	return meetings, err
}

// CreateSegment stores a transcript segment
func (r *meetingRepository) CreateSegment(ctx context.Context, segment *entities.Segment) error {
	return r.db.WithContext(ctx).Create(segment).Error
}

// ListSegments retrieves a meeting's segments in time order; limit <= 0 returns all
func (r *meetingRepository) ListSegments(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.Segment, error) {
	var segments []*entities.Segment
	query := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("start_ms ASC, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&segments).Error
	return segments, err
}

// SearchSegmentText finds segments containing query, case-insensitive
func (r *meetingRepository) SearchSegmentText(ctx context.Context, query string, limit int) ([]*entities.Segment, error) {
	cond, args := orContains([]string{"LOWER(text)"}, []string{query})
	if cond == "" {
		return []*entities.Segment{}, nil
	}
	var segments []*entities.Segment
	err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("created_at DESC").
		Limit(defaultLimit(limit, 20)).
		Find(&segments).Error
	return segments, err
}

// RelabelSpeakers rewrites segment speakers from diarized ranges. A
// segment takes the first range, ordered by start, containing its midpoint.
func (r *meetingRepository) RelabelSpeakers(ctx context.Context, meetingID uuid.UUID, ranges []entities.SpeakerRange, onlyGeneric bool) (int, error) {
	if len(ranges) == 0 {
		return 0, nil
	}
	ordered := make([]entities.SpeakerRange, len(ranges))
	copy(ordered, ranges)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].StartMs < ordered[j].StartMs })

	relabeled := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var segments []*entities.Segment
		if err := tx.Where("meeting_id = ?", meetingID).Order("start_ms ASC").Find(&segments).Error; err != nil {
			return err
		}
		for _, seg := range segments {
			if onlyGeneric && !seg.HasGenericSpeaker() {
				continue
			}
			mid := seg.Midpoint()
			for _, rg := range ordered {
				if !rg.Contains(mid) {
					continue
				}
				if name := rg.Name(); name != "" && name != seg.Speaker {
					if err := tx.Model(&entities.Segment{}).Where("id = ?", seg.ID).Update("speaker", name).Error; err != nil {
						return err
					}
					relabeled++
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return relabeled, nil
}

// CreateActionItem stores an action item
func (r *meetingRepository) CreateActionItem(ctx context.Context, item *entities.ActionItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// ListActionItems retrieves a meeting's action items oldest first
func (r *meetingRepository) ListActionItems(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	var items []*entities.ActionItem
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// UpdateActionItemStatus sets the status of an action item
func (r *meetingRepository) UpdateActionItemStatus(ctx context.Context, id uuid.UUID, status entities.ActionItemStatus) error {
	res := r.db.WithContext(ctx).
		Model(&entities.ActionItem{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrActionItemNotFound
	}
	return nil
}

// ListOpenActionItems retrieves unfinished action items, optionally limited to meetings
func (r *meetingRepository) ListOpenActionItems(ctx context.Context, meetingIDs []uuid.UUID, limit int) ([]*entities.ActionItemWithMeeting, error) {
	query := r.actionItemsWithMeeting(ctx).
		Where("action_items.status NOT IN ?", closedStatuses())
	if len(meetingIDs) > 0 {
		query = query.Where("action_items.meeting_id IN ?", uniqueIDs(meetingIDs))
	}

	var items []*entities.ActionItemWithMeeting
	err := query.Limit(defaultLimit(limit, 10)).Scan(&items).Error
	return items, err
}

// ListAllActionItems retrieves action items of every status
func (r *meetingRepository) ListAllActionItems(ctx context.Context, limit int) ([]*entities.ActionItemWithMeeting, error) {
	var items []*entities.ActionItemWithMeeting
	err := r.actionItemsWithMeeting(ctx).Limit(defaultLimit(limit, 100)).Scan(&items).Error
	return items, err
}

func (r *meetingRepository) actionItemsWithMeeting(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("action_items").
		Select("action_items.*, meetings.title AS meeting_title").
		Joins("JOIN meetings ON meetings.id = action_items.meeting_id").
		Order("action_items.created_at DESC")
}

// CreateDecision stores a decision
func (r *meetingRepository) CreateDecision(ctx context.Context, decision *entities.Decision) error {
	return r.db.WithContext(ctx).Create(decision).Error
}

// ListDecisions retrieves a meeting's decisions oldest first
func (r *meetingRepository) ListDecisions(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error) {
	var decisions []*entities.Decision
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&decisions).Error
	return decisions, err
}

// ListRecentDecisions retrieves the newest decisions, optionally limited to meetings
func (r *meetingRepository) ListRecentDecisions(ctx context.Context, meetingIDs []uuid.UUID, limit int) ([]*entities.DecisionWithMeeting, error) {
	query := r.db.WithContext(ctx).
		Table("decisions").
		Select("decisions.*, meetings.title AS meeting_title").
		Joins("JOIN meetings ON meetings.id = decisions.meeting_id").
		Order("decisions.created_at DESC")
	if len(meetingIDs) > 0 {
		query = query.Where("decisions.meeting_id IN ?", uniqueIDs(meetingIDs))
	}

	var decisions []*entities.DecisionWithMeeting
	err := query.Limit(defaultLimit(limit, 10)).Scan(&decisions).Error
	return decisions, err
}

// Stats summarizes one meeting; nil for unknown meetings
func (r *meetingRepository) Stats(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingStats, error) {
	meeting, err := r.FindByID(ctx, meetingID)
	if err != nil || meeting == nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	stats := &entities.MeetingStats{
		SpeakerTurns: map[string]int64{},
		Duration:     meeting.Duration(time.Now().UTC()),
	}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&entities.Segment{}, &stats.SegmentCount},
		{&entities.ActionItem{}, &stats.ActionItemCount},
		{&entities.Decision{}, &stats.DecisionCount},
		{&entities.MeetingTopic{}, &stats.TopicCount},
		{&entities.MeetingPerson{}, &stats.PersonCount},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where("meeting_id = ?", meetingID).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var turns []struct {
		Speaker string
		Turns   int64
	}
	err = db.Model(&entities.Segment{}).
		Select("speaker, COUNT(*) AS turns").
		Where("meeting_id = ?", meetingID).
		Group("speaker").
		Scan(&turns).Error
	if err != nil {
		return nil, err
	}
	for _, t := range turns {
		name := t.Speaker
		if strings.TrimSpace(name) == "" {
			name = "Unknown"
		}
		stats.SpeakerTurns[name] += t.Turns
	}
	return stats, nil
}

// GlobalStats counts rows across the store
func (r *meetingRepository) GlobalStats(ctx context.Context) (*entities.GlobalStats, error) {
	db := r.db.WithContext(ctx)
	stats := &entities.GlobalStats{}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&entities.Meeting{}, &stats.Meetings},
		{&entities.Segment{}, &stats.Segments},
		{&entities.ActionItem{}, &stats.ActionItems},
		{&entities.Decision{}, &stats.Decisions},
		{&entities.Person{}, &stats.People},
		{&entities.Topic{}, &stats.Topics},
		{&entities.EntityRelation{}, &stats.Relations},
		{&entities.KnowledgeSource{}, &stats.KnowledgeSources},
		{&entities.KnowledgeChunk{}, &stats.KnowledgeChunks},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	err := db.Model(&entities.ActionItem{}).
		Where("status NOT IN ?", closedStatuses()).
		Count(&stats.OpenActionItems).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func closedStatuses() []string {
	out := make([]string, len(entities.ClosedActionStatuses))
	for i, st := range entities.ClosedActionStatuses {
		out[i] = string(st)
	}
	return out
}
