package presenter

import (
	"time"

	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting, now time.Time) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	participants := []string(m.Participants)
	if participants == nil {
		participants = []string{}
	}

	return &meeting.MeetingResponse{
		ID:              m.ID.String(),
		Title:           m.Title,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		IsActive:        m.IsActive(),
		DurationSeconds: int64(m.Duration(now).Seconds()),
		Participants:    participants,
		Summary:         m.Summary,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ToMeetingListResponse converts a slice of Meeting entities
func ToMeetingListResponse(meetings []*entities.Meeting, now time.Time) []*meeting.MeetingResponse {
	out := make([]*meeting.MeetingResponse, len(meetings))
	for i, m := range meetings {
		out[i] = ToMeetingResponse(m, now)
	}
	return out
}

// ToSegmentResponse converts a Segment entity to SegmentResponse DTO
func ToSegmentResponse(s *entities.Segment) *meeting.SegmentResponse {
	if s == nil {
		return nil
	}
	return &meeting.SegmentResponse{
		ID:        s.ID.String(),
		MeetingID: s.MeetingID.String(),
		Speaker:   s.Speaker,
		Text:      s.Text,
		StartMs:   s.StartMs,
		EndMs:     s.EndMs,
		CreatedAt: s.CreatedAt,
	}
}

func ToSegmentListResponse(segments []*entities.Segment) []*meeting.SegmentResponse {
	out := make([]*meeting.SegmentResponse, len(segments))
	for i, s := range segments {
		out[i] = ToSegmentResponse(s)
	}
	return out
}

// ToSpeakerRanges converts relabel request ranges to domain ranges
func ToSpeakerRanges(req []meeting.SpeakerRangeRequest) []entities.SpeakerRange {
	out := make([]entities.SpeakerRange, len(req))
	for i, r := range req {
		out[i] = entities.SpeakerRange{
			StartMs:   r.StartMs,
			EndMs:     r.EndMs,
			SpeakerID: r.SpeakerID,
			Label:     r.Label,
		}
	}
	return out
}
