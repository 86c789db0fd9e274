package meeting

// CreateMeetingRequest represents the request to start a meeting
type CreateMeetingRequest struct {
	Title        string   `json:"title" validate:"required,notblank,max=255"`
	Participants []string `json:"participants,omitempty" validate:"omitempty,max=100,dive,max=255"`
}

// ListMeetingsRequest represents query parameters for listing meetings
type ListMeetingsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=200"`
}

// EndMeetingRequest represents the request to end a meeting
type EndMeetingRequest struct {
	Summary *string `json:"summary,omitempty"`
}

// UpdateSummaryRequest represents the request to replace a summary
type UpdateSummaryRequest struct {
	Summary string `json:"summary" validate:"required"`
}

// AddSegmentRequest represents one transcript segment
type AddSegmentRequest struct {
	Speaker string `json:"speaker" validate:"max=100"`
	Text    string `json:"text" validate:"required,notblank"`
	StartMs int64  `json:"start_ms" validate:"min=0"`
	EndMs   int64  `json:"end_ms" validate:"min=0"`
}

// AddActionItemRequest represents the request to record an action item
type AddActionItemRequest struct {
	Text     string  `json:"text" validate:"required,notblank"`
	Assignee *string `json:"assignee,omitempty" validate:"omitempty,max=255"`
	Deadline *string `json:"deadline,omitempty" validate:"omitempty,max=255"`
}

// AddDecisionRequest represents the request to record a decision
type AddDecisionRequest struct {
	Text         string   `json:"text" validate:"required,notblank"`
	Participants []string `json:"participants,omitempty"`
}

// UpdateActionStatusRequest represents an action item status change
type UpdateActionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress done completed cancelled"`
}

// SpeakerRangeRequest attributes a time range to a speaker
type SpeakerRangeRequest struct {
	StartMs   int64  `json:"start_ms" validate:"min=0"`
	EndMs     int64  `json:"end_ms" validate:"min=0"`
	SpeakerID string `json:"speaker_id" validate:"required"`
	Label     string `json:"label,omitempty"`
}

// RelabelRequest represents a speaker relabeling pass. When All is set
// every covered segment is relabeled, not only generic speakers.
type RelabelRequest struct {
	Ranges []SpeakerRangeRequest `json:"ranges" validate:"required,min=1,dive"`
	All    bool                  `json:"all"`
}

// DiarizeRequest points at the meeting recording
type DiarizeRequest struct {
	AudioURL string `json:"audio_url" validate:"required,url"`
}

// LinkKnowledgeRequest attaches a knowledge source to a meeting
type LinkKnowledgeRequest struct {
	SourceID       string  `json:"source_id" validate:"required,uuid"`
	RelevanceScore float64 `json:"relevance_score" validate:"min=0,max=1"`
	AssignedBy     string  `json:"assigned_by,omitempty" validate:"omitempty,oneof=user auto"`
}

// AskMeetingRequest represents a question about one meeting
type AskMeetingRequest struct {
	Question string `json:"question" validate:"required,notblank,max=2000"`
}
