package entities

import "time"

// MeetingStats summarizes one meeting
type MeetingStats struct {
	SegmentCount    int64            `json:"segment_count"`
	ActionItemCount int64            `json:"action_item_count"`
	DecisionCount   int64            `json:"decision_count"`
	TopicCount      int64            `json:"topic_count"`
	PersonCount     int64            `json:"person_count"`
	SpeakerTurns    map[string]int64 `json:"speaker_turns"`
	Duration        time.Duration    `json:"duration"`
}

// GlobalStats summarizes the whole knowledge store
type GlobalStats struct {
	Meetings         int64 `json:"meetings"`
	Segments         int64 `json:"segments"`
	ActionItems      int64 `json:"action_items"`
	OpenActionItems  int64 `json:"open_action_items"`
	Decisions        int64 `json:"decisions"`
	People           int64 `json:"people"`
	Topics           int64 `json:"topics"`
	Relations        int64 `json:"relations"`
	KnowledgeSources int64 `json:"knowledge_sources"`
	KnowledgeChunks  int64 `json:"knowledge_chunks"`
}

// ActionItemWithMeeting is an action item joined with its meeting title
type ActionItemWithMeeting struct {
	ActionItem
	MeetingTitle string `json:"meeting_title"`
}

// DecisionWithMeeting is a decision joined with its meeting title
type DecisionWithMeeting struct {
	Decision
	MeetingTitle string `json:"meeting_title"`
}
