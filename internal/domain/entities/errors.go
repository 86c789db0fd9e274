package entities

import "errors"

// Domain errors
var (
	// Meeting errors
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrMeetingAlreadyEnded = errors.New("meeting already ended")
	ErrInvalidTimeRange    = errors.New("segment end precedes start")

	// Action item errors
	ErrActionItemNotFound = errors.New("action item not found")
	ErrInvalidStatus      = errors.New("invalid action item status")

	// Knowledge errors
	ErrKnowledgeSourceNotFound = errors.New("knowledge source not found")
	ErrEmptyContent            = errors.New("content is empty")
	ErrInvalidSourceType       = errors.New("invalid source type")

	// Graph errors
	ErrInvalidProvenance = errors.New("relation must belong to exactly one meeting or knowledge source")
	ErrEmptyEntityName   = errors.New("entity name is empty")
)
