package assistant

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/graphrag"
)

// Service defines the interface for question answering
type Service interface {
	// Ask answers a question from the whole knowledge base
	Ask(ctx context.Context, question string) (*Answer, error)

	// AskAboutMeeting answers a question from one meeting's record
	AskAboutMeeting(ctx context.Context, meetingID uuid.UUID, question string) (*Answer, error)

	// SummarizeMeeting stores a language model summary of a meeting
	SummarizeMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error)

	// Context returns the bundle Ask would send to the language model
	Context(ctx context.Context, question string) (*graphrag.Bundle, error)
}

// Querier builds the context bundle for a question
type Querier interface {
	Query(ctx context.Context, question string) (*graphrag.Bundle, error)
}

// Answer is the reply to a question. ShortCircuited is set when the
// answer was produced without calling the language model.
type Answer struct {
	Question       string           `json:"question"`
	Answer         string           `json:"answer"`
	ShortCircuited bool             `json:"short_circuited"`
	Context        *graphrag.Bundle `json:"context,omitempty"`
}

// Ensure Assistant implements Service interface
var _ Service = (*Assistant)(nil)
