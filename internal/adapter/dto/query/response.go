package query

import (
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/graphrag"
)

// ContextResponse carries the context bundle for a question
type ContextResponse struct {
	Bundle   *graphrag.Bundle `json:"bundle"`
	Rendered string           `json:"rendered,omitempty"`
}

// AnswerResponse carries an answer and the context it was built from
type AnswerResponse struct {
	Question       string           `json:"question"`
	Answer         string           `json:"answer"`
	ShortCircuited bool             `json:"short_circuited"`
	Context        *graphrag.Bundle `json:"context,omitempty"`
	Rendered       string           `json:"rendered,omitempty"`
}
