package query

// QuestionRequest carries a free-text question
type QuestionRequest struct {
	Question string `json:"question" validate:"required,notblank,max=2000"`
	// Render adds the plain-text rendering of the context bundle
	Render bool `json:"render"`
}

// SegmentSearchRequest is a case-insensitive text search over transcripts
type SegmentSearchRequest struct {
	Query string `query:"q" validate:"required,notblank"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=200"`
}
