package knowledge

// AddSourceRequest represents a document to ingest
type AddSourceRequest struct {
	URL        string                 `json:"url" validate:"required,max=2048"`
	Title      string                 `json:"title" validate:"max=512"`
	Content    string                 `json:"content" validate:"required,notblank"`
	SourceType string                 `json:"source_type" validate:"omitempty,oneof=web pdf markdown text notion file"`
	Tags       []string               `json:"tags,omitempty" validate:"omitempty,dive,max=100"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ImportNotionRequest names a Notion page to ingest
type ImportNotionRequest struct {
	PageID string   `json:"page_id" validate:"required,notblank"`
	Tags   []string `json:"tags,omitempty"`
}

// CrawlRequest names a web page to fetch and ingest
type CrawlRequest struct {
	URL  string   `json:"url" validate:"required,notblank"`
	Tags []string `json:"tags,omitempty"`
}

// ListSourcesRequest filters sources by tag
type ListSourcesRequest struct {
	Tags []string `query:"tag"`
}

// UpdateTagsRequest replaces the tags of a source
type UpdateTagsRequest struct {
	Tags []string `json:"tags" validate:"dive,max=100"`
}

// SearchRequest represents a similarity search
type SearchRequest struct {
	Query string   `json:"query" validate:"required,notblank,max=2000"`
	Limit int      `json:"limit" validate:"omitempty,min=1,max=50"`
	Tags  []string `json:"tags,omitempty"`
	// SegmentsOnly restricts the search to meeting transcripts
	SegmentsOnly bool `json:"segments_only"`
}
