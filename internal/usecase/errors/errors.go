package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Ingestion errors
var (
	ErrMissingURL      = errors.New("source url is required")
	ErrEmptyContent    = errors.New("content is empty")
	ErrEmptyNotionPage = errors.New("notion page has no text content")
	ErrEmptyWebPage    = errors.New("web page has no text content")
	ErrEmptyTranscript = errors.New("meeting has no transcript")
)

// Query errors
var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrEmptyQuery    = errors.New("query is empty")
)

// Collaborator errors
var (
	ErrCompleterDisabled = errors.New("language model is not configured")
	ErrDiarizerDisabled  = errors.New("diarization service is not configured")
	ErrNotionDisabled    = errors.New("notion integration is not configured")
	ErrCrawlerDisabled   = errors.New("web crawling is not configured")
	ErrNoSpeakerTurns    = errors.New("diarization returned no speaker turns")

	ErrEmbeddingFailed   = errors.New("embedding failed")
	ErrCompletionFailed  = errors.New("completion failed")
	ErrDiarizationFailed = errors.New("diarization failed")
	ErrPageLoadFailed    = errors.New("notion page could not be loaded")
	ErrFetchFailed       = errors.New("web page could not be fetched")
)
