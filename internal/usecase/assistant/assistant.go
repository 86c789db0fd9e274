package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/graphrag"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
)

// NoContextAnswer is returned when nothing in the knowledge base relates
// to the question
const NoContextAnswer = "I couldn't find any relevant information in your knowledge base to answer this question."

// EmptyMeetingAnswer is returned when a meeting has nothing recorded yet
const EmptyMeetingAnswer = "This meeting has no transcript, action items or decisions recorded yet."

// transcripts longer than this are cut before prompting
const maxTranscriptChars = 30000

// Assistant answers questions with a language model grounded in the
// knowledge base
type Assistant struct {
	querier   Querier
	completer ai.Completer
	meetings  repositories.MeetingRepository
	logger    *zap.Logger
}

// NewAssistant creates a new assistant. completer may be nil, in which
// case only short-circuited answers are possible.
func NewAssistant(querier Querier, completer ai.Completer, meetings repositories.MeetingRepository, logger *zap.Logger) *Assistant {
	return &Assistant{
		querier:   querier,
		completer: completer,
		meetings:  meetings,
		logger:    logger,
	}
}

// Context returns the bundle for question
func (a *Assistant) Context(ctx context.Context, question string) (*graphrag.Bundle, error) {
	return a.querier.Query(ctx, question)
}

// Ask answers question from the whole knowledge base. An empty bundle
// yields NoContextAnswer without calling the language model.
func (a *Assistant) Ask(ctx context.Context, question string) (*Answer, error) {
	bundle, err := a.querier.Query(ctx, question)
	if err != nil {
		return nil, err
	}

	if bundle.IsEmpty() {
		if a.logger != nil {
			a.logger.Info("No context found, skipping language model", zap.String("question", bundle.Question))
		}
		return &Answer{
			Question:       bundle.Question,
			Answer:         NoContextAnswer,
			ShortCircuited: true,
			Context:        bundle,
		}, nil
	}

	if a.completer == nil {
		return nil, usecaseErrors.ErrCompleterDisabled
	}

	started := time.Now()
	reply, err := a.completer.Complete(ctx, systemPrompt, buildPrompt(bundle))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrCompletionFailed, err)
	}

	if a.logger != nil {
		a.logger.Info("Question answered",
			zap.Int("context_chars", len(bundle.Render())),
			zap.Duration("elapsed", time.Since(started)))
	}
	return &Answer{
		Question: bundle.Question,
		Answer:   strings.TrimSpace(reply),
		Context:  bundle,
	}, nil
}

// AskAboutMeeting answers question from one meeting's transcript, action
// items and decisions
func (a *Assistant) AskAboutMeeting(ctx context.Context, meetingID uuid.UUID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, usecaseErrors.ErrEmptyQuestion
	}

	rec, err := a.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if len(rec.segments) == 0 && len(rec.items) == 0 && len(rec.decisions) == 0 {
		return &Answer{Question: question, Answer: EmptyMeetingAnswer, ShortCircuited: true}, nil
	}
	if a.completer == nil {
		return nil, usecaseErrors.ErrCompleterDisabled
	}

	prompt := buildMeetingPrompt(rec.meeting, rec.segments, rec.items, rec.decisions, question)
	reply, err := a.completer.Complete(ctx, meetingSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrCompletionFailed, err)
	}
	return &Answer{Question: question, Answer: strings.TrimSpace(reply)}, nil
}

// SummarizeMeeting writes a summary of the meeting transcript with the
// language model and stores it on the meeting
func (a *Assistant) SummarizeMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error) {
	rec, err := a.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if len(rec.segments) == 0 {
		return nil, usecaseErrors.ErrEmptyTranscript
	}
	if a.completer == nil {
		return nil, usecaseErrors.ErrCompleterDisabled
	}

	started := time.Now()
	reply, err := a.completer.Complete(ctx, summarySystemPrompt, buildSummaryPrompt(rec.meeting, rec.segments))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrCompletionFailed, err)
	}
	summary := strings.TrimSpace(reply)
	if summary == "" {
		return nil, fmt.Errorf("%w: empty summary", usecaseErrors.ErrCompletionFailed)
	}

	rec.meeting.Summary = &summary
	if err := a.meetings.Update(ctx, rec.meeting); err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}
	if a.logger != nil {
		a.logger.Info("Meeting summarized",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("segments", len(rec.segments)),
			zap.Duration("elapsed", time.Since(started)))
	}
	return rec.meeting, nil
}

type meetingRecord struct {
	meeting   *entities.Meeting
	segments  []*entities.Segment
	items     []*entities.ActionItem
	decisions []*entities.Decision
}

func (a *Assistant) loadMeeting(ctx context.Context, meetingID uuid.UUID) (*meetingRecord, error) {
	meeting, err := a.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return nil, entities.ErrMeetingNotFound
	}

	rec := &meetingRecord{meeting: meeting}
	if rec.segments, err = a.meetings.ListSegments(ctx, meetingID, 0); err != nil {
		return nil, fmt.Errorf("failed to get segments: %w", err)
	}
	if rec.items, err = a.meetings.ListActionItems(ctx, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get action items: %w", err)
	}
	if rec.decisions, err = a.meetings.ListDecisions(ctx, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get decisions: %w", err)
	}
	return rec, nil
}
