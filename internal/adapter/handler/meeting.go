package handler

import (
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/assistant"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/ingest"
	knowledgeUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	meetingUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/meeting"
)

const (
	defaultMeetingLimit = 20
	maxListLimit        = 500
)

// Meeting handles meeting-related HTTP requests
type Meeting struct {
	meetingService   meetingUsecase.Service
	ingestService    ingest.Service
	knowledgeService knowledgeUsecase.Service
	assistant        assistant.Service
	now              func() time.Time
	logger           *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(
	meetingService meetingUsecase.Service,
	ingestService ingest.Service,
	knowledgeService knowledgeUsecase.Service,
	assistantService assistant.Service,
	logger *zap.Logger,
) *Meeting {
	return &Meeting{
		meetingService:   meetingService,
		ingestService:    ingestService,
		knowledgeService: knowledgeService,
		assistant:        assistantService,
		now:              time.Now,
		logger:           logger,
	}
}

// CreateMeeting handles POST /meetings
// @Summary      Start a meeting
// @Description  Creates a meeting that starts now
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      meeting.CreateMeetingRequest  true  "Meeting creation request"
// @Success      201      {object}  meeting.MeetingResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid request or validation failed"
// @Router       /meetings [post]
func (h *Meeting) CreateMeeting(c echo.Context) error {
	var req meeting.CreateMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetingService.CreateMeeting(c.Request().Context(), meetingUsecase.CreateMeetingInput{
		Title:        req.Title,
		Participants: req.Participants,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToMeetingResponse(m, h.now()))
}

// ListMeetings handles GET /meetings
// @Summary      List meetings
// @Description  Lists the most recent meetings, newest first
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of meetings"  default(20)
// @Success      200    {object}  common.ListResponse
// @Router       /meetings [get]
func (h *Meeting) ListMeetings(c echo.Context) error {
	var req meeting.ListMeetingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.Limit == 0 {
		req.Limit = defaultMeetingLimit
	}

	meetings, err := h.meetingService.GetMeetings(c.Request().Context(), req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(presenter.ToMeetingListResponse(meetings, h.now()), len(meetings)))
}

// GetMeeting handles GET /meetings/:id
// @Summary      Get meeting details
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [get]
func (h *Meeting) GetMeeting(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetingService.GetMeeting(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if m == nil {
		return HandleError(h.logger, c, errors.ErrMeetingNotFound(id.String()))
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m, h.now()))
}

// EndMeeting handles POST /meetings/:id/end
// @Summary      End a meeting
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Meeting ID (UUID)"
// @Param        request  body      meeting.EndMeetingRequest  false  "Optional summary"
// @Success      200      {object}  meeting.MeetingResponse
// @Failure      404      {object}  map[string]interface{}  "Meeting not found"
// @Failure      409      {object}  map[string]interface{}  "Meeting has already ended"
// @Router       /meetings/{id}/end [post]
func (h *Meeting) EndMeeting(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.EndMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetingService.EndMeeting(c.Request().Context(), id, req.Summary)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m, h.now()))
}

// UpdateSummary handles PUT /meetings/:id/summary
func (h *Meeting) UpdateSummary(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.UpdateSummaryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetingService.UpdateMeetingSummary(c.Request().Context(), id, req.Summary)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m, h.now()))
}

// DeleteMeeting handles DELETE /meetings/:id
// @Summary      Delete a meeting
// @Description  Deletes a meeting with its segments, action items, decisions, links and relations
// @Tags         Meetings
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  common.IDResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [delete]
func (h *Meeting) DeleteMeeting(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.meetingService.DeleteMeeting(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.IDResponse{ID: id.String()})
}

// AddSegment handles POST /meetings/:id/segments
// @Summary      Add a transcript segment
// @Description  Stores a segment and enriches the graph with the people, topics and relations it mentions.
// @Description  Embedding and extraction failures are reported in the enrichment field, the segment is still stored.
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Meeting ID (UUID)"
// @Param        request  body      meeting.AddSegmentRequest  true  "Segment"
// @Success      201      {object}  ingest.SegmentResult
// @Failure      400      {object}  map[string]interface{}  "Invalid request or time range"
// @Failure      404      {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id}/segments [post]
func (h *Meeting) AddSegment(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.AddSegmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.EndMs < req.StartMs {
		return HandleError(h.logger, c, errors.ErrInvalidTimeRange(req.StartMs, req.EndMs))
	}

	result, err := h.ingestService.AddSegment(c.Request().Context(), ingest.SegmentInput{
		MeetingID: id,
		Speaker:   req.Speaker,
		Text:      req.Text,
		StartMs:   req.StartMs,
		EndMs:     req.EndMs,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, result)
}

// GetSegments handles GET /meetings/:id/segments
func (h *Meeting) GetSegments(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	limit, err := queryInt(c, "limit", 0, 0)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	segments, err := h.meetingService.GetMeetingSegments(c.Request().Context(), id, limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(presenter.ToSegmentListResponse(segments), len(segments)))
}

// GetActionItems handles GET /meetings/:id/action-items
func (h *Meeting) GetActionItems(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	items, err := h.meetingService.GetMeetingActionItems(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(items, len(items)))
}

// GetDecisions handles GET /meetings/:id/decisions
func (h *Meeting) GetDecisions(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	decisions, err := h.meetingService.GetMeetingDecisions(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(decisions, len(decisions)))
}

// GetTopics handles GET /meetings/:id/topics
func (h *Meeting) GetTopics(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	topics, err := h.meetingService.GetMeetingTopics(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(topics, len(topics)))
}

// GetPeople handles GET /meetings/:id/people
func (h *Meeting) GetPeople(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	people, err := h.meetingService.GetMeetingPeople(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(people, len(people)))
}

// GetKnowledge handles GET /meetings/:id/knowledge
func (h *Meeting) GetKnowledge(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	linked, err := h.meetingService.GetMeetingKnowledge(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(linked, len(linked)))
}

// GetStats handles GET /meetings/:id/stats
func (h *Meeting) GetStats(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	stats, err := h.meetingService.GetMeetingStats(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if stats == nil {
		return HandleError(h.logger, c, errors.ErrMeetingNotFound(id.String()))
	}
	return HandleSuccess(h.logger, c, stats)
}

// AddActionItem handles POST /meetings/:id/action-items
// @Summary      Record an action item
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Meeting ID (UUID)"
// @Param        request  body      meeting.AddActionItemRequest  true  "Action item"
// @Success      201      {object}  entities.ActionItem
// @Failure      404      {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id}/action-items [post]
func (h *Meeting) AddActionItem(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.AddActionItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	item, err := h.meetingService.AddActionItem(c.Request().Context(), meetingUsecase.ActionItemInput{
		MeetingID: id,
		Text:      req.Text,
		Assignee:  req.Assignee,
		Deadline:  req.Deadline,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, item)
}

// AddDecision handles POST /meetings/:id/decisions
func (h *Meeting) AddDecision(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.AddDecisionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	decision, err := h.meetingService.AddDecision(c.Request().Context(), meetingUsecase.DecisionInput{
		MeetingID:    id,
		Text:         req.Text,
		Participants: req.Participants,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, decision)
}

// RelabelSpeakers handles POST /meetings/:id/relabel
// @Summary      Relabel speakers from diarized ranges
// @Description  Each segment takes the speaker of the range containing its midpoint.
// @Description  Only generic labels are replaced unless all is set.
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Meeting ID (UUID)"
// @Param        request  body      meeting.RelabelRequest  true  "Speaker ranges"
// @Success      200      {object}  meeting.RelabelResponse
// @Router       /meetings/{id}/relabel [post]
func (h *Meeting) RelabelSpeakers(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.RelabelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	for _, r := range req.Ranges {
		if r.EndMs < r.StartMs {
			return HandleError(h.logger, c, errors.ErrInvalidTimeRange(r.StartMs, r.EndMs))
		}
	}

	ranges := presenter.ToSpeakerRanges(req.Ranges)
	var n int
	if req.All {
		n, err = h.meetingService.RelabelAllSpeakers(c.Request().Context(), id, ranges)
	} else {
		n, err = h.meetingService.RelabelSpeakers(c.Request().Context(), id, ranges)
	}
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting.RelabelResponse{Relabeled: n})
}

// Diarize handles POST /meetings/:id/diarize
func (h *Meeting) Diarize(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.DiarizeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	out, err := h.meetingService.DiarizeAndRelabel(c.Request().Context(), id, req.AudioURL)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, out)
}

// Ask handles POST /meetings/:id/ask
// @Summary      Ask about one meeting
// @Description  Answers from the meeting transcript, action items and decisions
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Meeting ID (UUID)"
// @Param        request  body      meeting.AskMeetingRequest  true  "Question"
// @Success      200      {object}  assistant.Answer
// @Failure      503      {object}  map[string]interface{}  "Language model not configured"
// @Router       /meetings/{id}/ask [post]
func (h *Meeting) Ask(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.AskMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	answer, err := h.assistant.AskAboutMeeting(c.Request().Context(), id, req.Question)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, answer)
}

// Summarize handles POST /meetings/:id/summarize
// @Summary      Summarize a meeting with the language model
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      400  {object}  map[string]interface{}  "Meeting has no transcript"
// @Failure      503  {object}  map[string]interface{}  "Language model not configured"
// @Router       /meetings/{id}/summarize [post]
func (h *Meeting) Summarize(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.assistant.SummarizeMeeting(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m, h.now()))
}

// LinkKnowledge handles POST /meetings/:id/knowledge
func (h *Meeting) LinkKnowledge(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.LinkKnowledgeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	sourceID, err := uuid.Parse(req.SourceID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("source_id must be a valid UUID"))
	}

	err = h.knowledgeService.LinkKnowledgeToMeeting(c.Request().Context(), knowledgeUsecase.LinkInput{
		MeetingID:      id,
		SourceID:       sourceID,
		RelevanceScore: req.RelevanceScore,
		AssignedBy:     req.AssignedBy,
	})
	if stdErrors.Is(err, entities.ErrKnowledgeSourceNotFound) {
		return HandleError(h.logger, c, errors.ErrKnowledgeSourceNotFound(sourceID.String()))
	}
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, common.IDResponse{ID: sourceID.String()})
}
