package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/query"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/assistant"
)

// Query handles question answering HTTP requests
type Query struct {
	assistant assistant.Service
	logger    *zap.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(assistantService assistant.Service, logger *zap.Logger) *Query {
	return &Query{
		assistant: assistantService,
		logger:    logger,
	}
}

// Context handles POST /query/context
// @Summary      Build the context bundle for a question
// @Description  Runs entity extraction, temporal parsing, graph traversal and vector search without calling the language model
// @Tags         Query
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      query.QuestionRequest  true  "Question"
// @Success      200      {object}  query.ContextResponse
// @Failure      400      {object}  map[string]interface{}  "Empty question"
// @Router       /query/context [post]
func (h *Query) Context(c echo.Context) error {
	var req query.QuestionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	bundle, err := h.assistant.Context(c.Request().Context(), req.Question)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := query.ContextResponse{Bundle: bundle}
	if req.Render {
		resp.Rendered = bundle.Render()
	}
	return HandleSuccess(h.logger, c, resp)
}

// Ask handles POST /query/ask
// @Summary      Answer a question
// @Description  Answers from the assembled context. Returns a fixed reply without calling the language model when nothing relevant is stored.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      query.QuestionRequest  true  "Question"
// @Success      200      {object}  query.AnswerResponse
// @Failure      502      {object}  map[string]interface{}  "Language model request failed"
// @Failure      503      {object}  map[string]interface{}  "Language model not configured"
// @Router       /query/ask [post]
func (h *Query) Ask(c echo.Context) error {
	var req query.QuestionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	answer, err := h.assistant.Ask(c.Request().Context(), req.Question)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	resp := query.AnswerResponse{
		Question:       answer.Question,
		Answer:         answer.Answer,
		ShortCircuited: answer.ShortCircuited,
		Context:        answer.Context,
	}
	if req.Render && answer.Context != nil {
		resp.Rendered = answer.Context.Render()
	}
	return HandleSuccess(h.logger, c, resp)
}
