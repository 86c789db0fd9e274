package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/knowledge"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/ingest"
	knowledgeUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
)

const (
	defaultSearchLimit       = 5
	defaultRelationshipLimit = 20
)

// Knowledge handles knowledge base HTTP requests
type Knowledge struct {
	knowledgeService knowledgeUsecase.Service
	ingestService    ingest.Service
	logger           *zap.Logger
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(knowledgeService knowledgeUsecase.Service, ingestService ingest.Service, logger *zap.Logger) *Knowledge {
	return &Knowledge{
		knowledgeService: knowledgeService,
		ingestService:    ingestService,
		logger:           logger,
	}
}

// AddSource handles POST /knowledge/sources
// @Summary      Ingest a document
// @Description  Chunks, embeds and stores a document. A source with the same URL is replaced.
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      knowledge.AddSourceRequest  true  "Document"
// @Success      201      {object}  knowledge.IngestResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid request or empty content"
// @Router       /knowledge/sources [post]
func (h *Knowledge) AddSource(c echo.Context) error {
	var req knowledge.AddSourceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.ingestService.AddKnowledgeSource(c.Request().Context(), ingest.SourceInput{
		URL:        req.URL,
		Title:      req.Title,
		Content:    req.Content,
		SourceType: req.SourceType,
		Tags:       req.Tags,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToIngestResponse(result))
}

// ImportNotion handles POST /knowledge/notion
// @Summary      Import a Notion page
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      knowledge.ImportNotionRequest  true  "Notion page"
// @Success      201      {object}  knowledge.IngestResponse
// @Failure      502      {object}  map[string]interface{}  "Notion API failed"
// @Failure      503      {object}  map[string]interface{}  "Notion integration not configured"
// @Router       /knowledge/notion [post]
func (h *Knowledge) ImportNotion(c echo.Context) error {
	var req knowledge.ImportNotionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.ingestService.ImportNotionPage(c.Request().Context(), strings.TrimSpace(req.PageID), req.Tags)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToIngestResponse(result))
}

// Crawl handles POST /knowledge/crawl
// @Summary      Fetch and ingest a web page
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      knowledge.CrawlRequest  true  "Page URL"
// @Success      201      {object}  knowledge.IngestResponse
// @Failure      502      {object}  map[string]interface{}  "Page could not be fetched"
// @Failure      503      {object}  map[string]interface{}  "Crawling not configured"
// @Router       /knowledge/crawl [post]
func (h *Knowledge) Crawl(c echo.Context) error {
	var req knowledge.CrawlRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.ingestService.CrawlURL(c.Request().Context(), req.URL, req.Tags)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToIngestResponse(result))
}

// ListSources handles GET /knowledge/sources?tag=a&tag=b
func (h *Knowledge) ListSources(c echo.Context) error {
	var req knowledge.ListSourcesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	sources, err := h.knowledgeService.GetKnowledgeSources(c.Request().Context(), req.Tags)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(presenter.ToSourceListResponse(sources), len(sources)))
}

// GetSource handles GET /knowledge/sources/:id
func (h *Knowledge) GetSource(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	detail, err := h.knowledgeService.GetKnowledgeSource(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSourceDetailResponse(detail))
}

// DeleteSource handles DELETE /knowledge/sources/:id
// @Summary      Delete a knowledge source
// @Description  Removes the source, its chunks, meeting links, relations and archived body
// @Tags         Knowledge
// @Security     BearerAuth
// @Param        id   path      string  true  "Source ID (UUID)"
// @Success      200  {object}  common.IDResponse
// @Failure      404  {object}  map[string]interface{}  "Knowledge source not found"
// @Router       /knowledge/sources/{id} [delete]
func (h *Knowledge) DeleteSource(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.knowledgeService.DeleteKnowledgeSource(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.IDResponse{ID: id.String()})
}

// UpdateTags handles PUT /knowledge/sources/:id/tags
func (h *Knowledge) UpdateTags(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req knowledge.UpdateTagsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.knowledgeService.UpdateSourceTags(c.Request().Context(), id, req.Tags); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.IDResponse{ID: id.String()})
}

// Search handles POST /knowledge/search
// @Summary      Similarity search
// @Description  Ranks document chunks, and transcript segments when no tags are given, by cosine similarity
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      knowledge.SearchRequest  true  "Query"
// @Success      200      {object}  common.ListResponse
// @Failure      503      {object}  map[string]interface{}  "Embedding service not configured"
// @Router       /knowledge/search [post]
func (h *Knowledge) Search(c echo.Context) error {
	var req knowledge.SearchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.Limit == 0 {
		req.Limit = defaultSearchLimit
	}

	var (
		hits []knowledgeUsecase.SearchHit
		err  error
	)
	if req.SegmentsOnly {
		hits, err = h.knowledgeService.SearchSimilarSegments(c.Request().Context(), req.Query, req.Limit)
	} else {
		hits, err = h.knowledgeService.SearchKnowledge(c.Request().Context(), req.Query, req.Limit, req.Tags)
	}
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(hits, len(hits)))
}

// Cleanup handles POST /knowledge/cleanup
func (h *Knowledge) Cleanup(c echo.Context) error {
	n, err := h.knowledgeService.CleanupOrphanedChunks(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.CountResponse{Count: n})
}

// EntityRelationships handles GET /entities/:name/relationships
// @Summary      Relations of an entity
// @Description  Lists extracted relations where the entity is source or target, strongest first
// @Tags         Graph
// @Produce      json
// @Security     BearerAuth
// @Param        name   path      string  true   "Entity name"
// @Param        limit  query     int     false  "Maximum number of relations"  default(20)
// @Success      200    {object}  common.ListResponse
// @Router       /entities/{name}/relationships [get]
func (h *Knowledge) EntityRelationships(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("entity name is required"))
	}
	limit, err := queryInt(c, "limit", defaultRelationshipLimit, maxListLimit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	relations, err := h.knowledgeService.GetEntityRelationships(c.Request().Context(), name, limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(relations, len(relations)))
}
