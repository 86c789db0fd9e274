package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-knowledge/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/dto/query"
	"github.com/johnquangdev/meeting-knowledge/internal/adapter/presenter"
)

// ListActionItems handles GET /action-items
// @Summary      List action items across meetings
// @Description  status=open (default) lists pending items oldest first; status=all lists every item newest first
// @Tags         Action Items
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "open or all"  default(open)
// @Param        limit   query     int     false  "Maximum number of items"
// @Success      200     {object}  common.ListResponse
// @Router       /action-items [get]
func (h *Meeting) ListActionItems(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0, maxListLimit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	ctx := c.Request().Context()
	switch c.QueryParam("status") {
	case "", "open":
		items, err := h.meetingService.GetOpenActions(ctx, limit)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, common.NewList(items, len(items)))
	case "all":
		items, err := h.meetingService.GetAllActionItems(ctx, limit)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, common.NewList(items, len(items)))
	default:
		return HandleError(h.logger, c, errors.ErrInvalidArgument("status must be open or all"))
	}
}

// UpdateActionItemStatus handles PATCH /action-items/:id/status
// @Summary      Change an action item status
// @Tags         Action Items
// @Accept       json
// @Security     BearerAuth
// @Param        id       path      string                             true  "Action item ID (UUID)"
// @Param        request  body      meeting.UpdateActionStatusRequest  true  "New status"
// @Success      200      {object}  common.IDResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid status"
// @Failure      404      {object}  map[string]interface{}  "Action item not found"
// @Router       /action-items/{id}/status [patch]
func (h *Meeting) UpdateActionItemStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.UpdateActionStatusRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidStatus(req.Status))
	}

	if err := h.meetingService.UpdateActionItemStatus(c.Request().Context(), id, req.Status); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.IDResponse{ID: id.String()})
}

// ListDecisions handles GET /decisions. all=true lists every decision,
// otherwise the most recent ones.
func (h *Meeting) ListDecisions(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0, maxListLimit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	ctx := c.Request().Context()
	if c.QueryParam("all") == "true" {
		decisions, err := h.meetingService.GetAllDecisions(ctx, limit)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, common.NewList(decisions, len(decisions)))
	}
	decisions, err := h.meetingService.GetRecentDecisions(ctx, limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(decisions, len(decisions)))
}

// GlobalStats handles GET /stats
func (h *Meeting) GlobalStats(c echo.Context) error {
	stats, err := h.meetingService.GetGlobalStats(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, stats)
}

// SearchSegments handles GET /segments/search?q=
// @Summary      Search transcripts by text
// @Description  Case-insensitive substring match over all transcript segments
// @Tags         Query
// @Produce      json
// @Security     BearerAuth
// @Param        q      query     string  true   "Text to look for"
// @Param        limit  query     int     false  "Maximum number of segments"
// @Success      200    {object}  common.ListResponse
// @Router       /segments/search [get]
func (h *Meeting) SearchSegments(c echo.Context) error {
	var req query.SegmentSearchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	segments, err := h.meetingService.SearchText(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.NewList(presenter.ToSegmentListResponse(segments), len(segments)))
}
