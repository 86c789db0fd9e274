package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-knowledge/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	meetingHandler   *Meeting
	knowledgeHandler *Knowledge
	queryHandler     *Query
	// auth is applied to the whole /v1 group; nil disables authentication
	auth []echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	meetingHandler *Meeting,
	knowledgeHandler *Knowledge,
	queryHandler *Query,
	auth ...echo.MiddlewareFunc,
) *Router {
	return &Router{
		cfg:              cfg,
		meetingHandler:   meetingHandler,
		knowledgeHandler: knowledgeHandler,
		queryHandler:     queryHandler,
		auth:             auth,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1", rt.auth...)

	rt.setupMeetingRoutes(v1)
	rt.setupKnowledgeRoutes(v1)
	rt.setupQueryRoutes(v1)
}

// setupMeetingRoutes configures meeting, action item and decision routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings")
	actions := g.Group("/action-items")

	h := rt.meetingHandler
	if h == nil {
		meetings.Any("*", rt.notImplemented)
		actions.Any("*", rt.notImplemented)
		g.GET("/decisions", rt.notImplemented)
		g.GET("/stats", rt.notImplemented)
		return
	}

	meetings.POST("", h.CreateMeeting)
	meetings.GET("", h.ListMeetings)
	meetings.GET("/:id", h.GetMeeting)
	meetings.POST("/:id/end", h.EndMeeting)
	meetings.PUT("/:id/summary", h.UpdateSummary)
	meetings.DELETE("/:id", h.DeleteMeeting)

	meetings.POST("/:id/segments", h.AddSegment)
	meetings.GET("/:id/segments", h.GetSegments)
	meetings.POST("/:id/action-items", h.AddActionItem)
	meetings.GET("/:id/action-items", h.GetActionItems)
	meetings.POST("/:id/decisions", h.AddDecision)
	meetings.GET("/:id/decisions", h.GetDecisions)
	meetings.GET("/:id/topics", h.GetTopics)
	meetings.GET("/:id/people", h.GetPeople)
	meetings.POST("/:id/knowledge", h.LinkKnowledge)
	meetings.GET("/:id/knowledge", h.GetKnowledge)
	meetings.GET("/:id/stats", h.GetStats)

	meetings.POST("/:id/relabel", h.RelabelSpeakers)
	meetings.POST("/:id/diarize", h.Diarize)
	meetings.POST("/:id/ask", h.Ask)
	meetings.POST("/:id/summarize", h.Summarize)

	actions.GET("", h.ListActionItems)
	actions.PATCH("/:id/status", h.UpdateActionItemStatus)

	g.GET("/decisions", h.ListDecisions)
	g.GET("/stats", h.GlobalStats)
	g.GET("/segments/search", h.SearchSegments)
}

// setupKnowledgeRoutes configures knowledge base and graph routes
func (rt *Router) setupKnowledgeRoutes(g *echo.Group) {
	kb := g.Group("/knowledge")

	h := rt.knowledgeHandler
	if h == nil {
		kb.Any("*", rt.notImplemented)
		return
	}

	kb.POST("/sources", h.AddSource)
	kb.GET("/sources", h.ListSources)
	kb.GET("/sources/:id", h.GetSource)
	kb.DELETE("/sources/:id", h.DeleteSource)
	kb.PUT("/sources/:id/tags", h.UpdateTags)
	kb.POST("/notion", h.ImportNotion)
	kb.POST("/crawl", h.Crawl)
	kb.POST("/search", h.Search)
	kb.POST("/cleanup", h.Cleanup)

	g.GET("/entities/:name/relationships", h.EntityRelationships)
}

// setupQueryRoutes configures question answering routes
func (rt *Router) setupQueryRoutes(g *echo.Group) {
	q := g.Group("/query")

	if rt.queryHandler == nil {
		q.Any("*", rt.notImplemented)
		return
	}

	q.POST("/context", rt.queryHandler.Context)
	q.POST("/ask", rt.queryHandler.Ask)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "unknown"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
