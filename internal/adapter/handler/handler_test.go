package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-knowledge/internal/testutil"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/assistant"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/graphrag"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/ingest"
	knowledgeUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	meetingUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	"github.com/johnquangdev/meeting-knowledge/pkg/config"
	"github.com/johnquangdev/meeting-knowledge/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-knowledge/pkg/validator"
)

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Info    string            `json:"info"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	e     *echo.Echo
	store *testutil.Store
}

func newTestServer(t *testing.T, completer ai.Completer, auth ...echo.MiddlewareFunc) *testServer {
	t.Helper()
	store := testutil.NewStore(t)
	embedder := testutil.NewEmbedder()
	extractor := &testutil.Extractor{Known: map[string]string{"Priya": ai.LabelPerson, "budget": ai.LabelTopic}}
	logger := zap.NewNop()

	meetings := meetingUsecase.NewMeetingService(store.Meetings, store.Graph, store.Knowledge, nil, logger)
	kb := knowledgeUsecase.NewKnowledgeService(store.Knowledge, store.Vectors, store.Graph, store.Meetings, embedder, nil, logger)
	coordinator := ingest.NewCoordinator(store.Meetings, store.Graph, store.Knowledge, embedder, extractor, ingest.DefaultOptions(), logger)
	engine := graphrag.NewEngine(extractor, store.Meetings, store.Graph, kb, graphrag.DefaultOptions(), logger)
	asst := assistant.NewAssistant(engine, completer, store.Meetings, logger)

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = ErrorHandler(logger)

	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg,
		NewMeetingHandler(meetings, coordinator, kb, asst, logger),
		NewKnowledgeHandler(kb, coordinator, logger),
		NewQueryHandler(asst, logger),
		auth...,
	).Setup(e)

	return &testServer{e: e, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var payload *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = strings.NewReader(string(raw))
	} else {
		payload = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func (ts *testServer) createMeeting(t *testing.T, title string) string {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/v1/meetings", map[string]interface{}{
		"title":        title,
		"participants": []string{"Priya", "Sam"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m struct {
		ID string `json:"id"`
	}
	decode(t, env, &m)
	return m.ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec, _ := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"environment":"test"`)
}

func TestMeetingLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createMeeting(t, "Budget review")

	rec, env := ts.do(t, http.MethodGet, "/v1/meetings/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_HTTP_OK), env.Code)
	var m struct {
		Title        string   `json:"title"`
		IsActive     bool     `json:"is_active"`
		Participants []string `json:"participants"`
	}
	decode(t, env, &m)
	assert.Equal(t, "Budget review", m.Title)
	assert.True(t, m.IsActive)
	assert.Equal(t, []string{"Priya", "Sam"}, m.Participants)

	rec, env = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/end", map[string]string{"summary": "Cut travel"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &m)
	assert.False(t, m.IsActive)

	rec, env = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/end", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_MEETING_ALREADY_ENDED), env.Code)

	rec, _ = ts.do(t, http.MethodPut, "/v1/meetings/"+id+"/summary", map[string]string{"summary": "Travel frozen"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/v1/meetings?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, env, &list)
	assert.Equal(t, 1, list.Count)

	rec, _ = ts.do(t, http.MethodDelete, "/v1/meetings/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/v1/meetings/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_MEETING_NOT_FOUND), env.Code)
	assert.Equal(t, id, env.Details["meeting_id"])

	rec, _ = ts.do(t, http.MethodDelete, "/v1/meetings/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMeeting_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/v1/meetings", map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_INVALID_ARGUMENT), env.Code)
	assert.Equal(t, "notblank", env.Details["title"])

	req := httptest.NewRequest(http.MethodPost, "/v1/meetings", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	raw := httptest.NewRecorder()
	ts.e.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
	assert.Contains(t, raw.Body.String(), fmt.Sprint(int(errors.ErrorCode_INVALID_PAYLOAD)))

	rec, _ = ts.do(t, http.MethodGet, "/v1/meetings/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSegments_RoundTripAndEnrichment(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createMeeting(t, "Planning")

	rec, env := ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/segments", map[string]interface{}{
		"speaker":  "Priya",
		"text":     "Priya will review the budget by Friday",
		"start_ms": 1000,
		"end_ms":   4000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Enrichment struct {
			Status string `json:"status"`
		} `json:"enrichment"`
		PeopleCreated int `json:"people_created"`
		TopicsCreated int `json:"topics_created"`
	}
	decode(t, env, &result)
	assert.Equal(t, "ok", result.Enrichment.Status)
	assert.Equal(t, 1, result.PeopleCreated)
	assert.Equal(t, 1, result.TopicsCreated)

	rec, env = ts.do(t, http.MethodGet, "/v1/meetings/"+id+"/segments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var segs struct {
		Items []struct {
			Speaker string `json:"speaker"`
			Text    string `json:"text"`
			StartMs int64  `json:"start_ms"`
			EndMs   int64  `json:"end_ms"`
		} `json:"items"`
	}
	decode(t, env, &segs)
	require.Len(t, segs.Items, 1)
	assert.Equal(t, "Priya", segs.Items[0].Speaker)
	assert.Equal(t, "Priya will review the budget by Friday", segs.Items[0].Text)
	assert.Equal(t, int64(1000), segs.Items[0].StartMs)
	assert.Equal(t, int64(4000), segs.Items[0].EndMs)

	rec, env = ts.do(t, http.MethodGet, "/v1/meetings/"+id+"/people", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Priya")

	rec, env = ts.do(t, http.MethodGet, "/v1/segments/search?q=BUDGET", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found struct {
		Count int `json:"count"`
	}
	decode(t, env, &found)
	assert.Equal(t, 1, found.Count)

	rec, env = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/segments", map[string]interface{}{
		"text": "backwards", "start_ms": 5000, "end_ms": 1000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_INVALID_TIME_RANGE), env.Code)
}

func TestRelabelSpeakers(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createMeeting(t, "Sync")
	for i, start := range []int64{0, 10000, 20000} {
		rec, _ := ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/segments", map[string]interface{}{
			"speaker": "Unknown", "text": fmt.Sprintf("line %d", i), "start_ms": start, "end_ms": start + 10000,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/relabel", map[string]interface{}{
		"ranges": []map[string]interface{}{
			{"start_ms": 0, "end_ms": 9999, "speaker_id": "Speaker 1"},
			{"start_ms": 10000, "end_ms": 19999, "speaker_id": "Speaker 2"},
			{"start_ms": 20000, "end_ms": 29999, "speaker_id": "Speaker 3"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Relabeled int `json:"relabeled"`
	}
	decode(t, env, &out)
	assert.Equal(t, 3, out.Relabeled)

	rec, _ = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/relabel", map[string]interface{}{"ranges": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/diarize", map[string]string{"audio_url": "https://files.test/a.wav"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AI_SERVICE_DISABLED), env.Code)
}

func TestActionItemsAndDecisions(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createMeeting(t, "Launch")

	rec, env := ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/action-items", map[string]string{
		"text": "Ship the checklist", "assignee": "Priya", "deadline": "Friday",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var item struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env, &item)
	assert.Equal(t, "open", item.Status)

	rec, _ = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/decisions", map[string]interface{}{
		"text": "Launch on Monday", "participants": []string{"Priya"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/v1/action-items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"meeting_title":"Launch"`)

	rec, env = ts.do(t, http.MethodPatch, "/v1/action-items/"+item.ID+"/status", map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_INVALID_STATUS), env.Code)

	rec, _ = ts.do(t, http.MethodPatch, "/v1/action-items/"+item.ID+"/status", map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/v1/action-items?status=open", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var open struct {
		Count int `json:"count"`
	}
	decode(t, env, &open)
	assert.Zero(t, open.Count)

	rec, env = ts.do(t, http.MethodGet, "/v1/action-items?status=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env, &open)
	assert.Equal(t, 1, open.Count)

	rec, env = ts.do(t, http.MethodGet, "/v1/decisions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Launch on Monday")

	rec, env = ts.do(t, http.MethodGet, "/v1/meetings/"+id+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		ActionItemCount int64 `json:"action_item_count"`
		DecisionCount   int64 `json:"decision_count"`
	}
	decode(t, env, &stats)
	assert.Equal(t, int64(1), stats.ActionItemCount)
	assert.Equal(t, int64(1), stats.DecisionCount)

	rec, env = ts.do(t, http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"meetings":1`)
}

func TestKnowledgeSources(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/v1/knowledge/sources", map[string]interface{}{
		"url":     "https://wiki.test/refunds",
		"title":   "Refund policy",
		"content": "Refunds are issued within 30 days of purchase.\n\nContact support for refunds.",
		"tags":    []string{"Policy"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ingested struct {
		Source struct {
			ID   string   `json:"id"`
			Tags []string `json:"tags"`
		} `json:"source"`
		ChunkCount int `json:"chunk_count"`
	}
	decode(t, env, &ingested)
	assert.Equal(t, 1, ingested.ChunkCount)
	sourceID := ingested.Source.ID

	rec, env = ts.do(t, http.MethodGet, "/v1/knowledge/sources/"+sourceID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		ChunkCount int64 `json:"chunk_count"`
	}
	decode(t, env, &detail)
	assert.Equal(t, int64(1), detail.ChunkCount)

	rec, env = ts.do(t, http.MethodPost, "/v1/knowledge/search", map[string]interface{}{"query": "refunds purchase", "limit": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	var hits struct {
		Items []struct {
			Kind       string  `json:"kind"`
			SourceID   string  `json:"source_id"`
			Similarity float64 `json:"similarity"`
		} `json:"items"`
	}
	decode(t, env, &hits)
	require.NotEmpty(t, hits.Items)
	assert.LessOrEqual(t, len(hits.Items), 3)
	assert.Equal(t, "document", hits.Items[0].Kind)
	assert.Equal(t, sourceID, hits.Items[0].SourceID)

	rec, _ = ts.do(t, http.MethodPut, "/v1/knowledge/sources/"+sourceID+"/tags", map[string]interface{}{"tags": []string{"finance"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = ts.do(t, http.MethodGet, "/v1/knowledge/sources?tag=finance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), sourceID)

	meetingID := ts.createMeeting(t, "Support sync")
	rec, _ = ts.do(t, http.MethodPost, "/v1/meetings/"+meetingID+"/knowledge", map[string]interface{}{
		"source_id": sourceID, "relevance_score": 0.8,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, env = ts.do(t, http.MethodGet, "/v1/meetings/"+meetingID+"/knowledge", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Refund policy")

	rec, _ = ts.do(t, http.MethodDelete, "/v1/knowledge/sources/"+sourceID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/v1/knowledge/sources/"+sourceID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_KNOWLEDGE_SOURCE_NOT_FOUND), env.Code)

	rec, env = ts.do(t, http.MethodPost, "/v1/knowledge/cleanup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cleaned struct {
		Count int64 `json:"count"`
	}
	decode(t, env, &cleaned)
	assert.Zero(t, cleaned.Count)

	rec, env = ts.do(t, http.MethodPost, "/v1/knowledge/notion", map[string]string{"page_id": "abc"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AI_SERVICE_DISABLED), env.Code)
}

func TestQuery_EmptyStoreShortCircuits(t *testing.T) {
	completer := &testutil.Completer{Reply: "unused"}
	ts := newTestServer(t, completer)

	rec, env := ts.do(t, http.MethodPost, "/v1/query/ask", map[string]interface{}{"question": "What is our refund policy?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ans struct {
		Answer         string `json:"answer"`
		ShortCircuited bool   `json:"short_circuited"`
	}
	decode(t, env, &ans)
	assert.True(t, ans.ShortCircuited)
	assert.Equal(t, assistant.NoContextAnswer, ans.Answer)
	assert.Empty(t, completer.Prompts())

	rec, env = ts.do(t, http.MethodPost, "/v1/query/ask", map[string]interface{}{"question": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_INVALID_ARGUMENT), env.Code)
}

func TestQuery_ContextAndAnswer(t *testing.T) {
	completer := &testutil.Completer{Reply: " Priya owns the budget review. "}
	ts := newTestServer(t, completer)
	id := ts.createMeeting(t, "Budget review")
	rec, _ := ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/segments", map[string]interface{}{
		"speaker": "Priya", "text": "Priya will review the budget by Friday", "start_ms": 0, "end_ms": 3000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := ts.do(t, http.MethodPost, "/v1/query/context", map[string]interface{}{
		"question": "What did Priya say about the budget?", "render": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ctxResp struct {
		Bundle struct {
			Meetings []json.RawMessage `json:"meetings"`
		} `json:"bundle"`
		Rendered string `json:"rendered"`
	}
	decode(t, env, &ctxResp)
	assert.NotEmpty(t, ctxResp.Bundle.Meetings)
	assert.Contains(t, ctxResp.Rendered, "Budget review")

	rec, env = ts.do(t, http.MethodPost, "/v1/query/ask", map[string]interface{}{"question": "What did Priya say about the budget?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ans struct {
		Answer         string `json:"answer"`
		ShortCircuited bool   `json:"short_circuited"`
	}
	decode(t, env, &ans)
	assert.False(t, ans.ShortCircuited)
	assert.Equal(t, "Priya owns the budget review.", ans.Answer)
	assert.Len(t, completer.Prompts(), 1)

	rec, env = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/ask", map[string]interface{}{"question": "Who reviews the budget?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), "Priya owns the budget review.")
}

func TestQuery_WithoutLanguageModel(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createMeeting(t, "Budget review")
	rec, _ := ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/segments", map[string]interface{}{
		"speaker": "Priya", "text": "Priya will review the budget", "start_ms": 0, "end_ms": 3000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := ts.do(t, http.MethodPost, "/v1/query/ask", map[string]interface{}{"question": "What about the budget?"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AI_SERVICE_DISABLED), env.Code)
	assert.Equal(t, "llm", env.Details["service"])
}

func TestAuth_Scopes(t *testing.T) {
	tokens := jwt.NewManager("secret", "meeting-knowledge", time.Hour)
	auth := middleware.NewAuthMiddleware(tokens, nil)
	ts := newTestServer(t, nil, auth.Authenticate, auth.RequireWriteOnMutations)

	rec, env := ts.do(t, http.MethodGet, "/v1/meetings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_UNAUTHENTICATED), env.Code)

	rec, env = ts.do(t, http.MethodGet, "/v1/meetings", nil, echo.HeaderAuthorization, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AUTH_INVALID_TOKEN), env.Code)

	reader, err := tokens.GenerateToken("dashboard", []string{jwt.ScopeRead})
	require.NoError(t, err)
	writer, err := tokens.GenerateToken("desktop", []string{jwt.ScopeWrite})
	require.NoError(t, err)

	rec, _ = ts.do(t, http.MethodGet, "/v1/meetings", nil, echo.HeaderAuthorization, "Bearer "+reader)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := map[string]string{"title": "Standup"}
	rec, env = ts.do(t, http.MethodPost, "/v1/meetings", body, echo.HeaderAuthorization, "Bearer "+reader)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_FORBIDDEN), env.Code)

	rec, _ = ts.do(t, http.MethodPost, "/v1/meetings", body, echo.HeaderAuthorization, "Bearer "+writer)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code errors.ErrorCode
		http int
	}{
		{"store down", fmt.Errorf("failed to get meeting: %w", context.DeadlineExceeded), errors.ErrorCode_STORE_UNAVAILABLE, http.StatusServiceUnavailable},
		{"refused", fmt.Errorf("dial tcp 127.0.0.1:5432: connection refused"), errors.ErrorCode_STORE_UNAVAILABLE, http.StatusServiceUnavailable},
		{"query failed", fmt.Errorf("no such table: meetings"), errors.ErrorCode_DB_QUERY_FAILED, http.StatusInternalServerError},
		{"embedder disabled", fmt.Errorf("embed: %w", ai.ErrDisabled), errors.ErrorCode_AI_SERVICE_DISABLED, http.StatusServiceUnavailable},
		{"app error passes through", errors.ErrForbidden("no"), errors.ErrorCode_FORBIDDEN, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := toAppError(tc.err, "")
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.http, appErr.HTTPCode)
		})
	}
}

func TestSummarizeMeeting(t *testing.T) {
	completer := &testutil.Completer{Reply: "## Key Topics\n- budget"}
	ts := newTestServer(t, completer)
	id := ts.createMeeting(t, "Budget sync")

	rec, env := ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/summarize", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_EMPTY_CONTENT), env.Code)

	rec, _ = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/segments", map[string]interface{}{
		"speaker": "Priya", "text": "Priya walked through the budget", "start_ms": 0, "end_ms": 2000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = ts.do(t, http.MethodPost, "/v1/meetings/"+id+"/summarize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var m struct {
		Summary string `json:"summary"`
	}
	decode(t, env, &m)
	assert.Equal(t, "## Key Topics\n- budget", m.Summary)
	assert.Len(t, completer.Prompts(), 1)
}

func TestCrawlWithoutCrawler(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/v1/knowledge/crawl", map[string]string{"url": "https://atlas.test/notes"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AI_SERVICE_DISABLED), env.Code)
	assert.Equal(t, "crawler", env.Details["service"])

	rec, _ = ts.do(t, http.MethodPost, "/v1/knowledge/crawl", map[string]string{"url": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
