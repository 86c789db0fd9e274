package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGLiNERClient_Extract(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/extract":
			var req glinerEntityRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, MeetingLabels, req.Labels)
			_ = json.NewEncoder(w).Encode(glinerEntityResponse{Entities: []Entity{
				{Text: "budget", Label: "topic", Score: 0.7},
				{Text: "John", Label: "person", Score: 0.95},
				{Text: "Friday", Label: "deadline", Score: 0.2},
			}})
		case "/relations":
			_ = json.NewEncoder(w).Encode(glinerRelationResponse{Relations: []glinerRelation{
				{Source: "John", Relation: "discussed", Target: "budget", Score: 0.8},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	client := NewGLiNERClient(GLiNEROptions{BaseURL: ts.URL + "/", APIKey: "secret", Threshold: 0.5}, zap.NewNop())
	out, err := client.Extract(context.Background(), "John will review the budget by Friday", MeetingLabels)
	require.NoError(t, err)

	require.Len(t, out.Entities, 2, "below-threshold entity dropped")
	assert.Equal(t, "John", out.Entities[0].Text, "sorted by score")
	require.Len(t, out.Relations, 1)
	assert.Equal(t, "person", out.Relations[0].SourceType, "type filled from entities")
	assert.Equal(t, "topic", out.Relations[0].TargetType)
	assert.Equal(t, 0.8, out.Relations[0].Confidence)
}

func TestGLiNERClient_RelationFailureYieldsEmptyRelations(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/relations" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(glinerEntityResponse{Entities: []Entity{
			{Text: "Alice", Label: "person", Score: 0.9},
			{Text: "Atlas", Label: "project", Score: 0.9},
		}})
	}))
	defer ts.Close()

	client := NewGLiNERClient(GLiNEROptions{BaseURL: ts.URL}, nil)
	out, err := client.Extract(context.Background(), "Alice works on Atlas", MeetingLabels)
	require.NoError(t, err)
	assert.Len(t, out.Entities, 2)
	assert.Empty(t, out.Relations)
}

func TestGLiNERClient_EntityFailureIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	client := NewGLiNERClient(GLiNEROptions{BaseURL: ts.URL, RetryMaxElapsed: time.Second}, nil)
	_, err := client.Extract(context.Background(), "text", MeetingLabels)
	assert.ErrorContains(t, err, "status 422")
}

func TestGLiNERClient_EmptyText(t *testing.T) {
	client := NewGLiNERClient(GLiNEROptions{BaseURL: "http://127.0.0.1:1"}, nil)
	out, err := client.Extract(context.Background(), "   ", MeetingLabels)
	require.NoError(t, err)
	assert.Empty(t, out.Entities)
}
