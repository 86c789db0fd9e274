package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// GLiNEROptions configures the GLiNER HTTP extractor
type GLiNEROptions struct {
	BaseURL         string
	APIKey          string
	Threshold       float64
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// GLiNERClient calls a GLiNER multitask inference service for named
// entities and, in a second pass, relations between them
type GLiNERClient struct {
	opts   GLiNEROptions
	client *http.Client
	logger *zap.Logger
}

// NewGLiNERClient creates a GLiNER extractor
func NewGLiNERClient(opts GLiNEROptions, logger *zap.Logger) *GLiNERClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &GLiNERClient{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type glinerEntityRequest struct {
	Text      string   `json:"text"`
	Labels    []string `json:"labels"`
	Threshold float64  `json:"threshold,omitempty"`
}

type glinerEntityResponse struct {
	Entities []Entity `json:"entities"`
}

type glinerRelationRequest struct {
	Text      string   `json:"text"`
	Entities  []Entity `json:"entities"`
	Relations []string `json:"relations"`
	Threshold float64  `json:"threshold,omitempty"`
}

type glinerRelation struct {
	Source     string  `json:"source"`
	SourceType string  `json:"source_type"`
	Relation   string  `json:"relation"`
	Target     string  `json:"target"`
	TargetType string  `json:"target_type"`
	Score      float64 `json:"score"`
}

type glinerRelationResponse struct {
	Relations []glinerRelation `json:"relations"`
}

// Extract implements Extractor. A failed relation pass is not an error:
// the entities are returned with an empty relation set.
func (c *GLiNERClient) Extract(ctx context.Context, text string, labels []string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return &Extraction{}, nil
	}

	var er glinerEntityResponse
	if err := c.post(ctx, "/extract", glinerEntityRequest{Text: text, Labels: labels, Threshold: c.opts.Threshold}, &er); err != nil {
		return nil, fmt.Errorf("gliner entity extraction failed: %w", err)
	}

	entities := make([]Entity, 0, len(er.Entities))
	for _, e := range er.Entities {
		if strings.TrimSpace(e.Text) == "" || e.Score < c.opts.Threshold {
			continue
		}
		entities = append(entities, e)
	}
	sort.SliceStable(entities, func(i, j int) bool { return entities[i].Score > entities[j].Score })

	out := &Extraction{Entities: entities}
	if len(entities) < 2 {
		return out, nil
	}

	var rr glinerRelationResponse
	req := glinerRelationRequest{Text: text, Entities: entities, Relations: RelationTypes, Threshold: c.opts.Threshold}
	if err := c.post(ctx, "/relations", req, &rr); err != nil {
		if c.logger != nil {
			c.logger.Warn("GLiNER relation extraction failed, continuing without relations", zap.Error(err))
		}
		return out, nil
	}

	for _, r := range rr.Relations {
		rel := Relation{
			Source:     r.Source,
			SourceType: r.SourceType,
			Relation:   r.Relation,
			Target:     r.Target,
			TargetType: r.TargetType,
			Confidence: r.Score,
		}
		if rel.SourceType == "" {
			rel.SourceType = labelOf(entities, r.Source)
		}
		if rel.TargetType == "" {
			rel.TargetType = labelOf(entities, r.Target)
		}
		out.Relations = append(out.Relations, rel)
	}
	sort.SliceStable(out.Relations, func(i, j int) bool { return out.Relations[i].Confidence > out.Relations[j].Confidence })
	return out, nil
}

func (c *GLiNERClient) post(ctx context.Context, path string, payload, target interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return withRetry(ctx, c.opts.RetryMaxElapsed, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.opts.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &statusError{Service: "gliner", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return backoff.Permanent(fmt.Errorf("invalid gliner response: %w", err))
		}
		return nil
	})
}

func labelOf(entities []Entity, text string) string {
	for _, e := range entities {
		if e.Text == text {
			return e.Label
		}
	}
	return "unknown"
}
