package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const extractionSystemPrompt = `You extract named entities and relations from text.
Respond with a single JSON object and nothing else:
{"entities":[{"text":"...","label":"...","score":0.0}],
 "relations":[{"source":"...","source_type":"...","relation":"...","target":"...","target_type":"...","confidence":0.0}]}
Only use the labels and relation types listed by the user. Scores are between 0 and 1.`

var (
	thinkTags  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFences = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
)

// LLMExtractor extracts entities by prompting a Completer for JSON.
// Malformed model output is repaired before decoding.
type LLMExtractor struct {
	completer Completer
}

// NewLLMExtractor creates an extractor backed by completer
func NewLLMExtractor(completer Completer) *LLMExtractor {
	return &LLMExtractor{completer: completer}
}

// Extract implements Extractor
func (x *LLMExtractor) Extract(ctx context.Context, text string, labels []string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return &Extraction{}, nil
	}

	prompt := fmt.Sprintf("Labels: %s\nRelation types: %s\n\nText:\n%s",
		strings.Join(labels, ", "), strings.Join(RelationTypes, ", "), text)

	raw, err := x.completer.Complete(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm extraction failed: %w", err)
	}

	out, err := parseExtraction(raw)
	if err != nil {
		return nil, err
	}
	return filterLabels(out, labels), nil
}

func parseExtraction(raw string) (*Extraction, error) {
	cleaned := strings.TrimSpace(thinkTags.ReplaceAllString(raw, ""))
	if m := codeFences.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	if cleaned == "" {
		return &Extraction{}, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return nil, fmt.Errorf("llm extraction returned unrecoverable json: %w", err)
	}

	var out Extraction
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("failed to decode llm extraction: %w", err)
	}
	return &out, nil
}

func filterLabels(in *Extraction, labels []string) *Extraction {
	allowed := make(map[string]bool, len(labels))
	for _, l := range labels {
		allowed[strings.ToLower(l)] = true
	}

	out := &Extraction{}
	for _, e := range in.Entities {
		e.Label = strings.ToLower(strings.TrimSpace(e.Label))
		if strings.TrimSpace(e.Text) == "" || !allowed[e.Label] {
			continue
		}
		out.Entities = append(out.Entities, e)
	}
	for _, r := range in.Relations {
		if strings.TrimSpace(r.Source) == "" || strings.TrimSpace(r.Target) == "" || r.Relation == "" {
			continue
		}
		r.SourceType = strings.ToLower(r.SourceType)
		r.TargetType = strings.ToLower(r.TargetType)
		out.Relations = append(out.Relations, r)
	}
	return out
}
