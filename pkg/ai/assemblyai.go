package ai

import (
	"context"
	"fmt"
	"sort"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/pkg/config"
)

// AssemblyAIDiarizer labels speakers of a recording with AssemblyAI
type AssemblyAIDiarizer struct {
	client *aai.Client
	logger *zap.Logger
}

// NewAssemblyAIDiarizer creates a diarizer using the provided config.
// BaseURL overrides the API endpoint and is only set by tests.
func NewAssemblyAIDiarizer(cfg *config.AssemblyAIConfig, logger *zap.Logger, baseURL string) (*AssemblyAIDiarizer, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("assemblyai api key is required")
	}
	opts := []aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}
	if baseURL != "" {
		opts = append(opts, aai.WithBaseURL(baseURL))
	}
	return &AssemblyAIDiarizer{
		client: aai.NewClientWithOptions(opts...),
		logger: logger,
	}, nil
}

// Diarize transcribes audioURL with speaker labels and waits for the result
func (d *AssemblyAIDiarizer) Diarize(ctx context.Context, audioURL string) ([]SpeakerTurn, error) {
	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}

	if d.logger != nil {
		d.logger.Info("🎙️ Starting diarization", zap.String("audio_url", audioURL))
	}

	transcript, err := d.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("assemblyai error: %s", msg)
	}

	turns := turnsFromUtterances(transcript.Utterances)
	if d.logger != nil {
		d.logger.Info("✅ Diarization completed", zap.Int("turns", len(turns)))
	}
	return turns, nil
}

// turnsFromUtterances converts AssemblyAI utterances into ordered
// speaker turns. Utterances without a speaker or timing are dropped.
func turnsFromUtterances(utterances []aai.TranscriptUtterance) []SpeakerTurn {
	turns := make([]SpeakerTurn, 0, len(utterances))
	for _, utt := range utterances {
		if utt.Speaker == nil || utt.Start == nil || utt.End == nil {
			continue
		}
		turns = append(turns, SpeakerTurn{
			Speaker: "Speaker " + *utt.Speaker,
			StartMs: *utt.Start,
			EndMs:   *utt.End,
		})
	}
	sort.SliceStable(turns, func(i, j int) bool { return turns[i].StartMs < turns[j].StartMs })
	return turns
}
