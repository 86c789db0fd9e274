package meeting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
)

// RelabelSpeakers rewrites generic speaker labels from diarized ranges
func (s *MeetingService) RelabelSpeakers(ctx context.Context, id uuid.UUID, ranges []entities.SpeakerRange) (int, error) {
	return s.relabel(ctx, id, ranges, true)
}

// RelabelAllSpeakers rewrites every speaker label covered by ranges
func (s *MeetingService) RelabelAllSpeakers(ctx context.Context, id uuid.UUID, ranges []entities.SpeakerRange) (int, error) {
	return s.relabel(ctx, id, ranges, false)
}

func (s *MeetingService) relabel(ctx context.Context, id uuid.UUID, ranges []entities.SpeakerRange, onlyGeneric bool) (int, error) {
	for _, r := range ranges {
		if r.EndMs < r.StartMs {
			return 0, entities.ErrInvalidTimeRange
		}
	}
	if _, err := s.mustFind(ctx, id); err != nil {
		return 0, err
	}

	n, err := s.meetings.RelabelSpeakers(ctx, id, ranges, onlyGeneric)
	if err != nil {
		return 0, fmt.Errorf("failed to relabel speakers: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("Speakers relabeled",
			zap.String("meeting_id", id.String()),
			zap.Int("ranges", len(ranges)),
			zap.Int("segments", n))
	}
	return n, nil
}

// DiarizeAndRelabel diarizes the recording at audioURL and relabels the
// generic speakers of the meeting's segments
func (s *MeetingService) DiarizeAndRelabel(ctx context.Context, id uuid.UUID, audioURL string) (*DiarizeOutput, error) {
	if s.diarizer == nil {
		return nil, usecaseErrors.ErrDiarizerDisabled
	}
	if audioURL == "" {
		return nil, usecaseErrors.ErrMissingURL
	}
	if _, err := s.mustFind(ctx, id); err != nil {
		return nil, err
	}

	turns, err := s.diarizer.Diarize(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrDiarizationFailed, err)
	}
	if len(turns) == 0 {
		return nil, usecaseErrors.ErrNoSpeakerTurns
	}

	ranges := SpeakerRanges(turns)
	n, err := s.RelabelSpeakers(ctx, id, ranges)
	if err != nil {
		return nil, err
	}
	return &DiarizeOutput{Turns: len(turns), Relabeled: n, Ranges: ranges}, nil
}

// SpeakerRanges converts diarized turns into relabel ranges
func SpeakerRanges(turns []ai.SpeakerTurn) []entities.SpeakerRange {
	ranges := make([]entities.SpeakerRange, 0, len(turns))
	for _, t := range turns {
		ranges = append(ranges, entities.SpeakerRange{
			StartMs:   t.StartMs,
			EndMs:     t.EndMs,
			SpeakerID: t.Speaker,
		})
	}
	return ranges
}

