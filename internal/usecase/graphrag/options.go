package graphrag

import "github.com/johnquangdev/meeting-knowledge/pkg/config"

// Options caps the size of each context section
type Options struct {
	MeetingLimit    int
	SegmentPreviews int
	RelatedLimit    int
	ActionLimit     int
	DecisionLimit   int
	VectorTopK      int
}

// DefaultOptions returns the section caps used when nothing is configured
func DefaultOptions() Options {
	return Options{
		MeetingLimit:    5,
		SegmentPreviews: 5,
		RelatedLimit:    5,
		ActionLimit:     10,
		DecisionLimit:   10,
		VectorTopK:      5,
	}
}

// OptionsFromConfig reads the section caps from configuration, keeping
// defaults for unset values
func OptionsFromConfig(cfg *config.QueryConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	set := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	set(&opts.MeetingLimit, cfg.MeetingLimit)
	set(&opts.SegmentPreviews, cfg.SegmentPreviews)
	set(&opts.RelatedLimit, cfg.RelatedLimit)
	set(&opts.ActionLimit, cfg.ActionLimit)
	set(&opts.DecisionLimit, cfg.DecisionLimit)
	set(&opts.VectorTopK, cfg.VectorTopK)
	return opts
}
