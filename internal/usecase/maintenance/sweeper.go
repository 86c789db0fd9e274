// Package maintenance runs the periodic housekeeping of the knowledge
// store: closing meetings nobody ended and removing orphaned chunks.
package maintenance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	knowledgeUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	meetingUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-knowledge/pkg/config"
	"github.com/johnquangdev/meeting-knowledge/pkg/jobcontext"
)

const (
	JobEndStaleMeetings = "end_stale_meetings"
	JobCleanupChunks    = "cleanup_orphaned_chunks"
)

// Report summarizes one sweep
type Report struct {
	MeetingsEnded int               `json:"meetings_ended"`
	ChunksRemoved int64             `json:"chunks_removed"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// Sweeper runs housekeeping jobs on an interval
type Sweeper struct {
	meetings  meetingUsecase.Service
	knowledge knowledgeUsecase.Service
	staleAge  time.Duration
	interval  time.Duration
	policy    jobcontext.Policy
	logger    *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

// NewSweeper creates a sweeper. knowledge may be nil to skip chunk cleanup.
func NewSweeper(
	meetings meetingUsecase.Service,
	knowledge knowledgeUsecase.Service,
	cfg *config.IngestionConfig,
	logger *zap.Logger,
) *Sweeper {
	s := &Sweeper{
		meetings:  meetings,
		knowledge: knowledge,
		staleAge:  12 * time.Hour,
		interval:  30 * time.Minute,
		policy:    jobcontext.DefaultPolicy(),
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if cfg != nil {
		if cfg.StaleMeetingAge > 0 {
			s.staleAge = cfg.StaleMeetingAge
		}
		if cfg.SweepInterval > 0 {
			s.interval = cfg.SweepInterval
		}
	}
	return s
}

// WithPolicy overrides the retry policy of every job
func (s *Sweeper) WithPolicy(p jobcontext.Policy) *Sweeper {
	s.policy = p
	return s
}

// Sweep runs every job once. A failing job does not stop the others; its
// error is recorded in the report.
func (s *Sweeper) Sweep(ctx context.Context) *Report {
	report := &Report{}

	if err := s.runJob(ctx, JobEndStaleMeetings, func(ctx context.Context) error {
		n, err := s.meetings.AutoEndStaleMeetings(ctx, s.staleAge)
		report.MeetingsEnded += n
		return err
	}); err != nil {
		report.fail(JobEndStaleMeetings, err)
	}

	if s.knowledge != nil {
		if err := s.runJob(ctx, JobCleanupChunks, func(ctx context.Context) error {
			n, err := s.knowledge.CleanupOrphanedChunks(ctx)
			report.ChunksRemoved += n
			return err
		}); err != nil {
			report.fail(JobCleanupChunks, err)
		}
	}

	if s.logger != nil && (report.MeetingsEnded > 0 || report.ChunksRemoved > 0 || len(report.Errors) > 0) {
		s.logger.Info("Sweep finished",
			zap.Int("meetings_ended", report.MeetingsEnded),
			zap.Int64("chunks_removed", report.ChunksRemoved),
			zap.Int("failed_jobs", len(report.Errors)))
	}
	return report
}

func (s *Sweeper) runJob(parent context.Context, jobType string, fn func(context.Context) error) error {
	ctx, cancel := jobcontext.Begin(parent, jobType, s.policy)
	defer cancel()

	err := jobcontext.Run(ctx, s.policy, fn)
	if err != nil && s.logger != nil {
		md := jobcontext.FromContext(ctx)
		s.logger.Error("Maintenance job failed",
			zap.String("job_id", md.JobID.String()),
			zap.String("job_type", jobType),
			zap.Duration("elapsed", time.Since(md.StartTime)),
			zap.Error(err))
	}
	return err
}

// Start sweeps once immediately and then every interval until Stop is
// called or ctx is done
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started = true
		go s.loop(ctx)
	})
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.Info("Sweeper started",
			zap.Duration("interval", s.interval),
			zap.Duration("stale_meeting_age", s.staleAge))
	}

	s.Sweep(ctx)
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Stop ends the loop started by Start and waits for a running sweep
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.started {
		return
	}
	<-s.done
	if s.logger != nil {
		s.logger.Info("Sweeper stopped")
	}
}

func (r *Report) fail(job string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[job] = err.Error()
}
