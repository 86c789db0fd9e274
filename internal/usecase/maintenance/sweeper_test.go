package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-knowledge/internal/testutil"
	knowledgeUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	meetingUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-knowledge/pkg/config"
	"github.com/johnquangdev/meeting-knowledge/pkg/jobcontext"
)

func newSweeper(t *testing.T, store *testutil.Store) *Sweeper {
	t.Helper()
	logger := zap.NewNop()
	meetings := meetingUsecase.NewMeetingService(store.Meetings, store.Graph, store.Knowledge, nil, logger)
	kb := knowledgeUsecase.NewKnowledgeService(store.Knowledge, store.Vectors, store.Graph, store.Meetings, testutil.NewEmbedder(), nil, logger)
	cfg := &config.IngestionConfig{StaleMeetingAge: 12 * time.Hour, SweepInterval: time.Hour}
	return NewSweeper(meetings, kb, cfg, logger).WithPolicy(jobcontext.Policy{
		Timeout:         5 * time.Second,
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})
}

func TestSweep_EndsStaleMeetingsAndRemovesOrphans(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	stale := entities.NewMeeting("Forgotten standup", nil)
	stale.StartTime = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, store.Meetings.Create(ctx, stale))

	fresh := entities.NewMeeting("Live review", nil)
	fresh.StartTime = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Meetings.Create(ctx, fresh))

	orphan := entities.NewKnowledgeChunk(uuid.New(), 0, "left behind", nil)
	require.NoError(t, store.DB.Create(orphan).Error)

	s := newSweeper(t, store)
	report := s.Sweep(ctx)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.MeetingsEnded)
	assert.Equal(t, int64(1), report.ChunksRemoved)

	got, err := store.Meetings.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.WithinDuration(t, stale.StartTime.Add(time.Hour), *got.EndTime, time.Second)

	got, err = store.Meetings.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EndTime)

	again := s.Sweep(ctx)
	assert.Zero(t, again.MeetingsEnded)
	assert.Zero(t, again.ChunksRemoved)
}

func TestSweep_RecordsFailedJobs(t *testing.T) {
	store := testutil.NewStore(t)
	s := newSweeper(t, store)
	require.NoError(t, database.CloseDB(store.DB))

	report := s.Sweep(context.Background())
	assert.Contains(t, report.Errors, JobEndStaleMeetings)
	assert.Contains(t, report.Errors, JobCleanupChunks)
}

func TestSweeper_StartStop(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	stale := entities.NewMeeting("Left open", nil)
	stale.StartTime = time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, store.Meetings.Create(ctx, stale))

	s := newSweeper(t, store)
	s.Start(ctx)

	require.Eventually(t, func() bool {
		m, err := store.Meetings.FindByID(ctx, stale.ID)
		return err == nil && m != nil && m.EndTime != nil
	}, 5*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	s := newSweeper(t, testutil.NewStore(t))
	s.Stop()
}
