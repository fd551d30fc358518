package entry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/archery-score-client/internal/backend/fixture"
	"github.com/preston-bernstein/archery-score-client/internal/detection"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/drafts"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

const round = 2

var pid = fixture.ParticipationID(1)

func newService(t *testing.T) (*Service, *fixture.Backend, *drafts.MemoryStore, *metrics.Recorder) {
	t.Helper()
	be := fixture.New(fixture.DefaultSeed)
	store := drafts.NewMemoryStore()
	rec := metrics.NewRecorder()
	svc := NewService(Config{
		Backend:  be,
		Drafts:   store,
		Detector: detection.Static{Tokens: []string{"X", "10", "9"}},
		Metrics:  rec,
	})
	return svc, be, store, rec
}

func png() scoring.Photo {
	return scoring.Photo{Name: "end.png", ContentType: "image/png", Data: []byte("\x89PNG")}
}

func TestLoadRejectsIneligible(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Load(context.Background(), round, 9999)
	assert.ErrorIs(t, err, ErrIneligible)
	assert.Zero(t, svc.Active())
}

func TestOperationsNeedLoadedSession(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Session(round, pid)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.SetArrow(context.Background(), round, pid, nil, "9")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Details(round, pid)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEntryFlowSubmitsAndReloads(t *testing.T) {
	svc, be, _, rec := newService(t)
	ctx := context.Background()

	v, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)
	require.Len(t, v.Ranges, 2)
	assert.True(t, v.Ranges[0].Unlocked)
	assert.False(t, v.Ranges[1].Unlocked)
	assert.Equal(t, scoring.Cursor{RangeIndex: 0, EndNumber: 1, ArrowNumber: 1}, v.Cursor)

	for _, tok := range []string{"10", "X", "M"} {
		v, err = svc.SetArrow(ctx, round, pid, nil, tok)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"10", "X", "M"}, v.Ranges[0].Ends[0].Arrows)
	assert.Equal(t, scoring.StateComplete, v.Ranges[0].Ends[0].State)

	res, err := svc.Submit(ctx, round, pid, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, res.Notifications)
	assert.NotNil(t, res.Notifications)
	assert.Equal(t, scoring.StateSubmitted, res.View.Ranges[0].Ends[0].State)
	assert.True(t, res.View.Ranges[0].Ends[1].Unlocked)
	assert.Equal(t, 1, rec.Outcomes().SubmissionsOK)

	_, err = svc.SetArrow(ctx, round, pid, &scoring.Cursor{RangeIndex: 0, EndNumber: 2, ArrowNumber: 1}, "7")
	require.NoError(t, err)

	// A fresh service sees the backend's end and the drafted arrow.
	again := NewService(Config{Backend: be, Drafts: svc.cfg.Drafts})
	v, err = again.Load(ctx, round, pid)
	require.NoError(t, err)
	assert.Equal(t, scoring.StateSubmitted, v.Ranges[0].Ends[0].State)
	assert.Equal(t, []string{"7", "", ""}, v.Ranges[0].Ends[1].Arrows)
	assert.Equal(t, scoring.Cursor{RangeIndex: 0, EndNumber: 2, ArrowNumber: 2}, v.Cursor)

	d, err := again.Details(round, pid)
	require.NoError(t, err)
	assert.Equal(t, 20, d.Ranges[0].EndScores[0])
	assert.Equal(t, 1, d.Ranges[0].Submitted)
	assert.Equal(t, []int{20, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27}, d.Cumulative())
}

func TestDraftsAreScopedPerParticipant(t *testing.T) {
	svc, _, store, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)
	_, err = svc.SetArrow(ctx, round, pid, nil, "9")
	require.NoError(t, err)

	other := fixture.ParticipationID(2)
	v, err := svc.Load(ctx, round, other)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", ""}, v.Ranges[0].Ends[0].Arrows)

	keys := store.Keys()
	assert.Contains(t, keys, "participant:101:draft:2")
	assert.Contains(t, keys, "participant:102:draft:2")
}

func TestSubmitFailureIsCounted(t *testing.T) {
	svc, be, _, rec := newService(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)
	for _, tok := range []string{"5", "5", "5"} {
		_, err = svc.SetArrow(ctx, round, pid, nil, tok)
		require.NoError(t, err)
	}
	// Stage the same end behind the service's back so the backend declines it.
	_, err = be.SubmitEnd(ctx, rounds.EndSubmission{RoundID: round, ParticipationID: pid, Distance: 50, EndOrder: 1})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, round, pid, 0, 1)
	var failed *scoring.SubmissionFailed
	require.True(t, errors.As(err, &failed))
	assert.ErrorIs(t, err, scoring.ErrNotRecorded)
	assert.Equal(t, 1, rec.Outcomes().SubmissionsFailed)

	v, err := svc.Session(round, pid)
	require.NoError(t, err)
	assert.Equal(t, scoring.StateComplete, v.Ranges[0].Ends[0].State)
}

func TestPhotoDetectionRefocusesEnd(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)

	_, moved, err := svc.SelectCell(round, pid, 0, 1, 2)
	require.NoError(t, err)
	require.True(t, moved)

	v, err := svc.AttachPhoto(ctx, round, pid, 0, 1, png())
	require.NoError(t, err)
	require.NotNil(t, v.Ranges[0].Ends[0].Photo)
	assert.True(t, v.Ranges[0].Ends[0].Photo.Detectable)

	v, err = svc.Detect(ctx, round, pid, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "10", "9"}, v.Ranges[0].Ends[0].Arrows)
	assert.True(t, v.Ranges[0].Ends[0].ScoresDetected)
	assert.Equal(t, scoring.Cursor{RangeIndex: 0, EndNumber: 1, ArrowNumber: 1}, v.Cursor)

	v, err = svc.RemovePhoto(ctx, round, pid, 0, 1)
	require.NoError(t, err)
	assert.Nil(t, v.Ranges[0].Ends[0].Photo)
	assert.Equal(t, []string{"X", "10", "9"}, v.Ranges[0].Ends[0].Arrows)
}

func TestSelectCellOnLockedEnd(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Load(context.Background(), round, pid)
	require.NoError(t, err)
	v, moved, err := svc.SelectCell(round, pid, 1, 1, 0)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, v.Cursor.RangeIndex)
}

func TestConcurrentSubmitsRecordOnce(t *testing.T) {
	svc, be, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)
	for _, tok := range []string{"8", "8", "8"} {
		_, err = svc.SetArrow(ctx, round, pid, nil, tok)
		require.NoError(t, err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Submit(ctx, round, pid, 0, 1); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	ends, err := be.SubmittedEnds(ctx, pid, round)
	require.NoError(t, err)
	assert.Len(t, ends, 1)
}

func TestForget(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Load(context.Background(), round, pid)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Active())
	svc.Forget(round, pid)
	_, err = svc.Session(round, pid)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSweepIdleEvictsUnusedSessions(t *testing.T) {
	svc, _, store, _ := newService(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	other := fixture.ParticipationID(2)

	_, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)
	_, err = svc.SetArrow(ctx, round, pid, nil, "9")
	require.NoError(t, err)
	_, err = svc.Load(ctx, round, other)
	require.NoError(t, err)

	now = now.Add(defaultIdleTTL / 2)
	_, err = svc.Session(round, other)
	require.NoError(t, err)
	assert.Zero(t, svc.SweepIdle(ctx))

	now = now.Add(defaultIdleTTL / 2)
	assert.Equal(t, 1, svc.SweepIdle(ctx))
	assert.Equal(t, 1, svc.Active())
	_, err = svc.Session(round, pid)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Session(round, other)
	require.NoError(t, err)

	assert.NotEmpty(t, store.Keys(), "eviction keeps drafts")
	view, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)
	assert.Equal(t, "9", view.Ranges[0].Ends[0].Arrows[0])
}

func TestSweepIdleSkipsBusySession(t *testing.T) {
	svc, _, _, _ := newService(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Load(ctx, round, pid)
	require.NoError(t, err)
	sl := svc.slotFor(round, pid, false)
	sl.mu.Lock()
	now = now.Add(2 * defaultIdleTTL)
	assert.Zero(t, svc.SweepIdle(ctx))
	sl.mu.Unlock()

	assert.Equal(t, 1, svc.SweepIdle(ctx))
}
