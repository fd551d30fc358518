package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

func draftWith(t *testing.T, ranges []rounds.Range, participantID int, fill func(*Session)) *Session {
	t.Helper()
	s, err := InitSession(7, participantID, ranges)
	require.NoError(t, err)
	fill(s)
	return s
}

func TestReconcileBackendWins(t *testing.T) {
	ranges := oneRange(2, 3)
	draft := draftWith(t, ranges, 42, func(s *Session) {
		s.Ranges[0].Ends[0].Arrows = []arrows.Value{arrows.X, arrows.X, arrows.X}
	})
	fresh, err := InitSession(7, 42, ranges)
	require.NoError(t, err)

	unplaced := Reconcile(fresh, draft, []rounds.SubmittedEnd{
		{Distance: 70, EndOrder: 1, Arrows: []arrows.Value{arrows.Nine, arrows.Nine, arrows.Nine}},
	})
	assert.Zero(t, unplaced)

	end := fresh.Ranges[0].Ends[0]
	assert.True(t, end.Submitted)
	assert.Equal(t, []arrows.Value{arrows.Nine, arrows.Nine, arrows.Nine}, end.Arrows)

	c := NewController(fresh, Options{})
	assert.Equal(t, Cursor{RangeIndex: 0, EndNumber: 2, ArrowNumber: 1}, c.Cursor())
}

func TestReconcileKeepsInProgressDraft(t *testing.T) {
	ranges := oneRange(2, 3)
	draft := draftWith(t, ranges, 42, func(s *Session) {
		s.Ranges[0].Ends[0].Arrows = []arrows.Value{arrows.Eight, arrows.Unset, arrows.Unset}
		s.Ranges[0].Ends[0].Photo = &Photo{Ref: "p1", Name: "a.png", ContentType: "image/png"}
		s.Ranges[0].Ends[0].ScoresDetected = true
	})
	fresh, err := InitSession(7, 42, ranges)
	require.NoError(t, err)

	Reconcile(fresh, draft, nil)
	end := fresh.Ranges[0].Ends[0]
	assert.Equal(t, arrows.Eight, end.Arrows[0])
	assert.True(t, end.ScoresDetected)
	require.NotNil(t, end.Photo)
	assert.Equal(t, "p1", end.Photo.Ref)
	assert.False(t, end.Submitted)
}

func TestReconcileIgnoresDraftSubmittedFlag(t *testing.T) {
	ranges := oneRange(2, 3)
	draft := draftWith(t, ranges, 42, func(s *Session) {
		s.Ranges[0].Ends[0].Arrows = []arrows.Value{arrows.One, arrows.One, arrows.One}
		s.Ranges[0].Ends[0].Submitted = true
	})
	fresh, err := InitSession(7, 42, ranges)
	require.NoError(t, err)

	Reconcile(fresh, draft, nil)
	assert.False(t, fresh.Ranges[0].Ends[0].Submitted, "only the backend can mark an end submitted")
	assert.Equal(t, StateComplete, StateOf(fresh.Ranges[0].Ends[0]))
}

func TestReconcileDiscardsMismatchedDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft *Session
	}{
		{name: "shape", draft: draftWith(t, oneRange(3, 6), 42, func(s *Session) {
			s.Ranges[0].Ends[0].Arrows[0] = arrows.X
		})},
		{name: "participant", draft: draftWith(t, oneRange(2, 3), 99, func(s *Session) {
			s.Ranges[0].Ends[0].Arrows[0] = arrows.X
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, err := InitSession(7, 42, oneRange(2, 3))
			require.NoError(t, err)
			Reconcile(fresh, tt.draft, nil)
			assert.Equal(t, StateEmpty, StateOf(fresh.Ranges[0].Ends[0]))
		})
	}
}

func TestReconcileCountsUnplacedEnds(t *testing.T) {
	fresh, err := InitSession(7, 42, oneRange(2, 3))
	require.NoError(t, err)
	unplaced := Reconcile(fresh, nil, []rounds.SubmittedEnd{
		{Distance: 30, EndOrder: 1, Arrows: []arrows.Value{arrows.One}},
		{Distance: 70, EndOrder: 5, Arrows: []arrows.Value{arrows.One}},
		{Distance: 70, EndOrder: 2, Arrows: []arrows.Value{arrows.Two}},
	})
	assert.Equal(t, 2, unplaced)
	assert.Equal(t, []arrows.Value{arrows.Two, arrows.Unset, arrows.Unset}, fresh.Ranges[0].Ends[1].Arrows)
	assert.True(t, fresh.Ranges[0].Ends[1].Submitted)
}

func TestReconcileSameDistanceRanges(t *testing.T) {
	ranges := []rounds.Range{
		{ID: 1, Distance: 70, TargetSize: 122, TotalEnds: 1, ArrowsPerEnd: 3},
		{ID: 2, Distance: 70, TargetSize: 122, TotalEnds: 1, ArrowsPerEnd: 3},
	}
	fresh, err := InitSession(7, 42, ranges)
	require.NoError(t, err)
	unplaced := Reconcile(fresh, nil, []rounds.SubmittedEnd{
		{Distance: 70, EndOrder: 1, Arrows: []arrows.Value{arrows.Five, arrows.Five, arrows.Five}},
		{Distance: 70, EndOrder: 1, Arrows: []arrows.Value{arrows.Six, arrows.Six, arrows.Six}},
	})
	assert.Zero(t, unplaced)
	assert.Equal(t, arrows.Five, fresh.Ranges[0].Ends[0].Arrows[0])
	assert.Equal(t, arrows.Six, fresh.Ranges[1].Ends[0].Arrows[0])
}

func TestResumeRestoresDraftAndWritesBack(t *testing.T) {
	drafts := newMemDrafts()
	first := newTestController(t, oneRange(2, 3), Options{Drafts: drafts})
	enterEnd(t, first, 0, 1, "9", "9")

	c, err := Resume(7, 42, oneRange(2, 3), nil, Options{Drafts: drafts})
	require.NoError(t, err)
	assert.Equal(t, []arrows.Value{arrows.Nine, arrows.Nine, arrows.Unset}, c.Session().Ranges[0].Ends[0].Arrows)
	assert.Equal(t, Cursor{RangeIndex: 0, EndNumber: 1, ArrowNumber: 3}, c.Cursor())

	c, err = Resume(7, 42, oneRange(2, 3), []rounds.SubmittedEnd{
		{Distance: 70, EndOrder: 1, Arrows: []arrows.Value{arrows.Ten, arrows.Ten, arrows.Ten}},
	}, Options{Drafts: drafts})
	require.NoError(t, err)

	stored, err := LoadDraft(drafts, 7)
	require.NoError(t, err)
	assert.True(t, stored.Ranges[0].Ends[0].Submitted)
	assert.Equal(t, 30, c.Session().EndScore(0, 0))
}

func TestResumeIgnoresCorruptDraft(t *testing.T) {
	drafts := newMemDrafts()
	drafts.data[DraftKey(7)] = []byte("{not json")

	c, err := Resume(7, 42, oneRange(1, 3), nil, Options{Drafts: drafts})
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, StateOf(c.Session().Ranges[0].Ends[0]))
}

func TestResumeRejectsBadConfig(t *testing.T) {
	_, err := Resume(7, 42, nil, nil, Options{})
	assert.Error(t, err)
}

func TestDraftKey(t *testing.T) {
	assert.Equal(t, "draft:12", DraftKey(12))
}

func TestLoadDraftMissing(t *testing.T) {
	s, err := LoadDraft(newMemDrafts(), 3)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = LoadDraft(nil, 3)
	require.NoError(t, err)
	assert.Nil(t, s)
}
