package backend

import (
	"context"
	"sync"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// stubBackend fails the first failures calls of every operation with err.
type stubBackend struct {
	mu       sync.Mutex
	err      error
	failures int
	calls    map[string]int
	ranges   []rounds.Range
}

func newStub(err error, failures int) *stubBackend {
	return &stubBackend{
		err:      err,
		failures: failures,
		calls:    map[string]int{},
		ranges:   []rounds.Range{{ID: 1, Distance: 70, TargetSize: 122, TotalEnds: 6, ArrowsPerEnd: 6}},
	}
}

func (s *stubBackend) hit(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if s.calls[op] <= s.failures {
		return s.err
	}
	return nil
}

func (s *stubBackend) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubBackend) Ranges(ctx context.Context, roundID int) ([]rounds.Range, error) {
	if err := s.hit(OpRanges); err != nil {
		return nil, err
	}
	return s.ranges, nil
}

func (s *stubBackend) Eligibility(ctx context.Context, participantID, roundID int) (rounds.Eligibility, error) {
	return rounds.Eligibility{Eligible: true}, s.hit(OpEligibility)
}

func (s *stubBackend) SubmittedEnds(ctx context.Context, participantID, roundID int) ([]rounds.SubmittedEnd, error) {
	return nil, s.hit(OpSubmittedEnds)
}

func (s *stubBackend) SubmitEnd(ctx context.Context, sub rounds.EndSubmission) (bool, error) {
	err := s.hit(OpSubmitEnd)
	return err == nil, err
}

func (s *stubBackend) Ranking(ctx context.Context, competitionID, roundID int) ([]rounds.RankingRow, error) {
	return nil, s.hit(OpRanking)
}

func (s *stubBackend) Competitions(ctx context.Context) ([]rounds.Competition, error) {
	return nil, s.hit(OpCompetitions)
}

func (s *stubBackend) ArcherCompetitions(ctx context.Context, archerID int) ([]rounds.Competition, error) {
	return nil, s.hit(OpArcherCompetitions)
}

func (s *stubBackend) CompetitionRounds(ctx context.Context, competitionID int) ([]rounds.Round, error) {
	return nil, s.hit(OpCompetitionRounds)
}

func (s *stubBackend) PendingEnds(ctx context.Context, roundID int) ([]rounds.PendingEnd, error) {
	return nil, s.hit(OpPendingEnds)
}

func (s *stubBackend) ConfirmEnd(ctx context.Context, c rounds.EndConfirmation) error {
	return s.hit(OpConfirmEnd)
}

func (s *stubBackend) RejectEnds(ctx context.Context, r rounds.Rejection) error {
	return s.hit(OpRejectEnds)
}

func (s *stubBackend) Login(ctx context.Context, role rounds.Role, creds rounds.Credentials) (rounds.Identity, error) {
	return rounds.Identity{ID: 1, Role: role}, s.hit(OpLogin)
}
