// Package competitions serves the competition and round listings archers browse
// before scoring.
package competitions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/timeutil"
)

const defaultTTL = time.Minute

var (
	// ErrRoundNotFound is returned when a round is not part of the competition.
	ErrRoundNotFound = errors.New("round not found in competition")
	// ErrNotParticipant is returned when a participation belongs to another archer.
	ErrNotParticipant = errors.New("participation does not belong to archer")
)

// Service reads competitions from the backend. The shared listings are cached
// for a short TTL; an archer's own competitions carry live totals and are not.
type Service struct {
	reader  backend.CompetitionReader
	catalog *catalog
	ttl     time.Duration
	now     func() time.Time
}

// NewService constructs a Service. A non-positive ttl disables caching.
func NewService(reader backend.CompetitionReader, ttl time.Duration) *Service {
	return &Service{
		reader:  reader,
		catalog: newCatalog(),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewDefaultService caches for one minute.
func NewDefaultService(reader backend.CompetitionReader) *Service {
	return NewService(reader, defaultTTL)
}

// Competitions lists every competition, most recent start date first.
func (s *Service) Competitions(ctx context.Context) ([]rounds.Competition, error) {
	now := s.now()
	if items, ok := s.catalog.listCompetitions(now, s.ttl); ok {
		return items, nil
	}
	items, err := s.reader.Competitions(ctx)
	if err != nil {
		return nil, err
	}
	items = newestFirst(items)
	if s.ttl > 0 {
		s.catalog.setCompetitions(items, now)
	}
	return items, nil
}

// Rounds lists the rounds of a competition.
func (s *Service) Rounds(ctx context.Context, competitionID int) ([]rounds.Round, error) {
	now := s.now()
	if items, ok := s.catalog.listRounds(competitionID, now, s.ttl); ok {
		return items, nil
	}
	items, err := s.reader.CompetitionRounds(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []rounds.Round{}
	}
	if s.ttl > 0 {
		s.catalog.setRounds(competitionID, items, now)
	}
	return items, nil
}

// Round finds one round of a competition.
func (s *Service) Round(ctx context.Context, competitionID, roundID int) (rounds.Round, error) {
	items, err := s.Rounds(ctx, competitionID)
	if err != nil {
		return rounds.Round{}, err
	}
	for _, r := range items {
		if r.ID == roundID {
			return r, nil
		}
	}
	return rounds.Round{}, ErrRoundNotFound
}

// ArcherCompetitions lists the competitions an archer is registered for.
func (s *Service) ArcherCompetitions(ctx context.Context, archerID int) ([]rounds.Competition, error) {
	items, err := s.reader.ArcherCompetitions(ctx, archerID)
	if err != nil {
		return nil, err
	}
	return newestFirst(items), nil
}

// CheckParticipation confirms that participationID is one of the archer's own
// competition entries. The archer's participations are cached for the listing
// TTL.
func (s *Service) CheckParticipation(ctx context.Context, archerID, participationID int) error {
	now := s.now()
	owned, ok := s.catalog.participations(archerID, now, s.ttl)
	if !ok {
		items, err := s.reader.ArcherCompetitions(ctx, archerID)
		if err != nil {
			return err
		}
		owned = make(map[int]struct{}, len(items))
		for _, c := range items {
			if c.ParticipationID > 0 {
				owned[c.ParticipationID] = struct{}{}
			}
		}
		if s.ttl > 0 {
			s.catalog.setParticipations(archerID, owned, now)
		}
	}
	if _, ok := owned[participationID]; !ok {
		return fmt.Errorf("%w: participation %d, archer %d", ErrNotParticipant, participationID, archerID)
	}
	return nil
}

// Invalidate drops every cached listing.
func (s *Service) Invalidate() {
	s.catalog.reset()
}

func newestFirst(items []rounds.Competition) []rounds.Competition {
	out := make([]rounds.Competition, len(items))
	copy(out, items)
	slices.SortStableFunc(out, func(a, b rounds.Competition) int {
		return timeutil.NewestFirst(a.StartDate, b.StartDate)
	})
	return out
}
