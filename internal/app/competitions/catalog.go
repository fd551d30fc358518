package competitions

import (
	"sync"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// catalog keeps a thread-safe copy of the competition list and each
// competition's rounds, each stamped with its load time.
type catalog struct {
	mu           sync.RWMutex
	competitions []rounds.Competition
	loadedAt     time.Time
	rounds       map[int]roundsEntry
	owned        map[int]ownedEntry
}

type ownedEntry struct {
	participations map[int]struct{}
	loadedAt       time.Time
}

type roundsEntry struct {
	items    []rounds.Round
	loadedAt time.Time
}

func newCatalog() *catalog {
	return &catalog{rounds: make(map[int]roundsEntry), owned: make(map[int]ownedEntry)}
}

func (c *catalog) listCompetitions(now time.Time, ttl time.Duration) ([]rounds.Competition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() || now.Sub(c.loadedAt) >= ttl {
		return nil, false
	}
	return append([]rounds.Competition(nil), c.competitions...), true
}

func (c *catalog) setCompetitions(items []rounds.Competition, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.competitions = append([]rounds.Competition(nil), items...)
	c.loadedAt = at
}

func (c *catalog) listRounds(competitionID int, now time.Time, ttl time.Duration) ([]rounds.Round, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.rounds[competitionID]
	if !ok || now.Sub(e.loadedAt) >= ttl {
		return nil, false
	}
	return append([]rounds.Round(nil), e.items...), true
}

func (c *catalog) setRounds(competitionID int, items []rounds.Round, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rounds[competitionID] = roundsEntry{items: append([]rounds.Round(nil), items...), loadedAt: at}
}

func (c *catalog) participations(archerID int, now time.Time, ttl time.Duration) (map[int]struct{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.owned[archerID]
	if !ok || now.Sub(e.loadedAt) >= ttl {
		return nil, false
	}
	return e.participations, true
}

func (c *catalog) setParticipations(archerID int, ids map[int]struct{}, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owned[archerID] = ownedEntry{participations: ids, loadedAt: at}
}

func (c *catalog) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.competitions = nil
	c.loadedAt = time.Time{}
	c.rounds = make(map[int]roundsEntry)
	c.owned = make(map[int]ownedEntry)
}
