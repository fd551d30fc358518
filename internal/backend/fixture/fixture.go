// Package fixture is an in-memory backend for local runs and tests. It seeds
// one competition with generated archers and keeps staged ends in memory.
package fixture

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

const (
	// DefaultSeed keeps generated names stable between runs.
	DefaultSeed = 2024

	competitionID   = 1
	participationID = 100
	recorderID      = 1
	archerCount     = 8

	statusPending = "pending"
)

// RecorderEmail is the login accepted for the fixture recorder.
const RecorderEmail = "recorder@fixture.test"

// ArcherEmail returns the login email of the fixture archer with id.
func ArcherEmail(id int) string {
	return fmt.Sprintf("archer%d@fixture.test", id)
}

// ParticipationID returns the participation of archer id in the fixture competition.
func ParticipationID(archerID int) int {
	return participationID + archerID
}

type archer struct {
	id        int
	firstName string
	lastName  string
	gender    string
}

type stageKey struct {
	participationID int
	roundID         int
}

type stagedEnd struct {
	distance float64
	endOrder int
	arrows   []arrows.Value
	status   string
}

// Backend implements backend.Backend against in-memory state.
type Backend struct {
	mu           sync.Mutex
	competitions []rounds.Competition
	ranges       map[int][]rounds.Range
	archers      map[int]archer
	staged       map[stageKey][]stagedEnd
}

var _ backend.Backend = (*Backend)(nil)

// New builds a fixture backend. Archer 1 starts with nothing scored; the
// others have a generated first range in round 1 so rankings are populated.
func New(seed uint64) *Backend {
	faker := gofakeit.New(seed)
	b := &Backend{
		competitions: []rounds.Competition{{
			ID:        competitionID,
			Title:     "Club Championship",
			Location:  faker.City(),
			StartDate: "2024-05-04",
			Status:    "open",
		}},
		ranges: map[int][]rounds.Range{
			1: {
				{ID: 1, Distance: 70, TargetSize: 122, TotalEnds: 6, ArrowsPerEnd: 6},
				{ID: 2, Distance: 60, TargetSize: 122, TotalEnds: 6, ArrowsPerEnd: 6},
			},
			2: {
				{ID: 3, Distance: 50, TargetSize: 80, TotalEnds: 6, ArrowsPerEnd: 3},
				{ID: 4, Distance: 30, TargetSize: 80, TotalEnds: 6, ArrowsPerEnd: 3},
			},
		},
		archers: make(map[int]archer, archerCount),
		staged:  make(map[stageKey][]stagedEnd),
	}

	genders := []string{"Male", "Female"}
	for id := 1; id <= archerCount; id++ {
		gender := genders[id%2]
		if id == archerCount {
			gender = "Other"
		}
		b.archers[id] = archer{id: id, firstName: faker.FirstName(), lastName: faker.LastName(), gender: gender}
		if id == 1 {
			continue
		}
		first := b.ranges[1][0]
		key := stageKey{participationID: ParticipationID(id), roundID: 1}
		for n := 1; n <= first.TotalEnds; n++ {
			values := make([]arrows.Value, first.ArrowsPerEnd)
			for i := range values {
				values[i] = arrows.Value(faker.Number(int(arrows.Five), int(arrows.X)))
			}
			b.staged[key] = append(b.staged[key], stagedEnd{distance: first.Distance, endOrder: n, arrows: values, status: rounds.StagingConfirmed})
		}
	}
	return b
}

func notFound(op, what string) error {
	return &backend.StatusError{Operation: op, StatusCode: http.StatusNotFound, Message: what + " not found"}
}

func (b *Backend) archerFor(participation int) (archer, bool) {
	a, ok := b.archers[participation-participationID]
	return a, ok
}

func (b *Backend) Ranges(ctx context.Context, roundID int) ([]rounds.Range, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rs, ok := b.ranges[roundID]
	if !ok {
		return nil, notFound(backend.OpRanges, "round")
	}
	return append([]rounds.Range(nil), rs...), nil
}

func (b *Backend) Eligibility(ctx context.Context, participantID, roundID int) (rounds.Eligibility, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, known := b.archerFor(participantID)
	_, hasRound := b.ranges[roundID]
	return rounds.Eligibility{Eligible: known && hasRound}, nil
}

func (b *Backend) SubmittedEnds(ctx context.Context, participantID, roundID int) ([]rounds.SubmittedEnd, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	staged := b.staged[stageKey{participationID: participantID, roundID: roundID}]
	out := make([]rounds.SubmittedEnd, 0, len(staged))
	for _, e := range staged {
		out = append(out, rounds.SubmittedEnd{Distance: e.distance, EndOrder: e.endOrder, Arrows: append([]arrows.Value(nil), e.arrows...)})
	}
	return out, nil
}

// SubmitEnd stages an end as pending. Unknown participants and duplicate ends
// are declined with recorded=false.
func (b *Backend) SubmitEnd(ctx context.Context, sub rounds.EndSubmission) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.archerFor(sub.ParticipationID); !ok {
		return false, nil
	}
	if _, ok := b.ranges[sub.RoundID]; !ok {
		return false, notFound(backend.OpSubmitEnd, "round")
	}
	key := stageKey{participationID: sub.ParticipationID, roundID: sub.RoundID}
	for _, e := range b.staged[key] {
		if e.distance == sub.Distance && e.endOrder == sub.EndOrder {
			return false, nil
		}
	}
	b.staged[key] = append(b.staged[key], stagedEnd{
		distance: sub.Distance,
		endOrder: sub.EndOrder,
		arrows:   append([]arrows.Value(nil), sub.Arrows...),
		status:   statusPending,
	})
	return true, nil
}

// Ranking totals every staged end of each archer in the round.
func (b *Backend) Ranking(ctx context.Context, compID, roundID int) ([]rounds.RankingRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if compID != competitionID {
		return nil, notFound(backend.OpRanking, "competition")
	}
	if _, ok := b.ranges[roundID]; !ok {
		return nil, notFound(backend.OpRanking, "round")
	}
	rows := make([]rounds.RankingRow, 0, len(b.archers))
	for _, id := range b.archerIDs() {
		a := b.archers[id]
		row := rounds.RankingRow{ParticipantID: id, FirstName: a.firstName, LastName: a.lastName, Gender: a.gender}
		for _, e := range b.staged[stageKey{participationID: ParticipationID(id), roundID: roundID}] {
			for _, v := range e.arrows {
				row.TotalScore += v.Points()
				if v == arrows.X {
					row.TotalX++
				}
				if v.IsTen() {
					row.TotalTen++
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *Backend) Competitions(ctx context.Context) ([]rounds.Competition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]rounds.Competition(nil), b.competitions...), nil
}

// ArcherCompetitions lists the competitions archerID takes part in, with each
// round's running total.
func (b *Backend) ArcherCompetitions(ctx context.Context, archerID int) ([]rounds.Competition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.archers[archerID]; !ok {
		return []rounds.Competition{}, nil
	}
	out := make([]rounds.Competition, 0, len(b.competitions))
	for _, c := range b.competitions {
		c.ParticipationID = ParticipationID(archerID)
		for _, r := range b.roundsOf(c.ID) {
			total := 0
			for _, e := range b.staged[stageKey{participationID: c.ParticipationID, roundID: r.ID}] {
				for _, v := range e.arrows {
					total += v.Points()
				}
			}
			r.TotalScore = &total
			c.Rounds = append(c.Rounds, r)
		}
		out = append(out, c)
	}
	return out, nil
}

func (b *Backend) CompetitionRounds(ctx context.Context, compID int) ([]rounds.Round, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if compID != competitionID {
		return nil, notFound(backend.OpCompetitionRounds, "competition")
	}
	return b.roundsOf(compID), nil
}

func (b *Backend) roundsOf(compID int) []rounds.Round {
	ids := make([]int, 0, len(b.ranges))
	for id := range b.ranges {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	types := map[int]string{1: "WA 720", 2: "Short Metric"}
	out := make([]rounds.Round, 0, len(ids))
	for _, id := range ids {
		out = append(out, rounds.Round{ID: id, CompetitionID: compID, Type: types[id], Date: "2024-05-04"})
	}
	return out
}

func (b *Backend) PendingEnds(ctx context.Context, roundID int) ([]rounds.PendingEnd, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []rounds.PendingEnd{}
	for _, id := range b.archerIDs() {
		pid := ParticipationID(id)
		for _, e := range b.staged[stageKey{participationID: pid, roundID: roundID}] {
			if e.status != statusPending {
				continue
			}
			out = append(out, rounds.PendingEnd{
				RoundID:         roundID,
				ParticipationID: pid,
				Distance:        e.distance,
				EndOrder:        e.endOrder,
				Arrows:          append([]arrows.Value(nil), e.arrows...),
			})
		}
	}
	return out, nil
}

// ConfirmEnd marks a pending end confirmed, taking the recorder's arrows.
func (b *Backend) ConfirmEnd(ctx context.Context, c rounds.EndConfirmation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := stageKey{participationID: c.ParticipationID, roundID: c.RoundID}
	ends := b.staged[key]
	for i := range ends {
		if ends[i].distance != c.Distance || ends[i].endOrder != c.EndOrder {
			continue
		}
		if ends[i].status != statusPending {
			return &backend.StatusError{Operation: backend.OpConfirmEnd, StatusCode: http.StatusConflict, Message: "end already confirmed"}
		}
		ends[i].arrows = append([]arrows.Value(nil), c.Arrows...)
		ends[i].status = c.StagingStatus
		return nil
	}
	return notFound(backend.OpConfirmEnd, "staged end")
}

// RejectEnds drops every pending end of the participant in the round.
func (b *Backend) RejectEnds(ctx context.Context, r rounds.Rejection) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := stageKey{participationID: r.ParticipationID, roundID: r.RoundID}
	kept := b.staged[key][:0]
	for _, e := range b.staged[key] {
		if e.status != statusPending {
			kept = append(kept, e)
		}
	}
	b.staged[key] = kept
	return nil
}

// Login accepts ArcherEmail(id) for archers and RecorderEmail for the
// recorder with any non-empty password.
func (b *Backend) Login(ctx context.Context, role rounds.Role, creds rounds.Credentials) (rounds.Identity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	unauthorized := &backend.StatusError{Operation: backend.OpLogin, StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}
	if creds.Password == "" {
		return rounds.Identity{}, unauthorized
	}
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if role == rounds.RoleRecorder {
		if email != RecorderEmail {
			return rounds.Identity{}, unauthorized
		}
		return rounds.Identity{ID: recorderID, Role: rounds.RoleRecorder, FirstName: "Fixture", LastName: "Recorder"}, nil
	}
	for _, id := range b.archerIDs() {
		if email == ArcherEmail(id) {
			a := b.archers[id]
			return rounds.Identity{ID: id, Role: rounds.RoleArcher, FirstName: a.firstName, LastName: a.lastName}, nil
		}
	}
	return rounds.Identity{}, unauthorized
}

func (b *Backend) archerIDs() []int {
	ids := make([]int, 0, len(b.archers))
	for id := range b.archers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
