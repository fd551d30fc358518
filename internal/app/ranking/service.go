// Package ranking renders backend ranking rows into ranked gender partitions.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// Partition names a gender group of the ranking.
type Partition string

const (
	Male   Partition = "male"
	Female Partition = "female"
	Other  Partition = "other"
)

// Row is a ranked backend row. Viewer marks the requesting archer.
type Row struct {
	Rank int `json:"rank"`
	rounds.RankingRow
	Name   string `json:"name"`
	Viewer bool   `json:"viewer"`
}

// Group is one partition in rank order.
type Group struct {
	Partition Partition `json:"partition"`
	Rows      []Row     `json:"rows"`
}

// View is the ranking of one round.
type View struct {
	CompetitionID int     `json:"competitionID"`
	RoundID       int     `json:"roundID"`
	Groups        []Group `json:"groups"`
}

// Service reads rankings from the backend.
type Service struct {
	reader backend.RankingReader
}

// NewService constructs a Service with the provided reader.
func NewService(reader backend.RankingReader) *Service {
	return &Service{reader: reader}
}

// Ranking loads a round's rows and ranks them. viewerID marks the caller's row; 0 marks none.
func (s *Service) Ranking(ctx context.Context, competitionID, roundID, viewerID int) (View, error) {
	if s == nil || s.reader == nil {
		return View{}, backend.ErrUnavailable
	}
	rows, err := s.reader.Ranking(ctx, competitionID, roundID)
	if err != nil {
		return View{}, fmt.Errorf("load ranking: %w", err)
	}
	return View{CompetitionID: competitionID, RoundID: roundID, Groups: Build(rows, viewerID)}, nil
}

// PartitionOf maps a backend gender label to a partition, ignoring case.
func PartitionOf(gender string) Partition {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male":
		return Male
	case "female":
		return Female
	default:
		return Other
	}
}

// Build partitions rows by gender and sorts each partition by total score,
// keeping backend order for ties. Male and female groups are always present;
// the other group only when it has rows.
func Build(rows []rounds.RankingRow, viewerID int) []Group {
	byPartition := map[Partition][]Row{}
	for _, r := range rows {
		p := PartitionOf(r.Gender)
		byPartition[p] = append(byPartition[p], Row{
			RankingRow: r,
			Name:       r.Name(),
			Viewer:     viewerID != 0 && r.ParticipantID == viewerID,
		})
	}

	groups := make([]Group, 0, 3)
	for _, p := range []Partition{Male, Female, Other} {
		members := byPartition[p]
		if p == Other && len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].TotalScore > members[j].TotalScore
		})
		for i := range members {
			members[i].Rank = i + 1
		}
		if members == nil {
			members = []Row{}
		}
		groups = append(groups, Group{Partition: p, Rows: members})
	}
	return groups
}
