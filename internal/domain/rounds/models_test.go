package rounds

import (
	"encoding/json"
	"testing"

	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
)

func TestRankingRowName(t *testing.T) {
	tests := []struct {
		row  RankingRow
		want string
	}{
		{row: RankingRow{FirstName: "Ada", LastName: "Byron"}, want: "Ada Byron"},
		{row: RankingRow{FirstName: "Ada"}, want: "Ada"},
		{row: RankingRow{LastName: "Byron"}, want: "Byron"},
		{row: RankingRow{}, want: ""},
	}
	for _, tt := range tests {
		if got := tt.row.Name(); got != tt.want {
			t.Fatalf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestPendingEndKey(t *testing.T) {
	a := PendingEnd{RoundID: 1, ParticipationID: 7, Distance: 70, EndOrder: 2, Arrows: []arrows.Value{arrows.X}}
	b := PendingEnd{RoundID: 1, ParticipationID: 7, Distance: 70, EndOrder: 2, Arrows: []arrows.Value{arrows.One}}
	if a.Key() != b.Key() {
		t.Fatalf("expected arrows to be ignored by the key")
	}
	b.EndOrder = 3
	if a.Key() == b.Key() {
		t.Fatalf("expected end order to distinguish keys")
	}
}

func TestEndSubmissionWireNames(t *testing.T) {
	raw, err := json.Marshal(EndSubmission{
		RoundID:         3,
		ParticipationID: 101,
		Distance:        70,
		Target:          122,
		EndOrder:        1,
		Arrows:          []arrows.Value{arrows.X, arrows.Miss},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"roundID":3,"participationID":101,"distance":70,"target":122,"endOrder":1,"arrows":["X","M"]}`
	if string(raw) != want {
		t.Fatalf("unexpected payload %s", raw)
	}
}
