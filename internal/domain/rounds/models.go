package rounds

import "github.com/preston-bernstein/archery-score-client/internal/domain/arrows"

// Range is one distance/target configuration of a round. Ranges are ordered.
type Range struct {
	ID           int     `json:"rangeID"`
	Distance     float64 `json:"rangeDistance"`
	TargetSize   float64 `json:"rangeTargetSize"`
	TotalEnds    int     `json:"rangeTotalEnds"`
	ArrowsPerEnd int     `json:"rangeTotalArrowsPerEnd"`
}

// SubmittedEnd is an end the backend already holds for a participant.
type SubmittedEnd struct {
	Distance float64        `json:"distance"`
	EndOrder int            `json:"endOrder"`
	Arrows   []arrows.Value `json:"arrows"`
}

// EndSubmission is the payload sent when an archer submits one end.
type EndSubmission struct {
	RoundID         int            `json:"roundID"`
	ParticipationID int            `json:"participationID"`
	Distance        float64        `json:"distance"`
	Target          float64        `json:"target"`
	EndOrder        int            `json:"endOrder"`
	Arrows          []arrows.Value `json:"arrows"`
}

// Eligibility reports whether a participant may score a round.
type Eligibility struct {
	Eligible bool `json:"eligible"`
}

// RankingRow is one participant's aggregate in a round ranking.
type RankingRow struct {
	ParticipantID int    `json:"archerID"`
	FirstName     string `json:"archerFirstName"`
	LastName      string `json:"archerLastName"`
	Gender        string `json:"gender"`
	TotalScore    int    `json:"totalScore"`
	TotalX        int    `json:"totalX"`
	TotalTen      int    `json:"totalTen"`
}

// Name joins first and last name.
func (r RankingRow) Name() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	default:
		return r.FirstName + " " + r.LastName
	}
}

// Competition is a scored event containing rounds. ParticipationID and Rounds
// are filled when listed for one archer.
type Competition struct {
	ID              int     `json:"competitionID"`
	Title           string  `json:"competitionTitle"`
	Location        string  `json:"competitionLocation,omitempty"`
	StartDate       string  `json:"competitionStartDate,omitempty"`
	Status          string  `json:"competitionStatus,omitempty"`
	ParticipationID int     `json:"participationID,omitempty"`
	Rounds          []Round `json:"rounds,omitempty"`
}

// Round is a sub-event of a competition.
type Round struct {
	ID            int    `json:"roundID"`
	CompetitionID int    `json:"competitionID,omitempty"`
	Type          string `json:"roundType,omitempty"`
	Date          string `json:"roundDate,omitempty"`
	TotalScore    *int   `json:"totalScore,omitempty"`
}

// PendingEnd is a staged end awaiting recorder confirmation.
type PendingEnd struct {
	RoundID         int            `json:"roundID"`
	ParticipationID int            `json:"participationID"`
	Distance        float64        `json:"distance"`
	EndOrder        int            `json:"endOrder"`
	Arrows          []arrows.Value `json:"arrows"`
}

// Key identifies a pending end within a round listing.
func (p PendingEnd) Key() PendingKey {
	return PendingKey{ParticipationID: p.ParticipationID, Distance: p.Distance, EndOrder: p.EndOrder}
}

// PendingKey identifies one staged end.
type PendingKey struct {
	ParticipationID int
	Distance        float64
	EndOrder        int
}

// EndConfirmation is the payload a recorder sends to confirm a staged end.
type EndConfirmation struct {
	RoundID         int            `json:"roundID"`
	ParticipationID int            `json:"participationID"`
	Distance        float64        `json:"distance"`
	EndOrder        int            `json:"endOrder"`
	Arrows          []arrows.Value `json:"arrows"`
	StagingStatus   string         `json:"stagingStatus"`
	RecorderID      int            `json:"recorderID"`
}

// StagingConfirmed is the staging status a recorder sets on confirmation.
const StagingConfirmed = "confirmed"

// Rejection removes a participant's staged arrows for a round.
type Rejection struct {
	RoundID         int `json:"roundID"`
	ParticipationID int `json:"participationID"`
}

// Role distinguishes archers from recorders.
type Role string

const (
	RoleArcher   Role = "archer"
	RoleRecorder Role = "recorder"
)

// Identity is the logged-in principal returned by a backend login.
type Identity struct {
	ID        int    `json:"id"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Credentials are forwarded to the backend login endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
