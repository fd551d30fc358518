// Package backend describes the remote archery backend and the decorators that
// wrap its client.
package backend

import (
	"context"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// Operation names label logs and metrics for each backend call.
const (
	OpRanges             = "ranges"
	OpEligibility        = "eligibility"
	OpSubmittedEnds      = "submitted_ends"
	OpSubmitEnd          = "submit_end"
	OpRanking            = "ranking"
	OpCompetitions       = "competitions"
	OpArcherCompetitions = "archer_competitions"
	OpCompetitionRounds  = "competition_rounds"
	OpPendingEnds        = "pending_ends"
	OpConfirmEnd         = "confirm_end"
	OpRejectEnds         = "reject_ends"
	OpLogin              = "login"
)

// RoundReader loads what a scoring session needs to start or resume.
type RoundReader interface {
	Ranges(ctx context.Context, roundID int) ([]rounds.Range, error)
	Eligibility(ctx context.Context, participantID, roundID int) (rounds.Eligibility, error)
	SubmittedEnds(ctx context.Context, participantID, roundID int) ([]rounds.SubmittedEnd, error)
}

// EndSubmitter records one end. recorded=false means the backend declined it.
type EndSubmitter interface {
	SubmitEnd(ctx context.Context, sub rounds.EndSubmission) (recorded bool, err error)
}

// RankingReader loads a round's ranking rows.
type RankingReader interface {
	Ranking(ctx context.Context, competitionID, roundID int) ([]rounds.RankingRow, error)
}

// CompetitionReader lists competitions and their rounds.
type CompetitionReader interface {
	Competitions(ctx context.Context) ([]rounds.Competition, error)
	ArcherCompetitions(ctx context.Context, archerID int) ([]rounds.Competition, error)
	CompetitionRounds(ctx context.Context, competitionID int) ([]rounds.Round, error)
}

// Verifier is the recorder side: staged ends awaiting confirmation.
type Verifier interface {
	PendingEnds(ctx context.Context, roundID int) ([]rounds.PendingEnd, error)
	ConfirmEnd(ctx context.Context, c rounds.EndConfirmation) error
	RejectEnds(ctx context.Context, r rounds.Rejection) error
}

// Authenticator checks credentials for a role.
type Authenticator interface {
	Login(ctx context.Context, role rounds.Role, creds rounds.Credentials) (rounds.Identity, error)
}

// Backend combines every capability of the remote backend.
type Backend interface {
	RoundReader
	EndSubmitter
	RankingReader
	CompetitionReader
	Verifier
	Authenticator
}
