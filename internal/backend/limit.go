package backend

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// rateLimitedBackend paces reads through a token bucket so a burst of page
// loads cannot flood the backend. Writes are user-paced and pass through.
type rateLimitedBackend struct {
	Backend
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimited limits reads to perSecond with the given burst. A
// non-positive rate disables limiting.
func NewRateLimited(next Backend, perSecond float64, burst int, logger *slog.Logger) Backend {
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitedBackend{
		Backend: next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

func (p *rateLimitedBackend) wait(ctx context.Context, op string) error {
	if p == nil || p.Backend == nil {
		return ErrUnavailable
	}
	if err := p.limiter.Wait(ctx); err != nil {
		logWithOperation(ctx, p.logger, slog.LevelWarn, op, "rate-limited read canceled", "error", err)
		return err
	}
	return nil
}

func (p *rateLimitedBackend) Ranges(ctx context.Context, roundID int) ([]rounds.Range, error) {
	if err := p.wait(ctx, OpRanges); err != nil {
		return nil, err
	}
	return p.Backend.Ranges(ctx, roundID)
}

func (p *rateLimitedBackend) Eligibility(ctx context.Context, participantID, roundID int) (rounds.Eligibility, error) {
	if err := p.wait(ctx, OpEligibility); err != nil {
		return rounds.Eligibility{}, err
	}
	return p.Backend.Eligibility(ctx, participantID, roundID)
}

func (p *rateLimitedBackend) SubmittedEnds(ctx context.Context, participantID, roundID int) ([]rounds.SubmittedEnd, error) {
	if err := p.wait(ctx, OpSubmittedEnds); err != nil {
		return nil, err
	}
	return p.Backend.SubmittedEnds(ctx, participantID, roundID)
}

func (p *rateLimitedBackend) Ranking(ctx context.Context, competitionID, roundID int) ([]rounds.RankingRow, error) {
	if err := p.wait(ctx, OpRanking); err != nil {
		return nil, err
	}
	return p.Backend.Ranking(ctx, competitionID, roundID)
}

func (p *rateLimitedBackend) Competitions(ctx context.Context) ([]rounds.Competition, error) {
	if err := p.wait(ctx, OpCompetitions); err != nil {
		return nil, err
	}
	return p.Backend.Competitions(ctx)
}

func (p *rateLimitedBackend) ArcherCompetitions(ctx context.Context, archerID int) ([]rounds.Competition, error) {
	if err := p.wait(ctx, OpArcherCompetitions); err != nil {
		return nil, err
	}
	return p.Backend.ArcherCompetitions(ctx, archerID)
}

func (p *rateLimitedBackend) CompetitionRounds(ctx context.Context, competitionID int) ([]rounds.Round, error) {
	if err := p.wait(ctx, OpCompetitionRounds); err != nil {
		return nil, err
	}
	return p.Backend.CompetitionRounds(ctx, competitionID)
}

func (p *rateLimitedBackend) PendingEnds(ctx context.Context, roundID int) ([]rounds.PendingEnd, error) {
	if err := p.wait(ctx, OpPendingEnds); err != nil {
		return nil, err
	}
	return p.Backend.PendingEnds(ctx, roundID)
}
