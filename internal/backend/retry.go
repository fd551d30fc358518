package backend

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingBackend retries idempotent reads. Submissions, confirmations,
// rejections and logins pass straight through.
type retryingBackend struct {
	Backend
	logger      *slog.Logger
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetrying wraps a backend with read retries. If maxAttempts/backoff are <= 0, defaults are used.
func NewRetrying(inner Backend, logger *slog.Logger, maxAttempts int, backoff time.Duration) Backend {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingBackend{
		Backend:     inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			base := time.Duration(attempt) * backoff
			return base + rand.N(backoff/2+1)
		},
	}
}

func retryRead[T any](ctx context.Context, r *retryingBackend, op string, call func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		v, err := call(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !Retryable(err) || attempt == r.maxAttempts {
			break
		}

		delay := r.backoffFn(attempt)
		if rl, ok := AsRateLimitError(err); ok && rl.RetryAfter > delay {
			delay = rl.RetryAfter
		}
		logWithOperation(ctx, r.logger, slog.LevelWarn, op, "backend read retry",
			"attempt", attempt, "max_attempts", r.maxAttempts, "error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	logWithOperation(ctx, r.logger, slog.LevelWarn, op, "backend read failed", "error", lastErr)
	return zero, lastErr
}

func (r *retryingBackend) Ranges(ctx context.Context, roundID int) ([]rounds.Range, error) {
	return retryRead(ctx, r, OpRanges, func(ctx context.Context) ([]rounds.Range, error) {
		return r.Backend.Ranges(ctx, roundID)
	})
}

func (r *retryingBackend) Eligibility(ctx context.Context, participantID, roundID int) (rounds.Eligibility, error) {
	return retryRead(ctx, r, OpEligibility, func(ctx context.Context) (rounds.Eligibility, error) {
		return r.Backend.Eligibility(ctx, participantID, roundID)
	})
}

func (r *retryingBackend) SubmittedEnds(ctx context.Context, participantID, roundID int) ([]rounds.SubmittedEnd, error) {
	return retryRead(ctx, r, OpSubmittedEnds, func(ctx context.Context) ([]rounds.SubmittedEnd, error) {
		return r.Backend.SubmittedEnds(ctx, participantID, roundID)
	})
}

func (r *retryingBackend) Ranking(ctx context.Context, competitionID, roundID int) ([]rounds.RankingRow, error) {
	return retryRead(ctx, r, OpRanking, func(ctx context.Context) ([]rounds.RankingRow, error) {
		return r.Backend.Ranking(ctx, competitionID, roundID)
	})
}

func (r *retryingBackend) Competitions(ctx context.Context) ([]rounds.Competition, error) {
	return retryRead(ctx, r, OpCompetitions, r.Backend.Competitions)
}

func (r *retryingBackend) ArcherCompetitions(ctx context.Context, archerID int) ([]rounds.Competition, error) {
	return retryRead(ctx, r, OpArcherCompetitions, func(ctx context.Context) ([]rounds.Competition, error) {
		return r.Backend.ArcherCompetitions(ctx, archerID)
	})
}

func (r *retryingBackend) CompetitionRounds(ctx context.Context, competitionID int) ([]rounds.Round, error) {
	return retryRead(ctx, r, OpCompetitionRounds, func(ctx context.Context) ([]rounds.Round, error) {
		return r.Backend.CompetitionRounds(ctx, competitionID)
	})
}

func (r *retryingBackend) PendingEnds(ctx context.Context, roundID int) ([]rounds.PendingEnd, error) {
	return retryRead(ctx, r, OpPendingEnds, func(ctx context.Context) ([]rounds.PendingEnd, error) {
		return r.Backend.PendingEnds(ctx, roundID)
	})
}
