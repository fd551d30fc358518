package entry

import (
	"context"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/metrics"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

// recordingSubmitter counts submission outcomes; recorded=false counts as a failure.
type recordingSubmitter struct {
	next    backend.EndSubmitter
	metrics *metrics.Recorder
}

func (r recordingSubmitter) SubmitEnd(ctx context.Context, sub rounds.EndSubmission) (bool, error) {
	recorded, err := r.next.SubmitEnd(ctx, sub)
	outcome := err
	if err == nil && !recorded {
		outcome = scoring.ErrNotRecorded
	}
	r.metrics.RecordSubmission(outcome)
	return recorded, err
}
