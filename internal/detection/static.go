package detection

import (
	"context"

	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

// Static returns the same tokens for every photo. It stands in for the
// detection service in local runs.
type Static struct {
	Tokens []string
}

var _ scoring.Detector = Static{}

func (s Static) Detect(ctx context.Context, photo scoring.Photo) ([]string, error) {
	if len(photo.Data) == 0 {
		return nil, ErrMalformedResponse
	}
	return append([]string(nil), s.Tokens...), nil
}
