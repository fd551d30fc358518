package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

// StubDetector is a test double for scoring.Detector.
type StubDetector struct {
	Tokens []string
	Err    error
	Calls  atomic.Int32
	Notify chan struct{}
}

var _ scoring.Detector = (*StubDetector)(nil)

// Detect returns the configured tokens and error while tracking calls.
func (s *StubDetector) Detect(ctx context.Context, photo scoring.Photo) ([]string, error) {
	_ = ctx
	_ = photo
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
	s.Calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]string(nil), s.Tokens...), nil
}

// RecordingNotifier is a test double for scoring.Notifier that keeps every
// notification it receives.
type RecordingNotifier struct {
	mu  sync.Mutex
	got []scoring.Notification
}

var _ scoring.Notifier = (*RecordingNotifier)(nil)

// Notify records n.
func (r *RecordingNotifier) Notify(ctx context.Context, n scoring.Notification) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

// Notifications returns a copy of what was recorded.
func (r *RecordingNotifier) Notifications() []scoring.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scoring.Notification(nil), r.got...)
}
