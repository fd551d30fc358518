package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

type memDrafts struct {
	data   map[string][]byte
	sets   int
	setErr error
}

func newMemDrafts() *memDrafts { return &memDrafts{data: map[string][]byte{}} }

func (m *memDrafts) Get(key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memDrafts) Set(key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memDrafts) Remove(key string) error {
	delete(m.data, key)
	return nil
}

type fakeSubmitter struct {
	recorded bool
	err      error
	calls    []rounds.EndSubmission
}

func (f *fakeSubmitter) SubmitEnd(ctx context.Context, sub rounds.EndSubmission) (bool, error) {
	f.calls = append(f.calls, sub)
	return f.recorded, f.err
}

type fakeDetector struct {
	tokens []string
	err    error
	calls  int
}

func (f *fakeDetector) Detect(ctx context.Context, photo Photo) ([]string, error) {
	f.calls++
	return f.tokens, f.err
}

type recordingNotifier struct {
	got []Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) {
	r.got = append(r.got, n)
}

var errBackendDown = errors.New("backend down")

func oneRange(ends, arrowsPerEnd int) []rounds.Range {
	return []rounds.Range{{ID: 1, Distance: 70, TargetSize: 122, TotalEnds: ends, ArrowsPerEnd: arrowsPerEnd}}
}

func newTestController(t *testing.T, ranges []rounds.Range, opts Options) *Controller {
	t.Helper()
	s, err := InitSession(7, 42, ranges)
	if err != nil {
		t.Fatalf("init session: %v", err)
	}
	return NewController(s, opts)
}

func enterEnd(t *testing.T, c *Controller, rangeIndex, endNumber int, tokens ...string) {
	t.Helper()
	for i, tok := range tokens {
		at := Cursor{RangeIndex: rangeIndex, EndNumber: endNumber, ArrowNumber: i + 1}
		if err := c.SetArrow(context.Background(), at, tok); err != nil {
			t.Fatalf("set arrow %d: %v", i+1, err)
		}
	}
}

func pngPhoto(name string) Photo {
	return Photo{Name: name, ContentType: "image/png", Data: []byte("\x89PNG" + name)}
}

func ctx() context.Context { return context.Background() }
