package scoring

import (
	"context"
	"log/slog"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// Submitter records one end on the backend. recorded=false means the backend
// answered but declined to record it.
type Submitter interface {
	SubmitEnd(ctx context.Context, sub rounds.EndSubmission) (recorded bool, err error)
}

// Detector turns an end photo into an ordered list of display tokens.
type Detector interface {
	Detect(ctx context.Context, photo Photo) ([]string, error)
}

// Notifier receives range and session completion notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Options carries the collaborators of a Controller. Every field is optional.
type Options struct {
	Drafts    DraftStore
	Submitter Submitter
	Detector  Detector
	Notifier  Notifier
	Logger    *slog.Logger
}

// Controller owns a session and its entry cursor and enforces the locking rules.
// It is not safe for concurrent use; callers serialise access per session.
type Controller struct {
	session *Session
	cursor  Cursor
	opts    Options
}

// NewController wraps a session and positions the cursor on the first open end.
func NewController(session *Session, opts Options) *Controller {
	c := &Controller{session: session, opts: opts}
	c.cursor = c.ResumeCursor()
	return c
}

// Session exposes the underlying aggregate. Callers must not mutate it directly.
func (c *Controller) Session() *Session { return c.session }

// Cursor returns the current entry position.
func (c *Controller) Cursor() Cursor { return c.cursor }

func (c *Controller) persist(ctx context.Context) {
	if c.opts.Drafts == nil {
		return
	}
	if err := SaveDraft(c.opts.Drafts, c.session); err != nil && c.opts.Logger != nil {
		c.opts.Logger.WarnContext(ctx, "draft save failed",
			slog.Int("round_id", c.session.RoundID),
			slog.Any("error", err),
		)
	}
}

func (c *Controller) notify(ctx context.Context, notes []Notification) {
	if c.opts.Notifier == nil {
		return
	}
	for _, n := range notes {
		c.opts.Notifier.Notify(ctx, n)
	}
}

func (c *Controller) endAt(rangeIndex, endNumber int) (*End, error) {
	e, ok := c.session.End(rangeIndex, endNumber)
	if !ok {
		return nil, &ValidationError{Field: "end", Reason: "position out of bounds"}
	}
	return e, nil
}

// checkOpen returns LockedEndError unless the end is unlocked and unsubmitted.
func (c *Controller) checkOpen(rangeIndex, endNumber int, e *End) error {
	if e.Submitted {
		return &LockedEndError{RangeIndex: rangeIndex, EndNumber: endNumber, Submitted: true}
	}
	if !c.IsEndUnlocked(rangeIndex, endNumber) {
		return &LockedEndError{RangeIndex: rangeIndex, EndNumber: endNumber}
	}
	return nil
}
